package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/config"
)

// 銷售事件類型
const (
	EventOrderCreated   = "order.created"
	EventQuoteConverted = "quote.converted"
)

// Event 銷售事件
// Key 為訊息分區鍵，同一客戶的事件落在同一分區
type Event struct {
	Type       string      `json:"type"`
	Key        int64       `json:"-"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

// Publisher 事件發布介面
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Producer 基於 sarama SyncProducer 的發布者
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewProducer 連線 broker 建立同步生產者
func NewProducer(cfg *config.KafkaConfig, logger *zap.Logger) (*Producer, error) {
	sc := sarama.NewConfig()
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 5
	sc.Producer.Return.Successes = true
	sc.Producer.Timeout = 5 * time.Second

	sp, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("啟動 Kafka 生產者失敗: %w", err)
	}

	logger.Info("Kafka 生產者連線成功", zap.Strings("brokers", cfg.Brokers), zap.String("topic", cfg.Topic))
	return newProducer(sp, cfg.Topic, logger), nil
}

func newProducer(sp sarama.SyncProducer, topic string, logger *zap.Logger) *Producer {
	return &Producer{producer: sp, topic: topic, logger: logger}
}

// Publish 同步送出事件，ctx 已取消時不送出
func (p *Producer) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失敗: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.Key, 10)),
		Value: sarama.ByteEncoder(body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.Type)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("送出事件 %s 失敗: %w", event.Type, err)
	}

	p.logger.Debug("事件已送出",
		zap.String("type", event.Type),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close 關閉生產者
func (p *Producer) Close() error {
	return p.producer.Close()
}

// NopPublisher 未啟用 Kafka 時使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

func (NopPublisher) Close() error { return nil }
