package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/config"
)

// Client Redis 客戶端封裝
// 用於 Token 黑名單、限流與聊天紀錄
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 建立 Redis 連線並 Ping 檢查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 連線失敗: %w", err)
	}

	logger.Info("Redis 連線成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── Token 黑名單 ──

const blacklistPrefix = "sales:token:blacklist:"

// BlacklistToken 將 JWT ID 加入黑名單，TTL 與 Token 剩餘效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 檢查 JWT ID 是否已登出
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 限流 ──

// slidingWindowScript 清除過期紀錄後，僅在額度內才記錄本次請求
// KEYS[1]=key ARGV: 視窗起點, 現在時間, 上限, 成員, 視窗毫秒
var slidingWindowScript = goredis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// CheckRateLimit 以 sorted set 實作滑動視窗
// 回傳 true 表示本次請求在額度內；被拒絕的請求不計入視窗
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	allowed, err := slidingWindowScript.Run(ctx, c.rdb, []string{key},
		now.Add(-window).UnixMicro(),
		now.UnixMicro(),
		limit,
		uuid.NewString(),
		window.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return allowed == 1, nil
}

// ── 聊天紀錄 ──

const chatHistoryPrefix = "sales:chat:history:"

// chatHistoryTTL 閒置超過此時長的對話自動清除
const chatHistoryTTL = 24 * time.Hour

func chatHistoryKey(userID int64) string {
	return chatHistoryPrefix + strconv.FormatInt(userID, 10)
}

// AppendChatHistory 依序追加對話紀錄並只保留最後 limit 筆
func (c *Client) AppendChatHistory(ctx context.Context, userID int64, entries []string, limit int) error {
	if len(entries) == 0 {
		return nil
	}
	key := chatHistoryKey(userID)
	values := make([]interface{}, len(entries))
	for i, e := range entries {
		values[i] = e
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if limit > 0 {
			pipe.LTrim(ctx, key, int64(-limit), -1)
		}
		pipe.Expire(ctx, key, chatHistoryTTL)
		return nil
	})
	return err
}

// ChatHistory 依時間順序取出全部對話紀錄
func (c *Client) ChatHistory(ctx context.Context, userID int64) ([]string, error) {
	return c.rdb.LRange(ctx, chatHistoryKey(userID), 0, -1).Result()
}

// ClearChatHistory 清除使用者對話紀錄
func (c *Client) ClearChatHistory(ctx context.Context, userID int64) error {
	return c.rdb.Del(ctx, chatHistoryKey(userID)).Err()
}

// Ping 健康檢查用
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 關閉 Redis 連線
func (c *Client) Close() error {
	return c.rdb.Close()
}
