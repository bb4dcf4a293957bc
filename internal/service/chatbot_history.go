package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/KHMER0/sale-system/internal/dto"
)

// ChatHistoryStore 以使用者為單位保存聊天紀錄，依到達順序排列
type ChatHistoryStore interface {
	Load(ctx context.Context, userID int64) ([]dto.ChatMessage, error)
	// Append 追加紀錄並只保留最後 limit 筆；limit <= 0 表示不限
	Append(ctx context.Context, userID int64, limit int, msgs ...dto.ChatMessage) error
	Clear(ctx context.Context, userID int64) error
}

// ────────────────────── Redis ──────────────────────

// ChatHistoryBackend Redis 清單操作（pkg/redis.Client 實作）
type ChatHistoryBackend interface {
	AppendChatHistory(ctx context.Context, userID int64, entries []string, limit int) error
	ChatHistory(ctx context.Context, userID int64) ([]string, error)
	ClearChatHistory(ctx context.Context, userID int64) error
}

type redisHistoryStore struct {
	backend ChatHistoryBackend
}

// NewRedisHistoryStore 以 Redis 清單保存聊天紀錄，每筆為一則 JSON
func NewRedisHistoryStore(backend ChatHistoryBackend) ChatHistoryStore {
	return &redisHistoryStore{backend: backend}
}

func (s *redisHistoryStore) Load(ctx context.Context, userID int64) ([]dto.ChatMessage, error) {
	entries, err := s.backend.ChatHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	msgs := make([]dto.ChatMessage, 0, len(entries))
	for _, e := range entries {
		var m dto.ChatMessage
		// 無法解析的舊格式直接略過
		if err := json.Unmarshal([]byte(e), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *redisHistoryStore) Append(ctx context.Context, userID int64, limit int, msgs ...dto.ChatMessage) error {
	entries := make([]string, 0, len(msgs))
	for _, m := range msgs {
		b, err := json.Marshal(m)
		if err != nil {
			return err
		}
		entries = append(entries, string(b))
	}
	return s.backend.AppendChatHistory(ctx, userID, entries, limit)
}

func (s *redisHistoryStore) Clear(ctx context.Context, userID int64) error {
	return s.backend.ClearChatHistory(ctx, userID)
}

// ────────────────────── 記憶體 ──────────────────────

// memoryHistoryStore 未啟用 Redis 時使用，程序重啟即清空
type memoryHistoryStore struct {
	mu      sync.Mutex
	history map[int64][]dto.ChatMessage
}

// NewMemoryHistoryStore 建立記憶體聊天紀錄
func NewMemoryHistoryStore() ChatHistoryStore {
	return &memoryHistoryStore{history: make(map[int64][]dto.ChatMessage)}
}

func (s *memoryHistoryStore) Load(_ context.Context, userID int64) ([]dto.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dto.ChatMessage, len(s.history[userID]))
	copy(out, s.history[userID])
	return out, nil
}

func (s *memoryHistoryStore) Append(_ context.Context, userID int64, limit int, msgs ...dto.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := append(s.history[userID], msgs...)
	if limit > 0 && len(h) > limit {
		h = append([]dto.ChatMessage(nil), h[len(h)-limit:]...)
	}
	s.history[userID] = h
	return nil
}

func (s *memoryHistoryStore) Clear(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.history, userID)
	return nil
}
