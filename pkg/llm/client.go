package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/KHMER0/sale-system/config"
)

// 角色常數，對應補全 API 的 messages[].role
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var (
	ErrNotConfigured = errors.New("未設定聊天服務 API 金鑰")
	ErrEmptyReply    = errors.New("聊天服務回應內容為空")
)

// errorBodyLimit 非 2xx 回應僅擷取前段字元寫入錯誤訊息
const errorBodyLimit = 512

// Message 對話訊息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StatusError 補全服務回傳非 2xx
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("聊天服務回應 HTTP %d: %s", e.StatusCode, e.Body)
}

// Client Chat Completions 相容 API 客戶端
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient 建立客戶端，逾時取自設定
func NewClient(cfg *config.ChatbotConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Complete 送出對話並回傳第一個候選的文字內容
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	reqBody := struct {
		Model    string    `json:"model"`
		Messages []Message `json:"messages"`
		Stream   bool      `json:"stream"`
	}{
		Model:    c.model,
		Messages: messages,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("序列化請求失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("建立請求失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("呼叫聊天服務失敗: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("讀取聊天服務回應失敗: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 依字元截斷，避免切開多位元組字元
		body := lo.Substring(strings.TrimSpace(string(respBody)), 0, errorBodyLimit)
		return "", &StatusError{StatusCode: resp.StatusCode, Body: body}
	}

	if !gjson.ValidBytes(respBody) {
		return "", fmt.Errorf("聊天服務回應不是合法 JSON")
	}
	content := gjson.GetBytes(respBody, "choices.0.message.content")
	if !content.Exists() || content.String() == "" {
		return "", ErrEmptyReply
	}

	return content.String(), nil
}
