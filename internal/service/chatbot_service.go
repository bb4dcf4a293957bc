package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/repository"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
	"github.com/KHMER0/sale-system/pkg/llm"
)

// 聊天紀錄角色；助理回覆在紀錄中記為 bot
const (
	ChatRoleUser = "user"
	ChatRoleBot  = "bot"
)

const chatIntroMessage = "您好！我是您的銷售管理系統助理。我可以協助您查詢客戶、訂單、報價單等銷售資料，並引導您使用系統功能。如果您需要我協助執行某些操作（例如建立或更新資料），請務必在執行前給予我明確的確認。請問有什麼可以為您服務的嗎？"

const chatSystemPrompt = `你是一個專業、智慧的銷售管理系統助理。你的主要目標是協助使用者（業務人員、經理）有效率地查詢銷售資料。
你的語氣應始終保持專業、簡潔且樂於助人。

重要規則:
1. 根據提供的資料庫脈絡回答問題: 你接下來會收到一段包含「資料庫脈絡」的文字，裡面有從資料庫查詢到的真實資料。你必須根據這份脈絡來回答使用者的問題。
2. 絕不捏造資訊: 如果在提供的「資料庫脈絡」中找不到使用者問題的答案，你必須明確地告知使用者「我無法在資料庫中找到相關資訊」，嚴禁自行編造或產生任何資料庫脈絡中不存在的內容。
3. 提供 ID: 當回覆內容提到特定的訂單、報價單或客戶資料時，必須一併提供其對應的 ID。例如：訂單 (ID: 10), 客戶 (ID: 5)。
4. 安全與隱私: 絕不透露使用者的密碼、API 金鑰或任何敏感的個人身份資訊。
5. 無關問題: 如果提問的問題與銷售管理系統無關，請禮貌地拒絕回答。
6. 語言與格式: 請使用繁體中文與使用者溝通。回覆內容請使用純文字，並用換行和列表來組織資訊，使其清晰易讀。

你將會根據以下資料庫結構的脈絡進行回覆：
* 客戶 (Customers): id, name, contact_person, phone, email
* 訂單 (Orders): id, customer_id, order_date, amount, status
* 報價單 (Quotes): id, customer_id, quote_date, amount, status`

const chatEmptySnapshot = "資料庫中目前沒有資料。"

var ErrChatMessageEmpty = pkgerrors.New(pkgerrors.ErrValidation, "訊息不能為空")

// ChatCompleter 補全服務（pkg/llm.Client 實作）
type ChatCompleter interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// ChatbotService 聊天助理業務介面
type ChatbotService interface {
	// Chat 送出一則訊息；補全服務失敗時以文字回覆說明，不回傳錯誤
	Chat(ctx context.Context, actor authz.Actor, message string) (*dto.ChatResponse, error)
	// History 取得對話紀錄，空紀錄時先寫入開場訊息
	History(ctx context.Context, actor authz.Actor) ([]dto.ChatMessage, error)
	Reset(ctx context.Context, actor authz.Actor) error
}

type chatbotService struct {
	repo         *repository.Repository
	completer    ChatCompleter
	history      ChatHistoryStore
	historyLimit int
	logger       *zap.Logger
}

// NewChatbotService 建立 ChatbotService 實例；completer 為 nil 時回覆未設定
func NewChatbotService(
	repo *repository.Repository,
	completer ChatCompleter,
	history ChatHistoryStore,
	historyLimit int,
	logger *zap.Logger,
) ChatbotService {
	return &chatbotService{
		repo:         repo,
		completer:    completer,
		history:      history,
		historyLimit: historyLimit,
		logger:       logger,
	}
}

// ────────────────────── Chat ──────────────────────

func (s *chatbotService) Chat(ctx context.Context, actor authz.Actor, message string) (*dto.ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrChatMessageEmpty
	}

	prior, err := s.history.Load(ctx, actor.ID)
	if err != nil {
		s.logger.Warn("讀取聊天紀錄失敗", zap.Int64("user_id", actor.ID), zap.Error(err))
		prior = nil
	}

	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	reply := s.complete(ctx, buildChatMessages(prior, snapshot, message))

	turn := []dto.ChatMessage{
		{Role: ChatRoleUser, Content: message},
		{Role: ChatRoleBot, Content: reply},
	}
	if err := s.history.Append(ctx, actor.ID, s.historyLimit, turn...); err != nil {
		s.logger.Warn("寫入聊天紀錄失敗", zap.Int64("user_id", actor.ID), zap.Error(err))
	}

	history, err := s.history.Load(ctx, actor.ID)
	if err != nil {
		history = append(prior, turn...)
	}
	return &dto.ChatResponse{Reply: reply, History: history}, nil
}

// ────────────────────── History ──────────────────────

func (s *chatbotService) History(ctx context.Context, actor authz.Actor) ([]dto.ChatMessage, error) {
	history, err := s.history.Load(ctx, actor.ID)
	if err != nil {
		s.logger.Warn("讀取聊天紀錄失敗", zap.Int64("user_id", actor.ID), zap.Error(err))
		return nil, pkgerrors.New(pkgerrors.ErrExternalService, "聊天紀錄暫時無法讀取")
	}
	if len(history) > 0 {
		return history, nil
	}

	intro := dto.ChatMessage{Role: ChatRoleBot, Content: chatIntroMessage}
	if err := s.history.Append(ctx, actor.ID, s.historyLimit, intro); err != nil {
		s.logger.Warn("寫入開場訊息失敗", zap.Int64("user_id", actor.ID), zap.Error(err))
	}
	return []dto.ChatMessage{intro}, nil
}

func (s *chatbotService) Reset(ctx context.Context, actor authz.Actor) error {
	if err := s.history.Clear(ctx, actor.ID); err != nil {
		s.logger.Warn("清除聊天紀錄失敗", zap.Int64("user_id", actor.ID), zap.Error(err))
		return pkgerrors.New(pkgerrors.ErrExternalService, "聊天紀錄暫時無法清除")
	}
	return nil
}

// ── 內部輔助 ──

func (s *chatbotService) complete(ctx context.Context, messages []llm.Message) string {
	if s.completer == nil {
		return describeChatFailure(llm.ErrNotConfigured)
	}
	reply, err := s.completer.Complete(ctx, messages)
	if err != nil {
		s.logger.Warn("聊天服務呼叫失敗", zap.Error(err))
		return describeChatFailure(err)
	}
	return reply
}

// describeChatFailure 將補全失敗轉為給使用者看的文字
func describeChatFailure(err error) string {
	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		return "錯誤：未設定聊天助理的 API 金鑰。"
	case errors.Is(err, llm.ErrEmptyReply):
		return "機器人回應格式不正確。"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("與聊天服務通訊時發生錯誤: HTTP %d", statusErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "與聊天服務通訊逾時，請稍後再試。"
	default:
		return fmt.Sprintf("與聊天服務通訊時發生錯誤: %v", err)
	}
}

// buildChatMessages 系統提示、先前對話、本次問題依序組成
// 開場訊息不送出；bot 轉為 assistant
func buildChatMessages(prior []dto.ChatMessage, snapshot, message string) []llm.Message {
	msgs := make([]llm.Message, 0, len(prior)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: chatSystemPrompt})
	for _, m := range prior {
		if m.Role == ChatRoleBot && m.Content == chatIntroMessage {
			continue
		}
		role := llm.RoleUser
		if m.Role == ChatRoleBot {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{
		Role: llm.RoleUser,
		Content: "請根據以下「資料庫脈絡」來回答問題。\n\n--- 資料庫脈絡 ---\n" + snapshot +
			"\n\n--- 使用者問題 ---\n" + message,
	})
	return msgs
}

type snapshotCustomer struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
}

type snapshotRecord struct {
	ID           int64  `json:"id"`
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	Date         string `json:"date"`
	Amount       string `json:"amount"`
	Status       string `json:"status"`
}

// snapshot 目前全部客戶、訂單與報價單的 JSON 文字；客戶已刪除的訂單與報價單不列入
func (s *chatbotService) snapshot(ctx context.Context) (string, error) {
	all := repository.ListFilter{}
	customers, err := s.repo.Customer.List(ctx, all)
	if err != nil {
		return "", storageFailure(s.logger, "讀取客戶資料失敗", err)
	}
	orders, err := s.repo.Order.List(ctx, all)
	if err != nil {
		return "", storageFailure(s.logger, "讀取訂單資料失敗", err)
	}
	quotes, err := s.repo.Quote.List(ctx, all)
	if err != nil {
		return "", storageFailure(s.logger, "讀取報價單資料失敗", err)
	}

	known := lo.SliceToMap(customers, func(c model.Customer) (int64, bool) { return c.ID, true })

	var parts []string
	if len(customers) > 0 {
		rows := lo.Map(customers, func(c model.Customer, _ int) snapshotCustomer {
			return snapshotCustomer{ID: c.ID, Name: c.Name, ContactPerson: c.ContactPerson, Phone: c.Phone, Email: c.Email}
		})
		parts = append(parts, snapshotSection("客戶資料", rows))
	}

	orderRows := lo.FilterMap(orders, func(o model.Order, _ int) (snapshotRecord, bool) {
		return snapshotRecord{
			ID: o.ID, CustomerID: o.CustomerID, CustomerName: o.CustomerName,
			Date: formatDate(o.OrderDate), Amount: o.Amount.StringFixedBank(2), Status: o.Status,
		}, known[o.CustomerID]
	})
	if len(orderRows) > 0 {
		parts = append(parts, snapshotSection("訂單資料", orderRows))
	}

	quoteRows := lo.FilterMap(quotes, func(q model.Quote, _ int) (snapshotRecord, bool) {
		return snapshotRecord{
			ID: q.ID, CustomerID: q.CustomerID, CustomerName: q.CustomerName,
			Date: formatDate(q.QuoteDate), Amount: q.Amount.StringFixedBank(2), Status: q.Status,
		}, known[q.CustomerID]
	})
	if len(quoteRows) > 0 {
		parts = append(parts, snapshotSection("報價單資料", quoteRows))
	}

	if len(parts) == 0 {
		return chatEmptySnapshot, nil
	}
	return strings.Join(parts, "\n\n"), nil
}

func snapshotSection(title string, rows interface{}) string {
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return title + ":\n[]"
	}
	return title + ":\n" + string(b)
}
