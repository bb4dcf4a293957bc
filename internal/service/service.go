package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/KHMER0/sale-system/config"
	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/repository"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
	"github.com/KHMER0/sale-system/pkg/jwt"
	"github.com/KHMER0/sale-system/pkg/kafka"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth      AuthService
	User      UserService
	Customer  CustomerService
	Order     OrderService
	Quote     QuoteService
	Analytics AnalyticsService
	Chatbot   ChatbotService
	Export    ExportService
	Seed      SeedService
}

// Deps 外部依賴；Blacklist、History 為 nil 時分別停用登出黑名單與改用記憶體保存對話
type Deps struct {
	Blacklist TokenBlacklist
	Completer ChatCompleter
	History   ChatHistoryStore
	Publisher kafka.Publisher
}

// NewService 建立 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	deps Deps,
	logger *zap.Logger,
) *Service {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	history := deps.History
	if history == nil {
		history = NewMemoryHistoryStore()
	}

	return &Service{
		Auth:      NewAuthService(cfg, repo, jwtMgr, deps.Blacklist, logger),
		User:      NewUserService(repo, logger),
		Customer:  NewCustomerService(repo, logger),
		Order:     NewOrderService(repo, publisher, logger),
		Quote:     NewQuoteService(repo, publisher, logger),
		Analytics: NewAnalyticsService(repo, logger),
		Chatbot:   NewChatbotService(repo, deps.Completer, history, cfg.Chatbot.HistoryLimit, logger),
		Export:    NewExportService(repo, logger),
		Seed:      NewSeedService(repo, logger),
	}
}

// ── 內部輔助 ──

// isNotFound 判斷 gorm 查無資料
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// storageFailure 記錄資料庫錯誤並歸類為 StorageError
func storageFailure(logger *zap.Logger, msg string, err error, fields ...zap.Field) error {
	logger.Error(msg, append(fields, zap.Error(err))...)
	return pkgerrors.Storage(err)
}

func validation(msg string) error {
	return pkgerrors.New(pkgerrors.ErrValidation, msg)
}

// checkLength 以字元數比對欄位上限，對應資料表的 varchar 長度
func checkLength(field, value string, max int) error {
	if lo.RuneLength(value) > max {
		return validation(fmt.Sprintf("%s 不能超過 %d 個字元", field, max))
	}
	return nil
}

// parseDate 解析 YYYY-MM-DD
func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(dto.DateLayout, value)
	if err != nil {
		return time.Time{}, validation(field + " 格式必須為 YYYY-MM-DD")
	}
	return t, nil
}

func formatDate(t time.Time) string {
	return t.Format(dto.DateLayout)
}
