package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/repository"
)

// 產生範例資料時的客戶數量門檻
const sampleCustomerTarget = 20

// SeedService 啟動時的初始資料
type SeedService interface {
	// EnsureRoot 確保員工編號 1 存在；password 為空時產生臨時密碼並回傳
	EnsureRoot(ctx context.Context, password string) (generated string, err error)
	// SeedSampleData 客戶不足時補齊範例客戶、報價單與訂單
	SeedSampleData(ctx context.Context) error
}

type seedService struct {
	repo   *repository.Repository
	rng    *mrand.Rand
	now    func() time.Time
	logger *zap.Logger
}

// NewSeedService 建立 SeedService 實例
func NewSeedService(repo *repository.Repository, logger *zap.Logger) SeedService {
	return &seedService{
		repo:   repo,
		rng:    mrand.New(mrand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		logger: logger,
	}
}

// ────────────────────── EnsureRoot ──────────────────────

func (s *seedService) EnsureRoot(ctx context.Context, password string) (string, error) {
	if _, err := s.repo.User.GetByEmployeeID(ctx, model.RootEmployeeID); err == nil {
		return "", nil
	} else if !isNotFound(err) {
		return "", storageFailure(s.logger, "查詢最高權限帳號失敗", err)
	}

	generated := ""
	if password == "" {
		p, err := generateTempPassword(12)
		if err != nil {
			s.logger.Error("產生臨時密碼失敗", zap.Error(err))
			return "", err
		}
		password, generated = p, p
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密碼雜湊失敗", zap.Error(err))
		return "", err
	}

	root := &model.User{
		EmployeeID: model.RootEmployeeID,
		Password:   string(hash),
		Name:       "Frank",
		Role:       model.RoleSystemAdmin,
		CreatorID:  1,
	}
	if err := s.repo.User.Create(ctx, root); err != nil {
		return "", storageFailure(s.logger, "建立最高權限帳號失敗", err)
	}
	// 最高權限帳號的建立者為自己，序號不一定從 1 開始
	if root.CreatorID != root.ID {
		if err := s.repo.User.UpdateFields(ctx, root.ID, map[string]interface{}{"creator_id": root.ID}); err != nil {
			return "", storageFailure(s.logger, "更新最高權限帳號建立者失敗", err, zap.Int64("user_id", root.ID))
		}
		root.CreatorID = root.ID
	}

	s.logger.Info("已建立最高權限帳號", zap.Int64("user_id", root.ID))
	return generated, nil
}

// ────────────────────── SeedSampleData ──────────────────────

var (
	sampleCompanyPrefixes = []string{"宏達", "聯發", "台達", "中華", "遠傳", "台灣", "國泰", "富邦", "玉山", "中信"}
	sampleCompanySuffixes = []string{"電子", "科技", "實業", "國際", "開發", "控股", "金控", "商業銀行", "股份有限公司", "有限公司"}
	sampleSurnames        = []string{"陳", "林", "黃", "張", "李", "王", "吳", "劉", "蔡", "楊"}
	sampleTitles          = []string{"先生", "小姐", "經理", "總監"}
	sampleQuoteStatuses   = []string{model.QuoteStatusDraft, model.QuoteStatusSent, model.QuoteStatusAccepted, model.QuoteStatusRejected}
	sampleOrderStatuses   = []string{model.OrderStatusPaid, model.OrderStatusUnpaid, model.OrderStatusCancelled}
)

func (s *seedService) SeedSampleData(ctx context.Context) error {
	count, err := s.repo.Customer.Count(ctx)
	if err != nil {
		return storageFailure(s.logger, "統計客戶數量失敗", err)
	}
	if count >= sampleCustomerTarget {
		return nil
	}

	userIDs, err := s.repo.User.ListIDs(ctx)
	if err != nil {
		return storageFailure(s.logger, "查詢使用者失敗", err)
	}
	if len(userIDs) == 0 {
		userIDs = []int64{1}
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if count == 0 {
			if err := s.seedBase(ctx, tx); err != nil {
				return err
			}
		}
		return s.seedGenerated(ctx, tx, userIDs)
	})
	if err != nil {
		return storageFailure(s.logger, "寫入範例資料失敗", err)
	}

	s.logger.Info("已寫入範例資料", zap.Int64("existing_customers", count))
	return nil
}

// seedBase 兩筆基本客戶，以及對應的訂單與報價單
func (s *seedService) seedBase(ctx context.Context, tx *repository.Repository) error {
	customers := []model.Customer{
		{Name: "TechCorp", ContactPerson: "Alice", Phone: "123-456-7890", Email: "alice@techcorp.com", CreatorID: 1},
		{Name: "Innovate Inc.", ContactPerson: "Bob", Phone: "098-765-4321", Email: "bob@innovateinc.com", CreatorID: 1},
	}
	if err := tx.Customer.BatchCreate(ctx, customers); err != nil {
		return err
	}
	first, second := customers[0].ID, customers[1].ID

	orders := []model.Order{
		{CustomerID: first, OrderDate: date(2025, 7, 1), Amount: decimal.RequireFromString("1500.00"), Status: model.OrderStatusCompleted, CreatorID: 1},
		{CustomerID: second, OrderDate: date(2025, 7, 5), Amount: decimal.RequireFromString("3000.50"), Status: model.OrderStatusPending, CreatorID: 1},
	}
	if err := tx.Order.BatchCreate(ctx, orders); err != nil {
		return err
	}

	quotes := []model.Quote{
		{CustomerID: first, QuoteDate: date(2025, 6, 20), Amount: decimal.RequireFromString("1400.00"), Status: model.QuoteStatusAccepted, CreatorID: 1},
		{CustomerID: second, QuoteDate: date(2025, 7, 2), Amount: decimal.RequireFromString("2900.75"), Status: model.QuoteStatusSent, CreatorID: 1},
	}
	return tx.Quote.BatchCreate(ctx, quotes)
}

// seedGenerated 隨機產生 20 筆客戶、報價單與訂單，日期落在過去一年內
func (s *seedService) seedGenerated(ctx context.Context, tx *repository.Repository, userIDs []int64) error {
	customers := make([]model.Customer, 0, sampleCustomerTarget)
	for i := 0; i < sampleCustomerTarget; i++ {
		customers = append(customers, model.Customer{
			Name:          s.pick(sampleCompanyPrefixes) + s.pick(sampleCompanySuffixes),
			ContactPerson: s.pick(sampleSurnames) + s.pick(sampleTitles),
			Phone:         fmt.Sprintf("09%d-%d", 10+s.rng.Intn(79), 100000+s.rng.Intn(900000)),
			Email:         fmt.Sprintf("contact%d@example.com", i),
			CreatorID:     userIDs[s.rng.Intn(len(userIDs))],
		})
	}
	if err := tx.Customer.BatchCreate(ctx, customers); err != nil {
		return err
	}
	customerIDs := lo.Map(customers, func(c model.Customer, _ int) int64 { return c.ID })

	quotes := make([]model.Quote, 0, sampleCustomerTarget)
	for i := 0; i < sampleCustomerTarget; i++ {
		quotes = append(quotes, model.Quote{
			CustomerID: customerIDs[s.rng.Intn(len(customerIDs))],
			QuoteDate:  s.pastDate(),
			Amount:     s.amount(5000, 100000),
			Status:     s.pick(sampleQuoteStatuses),
			CreatorID:  userIDs[s.rng.Intn(len(userIDs))],
		})
	}
	if err := tx.Quote.BatchCreate(ctx, quotes); err != nil {
		return err
	}

	orders := make([]model.Order, 0, sampleCustomerTarget)
	for i := 0; i < sampleCustomerTarget; i++ {
		orders = append(orders, model.Order{
			CustomerID: customerIDs[s.rng.Intn(len(customerIDs))],
			OrderDate:  s.pastDate(),
			Amount:     s.amount(10000, 200000),
			Status:     s.pick(sampleOrderStatuses),
			CreatorID:  userIDs[s.rng.Intn(len(userIDs))],
		})
	}
	return tx.Order.BatchCreate(ctx, orders)
}

func (s *seedService) pick(values []string) string {
	return values[s.rng.Intn(len(values))]
}

func (s *seedService) pastDate() time.Time {
	today := s.now()
	d := date(today.Year(), today.Month(), today.Day())
	return d.AddDate(0, 0, -s.rng.Intn(366))
}

// amount 以分為單位取亂數，避免浮點誤差
func (s *seedService) amount(min, max int64) decimal.Decimal {
	cents := min*100 + s.rng.Int63n((max-min)*100+1)
	return decimal.New(cents, -2)
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// generateTempPassword 產生指定長度的臨時密碼（保證包含字母與數字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 8
	}

	result := make([]byte, length)

	// 保證至少 1 個字母與 1 個數字
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
	if err != nil {
		return "", err
	}
	result[0] = letters[n.Int64()]

	n, err = rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
	if err != nil {
		return "", err
	}
	result[1] = digits[n.Int64()]

	for i := 2; i < length; i++ {
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(all))))
		if err != nil {
			return "", err
		}
		result[i] = all[n.Int64()]
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
