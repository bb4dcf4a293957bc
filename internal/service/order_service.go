package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/repository"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
	"github.com/KHMER0/sale-system/pkg/kafka"
)

// orderStatusMaxLen 對應 orders.status VARCHAR(50)
const orderStatusMaxLen = 50

// maxAmount 金額欄位為 NUMERIC(14,2)，整數部分最多 12 位
var maxAmount = decimal.New(1, 12)

// ── 訂單模組業務錯誤 ──

var (
	ErrOrderNotFound     = pkgerrors.New(pkgerrors.ErrNotFound, "訂單不存在")
	ErrAmountNegative    = pkgerrors.New(pkgerrors.ErrValidation, "金額不能為負數")
	ErrAmountRequired    = pkgerrors.New(pkgerrors.ErrValidation, "金額為必填")
	ErrAmountTooLarge    = pkgerrors.New(pkgerrors.ErrValidation, "金額超過上限 999999999999.99")
	ErrOrderCustomerGone = pkgerrors.New(pkgerrors.ErrValidation, "指定的客戶不存在")
)

// OrderService 訂單業務介面
type OrderService interface {
	List(ctx context.Context, actor authz.Actor, search string) ([]dto.OrderResponse, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*dto.OrderResponse, error)
	Create(ctx context.Context, actor authz.Actor, req *dto.CreateOrderRequest) (*dto.OrderResponse, error)
	Update(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateOrderRequest) (*dto.OrderResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
}

type orderService struct {
	repo      *repository.Repository
	publisher kafka.Publisher
	logger    *zap.Logger
}

// NewOrderService 建立 OrderService 實例
func NewOrderService(repo *repository.Repository, publisher kafka.Publisher, logger *zap.Logger) OrderService {
	return &orderService{repo: repo, publisher: publisher, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *orderService) List(ctx context.Context, actor authz.Actor, search string) ([]dto.OrderResponse, error) {
	orders, err := s.repo.Order.List(ctx, repository.ListFilter{
		CreatorID: authz.ListScope(actor),
		Keyword:   search,
	})
	if err != nil {
		return nil, storageFailure(s.logger, "查詢訂單列表失敗", err)
	}

	result := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, toOrderResponse(&orders[i]))
	}
	return result, nil
}

// ────────────────────── Get ──────────────────────

func (s *orderService) Get(ctx context.Context, actor authz.Actor, id int64) (*dto.OrderResponse, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanViewRecord(actor, order.CreatorID); err != nil {
		return nil, err
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *orderService) Create(ctx context.Context, actor authz.Actor, req *dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	orderDate, err := parseDate("order_date", req.OrderDate)
	if err != nil {
		return nil, err
	}
	amount, err := checkAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	customerName, err := requireCustomer(ctx, s.repo, s.logger, req.CustomerID)
	if err != nil {
		return nil, err
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = model.OrderStatusUnpaid
	}
	if err := checkLength("status", status, orderStatusMaxLen); err != nil {
		return nil, err
	}

	order := &model.Order{
		CustomerID: req.CustomerID,
		OrderDate:  orderDate,
		Amount:     amount,
		Status:     status,
		CreatorID:  actor.ID,
	}
	if err := s.repo.Order.Create(ctx, order); err != nil {
		return nil, storageFailure(s.logger, "建立訂單失敗", err)
	}
	order.CustomerName = customerName

	publishEvent(ctx, s.publisher, s.logger, kafka.EventOrderCreated, order.CustomerID, toOrderResponse(order))

	resp := toOrderResponse(order)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

// Update 先檢查權限再驗證欄位，未帶的欄位維持原值
func (s *orderService) Update(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanModifyRecord(actor, order.CreatorID); err != nil {
		return nil, err
	}

	if req.CustomerID != nil && *req.CustomerID != order.CustomerID {
		name, err := requireCustomer(ctx, s.repo, s.logger, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		order.CustomerID = *req.CustomerID
		order.CustomerName = name
	}
	if req.OrderDate != nil {
		d, err := parseDate("order_date", *req.OrderDate)
		if err != nil {
			return nil, err
		}
		order.OrderDate = d
	}
	if req.Amount != nil {
		amount, err := checkAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		order.Amount = amount
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if status == "" {
			return nil, validation("訂單狀態不能為空")
		}
		if err := checkLength("status", status, orderStatusMaxLen); err != nil {
			return nil, err
		}
		order.Status = status
	}
	order.UpdatedAt = time.Now()

	if err := s.repo.Order.Update(ctx, order); err != nil {
		return nil, storageFailure(s.logger, "更新訂單失敗", err, zap.Int64("id", id))
	}

	resp := toOrderResponse(order)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *orderService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	order, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanModifyRecord(actor, order.CreatorID); err != nil {
		return err
	}

	if err := s.repo.Order.Delete(ctx, id); err != nil {
		return storageFailure(s.logger, "刪除訂單失敗", err, zap.Int64("id", id))
	}
	return nil
}

func (s *orderService) load(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.repo.Order.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, storageFailure(s.logger, "查詢訂單失敗", err, zap.Int64("id", id))
	}
	return order, nil
}

// ── 訂單與報價單共用輔助 ──

// checkAmount 金額必填、不得為負且不得超出欄位精度，寫入前四捨六入五成雙到兩位小數
func checkAmount(amount *decimal.Decimal) (decimal.Decimal, error) {
	if amount == nil {
		return decimal.Zero, ErrAmountRequired
	}
	if amount.IsNegative() {
		return decimal.Zero, ErrAmountNegative
	}
	rounded := amount.RoundBank(2)
	if rounded.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, ErrAmountTooLarge
	}
	return rounded, nil
}

// requireCustomer 確認客戶存在並回傳名稱
func requireCustomer(ctx context.Context, repo *repository.Repository, logger *zap.Logger, customerID int64) (string, error) {
	customer, err := repo.Customer.GetByID(ctx, customerID)
	if err != nil {
		if isNotFound(err) {
			return "", ErrOrderCustomerGone
		}
		return "", storageFailure(logger, "查詢客戶失敗", err, zap.Int64("customer_id", customerID))
	}
	return customer.Name, nil
}

// publishEvent 發布銷售事件；失敗只記錄，不影響已提交的寫入
func publishEvent(ctx context.Context, publisher kafka.Publisher, logger *zap.Logger, eventType string, key int64, payload interface{}) {
	err := publisher.Publish(ctx, kafka.Event{
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now(),
		Payload:    payload,
	})
	if err != nil {
		logger.Warn("發布銷售事件失敗", zap.String("type", eventType), zap.Error(err))
	}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		CustomerName: o.CustomerName,
		OrderDate:    formatDate(o.OrderDate),
		Amount:       o.Amount.StringFixedBank(2),
		Status:       o.Status,
		CreatorID:    o.CreatorID,
	}
}
