package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/repository"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
	"github.com/KHMER0/sale-system/pkg/kafka"
)

// ── 報價單模組業務錯誤 ──

var (
	ErrQuoteNotFound      = pkgerrors.New(pkgerrors.ErrNotFound, "報價單不存在")
	ErrQuoteNotAccepted   = pkgerrors.New(pkgerrors.ErrInvalidState, "只有已接受的報價單可以轉換為訂單")
	ErrQuoteStatusInvalid = pkgerrors.New(pkgerrors.ErrValidation, "無效的報價單狀態")
	ErrQuoteConvertManual = pkgerrors.New(pkgerrors.ErrInvalidState, "已轉換狀態只能經由轉換流程設定")
	ErrQuoteConvertedLock = pkgerrors.New(pkgerrors.ErrInvalidState, "已轉換的報價單不能變更狀態")
)

// QuoteService 報價單業務介面
type QuoteService interface {
	List(ctx context.Context, actor authz.Actor, search string) ([]dto.QuoteResponse, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*dto.QuoteResponse, error)
	Create(ctx context.Context, actor authz.Actor, req *dto.CreateQuoteRequest) (*dto.QuoteResponse, error)
	Update(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateQuoteRequest) (*dto.QuoteResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
	// ListConvertible 等待轉換的已接受報價單（依列表範圍）
	ListConvertible(ctx context.Context, actor authz.Actor) ([]dto.QuoteResponse, error)
	// Convert 將已接受的報價單轉為未付款訂單，兩筆寫入在同一交易內完成
	Convert(ctx context.Context, actor authz.Actor, id int64) (*dto.ConvertQuoteResponse, error)
}

type quoteService struct {
	repo      *repository.Repository
	publisher kafka.Publisher
	logger    *zap.Logger
}

// NewQuoteService 建立 QuoteService 實例
func NewQuoteService(repo *repository.Repository, publisher kafka.Publisher, logger *zap.Logger) QuoteService {
	return &quoteService{repo: repo, publisher: publisher, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *quoteService) List(ctx context.Context, actor authz.Actor, search string) ([]dto.QuoteResponse, error) {
	quotes, err := s.repo.Quote.List(ctx, repository.ListFilter{
		CreatorID: authz.ListScope(actor),
		Keyword:   search,
	})
	if err != nil {
		return nil, storageFailure(s.logger, "查詢報價單列表失敗", err)
	}
	return toQuoteResponses(quotes), nil
}

func (s *quoteService) ListConvertible(ctx context.Context, actor authz.Actor) ([]dto.QuoteResponse, error) {
	quotes, err := s.repo.Quote.ListByStatus(ctx,
		repository.ListFilter{CreatorID: authz.ListScope(actor)},
		model.QuoteStatusAccepted,
	)
	if err != nil {
		return nil, storageFailure(s.logger, "查詢待轉換報價單失敗", err)
	}
	return toQuoteResponses(quotes), nil
}

// ────────────────────── Get ──────────────────────

func (s *quoteService) Get(ctx context.Context, actor authz.Actor, id int64) (*dto.QuoteResponse, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanViewRecord(actor, quote.CreatorID); err != nil {
		return nil, err
	}
	resp := toQuoteResponse(quote)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *quoteService) Create(ctx context.Context, actor authz.Actor, req *dto.CreateQuoteRequest) (*dto.QuoteResponse, error) {
	quoteDate, err := parseDate("quote_date", req.QuoteDate)
	if err != nil {
		return nil, err
	}
	amount, err := checkAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = model.QuoteStatusDraft
	}
	if !model.ValidQuoteStatus(status) {
		return nil, ErrQuoteStatusInvalid
	}
	if status == model.QuoteStatusConverted {
		return nil, ErrQuoteConvertManual
	}

	customerName, err := requireCustomer(ctx, s.repo, s.logger, req.CustomerID)
	if err != nil {
		return nil, err
	}

	quote := &model.Quote{
		CustomerID: req.CustomerID,
		QuoteDate:  quoteDate,
		Amount:     amount,
		Status:     status,
		CreatorID:  actor.ID,
	}
	if err := s.repo.Quote.Create(ctx, quote); err != nil {
		return nil, storageFailure(s.logger, "建立報價單失敗", err)
	}
	quote.CustomerName = customerName

	resp := toQuoteResponse(quote)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *quoteService) Update(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateQuoteRequest) (*dto.QuoteResponse, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanModifyRecord(actor, quote.CreatorID); err != nil {
		return nil, err
	}

	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if !model.ValidQuoteStatus(status) {
			return nil, ErrQuoteStatusInvalid
		}
		if status != quote.Status {
			if quote.Status == model.QuoteStatusConverted {
				return nil, ErrQuoteConvertedLock
			}
			if status == model.QuoteStatusConverted {
				return nil, ErrQuoteConvertManual
			}
		}
		quote.Status = status
	}
	if req.CustomerID != nil && *req.CustomerID != quote.CustomerID {
		name, err := requireCustomer(ctx, s.repo, s.logger, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		quote.CustomerID = *req.CustomerID
		quote.CustomerName = name
	}
	if req.QuoteDate != nil {
		d, err := parseDate("quote_date", *req.QuoteDate)
		if err != nil {
			return nil, err
		}
		quote.QuoteDate = d
	}
	if req.Amount != nil {
		amount, err := checkAmount(req.Amount)
		if err != nil {
			return nil, err
		}
		quote.Amount = amount
	}
	quote.UpdatedAt = time.Now()

	if err := s.repo.Quote.Update(ctx, quote); err != nil {
		return nil, storageFailure(s.logger, "更新報價單失敗", err, zap.Int64("id", id))
	}

	resp := toQuoteResponse(quote)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *quoteService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	quote, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanModifyRecord(actor, quote.CreatorID); err != nil {
		return err
	}

	if err := s.repo.Quote.Delete(ctx, id); err != nil {
		return storageFailure(s.logger, "刪除報價單失敗", err, zap.Int64("id", id))
	}
	return nil
}

// ────────────────────── Convert ──────────────────────

// Convert 鎖定報價單列後以條件更新搶占狀態，併發轉換只有一方成功
func (s *quoteService) Convert(ctx context.Context, actor authz.Actor, id int64) (*dto.ConvertQuoteResponse, error) {
	var (
		quote *model.Quote
		order *model.Order
	)

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		q, err := tx.Quote.GetByIDForUpdate(ctx, id)
		if err != nil {
			if isNotFound(err) {
				return ErrQuoteNotFound
			}
			return storageFailure(s.logger, "鎖定報價單失敗", err, zap.Int64("id", id))
		}
		if !q.Convertible() {
			return ErrQuoteNotAccepted
		}
		if err := authz.CanModifyRecord(actor, q.CreatorID); err != nil {
			return err
		}

		ok, err := tx.Quote.UpdateStatusIf(ctx, id, model.QuoteStatusAccepted, model.QuoteStatusConverted)
		if err != nil {
			return storageFailure(s.logger, "更新報價單狀態失敗", err, zap.Int64("id", id))
		}
		if !ok {
			return ErrQuoteNotAccepted
		}

		o := &model.Order{
			CustomerID: q.CustomerID,
			OrderDate:  q.QuoteDate,
			Amount:     q.Amount,
			Status:     model.OrderStatusUnpaid,
			CreatorID:  actor.ID,
		}
		if err := tx.Order.Create(ctx, o); err != nil {
			return storageFailure(s.logger, "建立轉換訂單失敗", err, zap.Int64("quote_id", id))
		}

		q.Status = model.QuoteStatusConverted
		quote, order = q, o
		return nil
	})
	if err != nil {
		if pkgerrors.KindOf(err) == nil {
			// 提交失敗
			return nil, storageFailure(s.logger, "轉換報價單交易失敗", err, zap.Int64("id", id))
		}
		return nil, err
	}

	// 客戶可能已刪除，名稱僅供顯示
	if customer, err := s.repo.Customer.GetByID(ctx, quote.CustomerID); err == nil {
		quote.CustomerName = customer.Name
		order.CustomerName = customer.Name
	}

	s.logger.Info("報價單已轉換為訂單",
		zap.Int64("quote_id", quote.ID),
		zap.Int64("order_id", order.ID),
		zap.Int64("operator_id", actor.ID),
	)

	result := &dto.ConvertQuoteResponse{
		Quote: toQuoteResponse(quote),
		Order: toOrderResponse(order),
	}
	publishEvent(ctx, s.publisher, s.logger, kafka.EventQuoteConverted, quote.CustomerID, result)
	publishEvent(ctx, s.publisher, s.logger, kafka.EventOrderCreated, order.CustomerID, result.Order)

	return result, nil
}

func (s *quoteService) load(ctx context.Context, id int64) (*model.Quote, error) {
	quote, err := s.repo.Quote.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrQuoteNotFound
		}
		return nil, storageFailure(s.logger, "查詢報價單失敗", err, zap.Int64("id", id))
	}
	return quote, nil
}

func toQuoteResponse(q *model.Quote) dto.QuoteResponse {
	return dto.QuoteResponse{
		ID:           q.ID,
		CustomerID:   q.CustomerID,
		CustomerName: q.CustomerName,
		QuoteDate:    formatDate(q.QuoteDate),
		Amount:       q.Amount.StringFixedBank(2),
		Status:       q.Status,
		CreatorID:    q.CreatorID,
	}
}

func toQuoteResponses(quotes []model.Quote) []dto.QuoteResponse {
	result := make([]dto.QuoteResponse, 0, len(quotes))
	for i := range quotes {
		result = append(result, toQuoteResponse(&quotes[i]))
	}
	return result
}
