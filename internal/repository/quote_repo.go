package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/KHMER0/sale-system/internal/model"
)

// QuoteRepository 報價單資料存取介面
type QuoteRepository interface {
	Create(ctx context.Context, quote *model.Quote) error
	BatchCreate(ctx context.Context, quotes []model.Quote) error
	GetByID(ctx context.Context, id int64) (*model.Quote, error)
	// GetByIDForUpdate 以 SELECT ... FOR UPDATE 鎖定報價單
	// 必須在交易連線上呼叫（經由 Repository.WithTx / Transaction 注入）
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Quote, error)
	List(ctx context.Context, filter ListFilter) ([]model.Quote, error)
	ListByStatus(ctx context.Context, filter ListFilter, status string) ([]model.Quote, error)
	Update(ctx context.Context, quote *model.Quote) error
	// UpdateStatusIf 僅在目前狀態為 from 時改為 to，回傳是否有資料列被更新
	UpdateStatusIf(ctx context.Context, id int64, from, to string) (bool, error)
	Delete(ctx context.Context, id int64) error
}

var quoteSearchFields = []SearchField{
	{Column: col("quotes", "id"), AsText: true},
	{Column: col("customers", "name")},
	{Column: col("quotes", "status")},
}

type quoteRepo struct {
	db *gorm.DB
}

// NewQuoteRepo 建立 QuoteRepository 實例
func NewQuoteRepo(db *gorm.DB) QuoteRepository {
	return &quoteRepo{db: db}
}

func (r *quoteRepo) withCustomer(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Quote{}).
		Select("quotes.*, COALESCE(customers.name, '') AS customer_name").
		Joins("LEFT JOIN customers ON customers.id = quotes.customer_id")
}

func (r *quoteRepo) Create(ctx context.Context, quote *model.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *quoteRepo) BatchCreate(ctx context.Context, quotes []model.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(quotes, 100).Error
}

func (r *quoteRepo) GetByID(ctx context.Context, id int64) (*model.Quote, error) {
	var quote model.Quote
	if err := r.withCustomer(ctx).Where("quotes.id = ?", id).Take(&quote).Error; err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetByIDForUpdate 不帶 JOIN：FOR UPDATE 不能作用在外部連接可為空的一側
func (r *quoteRepo) GetByIDForUpdate(ctx context.Context, id int64) (*model.Quote, error) {
	var quote model.Quote
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *quoteRepo) List(ctx context.Context, filter ListFilter) ([]model.Quote, error) {
	var quotes []model.Quote
	q := filter.apply(r.withCustomer(ctx), col("quotes", "creator_id"), quoteSearchFields)
	if err := q.Order("quotes.id ASC").Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *quoteRepo) ListByStatus(ctx context.Context, filter ListFilter, status string) ([]model.Quote, error) {
	var quotes []model.Quote
	q := filter.apply(r.withCustomer(ctx), col("quotes", "creator_id"), quoteSearchFields).
		Where("quotes.status = ?", status)
	if err := q.Order("quotes.id ASC").Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *quoteRepo) Update(ctx context.Context, quote *model.Quote) error {
	return r.db.WithContext(ctx).
		Model(quote).
		Select("customer_id", "quote_date", "amount", "status", "updated_at").
		Updates(quote).Error
}

func (r *quoteRepo) UpdateStatusIf(ctx context.Context, id int64, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Quote{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *quoteRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Quote{}, id).Error
}
