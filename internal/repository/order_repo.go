package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/KHMER0/sale-system/internal/model"
)

// OrderRepository 訂單資料存取介面
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	BatchCreate(ctx context.Context, orders []model.Order) error
	GetByID(ctx context.Context, id int64) (*model.Order, error)
	// List 以 LEFT JOIN 帶出客戶名稱，客戶已刪除的訂單仍會列出
	List(ctx context.Context, filter ListFilter) ([]model.Order, error)
	Update(ctx context.Context, order *model.Order) error
	Delete(ctx context.Context, id int64) error
}

var orderSearchFields = []SearchField{
	{Column: col("orders", "id"), AsText: true},
	{Column: col("customers", "name")},
	{Column: col("orders", "status")},
}

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepo 建立 OrderRepository 實例
func NewOrderRepo(db *gorm.DB) OrderRepository {
	return &orderRepo{db: db}
}

func (r *orderRepo) withCustomer(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("orders.*, COALESCE(customers.name, '') AS customer_name").
		Joins("LEFT JOIN customers ON customers.id = orders.customer_id")
}

func (r *orderRepo) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) BatchCreate(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(orders, 100).Error
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	if err := r.withCustomer(ctx).Where("orders.id = ?", id).Take(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) List(ctx context.Context, filter ListFilter) ([]model.Order, error) {
	var orders []model.Order
	q := filter.apply(r.withCustomer(ctx), col("orders", "creator_id"), orderSearchFields)
	if err := q.Order("orders.id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepo) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).
		Model(order).
		Select("customer_id", "order_date", "amount", "status", "updated_at").
		Updates(order).Error
}

func (r *orderRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Order{}, id).Error
}
