package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/KHMER0/sale-system/internal/model"
)

// CustomerRepository 客戶資料存取介面
type CustomerRepository interface {
	Create(ctx context.Context, customer *model.Customer) error
	BatchCreate(ctx context.Context, customers []model.Customer) error
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	List(ctx context.Context, filter ListFilter) ([]model.Customer, error)
	Update(ctx context.Context, customer *model.Customer) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}

var customerSearchFields = []SearchField{
	{Column: col("customers", "name")},
	{Column: col("customers", "contact_person")},
	{Column: col("customers", "phone")},
	{Column: col("customers", "email")},
}

type customerRepo struct {
	db *gorm.DB
}

// NewCustomerRepo 建立 CustomerRepository 實例
func NewCustomerRepo(db *gorm.DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) Create(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepo) BatchCreate(ctx context.Context, customers []model.Customer) error {
	if len(customers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(customers, 100).Error
}

func (r *customerRepo) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	var customer model.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) List(ctx context.Context, filter ListFilter) ([]model.Customer, error) {
	var customers []model.Customer
	q := filter.apply(r.db.WithContext(ctx).Model(&model.Customer{}), col("customers", "creator_id"), customerSearchFields)
	if err := q.Order("customers.id ASC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *customerRepo) Update(ctx context.Context, customer *model.Customer) error {
	return r.db.WithContext(ctx).
		Model(customer).
		Select("name", "contact_person", "phone", "email", "updated_at").
		Updates(customer).Error
}

func (r *customerRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Customer{}, id).Error
}

func (r *customerRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Customer{}).Count(&n).Error
	return n, err
}
