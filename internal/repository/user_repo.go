package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/KHMER0/sale-system/internal/model"
)

// UserRepository 使用者資料存取介面
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*model.User, error)
	List(ctx context.Context, filter ListFilter) ([]model.User, error)
	// UpdateFields 只更新指定欄位，供部分更新使用
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	ListIDs(ctx context.Context) ([]int64, error)
}

var userSearchFields = []SearchField{
	{Column: col("users", "employee_id")},
	{Column: col("users", "name")},
	{Column: col("users", "role")},
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 建立 UserRepository 實例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmployeeID(ctx context.Context, employeeID string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("employee_id = ?", employeeID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// List 使用者列表；使用者不做擁有者範圍限制
func (r *userRepo) List(ctx context.Context, filter ListFilter) ([]model.User, error) {
	var users []model.User
	q := filter.apply(r.db.WithContext(ctx).Model(&model.User{}), col("users", "creator_id"), userSearchFields)
	if err := q.Order("users.id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *userRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.User{}, id).Error
}

func (r *userRepo) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
