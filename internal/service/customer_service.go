package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/repository"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
)

// ── 客戶模組業務錯誤 ──

var (
	ErrCustomerNotFound  = pkgerrors.New(pkgerrors.ErrNotFound, "客戶不存在")
	ErrCustomerNameEmpty = pkgerrors.New(pkgerrors.ErrValidation, "客戶名稱為必填")
	ErrCreatorNotFound   = pkgerrors.New(pkgerrors.ErrValidation, "建立者帳號不存在")
)

// CustomerService 客戶業務介面
type CustomerService interface {
	List(ctx context.Context, actor authz.Actor, search string) ([]dto.CustomerResponse, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*dto.CustomerResponse, error)
	Create(ctx context.Context, actor authz.Actor, req *dto.CustomerRequest) (*dto.CustomerResponse, error)
	Update(ctx context.Context, actor authz.Actor, id int64, req *dto.CustomerRequest) (*dto.CustomerResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
}

type customerService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCustomerService 建立 CustomerService 實例
func NewCustomerService(repo *repository.Repository, logger *zap.Logger) CustomerService {
	return &customerService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

// List 客戶為共用資料，所有角色都可瀏覽
func (s *customerService) List(ctx context.Context, _ authz.Actor, search string) ([]dto.CustomerResponse, error) {
	customers, err := s.repo.Customer.List(ctx, repository.ListFilter{Keyword: search})
	if err != nil {
		return nil, storageFailure(s.logger, "查詢客戶列表失敗", err)
	}

	result := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		result = append(result, toCustomerResponse(&customers[i]))
	}
	return result, nil
}

// ────────────────────── Get ──────────────────────

func (s *customerService) Get(ctx context.Context, _ authz.Actor, id int64) (*dto.CustomerResponse, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCustomerResponse(customer)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *customerService) Create(ctx context.Context, actor authz.Actor, req *dto.CustomerRequest) (*dto.CustomerResponse, error) {
	fields, err := normalizeCustomer(req)
	if err != nil {
		return nil, err
	}

	// creator_id 必須指向現存帳號
	if _, err := s.repo.User.GetByID(ctx, actor.ID); err != nil {
		if isNotFound(err) {
			return nil, ErrCreatorNotFound
		}
		return nil, storageFailure(s.logger, "查詢建立者失敗", err)
	}

	customer := &fields
	customer.CreatorID = actor.ID
	if err := s.repo.Customer.Create(ctx, customer); err != nil {
		return nil, storageFailure(s.logger, "建立客戶失敗", err)
	}

	resp := toCustomerResponse(customer)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *customerService) Update(ctx context.Context, actor authz.Actor, id int64, req *dto.CustomerRequest) (*dto.CustomerResponse, error) {
	customer, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanModifyCustomer(actor, customer.CreatorID); err != nil {
		return nil, err
	}

	fields, err := normalizeCustomer(req)
	if err != nil {
		return nil, err
	}

	customer.Name = fields.Name
	customer.ContactPerson = fields.ContactPerson
	customer.Phone = fields.Phone
	customer.Email = fields.Email

	if err := s.repo.Customer.Update(ctx, customer); err != nil {
		return nil, storageFailure(s.logger, "更新客戶失敗", err, zap.Int64("id", id))
	}

	resp := toCustomerResponse(customer)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

// Delete 不連帶刪除訂單與報價單，孤兒資料仍保留
func (s *customerService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	customer, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanModifyCustomer(actor, customer.CreatorID); err != nil {
		return err
	}

	if err := s.repo.Customer.Delete(ctx, id); err != nil {
		return storageFailure(s.logger, "刪除客戶失敗", err, zap.Int64("id", id))
	}

	s.logger.Info("刪除客戶", zap.Int64("customer_id", id), zap.Int64("operator_id", actor.ID))
	return nil
}

// normalizeCustomer 去除前後空白並檢查各欄位長度
func normalizeCustomer(req *dto.CustomerRequest) (model.Customer, error) {
	c := model.Customer{
		Name:          strings.TrimSpace(req.Name),
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
		Email:         strings.TrimSpace(req.Email),
	}
	if c.Name == "" {
		return c, ErrCustomerNameEmpty
	}
	for _, f := range []struct {
		field string
		value string
		max   int
	}{
		{"name", c.Name, 200},
		{"contact_person", c.ContactPerson, 100},
		{"phone", c.Phone, 50},
		{"email", c.Email, 200},
	} {
		if err := checkLength(f.field, f.value, f.max); err != nil {
			return c, err
		}
	}
	return c, nil
}

func (s *customerService) load(ctx context.Context, id int64) (*model.Customer, error) {
	customer, err := s.repo.Customer.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCustomerNotFound
		}
		return nil, storageFailure(s.logger, "查詢客戶失敗", err, zap.Int64("id", id))
	}
	return customer, nil
}

func toCustomerResponse(c *model.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:            c.ID,
		Name:          c.Name,
		ContactPerson: c.ContactPerson,
		Phone:         c.Phone,
		Email:         c.Email,
		CreatorID:     c.CreatorID,
	}
}
