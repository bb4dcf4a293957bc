package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/repository"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
)

// ── 使用者模組業務錯誤 ──

var (
	ErrUserNotFound     = pkgerrors.New(pkgerrors.ErrNotFound, "使用者不存在")
	ErrEmployeeIDExists = pkgerrors.New(pkgerrors.ErrDuplicateKey, "員工編號已存在")
)

// UserService 使用者業務介面
type UserService interface {
	List(ctx context.Context, actor authz.Actor, search string) ([]dto.UserResponse, error)
	Get(ctx context.Context, actor authz.Actor, id int64) (*dto.UserResponse, error)
	Create(ctx context.Context, actor authz.Actor, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, actor authz.Actor, id int64) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 建立 UserService 實例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, actor authz.Actor, search string) ([]dto.UserResponse, error) {
	if err := authz.CanListUsers(actor); err != nil {
		return nil, err
	}

	users, err := s.repo.User.List(ctx, repository.ListFilter{Keyword: search})
	if err != nil {
		return nil, storageFailure(s.logger, "查詢使用者列表失敗", err)
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, nil
}

// ────────────────────── Get ──────────────────────

func (s *userService) Get(ctx context.Context, actor authz.Actor, id int64) (*dto.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanViewUser(actor, user); err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, actor authz.Actor, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	role, err := authz.ResolveNewUserRole(actor, req.Role)
	if err != nil {
		return nil, err
	}

	employeeID := strings.TrimSpace(req.EmployeeID)
	name := strings.TrimSpace(req.Name)
	if employeeID == "" || name == "" || req.Password == "" {
		return nil, validation("員工編號、姓名與密碼為必填")
	}

	// 檢查員工編號唯一性；資料庫唯一索引為最後防線
	if _, err := s.repo.User.GetByEmployeeID(ctx, employeeID); err == nil {
		return nil, ErrEmployeeIDExists
	} else if !isNotFound(err) {
		return nil, storageFailure(s.logger, "查詢員工編號失敗", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密碼雜湊失敗", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		EmployeeID: employeeID,
		Password:   string(hash),
		Name:       name,
		Role:       role,
		CreatorID:  actor.ID,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmployeeIDExists
		}
		return nil, storageFailure(s.logger, "建立使用者失敗", err)
	}

	s.logger.Info("建立使用者",
		zap.Int64("user_id", user.ID),
		zap.String("role", role),
		zap.Int64("creator_id", actor.ID),
	)
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

// Update 只接受密碼與角色；一般使用者修改自己時角色欄位不生效
func (s *userService) Update(ctx context.Context, actor authz.Actor, id int64, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanEditUser(actor, user); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})

	if req.Role != nil {
		role, apply, err := authz.ResolveRoleChange(actor, user, *req.Role)
		if err != nil {
			return nil, err
		}
		if apply {
			fields["role"] = role
		}
	}

	// 空字串視同未提供
	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("密碼雜湊失敗", zap.Error(err))
			return nil, err
		}
		fields["password"] = string(hash)
	}

	if len(fields) > 0 {
		if err := s.repo.User.UpdateFields(ctx, id, fields); err != nil {
			return nil, storageFailure(s.logger, "更新使用者失敗", err, zap.Int64("id", id))
		}
		if role, ok := fields["role"].(string); ok {
			s.logger.Info("變更使用者角色",
				zap.Int64("user_id", id),
				zap.String("from", user.Role),
				zap.String("to", role),
				zap.Int64("operator_id", actor.ID),
			)
		}
	}

	// 重新讀取，回應以資料庫為準
	updated, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(updated)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, actor authz.Actor, id int64) error {
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.CanDeleteUser(actor, user); err != nil {
		return err
	}

	if err := s.repo.User.Delete(ctx, id); err != nil {
		return storageFailure(s.logger, "刪除使用者失敗", err, zap.Int64("id", id))
	}

	s.logger.Info("刪除使用者", zap.Int64("user_id", id), zap.Int64("operator_id", actor.ID))
	return nil
}

// ── 內部輔助 ──

func (s *userService) load(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, storageFailure(s.logger, "查詢使用者失敗", err, zap.Int64("id", id))
	}
	return user, nil
}

// toUserResponse 將 model.User 轉為 dto.UserResponse
func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         u.ID,
		EmployeeID: u.EmployeeID,
		Name:       u.Name,
		Role:       u.Role,
		CreatorID:  u.CreatorID,
	}
}
