package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/KHMER0/sale-system/config"
	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/repository"
	"github.com/KHMER0/sale-system/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("員工編號或密碼錯誤")
	ErrTokenRevoked       = errors.New("Token 已登出")
	ErrTokenTypeInvalid   = errors.New("Token 類型無效")
	ErrActorGone          = errors.New("帳號已不存在")
)

// TokenBlacklist 登出後的 Token 黑名單（由 Redis 實作）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 認證業務介面
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	// Authenticate 驗證 Access Token 並由資料庫重新載入操作者
	Authenticate(ctx context.Context, accessToken string) (authz.Actor, *jwt.Claims, error)
	Me(ctx context.Context, actor authz.Actor) (*dto.UserResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 建立 AuthService 實例；blacklist 可為 nil
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmployeeID(ctx, req.EmployeeID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, storageFailure(s.logger, "查詢使用者失敗", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("使用者登入", zap.Int64("user_id", user.ID), zap.String("role", user.Role))
	return s.issueTokens(user)
}

// ────────────────────── Refresh ──────────────────────

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrTokenTypeInvalid
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrActorGone
		}
		return nil, storageFailure(s.logger, "查詢使用者失敗", err)
	}

	// 舊的 Refresh Token 作廢，避免重複使用
	s.revoke(ctx, claims)

	return s.issueTokens(user)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	s.revoke(ctx, claims)
	return nil
}

// ────────────────────── Authenticate ──────────────────────

func (s *authService) Authenticate(ctx context.Context, accessToken string) (authz.Actor, *jwt.Claims, error) {
	claims, err := s.jwtMgr.ParseToken(accessToken)
	if err != nil {
		return authz.Actor{}, nil, err
	}
	if claims.TokenType != jwt.TokenTypeAccess {
		return authz.Actor{}, nil, ErrTokenTypeInvalid
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return authz.Actor{}, nil, err
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return authz.Actor{}, nil, ErrActorGone
		}
		return authz.Actor{}, nil, storageFailure(s.logger, "載入操作者失敗", err, zap.Int64("user_id", claims.UserID))
	}

	return authz.ActorFromUser(user), claims, nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, actor authz.Actor) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, actor.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, storageFailure(s.logger, "查詢使用者失敗", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ── 內部輔助 ──

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.ID)
	if err != nil {
		s.logger.Error("產生 AccessToken 失敗", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.ID)
	if err != nil {
		s.logger.Error("產生 RefreshToken 失敗", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// checkRevoked Redis 不可用時放行，避免快取故障造成全面無法登入
func (s *authService) checkRevoked(ctx context.Context, claims *jwt.Claims) error {
	if s.blacklist == nil {
		return nil
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("查詢 Token 黑名單失敗", zap.Error(err))
		return nil
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil || claims == nil || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("寫入 Token 黑名單失敗", zap.String("jti", claims.ID), zap.Error(err))
	}
}
