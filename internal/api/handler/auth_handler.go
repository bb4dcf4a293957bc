package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/service"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
	"github.com/KHMER0/sale-system/pkg/response"
)

// AuthHandler 認證模組 HTTP 處理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 建立 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 使用者登入
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, response.CodeUnauthorized, "員工編號或密碼錯誤")
			return
		}
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Logout 使用者登出，目前的 Access Token 列入黑名單
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := MustGetClaims(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}

// RefreshToken 以 Refresh Token 換發新的 Token 組
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		// 業務分類以外的錯誤皆來自 Token 本身
		if pkgerrors.KindOf(err) == nil {
			msg := "Refresh Token 無效或已過期"
			switch {
			case errors.Is(err, service.ErrTokenRevoked):
				msg = "Refresh Token 已作廢"
			case errors.Is(err, service.ErrTokenTypeInvalid):
				msg = "Token 類型無效"
			case errors.Is(err, service.ErrActorGone):
				msg = "帳號已不存在"
			}
			response.Unauthorized(c, response.CodeUnauthorized, msg)
			return
		}
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Me 目前登入者資訊
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, user)
}
