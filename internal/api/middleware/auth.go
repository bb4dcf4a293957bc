package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/service"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
	"github.com/KHMER0/sale-system/pkg/jwt"
	"github.com/KHMER0/sale-system/pkg/response"
)

// 上下文鍵
const (
	ActorKey  = "actor"
	ClaimsKey = "claims"
)

// Authenticator 由 service.AuthService 實作
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (authz.Actor, *jwt.Claims, error)
}

// JWTAuth JWT 認證中介層
// 從 Authorization: Bearer <token> 取出 Access Token，並由資料庫重新載入操作者
func JWTAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, response.CodeUnauthorized, "缺少認證標頭")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, response.CodeUnauthorized, "認證標頭格式無效")
			c.Abort()
			return
		}

		actor, claims, err := auth.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, pkgerrors.ErrStorage) {
				response.InternalError(c)
				c.Abort()
				return
			}
			response.Unauthorized(c, response.CodeUnauthorized, authFailureMessage(err))
			c.Abort()
			return
		}

		c.Set(ActorKey, actor)
		c.Set(ClaimsKey, claims)
		c.Set("user_id", actor.ID)

		c.Next()
	}
}

func authFailureMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrTokenRevoked):
		return "Token 已登出"
	case errors.Is(err, service.ErrTokenTypeInvalid):
		return "Token 類型無效"
	case errors.Is(err, service.ErrActorGone):
		return "帳號已不存在"
	default:
		return "Token 無效或已過期"
	}
}

// RoleAuth 角色權限中介層，需放在 JWTAuth 之後
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(ActorKey)
		actor, ok := v.(authz.Actor)
		if !exists || !ok {
			response.Unauthorized(c, response.CodeUnauthorized, "未認證")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if actor.Role == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, response.CodeForbidden, "無權限存取")
		c.Abort()
	}
}
