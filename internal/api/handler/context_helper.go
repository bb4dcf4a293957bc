package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KHMER0/sale-system/internal/api/middleware"
	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/pkg/jwt"
	"github.com/KHMER0/sale-system/pkg/response"
)

// MustGetActor 從 Gin 上下文取出 JWT 中介層注入的操作者
// 取不到時寫入 401，呼叫端在 ok=false 時直接 return
func MustGetActor(c *gin.Context) (authz.Actor, bool) {
	v, exists := c.Get(middleware.ActorKey)
	if !exists {
		response.Unauthorized(c, response.CodeUnauthorized, "未認證")
		return authz.Actor{}, false
	}
	actor, ok := v.(authz.Actor)
	if !ok || actor.ID == 0 {
		response.Unauthorized(c, response.CodeUnauthorized, "未認證")
		return authz.Actor{}, false
	}
	return actor, true
}

// MustGetClaims 取出目前 Access Token 的 Claims（登出用）
func MustGetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(middleware.ClaimsKey)
	if !exists {
		response.Unauthorized(c, response.CodeUnauthorized, "未認證")
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	if !ok || claims == nil {
		response.Unauthorized(c, response.CodeUnauthorized, "未認證")
		return nil, false
	}
	return claims, true
}

// parseID 解析路徑參數 :id
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, response.CodeBadRequest, "ID 格式無效")
		return 0, false
	}
	return id, true
}

// bindJSON 綁定 JSON 請求體，超出大小上限時回應 413
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "請求體過大")
			return false
		}
		response.BadRequest(c, response.CodeBadRequest, "參數校驗失敗")
		return false
	}
	return true
}
