package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
	"github.com/KHMER0/sale-system/pkg/response"
)

// handleError 依錯誤分類回應 HTTP 狀態碼與業務碼
// 業務錯誤回傳自身訊息，資料庫與未知錯誤一律以通用訊息回應
func handleError(c *gin.Context, err error) {
	var bizErr *pkgerrors.Error
	msg := ""
	if errors.As(err, &bizErr) {
		msg = bizErr.Error()
	}

	switch pkgerrors.KindOf(err) {
	case pkgerrors.ErrValidation:
		response.BadRequest(c, response.CodeBadRequest, msgOr(msg, "參數校驗失敗"))
	case pkgerrors.ErrNotFound:
		response.NotFound(c, response.CodeNotFound, msgOr(msg, "資料不存在"))
	case pkgerrors.ErrPermission:
		response.Forbidden(c, response.CodeForbidden, msgOr(msg, "權限不足"))
	case pkgerrors.ErrDuplicateKey:
		response.Conflict(c, response.CodeConflict, msgOr(msg, "資料重複"))
	case pkgerrors.ErrInvalidState:
		response.Conflict(c, response.CodeInvalidState, msgOr(msg, "狀態不允許此操作"))
	case pkgerrors.ErrExternalService:
		response.BadGateway(c, response.CodeExternalService, msgOr(msg, "外部服務暫時無法使用"))
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

func msgOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
