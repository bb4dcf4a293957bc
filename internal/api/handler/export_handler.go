package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/KHMER0/sale-system/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 匯出模組 HTTP 處理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 建立 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// Export 匯出 Excel，entity 為 customers、orders 或 quotes
// GET /api/v1/export/:entity
func (h *ExportHandler) Export(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.Export(c.Request.Context(), actor, c.Param("entity"))
	if err != nil {
		handleError(c, err)
		return
	}

	// 下載回應標頭
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
