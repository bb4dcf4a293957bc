package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/KHMER0/sale-system/internal/service"
	"github.com/KHMER0/sale-system/pkg/response"
)

// AnalyticsHandler 銷售分析 HTTP 處理器
type AnalyticsHandler struct {
	analyticsSvc service.AnalyticsService
}

// NewAnalyticsHandler 建立 AnalyticsHandler
func NewAnalyticsHandler(analyticsSvc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// Summary 銷售摘要、轉換率、頂尖客戶與建議
// GET /api/v1/analytics/summary
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	report, err := h.analyticsSvc.Summary(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, report)
}

// CustomerScoring 客戶評分與分群
// GET /api/v1/analytics/customers
func (h *AnalyticsHandler) CustomerScoring(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.analyticsSvc.CustomerScoring(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}
