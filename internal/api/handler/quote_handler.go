package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/service"
	"github.com/KHMER0/sale-system/pkg/response"
)

// QuoteHandler 報價單模組 HTTP 處理器
type QuoteHandler struct {
	quoteSvc service.QuoteService
}

// NewQuoteHandler 建立 QuoteHandler
func NewQuoteHandler(quoteSvc service.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteSvc: quoteSvc}
}

// ListQuotes 報價單列表
// GET /api/v1/quotes?search=xxx
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "參數校驗失敗")
		return
	}

	quotes, err := h.quoteSvc.List(c.Request.Context(), actor, q.Search)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKList(c, quotes, len(quotes))
}

// ListConvertible 等待轉換的已接受報價單
// GET /api/v1/quotes/convertible
func (h *QuoteHandler) ListConvertible(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	quotes, err := h.quoteSvc.ListConvertible(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKList(c, quotes, len(quotes))
}

// GetQuote 報價單詳情
// GET /api/v1/quotes/:id
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	quote, err := h.quoteSvc.Get(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, quote)
}

// CreateQuote 建立報價單
// POST /api/v1/quotes
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateQuoteRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := h.quoteSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, quote)
}

// UpdateQuote 部分更新報價單
// PUT /api/v1/quotes/:id
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateQuoteRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := h.quoteSvc.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, quote)
}

// DeleteQuote 刪除報價單
// DELETE /api/v1/quotes/:id
func (h *QuoteHandler) DeleteQuote(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.quoteSvc.Delete(c.Request.Context(), actor, id); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ConvertQuote 已接受的報價單轉為訂單
// POST /api/v1/quotes/:id/convert
func (h *QuoteHandler) ConvertQuote(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.quoteSvc.Convert(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}
