package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/service"
	"github.com/KHMER0/sale-system/pkg/response"
)

// OrderHandler 訂單模組 HTTP 處理器
type OrderHandler struct {
	orderSvc service.OrderService
}

// NewOrderHandler 建立 OrderHandler
func NewOrderHandler(orderSvc service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// ListOrders 訂單列表（一般使用者只看到自己建立的）
// GET /api/v1/orders?search=xxx
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "參數校驗失敗")
		return
	}

	orders, err := h.orderSvc.List(c.Request.Context(), actor, q.Search)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKList(c, orders, len(orders))
}

// GetOrder 訂單詳情
// GET /api/v1/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	order, err := h.orderSvc.Get(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, order)
}

// CreateOrder 建立訂單
// POST /api/v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, order)
}

// UpdateOrder 部分更新訂單
// PUT /api/v1/orders/:id
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderSvc.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, order)
}

// DeleteOrder 刪除訂單
// DELETE /api/v1/orders/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.orderSvc.Delete(c.Request.Context(), actor, id); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}
