package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/service"
	"github.com/KHMER0/sale-system/pkg/response"
)

// CustomerHandler 客戶模組 HTTP 處理器
type CustomerHandler struct {
	customerSvc service.CustomerService
}

// NewCustomerHandler 建立 CustomerHandler
func NewCustomerHandler(customerSvc service.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerSvc: customerSvc}
}

// ListCustomers 客戶列表，search 比對名稱、聯絡人、電話與 Email
// GET /api/v1/customers?search=xxx
func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "參數校驗失敗")
		return
	}

	customers, err := h.customerSvc.List(c.Request.Context(), actor, q.Search)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKList(c, customers, len(customers))
}

// GetCustomer 客戶詳情
// GET /api/v1/customers/:id
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	customer, err := h.customerSvc.Get(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, customer)
}

// CreateCustomer 建立客戶
// POST /api/v1/customers
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, customer)
}

// UpdateCustomer 更新客戶
// PUT /api/v1/customers/:id
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.customerSvc.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, customer)
}

// DeleteCustomer 刪除客戶，既有訂單與報價單保留
// DELETE /api/v1/customers/:id
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.customerSvc.Delete(c.Request.Context(), actor, id); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}
