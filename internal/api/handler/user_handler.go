package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/service"
	"github.com/KHMER0/sale-system/pkg/response"
)

// UserHandler 使用者模組 HTTP 處理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 建立 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers 使用者列表
// GET /api/v1/users?search=xxx
// 一般使用者沒有列表權限，導向自己的資料頁
func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	if !authz.CanManageUsers(actor) {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/api/v1/users/%d", actor.ID))
		return
	}

	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeBadRequest, "參數校驗失敗")
		return
	}

	users, err := h.userSvc.List(c.Request.Context(), actor, q.Search)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKList(c, users, len(users))
}

// GetUser 使用者詳情
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Get(c.Request.Context(), actor, id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, user)
}

// CreateUser 建立使用者
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, user)
}

// UpdateUser 更新使用者密碼或角色（Service 層鑑權）
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), actor, id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, user)
}

// DeleteUser 刪除使用者
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), actor, id); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}
