package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/service"
	"github.com/KHMER0/sale-system/pkg/response"
)

// ChatbotHandler 聊天助理 HTTP 處理器
type ChatbotHandler struct {
	chatbotSvc service.ChatbotService
}

// NewChatbotHandler 建立 ChatbotHandler
func NewChatbotHandler(chatbotSvc service.ChatbotService) *ChatbotHandler {
	return &ChatbotHandler{chatbotSvc: chatbotSvc}
}

// SendMessage 送出訊息；補全服務失敗時回覆內容為錯誤說明
// POST /api/v1/chatbot/messages
func (h *ChatbotHandler) SendMessage(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ChatRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.chatbotSvc.Chat(c.Request.Context(), actor, req.Message)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// History 對話紀錄
// GET /api/v1/chatbot/history
func (h *ChatbotHandler) History(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	history, err := h.chatbotSvc.History(c.Request.Context(), actor)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKList(c, history, len(history))
}

// Reset 清除對話紀錄
// DELETE /api/v1/chatbot/history
func (h *ChatbotHandler) Reset(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.chatbotSvc.Reset(c.Request.Context(), actor); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}
