package handler

import (
	"github.com/KHMER0/sale-system/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth      *AuthHandler
	User      *UserHandler
	Customer  *CustomerHandler
	Order     *OrderHandler
	Quote     *QuoteHandler
	Analytics *AnalyticsHandler
	Chatbot   *ChatbotHandler
	Export    *ExportHandler
	Health    *HealthHandler
}

// NewHandler 建立 Handler 聚合；pinger 用於健康檢查，可為 nil
func NewHandler(svc *service.Service, pinger Pinger) *Handler {
	return &Handler{
		Auth:      NewAuthHandler(svc.Auth),
		User:      NewUserHandler(svc.User),
		Customer:  NewCustomerHandler(svc.Customer),
		Order:     NewOrderHandler(svc.Order),
		Quote:     NewQuoteHandler(svc.Quote),
		Analytics: NewAnalyticsHandler(svc.Analytics),
		Chatbot:   NewChatbotHandler(svc.Chatbot),
		Export:    NewExportHandler(svc.Export),
		Health:    NewHealthHandler(pinger),
	}
}
