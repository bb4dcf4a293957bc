package dto

import "github.com/shopspring/decimal"

// ── 報價單模組 DTO ──

// CreateQuoteRequest 建立報價單，狀態預設為草稿
type CreateQuoteRequest struct {
	CustomerID int64            `json:"customer_id" binding:"required,min=1"`
	QuoteDate  string           `json:"quote_date"  binding:"required"`
	Amount     *decimal.Decimal `json:"amount"      binding:"required"`
	Status     string           `json:"status"`
}

// UpdateQuoteRequest 部分更新報價單
type UpdateQuoteRequest struct {
	CustomerID *int64           `json:"customer_id" binding:"omitempty,min=1"`
	QuoteDate  *string          `json:"quote_date"`
	Amount     *decimal.Decimal `json:"amount"`
	Status     *string          `json:"status"`
}

// QuoteResponse 報價單資訊
type QuoteResponse struct {
	ID           int64  `json:"id"`
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	QuoteDate    string `json:"quote_date"`
	Amount       string `json:"amount"`
	Status       string `json:"status"`
	CreatorID    int64  `json:"creator_id"`
}

// ConvertQuoteResponse 轉換結果
type ConvertQuoteResponse struct {
	Quote QuoteResponse `json:"quote"`
	Order OrderResponse `json:"order"`
}
