package dto

import "github.com/shopspring/decimal"

// ── 訂單模組 DTO ──

// CreateOrderRequest 建立訂單
type CreateOrderRequest struct {
	CustomerID int64            `json:"customer_id" binding:"required,min=1"`
	OrderDate  string           `json:"order_date"  binding:"required"`
	Amount     *decimal.Decimal `json:"amount"      binding:"required"`
	Status     string           `json:"status"      binding:"max=50"`
}

// UpdateOrderRequest 部分更新訂單
type UpdateOrderRequest struct {
	CustomerID *int64           `json:"customer_id" binding:"omitempty,min=1"`
	OrderDate  *string          `json:"order_date"`
	Amount     *decimal.Decimal `json:"amount"`
	Status     *string          `json:"status"      binding:"omitempty,max=50"`
}

// OrderResponse 訂單資訊，金額以兩位小數字串表示
type OrderResponse struct {
	ID           int64  `json:"id"`
	CustomerID   int64  `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	OrderDate    string `json:"order_date"`
	Amount       string `json:"amount"`
	Status       string `json:"status"`
	CreatorID    int64  `json:"creator_id"`
}
