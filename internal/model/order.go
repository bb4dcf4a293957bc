package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 訂單常用狀態，狀態欄位本身為自由文字
const (
	OrderStatusUnpaid    = "未付款"
	OrderStatusPaid      = "已付款"
	OrderStatusCancelled = "取消"
	OrderStatusPending   = "Pending"
	OrderStatusCompleted = "Completed"
)

// Order 訂單表 — 對應 orders
// CustomerName 由列表查詢 LEFT JOIN customers 填入，不寫回資料庫
type Order struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"              json:"id"`
	CustomerID   int64           `gorm:"not null;index"                        json:"customer_id"`
	CustomerName string          `gorm:"->;-:migration"                        json:"customer_name,omitempty"`
	OrderDate    time.Time       `gorm:"type:date;not null"                    json:"order_date"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount"`
	Status       string          `gorm:"type:varchar(50);not null"             json:"status"`
	CreatorID    int64           `gorm:"not null;default:1;index"              json:"creator_id"`
	BaseModel
}

// TableName 指定表名
func (Order) TableName() string { return "orders" }
