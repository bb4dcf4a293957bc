package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 報價單狀態
const (
	QuoteStatusDraft     = "草稿"
	QuoteStatusSent      = "已發送"
	QuoteStatusAccepted  = "已接受"
	QuoteStatusRejected  = "已拒絕"
	QuoteStatusConverted = "已轉換"
)

// Quote 報價單表 — 對應 quotes
type Quote struct {
	ID           int64           `gorm:"primaryKey;autoIncrement"              json:"id"`
	CustomerID   int64           `gorm:"not null;index"                        json:"customer_id"`
	CustomerName string          `gorm:"->;-:migration"                        json:"customer_name,omitempty"`
	QuoteDate    time.Time       `gorm:"type:date;not null"                    json:"quote_date"`
	Amount       decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount"`
	Status       string          `gorm:"type:varchar(20);not null"             json:"status"`
	CreatorID    int64           `gorm:"not null;default:1;index"              json:"creator_id"`
	BaseModel
}

// TableName 指定表名
func (Quote) TableName() string { return "quotes" }

// ValidQuoteStatus 報價單狀態是否合法
func ValidQuoteStatus(status string) bool {
	switch status {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusConverted:
		return true
	}
	return false
}

// Convertible 只有已接受的報價單可以轉換為訂單
func (q *Quote) Convertible() bool { return q.Status == QuoteStatusAccepted }
