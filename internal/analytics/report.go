// Package analytics 從訂單、報價單與客戶資料計算銷售報表
//
// 所有計算都在記憶體內完成且不依賴資料庫，金額加總使用 decimal 保持精確，
// 只有顯示時才四捨六入五成雙到小數兩位。
package analytics

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/KHMER0/sale-system/internal/model"
)

const topCustomerLimit = 5

// lowConversionThreshold 轉換率低於此值且報價單數量大於 lowConversionMinQuotes 時提出建議
const (
	lowConversionThreshold = 0.5
	lowConversionMinQuotes = 10
)

// pendingStatuses 視為待處理的訂單狀態
var pendingStatuses = map[string]bool{
	model.OrderStatusPending: true,
	model.OrderStatusUnpaid:  true,
}

// SalesSummary 銷售摘要
type SalesSummary struct {
	TotalOrders       int
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal
}

// QuoteSummary 報價單轉換摘要
type QuoteSummary struct {
	TotalQuotes     int
	ConvertedQuotes int
	ConversionRate  float64
}

// CustomerSpend 客戶消費總額
type CustomerSpend struct {
	CustomerID int64
	Name       string
	TotalSpent decimal.Decimal
}

// StatusCount 訂單狀態分佈
type StatusCount struct {
	Status string
	Count  int
}

// Report 完整銷售分析報表
type Report struct {
	Sales        SalesSummary
	Quotes       QuoteSummary
	TopCustomers []CustomerSpend
	StatusCounts []StatusCount
	Suggestions  []string
}

// Summarize 計算銷售摘要；沒有訂單時平均為 0
func Summarize(orders []model.Order) SalesSummary {
	total := sumAmounts(orders)
	avg := decimal.Zero
	if len(orders) > 0 {
		avg = total.Div(decimal.NewFromInt(int64(len(orders))))
	}
	return SalesSummary{
		TotalOrders:       len(orders),
		TotalRevenue:      total,
		AverageOrderValue: avg,
	}
}

// SummarizeQuotes 計算轉換率：(已接受 + 已轉換) / 全部；沒有報價單時為 0
func SummarizeQuotes(quotes []model.Quote) QuoteSummary {
	converted := lo.CountBy(quotes, func(q model.Quote) bool {
		return q.Status == model.QuoteStatusAccepted || q.Status == model.QuoteStatusConverted
	})
	rate := 0.0
	if len(quotes) > 0 {
		rate = float64(converted) / float64(len(quotes))
	}
	return QuoteSummary{
		TotalQuotes:     len(quotes),
		ConvertedQuotes: converted,
		ConversionRate:  rate,
	}
}

// TopCustomers 依訂單金額加總排序的前五名客戶
// 金額相同時依客戶 ID 由小到大；客戶已不存在的訂單不列入
func TopCustomers(orders []model.Order, customers []model.Customer) []CustomerSpend {
	byID := lo.SliceToMap(customers, func(c model.Customer) (int64, model.Customer) {
		return c.ID, c
	})

	spend := make(map[int64]decimal.Decimal)
	for _, o := range orders {
		if _, ok := byID[o.CustomerID]; !ok {
			continue
		}
		spend[o.CustomerID] = spend[o.CustomerID].Add(o.Amount)
	}

	result := make([]CustomerSpend, 0, len(spend))
	for id, total := range spend {
		result = append(result, CustomerSpend{CustomerID: id, Name: byID[id].Name, TotalSpent: total})
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].TotalSpent.Cmp(result[j].TotalSpent); c != 0 {
			return c > 0
		}
		return result[i].CustomerID < result[j].CustomerID
	})

	if len(result) > topCustomerLimit {
		result = result[:topCustomerLimit]
	}
	return result
}

// StatusDistribution 訂單狀態計數，數量多者在前
func StatusDistribution(orders []model.Order) []StatusCount {
	counts := lo.CountValuesBy(orders, func(o model.Order) string { return o.Status })

	result := make([]StatusCount, 0, len(counts))
	for status, n := range counts {
		result = append(result, StatusCount{Status: status, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Status < result[j].Status
	})
	return result
}

// PendingOrders 待處理訂單數
func PendingOrders(statuses []StatusCount) int {
	return lo.SumBy(statuses, func(s StatusCount) int {
		if pendingStatuses[s.Status] {
			return s.Count
		}
		return 0
	})
}

// Suggestions 依報表內容產生經營建議
func Suggestions(top []CustomerSpend, statuses []StatusCount, quotes QuoteSummary) []string {
	suggestions := []string{}
	if len(top) > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("您的頂尖客戶是 %s，可以考慮提供專屬優惠以維持良好客戶關係。", top[0].Name))
	}
	if pending := PendingOrders(statuses); pending > 0 {
		suggestions = append(suggestions,
			fmt.Sprintf("您有 %d 筆處理中的訂單，記得跟進以完成交易。", pending))
	}
	if quotes.ConversionRate < lowConversionThreshold && quotes.TotalQuotes > lowConversionMinQuotes {
		suggestions = append(suggestions, "報價單轉換率偏低，建議分析拒絕原因或優化報價策略。")
	}
	return suggestions
}

// BuildReport 產生完整報表
func BuildReport(orders []model.Order, quotes []model.Quote, customers []model.Customer) Report {
	sales := Summarize(orders)
	quoteSummary := SummarizeQuotes(quotes)
	top := TopCustomers(orders, customers)
	statuses := StatusDistribution(orders)

	return Report{
		Sales:        sales,
		Quotes:       quoteSummary,
		TopCustomers: top,
		StatusCounts: statuses,
		Suggestions:  Suggestions(top, statuses, quoteSummary),
	}
}

// FormatAmount 顯示用金額：四捨六入五成雙到小數兩位
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixedBank(2)
}

func sumAmounts(orders []model.Order) decimal.Decimal {
	return lo.Reduce(orders, func(acc decimal.Decimal, o model.Order, _ int) decimal.Decimal {
		return acc.Add(o.Amount)
	}, decimal.Zero)
}
