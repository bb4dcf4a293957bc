package analytics

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/KHMER0/sale-system/internal/model"
)

// 評分權重
const (
	scoreActiveOrder    = 10
	scoreCancelledOrder = -10
	scoreWonQuote       = 5
	scoreAboveMeanSpend = 20
)

// 客戶分群
const (
	SegmentHigh = "high_value"
	SegmentMid  = "mid_value"
	SegmentLow  = "low_value"
)

// ScoredCustomer 客戶評分與分群結果
type ScoredCustomer struct {
	CustomerID int64
	Name       string
	Score      int
	TotalSpent decimal.Decimal
	Segment    string
}

// Scoring 客戶評分報表
// P25、P75 取自正消費額排序後的索引 int(n*0.25)、int(n*0.75)，不做內插
type Scoring struct {
	Customers []ScoredCustomer
	Segments  map[string][]ScoredCustomer
	P25       decimal.Decimal
	P75       decimal.Decimal
	MeanSpend decimal.Decimal
}

// ScoreCustomers 計算每位客戶的分數與分群
// 未取消的訂單 +10、取消的訂單 -10、已接受或已轉換的報價單 +5；
// 消費額（不含取消訂單）高於正消費客戶平均者再 +20
func ScoreCustomers(customers []model.Customer, orders []model.Order, quotes []model.Quote) Scoring {
	scores := make(map[int64]int, len(customers))
	spend := make(map[int64]decimal.Decimal, len(customers))
	for _, c := range customers {
		scores[c.ID] = 0
		spend[c.ID] = decimal.Zero
	}

	for _, o := range orders {
		if _, ok := scores[o.CustomerID]; !ok {
			continue
		}
		if o.Status == model.OrderStatusCancelled {
			scores[o.CustomerID] += scoreCancelledOrder
			continue
		}
		scores[o.CustomerID] += scoreActiveOrder
		spend[o.CustomerID] = spend[o.CustomerID].Add(o.Amount)
	}

	for _, q := range quotes {
		if _, ok := scores[q.CustomerID]; !ok {
			continue
		}
		if q.Status == model.QuoteStatusAccepted || q.Status == model.QuoteStatusConverted {
			scores[q.CustomerID] += scoreWonQuote
		}
	}

	positive := lo.Filter(lo.Values(spend), func(d decimal.Decimal, _ int) bool {
		return d.IsPositive()
	})
	sort.Slice(positive, func(i, j int) bool { return positive[i].LessThan(positive[j]) })

	p25, p75 := Thresholds(positive)
	mean := decimal.Zero
	if len(positive) > 0 {
		mean = decimal.Sum(positive[0], positive[1:]...).Div(decimal.NewFromInt(int64(len(positive))))
	}

	result := Scoring{
		Customers: make([]ScoredCustomer, 0, len(customers)),
		Segments: map[string][]ScoredCustomer{
			SegmentHigh: {},
			SegmentMid:  {},
			SegmentLow:  {},
		},
		P25:       p25,
		P75:       p75,
		MeanSpend: mean,
	}

	for _, c := range customers {
		sc := ScoredCustomer{
			CustomerID: c.ID,
			Name:       c.Name,
			Score:      scores[c.ID],
			TotalSpent: spend[c.ID],
			Segment:    Segment(spend[c.ID], p25, p75),
		}
		if sc.TotalSpent.GreaterThan(mean) {
			sc.Score += scoreAboveMeanSpend
		}
		result.Customers = append(result.Customers, sc)
		result.Segments[sc.Segment] = append(result.Segments[sc.Segment], sc)
	}

	sort.SliceStable(result.Customers, func(i, j int) bool {
		if result.Customers[i].Score != result.Customers[j].Score {
			return result.Customers[i].Score > result.Customers[j].Score
		}
		return result.Customers[i].CustomerID < result.Customers[j].CustomerID
	})

	return result
}

// Thresholds 由已排序的正消費額取最近排名百分位
func Thresholds(sortedPositive []decimal.Decimal) (p25, p75 decimal.Decimal) {
	n := len(sortedPositive)
	if n == 0 {
		return decimal.Zero, decimal.Zero
	}
	return sortedPositive[int(float64(n)*0.25)], sortedPositive[int(float64(n)*0.75)]
}

// Segment 依門檻判定分群，每位客戶恰好落在一群
func Segment(spent, p25, p75 decimal.Decimal) string {
	switch {
	case p75.IsPositive() && spent.GreaterThanOrEqual(p75):
		return SegmentHigh
	case spent.GreaterThanOrEqual(p25):
		return SegmentMid
	default:
		return SegmentLow
	}
}
