package dto

// ── 分析模組 DTO ──

// SalesSummaryResponse 銷售摘要
type SalesSummaryResponse struct {
	TotalOrders       int    `json:"total_orders"`
	TotalRevenue      string `json:"total_revenue"`
	AverageOrderValue string `json:"average_order_value"`
}

// QuoteSummaryResponse 報價單轉換摘要
type QuoteSummaryResponse struct {
	TotalQuotes     int     `json:"total_quotes"`
	ConvertedQuotes int     `json:"converted_quotes"`
	ConversionRate  float64 `json:"conversion_rate"`
}

// CustomerSpendResponse 頂尖客戶
type CustomerSpendResponse struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	TotalSpent string `json:"total_spent"`
}

// StatusCountResponse 狀態分佈
type StatusCountResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// AnalyticsSummaryResponse GET /analytics/summary
type AnalyticsSummaryResponse struct {
	SalesSummary            SalesSummaryResponse    `json:"sales_summary"`
	QuoteSummary            QuoteSummaryResponse    `json:"quote_summary"`
	TopCustomers            []CustomerSpendResponse `json:"top_customers"`
	OrderStatusDistribution []StatusCountResponse   `json:"order_status_distribution"`
	Suggestions             []string                `json:"suggestions"`
}

// ScoredCustomerResponse 客戶評分
type ScoredCustomerResponse struct {
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	TotalSpent string `json:"total_spent"`
	Segment    string `json:"segment"`
}

// CustomerScoringResponse GET /analytics/customers
type CustomerScoringResponse struct {
	ScoredCustomers []ScoredCustomerResponse            `json:"scored_customers"`
	Segments        map[string][]ScoredCustomerResponse `json:"segments"`
	P25             string                              `json:"p25"`
	P75             string                              `json:"p75"`
}
