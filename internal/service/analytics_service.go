package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/internal/analytics"
	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/repository"
)

// AnalyticsService 銷售分析業務介面
// 每次請求重新計算，統計範圍為全部資料
type AnalyticsService interface {
	Summary(ctx context.Context, actor authz.Actor) (*dto.AnalyticsSummaryResponse, error)
	CustomerScoring(ctx context.Context, actor authz.Actor) (*dto.CustomerScoringResponse, error)
}

type analyticsService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAnalyticsService 建立 AnalyticsService 實例
func NewAnalyticsService(repo *repository.Repository, logger *zap.Logger) AnalyticsService {
	return &analyticsService{repo: repo, logger: logger}
}

// dataset 分析所需的三張表快照
type dataset struct {
	customers []model.Customer
	orders    []model.Order
	quotes    []model.Quote
}

func (s *analyticsService) load(ctx context.Context) (*dataset, error) {
	all := repository.ListFilter{}

	customers, err := s.repo.Customer.List(ctx, all)
	if err != nil {
		return nil, storageFailure(s.logger, "讀取客戶資料失敗", err)
	}
	orders, err := s.repo.Order.List(ctx, all)
	if err != nil {
		return nil, storageFailure(s.logger, "讀取訂單資料失敗", err)
	}
	quotes, err := s.repo.Quote.List(ctx, all)
	if err != nil {
		return nil, storageFailure(s.logger, "讀取報價單資料失敗", err)
	}
	return &dataset{customers: customers, orders: orders, quotes: quotes}, nil
}

// ────────────────────── Summary ──────────────────────

func (s *analyticsService) Summary(ctx context.Context, _ authz.Actor) (*dto.AnalyticsSummaryResponse, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	report := analytics.BuildReport(data.orders, data.quotes, data.customers)

	resp := &dto.AnalyticsSummaryResponse{
		SalesSummary: dto.SalesSummaryResponse{
			TotalOrders:       report.Sales.TotalOrders,
			TotalRevenue:      analytics.FormatAmount(report.Sales.TotalRevenue),
			AverageOrderValue: analytics.FormatAmount(report.Sales.AverageOrderValue),
		},
		QuoteSummary: dto.QuoteSummaryResponse{
			TotalQuotes:     report.Quotes.TotalQuotes,
			ConvertedQuotes: report.Quotes.ConvertedQuotes,
			ConversionRate:  report.Quotes.ConversionRate,
		},
		TopCustomers:            make([]dto.CustomerSpendResponse, 0, len(report.TopCustomers)),
		OrderStatusDistribution: make([]dto.StatusCountResponse, 0, len(report.StatusCounts)),
		Suggestions:             report.Suggestions,
	}
	for _, c := range report.TopCustomers {
		resp.TopCustomers = append(resp.TopCustomers, dto.CustomerSpendResponse{
			CustomerID: c.CustomerID,
			Name:       c.Name,
			TotalSpent: analytics.FormatAmount(c.TotalSpent),
		})
	}
	for _, sc := range report.StatusCounts {
		resp.OrderStatusDistribution = append(resp.OrderStatusDistribution, dto.StatusCountResponse{
			Status: sc.Status,
			Count:  sc.Count,
		})
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []string{}
	}
	return resp, nil
}

// ────────────────────── CustomerScoring ──────────────────────

func (s *analyticsService) CustomerScoring(ctx context.Context, _ authz.Actor) (*dto.CustomerScoringResponse, error) {
	data, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	scoring := analytics.ScoreCustomers(data.customers, data.orders, data.quotes)

	resp := &dto.CustomerScoringResponse{
		ScoredCustomers: make([]dto.ScoredCustomerResponse, 0, len(scoring.Customers)),
		Segments: map[string][]dto.ScoredCustomerResponse{
			analytics.SegmentHigh: {},
			analytics.SegmentMid:  {},
			analytics.SegmentLow:  {},
		},
		P25: analytics.FormatAmount(scoring.P25),
		P75: analytics.FormatAmount(scoring.P75),
	}
	for _, c := range scoring.Customers {
		item := toScoredCustomerResponse(c)
		resp.ScoredCustomers = append(resp.ScoredCustomers, item)
		resp.Segments[c.Segment] = append(resp.Segments[c.Segment], item)
	}
	return resp, nil
}

func toScoredCustomerResponse(c analytics.ScoredCustomer) dto.ScoredCustomerResponse {
	return dto.ScoredCustomerResponse{
		CustomerID: c.CustomerID,
		Name:       c.Name,
		Score:      c.Score,
		TotalSpent: analytics.FormatAmount(c.TotalSpent),
		Segment:    c.Segment,
	}
}
