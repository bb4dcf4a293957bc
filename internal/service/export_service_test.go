package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/internal/model"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
)

// ── 測試輔助 ──

func setupTestExportService() (ExportService, *mockRepos) {
	repo, mocks := newMockRepository()
	ctx := context.Background()
	_ = mocks.customers.Create(ctx, &model.Customer{ID: 1, Name: "TechCorp", Phone: "123-456-7890", CreatorID: 1})
	_ = mocks.orders.Create(ctx, &model.Order{
		ID: 1, CustomerID: 1, OrderDate: date(2025, 7, 1),
		Amount: decimal.RequireFromString("1500"), Status: model.OrderStatusCompleted, CreatorID: 2,
	})
	_ = mocks.orders.Create(ctx, &model.Order{
		ID: 2, CustomerID: 1, OrderDate: date(2025, 7, 5),
		Amount: decimal.RequireFromString("3000.5"), Status: model.OrderStatusPending, CreatorID: 4,
	})
	return NewExportService(repo, zap.NewNop()), mocks
}

func readSheet(t *testing.T, svc ExportService, m *mockRepos, role, entity, sheetName string) [][]string {
	t.Helper()
	actor := createTestUser(m, 2, "E002", "王小明", role)

	buf, filename, err := svc.Export(context.Background(), actor, entity)
	if err != nil {
		t.Fatalf("Export 應成功: %v", err)
	}
	if filename == "" {
		t.Error("期望回傳檔名")
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("應為合法的 xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("讀取工作表失敗: %v", err)
	}
	return rows
}

// ── Export 測試 ──

func TestExportService_Orders_ScopedForUser(t *testing.T) {
	svc, m := setupTestExportService()

	rows := readSheet(t, svc, m, model.RoleUser, ExportOrders, "訂單")
	if len(rows) != 2 {
		t.Fatalf("期望表頭 + 1 筆自己的訂單，實際=%d 列", len(rows))
	}
	if rows[0][0] != "ID" {
		t.Errorf("第一列應為表頭，實際=%v", rows[0])
	}
	if rows[1][2] != "TechCorp" || rows[1][4] != "1500.00" {
		t.Errorf("資料列不符: %v", rows[1])
	}
}

func TestExportService_Orders_AdminSeesAll(t *testing.T) {
	svc, m := setupTestExportService()

	rows := readSheet(t, svc, m, model.RoleAdministrator, ExportOrders, "訂單")
	if len(rows) != 3 {
		t.Errorf("期望表頭 + 2 筆訂單，實際=%d 列", len(rows))
	}
}

func TestExportService_Customers(t *testing.T) {
	svc, m := setupTestExportService()

	rows := readSheet(t, svc, m, model.RoleUser, ExportCustomers, "客戶")
	if len(rows) != 2 || rows[1][1] != "TechCorp" {
		t.Errorf("客戶工作表內容不符: %v", rows)
	}
}

func TestExportService_InvalidEntity(t *testing.T) {
	svc, m := setupTestExportService()
	actor := createTestUser(m, 2, "E002", "王小明", model.RoleUser)

	_, _, err := svc.Export(context.Background(), actor, "users")
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("期望 ErrValidation，實際: %v", err)
	}
}
