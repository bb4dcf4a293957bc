package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/repository"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
)

// 可匯出的資料類型
const (
	ExportCustomers = "customers"
	ExportOrders    = "orders"
	ExportQuotes    = "quotes"
)

// ── 匯出模組業務錯誤 ──

var (
	ErrExportEntityInvalid = pkgerrors.New(pkgerrors.ErrValidation, "不支援的匯出類型")
	ErrExportGenerateFail  = pkgerrors.New(pkgerrors.ErrStorage, "產生 Excel 檔案失敗")
)

// ExportService 匯出業務介面
//
// 設計說明：
//   - 匯出範圍與列表一致：客戶為共用資料，訂單與報價單依操作者角色限定建立者
//   - 以 bytes.Buffer 回傳，由 Handler 設定回應標頭後寫出
type ExportService interface {
	Export(ctx context.Context, actor authz.Actor, entity string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 建立 ExportService 實例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// sheet 單一工作表內容
type sheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]interface{}
}

// ────────────────────── Export ──────────────────────

func (s *exportService) Export(ctx context.Context, actor authz.Actor, entity string) (*bytes.Buffer, string, error) {
	var (
		sh  *sheet
		err error
	)
	switch entity {
	case ExportCustomers:
		sh, err = s.customerSheet(ctx)
	case ExportOrders:
		sh, err = s.orderSheet(ctx, actor)
	case ExportQuotes:
		sh, err = s.quoteSheet(ctx, actor)
	default:
		return nil, "", ErrExportEntityInvalid
	}
	if err != nil {
		return nil, "", err
	}

	buf, err := renderSheet(sh)
	if err != nil {
		s.logger.Error("寫入 Excel 失敗", zap.String("entity", entity), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("%s_%s.xlsx", entity, time.Now().Format("20060102"))
	return buf, filename, nil
}

func (s *exportService) customerSheet(ctx context.Context) (*sheet, error) {
	customers, err := s.repo.Customer.List(ctx, repository.ListFilter{})
	if err != nil {
		return nil, storageFailure(s.logger, "查詢客戶列表失敗", err)
	}

	sh := &sheet{
		name:    "客戶",
		headers: []string{"ID", "名稱", "聯絡人", "電話", "Email", "建立者"},
		widths:  []float64{8, 24, 14, 16, 28, 10},
	}
	for _, c := range customers {
		sh.rows = append(sh.rows, []interface{}{c.ID, c.Name, c.ContactPerson, c.Phone, c.Email, c.CreatorID})
	}
	return sh, nil
}

func (s *exportService) orderSheet(ctx context.Context, actor authz.Actor) (*sheet, error) {
	orders, err := s.repo.Order.List(ctx, repository.ListFilter{CreatorID: authz.ListScope(actor)})
	if err != nil {
		return nil, storageFailure(s.logger, "查詢訂單列表失敗", err)
	}

	sh := recordSheet("訂單", "訂單日期")
	for _, o := range orders {
		sh.rows = append(sh.rows, recordRow(o.ID, o.CustomerID, o.CustomerName, o.OrderDate, o.Amount.StringFixedBank(2), o.Status, o.CreatorID))
	}
	return sh, nil
}

func (s *exportService) quoteSheet(ctx context.Context, actor authz.Actor) (*sheet, error) {
	quotes, err := s.repo.Quote.List(ctx, repository.ListFilter{CreatorID: authz.ListScope(actor)})
	if err != nil {
		return nil, storageFailure(s.logger, "查詢報價單列表失敗", err)
	}

	sh := recordSheet("報價單", "報價日期")
	for _, q := range quotes {
		sh.rows = append(sh.rows, recordRow(q.ID, q.CustomerID, q.CustomerName, q.QuoteDate, q.Amount.StringFixedBank(2), q.Status, q.CreatorID))
	}
	return sh, nil
}

// ── 輔助函式 ──

func recordSheet(name, dateHeader string) *sheet {
	return &sheet{
		name:    name,
		headers: []string{"ID", "客戶 ID", "客戶名稱", dateHeader, "金額", "狀態", "建立者"},
		widths:  []float64{8, 10, 24, 14, 16, 12, 10},
	}
}

func recordRow(id, customerID int64, customerName string, date time.Time, amount, status string, creatorID int64) []interface{} {
	if customerName == "" {
		customerName = "-"
	}
	return []interface{}{id, customerID, customerName, formatDate(date), amount, status, creatorID}
}

// renderSheet 第一列為粗體表頭並凍結
func renderSheet(sh *sheet) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sh.name)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	// 刪除預設 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, w := range sh.widths {
		col := colName(i)
		if err := f.SetColWidth(sh.name, col, col, w); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range sh.headers {
		if err := f.SetCellValue(sh.name, cell(colName(i), 1), h); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(sh.name, "A1", cell(colName(len(sh.headers)-1), 1), headerStyle); err != nil {
		return nil, err
	}
	if err := f.SetPanes(sh.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	for r, row := range sh.rows {
		if err := f.SetSheetRow(sh.name, cell("A", r+2), &row); err != nil {
			return nil, err
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
