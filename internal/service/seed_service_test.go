package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/repository"
)

func TestSeedService_EnsureRoot_Generated(t *testing.T) {
	repo, m := newMockRepository()
	svc := NewSeedService(repo, zap.NewNop())

	generated, err := svc.EnsureRoot(context.Background(), "")
	if err != nil {
		t.Fatalf("EnsureRoot 應成功: %v", err)
	}
	if len(generated) != 12 {
		t.Errorf("期望產生 12 字元臨時密碼，實際=%q", generated)
	}

	root, err := m.users.GetByEmployeeID(context.Background(), model.RootEmployeeID)
	if err != nil {
		t.Fatalf("應已建立員工編號 1: %v", err)
	}
	if root.Role != model.RoleSystemAdmin || root.Name != "Frank" {
		t.Errorf("最高權限帳號內容不符: %+v", root)
	}
	if bcrypt.CompareHashAndPassword([]byte(root.Password), []byte(generated)) != nil {
		t.Error("臨時密碼應可登入")
	}
}

func TestSeedService_EnsureRoot_CreatorIsSelf(t *testing.T) {
	repo, m := newMockRepository()
	svc := NewSeedService(repo, zap.NewNop())
	// 序號已被占用，最高權限帳號不會拿到 ID 1
	m.users.nextID = 7

	if _, err := svc.EnsureRoot(context.Background(), "configured"); err != nil {
		t.Fatalf("EnsureRoot 應成功: %v", err)
	}

	root, err := m.users.GetByEmployeeID(context.Background(), model.RootEmployeeID)
	if err != nil {
		t.Fatalf("應已建立員工編號 1: %v", err)
	}
	if root.ID != 7 {
		t.Fatalf("期望 ID=7，實際=%d", root.ID)
	}
	if root.CreatorID != root.ID {
		t.Errorf("期望建立者為自己 (%d)，實際=%d", root.ID, root.CreatorID)
	}
}

func TestSeedService_EnsureRoot_Idempotent(t *testing.T) {
	repo, m := newMockRepository()
	svc := NewSeedService(repo, zap.NewNop())
	createTestUser(m, 1, "1", "Frank", model.RoleSystemAdmin)

	generated, err := svc.EnsureRoot(context.Background(), "configured")
	if err != nil {
		t.Fatalf("EnsureRoot 應成功: %v", err)
	}
	if generated != "" {
		t.Error("帳號已存在時不應產生密碼")
	}

	root, _ := m.users.GetByEmployeeID(context.Background(), "1")
	if bcrypt.CompareHashAndPassword([]byte(root.Password), []byte("password123")) != nil {
		t.Error("既有密碼不應被覆寫")
	}
}

func TestSeedService_SeedSampleData(t *testing.T) {
	repo, m := newMockRepository()
	svc := NewSeedService(repo, zap.NewNop())
	createTestUser(m, 1, "1", "Frank", model.RoleSystemAdmin)
	ctx := context.Background()

	if err := svc.SeedSampleData(ctx); err != nil {
		t.Fatalf("SeedSampleData 應成功: %v", err)
	}

	count, _ := m.customers.Count(ctx)
	if count != 22 {
		t.Errorf("期望 2 筆基本 + 20 筆產生的客戶，實際=%d", count)
	}
	if m.orders.count() != 22 {
		t.Errorf("期望 22 筆訂單，實際=%d", m.orders.count())
	}
	quotes, _ := m.quotes.List(ctx, repository.ListFilter{})
	for _, q := range quotes {
		if !model.ValidQuoteStatus(q.Status) || q.Status == model.QuoteStatusConverted {
			t.Errorf("範例報價單狀態不合法: %s", q.Status)
		}
		if q.Amount.IsNegative() {
			t.Errorf("範例金額不應為負數: %s", q.Amount)
		}
	}

	// 已達門檻時不再寫入
	if err := svc.SeedSampleData(ctx); err != nil {
		t.Fatalf("SeedSampleData 應成功: %v", err)
	}
	count, _ = m.customers.Count(ctx)
	if count != 22 {
		t.Errorf("重複執行不應再寫入，實際=%d", count)
	}
}

func TestGenerateTempPassword(t *testing.T) {
	for i := 0; i < 20; i++ {
		p, err := generateTempPassword(8)
		if err != nil {
			t.Fatalf("產生密碼失敗: %v", err)
		}
		if len(p) != 8 {
			t.Fatalf("期望長度 8，實際=%d", len(p))
		}
		var hasLetter, hasDigit bool
		for _, c := range p {
			switch {
			case c >= '0' && c <= '9':
				hasDigit = true
			case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
				hasLetter = true
			}
		}
		if !hasLetter || !hasDigit {
			t.Errorf("密碼應同時包含字母與數字: %s", p)
		}
	}
}
