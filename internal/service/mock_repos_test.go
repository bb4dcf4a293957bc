package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/repository"
)

// ── 測試輔助 ──

// matchKeyword 模擬 ILIKE 部分比對
func matchKeyword(keyword string, values ...string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return true
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), kw) {
			return true
		}
	}
	return false
}

func inScope(filter repository.ListFilter, creatorID int64) bool {
	return filter.CreatorID == nil || *filter.CreatorID == creatorID
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.EmployeeID == user.EmployeeID {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == 0 {
		user.ID = m.nextID
	}
	if user.ID >= m.nextID {
		m.nextID = user.ID + 1
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmployeeID(_ context.Context, employeeID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.EmployeeID == employeeID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, filter repository.ListFilter) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, u := range m.users {
		if inScope(filter, u.CreatorID) && matchKeyword(filter.Keyword, u.EmployeeID, u.Name, u.Role) {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockUserRepo) UpdateFields(_ context.Context, id int64, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	if v, ok := fields["role"].(string); ok {
		u.Role = v
	}
	if v, ok := fields["password"].(string); ok {
		u.Password = v
	}
	if v, ok := fields["creator_id"].(int64); ok {
		u.CreatorID = v
	}
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) ListIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ── Mock CustomerRepository ──

type mockCustomerRepo struct {
	mu        sync.Mutex
	customers map[int64]*model.Customer
	nextID    int64
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{customers: make(map[int64]*model.Customer), nextID: 1}
}

func (m *mockCustomerRepo) Create(_ context.Context, customer *model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if customer.ID == 0 {
		customer.ID = m.nextID
	}
	if customer.ID >= m.nextID {
		m.nextID = customer.ID + 1
	}
	cp := *customer
	m.customers[customer.ID] = &cp
	return nil
}

func (m *mockCustomerRepo) BatchCreate(ctx context.Context, customers []model.Customer) error {
	for i := range customers {
		if err := m.Create(ctx, &customers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockCustomerRepo) GetByID(_ context.Context, id int64) (*model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.customers[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCustomerRepo) List(_ context.Context, filter repository.ListFilter) ([]model.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Customer
	for _, c := range m.customers {
		if inScope(filter, c.CreatorID) && matchKeyword(filter.Keyword, c.Name, c.ContactPerson, c.Phone, c.Email) {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockCustomerRepo) Update(_ context.Context, customer *model.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *customer
	m.customers[customer.ID] = &cp
	return nil
}

func (m *mockCustomerRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.customers, id)
	return nil
}

func (m *mockCustomerRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.customers)), nil
}

func (m *mockCustomerRepo) name(id int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.customers[id]; ok {
		return c.Name
	}
	return ""
}

// ── Mock OrderRepository ──

type mockOrderRepo struct {
	mu        sync.Mutex
	orders    map[int64]*model.Order
	nextID    int64
	customers *mockCustomerRepo
}

func newMockOrderRepo(customers *mockCustomerRepo) *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[int64]*model.Order), nextID: 1, customers: customers}
}

func (m *mockOrderRepo) Create(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == 0 {
		order.ID = m.nextID
	}
	if order.ID >= m.nextID {
		m.nextID = order.ID + 1
	}
	cp := *order
	cp.CustomerName = ""
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) BatchCreate(ctx context.Context, orders []model.Order) error {
	for i := range orders {
		if err := m.Create(ctx, &orders[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		cp := *o
		cp.CustomerName = m.customers.name(o.CustomerID)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockOrderRepo) List(_ context.Context, filter repository.ListFilter) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Order
	for _, o := range m.orders {
		cp := *o
		cp.CustomerName = m.customers.name(o.CustomerID)
		if inScope(filter, o.CreatorID) &&
			matchKeyword(filter.Keyword, strconv.FormatInt(o.ID, 10), cp.CustomerName, o.Status) {
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockOrderRepo) Update(_ context.Context, order *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *order
	m.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// ── Mock QuoteRepository ──

// mockQuoteRepo UpdateStatusIf 在鎖內比對狀態，模擬資料庫條件更新
type mockQuoteRepo struct {
	mu        sync.Mutex
	quotes    map[int64]*model.Quote
	nextID    int64
	customers *mockCustomerRepo
}

func newMockQuoteRepo(customers *mockCustomerRepo) *mockQuoteRepo {
	return &mockQuoteRepo{quotes: make(map[int64]*model.Quote), nextID: 1, customers: customers}
}

func (m *mockQuoteRepo) Create(_ context.Context, quote *model.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if quote.ID == 0 {
		quote.ID = m.nextID
	}
	if quote.ID >= m.nextID {
		m.nextID = quote.ID + 1
	}
	cp := *quote
	cp.CustomerName = ""
	m.quotes[quote.ID] = &cp
	return nil
}

func (m *mockQuoteRepo) BatchCreate(ctx context.Context, quotes []model.Quote) error {
	for i := range quotes {
		if err := m.Create(ctx, &quotes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockQuoteRepo) GetByID(_ context.Context, id int64) (*model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.quotes[id]; ok {
		cp := *q
		cp.CustomerName = m.customers.name(q.CustomerID)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuoteRepo) GetByIDForUpdate(_ context.Context, id int64) (*model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.quotes[id]; ok {
		cp := *q
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuoteRepo) List(ctx context.Context, filter repository.ListFilter) ([]model.Quote, error) {
	return m.ListByStatus(ctx, filter, "")
}

func (m *mockQuoteRepo) ListByStatus(_ context.Context, filter repository.ListFilter, status string) ([]model.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Quote
	for _, q := range m.quotes {
		if status != "" && q.Status != status {
			continue
		}
		cp := *q
		cp.CustomerName = m.customers.name(q.CustomerID)
		if inScope(filter, q.CreatorID) &&
			matchKeyword(filter.Keyword, strconv.FormatInt(q.ID, 10), cp.CustomerName, q.Status) {
			result = append(result, cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockQuoteRepo) Update(_ context.Context, quote *model.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *quote
	m.quotes[quote.ID] = &cp
	return nil
}

func (m *mockQuoteRepo) UpdateStatusIf(_ context.Context, id int64, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotes[id]
	if !ok || q.Status != from {
		return false, nil
	}
	q.Status = to
	return true, nil
}

func (m *mockQuoteRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.quotes, id)
	return nil
}

func (m *mockQuoteRepo) status(id int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.quotes[id]; ok {
		return q.Status
	}
	return ""
}

// ── Mock 聚合 ──

type mockRepos struct {
	users     *mockUserRepo
	customers *mockCustomerRepo
	orders    *mockOrderRepo
	quotes    *mockQuoteRepo
}

// newMockRepository 未連線資料庫的聚合，Transaction 直接執行
func newMockRepository() (*repository.Repository, *mockRepos) {
	customers := newMockCustomerRepo()
	m := &mockRepos{
		users:     newMockUserRepo(),
		customers: customers,
		orders:    newMockOrderRepo(customers),
		quotes:    newMockQuoteRepo(customers),
	}
	repo := &repository.Repository{
		User:     m.users,
		Customer: m.customers,
		Order:    m.orders,
		Quote:    m.quotes,
	}
	return repo, m
}
