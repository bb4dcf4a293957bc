package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/KHMER0/sale-system/internal/api/middleware"
	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/dto"
	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/service"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
	"github.com/KHMER0/sale-system/pkg/jwt"
	"github.com/KHMER0/sale-system/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult   *dto.TokenResponse
	loginErr      error
	refreshResult *dto.TokenResponse
	refreshErr    error
	logoutClaims  *jwt.Claims
	meResult      *dto.UserResponse
	meErr         error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ string) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, claims *jwt.Claims) error {
	m.logoutClaims = claims
	return nil
}
func (m *mockAuthService) Authenticate(_ context.Context, _ string) (authz.Actor, *jwt.Claims, error) {
	return authz.Actor{}, nil, errors.New("not used")
}
func (m *mockAuthService) Me(_ context.Context, _ authz.Actor) (*dto.UserResponse, error) {
	return m.meResult, m.meErr
}

// ── Mock UserService ──

type mockUserService struct {
	listResult []dto.UserResponse
	listCalled bool
	getErr     error
	createErr  error
}

func (m *mockUserService) List(_ context.Context, _ authz.Actor, _ string) ([]dto.UserResponse, error) {
	m.listCalled = true
	return m.listResult, nil
}
func (m *mockUserService) Get(_ context.Context, _ authz.Actor, id int64) (*dto.UserResponse, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &dto.UserResponse{ID: id}, nil
}
func (m *mockUserService) Create(_ context.Context, _ authz.Actor, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &dto.UserResponse{ID: 10, EmployeeID: req.EmployeeID, Name: req.Name}, nil
}
func (m *mockUserService) Update(_ context.Context, _ authz.Actor, id int64, _ *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	return &dto.UserResponse{ID: id}, nil
}
func (m *mockUserService) Delete(_ context.Context, _ authz.Actor, _ int64) error {
	return nil
}

// ── Mock QuoteService ──

type mockQuoteService struct {
	convertResult *dto.ConvertQuoteResponse
	convertErr    error
	convertID     int64
}

func (m *mockQuoteService) List(_ context.Context, _ authz.Actor, _ string) ([]dto.QuoteResponse, error) {
	return []dto.QuoteResponse{}, nil
}
func (m *mockQuoteService) ListConvertible(_ context.Context, _ authz.Actor) ([]dto.QuoteResponse, error) {
	return []dto.QuoteResponse{{ID: 1, Status: model.QuoteStatusAccepted}}, nil
}
func (m *mockQuoteService) Get(_ context.Context, _ authz.Actor, id int64) (*dto.QuoteResponse, error) {
	return &dto.QuoteResponse{ID: id}, nil
}
func (m *mockQuoteService) Create(_ context.Context, _ authz.Actor, _ *dto.CreateQuoteRequest) (*dto.QuoteResponse, error) {
	return &dto.QuoteResponse{ID: 1}, nil
}
func (m *mockQuoteService) Update(_ context.Context, _ authz.Actor, id int64, _ *dto.UpdateQuoteRequest) (*dto.QuoteResponse, error) {
	return &dto.QuoteResponse{ID: id}, nil
}
func (m *mockQuoteService) Delete(_ context.Context, _ authz.Actor, _ int64) error {
	return nil
}
func (m *mockQuoteService) Convert(_ context.Context, _ authz.Actor, id int64) (*dto.ConvertQuoteResponse, error) {
	m.convertID = id
	return m.convertResult, m.convertErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
	entity   string
}

func (m *mockExportService) Export(_ context.Context, _ authz.Actor, entity string) (*bytes.Buffer, string, error) {
	m.entity = entity
	return m.buf, m.filename, m.err
}

// ── Mock ChatbotService ──

type mockChatbotService struct {
	message string
}

func (m *mockChatbotService) Chat(_ context.Context, _ authz.Actor, message string) (*dto.ChatResponse, error) {
	m.message = message
	return &dto.ChatResponse{Reply: "您好"}, nil
}
func (m *mockChatbotService) History(_ context.Context, _ authz.Actor) ([]dto.ChatMessage, error) {
	return []dto.ChatMessage{{Role: service.ChatRoleBot, Content: "hi"}}, nil
}
func (m *mockChatbotService) Reset(_ context.Context, _ authz.Actor) error {
	return nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context, actor authz.Actor) {
	c.Set(middleware.ActorKey, actor)
	c.Set(middleware.ClaimsKey, &jwt.Claims{UserID: actor.ID, TokenType: jwt.TokenTypeAccess})
	c.Set("user_id", actor.ID)
}

func asUser(id int64, role string) authz.Actor {
	return authz.Actor{ID: id, EmployeeID: "E", Name: "測試", Role: role}
}

// withActor 以指定操作者包裝 Handler
func withActor(actor authz.Actor, fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		setAuth(c, actor)
		fn(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 1800},
	}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{EmployeeID: "1", Password: "pw"}))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != response.CodeOK {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", strings.NewReader("invalid json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	r := gin.New()
	r.POST("/auth/login", h.Login)
	w := serve(r, "POST", "/auth/login", jsonBody(dto.LoginRequest{EmployeeID: "1", Password: "wrong"}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != response.CodeUnauthorized {
		t.Errorf("expected error code %d, got %d", response.CodeUnauthorized, resp.Code)
	}
}

func TestAuthHandler_Refresh_Revoked(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: service.ErrTokenRevoked})

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	w := serve(r, "POST", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "old"}))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthHandler_Refresh_StorageFailure(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{refreshErr: pkgerrors.Storage(errors.New("conn reset"))})

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	w := serve(r, "POST", "/auth/refresh", jsonBody(dto.RefreshTokenRequest{RefreshToken: "old"}))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "conn reset") {
		t.Error("driver error must not leak into the response")
	}
}

func TestAuthHandler_Refresh_MissingToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.POST("/auth/refresh", h.RefreshToken)
	w := serve(r, "POST", "/auth/refresh", jsonBody(map[string]string{}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Logout_PassesClaims(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	r := gin.New()
	r.POST("/auth/logout", withActor(asUser(7, model.RoleUser), h.Logout))
	w := serve(r, "POST", "/auth/logout", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.logoutClaims == nil || mock.logoutClaims.UserID != 7 {
		t.Errorf("expected claims of user 7 to be revoked, got %+v", mock.logoutClaims)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r := gin.New()
	r.GET("/auth/me", h.Me)
	w := serve(r, "GET", "/auth/me", nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// UserHandler Tests
// ═══════════════════════════════════════════════════════════

func TestUserHandler_List_RedirectsNonAdmin(t *testing.T) {
	mock := &mockUserService{}
	h := NewUserHandler(mock)

	r := gin.New()
	r.GET("/api/v1/users", withActor(asUser(5, model.RoleUser), h.ListUsers))
	w := serve(r, "GET", "/api/v1/users", nil)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/api/v1/users/5" {
		t.Errorf("expected Location /api/v1/users/5, got %s", loc)
	}
	if mock.listCalled {
		t.Error("list must not be queried for a non-admin")
	}
}

func TestUserHandler_List_Admin(t *testing.T) {
	mock := &mockUserService{listResult: []dto.UserResponse{{ID: 1}, {ID: 2}}}
	h := NewUserHandler(mock)

	r := gin.New()
	r.GET("/api/v1/users", withActor(asUser(1, model.RoleAdministrator), h.ListUsers))
	w := serve(r, "GET", "/api/v1/users?search=E0", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data response.ListData `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Total != 2 {
		t.Errorf("expected total 2, got %d", body.Data.Total)
	}
}

func TestUserHandler_Get_InvalidID(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	r := gin.New()
	r.GET("/users/:id", withActor(asUser(1, model.RoleSystemAdmin), h.GetUser))
	w := serve(r, "GET", "/users/abc", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestUserHandler_Create_Duplicate(t *testing.T) {
	h := NewUserHandler(&mockUserService{createErr: service.ErrEmployeeIDExists})

	r := gin.New()
	r.POST("/users", withActor(asUser(1, model.RoleSystemAdmin), h.CreateUser))
	w := serve(r, "POST", "/users", jsonBody(dto.CreateUserRequest{EmployeeID: "E002", Password: "pw", Name: "王小明"}))

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != response.CodeConflict {
		t.Errorf("expected error code %d, got %d", response.CodeConflict, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// QuoteHandler Tests
// ═══════════════════════════════════════════════════════════

func TestQuoteHandler_Convert_Success(t *testing.T) {
	mock := &mockQuoteService{
		convertResult: &dto.ConvertQuoteResponse{
			Quote: dto.QuoteResponse{ID: 3, Status: model.QuoteStatusConverted},
			Order: dto.OrderResponse{ID: 9, Amount: "1400.00", Status: model.OrderStatusUnpaid},
		},
	}
	h := NewQuoteHandler(mock)

	r := gin.New()
	r.POST("/quotes/:id/convert", withActor(asUser(1, model.RoleSystemAdmin), h.ConvertQuote))
	w := serve(r, "POST", "/quotes/3/convert", nil)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if mock.convertID != 3 {
		t.Errorf("expected quote id 3, got %d", mock.convertID)
	}
}

func TestQuoteHandler_Convert_NotAccepted(t *testing.T) {
	h := NewQuoteHandler(&mockQuoteService{convertErr: service.ErrQuoteNotAccepted})

	r := gin.New()
	r.POST("/quotes/:id/convert", withActor(asUser(1, model.RoleSystemAdmin), h.ConvertQuote))
	w := serve(r, "POST", "/quotes/3/convert", nil)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != response.CodeInvalidState {
		t.Errorf("expected error code %d, got %d", response.CodeInvalidState, resp.Code)
	}
}

func TestQuoteHandler_ListConvertible(t *testing.T) {
	h := NewQuoteHandler(&mockQuoteService{})

	r := gin.New()
	r.GET("/quotes/convertible", withActor(asUser(2, model.RoleUser), h.ListConvertible))
	w := serve(r, "GET", "/quotes/convertible", nil)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_Export_Success(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "orders_20250701.xlsx"}
	h := NewExportHandler(mock)

	r := gin.New()
	r.GET("/export/:entity", withActor(asUser(2, model.RoleUser), h.Export))
	w := serve(r, "GET", "/export/orders", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.entity != service.ExportOrders {
		t.Errorf("expected entity orders, got %s", mock.entity)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "orders_20250701.xlsx") {
		t.Errorf("unexpected Content-Disposition: %s", cd)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected Content-Type: %s", ct)
	}
}

func TestExportHandler_Export_InvalidEntity(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportEntityInvalid})

	r := gin.New()
	r.GET("/export/:entity", withActor(asUser(2, model.RoleUser), h.Export))
	w := serve(r, "GET", "/export/users", nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ChatbotHandler Tests
// ═══════════════════════════════════════════════════════════

func TestChatbotHandler_SendMessage(t *testing.T) {
	mock := &mockChatbotService{}
	h := NewChatbotHandler(mock)

	r := gin.New()
	r.POST("/chatbot/messages", withActor(asUser(2, model.RoleUser), h.SendMessage))
	w := serve(r, "POST", "/chatbot/messages", jsonBody(dto.ChatRequest{Message: "有哪些客戶？"}))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.message != "有哪些客戶？" {
		t.Errorf("unexpected message: %s", mock.message)
	}
}

func TestChatbotHandler_SendMessage_Empty(t *testing.T) {
	h := NewChatbotHandler(&mockChatbotService{})

	r := gin.New()
	r.POST("/chatbot/messages", withActor(asUser(2, model.RoleUser), h.SendMessage))
	w := serve(r, "POST", "/chatbot/messages", jsonBody(map[string]string{}))

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestChatbotHandler_SendMessage_BodyTooLarge(t *testing.T) {
	h := NewChatbotHandler(&mockChatbotService{})

	r := gin.New()
	r.Use(middleware.BodyLimit(16))
	r.POST("/chatbot/messages", withActor(asUser(2, model.RoleUser), h.SendMessage))
	w := serve(r, "POST", "/chatbot/messages", jsonBody(dto.ChatRequest{Message: strings.Repeat("a", 64)}))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// Error mapping / Health
// ═══════════════════════════════════════════════════════════

func TestHandleError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"validation", service.ErrAmountNegative, http.StatusBadRequest, response.CodeBadRequest},
		{"not found", service.ErrCustomerNotFound, http.StatusNotFound, response.CodeNotFound},
		{"permission", pkgerrors.New(pkgerrors.ErrPermission, "no"), http.StatusForbidden, response.CodeForbidden},
		{"duplicate", service.ErrEmployeeIDExists, http.StatusConflict, response.CodeConflict},
		{"invalid state", service.ErrQuoteNotAccepted, http.StatusConflict, response.CodeInvalidState},
		{"external", pkgerrors.New(pkgerrors.ErrExternalService, "down"), http.StatusBadGateway, response.CodeExternalService},
		{"storage", pkgerrors.Storage(errors.New("boom")), http.StatusInternalServerError, response.CodeInternal},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, response.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", func(c *gin.Context) { handleError(c, tt.err) })
			w := serve(r, "GET", "/", nil)

			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("down") }

func TestHealthHandler_DatabaseDown(t *testing.T) {
	h := NewHealthHandler(downPinger{})

	r := gin.New()
	r.GET("/health", h.Check)
	w := serve(r, "GET", "/health", nil)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
