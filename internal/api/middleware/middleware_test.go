package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KHMER0/sale-system/config"
	"github.com/KHMER0/sale-system/internal/authz"
	"github.com/KHMER0/sale-system/internal/model"
	"github.com/KHMER0/sale-system/internal/service"
	pkgerrors "github.com/KHMER0/sale-system/pkg/errors"
	"github.com/KHMER0/sale-system/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── Mock ──

type fakeAuthenticator struct {
	actor authz.Actor
	err   error
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (authz.Actor, *jwt.Claims, error) {
	if f.err != nil {
		return authz.Actor{}, nil, f.err
	}
	return f.actor, &jwt.Claims{UserID: f.actor.ID, TokenType: jwt.TokenTypeAccess}, nil
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allowed, f.err
}

func doRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

// ── JWTAuth ──

func TestJWTAuth_MissingHeader(t *testing.T) {
	r := gin.New()
	r.GET("/", JWTAuth(&fakeAuthenticator{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doRequest(r, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_InjectsActor(t *testing.T) {
	auth := &fakeAuthenticator{actor: authz.Actor{ID: 4, Role: model.RoleAdministrator}}

	var got authz.Actor
	r := gin.New()
	r.GET("/", JWTAuth(auth), func(c *gin.Context) {
		got = c.MustGet(ActorKey).(authz.Actor)
		c.Status(http.StatusOK)
	})

	w := doRequest(r, "Bearer token")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.ID != 4 || got.Role != model.RoleAdministrator {
		t.Errorf("unexpected actor: %+v", got)
	}
}

func TestJWTAuth_RevokedToken(t *testing.T) {
	r := gin.New()
	r.GET("/", JWTAuth(&fakeAuthenticator{err: service.ErrTokenRevoked}), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doRequest(r, "Bearer token"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_StorageFailure(t *testing.T) {
	r := gin.New()
	r.GET("/", JWTAuth(&fakeAuthenticator{err: pkgerrors.Storage(errors.New("db down"))}), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doRequest(r, "Bearer token"); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

// ── RoleAuth ──

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{model.RoleUser, http.StatusForbidden},
		{model.RoleAdministrator, http.StatusOK},
		{model.RoleSystemAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			auth := &fakeAuthenticator{actor: authz.Actor{ID: 2, Role: tt.role}}
			r := gin.New()
			r.GET("/", JWTAuth(auth), RoleAuth(model.RoleAdministrator, model.RoleSystemAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			if w := doRequest(r, "Bearer token"); w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

// ── RateLimit ──

func TestRateLimit_Rejects(t *testing.T) {
	limiter := &fakeLimiter{allowed: false}
	cfg := config.RateLimitConfig{Requests: 1, Window: time.Minute}

	r := gin.New()
	r.GET("/", RateLimit(limiter, "login", cfg, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(r, "")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", w.Code)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "rate_limit:login:ip:192.0.2.1" {
		t.Errorf("unexpected keys: %v", limiter.keys)
	}
}

func TestRateLimit_KeysByUser(t *testing.T) {
	limiter := &fakeLimiter{allowed: true}
	cfg := config.RateLimitConfig{Requests: 5, Window: time.Minute}
	auth := &fakeAuthenticator{actor: authz.Actor{ID: 9, Role: model.RoleUser}}

	r := gin.New()
	r.GET("/", JWTAuth(auth), RateLimit(limiter, "chatbot", cfg, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doRequest(r, "Bearer token"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "rate_limit:chatbot:user:9" {
		t.Errorf("unexpected keys: %v", limiter.keys)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	cfg := config.RateLimitConfig{Requests: 1, Window: time.Minute}

	r := gin.New()
	r.GET("/", RateLimit(limiter, "login", cfg, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doRequest(r, ""); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ── RequestID ──

func TestRequestID_KeepsIncoming(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected abc-123, got %s", got)
	}
}
