package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/internal/tenant"
)

func TestRateLimiter_Allow(t *testing.T) {
	limiter := NewRateLimiter(5, time.Second)

	// 前5次应该允许
	for i := 0; i < 5; i++ {
		if !limiter.Allow("client1") {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	// 第6次应该拒绝
	if limiter.Allow("client1") {
		t.Error("Request 6 should be denied")
	}

	// 不同客户端应该允许
	if !limiter.Allow("client2") {
		t.Error("Different client should be allowed")
	}
}

func TestRateLimiter_AllowLimit(t *testing.T) {
	limiter := NewRateLimiter(100, time.Second)

	// 按指定上限限流
	if !limiter.AllowLimit("tight", 2) {
		t.Error("Request 1 should be allowed")
	}
	if !limiter.AllowLimit("tight", 2) {
		t.Error("Request 2 should be allowed")
	}
	if limiter.AllowLimit("tight", 2) {
		t.Error("Request 3 should be denied")
	}

	// 上限为0时退回默认上限
	for i := 0; i < 10; i++ {
		if !limiter.AllowLimit("loose", 0) {
			t.Errorf("Request %d should fall back to default limit", i+1)
		}
	}
}

func TestTenantMiddleware(t *testing.T) {
	registry := tenant.NewRegistry()
	registry.Register(tenant.CreateDefaultTenant())
	registry.Register(&tenant.Tenant{
		ID:       uuid.New(),
		Code:     "factory-east",
		Status:   "active",
		Settings: tenant.DefaultSettings(),
	})
	registry.Register(&tenant.Tenant{
		ID:     uuid.New(),
		Code:   "frozen",
		Status: "suspended",
	})

	var seenCode string
	handler := TenantMiddleware(&TenantConfig{
		Registry:  registry,
		SkipPaths: []string{"/health"},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tn, ok := tenant.FromContext(r.Context()); ok {
			seenCode = tn.Code
		} else {
			seenCode = ""
		}
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"缺省走default租户", "", "/api/v1/schedule/generate", http.StatusOK, "default"},
		{"按请求头解析租户", "factory-east", "/api/v1/schedule/generate", http.StatusOK, "factory-east"},
		{"未知租户拒绝", "nobody", "/api/v1/schedule/generate", http.StatusForbidden, ""},
		{"禁用租户拒绝", "frozen", "/api/v1/schedule/generate", http.StatusForbidden, ""},
		{"跳过路径不解析租户", "nobody", "/health", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenCode = ""
			req := httptest.NewRequest("POST", tt.path, nil)
			if tt.header != "" {
				req.Header.Set("X-Tenant-Code", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Status = %d, expected %d", rec.Code, tt.wantStatus)
			}
			if seenCode != tt.wantCode {
				t.Errorf("Tenant code = %q, expected %q", seenCode, tt.wantCode)
			}
			if tt.wantStatus == http.StatusOK && tt.path != "/health" && rec.Header().Get("X-Tenant-ID") == "" {
				t.Error("Expected X-Tenant-ID header to be set")
			}
		})
	}
}

func TestTenantMiddleware_RateLimit(t *testing.T) {
	registry := tenant.NewRegistry()
	settings := tenant.DefaultSettings()
	settings.APIRateLimit = 2
	registry.Register(&tenant.Tenant{
		ID:       uuid.New(),
		Code:     "default",
		Status:   "active",
		Settings: settings,
	})

	handler := TenantMiddleware(&TenantConfig{
		Registry:        registry,
		RateLimiter:     NewRateLimiter(100, time.Minute),
		EnableRateLimit: true,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/v1/schedule/generate", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("First two requests should pass, got %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("Third request should be rate limited, got %d", statuses[2])
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var ctxID string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// 自动生成请求ID
	req := httptest.NewRequest("GET", "/api/v1/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	generated := rec.Header().Get("X-Request-ID")
	if generated == "" {
		t.Error("Expected generated X-Request-ID header")
	}
	if !strings.HasPrefix(generated, "req_") {
		t.Errorf("Generated request ID should have req_ prefix, got %q", generated)
	}
	if ctxID != generated {
		t.Errorf("Context request ID = %q, expected %q", ctxID, generated)
	}

	// 保留调用方提供的请求ID
	req = httptest.NewRequest("GET", "/api/v1/", nil)
	req.Header.Set("X-Request-ID", "req_custom")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req_custom" {
		t.Errorf("Expected caller request ID to be preserved, got %q", got)
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"https://app.example.com"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	// 允许的来源
	req := httptest.NewRequest("POST", "/api/v1/schedule/generate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Allow-Origin = %q, expected allowed origin", got)
	}

	// 不允许的来源
	req = httptest.NewRequest("POST", "/api/v1/schedule/generate", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Disallowed origin should get no CORS header, got %q", got)
	}

	// 预检请求直接返回204
	req = httptest.NewRequest(http.MethodOptions, "/api/v1/schedule/generate", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Preflight status = %d, expected 204", rec.Code)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/api/v1/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, expected 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("Body should carry error code, got %q", rec.Body.String())
	}
}
