package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/internal/rules"
	"github.com/zhipai/zhipai/internal/tenant"
	"github.com/zhipai/zhipai/pkg/preset"
)

func TestRulesHandler_Library(t *testing.T) {
	h := NewRulesHandler(nil)
	w := getPath(t, h.Library, "/api/v1/rules/library", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp rules.LibraryResponse
	decodeBody(t, w, &resp)
	if len(resp.Library) != 14 {
		t.Errorf("library params = %d, want 14", len(resp.Library))
	}

	byName := make(map[string]rules.RuleParam, len(resp.Library))
	for _, p := range resp.Library {
		if p.Name == "" || p.Type == "" || p.Category == "" || p.Description == "" {
			t.Errorf("param %+v missing required fields", p)
		}
		byName[p.Name] = p
	}
	if p, ok := byName["max_consecutive_nights"]; !ok {
		t.Error("library should contain max_consecutive_nights")
	} else if p.Default != "3" {
		t.Errorf("max_consecutive_nights default = %s, want 3", p.Default)
	}
	if p, ok := byName["min_shifts_per_week"]; !ok || !p.Reserved {
		t.Error("min_shifts_per_week should be marked reserved")
	}
	if p, ok := byName["preferred_shift_rotation"]; !ok || len(p.Enum) != 3 {
		t.Error("preferred_shift_rotation should list 3 enum values")
	}
}

func TestRulesHandler_Library_MethodNotAllowed(t *testing.T) {
	h := NewRulesHandler(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rules/library", nil)
	w := httptest.NewRecorder()
	h.Library(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRulesHandler_Presets_List(t *testing.T) {
	h := NewRulesHandler(nil)
	w := getPath(t, h.Presets, "/api/v1/rules/presets", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp PresetListResponse
	decodeBody(t, w, &resp)
	if resp.Count != 4 {
		t.Fatalf("Count = %d, want 4", resp.Count)
	}
	// 列表按代码排序
	wantOrder := []string{
		preset.CodeFactoryThreeShift,
		preset.CodeHospitalWard,
		preset.CodeRetailStore,
		preset.CodeSecurityDesk,
	}
	for i, code := range wantOrder {
		if resp.Presets[i].Code != code {
			t.Errorf("presets[%d].Code = %s, want %s", i, resp.Presets[i].Code, code)
		}
	}
}

func TestRulesHandler_Presets_Get(t *testing.T) {
	h := NewRulesHandler(nil)
	w := getPath(t, h.Presets, "/api/v1/rules/presets/factory_three_shift", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var p preset.Preset
	decodeBody(t, w, &p)
	if p.Name != "三班倒工厂" {
		t.Errorf("Name = %s, want 三班倒工厂", p.Name)
	}
	if p.MinRoster != 9 {
		t.Errorf("MinRoster = %d, want 9", p.MinRoster)
	}
	if len(p.Templates) != 3 {
		t.Errorf("templates = %d, want 3", len(p.Templates))
	}
	if p.Rules.NightCoverage != 2 || p.Rules.MaxConsecutiveNights != 2 {
		t.Errorf("rules = %+v, want night coverage 2 and max nights 2", p.Rules)
	}
}

func TestRulesHandler_Presets_Unknown(t *testing.T) {
	h := NewRulesHandler(nil)

	w := getPath(t, h.Presets, "/api/v1/rules/presets/night_market", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (body=%s)", w.Code, w.Body.String())
	}
	assertErrorCode(t, w, "NOT_FOUND")

	// 多级路径不是合法预设代码
	w = getPath(t, h.Presets, "/api/v1/rules/presets/factory_three_shift/extra", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestRulesHandler_Presets_RosterScaling(t *testing.T) {
	h := NewRulesHandler(nil)

	tests := []struct {
		name      string
		query     string
		wantDay   int
		wantNight int
	}{
		{"名册不足时保持基线", "?roster=3", 1, 1},
		{"两倍名册覆盖翻倍", "?roster=8", 2, 2},
		{"倍率封顶", "?roster=100", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := getPath(t, h.Presets, "/api/v1/rules/presets/security_desk"+tt.query, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
			}
			var p preset.Preset
			decodeBody(t, w, &p)
			if p.Rules.DayCoverage != tt.wantDay {
				t.Errorf("DayCoverage = %d, want %d", p.Rules.DayCoverage, tt.wantDay)
			}
			if p.Rules.NightCoverage != tt.wantNight {
				t.Errorf("NightCoverage = %d, want %d", p.Rules.NightCoverage, tt.wantNight)
			}
		})
	}
}

func TestRulesHandler_Presets_BadRoster(t *testing.T) {
	h := NewRulesHandler(nil)
	for _, query := range []string{"?roster=abc", "?roster=0", "?roster=-2"} {
		w := getPath(t, h.Presets, "/api/v1/rules/presets/security_desk"+query, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("query %s: status = %d, want 400", query, w.Code)
		}
	}
}

func TestRulesHandler_Presets_TenantFilter(t *testing.T) {
	h := NewRulesHandler(nil)
	ctx := tenant.WithTenant(context.Background(), &tenant.Tenant{
		ID:       uuid.New(),
		Code:     "guard-co",
		Status:   "active",
		Settings: tenant.Settings{AllowedPresets: []string{preset.CodeSecurityDesk}},
	})

	w := getPath(t, h.Presets, "/api/v1/rules/presets", ctx)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}
	var resp PresetListResponse
	decodeBody(t, w, &resp)
	if resp.Count != 1 || resp.Presets[0].Code != preset.CodeSecurityDesk {
		t.Errorf("filtered list = %+v, want only security_desk", resp.Presets)
	}

	w = getPath(t, h.Presets, "/api/v1/rules/presets/factory_three_shift", ctx)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 (body=%s)", w.Code, w.Body.String())
	}
	assertErrorCode(t, w, "FORBIDDEN")
}

// getPath 以 GET 请求调用处理器，ctx 非空时注入请求上下文
func getPath(t *testing.T, h http.HandlerFunc, path string, ctx context.Context) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if ctx != nil {
		req = req.WithContext(ctx)
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}
