package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/zhipai/zhipai/internal/rules"
	"github.com/zhipai/zhipai/internal/tenant"
	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/preset"
)

// 预设路由前缀，单个预设以 /{code} 结尾
const presetsPathPrefix = "/api/v1/rules/presets"

// RulesHandler 规则参数目录与预设处理器
type RulesHandler struct {
	catalog *preset.Catalog
}

// NewRulesHandler 创建规则处理器
func NewRulesHandler(catalog *preset.Catalog) *RulesHandler {
	if catalog == nil {
		catalog = preset.NewCatalog()
	}
	return &RulesHandler{catalog: catalog}
}

// Library 返回全部规则参数的目录
// 前端按目录渲染规则编辑表单，无需硬编码字段
func (h *RulesHandler) Library(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	respondJSON(w, http.StatusOK, rules.LibraryResponse{Library: rules.GetLibrary()})
}

// PresetListResponse 预设列表响应
type PresetListResponse struct {
	Presets []preset.Preset `json:"presets"`
	Count   int             `json:"count"`
}

// Presets 返回预设目录；路径以 /{code} 结尾时返回单个预设
// 带 roster 查询参数时按名册人数放大单个预设的覆盖要求
func (h *RulesHandler) Presets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	t, hasTenant := tenant.FromContext(r.Context())
	code := strings.Trim(strings.TrimPrefix(r.URL.Path, presetsPathPrefix), "/")
	if code == "" {
		list := h.catalog.List()
		if hasTenant {
			visible := make([]preset.Preset, 0, len(list))
			for _, p := range list {
				if t.HasPreset(p.Code) {
					visible = append(visible, p)
				}
			}
			list = visible
		}
		respondJSON(w, http.StatusOK, PresetListResponse{Presets: list, Count: len(list)})
		return
	}
	if strings.Contains(code, "/") {
		respondError(w, errors.NotFound("预设", code))
		return
	}
	if hasTenant && !t.HasPreset(code) {
		respondError(w, errors.New(errors.CodeForbidden, "租户未开通预设 "+code))
		return
	}

	p, err := h.catalog.Get(code)
	if err != nil {
		respondError(w, toAppError(err, errors.CodeNotFound, "预设不存在"))
		return
	}
	if roster := r.URL.Query().Get("roster"); roster != "" {
		n, convErr := strconv.Atoi(roster)
		if convErr != nil || n <= 0 {
			respondError(w, errors.New(errors.CodeInvalidInput, "roster 参数必须是正整数"))
			return
		}
		scaled, scaleErr := h.catalog.SuggestCoverage(code, n)
		if scaleErr != nil {
			respondError(w, toAppError(scaleErr, errors.CodeInternal, "计算建议覆盖失败"))
			return
		}
		p.Rules = *scaled
	}
	respondJSON(w, http.StatusOK, p)
}
