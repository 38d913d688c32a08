package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/zhipai/zhipai/internal/metrics"
	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/stats"
)

// StatsHandler 统计分析处理器
type StatsHandler struct {
	store    *Store
	fairness *stats.FairnessAnalyzer
	coverage *stats.CoverageAnalyzer
}

// NewStatsHandler 创建统计分析处理器
func NewStatsHandler(store *Store) *StatsHandler {
	return &StatsHandler{
		store:    store,
		fairness: stats.NewFairnessAnalyzer(),
		coverage: stats.NewCoverageAnalyzer(),
	}
}

// FairnessRequest 公平性分析请求
// 数据库模式下可省略内联数据，按组织和日期范围加载
type FairnessRequest struct {
	OrgID       string                 `json:"org_id,omitempty"`
	StartDate   string                 `json:"start_date,omitempty"`
	EndDate     string                 `json:"end_date,omitempty"`
	Assignments []*model.Assignment    `json:"assignments,omitempty"`
	Employees   []*model.Employee      `json:"employees,omitempty"`
	History     []model.HistoricalStat `json:"history,omitempty"`
}

// FairnessResponse 公平性分析响应
type FairnessResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.FairnessMetrics `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Fairness 分析一份排班的负载公平性
func (h *StatsHandler) Fairness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req FairnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	ctx := r.Context()
	assignments := req.Assignments
	employees := req.Employees
	history := req.History
	var err error
	if len(assignments) == 0 && h.store != nil {
		orgID, appErr := parseStatsScope(req.OrgID, req.StartDate, req.EndDate)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
		if assignments, err = h.store.Assignments.ListByOrgDateRange(ctx, orgID, req.StartDate, req.EndDate); err != nil {
			respondError(w, toAppError(err, errors.CodeInternal, "加载排班记录失败"))
			return
		}
		if len(employees) == 0 {
			if employees, err = h.store.Employees.ListActive(ctx, orgID); err != nil {
				respondError(w, toAppError(err, errors.CodeInternal, "加载员工名册失败"))
				return
			}
		}
		if history == nil {
			if history, err = h.store.History.ListByOrg(ctx, orgID); err != nil {
				respondError(w, toAppError(err, errors.CodeInternal, "加载历史统计失败"))
				return
			}
		}
	}

	data := h.fairness.Analyze(assignments, employees, model.HistoricalByEmployee(history))
	if req.OrgID != "" {
		metrics.SetFairnessGini(req.OrgID, "load", data.LoadGini)
		metrics.SetFairnessGini(req.OrgID, "night", data.NightGini)
		metrics.SetFairnessGini(req.OrgID, "cumulative", data.CumulativeGini)
	}

	respondJSON(w, http.StatusOK, FairnessResponse{Success: true, Data: data})
}

// CoverageRequest 覆盖率分析请求
type CoverageRequest struct {
	OrgID       string                `json:"org_id,omitempty"`
	StartDate   string                `json:"start_date"`
	EndDate     string                `json:"end_date"`
	Rules       *model.Rules          `json:"rules,omitempty"`
	Holidays    []model.HolidayRecord `json:"holidays,omitempty"`
	Assignments []*model.Assignment   `json:"assignments,omitempty"`
}

// CoverageResponse 覆盖率分析响应
type CoverageResponse struct {
	Success bool                   `json:"success"`
	Data    *stats.CoverageMetrics `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Coverage 分析一份排班对覆盖要求的满足程度
// 周期由日期范围和规则推导，与生成接口同一套日历口径
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req CoverageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		respondError(w, errors.New(errors.CodeInvalidInput, "必须指定日期范围"))
		return
	}

	ctx := r.Context()
	assignments := req.Assignments
	holidays := req.Holidays
	var err error
	if h.store != nil {
		var orgID uuid.UUID
		if req.OrgID != "" {
			if orgID, err = uuid.Parse(req.OrgID); err != nil {
				respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式"))
				return
			}
		}
		if len(assignments) == 0 && orgID != uuid.Nil {
			if assignments, err = h.store.Assignments.ListByOrgDateRange(ctx, orgID, req.StartDate, req.EndDate); err != nil {
				respondError(w, toAppError(err, errors.CodeInternal, "加载排班记录失败"))
				return
			}
		}
		if holidays == nil {
			if holidays, err = h.store.Holidays.ListInRange(ctx, req.StartDate, req.EndDate, ""); err != nil {
				respondError(w, toAppError(err, errors.CodeInternal, "加载节假日失败"))
				return
			}
		}
	}

	rules := req.Rules
	if rules == nil {
		defaults := model.DefaultRules()
		rules = &defaults
	}
	if err := rules.Validate(); err != nil {
		respondError(w, toAppError(err, errors.CodeInvalidInput, "排班规则无效"))
		return
	}

	period, err := model.BuildPeriod(req.StartDate, req.EndDate, rules, holidays)
	if err != nil {
		respondError(w, toAppError(err, errors.CodeInvalidInput, "构建排班周期失败"))
		return
	}

	data := h.coverage.Analyze(period, rules, assignments)
	if req.OrgID != "" {
		metrics.SetCoverageRate(req.OrgID, data.OverallRate)
	}

	respondJSON(w, http.StatusOK, CoverageResponse{Success: true, Data: data})
}

// parseStatsScope 数据库模式下按组织和日期范围统计时的参数校验
func parseStatsScope(orgID, startDate, endDate string) (uuid.UUID, *errors.AppError) {
	ve := &errors.ValidationErrors{}
	if orgID == "" {
		ve.Add("org_id", "未内联排班时必须指定组织ID")
	}
	if startDate == "" || endDate == "" {
		ve.Add("start_date", "未内联排班时必须指定日期范围")
	}
	if ve.HasErrors() {
		return uuid.Nil, ve.ToAppError()
	}
	id, err := uuid.Parse(orgID)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式")
	}
	return id, nil
}
