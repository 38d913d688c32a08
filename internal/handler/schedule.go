// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/zhipai/zhipai/internal/config"
	"github.com/zhipai/zhipai/internal/metrics"
	"github.com/zhipai/zhipai/internal/tenant"
	"github.com/zhipai/zhipai/pkg/edit"
	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/preset"
	"github.com/zhipai/zhipai/pkg/scheduler/generator"
	"github.com/zhipai/zhipai/pkg/scheduler/optimizer"
	"github.com/zhipai/zhipai/pkg/swap"
	"github.com/zhipai/zhipai/pkg/validator"
)

// 配置未指定时的排班周期上限（天）
const maxPeriodDays = 92

// 预览接口的候选方案数上限
const maxPreviewRuns = 20

// ScheduleHandler 排班处理器
// 生成器按请求创建（运行期间有内部状态），其余引擎组件无状态、可跨请求共享
type ScheduleHandler struct {
	engine  config.EngineConfig
	presets *preset.Catalog
	store   *Store
	edits   *edit.Engine
	moves   *validator.MoveValidator
	swaps   *swap.Suggester
	log     *logger.SchedulerLogger
}

// NewScheduleHandler 创建排班处理器
// store 为 nil 时以纯引擎模式运行，所有数据段必须内联在请求里
func NewScheduleHandler(engine config.EngineConfig, presets *preset.Catalog, store *Store) *ScheduleHandler {
	if presets == nil {
		presets = preset.NewCatalog()
	}
	return &ScheduleHandler{
		engine:  engine,
		presets: presets,
		store:   store,
		edits:   edit.NewEngine(),
		moves:   validator.NewMoveValidator(),
		swaps:   swap.NewSuggester(),
		log:     logger.NewSchedulerLogger(),
	}
}

// GenerateRequest 排班生成请求
// 数据库模式下省略的数据段按组织自动补全，内联数据始终优先
type GenerateRequest struct {
	OrgID     string                 `json:"org_id"`
	StartDate string                 `json:"start_date"`
	EndDate   string                 `json:"end_date"`
	Preset    string                 `json:"preset,omitempty"` // 预设代码，代替内联规则与模板
	Rules     *model.Rules           `json:"rules,omitempty"`
	Employees []*model.Employee      `json:"employees,omitempty"`
	Templates []*model.ShiftTemplate `json:"templates,omitempty"`
	Holidays  []model.HolidayRecord  `json:"holidays,omitempty"`
	History   []model.HistoricalStat `json:"history,omitempty"`
	PrevWeek  model.WeekStats        `json:"prev_week,omitempty"`
	Options   *GenerateOptions       `json:"options,omitempty"`
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	TimeoutSeconds int  `json:"timeout_seconds,omitempty"`
	Runs           int  `json:"runs,omitempty"`    // 仅预览接口使用
	Persist        bool `json:"persist,omitempty"` // 入库保存，需启用数据库
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success     bool               `json:"success"`
	RunID       string             `json:"run_id"`
	OrgID       string             `json:"org_id"`
	StartDate   string             `json:"start_date"`
	EndDate     string             `json:"end_date"`
	Assignments []AssignmentOutput `json:"assignments"`
	Uncovered   []generator.Slot   `json:"uncovered,omitempty"`
	Stats       generator.Stats    `json:"stats"`
	Score       float64            `json:"score"`
	Duration    string             `json:"duration"`
	Persisted   bool               `json:"persisted,omitempty"`
}

// AssignmentOutput 排班分配输出
type AssignmentOutput struct {
	ID                 string  `json:"id"`
	EmployeeID         string  `json:"employee_id"`
	EmployeeName       string  `json:"employee_name,omitempty"`
	TemplateID         string  `json:"template_id"`
	TemplateName       string  `json:"template_name,omitempty"`
	Date               string  `json:"date"`
	ShiftType          string  `json:"shift_type"`
	StartTime          string  `json:"start_time"` // HH:MM
	EndTime            string  `json:"end_time"`   // HH:MM
	Overnight          bool    `json:"overnight,omitempty"`
	Hours              float64 `json:"hours"`
	Status             string  `json:"status"`
	IsReplacement      bool    `json:"is_replacement,omitempty"`
	OriginalEmployeeID string  `json:"original_employee_id,omitempty"`
	Notes              string  `json:"notes,omitempty"`
}

// Generate 处理排班生成请求
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if err := h.validateGenerateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout(req.Options))
	defer cancel()

	genReq, appErr := h.buildGenerateInput(ctx, &req)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	started := time.Now()
	result, err := generator.NewGenerator().Generate(genReq)
	metrics.RecordGeneration("generate", err == nil, time.Since(started))
	if err != nil {
		respondError(w, toAppError(err, errors.CodeInternal, "排班生成失败"))
		return
	}
	metrics.SetUncoveredSlots(req.OrgID, result.Stats.Uncovered)

	persisted := false
	if req.Options != nil && req.Options.Persist {
		runID, parseErr := uuid.Parse(result.RunID)
		if parseErr != nil {
			respondError(w, errors.Wrap(parseErr, errors.CodeInternal, "无效的运行ID"))
			return
		}
		if err := h.store.Assignments.CreateBatch(ctx, runID, result.Assignments); err != nil {
			respondError(w, toAppError(err, errors.CodeInternal, "保存排班结果失败"))
			return
		}
		persisted = true
	}

	respondJSON(w, http.StatusOK, GenerateResponse{
		Success:     true,
		RunID:       result.RunID,
		OrgID:       req.OrgID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Assignments: buildAssignmentOutputs(result.Assignments, genReq.Employees, genReq.Templates),
		Uncovered:   result.Uncovered,
		Stats:       result.Stats,
		Score:       result.Score,
		Duration:    result.Duration.String(),
		Persisted:   persisted,
	})
}

// PreviewResponse 方案预览响应
type PreviewResponse struct {
	Success    bool                 `json:"success"`
	OrgID      string               `json:"org_id"`
	Runs       int                  `json:"runs"`
	Best       *BestCandidateOutput `json:"best"`
	Candidates []CandidateSummary   `json:"candidates"`
	Duration   string               `json:"duration"`
}

// BestCandidateOutput 最优候选方案，含完整排班
type BestCandidateOutput struct {
	Index       int                `json:"index"`
	RunID       string             `json:"run_id"`
	Score       float64            `json:"score"`
	Uncovered   int                `json:"uncovered"`
	Spread      int                `json:"spread"`
	NightGini   float64            `json:"night_gini"`
	Stats       generator.Stats    `json:"stats"`
	Assignments []AssignmentOutput `json:"assignments"`
}

// CandidateSummary 候选方案摘要，不含排班明细
type CandidateSummary struct {
	Index     int     `json:"index"`
	RunID     string  `json:"run_id,omitempty"`
	Score     float64 `json:"score"`
	Uncovered int     `json:"uncovered"`
	Spread    int     `json:"spread"`
	NightGini float64 `json:"night_gini"`
	Failed    bool    `json:"failed,omitempty"`
}

// Preview 并行生成多个候选方案并返回最优解
// 请求格式与生成接口一致，options.runs 控制候选数量
func (h *ScheduleHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Options != nil && req.Options.Persist {
		respondError(w, errors.New(errors.CodeInvalidInput, "预览接口不支持入库保存"))
		return
	}
	if err := h.validateGenerateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout(req.Options))
	defer cancel()

	genReq, appErr := h.buildGenerateInput(ctx, &req)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	cfg := optimizer.DefaultConfig()
	if h.engine.PreviewRuns > 0 {
		cfg.Runs = h.engine.PreviewRuns
	}
	if h.engine.PreviewWorkers > 0 {
		cfg.Workers = h.engine.PreviewWorkers
	}
	if req.Options != nil && req.Options.Runs > 0 {
		cfg.Runs = req.Options.Runs
		if cfg.Runs > maxPreviewRuns {
			cfg.Runs = maxPreviewRuns
		}
	}

	started := time.Now()
	selection, err := optimizer.NewRunner(cfg).Run(ctx, genReq)
	metrics.RecordGeneration("preview", err == nil, time.Since(started))
	if err != nil {
		if err == context.DeadlineExceeded {
			respondError(w, errors.New(errors.CodeTimeout, "方案预览超时，请减少候选数量或缩短排班周期"))
			return
		}
		respondError(w, toAppError(err, errors.CodeInternal, "方案预览失败"))
		return
	}

	resp := PreviewResponse{
		Success:    true,
		OrgID:      req.OrgID,
		Runs:       selection.Runs,
		Candidates: make([]CandidateSummary, 0, len(selection.Candidates)),
		Duration:   selection.Duration.String(),
	}
	for _, c := range selection.Candidates {
		summary := CandidateSummary{
			Index:     c.Index,
			Score:     c.Score,
			Uncovered: c.Uncovered,
			Spread:    c.Spread,
			NightGini: c.NightGini,
			Failed:    c.Err != nil,
		}
		if c.Result != nil {
			summary.RunID = c.Result.RunID
		}
		resp.Candidates = append(resp.Candidates, summary)
	}
	if best := selection.Best; best != nil && best.Result != nil {
		metrics.SetPreviewBestScore(req.OrgID, best.Score)
		metrics.SetUncoveredSlots(req.OrgID, best.Uncovered)
		resp.Best = &BestCandidateOutput{
			Index:       best.Index,
			RunID:       best.Result.RunID,
			Score:       best.Score,
			Uncovered:   best.Uncovered,
			Spread:      best.Spread,
			NightGini:   best.NightGini,
			Stats:       best.Result.Stats,
			Assignments: buildAssignmentOutputs(best.Result.Assignments, genReq.Employees, genReq.Templates),
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// ValidateMoveRequest 移动预检请求
type ValidateMoveRequest struct {
	Action         string                `json:"action,omitempty"` // move（默认）或 reassign
	Assignment     *model.Assignment     `json:"assignment"`
	TargetDate     string                `json:"target_date,omitempty"`
	TargetEmployee string                `json:"target_employee,omitempty"`
	Leaves         []model.LeaveRecord   `json:"leaves,omitempty"`
	Holidays       []model.HolidayRecord `json:"holidays,omitempty"`
}

// ValidateMove 预检一次移动或改派是否会被拒绝
// 只做请假与节假日校验，不改动任何数据
func (h *ScheduleHandler) ValidateMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Action == "" {
		req.Action = string(edit.ActionMove)
	}

	targetEmployee, appErr := validateEditTarget(req.Action, req.Assignment, req.TargetDate, req.TargetEmployee)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	from, to := dateWindow(req.Assignment.Date, req.TargetDate)
	leaves, holidays, appErr := h.resolveCalendars(r.Context(), req.Assignment.OrgID, from, to, req.Leaves, req.Holidays)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	var verdict validator.Verdict
	if edit.Action(req.Action) == edit.ActionMove {
		verdict = h.moves.ValidateMove(req.Assignment, req.TargetDate, leaves, holidays)
	} else {
		verdict = h.moves.ValidateReassign(req.Assignment, targetEmployee, leaves, holidays)
	}
	respondJSON(w, http.StatusOK, verdict)
}

// ReplacementRequest 替班候选查询请求
type ReplacementRequest struct {
	Assignment  *model.Assignment   `json:"assignment"`
	Roster      []*model.Employee   `json:"roster,omitempty"`
	Schedule    []*model.Assignment `json:"schedule,omitempty"`
	Leaves      []model.LeaveRecord `json:"leaves,omitempty"`
	MaxResults  int                 `json:"max_results,omitempty"`
	AutoReplace bool                `json:"auto_replace,omitempty"`
}

// EmployeeOutput 员工输出
type EmployeeOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// ReplacementResponse 替班候选查询响应
type ReplacementResponse struct {
	Success     bool              `json:"success"`
	Candidates  []EmployeeOutput  `json:"candidates"`
	Count       int               `json:"count"`
	Replacement *AssignmentOutput `json:"replacement,omitempty"`
}

// Replacements 查询某条排班的替班候选人
// 候选按名册顺序返回，不做优劣排序；auto_replace 直接生成替班记录但不入库
func (h *ScheduleHandler) Replacements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ReplacementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if appErr := validateAssignment(req.Assignment); appErr != nil {
		respondError(w, appErr)
		return
	}

	ctx := r.Context()
	roster := req.Roster
	schedule := req.Schedule
	leaveRecords := req.Leaves
	var err error
	if h.store != nil {
		if len(roster) == 0 {
			if roster, err = h.store.Employees.ListActive(ctx, req.Assignment.OrgID); err != nil {
				respondError(w, toAppError(err, errors.CodeInternal, "加载员工名册失败"))
				return
			}
		}
		if schedule == nil {
			from, to := dateAdd(req.Assignment.Date, -1), dateAdd(req.Assignment.Date, 1)
			if schedule, err = h.store.Assignments.ListByOrgDateRange(ctx, req.Assignment.OrgID, from, to); err != nil {
				respondError(w, toAppError(err, errors.CodeInternal, "加载排班记录失败"))
				return
			}
		}
		if leaveRecords == nil {
			if leaveRecords, err = h.store.Leaves.ListApprovedInRange(ctx, req.Assignment.OrgID, req.Assignment.Date, req.Assignment.Date); err != nil {
				respondError(w, toAppError(err, errors.CodeInternal, "加载请假记录失败"))
				return
			}
		}
	}
	leaves := model.LeavesByDate(model.ApprovedLeaves(leaveRecords))

	suggester := h.swaps
	if req.MaxResults > 0 {
		suggester = swap.NewSuggesterWithLimit(req.MaxResults)
	}
	candidates := suggester.Suggest(req.Assignment, roster, schedule, leaves)
	h.log.ReplacementQuery(req.Assignment.ID.String(), len(candidates))

	resp := ReplacementResponse{
		Success:    true,
		Candidates: make([]EmployeeOutput, 0, len(candidates)),
		Count:      len(candidates),
	}
	for _, c := range candidates {
		resp.Candidates = append(resp.Candidates, EmployeeOutput{
			ID:   c.ID.String(),
			Name: c.Name,
			Code: c.Code,
		})
	}
	if req.AutoReplace && len(candidates) > 0 {
		if replacement := suggester.AutoReplace(req.Assignment, roster, schedule, leaves); replacement != nil {
			out := assignmentOutput(replacement, candidates[0].Name, "")
			resp.Replacement = &out
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

// EditRequest 排班编辑请求
type EditRequest struct {
	Action         string                `json:"action"` // move 或 reassign
	AssignmentID   string                `json:"assignment_id,omitempty"` // 数据库模式下按ID加载
	Assignment     *model.Assignment     `json:"assignment,omitempty"`
	TargetDate     string                `json:"target_date,omitempty"`
	TargetEmployee string                `json:"target_employee,omitempty"`
	Schedule       []*model.Assignment   `json:"schedule,omitempty"`
	Leaves         []model.LeaveRecord   `json:"leaves,omitempty"`
	Holidays       []model.HolidayRecord `json:"holidays,omitempty"`
	OverrideReason string                `json:"override_reason,omitempty"`
	Persist        bool                  `json:"persist,omitempty"`
}

// Edit 对单条排班执行移动或改派
// 冲突校验先行，已发布排班需提供覆盖说明；拒绝时HTTP状态随错误码
func (h *ScheduleHandler) Edit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if req.Persist && h.store == nil {
		respondError(w, errors.New(errors.CodeInvalidInput, "数据库未启用，无法保存编辑结果"))
		return
	}

	ctx := r.Context()
	assignment := req.Assignment
	if assignment == nil && req.AssignmentID != "" && h.store != nil {
		id, err := uuid.Parse(req.AssignmentID)
		if err != nil {
			respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "无效的排班ID格式"))
			return
		}
		loaded, err := h.store.Assignments.GetByID(ctx, id)
		if err != nil {
			respondError(w, toAppError(err, errors.CodeInternal, "加载排班记录失败"))
			return
		}
		if loaded == nil {
			respondError(w, errors.NotFound("排班记录", req.AssignmentID))
			return
		}
		assignment = loaded
	}

	targetEmployee, appErr := validateEditTarget(req.Action, assignment, req.TargetDate, req.TargetEmployee)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	from, to := dateWindow(assignment.Date, req.TargetDate)
	// 休息间隔检查涉及相邻日期，窗口各向外扩一天
	from, to = dateAdd(from, -1), dateAdd(to, 1)

	schedule := req.Schedule
	var err error
	if schedule == nil && h.store != nil {
		if schedule, err = h.store.Assignments.ListByOrgDateRange(ctx, assignment.OrgID, from, to); err != nil {
			respondError(w, toAppError(err, errors.CodeInternal, "加载排班记录失败"))
			return
		}
	}
	leaves, holidays, appErr := h.resolveCalendars(ctx, assignment.OrgID, from, to, req.Leaves, req.Holidays)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	resp := h.edits.Apply(&edit.Request{
		Assignment:     assignment,
		Action:         edit.Action(req.Action),
		TargetDate:     req.TargetDate,
		TargetEmployee: targetEmployee,
		Schedule:       schedule,
		Leaves:         leaves,
		Holidays:       holidays,
		OverrideReason: req.OverrideReason,
	})

	decision := "rejected"
	if resp.Success {
		decision = "applied"
		if resp.Overridden {
			decision = "overridden"
		}
	}
	metrics.RecordEdit(req.Action, decision)

	if resp.Success && req.Persist {
		if err := h.store.Assignments.Update(ctx, resp.Assignment); err != nil {
			respondError(w, toAppError(err, errors.CodeInternal, "保存编辑结果失败"))
			return
		}
	}

	status := http.StatusOK
	if !resp.Success {
		status = errors.New(resp.Code, resp.Reason).HTTPStatus
	}
	respondJSON(w, status, resp)
}

// AuditRequest 排班冲突巡检请求
type AuditRequest struct {
	OrgID       string                `json:"org_id,omitempty"`
	StartDate   string                `json:"start_date,omitempty"`
	EndDate     string                `json:"end_date,omitempty"`
	Rules       *model.Rules          `json:"rules,omitempty"`
	Assignments []*model.Assignment   `json:"assignments,omitempty"`
	Employees   []*model.Employee     `json:"employees,omitempty"`
	Leaves      []model.LeaveRecord   `json:"leaves,omitempty"`
	Holidays    []model.HolidayRecord `json:"holidays,omitempty"`
}

// AuditResponse 排班冲突巡检响应
type AuditResponse struct {
	Success   bool                 `json:"success"`
	Total     int                  `json:"total"`
	ByType    map[string]int       `json:"by_type"`
	Conflicts []validator.Conflict `json:"conflicts"`
}

// Audit 巡检一份排班的全部冲突
// 内联排班直接检查；数据库模式下可按组织和日期范围加载
func (h *ScheduleHandler) Audit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}

	ctx := r.Context()
	assignments := req.Assignments
	employees := req.Employees
	var err error
	if len(assignments) == 0 && h.store != nil {
		orgID, appErr := parseAuditScope(&req)
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
	}

	from, to := scheduleWindow(assignments)
	var leaves model.LeaveSet
	var holidays model.HolidaySet
	if from != "" {
		var orgID uuid.UUID
		if len(assignments) > 0 {
			orgID = assignments[0].OrgID
		}
		var appErr *errors.AppError
		leaves, holidays, appErr = h.resolveCalendars(ctx, orgID, dateAdd(from, -1), dateAdd(to, 1), req.Leaves, req.Holidays)
		if appErr != nil {
			respondError(w, appErr)
			return
		}
	} else {
		leaves = model.LeavesByDate(model.ApprovedLeaves(req.Leaves))
		holidays = model.HolidaysByDate(req.Holidays)
	}

	rules := req.Rules
	if rules == nil {
		defaults := model.DefaultRules()
		rules = &defaults
	}

	byID := make(map[uuid.UUID]*model.Employee, len(employees))
	for _, e := range employees {
		byID[e.ID] = e
	}

	conflicts := validator.NewAuditor(rules).DetectAll(assignments, byID, leaves, holidays)
	if conflicts == nil {
		conflicts = []validator.Conflict{}
	}

	byType := make(map[string]int, len(conflicts))
	for _, c := range conflicts {
		byType[string(c.Type)]++
	}
	metrics.RecordConflicts(byType)

	respondJSON(w, http.StatusOK, AuditResponse{
		Success:   true,
		Total:     len(conflicts),
		ByType:    byType,
		Conflicts: conflicts,
	})
}

// ===== 辅助函数 =====

// timeout 返回本次请求的生成超时
func (h *ScheduleHandler) timeout(opts *GenerateOptions) time.Duration {
	if opts != nil && opts.TimeoutSeconds > 0 {
		return time.Duration(opts.TimeoutSeconds) * time.Second
	}
	if h.engine.GenerateTimeout > 0 {
		return h.engine.GenerateTimeout
	}
	return 30 * time.Second
}

// validateGenerateRequest 校验生成请求
// 纯引擎模式下员工与模板必须内联；数据库模式下允许省略、按组织补全
func (h *ScheduleHandler) validateGenerateRequest(req *GenerateRequest) *errors.AppError {
	ve := &errors.ValidationErrors{}

	if req.OrgID == "" {
		ve.Add("org_id", "组织ID不能为空")
	} else if _, err := uuid.Parse(req.OrgID); err != nil {
		ve.Add("org_id", "无效的组织ID格式")
	}

	start, startErr := time.Parse(model.DateLayout, req.StartDate)
	if req.StartDate == "" {
		ve.Add("start_date", "开始日期不能为空")
	} else if startErr != nil {
		ve.Add("start_date", fmt.Sprintf("日期格式无效 '%s'，应为 YYYY-MM-DD", req.StartDate))
	}
	end, endErr := time.Parse(model.DateLayout, req.EndDate)
	if req.EndDate == "" {
		ve.Add("end_date", "结束日期不能为空")
	} else if endErr != nil {
		ve.Add("end_date", fmt.Sprintf("日期格式无效 '%s'，应为 YYYY-MM-DD", req.EndDate))
	}
	if startErr == nil && endErr == nil {
		limit := h.engine.MaxPeriodDays
		if limit <= 0 {
			limit = maxPeriodDays
		}
		if start.After(end) {
			ve.Add("end_date", "结束日期不能早于开始日期")
		} else if int(end.Sub(start).Hours()/24)+1 > limit {
			ve.Add("end_date", fmt.Sprintf("排班周期不能超过%d天", limit))
		}
	}

	if h.store == nil {
		if len(req.Employees) == 0 {
			ve.Add("employees", "员工列表不能为空")
		}
		if len(req.Templates) == 0 && req.Preset == "" {
			ve.Add("templates", "缺少班次模板，请内联模板或指定预设")
		}
	}
	for i, e := range req.Employees {
		if e == nil || e.ID == uuid.Nil {
			ve.Add("employees", fmt.Sprintf("第%d个员工缺少ID", i+1))
		}
	}
	if req.Options != nil && req.Options.Persist && h.store == nil {
		ve.Add("options.persist", "数据库未启用，无法保存结果")
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// buildGenerateInput 把HTTP请求解析成生成器输入
// 顺序：补全数据段 → 租户配额 → 预设落地 → 规则与模板校验 → 构建周期
func (h *ScheduleHandler) buildGenerateInput(ctx context.Context, req *GenerateRequest) (*generator.Request, *errors.AppError) {
	orgID, err := uuid.Parse(req.OrgID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式")
	}

	employees := req.Employees
	templates := req.Templates
	rules := req.Rules
	holidays := req.Holidays
	history := req.History
	prevWeek := req.PrevWeek

	if h.store != nil {
		if len(employees) == 0 {
			if employees, err = h.store.Employees.ListActive(ctx, orgID); err != nil {
				return nil, toAppError(err, errors.CodeInternal, "加载员工名册失败")
			}
		}
		if len(templates) == 0 && req.Preset == "" {
			if templates, err = h.store.Templates.ListActive(ctx, orgID); err != nil {
				return nil, toAppError(err, errors.CodeInternal, "加载班次模板失败")
			}
		}
		if holidays == nil {
			if holidays, err = h.store.Holidays.ListInRange(ctx, req.StartDate, req.EndDate, ""); err != nil {
				return nil, toAppError(err, errors.CodeInternal, "加载节假日失败")
			}
		}
		if history == nil {
			if history, err = h.store.History.ListByOrg(ctx, orgID); err != nil {
				return nil, toAppError(err, errors.CodeInternal, "加载历史统计失败")
			}
		}
		if prevWeek == nil {
			if prevWeek, err = h.loadPrevWeek(ctx, orgID, req.StartDate); err != nil {
				return nil, toAppError(err, errors.CodeInternal, "加载上周班次统计失败")
			}
		}
	}

	t, hasTenant := tenant.FromContext(ctx)
	if hasTenant && !t.AllowsRosterSize(len(employees)) {
		return nil, errors.New(errors.CodeForbidden,
			fmt.Sprintf("名册人数 %d 超出租户配额 %d", len(employees), t.Settings.MaxEmployees))
	}

	if req.Preset != "" {
		if hasTenant && !t.HasPreset(req.Preset) {
			return nil, errors.New(errors.CodeForbidden, "租户未开通预设 "+req.Preset)
		}
		if rules == nil {
			suggested, presetErr := h.presets.SuggestCoverage(req.Preset, len(employees))
			if presetErr != nil {
				return nil, toAppError(presetErr, errors.CodeNotFound, "预设不存在")
			}
			rules = suggested
		}
		if len(templates) == 0 {
			_, presetTemplates, presetErr := h.presets.Materialize(req.Preset, orgID)
			if presetErr != nil {
				return nil, toAppError(presetErr, errors.CodeNotFound, "预设不存在")
			}
			templates = presetTemplates
		}
	}

	if rules == nil {
		defaults := model.DefaultRules()
		rules = &defaults
	}
	if err := rules.Validate(); err != nil {
		return nil, toAppError(err, errors.CodeInvalidInput, "排班规则无效")
	}
	for _, tpl := range templates {
		if err := tpl.Validate(); err != nil {
			return nil, toAppError(err, errors.CodeInvalidInput, "班次模板无效")
		}
	}
	for _, e := range employees {
		if e.Status == "" {
			e.Status = model.EmployeeActive
		}
	}

	period, err := model.BuildPeriod(req.StartDate, req.EndDate, rules, holidays)
	if err != nil {
		return nil, toAppError(err, errors.CodeInvalidInput, "构建排班周期失败")
	}

	return &generator.Request{
		OrgID:     orgID,
		Rules:     rules,
		Period:    period,
		Employees: employees,
		Templates: templates,
		History:   history,
		PrevWeek:  prevWeek,
	}, nil
}

// loadPrevWeek 用排班开始日前七天的记录重建上周班次统计
func (h *ScheduleHandler) loadPrevWeek(ctx context.Context, orgID uuid.UUID, startDate string) (model.WeekStats, error) {
	start, err := time.Parse(model.DateLayout, startDate)
	if err != nil {
		return nil, err
	}
	from := start.AddDate(0, 0, -7).Format(model.DateLayout)
	to := start.AddDate(0, 0, -1).Format(model.DateLayout)

	assignments, err := h.store.Assignments.ListByOrgDateRange(ctx, orgID, from, to)
	if err != nil {
		return nil, err
	}
	week := make(model.WeekStats, len(assignments))
	for _, a := range assignments {
		counts := week[a.EmployeeID]
		counts.Add(a.ShiftType)
		week[a.EmployeeID] = counts
	}
	return week, nil
}

// resolveCalendars 把请假与节假日记录展开为按日期索引的集合
// 内联记录优先；数据库模式下缺失的段按组织和日期范围加载。
// 内联请假可能混有待审批记录，展开前先过滤
func (h *ScheduleHandler) resolveCalendars(
	ctx context.Context,
	orgID uuid.UUID,
	startDate, endDate string,
	leaves []model.LeaveRecord,
	holidays []model.HolidayRecord,
) (model.LeaveSet, model.HolidaySet, *errors.AppError) {
	var err error
	if leaves == nil && h.store != nil {
		if leaves, err = h.store.Leaves.ListApprovedInRange(ctx, orgID, startDate, endDate); err != nil {
			return nil, nil, toAppError(err, errors.CodeInternal, "加载请假记录失败")
		}
	}
	if holidays == nil && h.store != nil {
		if holidays, err = h.store.Holidays.ListInRange(ctx, startDate, endDate, ""); err != nil {
			return nil, nil, toAppError(err, errors.CodeInternal, "加载节假日失败")
		}
	}
	return model.LeavesByDate(model.ApprovedLeaves(leaves)), model.HolidaysByDate(holidays), nil
}

// validateEditTarget 校验编辑动作与目标参数，返回解析后的目标员工ID
func validateEditTarget(action string, assignment *model.Assignment, targetDate, targetEmployee string) (uuid.UUID, *errors.AppError) {
	ve := &errors.ValidationErrors{}
	if appErr := validateAssignment(assignment); appErr != nil {
		return uuid.Nil, appErr
	}

	var employeeID uuid.UUID
	switch edit.Action(action) {
	case edit.ActionMove:
		if targetDate == "" {
			ve.Add("target_date", "目标日期不能为空")
		} else if _, err := time.Parse(model.DateLayout, targetDate); err != nil {
			ve.Add("target_date", fmt.Sprintf("日期格式无效 '%s'，应为 YYYY-MM-DD", targetDate))
		}
	case edit.ActionReassign:
		if targetEmployee == "" {
			ve.Add("target_employee", "目标员工不能为空")
		} else {
			id, err := uuid.Parse(targetEmployee)
			if err != nil {
				ve.Add("target_employee", "无效的员工ID格式")
			}
			employeeID = id
		}
	default:
		ve.Add("action", fmt.Sprintf("未知操作类型 '%s'，支持 move/reassign", action))
	}

	if ve.HasErrors() {
		return uuid.Nil, ve.ToAppError()
	}
	return employeeID, nil
}

// validateAssignment 校验内联排班记录的最小字段
func validateAssignment(a *model.Assignment) *errors.AppError {
	ve := &errors.ValidationErrors{}
	if a == nil {
		ve.Add("assignment", "排班记录不能为空")
		return ve.ToAppError()
	}
	if a.EmployeeID == uuid.Nil {
		ve.Add("assignment.employee_id", "员工ID不能为空")
	}
	if _, err := time.Parse(model.DateLayout, a.Date); err != nil {
		ve.Add("assignment.date", fmt.Sprintf("日期格式无效 '%s'，应为 YYYY-MM-DD", a.Date))
	}
	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// parseAuditScope 数据库模式下按组织和日期范围巡检时的参数校验
func parseAuditScope(req *AuditRequest) (uuid.UUID, *errors.AppError) {
	ve := &errors.ValidationErrors{}
	if req.OrgID == "" {
		ve.Add("org_id", "未内联排班时必须指定组织ID")
	}
	if req.StartDate == "" || req.EndDate == "" {
		ve.Add("start_date", "未内联排班时必须指定日期范围")
	}
	if ve.HasErrors() {
		return uuid.Nil, ve.ToAppError()
	}
	orgID, err := uuid.Parse(req.OrgID)
	if err != nil {
		return uuid.Nil, errors.Wrap(err, errors.CodeInvalidInput, "无效的组织ID格式")
	}
	return orgID, nil
}

// dateWindow 返回覆盖两个日期的闭区间
func dateWindow(date, target string) (string, string) {
	from, to := date, date
	if target != "" {
		if target < from {
			from = target
		}
		if target > to {
			to = target
		}
	}
	return from, to
}

// scheduleWindow 返回一批排班覆盖的日期区间，空批次返回空串
func scheduleWindow(assignments []*model.Assignment) (string, string) {
	from, to := "", ""
	for _, a := range assignments {
		if from == "" || a.Date < from {
			from = a.Date
		}
		if a.Date > to {
			to = a.Date
		}
	}
	return from, to
}

// dateAdd 在日期上加减天数，格式非法时原样返回
func dateAdd(date string, days int) string {
	d, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return d.AddDate(0, 0, days).Format(model.DateLayout)
}

// buildAssignmentOutputs 把排班分配映射为输出格式并补充姓名
func buildAssignmentOutputs(assignments []*model.Assignment, employees []*model.Employee, templates []*model.ShiftTemplate) []AssignmentOutput {
	empNames := make(map[uuid.UUID]string, len(employees))
	for _, e := range employees {
		empNames[e.ID] = e.Name
	}
	tplNames := make(map[uuid.UUID]string, len(templates))
	for _, tpl := range templates {
		tplNames[tpl.ID] = tpl.Name
	}

	out := make([]AssignmentOutput, len(assignments))
	for i, a := range assignments {
		out[i] = assignmentOutput(a, empNames[a.EmployeeID], tplNames[a.TemplateID])
	}
	return out
}

// assignmentOutput 映射单条排班分配
func assignmentOutput(a *model.Assignment, employeeName, templateName string) AssignmentOutput {
	o := AssignmentOutput{
		ID:            a.ID.String(),
		EmployeeID:    a.EmployeeID.String(),
		EmployeeName:  employeeName,
		TemplateID:    a.TemplateID.String(),
		TemplateName:  templateName,
		Date:          a.Date,
		ShiftType:     string(a.ShiftType),
		StartTime:     a.StartTime.Format(model.TimeLayout),
		EndTime:       a.EndTime.Format(model.TimeLayout),
		Overnight:     a.EndTime.Format(model.DateLayout) != a.Date,
		Hours:         a.WorkingHours(),
		Status:        string(a.Status),
		IsReplacement: a.IsReplacement,
		Notes:         a.Notes,
	}
	if a.OriginalEmployeeID != nil {
		o.OriginalEmployeeID = a.OriginalEmployeeID.String()
	}
	return o
}

// toAppError 把任意错误转换为应用错误，已是应用错误的原样返回
func toAppError(err error, code errors.Code, message string) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.Wrap(err, code, message)
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}
