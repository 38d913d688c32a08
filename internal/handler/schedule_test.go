package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/internal/config"
	"github.com/zhipai/zhipai/internal/tenant"
	"github.com/zhipai/zhipai/pkg/edit"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/preset"
	"github.com/zhipai/zhipai/pkg/validator"
)

func TestScheduleHandler_Generate(t *testing.T) {
	h := newTestHandler()

	rules := model.DefaultRules()
	rules.DayCoverage = 0
	rules.EveningCoverage = 0
	rules.NightCoverage = 1
	rules.AlternateWeekShifts = false

	w := postJSON(t, h.Generate, "/api/v1/schedule/generate", GenerateRequest{
		OrgID:     uuid.New().String(),
		StartDate: "2025-06-02",
		EndDate:   "2025-06-06",
		Rules:     &rules,
		Employees: handlerRoster(4),
		Templates: []*model.ShiftTemplate{nightTemplate()},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp GenerateResponse
	decodeBody(t, w, &resp)
	if !resp.Success {
		t.Error("Success should be true")
	}
	if resp.RunID == "" {
		t.Error("RunID should not be empty")
	}
	if resp.Stats.TotalSlots != 5 {
		t.Errorf("Stats.TotalSlots = %d, want 5", resp.Stats.TotalSlots)
	}
	if resp.Stats.Uncovered != 0 {
		t.Errorf("Stats.Uncovered = %d, want 0", resp.Stats.Uncovered)
	}
	if len(resp.Assignments) != 5 {
		t.Fatalf("assignments = %d, want 5", len(resp.Assignments))
	}
	for _, a := range resp.Assignments {
		if a.EmployeeName == "" {
			t.Errorf("assignment %s missing employee name", a.ID)
		}
		if a.TemplateName != "夜班" {
			t.Errorf("TemplateName = %s, want 夜班", a.TemplateName)
		}
		if a.ShiftType != "night" {
			t.Errorf("ShiftType = %s, want night", a.ShiftType)
		}
		if !a.Overnight {
			t.Errorf("night shift on %s should be overnight", a.Date)
		}
	}
}

func TestScheduleHandler_Generate_InvalidInput(t *testing.T) {
	h := newTestHandler()
	valid := func() GenerateRequest {
		return GenerateRequest{
			OrgID:     uuid.New().String(),
			StartDate: "2025-06-02",
			EndDate:   "2025-06-06",
			Employees: handlerRoster(3),
			Templates: []*model.ShiftTemplate{nightTemplate()},
		}
	}

	tests := []struct {
		name   string
		mutate func(*GenerateRequest)
	}{
		{"缺少组织ID", func(r *GenerateRequest) { r.OrgID = "" }},
		{"组织ID格式错误", func(r *GenerateRequest) { r.OrgID = "not-a-uuid" }},
		{"日期格式错误", func(r *GenerateRequest) { r.StartDate = "2025/06/02" }},
		{"起止倒置", func(r *GenerateRequest) { r.StartDate = "2025-06-10"; r.EndDate = "2025-06-02" }},
		{"周期超限", func(r *GenerateRequest) { r.StartDate = "2025-01-01"; r.EndDate = "2025-12-31" }},
		{"缺少员工", func(r *GenerateRequest) { r.Employees = nil }},
		{"缺少模板且无预设", func(r *GenerateRequest) { r.Templates = nil }},
		{"无数据库时要求保存", func(r *GenerateRequest) { r.Options = &GenerateOptions{Persist: true} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			w := postJSON(t, h.Generate, "/api/v1/schedule/generate", req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body=%s)", w.Code, w.Body.String())
			}
			assertErrorCode(t, w, "INVALID_INPUT")
		})
	}
}

func TestScheduleHandler_Generate_MethodNotAllowed(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedule/generate", nil)
	w := httptest.NewRecorder()
	h.Generate(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestScheduleHandler_Generate_WithPreset(t *testing.T) {
	h := newTestHandler()

	w := postJSON(t, h.Generate, "/api/v1/schedule/generate", GenerateRequest{
		OrgID:     uuid.New().String(),
		StartDate: "2025-06-02",
		EndDate:   "2025-06-04",
		Preset:    preset.CodeSecurityDesk,
		Employees: handlerRoster(4),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp GenerateResponse
	decodeBody(t, w, &resp)
	// 日岗+夜岗各 1 人，3 个工作日共 6 个槽位
	if resp.Stats.TotalSlots != 6 {
		t.Errorf("Stats.TotalSlots = %d, want 6", resp.Stats.TotalSlots)
	}
	if len(resp.Assignments)+resp.Stats.Uncovered != resp.Stats.TotalSlots {
		t.Errorf("assignments %d + uncovered %d != total %d",
			len(resp.Assignments), resp.Stats.Uncovered, resp.Stats.TotalSlots)
	}
	for _, a := range resp.Assignments {
		if a.TemplateName != "日岗" && a.TemplateName != "夜岗" {
			t.Errorf("TemplateName = %s, want 日岗/夜岗", a.TemplateName)
		}
	}
}

func TestScheduleHandler_Generate_UnknownPreset(t *testing.T) {
	h := newTestHandler()
	w := postJSON(t, h.Generate, "/api/v1/schedule/generate", GenerateRequest{
		OrgID:     uuid.New().String(),
		StartDate: "2025-06-02",
		EndDate:   "2025-06-04",
		Preset:    "night_market",
		Employees: handlerRoster(3),
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (body=%s)", w.Code, w.Body.String())
	}
}

func TestScheduleHandler_Generate_TenantQuota(t *testing.T) {
	h := newTestHandler()

	rules := model.DefaultRules()
	body, err := json.Marshal(GenerateRequest{
		OrgID:     uuid.New().String(),
		StartDate: "2025-06-02",
		EndDate:   "2025-06-06",
		Rules:     &rules,
		Employees: handlerRoster(4),
		Templates: []*model.ShiftTemplate{nightTemplate()},
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule/generate", bytes.NewReader(body))
	req = req.WithContext(tenant.WithTenant(req.Context(), &tenant.Tenant{
		ID:       uuid.New(),
		Code:     "small-shop",
		Status:   "active",
		Settings: tenant.Settings{MaxEmployees: 2, AllowedPresets: []string{"*"}},
	}))
	w := httptest.NewRecorder()
	h.Generate(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 (body=%s)", w.Code, w.Body.String())
	}
	assertErrorCode(t, w, "FORBIDDEN")
}

func TestScheduleHandler_Preview(t *testing.T) {
	h := newTestHandler()

	rules := model.DefaultRules()
	rules.DayCoverage = 0
	rules.EveningCoverage = 0
	rules.NightCoverage = 1
	rules.AlternateWeekShifts = false

	w := postJSON(t, h.Preview, "/api/v1/schedule/preview", GenerateRequest{
		OrgID:     uuid.New().String(),
		StartDate: "2025-06-02",
		EndDate:   "2025-06-06",
		Rules:     &rules,
		Employees: handlerRoster(4),
		Templates: []*model.ShiftTemplate{nightTemplate()},
		Options:   &GenerateOptions{Runs: 3},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp PreviewResponse
	decodeBody(t, w, &resp)
	if !resp.Success {
		t.Error("Success should be true")
	}
	if resp.Runs != 3 {
		t.Errorf("Runs = %d, want 3", resp.Runs)
	}
	if len(resp.Candidates) != 3 {
		t.Fatalf("candidates = %d, want 3", len(resp.Candidates))
	}
	for _, c := range resp.Candidates {
		if c.Failed {
			t.Errorf("candidate %d should not fail", c.Index)
		}
	}
	if resp.Best == nil {
		t.Fatal("Best should not be nil")
	}
	if resp.Best.RunID == "" {
		t.Error("Best.RunID should not be empty")
	}
	if len(resp.Best.Assignments) != 5 {
		t.Errorf("best assignments = %d, want 5", len(resp.Best.Assignments))
	}
}

func TestScheduleHandler_Preview_RejectsPersist(t *testing.T) {
	h := newTestHandler()
	w := postJSON(t, h.Preview, "/api/v1/schedule/preview", GenerateRequest{
		OrgID:     uuid.New().String(),
		StartDate: "2025-06-02",
		EndDate:   "2025-06-06",
		Employees: handlerRoster(3),
		Templates: []*model.ShiftTemplate{nightTemplate()},
		Options:   &GenerateOptions{Persist: true},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestScheduleHandler_ValidateMove(t *testing.T) {
	h := newTestHandler()
	orgID := uuid.New()
	empID := uuid.New()
	otherID := uuid.New()
	assignment := mustAssignment(t, orgID, empID, dayTemplate(), "2025-06-10")

	tests := []struct {
		name        string
		req         ValidateMoveRequest
		wantAllowed bool
		wantReason  string
	}{
		{
			name: "正常移动",
			req: ValidateMoveRequest{
				Assignment: assignment,
				TargetDate: "2025-06-12",
			},
			wantAllowed: true,
		},
		{
			name: "目标日期请假",
			req: ValidateMoveRequest{
				Assignment: assignment,
				TargetDate: "2025-06-12",
				Leaves: []model.LeaveRecord{
					{EmployeeID: empID, StartDate: "2025-06-12", EndDate: "2025-06-12", Status: model.LeaveApproved},
				},
			},
			wantAllowed: false,
			wantReason:  validator.ReasonEmployeeOnLeave,
		},
		{
			name: "待审批请假不拦截",
			req: ValidateMoveRequest{
				Assignment: assignment,
				TargetDate: "2025-06-12",
				Leaves: []model.LeaveRecord{
					{EmployeeID: empID, StartDate: "2025-06-12", EndDate: "2025-06-12", Status: model.LeavePending},
				},
			},
			wantAllowed: true,
		},
		{
			name: "目标日期节假日",
			req: ValidateMoveRequest{
				Assignment: assignment,
				TargetDate: "2025-06-12",
				Holidays:   []model.HolidayRecord{{Date: "2025-06-12", Name: "端午节"}},
			},
			wantAllowed: false,
			wantReason:  validator.ReasonCompanyHoliday,
		},
		{
			name: "请假先于节假日报告",
			req: ValidateMoveRequest{
				Assignment: assignment,
				TargetDate: "2025-06-12",
				Leaves: []model.LeaveRecord{
					{EmployeeID: empID, StartDate: "2025-06-12", EndDate: "2025-06-12", Status: model.LeaveApproved},
				},
				Holidays: []model.HolidayRecord{{Date: "2025-06-12", Name: "端午节"}},
			},
			wantAllowed: false,
			wantReason:  validator.ReasonEmployeeOnLeave,
		},
		{
			name: "改派给请假员工",
			req: ValidateMoveRequest{
				Action:         "reassign",
				Assignment:     assignment,
				TargetEmployee: otherID.String(),
				Leaves: []model.LeaveRecord{
					{EmployeeID: otherID, StartDate: "2025-06-10", EndDate: "2025-06-10", Status: model.LeaveApproved},
				},
			},
			wantAllowed: false,
			wantReason:  validator.ReasonEmployeeOnLeave,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h.ValidateMove, "/api/v1/schedule/validate-move", tt.req)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
			}
			var verdict validator.Verdict
			decodeBody(t, w, &verdict)
			if verdict.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v (reason=%q)", verdict.Allowed, tt.wantAllowed, verdict.Reason)
			}
			if tt.wantReason != "" && verdict.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", verdict.Reason, tt.wantReason)
			}
		})
	}
}

func TestScheduleHandler_ValidateMove_BadRequest(t *testing.T) {
	h := newTestHandler()

	tests := []struct {
		name string
		req  ValidateMoveRequest
	}{
		{"缺少排班", ValidateMoveRequest{TargetDate: "2025-06-12"}},
		{"缺少目标日期", ValidateMoveRequest{Assignment: mustAssignment(t, uuid.New(), uuid.New(), dayTemplate(), "2025-06-10")}},
		{"未知动作", ValidateMoveRequest{
			Action:     "swap",
			Assignment: mustAssignment(t, uuid.New(), uuid.New(), dayTemplate(), "2025-06-10"),
			TargetDate: "2025-06-12",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h.ValidateMove, "/api/v1/schedule/validate-move", tt.req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body=%s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestScheduleHandler_Edit_Move(t *testing.T) {
	h := newTestHandler()
	orgID := uuid.New()
	empID := uuid.New()
	assignment := mustAssignment(t, orgID, empID, dayTemplate(), "2025-06-10")

	w := postJSON(t, h.Edit, "/api/v1/schedule/edit", EditRequest{
		Action:     "move",
		Assignment: assignment,
		TargetDate: "2025-06-12",
		Schedule:   []*model.Assignment{assignment},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp edit.Response
	decodeBody(t, w, &resp)
	if !resp.Success {
		t.Fatalf("Success = false, reason %q", resp.Reason)
	}
	if resp.Assignment.Date != "2025-06-12" {
		t.Errorf("Date = %s, want 2025-06-12", resp.Assignment.Date)
	}
	if resp.Overridden {
		t.Error("unpublished edit should not be overridden")
	}
}

func TestScheduleHandler_Edit_Rejections(t *testing.T) {
	h := newTestHandler()
	orgID := uuid.New()
	empID := uuid.New()

	scheduled := func() *model.Assignment {
		return mustAssignment(t, orgID, empID, dayTemplate(), "2025-06-10")
	}
	published := func() *model.Assignment {
		a := scheduled()
		a.Status = model.StatusPublished
		return a
	}
	booked := mustAssignment(t, orgID, empID, nightTemplate(), "2025-06-12")

	tests := []struct {
		name       string
		req        EditRequest
		wantStatus int
		wantCode   string
	}{
		{
			name: "移动到节假日",
			req: EditRequest{
				Action:     "move",
				Assignment: scheduled(),
				TargetDate: "2025-06-12",
				Holidays:   []model.HolidayRecord{{Date: "2025-06-12", Name: "端午节"}},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "EDIT_REJECTED",
		},
		{
			name: "目标日期已有排班",
			req: EditRequest{
				Action:     "move",
				Assignment: scheduled(),
				TargetDate: "2025-06-12",
				Schedule:   []*model.Assignment{booked},
			},
			wantStatus: http.StatusConflict,
			wantCode:   "SCHEDULE_CONFLICT",
		},
		{
			name: "已发布且无覆盖说明",
			req: EditRequest{
				Action:     "move",
				Assignment: published(),
				TargetDate: "2025-06-12",
			},
			wantStatus: http.StatusForbidden,
			wantCode:   "PUBLISHED_IMMUTABLE",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h.Edit, "/api/v1/schedule/edit", tt.req)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body=%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			var resp edit.Response
			decodeBody(t, w, &resp)
			if resp.Success {
				t.Error("Success should be false")
			}
			if string(resp.Code) != tt.wantCode {
				t.Errorf("Code = %s, want %s", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestScheduleHandler_Edit_OverridePublished(t *testing.T) {
	h := newTestHandler()
	assignment := mustAssignment(t, uuid.New(), uuid.New(), dayTemplate(), "2025-06-10")
	assignment.Status = model.StatusPublished

	w := postJSON(t, h.Edit, "/api/v1/schedule/edit", EditRequest{
		Action:         "move",
		Assignment:     assignment,
		TargetDate:     "2025-06-12",
		OverrideReason: "员工调岗，主管批准",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp edit.Response
	decodeBody(t, w, &resp)
	if !resp.Success {
		t.Fatalf("Success = false, reason %q", resp.Reason)
	}
	if !resp.Overridden {
		t.Error("Overridden should be true")
	}
}

func TestScheduleHandler_Replacements(t *testing.T) {
	h := newTestHandler()
	orgID := uuid.New()
	roster := handlerRoster(5)
	original, onLeave, busy := roster[0], roster[1], roster[2]

	assignment := mustAssignment(t, orgID, original.ID, dayTemplate(), "2025-06-10")
	busyShift := mustAssignment(t, orgID, busy.ID, nightTemplate(), "2025-06-10")

	w := postJSON(t, h.Replacements, "/api/v1/schedule/replacements", ReplacementRequest{
		Assignment: assignment,
		Roster:     roster,
		Schedule:   []*model.Assignment{assignment, busyShift},
		Leaves: []model.LeaveRecord{
			{EmployeeID: onLeave.ID, StartDate: "2025-06-10", EndDate: "2025-06-10", Status: model.LeaveApproved},
		},
		AutoReplace: true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp ReplacementResponse
	decodeBody(t, w, &resp)
	if resp.Count != 2 {
		t.Fatalf("Count = %d, want 2", resp.Count)
	}
	// 候选按名册顺序返回
	if resp.Candidates[0].ID != roster[3].ID.String() {
		t.Errorf("first candidate = %s, want %s", resp.Candidates[0].Name, roster[3].Name)
	}
	if resp.Candidates[1].ID != roster[4].ID.String() {
		t.Errorf("second candidate = %s, want %s", resp.Candidates[1].Name, roster[4].Name)
	}
	if resp.Replacement == nil {
		t.Fatal("Replacement should not be nil")
	}
	if resp.Replacement.EmployeeID != roster[3].ID.String() {
		t.Errorf("replacement employee = %s, want %s", resp.Replacement.EmployeeID, roster[3].ID)
	}
	if !resp.Replacement.IsReplacement {
		t.Error("IsReplacement should be true")
	}
	if resp.Replacement.OriginalEmployeeID != original.ID.String() {
		t.Errorf("OriginalEmployeeID = %s, want %s", resp.Replacement.OriginalEmployeeID, original.ID)
	}
	if resp.Replacement.Status != string(model.StatusScheduled) {
		t.Errorf("replacement status = %s, want scheduled", resp.Replacement.Status)
	}
}

func TestScheduleHandler_Replacements_MaxResults(t *testing.T) {
	h := newTestHandler()
	orgID := uuid.New()
	roster := handlerRoster(8)
	assignment := mustAssignment(t, orgID, roster[0].ID, dayTemplate(), "2025-06-10")

	w := postJSON(t, h.Replacements, "/api/v1/schedule/replacements", ReplacementRequest{
		Assignment: assignment,
		Roster:     roster,
		MaxResults: 2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}
	var resp ReplacementResponse
	decodeBody(t, w, &resp)
	if resp.Count != 2 {
		t.Errorf("Count = %d, want 2", resp.Count)
	}
}

func TestScheduleHandler_Audit(t *testing.T) {
	h := newTestHandler()
	orgID := uuid.New()
	emp := handlerRoster(2)
	double1 := mustAssignment(t, orgID, emp[0].ID, dayTemplate(), "2025-06-10")
	double2 := mustAssignment(t, orgID, emp[0].ID, nightTemplate(), "2025-06-10")
	onLeaveShift := mustAssignment(t, orgID, emp[1].ID, dayTemplate(), "2025-06-11")

	w := postJSON(t, h.Audit, "/api/v1/schedule/audit", AuditRequest{
		Assignments: []*model.Assignment{double1, double2, onLeaveShift},
		Employees:   emp,
		Leaves: []model.LeaveRecord{
			{EmployeeID: emp[1].ID, StartDate: "2025-06-11", EndDate: "2025-06-11", Status: model.LeaveApproved},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp AuditResponse
	decodeBody(t, w, &resp)
	if !resp.Success {
		t.Error("Success should be true")
	}
	if resp.Total == 0 {
		t.Fatal("expected conflicts, got none")
	}
	if resp.ByType["double_booking"] == 0 {
		t.Errorf("ByType = %v, want double_booking entries", resp.ByType)
	}
	if resp.ByType["leave"] == 0 {
		t.Errorf("ByType = %v, want leave entries", resp.ByType)
	}
	if len(resp.Conflicts) != resp.Total {
		t.Errorf("Conflicts len = %d, Total = %d", len(resp.Conflicts), resp.Total)
	}
}

func TestScheduleHandler_Audit_EmptySchedule(t *testing.T) {
	h := newTestHandler()
	w := postJSON(t, h.Audit, "/api/v1/schedule/audit", AuditRequest{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}
	var resp AuditResponse
	decodeBody(t, w, &resp)
	if resp.Total != 0 {
		t.Errorf("Total = %d, want 0", resp.Total)
	}
	if resp.Conflicts == nil {
		t.Error("Conflicts should be an empty list, not null")
	}
}

// ===== 辅助函数 =====

func newTestHandler() *ScheduleHandler {
	cfg := config.EngineConfig{
		GenerateTimeout: 5 * time.Second,
		PreviewRuns:     3,
		PreviewWorkers:  2,
	}
	return NewScheduleHandler(cfg, preset.NewCatalog(), nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response: %v (body=%s)", err, w.Body.String())
	}
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantCode string) {
	t.Helper()
	var body map[string]interface{}
	decodeBody(t, w, &body)
	if body["error"] != true {
		t.Errorf("error field = %v, want true", body["error"])
	}
	if body["code"] != wantCode {
		t.Errorf("code = %v, want %s", body["code"], wantCode)
	}
}

func handlerRoster(n int) []*model.Employee {
	employees := make([]*model.Employee, 0, n)
	for i := 0; i < n; i++ {
		employees = append(employees, &model.Employee{
			BaseModel: model.BaseModel{ID: uuid.New()},
			Name:      fmt.Sprintf("员工%d", i+1),
			Status:    model.EmployeeActive,
		})
	}
	return employees
}

func dayTemplate() *model.ShiftTemplate {
	return &model.ShiftTemplate{
		BaseModel: model.NewBaseModel(),
		Name:      "早班",
		Type:      model.ShiftMorning,
		StartTime: "08:00",
		EndTime:   "16:00",
		IsActive:  true,
	}
}

func nightTemplate() *model.ShiftTemplate {
	return &model.ShiftTemplate{
		BaseModel: model.NewBaseModel(),
		Name:      "夜班",
		Type:      model.ShiftNight,
		StartTime: "22:00",
		EndTime:   "06:00",
		IsActive:  true,
	}
}

func mustAssignment(t *testing.T, orgID, empID uuid.UUID, tmpl *model.ShiftTemplate, date string) *model.Assignment {
	t.Helper()
	a, err := model.NewAssignment(orgID, empID, tmpl, date)
	if err != nil {
		t.Fatalf("NewAssignment: %v", err)
	}
	return a
}
