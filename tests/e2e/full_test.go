// Package e2e 提供端到端测试
// 用真实处理器串联完整业务流程：生成、巡检、统计、编辑
package e2e

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
	"github.com/zhipai/zhipai/internal/handler"
	"github.com/zhipai/zhipai/pkg/edit"
	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/preset"
)

// TestFullSchedulingWorkflow 完整排班工作流
// 生成病房排班 -> 冲突巡检 -> 公平性与覆盖率统计 -> 快捷编辑
func TestFullSchedulingWorkflow(t *testing.T) {
	scheduleHandler, statsHandler := newHandlers(t)

	orgID := uuid.New()
	rules, templates, err := preset.NewCatalog().Materialize(preset.CodeHospitalWard, orgID)
	if err != nil {
		t.Fatalf("Materialize() error = %v", err)
	}
	roster := buildRoster(orgID, "护士", 12)

	// 1. 生成一周排班
	var genResp handler.GenerateResponse
	w := postJSON(t, scheduleHandler.Generate, "/api/v1/schedule/generate", handler.GenerateRequest{
		OrgID:     orgID.String(),
		StartDate: "2025-06-02",
		EndDate:   "2025-06-08",
		Rules:     rules,
		Employees: roster,
		Templates: templates,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("生成 status = %d, body = %s", w.Code, w.Body.String())
	}
	decodeJSON(t, w, &genResp)
	if !genResp.Success {
		t.Fatal("生成 success = false")
	}
	if genResp.Stats.TotalSlots != 49 {
		t.Errorf("total_slots = %d, expected 49", genResp.Stats.TotalSlots)
	}
	t.Logf("生成完成：覆盖 %d/%d，评分 %.1f",
		len(genResp.Assignments), genResp.Stats.TotalSlots, genResp.Score)

	schedule := rebuildAssignments(t, orgID, genResp.Assignments, templates)

	// 2. 巡检：新生成的排班不应有冲突
	var auditResp handler.AuditResponse
	w = postJSON(t, scheduleHandler.Audit, "/api/v1/schedule/audit", handler.AuditRequest{
		Rules:       rules,
		Assignments: schedule,
		Employees:   roster,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("巡检 status = %d, body = %s", w.Code, w.Body.String())
	}
	decodeJSON(t, w, &auditResp)
	if auditResp.Total != 0 {
		t.Errorf("巡检发现 %d 个冲突：%+v", auditResp.Total, auditResp.Conflicts)
	}

	// 3. 公平性统计
	var fairResp handler.FairnessResponse
	w = postJSON(t, statsHandler.Fairness, "/api/v1/stats/fairness", handler.FairnessRequest{
		Assignments: schedule,
		Employees:   roster,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("公平性统计 status = %d, body = %s", w.Code, w.Body.String())
	}
	decodeJSON(t, w, &fairResp)
	if fairResp.Data == nil {
		t.Fatal("公平性统计缺少数据")
	}
	if len(fairResp.Data.EmployeeStats) != len(roster) {
		t.Errorf("EmployeeStats 人数 = %d, expected %d", len(fairResp.Data.EmployeeStats), len(roster))
	}
	if fairResp.Data.AvgShifts <= 0 {
		t.Errorf("AvgShifts = %.2f, expected > 0", fairResp.Data.AvgShifts)
	}
	t.Logf("公平性：负载基尼 %.3f，夜班基尼 %.3f，综合评分 %.1f",
		fairResp.Data.LoadGini, fairResp.Data.NightGini, fairResp.Data.OverallScore)

	// 4. 覆盖率统计
	var covResp handler.CoverageResponse
	w = postJSON(t, statsHandler.Coverage, "/api/v1/stats/coverage", handler.CoverageRequest{
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-08",
		Rules:       rules,
		Assignments: schedule,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("覆盖率统计 status = %d, body = %s", w.Code, w.Body.String())
	}
	decodeJSON(t, w, &covResp)
	if covResp.Data == nil {
		t.Fatal("覆盖率统计缺少数据")
	}
	if covResp.Data.TotalSlots != 49 {
		t.Errorf("覆盖率 TotalSlots = %d, expected 49", covResp.Data.TotalSlots)
	}
	if covResp.Data.AssignedSlots != len(schedule) {
		t.Errorf("AssignedSlots = %d, expected %d", covResp.Data.AssignedSlots, len(schedule))
	}

	// 5. 快捷编辑：移到节假日被拒
	target := schedule[0]
	w = postJSON(t, scheduleHandler.Edit, "/api/v1/schedule/edit", handler.EditRequest{
		Action:     "move",
		Assignment: target,
		TargetDate: "2025-06-09",
		Schedule:   schedule,
		Holidays:   []model.HolidayRecord{{Date: "2025-06-09", Name: "端午节"}},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("移到节假日 status = %d, expected 422", w.Code)
	}
	var rejected edit.Response
	decodeJSON(t, w, &rejected)
	if rejected.Success {
		t.Error("移到节假日应被拒绝")
	}
	if rejected.Code != errors.CodeEditRejected {
		t.Errorf("拒绝代码 = %s, expected %s", rejected.Code, errors.CodeEditRejected)
	}

	// 6. 快捷编辑：移到周期外的空闲日成功
	w = postJSON(t, scheduleHandler.Edit, "/api/v1/schedule/edit", handler.EditRequest{
		Action:     "move",
		Assignment: target,
		TargetDate: "2025-06-09",
		Schedule:   schedule,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("移班 status = %d, body = %s", w.Code, w.Body.String())
	}
	var moved edit.Response
	decodeJSON(t, w, &moved)
	if !moved.Success {
		t.Fatalf("移班失败：%s", moved.Reason)
	}
	if moved.Assignment.Date != "2025-06-09" {
		t.Errorf("移动后日期 = %s, expected 2025-06-09", moved.Assignment.Date)
	}

	t.Log("完整工作流验证通过")
}

// TestPreviewWorkflow 多方案预览工作流
func TestPreviewWorkflow(t *testing.T) {
	scheduleHandler, _ := newHandlers(t)

	orgID := uuid.New()
	var resp handler.PreviewResponse
	w := postJSON(t, scheduleHandler.Preview, "/api/v1/schedule/preview", handler.GenerateRequest{
		OrgID:     orgID.String(),
		StartDate: "2025-06-02",
		EndDate:   "2025-06-08",
		Preset:    preset.CodeSecurityDesk,
		Employees: buildRoster(orgID, "保安", 4),
		Options:   &handler.GenerateOptions{Runs: 3},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("预览 status = %d, body = %s", w.Code, w.Body.String())
	}
	decodeJSON(t, w, &resp)

	if resp.Runs != 3 {
		t.Errorf("runs = %d, expected 3", resp.Runs)
	}
	if len(resp.Candidates) != 3 {
		t.Fatalf("候选数 = %d, expected 3", len(resp.Candidates))
	}
	for _, c := range resp.Candidates {
		if c.Failed {
			t.Errorf("候选 #%d 生成失败", c.Index)
		}
	}
	if resp.Best == nil {
		t.Fatal("缺少最优候选")
	}
	if resp.Best.RunID == "" {
		t.Error("最优候选缺少运行ID")
	}
	for _, c := range resp.Candidates {
		if c.Score > resp.Best.Score {
			t.Errorf("候选 #%d 评分 %.1f 高于最优解 %.1f", c.Index, c.Score, resp.Best.Score)
		}
	}

	t.Logf("预览完成：最优评分 %.1f，缺口 %d", resp.Best.Score, resp.Best.Uncovered)
}

// TestConcurrentGenerations 并发生成请求互不干扰
func TestConcurrentGenerations(t *testing.T) {
	scheduleHandler, _ := newHandlers(t)

	const concurrency = 8
	statuses := make(chan int, concurrency)

	for i := 0; i < concurrency; i++ {
		go func(n int) {
			orgID := uuid.New()
			payload := handler.GenerateRequest{
				OrgID:     orgID.String(),
				StartDate: "2025-06-02",
				EndDate:   "2025-06-04",
				Preset:    preset.CodeSecurityDesk,
				Employees: buildRoster(orgID, fmt.Sprintf("保安%d组", n), 4),
			}
			data, err := json.Marshal(payload)
			if err != nil {
				statuses <- -1
				return
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/schedule/generate", bytes.NewReader(data))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			scheduleHandler.Generate(w, req)
			statuses <- w.Code
		}(i)
	}

	for i := 0; i < concurrency; i++ {
		if code := <-statuses; code != http.StatusOK {
			t.Errorf("并发生成请求 status = %d, expected 200", code)
		}
	}
}

// ===== 辅助函数 =====

func newHandlers(t *testing.T) (*handler.ScheduleHandler, *handler.StatsHandler) {
	t.Helper()
	engineCfg := config.EngineConfig{
		GenerateTimeout: 10 * time.Second,
		PreviewRuns:     3,
		PreviewWorkers:  2,
	}
	catalog := preset.NewCatalog()
	return handler.NewScheduleHandler(engineCfg, catalog, nil), handler.NewStatsHandler(nil)
}

func buildRoster(orgID uuid.UUID, role string, n int) []*model.Employee {
	roster := make([]*model.Employee, 0, n)
	for i := 0; i < n; i++ {
		roster = append(roster, &model.Employee{
			BaseModel: model.BaseModel{ID: uuid.New()},
			OrgID:     orgID,
			Name:      fmt.Sprintf("%s%d", role, i+1),
			Status:    model.EmployeeActive,
		})
	}
	return roster
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("序列化请求体失败: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("解析响应失败: %v, body = %s", err, w.Body.String())
	}
}

// rebuildAssignments 把生成接口的输出还原成排班分配，供后续接口复用
func rebuildAssignments(t *testing.T, orgID uuid.UUID, outputs []handler.AssignmentOutput, templates []*model.ShiftTemplate) []*model.Assignment {
	t.Helper()

	byID := make(map[string]*model.ShiftTemplate, len(templates))
	for _, tmpl := range templates {
		byID[tmpl.ID.String()] = tmpl
	}

	schedule := make([]*model.Assignment, 0, len(outputs))
	for _, out := range outputs {
		tmpl := byID[out.TemplateID]
		if tmpl == nil {
			t.Fatalf("未知模板ID %s", out.TemplateID)
		}
		empID, err := uuid.Parse(out.EmployeeID)
		if err != nil {
			t.Fatalf("解析员工ID失败: %v", err)
		}
		a, err := model.NewAssignment(orgID, empID, tmpl, out.Date)
		if err != nil {
			t.Fatalf("重建排班分配失败: %v", err)
		}
		schedule = append(schedule, a)
	}
	return schedule
}
