package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
)

func TestStatsHandler_Fairness(t *testing.T) {
	h := NewStatsHandler(nil)
	orgID := uuid.New()
	emp := handlerRoster(2)
	tmpl := dayTemplate()

	assignments := []*model.Assignment{
		mustAssignment(t, orgID, emp[0].ID, tmpl, "2025-06-02"),
		mustAssignment(t, orgID, emp[0].ID, tmpl, "2025-06-03"),
		mustAssignment(t, orgID, emp[1].ID, tmpl, "2025-06-02"),
		mustAssignment(t, orgID, emp[1].ID, tmpl, "2025-06-03"),
	}

	w := postJSON(t, h.Fairness, "/api/v1/stats/fairness", FairnessRequest{
		Assignments: assignments,
		Employees:   emp,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp FairnessResponse
	decodeBody(t, w, &resp)
	if !resp.Success || resp.Data == nil {
		t.Fatalf("Success = %v, Data = %v", resp.Success, resp.Data)
	}
	if len(resp.Data.EmployeeStats) != 2 {
		t.Errorf("EmployeeStats = %d, want 2", len(resp.Data.EmployeeStats))
	}
	if resp.Data.AvgShifts != 2.0 {
		t.Errorf("AvgShifts = %v, want 2.0", resp.Data.AvgShifts)
	}
	// 两人负载完全相同
	if resp.Data.LoadGini != 0 {
		t.Errorf("LoadGini = %v, want 0", resp.Data.LoadGini)
	}
	if resp.Data.LoadSpread != 0 {
		t.Errorf("LoadSpread = %v, want 0", resp.Data.LoadSpread)
	}
}

func TestStatsHandler_Fairness_EmptySchedule(t *testing.T) {
	h := NewStatsHandler(nil)
	w := postJSON(t, h.Fairness, "/api/v1/stats/fairness", FairnessRequest{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}
	var resp FairnessResponse
	decodeBody(t, w, &resp)
	if resp.Data == nil || resp.Data.OverallScore != 100 {
		t.Errorf("empty schedule should score 100, got %+v", resp.Data)
	}
}

func TestStatsHandler_Fairness_WithHistory(t *testing.T) {
	h := NewStatsHandler(nil)
	orgID := uuid.New()
	emp := handlerRoster(2)
	tmpl := dayTemplate()

	// 本期两人各一班，但 emp[0] 带着 10 班历史负载
	assignments := []*model.Assignment{
		mustAssignment(t, orgID, emp[0].ID, tmpl, "2025-06-02"),
		mustAssignment(t, orgID, emp[1].ID, tmpl, "2025-06-02"),
	}
	history := []model.HistoricalStat{
		{EmployeeID: emp[0].ID, OrgID: orgID, Counts: model.ShiftCounts{Morning: 10, Total: 10}},
	}

	w := postJSON(t, h.Fairness, "/api/v1/stats/fairness", FairnessRequest{
		Assignments: assignments,
		Employees:   emp,
		History:     history,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp FairnessResponse
	decodeBody(t, w, &resp)
	if resp.Data.LoadGini != 0 {
		t.Errorf("LoadGini = %v, want 0 (本期负载均等)", resp.Data.LoadGini)
	}
	if resp.Data.CumulativeGini <= 0 {
		t.Errorf("CumulativeGini = %v, want > 0 (历史负载不均)", resp.Data.CumulativeGini)
	}
}

func TestStatsHandler_Coverage(t *testing.T) {
	h := NewStatsHandler(nil)
	orgID := uuid.New()
	emp := handlerRoster(2)
	tmpl := dayTemplate()

	w := postJSON(t, h.Coverage, "/api/v1/stats/coverage", CoverageRequest{
		StartDate: "2025-06-02",
		EndDate:   "2025-06-03",
		Rules:     &model.Rules{DayCoverage: 1},
		Assignments: []*model.Assignment{
			mustAssignment(t, orgID, emp[0].ID, tmpl, "2025-06-02"),
			mustAssignment(t, orgID, emp[1].ID, tmpl, "2025-06-03"),
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp CoverageResponse
	decodeBody(t, w, &resp)
	if !resp.Success || resp.Data == nil {
		t.Fatalf("Success = %v, Data = %v", resp.Success, resp.Data)
	}
	if resp.Data.TotalSlots != 2 {
		t.Errorf("TotalSlots = %d, want 2", resp.Data.TotalSlots)
	}
	if resp.Data.AssignedSlots != 2 {
		t.Errorf("AssignedSlots = %d, want 2", resp.Data.AssignedSlots)
	}
	if resp.Data.OverallRate != 100 {
		t.Errorf("OverallRate = %v, want 100", resp.Data.OverallRate)
	}
	if len(resp.Data.Shortfalls) != 0 {
		t.Errorf("Shortfalls = %+v, want none", resp.Data.Shortfalls)
	}
}

func TestStatsHandler_Coverage_Shortfall(t *testing.T) {
	h := NewStatsHandler(nil)
	orgID := uuid.New()
	emp := handlerRoster(1)
	tmpl := dayTemplate()

	w := postJSON(t, h.Coverage, "/api/v1/stats/coverage", CoverageRequest{
		StartDate: "2025-06-02",
		EndDate:   "2025-06-03",
		Rules:     &model.Rules{DayCoverage: 2},
		Assignments: []*model.Assignment{
			mustAssignment(t, orgID, emp[0].ID, tmpl, "2025-06-02"),
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body=%s)", w.Code, w.Body.String())
	}

	var resp CoverageResponse
	decodeBody(t, w, &resp)
	if resp.Data.TotalSlots != 4 {
		t.Errorf("TotalSlots = %d, want 4", resp.Data.TotalSlots)
	}
	if resp.Data.AssignedSlots != 1 {
		t.Errorf("AssignedSlots = %d, want 1", resp.Data.AssignedSlots)
	}
	if resp.Data.OverallRate != 25 {
		t.Errorf("OverallRate = %v, want 25", resp.Data.OverallRate)
	}
	if len(resp.Data.Shortfalls) != 2 {
		t.Fatalf("Shortfalls = %d, want 2", len(resp.Data.Shortfalls))
	}
	if resp.Data.Shortfalls[0].Date != "2025-06-02" || resp.Data.Shortfalls[0].Missing != 1 {
		t.Errorf("shortfall[0] = %+v, want 2025-06-02 missing 1", resp.Data.Shortfalls[0])
	}
	if resp.Data.Shortfalls[1].Date != "2025-06-03" || resp.Data.Shortfalls[1].Missing != 2 {
		t.Errorf("shortfall[1] = %+v, want 2025-06-03 missing 2", resp.Data.Shortfalls[1])
	}
}

func TestStatsHandler_Coverage_MissingRange(t *testing.T) {
	h := NewStatsHandler(nil)
	w := postJSON(t, h.Coverage, "/api/v1/stats/coverage", CoverageRequest{
		Rules: &model.Rules{DayCoverage: 1},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (body=%s)", w.Code, w.Body.String())
	}
	assertErrorCode(t, w, "INVALID_INPUT")
}
