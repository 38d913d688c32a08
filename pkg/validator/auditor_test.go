package validator

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
)

func TestAuditor_DetectAll_CleanSchedule(t *testing.T) {
	empID := uuid.New()
	employees := map[uuid.UUID]*model.Employee{
		empID: {BaseModel: model.BaseModel{ID: empID}, Name: "员工1"},
	}

	assignments := []*model.Assignment{
		auditAssignment(empID, "2025-06-09", "08:00", 8, model.ShiftMorning),
		auditAssignment(empID, "2025-06-10", "08:00", 8, model.ShiftMorning),
	}

	rules := model.DefaultRules()
	auditor := NewAuditor(&rules)
	conflicts := auditor.DetectAll(assignments, employees, nil, nil)

	// 正常排班不应有冲突
	if len(conflicts) != 0 {
		t.Errorf("Expected 0 conflicts, got %d", len(conflicts))
		for _, c := range conflicts {
			t.Logf("Conflict: %s", c.Message)
		}
	}
}

func TestAuditor_DetectDoubleBooking(t *testing.T) {
	empID := uuid.New()
	employees := map[uuid.UUID]*model.Employee{
		empID: {BaseModel: model.BaseModel{ID: empID}, Name: "员工1"},
	}

	// 同一天两个班次
	assignments := []*model.Assignment{
		auditAssignment(empID, "2025-06-09", "08:00", 6, model.ShiftMorning),
		auditAssignment(empID, "2025-06-09", "16:00", 6, model.ShiftEvening),
	}

	rules := model.DefaultRules()
	rules.MinRestHours = 0
	auditor := NewAuditor(&rules)
	conflicts := auditor.DetectAll(assignments, employees, nil, nil)

	if !hasConflictType(conflicts, ConflictDoubleBooking) {
		t.Error("应检出同日多班冲突")
	}
}

func TestAuditor_DetectRestGap(t *testing.T) {
	empID := uuid.New()
	employees := map[uuid.UUID]*model.Employee{
		empID: {BaseModel: model.BaseModel{ID: empID}, Name: "员工1"},
	}

	// 夜班 22:00-06:00 后紧接次日 08:00 早班，仅休息 2 小时
	assignments := []*model.Assignment{
		auditAssignment(empID, "2025-06-09", "22:00", 8, model.ShiftNight),
		auditAssignment(empID, "2025-06-10", "08:00", 8, model.ShiftMorning),
	}

	rules := model.DefaultRules()
	rules.MinRestHours = 11
	rules.MaxConsecutiveNights = 0
	auditor := NewAuditor(&rules)
	conflicts := auditor.DetectAll(assignments, employees, nil, nil)

	if !hasConflictType(conflicts, ConflictRestTime) {
		t.Error("应检出休息不足冲突")
	}

	// 限制为 0 时不检查
	rules.MinRestHours = 0
	auditor = NewAuditor(&rules)
	conflicts = auditor.DetectAll(assignments, employees, nil, nil)
	if hasConflictType(conflicts, ConflictRestTime) {
		t.Error("休息限制为 0 时不应检出冲突")
	}
}

func TestAuditor_DetectOverlap(t *testing.T) {
	empID := uuid.New()
	employees := map[uuid.UUID]*model.Employee{
		empID: {BaseModel: model.BaseModel{ID: empID}, Name: "员工1"},
	}

	// 跨午夜长班 20:00-10:00 与次日早班 08:00 重叠
	assignments := []*model.Assignment{
		auditAssignment(empID, "2025-06-09", "20:00", 14, model.ShiftCustom),
		auditAssignment(empID, "2025-06-10", "08:00", 8, model.ShiftMorning),
	}

	rules := model.DefaultRules()
	auditor := NewAuditor(&rules)
	conflicts := auditor.DetectAll(assignments, employees, nil, nil)

	if !hasConflictType(conflicts, ConflictOverlap) {
		t.Error("应检出时间重叠冲突")
	}
}

func TestAuditor_DetectNightStreak(t *testing.T) {
	empID := uuid.New()
	employees := map[uuid.UUID]*model.Employee{
		empID: {BaseModel: model.BaseModel{ID: empID}, Name: "员工1"},
	}

	var assignments []*model.Assignment
	for i := 9; i <= 12; i++ {
		date := time.Date(2025, 6, i, 0, 0, 0, 0, time.UTC).Format(model.DateLayout)
		assignments = append(assignments, auditAssignment(empID, date, "22:00", 8, model.ShiftNight))
	}

	rules := model.DefaultRules()
	rules.MaxConsecutiveNights = 3
	auditor := NewAuditor(&rules)
	conflicts := auditor.DetectAll(assignments, employees, nil, nil)

	if !hasConflictType(conflicts, ConflictNightStreak) {
		t.Error("连续 4 天夜班应检出超限冲突")
	}
}

func TestAuditor_DetectLeaveAndHoliday(t *testing.T) {
	empID := uuid.New()
	employees := map[uuid.UUID]*model.Employee{
		empID: {BaseModel: model.BaseModel{ID: empID}, Name: "员工1"},
	}

	assignments := []*model.Assignment{
		auditAssignment(empID, "2025-06-10", "08:00", 8, model.ShiftMorning),
		auditAssignment(empID, "2025-06-12", "08:00", 8, model.ShiftMorning),
	}

	leaves := model.LeavesByDate([]model.LeaveRecord{
		{EmployeeID: empID, LeaveType: "annual", StartDate: "2025-06-10", EndDate: "2025-06-10", Status: "approved"},
	})
	holidays := model.HolidaysByDate([]model.HolidayRecord{
		{Date: "2025-06-12", Name: "端午节"},
	})

	rules := model.DefaultRules()
	auditor := NewAuditor(&rules)
	conflicts := auditor.DetectAll(assignments, employees, leaves, holidays)

	if !hasConflictType(conflicts, ConflictLeave) {
		t.Error("请假日排班应检出冲突")
	}
	if !hasConflictType(conflicts, ConflictHoliday) {
		t.Error("节假日排班应检出冲突")
	}

	// 规则允许节假日排班时不检查节假日
	rules.ExcludeHolidays = false
	auditor = NewAuditor(&rules)
	conflicts = auditor.DetectAll(assignments, employees, leaves, holidays)
	if hasConflictType(conflicts, ConflictHoliday) {
		t.Error("允许节假日排班时不应检出节假日冲突")
	}
}

// 辅助函数

func auditAssignment(empID uuid.UUID, date, start string, hours int, shiftType model.ShiftType) *model.Assignment {
	startTime, _ := time.Parse("2006-01-02 15:04", date+" "+start)
	return &model.Assignment{
		BaseModel:  model.BaseModel{ID: uuid.New()},
		EmployeeID: empID,
		Date:       date,
		ShiftType:  shiftType,
		StartTime:  startTime,
		EndTime:    startTime.Add(time.Duration(hours) * time.Hour),
		Status:     model.StatusScheduled,
	}
}

func hasConflictType(conflicts []Conflict, t ConflictType) bool {
	for _, c := range conflicts {
		if c.Type == t {
			return true
		}
	}
	return false
}
