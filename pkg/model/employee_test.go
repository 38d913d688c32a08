package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestEmployee_IsActive(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected bool
	}{
		{"active员工", EmployeeActive, true},
		{"inactive员工", EmployeeInactive, false},
		{"长假员工", EmployeeOnLeave, false},
		{"空状态", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Employee{Status: tt.status}
			if result := e.IsActive(); result != tt.expected {
				t.Errorf("IsActive() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestEmployee_BelongsToBranch(t *testing.T) {
	branchA := uuid.New()
	branchB := uuid.New()
	branchC := uuid.New()

	emp := &Employee{
		BaseModel: NewBaseModel(),
		Name:      "张三",
		Home:      &OrgAssignment{BranchID: &branchA},
		Secondary: []OrgAssignment{{BranchID: &branchB}},
	}

	// 主归属
	if !emp.BelongsToBranch(branchA) {
		t.Error("should belong to home branch")
	}
	// 兼岗归属
	if !emp.BelongsToBranch(branchB) {
		t.Error("should belong to secondary branch")
	}
	if emp.BelongsToBranch(branchC) {
		t.Error("should not belong to unrelated branch")
	}

	// 无归属信息的员工不属于任何门店
	bare := &Employee{}
	if bare.BelongsToBranch(branchA) {
		t.Error("employee without assignments should not belong to any branch")
	}
}

func TestEmployee_BelongsToDepartmentAndTeam(t *testing.T) {
	deptA := uuid.New()
	teamA := uuid.New()
	teamB := uuid.New()

	emp := &Employee{
		Home:      &OrgAssignment{DepartmentID: &deptA, TeamID: &teamA},
		Secondary: []OrgAssignment{{TeamID: &teamB}},
	}

	if !emp.BelongsToDepartment(deptA) {
		t.Error("should belong to home department")
	}
	if emp.BelongsToDepartment(uuid.New()) {
		t.Error("should not belong to unknown department")
	}
	if !emp.BelongsToTeam(teamA) || !emp.BelongsToTeam(teamB) {
		t.Error("should belong to both home and secondary teams")
	}
	if emp.BelongsToTeam(uuid.New()) {
		t.Error("should not belong to unknown team")
	}
}

func TestShiftCounts(t *testing.T) {
	var c ShiftCounts
	c.Add(ShiftNight)
	c.Add(ShiftNight)
	c.Add(ShiftMorning)

	if c.Night != 2 {
		t.Errorf("Night = %d, expected 2", c.Night)
	}
	if c.Total != 3 {
		t.Errorf("Total = %d, expected 3", c.Total)
	}
	if c.CountFor(ShiftNight) != 2 {
		t.Errorf("CountFor(night) = %d, expected 2", c.CountFor(ShiftNight))
	}
	if c.CountFor(ShiftEvening) != 0 {
		t.Errorf("CountFor(evening) = %d, expected 0", c.CountFor(ShiftEvening))
	}
}

func TestHistoricalByEmployee(t *testing.T) {
	empA := uuid.New()
	empB := uuid.New()
	stats := []HistoricalStat{
		{EmployeeID: empA, Counts: ShiftCounts{Night: 5, Total: 10}},
		{EmployeeID: empB, Counts: ShiftCounts{Morning: 8, Total: 8}},
	}

	m := HistoricalByEmployee(stats)
	if m[empA] == nil || m[empA].Counts.Night != 5 {
		t.Error("employee A stats mismatch")
	}
	if m[empB] == nil || m[empB].Counts.Morning != 8 {
		t.Error("employee B stats mismatch")
	}
}

func TestWeekStats_NightsFor(t *testing.T) {
	emp := uuid.New()
	week := WeekStats{emp: ShiftCounts{Night: 4, Total: 5}}

	if week.NightsFor(emp) != 4 {
		t.Errorf("NightsFor() = %d, expected 4", week.NightsFor(emp))
	}
	// 无记录员工返回0
	if week.NightsFor(uuid.New()) != 0 {
		t.Error("unknown employee should have 0 nights")
	}
}
