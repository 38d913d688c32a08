package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictDoubleBooking ConflictType = "double_booking" // 同日多班
	ConflictOverlap       ConflictType = "overlap"        // 时间重叠
	ConflictRestTime      ConflictType = "rest_time"      // 休息时间不足
	ConflictNightStreak   ConflictType = "night_streak"   // 连续夜班超限
	ConflictLeave         ConflictType = "leave"          // 请假日仍有排班
	ConflictHoliday       ConflictType = "holiday"        // 节假日仍有排班
)

// Conflict 冲突信息
type Conflict struct {
	Type        ConflictType `json:"type"`
	Severity    string       `json:"severity"` // error/warning
	EmployeeID  uuid.UUID    `json:"employee_id"`
	Date        string       `json:"date"`
	Message     string       `json:"message"`
	Assignments []uuid.UUID  `json:"assignments,omitempty"` // 相关的排班ID
}

// Auditor 排班冲突审计器
// 对已有排班做全量体检，请假、节假日数据变更后可重新审计
type Auditor struct {
	rules *model.Rules
}

// NewAuditor 创建审计器，rules 为空时使用默认规则
func NewAuditor(rules *model.Rules) *Auditor {
	if rules == nil {
		defaults := model.DefaultRules()
		rules = &defaults
	}
	return &Auditor{rules: rules}
}

// DetectAll 检出整份排班中的全部冲突
func (d *Auditor) DetectAll(assignments []*model.Assignment, employees map[uuid.UUID]*model.Employee, leaves model.LeaveSet, holidays model.HolidaySet) []Conflict {
	var conflicts []Conflict

	byEmployee := groupByEmployee(assignments)
	for empID, list := range byEmployee {
		emp := employees[empID]
		if emp == nil {
			continue
		}

		conflicts = append(conflicts, d.detectDoubleBookings(emp, list)...)
		conflicts = append(conflicts, d.detectRestGaps(emp, list)...)
		conflicts = append(conflicts, d.detectNightStreaks(emp, list)...)
		conflicts = append(conflicts, d.detectLeaveConflicts(emp, list, leaves)...)
		conflicts = append(conflicts, d.detectHolidayConflicts(emp, list, holidays)...)
	}

	return conflicts
}

// detectDoubleBookings 检测同一员工同日多个排班
func (d *Auditor) detectDoubleBookings(emp *model.Employee, assignments []*model.Assignment) []Conflict {
	var conflicts []Conflict

	byDate := make(map[string][]*model.Assignment)
	for _, a := range assignments {
		byDate[a.Date] = append(byDate[a.Date], a)
	}

	for date, list := range byDate {
		if len(list) < 2 {
			continue
		}
		ids := make([]uuid.UUID, 0, len(list))
		for _, a := range list {
			ids = append(ids, a.ID)
		}
		conflicts = append(conflicts, Conflict{
			Type:        ConflictDoubleBooking,
			Severity:    "error",
			EmployeeID:  emp.ID,
			Date:        date,
			Message:     fmt.Sprintf("员工 %s 在 %s 有 %d 个排班", emp.Name, date, len(list)),
			Assignments: ids,
		})
	}

	return conflicts
}

// detectRestGaps 检测相邻班次的重叠与休息不足
func (d *Auditor) detectRestGaps(emp *model.Employee, assignments []*model.Assignment) []Conflict {
	var conflicts []Conflict

	if len(assignments) < 2 {
		return conflicts
	}

	sorted := make([]*model.Assignment, len(assignments))
	copy(sorted, assignments)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	for i := 0; i < len(sorted)-1; i++ {
		current := sorted[i]
		next := sorted[i+1]
		gap := next.StartTime.Sub(current.EndTime).Hours()

		if gap < 0 {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictOverlap,
				Severity:    "error",
				EmployeeID:  emp.ID,
				Date:        next.Date,
				Message:     fmt.Sprintf("员工 %s 在 %s 与 %s 的班次时间重叠", emp.Name, current.Date, next.Date),
				Assignments: []uuid.UUID{current.ID, next.ID},
			})
			continue
		}

		if d.rules.MinRestHours > 0 && gap < float64(d.rules.MinRestHours) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictRestTime,
				Severity:    "error",
				EmployeeID:  emp.ID,
				Date:        next.Date,
				Message:     fmt.Sprintf("员工 %s 班次间休息仅 %.1f 小时，少于要求的 %d 小时", emp.Name, gap, d.rules.MinRestHours),
				Assignments: []uuid.UUID{current.ID, next.ID},
			})
		}
	}

	return conflicts
}

// detectNightStreaks 检测连续夜班超限
func (d *Auditor) detectNightStreaks(emp *model.Employee, assignments []*model.Assignment) []Conflict {
	var conflicts []Conflict

	limit := d.rules.MaxConsecutiveNights
	if limit <= 0 {
		return conflicts
	}

	nightDates := make(map[string]bool)
	for _, a := range assignments {
		if a.IsNight() {
			nightDates[a.Date] = true
		}
	}

	for date := range nightDates {
		// 只从段首起算
		if nightDates[model.PreviousDate(date)] {
			continue
		}
		streak := 0
		for cur := date; nightDates[cur]; cur = model.NextDate(cur) {
			streak++
			if streak > 30 {
				break
			}
		}
		if streak > limit {
			conflicts = append(conflicts, Conflict{
				Type:       ConflictNightStreak,
				Severity:   "error",
				EmployeeID: emp.ID,
				Date:       date,
				Message:    fmt.Sprintf("员工 %s 自 %s 起连续 %d 天夜班，超过上限 %d", emp.Name, date, streak, limit),
			})
		}
	}

	return conflicts
}

// detectLeaveConflicts 检测请假日仍有排班
func (d *Auditor) detectLeaveConflicts(emp *model.Employee, assignments []*model.Assignment, leaves model.LeaveSet) []Conflict {
	var conflicts []Conflict

	if leaves == nil {
		return conflicts
	}
	for _, a := range assignments {
		if leaves.OnLeave(emp.ID, a.Date) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictLeave,
				Severity:    "error",
				EmployeeID:  emp.ID,
				Date:        a.Date,
				Message:     fmt.Sprintf("员工 %s 在请假日 %s 仍有排班", emp.Name, a.Date),
				Assignments: []uuid.UUID{a.ID},
			})
		}
	}

	return conflicts
}

// detectHolidayConflicts 检测节假日仍有排班
// 规则允许节假日排班时跳过
func (d *Auditor) detectHolidayConflicts(emp *model.Employee, assignments []*model.Assignment, holidays model.HolidaySet) []Conflict {
	var conflicts []Conflict

	if holidays == nil || !d.rules.ExcludeHolidays {
		return conflicts
	}
	for _, a := range assignments {
		if holidays.IsHoliday(a.Date) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictHoliday,
				Severity:    "warning",
				EmployeeID:  emp.ID,
				Date:        a.Date,
				Message:     fmt.Sprintf("员工 %s 在节假日 %s 仍有排班", emp.Name, a.Date),
				Assignments: []uuid.UUID{a.ID},
			})
		}
	}

	return conflicts
}

// groupByEmployee 按员工分组
func groupByEmployee(assignments []*model.Assignment) map[uuid.UUID][]*model.Assignment {
	result := make(map[uuid.UUID][]*model.Assignment)
	for _, a := range assignments {
		result[a.EmployeeID] = append(result[a.EmployeeID], a)
	}
	return result
}
