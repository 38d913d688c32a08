// Package model 定义排班引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/errors"
)

// Period 排班周期：按时间顺序排列的工作日序列
// 顺序对休息时长、连续夜班检查有意义，不可打乱
type Period struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Dates     []string `json:"dates"` // 过滤周末/节假日后的工作日，升序
}

// BuildPeriod 根据日期范围和规则构建排班周期
// 按规则剔除周末与节假日；起止倒置返回校验错误；空结果合法
func BuildPeriod(startDate, endDate string, rules *Rules, holidays []HolidayRecord) (*Period, error) {
	start, err := time.Parse(DateLayout, startDate)
	if err != nil {
		return nil, errors.InvalidInput("start_date", fmt.Sprintf("日期格式无效 '%s'，应为 YYYY-MM-DD", startDate))
	}
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return nil, errors.InvalidInput("end_date", fmt.Sprintf("日期格式无效 '%s'，应为 YYYY-MM-DD", endDate))
	}
	if start.After(end) {
		return nil, errors.New(errors.CodeInvalidTimeRange, "开始日期不能晚于结束日期")
	}

	holidaySet := make(map[string]bool, len(holidays))
	for _, h := range holidays {
		holidaySet[h.Date] = true
	}

	period := &Period{
		StartDate: startDate,
		EndDate:   endDate,
		Dates:     make([]string, 0),
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format(DateLayout)
		if rules != nil && rules.ExcludeWeekends && IsWeekend(dateStr) {
			continue
		}
		if rules != nil && rules.ExcludeHolidays && holidaySet[dateStr] {
			continue
		}
		period.Dates = append(period.Dates, dateStr)
	}

	return period, nil
}

// WorkingDays 返回周期内工作日数量（即每位员工的公平目标班次数）
func (p *Period) WorkingDays() int {
	return len(p.Dates)
}

// Contains 检查日期是否属于周期
func (p *Period) Contains(date string) bool {
	for _, d := range p.Dates {
		if d == date {
			return true
		}
	}
	return false
}

// IsEmpty 检查周期是否为空
func (p *Period) IsEmpty() bool {
	return p == nil || len(p.Dates) == 0
}

// 请假审批状态
const (
	LeaveApproved = "approved"
	LeavePending  = "pending"
	LeaveRejected = "rejected"
)

// LeaveRecord 请假记录（闭区间）
type LeaveRecord struct {
	BaseModel
	OrgID      uuid.UUID `json:"org_id" db:"org_id"`
	EmployeeID uuid.UUID `json:"employee_id" db:"employee_id"`
	LeaveType  string    `json:"leave_type" db:"leave_type"` // annual/sick/personal/...
	StartDate  string    `json:"start_date" db:"start_date"`
	EndDate    string    `json:"end_date" db:"end_date"`
	Status     string    `json:"status" db:"status"` // approved/pending/rejected
	Reason     string    `json:"reason,omitempty" db:"reason"`
}

// Covers 检查请假记录是否覆盖某日期
func (l *LeaveRecord) Covers(date string) bool {
	return l.StartDate <= date && date <= l.EndDate
}

// LeaveSet 按日期展开的请假集合：date -> 请假员工集合
type LeaveSet map[string]map[uuid.UUID]bool

// OnLeave 检查员工某日是否请假
func (s LeaveSet) OnLeave(employeeID uuid.UUID, date string) bool {
	return s[date][employeeID]
}

// LeavesByDate 把请假记录展开为按日成员集合
// 展开范围过大时由调用方自行限定日期窗口；记录日期非法则跳过该条
func LeavesByDate(records []LeaveRecord) LeaveSet {
	set := make(LeaveSet)
	for _, r := range records {
		start, err := time.Parse(DateLayout, r.StartDate)
		if err != nil {
			continue
		}
		end, err := time.Parse(DateLayout, r.EndDate)
		if err != nil || end.Before(start) {
			continue
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			dateStr := d.Format(DateLayout)
			if set[dateStr] == nil {
				set[dateStr] = make(map[uuid.UUID]bool)
			}
			set[dateStr][r.EmployeeID] = true
		}
	}
	return set
}

// ApprovedLeaves 过滤出已批准的请假记录
// LeavesByDate 不区分审批状态，调用方先过滤再展开
func ApprovedLeaves(records []LeaveRecord) []LeaveRecord {
	approved := make([]LeaveRecord, 0, len(records))
	for _, r := range records {
		if r.Status == LeaveApproved {
			approved = append(approved, r)
		}
	}
	return approved
}

// HolidayRecord 节假日记录
type HolidayRecord struct {
	BaseModel
	Date   string `json:"date" db:"date"` // YYYY-MM-DD
	Name   string `json:"name" db:"name"`
	Region string `json:"region,omitempty" db:"region"`
}

// HolidaySet 按日期索引的节假日集合
type HolidaySet map[string][]HolidayRecord

// IsHoliday 检查某日是否为节假日
func (s HolidaySet) IsHoliday(date string) bool {
	return len(s[date]) > 0
}

// HolidaysByDate 把节假日记录按日期索引
func HolidaysByDate(records []HolidayRecord) HolidaySet {
	set := make(HolidaySet)
	for _, r := range records {
		set[r.Date] = append(set[r.Date], r)
	}
	return set
}
