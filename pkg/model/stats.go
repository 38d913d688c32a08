// Package model 定义排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// ShiftCounts 按班次类型统计的班次数
type ShiftCounts struct {
	Morning int `json:"morning"`
	Evening int `json:"evening"`
	Night   int `json:"night"`
	Custom  int `json:"custom"`
	Total   int `json:"total"`
}

// CountFor 返回某班次类型的计数
func (c ShiftCounts) CountFor(t ShiftType) int {
	switch t {
	case ShiftMorning:
		return c.Morning
	case ShiftEvening:
		return c.Evening
	case ShiftNight:
		return c.Night
	case ShiftCustom:
		return c.Custom
	default:
		return 0
	}
}

// Add 累加某班次类型的计数
func (c *ShiftCounts) Add(t ShiftType) {
	switch t {
	case ShiftMorning:
		c.Morning++
	case ShiftEvening:
		c.Evening++
	case ShiftNight:
		c.Night++
	case ShiftCustom:
		c.Custom++
	default:
		return
	}
	c.Total++
}

// HistoricalStat 员工历史班次统计（参考窗口内，仅作输入信号，引擎不修改）
type HistoricalStat struct {
	EmployeeID  uuid.UUID   `json:"employee_id" db:"employee_id"`
	OrgID       uuid.UUID   `json:"org_id" db:"org_id"`
	Counts      ShiftCounts `json:"counts" db:"counts"`
	WindowStart string      `json:"window_start" db:"window_start"` // YYYY-MM-DD
	WindowEnd   string      `json:"window_end" db:"window_end"`     // YYYY-MM-DD
}

// HistoricalByEmployee 把历史统计按员工索引
func HistoricalByEmployee(stats []HistoricalStat) map[uuid.UUID]*HistoricalStat {
	m := make(map[uuid.UUID]*HistoricalStat, len(stats))
	for i := range stats {
		m[stats[i].EmployeeID] = &stats[i]
	}
	return m
}

// WeekStats 员工上周班次统计：employeeID -> 各类型计数
// 用于周交替检查（上周夜班 >= 3 的员工本周限制夜班）
type WeekStats map[uuid.UUID]ShiftCounts

// NightsFor 返回员工上周夜班数
func (w WeekStats) NightsFor(employeeID uuid.UUID) int {
	return w[employeeID].Night
}
