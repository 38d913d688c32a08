// Package model 定义排班引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/errors"
)

// ShiftType 班次类型（封闭枚举，禁止裸字符串比较）
type ShiftType string

const (
	ShiftMorning ShiftType = "morning" // 早班/白班
	ShiftEvening ShiftType = "evening" // 晚班
	ShiftNight   ShiftType = "night"   // 夜班
	ShiftCustom  ShiftType = "custom"  // 自定义班次
)

// AllShiftTypes 返回全部班次类型（按槽位构建顺序）
func AllShiftTypes() []ShiftType {
	return []ShiftType{ShiftMorning, ShiftEvening, ShiftNight, ShiftCustom}
}

// ParseShiftType 解析班次类型字符串
func ParseShiftType(s string) (ShiftType, error) {
	switch ShiftType(s) {
	case ShiftMorning:
		return ShiftMorning, nil
	case ShiftEvening:
		return ShiftEvening, nil
	case ShiftNight:
		return ShiftNight, nil
	case ShiftCustom:
		return ShiftCustom, nil
	default:
		return "", errors.InvalidInput("shift_type", fmt.Sprintf("未知班次类型 '%s'", s))
	}
}

// IsValid 检查班次类型是否合法
func (t ShiftType) IsValid() bool {
	switch t {
	case ShiftMorning, ShiftEvening, ShiftNight, ShiftCustom:
		return true
	default:
		return false
	}
}

// ShiftTemplate 班次模板（参考数据，不归属排班表）
type ShiftTemplate struct {
	BaseModel
	OrgID       uuid.UUID `json:"org_id" db:"org_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	Type        ShiftType `json:"shift_type" db:"shift_type"`
	StartTime   string    `json:"start_time" db:"start_time"` // HH:MM
	EndTime     string    `json:"end_time" db:"end_time"`     // HH:MM（早于开始时刻表示跨午夜）
	Color       string    `json:"color,omitempty" db:"color"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}

// Validate 校验班次模板
// 非法时刻、未知班次类型在此拒绝，不进入生成流程
func (s *ShiftTemplate) Validate() error {
	ve := &errors.ValidationErrors{}
	if s.Name == "" {
		ve.Add("name", "模板名称不能为空")
	}
	if !s.Type.IsValid() {
		ve.Add("shift_type", fmt.Sprintf("未知班次类型 '%s'", s.Type))
	}
	if _, err := time.Parse(TimeLayout, s.StartTime); err != nil {
		ve.Add("start_time", fmt.Sprintf("时刻格式无效 '%s'，应为 HH:MM", s.StartTime))
	}
	if _, err := time.Parse(TimeLayout, s.EndTime); err != nil {
		ve.Add("end_time", fmt.Sprintf("时刻格式无效 '%s'，应为 HH:MM", s.EndTime))
	}
	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// IsOvernight 检查班次是否跨午夜（结束时刻不晚于开始时刻）
func (s *ShiftTemplate) IsOvernight() bool {
	start, err1 := time.Parse(TimeLayout, s.StartTime)
	end, err2 := time.Parse(TimeLayout, s.EndTime)
	if err1 != nil || err2 != nil {
		return false
	}
	return !end.After(start)
}

// StartOn 返回班次在指定日期的开始时间戳
func (s *ShiftTemplate) StartOn(date string) (time.Time, error) {
	return parseTimeOnDate(date, s.StartTime)
}

// EndOn 返回班次在指定日期的结束时间戳（跨午夜班次落在次日）
func (s *ShiftTemplate) EndOn(date string) (time.Time, error) {
	end, err := parseTimeOnDate(date, s.EndTime)
	if err != nil {
		return time.Time{}, err
	}
	start, err := parseTimeOnDate(date, s.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return end, nil
}

// WorkingHours 返回班次时长（小时）
func (s *ShiftTemplate) WorkingHours() float64 {
	start, err := s.StartOn("2000-01-01")
	if err != nil {
		return 0
	}
	end, err := s.EndOn("2000-01-01")
	if err != nil {
		return 0
	}
	return end.Sub(start).Hours()
}

// parseTimeOnDate 把日期和 HH:MM 组合为时间戳
func parseTimeOnDate(date, clock string) (time.Time, error) {
	return time.Parse(DateLayout+" "+TimeLayout, date+" "+clock)
}

// Assignment 排班分配
// 唯一性约束：同一 (员工, 日期) 至多一条
type Assignment struct {
	BaseModel
	OrgID      uuid.UUID        `json:"org_id" db:"org_id"`
	EmployeeID uuid.UUID        `json:"employee_id" db:"employee_id"`
	TemplateID uuid.UUID        `json:"template_id" db:"template_id"`
	Date       string           `json:"date" db:"date"` // YYYY-MM-DD
	ShiftType  ShiftType        `json:"shift_type" db:"shift_type"`
	StartTime  time.Time        `json:"start_time" db:"start_time"`
	EndTime    time.Time        `json:"end_time" db:"end_time"`
	Status     AssignmentStatus `json:"status" db:"status"`

	// 替班审计：由病假替班产生时记录原员工
	IsReplacement      bool       `json:"is_replacement" db:"is_replacement"`
	OriginalEmployeeID *uuid.UUID `json:"original_employee_id,omitempty" db:"original_employee_id"`
	Notes              string     `json:"notes,omitempty" db:"notes"`
}

// NewAssignment 根据班次模板创建某日的排班分配
func NewAssignment(orgID, employeeID uuid.UUID, tmpl *ShiftTemplate, date string) (*Assignment, error) {
	start, err := tmpl.StartOn(date)
	if err != nil {
		return nil, errors.InvalidTemplate(tmpl.Name, err.Error())
	}
	end, err := tmpl.EndOn(date)
	if err != nil {
		return nil, errors.InvalidTemplate(tmpl.Name, err.Error())
	}

	return &Assignment{
		BaseModel:  NewBaseModel(),
		OrgID:      orgID,
		EmployeeID: employeeID,
		TemplateID: tmpl.ID,
		Date:       date,
		ShiftType:  tmpl.Type,
		StartTime:  start,
		EndTime:    end,
		Status:     StatusScheduled,
	}, nil
}

// WorkingHours 计算工作时长（小时）
func (a *Assignment) WorkingHours() float64 {
	return a.EndTime.Sub(a.StartTime).Hours()
}

// IsOnDate 检查分配是否在指定日期
func (a *Assignment) IsOnDate(date string) bool {
	return a.Date == date
}

// IsNight 检查是否为夜班分配
func (a *Assignment) IsNight() bool {
	return a.ShiftType == ShiftNight
}

// IsPublished 检查分配是否已发布
func (a *Assignment) IsPublished() bool {
	return a.Status == StatusPublished
}
