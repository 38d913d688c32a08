// Package model 定义排班引擎的核心数据模型
package model

import (
	"fmt"

	"github.com/zhipai/zhipai/pkg/errors"
)

// RotationMode 轮换策略
type RotationMode string

const (
	RotationBalanced        RotationMode = "balanced"         // 均衡轮换（当前唯一生效模式）
	RotationStrictAlternate RotationMode = "strict_alternate" // 严格交替（保留，按均衡执行）
	RotationRandom          RotationMode = "random"           // 随机（保留，按均衡执行）
)

// IsValid 检查轮换策略是否合法
func (m RotationMode) IsValid() bool {
	switch m {
	case RotationBalanced, RotationStrictAlternate, RotationRandom:
		return true
	default:
		return false
	}
}

// PermitTemplateName 许可班模板名称约定
// 许可班覆盖从名称为 permit 的自定义模板中取槽位
const PermitTemplateName = "permit"

// Rules 排班规则（值对象，一次生成请求构建一次）
type Rules struct {
	// 每个工作日各班次类型所需人数
	DayCoverage     int `json:"day_shift_coverage"`
	EveningCoverage int `json:"evening_shift_coverage"`
	NightCoverage   int `json:"night_shift_coverage"`
	PermitCoverage  int `json:"permit_shift_coverage"`
	CustomCoverage  int `json:"custom_shift_coverage"`

	// 硬约束参数
	MaxConsecutiveNights int `json:"max_consecutive_nights"` // 0 = 不限
	MinRestHours         int `json:"min_rest_hours"`         // 0 = 不检查

	// 周班次软目标（保留字段，生成路径不消费）
	MinShiftsPerWeek int `json:"min_shifts_per_week"`
	MaxShiftsPerWeek int `json:"max_shifts_per_week"`

	// 日期过滤
	ExcludeWeekends bool `json:"exclude_weekends"`
	ExcludeHolidays bool `json:"exclude_holidays"`

	// 上周重夜班的员工本周降低夜班频次
	AlternateWeekShifts bool `json:"alternate_week_shifts"`

	// 轮换策略（仅 balanced 生效）
	PreferredShiftRotation RotationMode `json:"preferred_shift_rotation"`

	// true: 公平性加权抽样；false: 朴素最少班次优先
	EnableEqualDistribution bool `json:"enable_equal_distribution"`
}

// DefaultRules 返回默认排班规则
func DefaultRules() Rules {
	return Rules{
		DayCoverage:             1,
		EveningCoverage:         1,
		NightCoverage:           1,
		MaxConsecutiveNights:    3,
		MinRestHours:            11,
		ExcludeWeekends:         false,
		ExcludeHolidays:         true,
		AlternateWeekShifts:     true,
		PreferredShiftRotation:  RotationBalanced,
		EnableEqualDistribution: true,
	}
}

// Validate 校验排班规则
// 负数限制、未知轮换策略在此拒绝，不进入生成流程
func (r *Rules) Validate() error {
	ve := &errors.ValidationErrors{}

	coverages := []struct {
		field string
		value int
	}{
		{"day_shift_coverage", r.DayCoverage},
		{"evening_shift_coverage", r.EveningCoverage},
		{"night_shift_coverage", r.NightCoverage},
		{"permit_shift_coverage", r.PermitCoverage},
		{"custom_shift_coverage", r.CustomCoverage},
	}
	for _, c := range coverages {
		if c.value < 0 {
			ve.Add(c.field, "覆盖人数不能为负数")
		}
	}

	if r.MaxConsecutiveNights < 0 {
		ve.Add("max_consecutive_nights", "连续夜班上限不能为负数")
	}
	if r.MinRestHours < 0 {
		ve.Add("min_rest_hours", "最短休息小时数不能为负数")
	}
	if r.MinShiftsPerWeek < 0 {
		ve.Add("min_shifts_per_week", "每周最少班次不能为负数")
	}
	if r.MaxShiftsPerWeek < 0 {
		ve.Add("max_shifts_per_week", "每周最多班次不能为负数")
	}
	if r.MinShiftsPerWeek > 0 && r.MaxShiftsPerWeek > 0 && r.MinShiftsPerWeek > r.MaxShiftsPerWeek {
		ve.Add("min_shifts_per_week", "每周最少班次不能大于每周最多班次")
	}

	if r.PreferredShiftRotation == "" {
		r.PreferredShiftRotation = RotationBalanced
	} else if !r.PreferredShiftRotation.IsValid() {
		ve.Add("preferred_shift_rotation", fmt.Sprintf("未知轮换策略 '%s'", r.PreferredShiftRotation))
	}

	if ve.HasErrors() {
		return ve.ToAppError()
	}
	return nil
}

// CoverageFor 返回某班次类型的覆盖人数
// 许可班覆盖单独走 PermitCoverage，不在此分支内
func (r *Rules) CoverageFor(t ShiftType) int {
	switch t {
	case ShiftMorning:
		return r.DayCoverage
	case ShiftEvening:
		return r.EveningCoverage
	case ShiftNight:
		return r.NightCoverage
	case ShiftCustom:
		return r.CustomCoverage
	default:
		return 0
	}
}

// HasAnyCoverage 检查是否配置了任何覆盖人数
func (r *Rules) HasAnyCoverage() bool {
	return r.DayCoverage > 0 || r.EveningCoverage > 0 || r.NightCoverage > 0 ||
		r.PermitCoverage > 0 || r.CustomCoverage > 0
}
