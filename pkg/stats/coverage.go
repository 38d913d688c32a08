// Package stats 提供排班统计分析
package stats

import (
	"sort"

	"github.com/zhipai/zhipai/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalSlots    int     `json:"total_slots"`    // 目标槽位总数（周期 × 覆盖人数）
	AssignedSlots int     `json:"assigned_slots"` // 已满足的目标槽位数
	OverallRate   float64 `json:"overall_rate"`   // 整体覆盖率 (%)

	// 每日覆盖情况
	DailyCoverage map[string]DayCoverage `json:"daily_coverage"`

	// 按班次类型的覆盖率 (%)
	TypeCoverage map[model.ShiftType]float64 `json:"type_coverage"`

	// 未达到目标覆盖的 (日期, 类型) 明细，按日期升序
	Shortfalls []Shortfall `json:"shortfalls"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date     string  `json:"date"`
	Expected int     `json:"expected"`
	Assigned int     `json:"assigned"`
	Rate     float64 `json:"rate"` // %
	Hours    float64 `json:"hours"`
}

// Shortfall 覆盖缺口
type Shortfall struct {
	Date      string          `json:"date"`
	ShiftType model.ShiftType `json:"shift_type"`
	Expected  int             `json:"expected"`
	Assigned  int             `json:"assigned"`
	Missing   int             `json:"missing"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 对比规则要求的覆盖与实际排班。
// 目标槽位由周期工作日与各类型覆盖人数展开；许可班覆盖计入自定义类型。
// 单元格内超出目标的排班不产生超额覆盖率，只按目标计满。
func (c *CoverageAnalyzer) Analyze(period *model.Period, rules *model.Rules, assignments []*model.Assignment) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage: make(map[string]DayCoverage),
		TypeCoverage:  make(map[model.ShiftType]float64),
		OverallRate:   100,
	}
	if period.IsEmpty() || rules == nil || !rules.HasAnyCoverage() {
		return metrics
	}

	// 实际排班按 (日期, 类型) 计数
	actual := make(map[string]map[model.ShiftType]int)
	hoursByDate := make(map[string]float64)
	for _, a := range assignments {
		if actual[a.Date] == nil {
			actual[a.Date] = make(map[model.ShiftType]int)
		}
		actual[a.Date][a.ShiftType]++
		hoursByDate[a.Date] += a.WorkingHours()
	}

	typeExpected := make(map[model.ShiftType]int)
	typeSatisfied := make(map[model.ShiftType]int)

	for _, date := range period.Dates {
		day := DayCoverage{Date: date, Hours: hoursByDate[date]}

		for _, shiftType := range model.AllShiftTypes() {
			expected := expectedCoverage(rules, shiftType)
			if expected == 0 {
				continue
			}
			assigned := actual[date][shiftType]
			satisfied := assigned
			if satisfied > expected {
				satisfied = expected
			}

			day.Expected += expected
			day.Assigned += assigned
			typeExpected[shiftType] += expected
			typeSatisfied[shiftType] += satisfied
			metrics.TotalSlots += expected
			metrics.AssignedSlots += satisfied

			if assigned < expected {
				metrics.Shortfalls = append(metrics.Shortfalls, Shortfall{
					Date:      date,
					ShiftType: shiftType,
					Expected:  expected,
					Assigned:  assigned,
					Missing:   expected - assigned,
				})
			}
		}

		if day.Expected > 0 {
			satisfied := day.Assigned
			if satisfied > day.Expected {
				satisfied = day.Expected
			}
			day.Rate = float64(satisfied) / float64(day.Expected) * 100
		}
		metrics.DailyCoverage[date] = day
	}

	for shiftType, expected := range typeExpected {
		if expected > 0 {
			metrics.TypeCoverage[shiftType] = float64(typeSatisfied[shiftType]) / float64(expected) * 100
		}
	}
	if metrics.TotalSlots > 0 {
		metrics.OverallRate = float64(metrics.AssignedSlots) / float64(metrics.TotalSlots) * 100
	}

	sort.Slice(metrics.Shortfalls, func(i, j int) bool {
		if metrics.Shortfalls[i].Date != metrics.Shortfalls[j].Date {
			return metrics.Shortfalls[i].Date < metrics.Shortfalls[j].Date
		}
		return metrics.Shortfalls[i].ShiftType < metrics.Shortfalls[j].ShiftType
	})

	return metrics
}

// expectedCoverage 返回某类型的每日目标人数，许可班计入自定义类型
func expectedCoverage(rules *model.Rules, t model.ShiftType) int {
	if t == model.ShiftCustom {
		return rules.CoverageFor(t) + rules.PermitCoverage
	}
	return rules.CoverageFor(t)
}
