package builtin

import (
	"fmt"

	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler/constraint"
)

// 周交替阈值
// 上周夜班达到 heavyNightWeek 的员工本期夜班不超过 lightNightCap
const (
	heavyNightWeek = 3
	lightNightCap  = 2
)

// WeekAlternationConstraint 夜班周交替
// 规则 AlternateWeekShifts 开启时生效：上周重夜班的员工本期转轻夜班
type WeekAlternationConstraint struct {
	*BaseConstraint
}

// NewWeekAlternationConstraint 创建夜班周交替约束
func NewWeekAlternationConstraint() *WeekAlternationConstraint {
	return &WeekAlternationConstraint{
		BaseConstraint: NewBaseConstraint(
			"夜班周交替",
			constraint.TypeWeekAlternation,
			constraint.CategoryHard,
			30,
		),
	}
}

// EvaluateAssignment 上周夜班≥3 且本期夜班已达 2 的员工拒绝再排夜班
func (c *WeekAlternationConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if !c.enabled(ctx) || !a.IsNight() {
		return true, 0
	}
	if ctx.PrevWeek.NightsFor(a.EmployeeID) < heavyNightWeek {
		return true, 0
	}
	if ctx.TypeCountsFor(a.EmployeeID).Night >= lightNightCap {
		return false, c.Weight()
	}
	return true, 0
}

// Evaluate 检查最终排班中上周重夜班员工的本期夜班总数
func (c *WeekAlternationConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	if !c.enabled(ctx) {
		return true, 0, nil
	}

	var details []constraint.ViolationDetail
	penalty := 0

	for _, emp := range ctx.Employees {
		if ctx.PrevWeek.NightsFor(emp.ID) < heavyNightWeek {
			continue
		}
		nights := ctx.TypeCountsFor(emp.ID).Night
		if nights > lightNightCap {
			p := c.Weight() * (nights - lightNightCap)
			penalty += p
			details = append(details, c.CreateViolation(
				emp.ID, "",
				fmt.Sprintf("上周夜班 %d 天，本期夜班 %d 天，超过交替上限 %d", ctx.PrevWeek.NightsFor(emp.ID), nights, lightNightCap),
				p,
			))
		}
	}

	return len(details) == 0, penalty, details
}

func (c *WeekAlternationConstraint) enabled(ctx *constraint.Context) bool {
	return ctx.Rules != nil && ctx.Rules.AlternateWeekShifts
}
