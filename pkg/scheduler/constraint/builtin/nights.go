package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler/constraint"
)

// ConsecutiveNightsConstraint 连续夜班上限
// 规则 MaxConsecutiveNights 为 0 时不限制
type ConsecutiveNightsConstraint struct {
	*BaseConstraint
}

// NewConsecutiveNightsConstraint 创建连续夜班上限约束
func NewConsecutiveNightsConstraint() *ConsecutiveNightsConstraint {
	return &ConsecutiveNightsConstraint{
		BaseConstraint: NewBaseConstraint(
			"连续夜班上限",
			constraint.TypeMaxConsecutiveNights,
			constraint.CategoryHard,
			40,
		),
	}
}

// EvaluateAssignment 候选夜班会形成的连续夜班段超限则拒绝
// 候选日期可能落在两段已有夜班之间，前后两段与候选日合并计算
func (c *ConsecutiveNightsConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if !a.IsNight() {
		return true, 0
	}
	limit := c.limit(ctx)
	if limit <= 0 {
		return true, 0
	}

	before, after := ctx.NightStreakAround(a.EmployeeID, a.Date)
	if before+after+1 > limit {
		return false, c.Weight()
	}
	return true, 0
}

// Evaluate 检查最终排班中每位员工的最长连续夜班段
func (c *ConsecutiveNightsConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	limit := c.limit(ctx)
	if limit <= 0 {
		return true, 0, nil
	}

	nightDates := make(map[uuid.UUID]map[string]bool)
	for _, a := range ctx.Assignments {
		if !a.IsNight() {
			continue
		}
		if nightDates[a.EmployeeID] == nil {
			nightDates[a.EmployeeID] = make(map[string]bool)
		}
		nightDates[a.EmployeeID][a.Date] = true
	}

	var details []constraint.ViolationDetail
	penalty := 0

	for empID, dates := range nightDates {
		for date := range dates {
			// 只从段首起算，避免同一段重复计数
			if dates[model.PreviousDate(date)] {
				continue
			}
			streak := 0
			current := date
			for dates[current] {
				streak++
				current = model.NextDate(current)
				if streak > 30 {
					break
				}
			}
			if streak > limit {
				p := c.Weight() * (streak - limit)
				penalty += p
				details = append(details, c.CreateViolation(
					empID, date,
					fmt.Sprintf("自 %s 起连续夜班 %d 天，超过上限 %d", date, streak, limit),
					p,
				))
			}
		}
	}

	return len(details) == 0, penalty, details
}

func (c *ConsecutiveNightsConstraint) limit(ctx *constraint.Context) int {
	if ctx.Rules == nil {
		return 0
	}
	return ctx.Rules.MaxConsecutiveNights
}
