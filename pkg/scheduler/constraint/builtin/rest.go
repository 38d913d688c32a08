package builtin

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler/constraint"
)

// MinRestConstraint 最短休息间隔
// 相邻两个班次之间的间隔不得低于 MinRestHours 小时
type MinRestConstraint struct {
	*BaseConstraint
}

// NewMinRestConstraint 创建最短休息间隔约束
func NewMinRestConstraint() *MinRestConstraint {
	return &MinRestConstraint{
		BaseConstraint: NewBaseConstraint(
			"最短休息间隔",
			constraint.TypeMinRestHours,
			constraint.CategoryHard,
			20,
		),
	}
}

// EvaluateAssignment 候选班次与相邻已排班次之间均需满足最短休息
// 候选日期可能插在两个已排日期之间，前后间隔都要检查
func (c *MinRestConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	minRest := c.minRest(ctx)
	if minRest <= 0 {
		return true, 0
	}

	prev, next := ctx.Neighbors(a.EmployeeID, a.Date)
	if prev != nil && restHours(prev.EndTime, a.StartTime) < float64(minRest) {
		return false, c.Weight()
	}
	if next != nil && restHours(a.EndTime, next.StartTime) < float64(minRest) {
		return false, c.Weight()
	}
	return true, 0
}

// Evaluate 检查最终排班中每位员工相邻班次的间隔
func (c *MinRestConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	minRest := c.minRest(ctx)
	if minRest <= 0 {
		return true, 0, nil
	}

	byEmployee := make(map[uuid.UUID][]*model.Assignment)
	for _, a := range ctx.Assignments {
		byEmployee[a.EmployeeID] = append(byEmployee[a.EmployeeID], a)
	}

	var details []constraint.ViolationDetail
	penalty := 0

	for empID, list := range byEmployee {
		sort.Slice(list, func(i, j int) bool {
			return list[i].StartTime.Before(list[j].StartTime)
		})
		for i := 1; i < len(list); i++ {
			gap := restHours(list[i-1].EndTime, list[i].StartTime)
			if gap < float64(minRest) {
				penalty += c.Weight()
				details = append(details, c.CreateViolation(
					empID, list[i].Date,
					fmt.Sprintf("%s 与 %s 的班次间隔 %.1f 小时，低于最短休息 %d 小时", list[i-1].Date, list[i].Date, gap, minRest),
					c.Weight(),
				))
			}
		}
	}

	return len(details) == 0, penalty, details
}

func (c *MinRestConstraint) minRest(ctx *constraint.Context) int {
	if ctx.Rules == nil {
		return 0
	}
	return ctx.Rules.MinRestHours
}

// restHours 前一班结束到后一班开始的间隔小时数
func restHours(end, start time.Time) float64 {
	return start.Sub(end).Hours()
}
