package builtin

import (
	"fmt"

	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler/constraint"
)

// TargetCeilingConstraint 目标班次上限
// 员工班次总数达到周期目标后不再分配，目标为 0 时不限制
type TargetCeilingConstraint struct {
	*BaseConstraint
}

// NewTargetCeilingConstraint 创建目标班次上限约束
func NewTargetCeilingConstraint() *TargetCeilingConstraint {
	return &TargetCeilingConstraint{
		BaseConstraint: NewBaseConstraint(
			"目标班次上限",
			constraint.TypeTargetCeiling,
			constraint.CategoryHard,
			10,
		),
	}
}

// EvaluateAssignment 员工已有班次数达到目标则拒绝
func (c *TargetCeilingConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if ctx.Target <= 0 {
		return true, 0
	}
	if ctx.CountFor(a.EmployeeID) >= ctx.Target {
		return false, c.Weight()
	}
	return true, 0
}

// Evaluate 检查最终排班中是否有员工超过目标班次数
func (c *TargetCeilingConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	if ctx.Target <= 0 {
		return true, 0, nil
	}

	var details []constraint.ViolationDetail
	penalty := 0

	for _, emp := range ctx.Employees {
		count := ctx.CountFor(emp.ID)
		if count > ctx.Target {
			p := c.Weight() * (count - ctx.Target)
			penalty += p
			details = append(details, c.CreateViolation(
				emp.ID, "",
				fmt.Sprintf("共 %d 个班次，超过周期目标 %d", count, ctx.Target),
				p,
			))
		}
	}

	return len(details) == 0, penalty, details
}
