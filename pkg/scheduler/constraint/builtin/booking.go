package builtin

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler/constraint"
)

// DoubleBookingConstraint 禁止重复排班
// 同一员工同一天至多一条分配，资格检查的第一道关口
type DoubleBookingConstraint struct {
	*BaseConstraint
}

// NewDoubleBookingConstraint 创建禁止重复排班约束
func NewDoubleBookingConstraint() *DoubleBookingConstraint {
	return &DoubleBookingConstraint{
		BaseConstraint: NewBaseConstraint(
			"禁止重复排班",
			constraint.TypeDoubleBooking,
			constraint.CategoryHard,
			50,
		),
	}
}

// EvaluateAssignment 候选员工当天已有分配则拒绝
func (c *DoubleBookingConstraint) EvaluateAssignment(ctx *constraint.Context, a *model.Assignment) (bool, int) {
	if existing := ctx.AssignmentOn(a.EmployeeID, a.Date); existing != nil && existing.ID != a.ID {
		return false, c.Weight()
	}
	return true, 0
}

// Evaluate 全量扫描 (员工, 日期) 重复项
func (c *DoubleBookingConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	type key struct {
		emp  uuid.UUID
		date string
	}
	seen := make(map[key]bool, len(ctx.Assignments))
	var details []constraint.ViolationDetail
	penalty := 0

	for _, a := range ctx.Assignments {
		k := key{a.EmployeeID, a.Date}
		if seen[k] {
			penalty += c.Weight()
			details = append(details, c.CreateViolation(
				a.EmployeeID, a.Date,
				fmt.Sprintf("员工在 %s 存在多条排班", a.Date),
				c.Weight(),
			))
			continue
		}
		seen[k] = true
	}

	return len(details) == 0, penalty, details
}
