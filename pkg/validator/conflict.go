// Package validator 提供排班移动校验与全量冲突审计
package validator

import (
	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
)

// 拒绝原因
// 对外契约字符串，前端按原文展示，不做改写
const (
	ReasonEmployeeOnLeave = "Employee has approved leave"
	ReasonCompanyHoliday  = "Date is a company holiday"
)

// Verdict 移动校验结论，reason 仅在拒绝时填充
type Verdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// MoveValidator 排班移动校验器
// 拖拽换日期和手工改派提交前都要过一遍，只给结论不改状态
type MoveValidator struct{}

// NewMoveValidator 创建移动校验器
func NewMoveValidator() *MoveValidator {
	return &MoveValidator{}
}

// Evaluate 校验员工在目标日期的可用性
// 先查请假再查节假日，首个命中即返回
func (v *MoveValidator) Evaluate(employeeID uuid.UUID, targetDate string, leaves model.LeaveSet, holidays model.HolidaySet) Verdict {
	if leaves.OnLeave(employeeID, targetDate) {
		return Verdict{Allowed: false, Reason: ReasonEmployeeOnLeave}
	}
	if holidays.IsHoliday(targetDate) {
		return Verdict{Allowed: false, Reason: ReasonCompanyHoliday}
	}
	return Verdict{Allowed: true}
}

// ValidateMove 校验把分配移动到目标日期
func (v *MoveValidator) ValidateMove(a *model.Assignment, targetDate string, leaves model.LeaveSet, holidays model.HolidaySet) Verdict {
	return v.Evaluate(a.EmployeeID, targetDate, leaves, holidays)
}

// ValidateReassign 校验把分配改派给目标员工
// 目标日期即分配当前日期
func (v *MoveValidator) ValidateReassign(a *model.Assignment, employeeID uuid.UUID, leaves model.LeaveSet, holidays model.HolidaySet) Verdict {
	return v.Evaluate(employeeID, a.Date, leaves, holidays)
}
