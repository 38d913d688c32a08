// Package edit 提供排班快捷编辑引擎：日期移动与改派
package edit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/validator"
)

// Action 编辑动作
type Action string

const (
	ActionMove     Action = "move"     // 移动到新日期
	ActionReassign Action = "reassign" // 改派给其他员工
)

// Request 编辑请求
type Request struct {
	Assignment     *model.Assignment   `json:"assignment"`
	Action         Action              `json:"action"`
	TargetDate     string              `json:"target_date,omitempty"`
	TargetEmployee uuid.UUID           `json:"target_employee,omitempty"`
	Schedule       []*model.Assignment `json:"schedule,omitempty"`
	Leaves         model.LeaveSet      `json:"-"`
	Holidays       model.HolidaySet    `json:"-"`
	OverrideReason string              `json:"override_reason,omitempty"`
}

// Response 编辑响应
type Response struct {
	Success    bool              `json:"success"`
	Assignment *model.Assignment `json:"assignment,omitempty"`
	Code       errors.Code       `json:"code,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Overridden bool              `json:"overridden,omitempty"`
}

// Engine 快捷编辑引擎。
// 每次编辑先运行冲突校验，再复核 (员工, 日期) 唯一性；
// 已发布排班仅允许携带说明的覆盖编辑。
type Engine struct {
	mv  *validator.MoveValidator
	log *logger.SchedulerLogger
}

// NewEngine 创建快捷编辑引擎
func NewEngine() *Engine {
	return &Engine{
		mv:  validator.NewMoveValidator(),
		log: logger.NewSchedulerLogger(),
	}
}

// Apply 执行编辑并返回编辑后的排班副本；原分配不被修改
func (e *Engine) Apply(req *Request) *Response {
	if req == nil || req.Assignment == nil {
		return &Response{Success: false, Code: errors.CodeInvalidInput, Reason: "编辑请求缺少排班分配"}
	}
	a := req.Assignment

	overridden := false
	if a.IsPublished() {
		if req.OverrideReason == "" {
			return e.reject(a, errors.CodePublishedImmutable, "已发布排班需提供覆盖说明")
		}
		overridden = true
	}

	var resp *Response
	switch req.Action {
	case ActionMove:
		resp = e.applyMove(req)
	case ActionReassign:
		resp = e.applyReassign(req)
	default:
		return e.reject(a, errors.CodeInvalidInput, fmt.Sprintf("未知编辑动作 '%s'", req.Action))
	}

	if resp.Success {
		resp.Overridden = overridden
		if overridden {
			e.log.OverrideEdit(a.ID.String(), req.OverrideReason)
		}
		e.log.EditApplied(a.ID.String(), string(req.Action))
	}
	return resp
}

// applyMove 把排班移动到新日期，起止时间随日期平移
func (e *Engine) applyMove(req *Request) *Response {
	a := req.Assignment

	delta, err := daysBetween(a.Date, req.TargetDate)
	if err != nil {
		return e.reject(a, errors.CodeInvalidInput, fmt.Sprintf("目标日期无效 '%s'", req.TargetDate))
	}

	if v := e.mv.ValidateMove(a, req.TargetDate, req.Leaves, req.Holidays); !v.Allowed {
		return e.reject(a, errors.CodeEditRejected, v.Reason)
	}
	if holderOn(req.Schedule, a.EmployeeID, req.TargetDate, a.ID) != nil {
		return e.reject(a, errors.CodeScheduleConflict, "员工在目标日期已有排班")
	}

	updated := *a
	updated.Date = req.TargetDate
	updated.StartTime = a.StartTime.AddDate(0, 0, delta)
	updated.EndTime = a.EndTime.AddDate(0, 0, delta)
	updated.UpdatedAt = time.Now()
	return &Response{Success: true, Assignment: &updated}
}

// applyReassign 把排班改派给目标员工
func (e *Engine) applyReassign(req *Request) *Response {
	a := req.Assignment

	if req.TargetEmployee == uuid.Nil {
		return e.reject(a, errors.CodeInvalidInput, "缺少改派目标员工")
	}
	if req.TargetEmployee == a.EmployeeID {
		return e.reject(a, errors.CodeInvalidInput, "目标员工与原员工相同")
	}

	if v := e.mv.ValidateReassign(a, req.TargetEmployee, req.Leaves, req.Holidays); !v.Allowed {
		return e.reject(a, errors.CodeEditRejected, v.Reason)
	}
	if holderOn(req.Schedule, req.TargetEmployee, a.Date, a.ID) != nil {
		return e.reject(a, errors.CodeScheduleConflict, "目标员工当日已有排班")
	}

	updated := *a
	updated.EmployeeID = req.TargetEmployee
	updated.UpdatedAt = time.Now()
	return &Response{Success: true, Assignment: &updated}
}

// reject 记录并返回拒绝响应
func (e *Engine) reject(a *model.Assignment, code errors.Code, reason string) *Response {
	e.log.EditRejected(a.ID.String(), reason)
	return &Response{Success: false, Code: code, Reason: reason}
}

// holderOn 查找员工在某日的其他排班（排除被编辑的分配本身）
func holderOn(schedule []*model.Assignment, employeeID uuid.UUID, date string, exclude uuid.UUID) *model.Assignment {
	for _, s := range schedule {
		if s.ID == exclude {
			continue
		}
		if s.EmployeeID == employeeID && s.IsOnDate(date) {
			return s
		}
	}
	return nil
}

// daysBetween 计算两个日期间的天数差
func daysBetween(from, to string) (int, error) {
	start, err := time.Parse(model.DateLayout, from)
	if err != nil {
		return 0, err
	}
	end, err := time.Parse(model.DateLayout, to)
	if err != nil {
		return 0, err
	}
	return int(end.Sub(start).Hours() / 24), nil
}
