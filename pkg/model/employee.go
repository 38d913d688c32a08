// Package model 定义排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// 员工状态
const (
	EmployeeActive   = "active"   // 在职
	EmployeeInactive = "inactive" // 离职/停用
	EmployeeOnLeave  = "on_leave" // 长期休假
)

// Employee 员工
// 一次生成运行期间视为不可变输入
type Employee struct {
	BaseModel
	OrgID    uuid.UUID `json:"org_id" db:"org_id"`
	Name     string    `json:"name" db:"name"`
	Code     string    `json:"code,omitempty" db:"code"`
	Phone    string    `json:"phone,omitempty" db:"phone"`
	Email    string    `json:"email,omitempty" db:"email"`
	Status   string    `json:"status" db:"status"` // active/inactive/on_leave
	HireDate string    `json:"hire_date,omitempty" db:"hire_date"`

	// 主归属（门店/部门/团队），可为空
	Home *OrgAssignment `json:"home,omitempty" db:"home"`
	// 兼岗归属列表
	Secondary []OrgAssignment `json:"secondary,omitempty" db:"secondary"`
}

// OrgAssignment 组织归属（门店/部门/团队三元组，任一可为空）
type OrgAssignment struct {
	BranchID     *uuid.UUID `json:"branch_id,omitempty"`
	DepartmentID *uuid.UUID `json:"department_id,omitempty"`
	TeamID       *uuid.UUID `json:"team_id,omitempty"`
}

// IsActive 检查员工是否在职
func (e *Employee) IsActive() bool {
	return e.Status == EmployeeActive
}

// ActiveEmployees 过滤出在职员工
func ActiveEmployees(employees []*Employee) []*Employee {
	var out []*Employee
	for _, e := range employees {
		if e != nil && e.IsActive() {
			out = append(out, e)
		}
	}
	return out
}

// BelongsToBranch 检查员工是否归属某门店（含兼岗）
func (e *Employee) BelongsToBranch(branchID uuid.UUID) bool {
	if e.Home != nil && e.Home.BranchID != nil && *e.Home.BranchID == branchID {
		return true
	}
	for _, s := range e.Secondary {
		if s.BranchID != nil && *s.BranchID == branchID {
			return true
		}
	}
	return false
}

// BelongsToDepartment 检查员工是否归属某部门（含兼岗）
func (e *Employee) BelongsToDepartment(deptID uuid.UUID) bool {
	if e.Home != nil && e.Home.DepartmentID != nil && *e.Home.DepartmentID == deptID {
		return true
	}
	for _, s := range e.Secondary {
		if s.DepartmentID != nil && *s.DepartmentID == deptID {
			return true
		}
	}
	return false
}

// BelongsToTeam 检查员工是否归属某团队（含兼岗）
func (e *Employee) BelongsToTeam(teamID uuid.UUID) bool {
	if e.Home != nil && e.Home.TeamID != nil && *e.Home.TeamID == teamID {
		return true
	}
	for _, s := range e.Secondary {
		if s.TeamID != nil && *s.TeamID == teamID {
			return true
		}
	}
	return false
}
