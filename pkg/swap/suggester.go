// Package swap 提供替班候选推荐与自动替班
package swap

import (
	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
)

// DefaultMaxResults 替班候选列表的默认数量上限
const DefaultMaxResults = 5

// Suggester 替班候选推荐器：为需要替班的分配筛选空闲员工。
// 只做可用性过滤，不做评分排序，结果按花名册顺序返回。
type Suggester struct {
	maxResults int
}

// NewSuggester 创建替班候选推荐器
func NewSuggester() *Suggester {
	return NewSuggesterWithLimit(DefaultMaxResults)
}

// NewSuggesterWithLimit 创建指定候选数量上限的推荐器
func NewSuggesterWithLimit(maxResults int) *Suggester {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Suggester{maxResults: maxResults}
}

// MaxResults 返回候选数量上限
func (s *Suggester) MaxResults() int {
	return s.maxResults
}

// Suggest 为指定排班筛选替班候选。
// 依次排除：原班次员工、离职员工、当天已有排班的员工、当天请假的员工。
func (s *Suggester) Suggest(
	assignment *model.Assignment,
	roster []*model.Employee,
	schedule []*model.Assignment,
	leaves model.LeaveSet,
) []*model.Employee {
	if assignment == nil || len(roster) == 0 {
		return nil
	}

	// 当天已有排班的员工集合
	busy := make(map[uuid.UUID]bool)
	for _, a := range schedule {
		if a.IsOnDate(assignment.Date) {
			busy[a.EmployeeID] = true
		}
	}

	candidates := make([]*model.Employee, 0, s.maxResults)
	for _, emp := range roster {
		if len(candidates) >= s.maxResults {
			break
		}
		if emp.ID == assignment.EmployeeID {
			continue
		}
		if !emp.IsActive() {
			continue
		}
		if busy[emp.ID] {
			continue
		}
		if leaves.OnLeave(emp.ID, assignment.Date) {
			continue
		}
		candidates = append(candidates, emp)
	}

	return candidates
}

// AutoReplace 自动替班：取候选列表中的第一位生成替班分配。
// 新分配携带替班审计字段，状态重置为待排；无可用候选时返回 nil。
func (s *Suggester) AutoReplace(
	assignment *model.Assignment,
	roster []*model.Employee,
	schedule []*model.Assignment,
	leaves model.LeaveSet,
) *model.Assignment {
	candidates := s.Suggest(assignment, roster, schedule, leaves)
	if len(candidates) == 0 {
		return nil
	}

	originalEmpID := assignment.EmployeeID
	replacement := *assignment
	replacement.BaseModel = model.NewBaseModel()
	replacement.EmployeeID = candidates[0].ID
	replacement.Status = model.StatusScheduled
	replacement.IsReplacement = true
	replacement.OriginalEmployeeID = &originalEmpID
	return &replacement
}
