package handler

import (
	"github.com/zhipai/zhipai/internal/database"
	"github.com/zhipai/zhipai/internal/repository"
)

// Store 聚合各仓储，处理器按需补全请求中省略的数据段
// 纯引擎模式下为 nil，此时所有数据必须内联在请求里
type Store struct {
	Organizations *repository.OrganizationRepository
	Employees     *repository.EmployeeRepository
	Templates     *repository.TemplateRepository
	Assignments   *repository.AssignmentRepository
	Leaves        *repository.LeaveRepository
	Holidays      *repository.HolidayRepository
	History       *repository.HistoryRepository
}

// NewStore 基于同一个数据库连接构建仓储集合
func NewStore(db *database.DB) *Store {
	return &Store{
		Organizations: repository.NewOrganizationRepository(db),
		Employees:     repository.NewEmployeeRepository(db),
		Templates:     repository.NewTemplateRepository(db),
		Assignments:   repository.NewAssignmentRepository(db),
		Leaves:        repository.NewLeaveRepository(db),
		Holidays:      repository.NewHolidayRepository(db),
		History:       repository.NewHistoryRepository(db),
	}
}
