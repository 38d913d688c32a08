// Package constraint 定义排班资格约束接口和管理器
package constraint

import (
	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
)

// Type 约束类型标识
type Type string

const (
	// 资格硬约束（按权重顺序短路评估）
	TypeDoubleBooking        Type = "double_booking"
	TypeMaxConsecutiveNights Type = "max_consecutive_nights"
	TypeWeekAlternation      Type = "week_alternation"
	TypeMinRestHours         Type = "min_rest_hours"
	TypeTargetCeiling        Type = "target_shift_ceiling"
)

// Category 约束类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（尽量满足）
)

// Constraint 约束接口
type Constraint interface {
	// Name 返回约束名称
	Name() string

	// Type 返回约束类型
	Type() Type

	// Category 返回约束类别
	Category() Category

	// Weight 返回约束权重 (1-100)，同类别内权重高者先评估
	Weight() int

	// Evaluate 评估整个排班方案
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)

	// EvaluateAssignment 评估单个候选分配（加入前检查）
	// 返回：是否满足、惩罚值
	EvaluateAssignment(ctx *Context, assignment *model.Assignment) (valid bool, penalty int)
}

// ViolationDetail 约束违反详情
type ViolationDetail struct {
	ConstraintType Type      `json:"constraint_type"`
	ConstraintName string    `json:"constraint_name"`
	EmployeeID     uuid.UUID `json:"employee_id,omitempty"`
	Date           string    `json:"date,omitempty"`
	Message        string    `json:"message"`
	Severity       string    `json:"severity"` // error/warning
	Penalty        int       `json:"penalty"`
}

// Context 生成运行的显式累加器
// 每次生成运行独占一个 Context，阶段间按指针传递，不存在包级可变状态
type Context struct {
	// 不可变输入
	OrgID     uuid.UUID              `json:"org_id"`
	Rules     *model.Rules           `json:"rules"`
	Period    *model.Period          `json:"period"`
	Employees []*model.Employee      `json:"employees"`
	Templates []*model.ShiftTemplate `json:"templates"`
	PrevWeek  model.WeekStats        `json:"prev_week,omitempty"`
	Target    int                    `json:"target"` // 每员工目标班次数 = 周期工作日数

	// 当前排班结果
	Assignments []*model.Assignment `json:"assignments"`

	// 索引缓存
	employeeMap       map[uuid.UUID]*model.Employee
	templateMap       map[uuid.UUID]*model.ShiftTemplate
	byEmployeeDate    map[uuid.UUID]map[string]*model.Assignment
	assignmentsByDate map[string][]*model.Assignment
	countByEmployee   map[uuid.UUID]int
	typesByEmployee   map[uuid.UUID]*model.ShiftCounts
}

// NewContext 创建新的生成运行上下文
func NewContext(orgID uuid.UUID, rules *model.Rules, period *model.Period) *Context {
	target := 0
	if period != nil {
		target = period.WorkingDays()
	}
	return &Context{
		OrgID:             orgID,
		Rules:             rules,
		Period:            period,
		Target:            target,
		Employees:         make([]*model.Employee, 0),
		Templates:         make([]*model.ShiftTemplate, 0),
		Assignments:       make([]*model.Assignment, 0),
		employeeMap:       make(map[uuid.UUID]*model.Employee),
		templateMap:       make(map[uuid.UUID]*model.ShiftTemplate),
		byEmployeeDate:    make(map[uuid.UUID]map[string]*model.Assignment),
		assignmentsByDate: make(map[string][]*model.Assignment),
		countByEmployee:   make(map[uuid.UUID]int),
		typesByEmployee:   make(map[uuid.UUID]*model.ShiftCounts),
	}
}

// SetEmployees 设置员工列表
func (c *Context) SetEmployees(employees []*model.Employee) {
	c.Employees = employees
	c.employeeMap = make(map[uuid.UUID]*model.Employee, len(employees))
	for _, e := range employees {
		c.employeeMap[e.ID] = e
	}
}

// SetTemplates 设置班次模板列表
func (c *Context) SetTemplates(templates []*model.ShiftTemplate) {
	c.Templates = templates
	c.templateMap = make(map[uuid.UUID]*model.ShiftTemplate, len(templates))
	for _, s := range templates {
		c.templateMap[s.ID] = s
	}
}

// SetPrevWeek 设置上周班次统计
func (c *Context) SetPrevWeek(stats model.WeekStats) {
	c.PrevWeek = stats
}

// SetAssignments 设置排班分配并重建索引
func (c *Context) SetAssignments(assignments []*model.Assignment) {
	c.Assignments = assignments
	c.rebuildIndexes()
}

// AddAssignment 添加排班分配并维护索引与计数
func (c *Context) AddAssignment(a *model.Assignment) {
	c.Assignments = append(c.Assignments, a)
	c.indexAssignment(a)
}

// RemoveAssignment 移除排班分配
func (c *Context) RemoveAssignment(id uuid.UUID) {
	for i, a := range c.Assignments {
		if a.ID == id {
			c.Assignments = append(c.Assignments[:i], c.Assignments[i+1:]...)
			break
		}
	}
	c.rebuildIndexes()
}

// indexAssignment 把单条分配写入索引
func (c *Context) indexAssignment(a *model.Assignment) {
	if c.byEmployeeDate[a.EmployeeID] == nil {
		c.byEmployeeDate[a.EmployeeID] = make(map[string]*model.Assignment)
	}
	c.byEmployeeDate[a.EmployeeID][a.Date] = a
	c.assignmentsByDate[a.Date] = append(c.assignmentsByDate[a.Date], a)
	c.countByEmployee[a.EmployeeID]++
	if c.typesByEmployee[a.EmployeeID] == nil {
		c.typesByEmployee[a.EmployeeID] = &model.ShiftCounts{}
	}
	c.typesByEmployee[a.EmployeeID].Add(a.ShiftType)
}

// rebuildIndexes 重建全部索引
func (c *Context) rebuildIndexes() {
	c.byEmployeeDate = make(map[uuid.UUID]map[string]*model.Assignment)
	c.assignmentsByDate = make(map[string][]*model.Assignment)
	c.countByEmployee = make(map[uuid.UUID]int)
	c.typesByEmployee = make(map[uuid.UUID]*model.ShiftCounts)
	for _, a := range c.Assignments {
		c.indexAssignment(a)
	}
}

// GetEmployee 获取员工
func (c *Context) GetEmployee(id uuid.UUID) *model.Employee {
	return c.employeeMap[id]
}

// GetTemplate 获取班次模板
func (c *Context) GetTemplate(id uuid.UUID) *model.ShiftTemplate {
	return c.templateMap[id]
}

// AssignmentOn 获取员工某日的分配（无则为 nil）
func (c *Context) AssignmentOn(employeeID uuid.UUID, date string) *model.Assignment {
	return c.byEmployeeDate[employeeID][date]
}

// GetDateAssignments 获取某日期的所有排班
func (c *Context) GetDateAssignments(date string) []*model.Assignment {
	return c.assignmentsByDate[date]
}

// GetEmployeeAssignments 获取员工的所有排班
func (c *Context) GetEmployeeAssignments(employeeID uuid.UUID) []*model.Assignment {
	byDate := c.byEmployeeDate[employeeID]
	result := make([]*model.Assignment, 0, len(byDate))
	for _, a := range byDate {
		result = append(result, a)
	}
	return result
}

// CountFor 获取员工当前运行内的分配数
func (c *Context) CountFor(employeeID uuid.UUID) int {
	return c.countByEmployee[employeeID]
}

// TypeCountsFor 获取员工当前运行内各类型计数
func (c *Context) TypeCountsFor(employeeID uuid.UUID) model.ShiftCounts {
	if counts := c.typesByEmployee[employeeID]; counts != nil {
		return *counts
	}
	return model.ShiftCounts{}
}

// NightStreakAround 统计员工在目标日期前后紧邻的连续夜班天数
// 返回：目标日期之前的连续夜班数、之后的连续夜班数（均不含目标日期本身）
// 槽位池是乱序处理的，候选日期可能落在两段夜班之间，必须双向统计
func (c *Context) NightStreakAround(employeeID uuid.UUID, date string) (before, after int) {
	current := model.PreviousDate(date)
	for c.isNightOn(employeeID, current) {
		before++
		current = model.PreviousDate(current)
		if before > 30 { // 防止异常数据导致死循环
			break
		}
	}

	current = model.NextDate(date)
	for c.isNightOn(employeeID, current) {
		after++
		current = model.NextDate(current)
		if after > 30 {
			break
		}
	}

	return before, after
}

// isNightOn 检查员工某日是否有夜班分配
func (c *Context) isNightOn(employeeID uuid.UUID, date string) bool {
	if date == "" {
		return false
	}
	a := c.byEmployeeDate[employeeID][date]
	return a != nil && a.IsNight()
}

// Neighbors 获取员工在目标日期前后最邻近的分配
// prev：日期早于目标日期的最近一条；next：日期晚于目标日期的最近一条
func (c *Context) Neighbors(employeeID uuid.UUID, date string) (prev, next *model.Assignment) {
	for d, a := range c.byEmployeeDate[employeeID] {
		switch {
		case d < date:
			if prev == nil || d > prev.Date {
				prev = a
			}
		case d > date:
			if next == nil || d < next.Date {
				next = a
			}
		}
	}
	return prev, next
}

// Result 约束评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	Score          float64           `json:"score"` // 0-100
}

// CalculateScore 计算约束满足度得分
func (r *Result) CalculateScore(maxPenalty int) {
	if maxPenalty == 0 {
		r.Score = 100.0
		return
	}
	r.Score = 100.0 * float64(maxPenalty-r.TotalPenalty) / float64(maxPenalty)
	if r.Score < 0 {
		r.Score = 0
	}
}
