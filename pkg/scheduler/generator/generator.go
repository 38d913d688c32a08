// Package generator 两阶段排班生成器
// 阶段一按覆盖需求给槽位选人，阶段二用剩余缺口给未达目标的员工补排。
// 生成器不做任何 I/O，输入由调用方事先取好，单次运行同步完成。
package generator

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler/constraint"
	"github.com/zhipai/zhipai/pkg/scheduler/constraint/builtin"
	"github.com/zhipai/zhipai/pkg/scheduler/fairness"
)

// State 生成器所处阶段
type State string

const (
	StateIdle         State = "idle"
	StateBuildingPool State = "building_slot_pool"
	StatePrimary      State = "primary_assignment"
	StateFillPass     State = "fill_pass"
	StateComplete     State = "complete"
)

// Request 一次生成运行的全部输入
type Request struct {
	OrgID     uuid.UUID
	Rules     *model.Rules
	Period    *model.Period
	Employees []*model.Employee
	Templates []*model.ShiftTemplate
	History   []model.HistoricalStat
	PrevWeek  model.WeekStats
}

// Stats 运行统计
type Stats struct {
	TotalSlots      int `json:"total_slots"`
	PrimaryAssigned int `json:"primary_assigned"`
	FillAssigned    int `json:"fill_assigned"`
	Uncovered       int `json:"uncovered"`
	Target          int `json:"target"`
	Employees       int `json:"employees"`
	WorkingDays     int `json:"working_days"`
}

// Result 生成结果
// 未覆盖槽位是被跟踪的缺口，不是错误
type Result struct {
	RunID       string              `json:"run_id"`
	Assignments []*model.Assignment `json:"assignments"`
	Uncovered   []Slot              `json:"uncovered,omitempty"`
	Stats       Stats               `json:"stats"`
	Score       float64             `json:"score"`
	Duration    time.Duration       `json:"duration"`
}

// Generator 两阶段排班生成器
// 一个实例同时只服务一次运行，并发生成各建各的实例
type Generator struct {
	manager *constraint.Manager
	sampler fairness.Sampler
	rng     *rand.Rand
	state   State
	log     *logger.SchedulerLogger
}

// NewGenerator 创建生成器并注册默认资格约束
func NewGenerator() *Generator {
	return NewGeneratorWithSampler(nil, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewGeneratorWithSampler 创建带自定义抽样策略的生成器
// sampler 为 nil 时按规则在加权抽样与最少班次优先之间选择；
// 测试可注入确定性策略，把约束断言与随机性隔离
func NewGeneratorWithSampler(sampler fairness.Sampler, rng *rand.Rand) *Generator {
	m := constraint.NewManager()
	builtin.RegisterEligibilityConstraints(m)
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		manager: m,
		sampler: sampler,
		rng:     rng,
		state:   StateIdle,
		log:     logger.NewSchedulerLogger(),
	}
}

// State 返回当前所处阶段
func (g *Generator) State() State {
	return g.state
}

// Manager 返回底层约束管理器，调用方可在生成前替换或追加约束
func (g *Generator) Manager() *constraint.Manager {
	return g.manager
}

// Generate 执行一次完整生成
// 空员工、空模板、空周期直接返回空排班，属于"没有可生成的内容"而非错误
func (g *Generator) Generate(req *Request) (*Result, error) {
	started := time.Now()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	result := &Result{
		RunID:       runID,
		Assignments: []*model.Assignment{},
	}

	employees := model.ActiveEmployees(req.Employees)
	if len(employees) == 0 || len(req.Templates) == 0 || req.Period.IsEmpty() {
		g.state = StateComplete
		result.Duration = time.Since(started)
		return result, nil
	}

	g.log.StartSchedule(runID, len(employees), req.Period.WorkingDays())

	ctx := constraint.NewContext(req.OrgID, req.Rules, req.Period)
	ctx.SetEmployees(employees)
	ctx.SetTemplates(req.Templates)
	ctx.SetPrevWeek(req.PrevWeek)

	weigher := fairness.NewWeigher(req.History)
	sampler := g.samplerFor(req.Rules)

	g.state = StateBuildingPool
	pool := BuildSlotPool(req.Period, req.Rules, req.Templates, g.rng)
	g.log.SlotPoolBuilt(runID, len(pool), req.Period.WorkingDays())

	g.state = StatePrimary
	var uncovered []Slot
	primary := 0
	for _, slot := range pool {
		if g.assignSlot(ctx, weigher, sampler, slot) {
			primary++
			continue
		}
		uncovered = append(uncovered, slot)
		g.log.SlotUncovered(slot.Date, string(slot.Template.Type))
	}

	g.state = StateFillPass
	filled, remaining := g.fillPass(ctx, uncovered)
	g.log.FillPassComplete(runID, filled, len(remaining))

	g.state = StateComplete
	result.Assignments = ctx.Assignments
	result.Uncovered = remaining
	result.Stats = Stats{
		TotalSlots:      len(pool),
		PrimaryAssigned: primary,
		FillAssigned:    filled,
		Uncovered:       len(remaining),
		Target:          ctx.Target,
		Employees:       len(employees),
		WorkingDays:     req.Period.WorkingDays(),
	}

	eval := g.manager.Evaluate(ctx)
	result.Score = eval.Score
	result.Duration = time.Since(started)
	g.log.ScheduleComplete(runID, result.Duration, result.Score)

	return result, nil
}

// assignSlot 为单个槽位挑选员工并登记分配
// 无合格员工时返回 false，槽位留作缺口
func (g *Generator) assignSlot(ctx *constraint.Context, weigher *fairness.Weigher, sampler fairness.Sampler, slot Slot) bool {
	candidates := g.eligibleCandidates(ctx, weigher, slot)
	if len(candidates) == 0 {
		return false
	}

	emp := sampler.Pick(candidates)
	if emp == nil {
		return false
	}

	a, err := model.NewAssignment(ctx.OrgID, emp.ID, slot.Template, slot.Date)
	if err != nil {
		return false
	}
	ctx.AddAssignment(a)
	return true
}

// eligibleCandidates 计算槽位的合格员工集及其选择权重
func (g *Generator) eligibleCandidates(ctx *constraint.Context, weigher *fairness.Weigher, slot Slot) []fairness.Candidate {
	probe, err := model.NewAssignment(ctx.OrgID, uuid.Nil, slot.Template, slot.Date)
	if err != nil {
		return nil
	}

	var candidates []fairness.Candidate
	for _, emp := range ctx.Employees {
		probe.EmployeeID = emp.ID
		if ok, _ := g.manager.CanAssign(ctx, probe); !ok {
			continue
		}
		current := ctx.CountFor(emp.ID)
		candidates = append(candidates, fairness.Candidate{
			Employee: emp,
			Weight:   weigher.Weight(emp.ID, slot.Template.Type, current, ctx.Target),
			Current:  current,
		})
	}
	return candidates
}

// fillPass 用主分配留下的缺口给未达目标的员工补排
// 只消化已有缺口，不在覆盖要求之外新增班次；班次最少的员工优先，
// 同一员工优先补自己数量最少的班次类型
func (g *Generator) fillPass(ctx *constraint.Context, uncovered []Slot) (int, []Slot) {
	if len(uncovered) == 0 || ctx.Target <= 0 {
		return 0, uncovered
	}

	slots := make([]Slot, len(uncovered))
	copy(slots, uncovered)
	g.rng.Shuffle(len(slots), func(i, j int) {
		slots[i], slots[j] = slots[j], slots[i]
	})

	employees := make([]*model.Employee, len(ctx.Employees))
	copy(employees, ctx.Employees)
	sort.SliceStable(employees, func(i, j int) bool {
		return ctx.CountFor(employees[i].ID) < ctx.CountFor(employees[j].ID)
	})

	taken := make([]bool, len(slots))
	filled := 0

	for _, emp := range employees {
		for ctx.CountFor(emp.ID) < ctx.Target {
			idx := g.pickFillSlot(ctx, emp, slots, taken)
			if idx < 0 {
				break
			}
			a, err := model.NewAssignment(ctx.OrgID, emp.ID, slots[idx].Template, slots[idx].Date)
			if err != nil {
				break
			}
			ctx.AddAssignment(a)
			taken[idx] = true
			filled++
		}
	}

	var remaining []Slot
	for i, slot := range slots {
		if !taken[i] {
			remaining = append(remaining, slot)
		}
	}
	return filled, remaining
}

// pickFillSlot 为员工挑选最合适的未覆盖槽位
// 返回槽位下标，无可用槽位返回 -1
func (g *Generator) pickFillSlot(ctx *constraint.Context, emp *model.Employee, slots []Slot, taken []bool) int {
	counts := ctx.TypeCountsFor(emp.ID)
	best := -1
	bestCount := 0

	for i, slot := range slots {
		if taken[i] {
			continue
		}
		probe, err := model.NewAssignment(ctx.OrgID, emp.ID, slot.Template, slot.Date)
		if err != nil {
			continue
		}
		if ok, _ := g.manager.CanAssign(ctx, probe); !ok {
			continue
		}
		c := counts.CountFor(slot.Template.Type)
		if best < 0 || c < bestCount {
			best = i
			bestCount = c
		}
	}
	return best
}

// samplerFor 选择本次运行的抽样策略
func (g *Generator) samplerFor(rules *model.Rules) fairness.Sampler {
	if g.sampler != nil {
		return g.sampler
	}
	if rules != nil && !rules.EnableEqualDistribution {
		return fairness.LeastLoadedSampler{}
	}
	return fairness.NewWeightedSampler(g.rng)
}

// validateRequest 校验生成请求
func validateRequest(req *Request) error {
	if req == nil || req.Rules == nil || req.Period == nil {
		return errors.InvalidInput("request", "生成请求缺少规则或排班周期")
	}
	return req.Rules.Validate()
}

