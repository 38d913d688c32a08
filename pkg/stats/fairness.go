// Package stats 提供排班统计分析
package stats

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
)

// 综合公平性评分的各项权重
const (
	loadGiniWeight   = 0.35
	nightGiniWeight  = 0.25
	cumulativeWeight = 0.2
	cvWeight         = 0.2
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	LoadGini       float64 `json:"load_gini"`       // 班次数基尼系数 (0=完全公平, 1=完全不公平)
	NightGini      float64 `json:"night_gini"`      // 夜班分配基尼系数
	CumulativeGini float64 `json:"cumulative_gini"` // 含历史窗口的累计班次基尼系数
	LoadVariance   float64 `json:"load_variance"`   // 班次数方差
	LoadStdDev     float64 `json:"load_std_dev"`    // 班次数标准差
	AvgShifts      float64 `json:"avg_shifts"`      // 人均班次数
	MaxShifts      int     `json:"max_shifts"`
	MinShifts      int     `json:"min_shifts"`
	LoadSpread     int     `json:"load_spread"` // 班次数极差

	// 各班次类型占比 (%)
	TypeShares map[model.ShiftType]float64 `json:"type_shares"`

	// 员工级别统计，按班次数降序
	EmployeeStats []EmployeeLoad `json:"employee_stats"`

	// 综合公平性评分 (0-100)
	OverallScore float64 `json:"overall_score"`
}

// EmployeeLoad 单个员工的负载统计
type EmployeeLoad struct {
	EmployeeID      uuid.UUID `json:"employee_id"`
	Name            string    `json:"name"`
	Shifts          int       `json:"shifts"`
	Nights          int       `json:"nights"`
	Weekends        int       `json:"weekends"`
	Hours           float64   `json:"hours"`
	Deviation       float64   `json:"deviation"` // 与平均班次数的偏差 (%)
	HistoricalTotal int       `json:"historical_total,omitempty"`
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct{}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{}
}

// Analyze 分析一份排班的公平性。
// history 可为 nil；传入时累计基尼会把历史窗口班次计入每名员工的负载。
// 未出现在花名册中的被排班员工也计入统计，避免基尼被低估。
func (f *FairnessAnalyzer) Analyze(
	assignments []*model.Assignment,
	employees []*model.Employee,
	history map[uuid.UUID]*model.HistoricalStat,
) *FairnessMetrics {
	if len(assignments) == 0 || len(employees) == 0 {
		return &FairnessMetrics{
			TypeShares:   make(map[model.ShiftType]float64),
			OverallScore: 100,
		}
	}

	stats := f.calculateEmployeeStats(assignments, employees, history)

	loads := make([]float64, len(stats))
	nights := make([]float64, len(stats))
	cumulative := make([]float64, len(stats))
	for i, s := range stats {
		loads[i] = float64(s.Shifts)
		nights[i] = float64(s.Nights)
		cumulative[i] = float64(s.Shifts + s.HistoricalTotal)
	}

	avg := f.mean(loads)
	variance := f.variance(loads, avg)
	stdDev := math.Sqrt(variance)
	maxLoad, minLoad := f.extremes(loads)

	for i := range stats {
		if avg > 0 {
			stats[i].Deviation = (float64(stats[i].Shifts) - avg) / avg * 100
		}
	}

	loadGini := f.gini(loads)
	nightGini := f.gini(nights)
	cumulativeGini := f.gini(cumulative)

	return &FairnessMetrics{
		LoadGini:       loadGini,
		NightGini:      nightGini,
		CumulativeGini: cumulativeGini,
		LoadVariance:   variance,
		LoadStdDev:     stdDev,
		AvgShifts:      avg,
		MaxShifts:      int(maxLoad),
		MinShifts:      int(minLoad),
		LoadSpread:     int(maxLoad) - int(minLoad),
		TypeShares:     f.typeShares(assignments),
		EmployeeStats:  stats,
		OverallScore:   f.overallScore(loadGini, nightGini, cumulativeGini, stdDev, avg),
	}
}

// calculateEmployeeStats 以花名册为基准统计每名员工的负载，未被排班的员工计为 0
func (f *FairnessAnalyzer) calculateEmployeeStats(
	assignments []*model.Assignment,
	employees []*model.Employee,
	history map[uuid.UUID]*model.HistoricalStat,
) []EmployeeLoad {
	statMap := make(map[uuid.UUID]*EmployeeLoad, len(employees))
	order := make([]uuid.UUID, 0, len(employees))

	for _, e := range employees {
		statMap[e.ID] = &EmployeeLoad{EmployeeID: e.ID, Name: e.Name}
		order = append(order, e.ID)
	}

	for _, a := range assignments {
		stat, exists := statMap[a.EmployeeID]
		if !exists {
			stat = &EmployeeLoad{EmployeeID: a.EmployeeID}
			statMap[a.EmployeeID] = stat
			order = append(order, a.EmployeeID)
		}

		stat.Shifts++
		stat.Hours += a.WorkingHours()
		if a.IsNight() {
			stat.Nights++
		}
		if model.IsWeekend(a.Date) {
			stat.Weekends++
		}
	}

	result := make([]EmployeeLoad, 0, len(order))
	for _, id := range order {
		stat := statMap[id]
		if h, ok := history[id]; ok {
			stat.HistoricalTotal = h.Counts.Total
		}
		result = append(result, *stat)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Shifts > result[j].Shifts
	})
	return result
}

// typeShares 计算各班次类型占比
func (f *FairnessAnalyzer) typeShares(assignments []*model.Assignment) map[model.ShiftType]float64 {
	counts := make(map[model.ShiftType]int)
	for _, a := range assignments {
		counts[a.ShiftType]++
	}

	shares := make(map[model.ShiftType]float64)
	total := len(assignments)
	if total == 0 {
		return shares
	}
	for t, n := range counts {
		shares[t] = float64(n) / float64(total) * 100
	}
	return shares
}

// mean 计算平均值
func (f *FairnessAnalyzer) mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance 计算方差
func (f *FairnessAnalyzer) variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// extremes 计算极值
func (f *FairnessAnalyzer) extremes(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数
func (f *FairnessAnalyzer) gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}
	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

// overallScore 计算综合公平性评分
func (f *FairnessAnalyzer) overallScore(loadGini, nightGini, cumulativeGini, stdDev, avg float64) float64 {
	loadScore := (1 - loadGini) * 100
	nightScore := (1 - nightGini) * 100
	cumulativeScore := (1 - cumulativeGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if avg > 0 {
		cv := stdDev / avg
		cvScore = math.Max(0, 100-cv*200)
	}

	score := loadGiniWeight*loadScore +
		nightGiniWeight*nightScore +
		cumulativeWeight*cumulativeScore +
		cvWeight*cvScore
	return math.Max(0, math.Min(100, score))
}
