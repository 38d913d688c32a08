// Package fairness 基于历史统计的公平性选择权重与抽样策略
package fairness

import (
	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
)

const (
	// newEmployeeWeight 无历史记录员工的固定基准权重，不偏向也不惩罚
	newEmployeeWeight = 0.75
	// dampingFactor 历史比例的阻尼系数，避免单次运行过度纠偏
	dampingFactor = 0.5
)

// Weigher 根据历史统计与当期负载计算员工选择权重
// 纯粹的最少班次优先会反复选中同一批人，导致类型分布明显不公平，
// 权重计算用历史班次比例做纠偏
type Weigher struct {
	history map[uuid.UUID]*model.HistoricalStat
	average map[model.ShiftType]float64
}

// NewWeigher 创建公平性权重计算器
// stats 为参考窗口内的历史班次统计，按类型的人均值在此预先算好
func NewWeigher(stats []model.HistoricalStat) *Weigher {
	w := &Weigher{
		history: model.HistoricalByEmployee(stats),
		average: make(map[model.ShiftType]float64),
	}
	if len(stats) == 0 {
		return w
	}
	for _, t := range model.AllShiftTypes() {
		sum := 0
		for i := range stats {
			sum += stats[i].Counts.CountFor(t)
		}
		w.average[t] = float64(sum) / float64(len(stats))
	}
	return w
}

// Weight 计算员工在某类型班次上的选择权重
// 历史上该类型偏多的员工基准权重低于 1，偏少的高于 1，
// 再按当期目标差距放大：离目标越远权重越高
func (w *Weigher) Weight(employeeID uuid.UUID, shiftType model.ShiftType, current, target int) float64 {
	weight := w.baseWeight(employeeID, shiftType)
	if target > 0 {
		adjust := 1 + float64(target-current)/float64(target)
		if adjust < 0 {
			adjust = 0
		}
		weight *= adjust
	}
	return weight
}

// baseWeight 历史纠偏基准权重
func (w *Weigher) baseWeight(employeeID uuid.UUID, shiftType model.ShiftType) float64 {
	stat, ok := w.history[employeeID]
	if !ok {
		return newEmployeeWeight
	}

	ratio := 1.0
	if avg := w.average[shiftType]; avg > 0 {
		ratio = float64(stat.Counts.CountFor(shiftType)) / avg
	}
	return 1 / (1 + (ratio-1)*dampingFactor)
}
