package fairness

import (
	"math/rand"

	"github.com/zhipai/zhipai/pkg/model"
)

// Candidate 待选员工及其选择权重
type Candidate struct {
	Employee *model.Employee
	Weight   float64
	Current  int // 当期已分配班次数
}

// Sampler 从加权候选中选出一名员工
// 生成器通过注入不同实现切换随机加权与确定性策略
type Sampler interface {
	Pick(candidates []Candidate) *model.Employee
}

// WeightedSampler 按权重做分类抽样
type WeightedSampler struct {
	rng *rand.Rand
}

// NewWeightedSampler 创建加权抽样器
func NewWeightedSampler(rng *rand.Rand) *WeightedSampler {
	return &WeightedSampler{rng: rng}
}

// Pick 权重归一化后按累积区间抽取
// 权重全为零等退化情形回退到最少班次优先
func (s *WeightedSampler) Pick(candidates []Candidate) *model.Employee {
	if len(candidates) == 0 {
		return nil
	}

	total := 0.0
	for _, c := range candidates {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total <= 0 {
		return LeastLoaded(candidates)
	}

	draw := s.rng.Float64() * total
	acc := 0.0
	var last *model.Employee
	for _, c := range candidates {
		if c.Weight <= 0 {
			continue
		}
		last = c.Employee
		acc += c.Weight
		if draw < acc {
			return c.Employee
		}
	}
	// 浮点累计误差兜底
	return last
}

// LeastLoadedSampler 最少班次优先的确定性策略
// 规则关闭公平分配时使用
type LeastLoadedSampler struct{}

// Pick 返回当期班次最少的候选
func (LeastLoadedSampler) Pick(candidates []Candidate) *model.Employee {
	return LeastLoaded(candidates)
}

// LeastLoaded 返回当期班次最少的候选，并列时取花名册顺序在前者
func LeastLoaded(candidates []Candidate) *model.Employee {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Current < best.Current {
			best = c
		}
	}
	return best.Employee
}
