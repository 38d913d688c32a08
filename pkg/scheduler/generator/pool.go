package generator

import (
	"math/rand"

	"github.com/zhipai/zhipai/pkg/model"
)

// Slot 槽位：某个工作日上的一个待排班位
type Slot struct {
	Date     string               `json:"date"`
	Template *model.ShiftTemplate `json:"template"`
}

// BuildSlotPool 把周期与覆盖规则展开成槽位池
// 每个工作日按各类型覆盖数生成槽位，同类型多个模板轮转使用；
// 池整体洗牌，避免处理顺序系统性偏向某些日期或类型
func BuildSlotPool(period *model.Period, rules *model.Rules, templates []*model.ShiftTemplate, rng *rand.Rand) []Slot {
	if period == nil || rules == nil || len(templates) == 0 {
		return nil
	}

	type bucket struct {
		templates []*model.ShiftTemplate
		count     int
		next      int // 轮转游标
	}

	// permit 槽位只由名为 permit 的自定义模板承接，
	// 其余自定义模板承接 custom 覆盖
	byType := make(map[model.ShiftType][]*model.ShiftTemplate)
	var permits []*model.ShiftTemplate
	for _, t := range templates {
		if !t.IsActive {
			continue
		}
		if t.Type == model.ShiftCustom && t.Name == model.PermitTemplateName {
			permits = append(permits, t)
			continue
		}
		byType[t.Type] = append(byType[t.Type], t)
	}

	buckets := []*bucket{
		{templates: byType[model.ShiftMorning], count: rules.CoverageFor(model.ShiftMorning)},
		{templates: byType[model.ShiftEvening], count: rules.CoverageFor(model.ShiftEvening)},
		{templates: byType[model.ShiftNight], count: rules.CoverageFor(model.ShiftNight)},
		{templates: byType[model.ShiftCustom], count: rules.CoverageFor(model.ShiftCustom)},
		{templates: permits, count: rules.PermitCoverage},
	}

	var pool []Slot
	for _, date := range period.Dates {
		for _, b := range buckets {
			if b.count <= 0 || len(b.templates) == 0 {
				continue
			}
			for i := 0; i < b.count; i++ {
				tmpl := b.templates[b.next%len(b.templates)]
				b.next++
				pool = append(pool, Slot{Date: date, Template: tmpl})
			}
		}
	}

	if rng != nil {
		rng.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
	}
	return pool
}
