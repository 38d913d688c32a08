// Package rules 排班规则参数库
package rules

// RuleParam 规则参数定义
type RuleParam struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // int, bool, string
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Default     string   `json:"default,omitempty"`
	Min         string   `json:"min,omitempty"`
	Max         string   `json:"max,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Reserved    bool     `json:"reserved,omitempty"`
}

// LibraryResponse 规则参数库响应
type LibraryResponse struct {
	Library []RuleParam `json:"library"`
}

// GetLibrary 获取完整的规则参数库
// 与生成请求里的规则字段一一对应，reserved 标记的参数只做校验不参与生成
func GetLibrary() []RuleParam {
	return []RuleParam{
		// =====================================================
		// 覆盖人数
		// =====================================================
		{
			Name:        "day_shift_coverage",
			Type:        "int",
			Category:    "覆盖人数",
			Description: "每个工作日早班所需人数。",
			Default:     "1",
			Min:         "0",
			Max:         "50",
		},
		{
			Name:        "evening_shift_coverage",
			Type:        "int",
			Category:    "覆盖人数",
			Description: "每个工作日晚班所需人数。",
			Default:     "1",
			Min:         "0",
			Max:         "50",
		},
		{
			Name:        "night_shift_coverage",
			Type:        "int",
			Category:    "覆盖人数",
			Description: "每个工作日夜班所需人数。",
			Default:     "1",
			Min:         "0",
			Max:         "50",
		},
		{
			Name:        "permit_shift_coverage",
			Type:        "int",
			Category:    "覆盖人数",
			Description: "每个工作日许可班所需人数，槽位取自名称为 permit 的自定义班次模板。",
			Default:     "0",
			Min:         "0",
			Max:         "50",
		},
		{
			Name:        "custom_shift_coverage",
			Type:        "int",
			Category:    "覆盖人数",
			Description: "每个工作日自定义班次所需人数，许可班模板不参与。",
			Default:     "0",
			Min:         "0",
			Max:         "50",
		},

		// =====================================================
		// 硬约束
		// =====================================================
		{
			Name:        "max_consecutive_nights",
			Type:        "int",
			Category:    "硬约束",
			Description: "限制员工连续上夜班的天数，保护员工健康。0 表示不限制。",
			Default:     "3",
			Min:         "0",
			Max:         "14",
		},
		{
			Name:        "min_rest_hours",
			Type:        "int",
			Category:    "硬约束",
			Description: "相邻两个班次之间的最短休息小时数，防止过度疲劳。0 表示不检查。",
			Default:     "11",
			Min:         "0",
			Max:         "24",
		},

		// =====================================================
		// 周班次目标（保留）
		// =====================================================
		{
			Name:        "min_shifts_per_week",
			Type:        "int",
			Category:    "周班次目标",
			Description: "员工每周最少班次数。当前版本只做取值校验，生成流程不消费。",
			Default:     "0",
			Min:         "0",
			Max:         "21",
			Reserved:    true,
		},
		{
			Name:        "max_shifts_per_week",
			Type:        "int",
			Category:    "周班次目标",
			Description: "员工每周最多班次数。当前版本只做取值校验，生成流程不消费。",
			Default:     "0",
			Min:         "0",
			Max:         "21",
			Reserved:    true,
		},

		// =====================================================
		// 日期过滤
		// =====================================================
		{
			Name:        "exclude_weekends",
			Type:        "bool",
			Category:    "日期过滤",
			Description: "为 true 时周六周日不生成槽位。",
			Default:     "false",
		},
		{
			Name:        "exclude_holidays",
			Type:        "bool",
			Category:    "日期过滤",
			Description: "为 true 时节假日不生成槽位，节假日清单来自生成请求或节假日日历。",
			Default:     "true",
		},

		// =====================================================
		// 轮换与公平
		// =====================================================
		{
			Name:        "alternate_week_shifts",
			Type:        "bool",
			Category:    "轮换与公平",
			Description: "上周夜班偏重的员工本周降低夜班频次，按周交替分担夜班压力。",
			Default:     "true",
		},
		{
			Name:        "preferred_shift_rotation",
			Type:        "string",
			Category:    "轮换与公平",
			Description: "轮换策略。当前仅 balanced 生效，strict_alternate 与 random 保留并按 balanced 执行。",
			Default:     "balanced",
			Enum:        []string{"balanced", "strict_alternate", "random"},
		},
		{
			Name:        "enable_equal_distribution",
			Type:        "bool",
			Category:    "轮换与公平",
			Description: "为 true 时启用公平性加权抽样分配，为 false 时退化为朴素的最少班次优先。",
			Default:     "true",
		},
	}
}
