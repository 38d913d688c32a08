// Package preset 提供常见行业场景的排班规则预设
package preset

import (
	"sort"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/model"
)

// 预设代码
const (
	CodeFactoryThreeShift = "factory_three_shift" // 三班倒工厂
	CodeHospitalWard      = "hospital_ward"       // 医院病房
	CodeRetailStore       = "retail_store"        // 零售门店
	CodeSecurityDesk      = "security_desk"       // 24×7 安保值守
)

// 覆盖倍率上限，防止大名册把覆盖放大到超出单日可排能力
const maxCoverageScale = 4

// TemplateSpec 预设中的班次模板蓝图
// 不含 ID 与租户信息，Materialize 时落成 model.ShiftTemplate
type TemplateSpec struct {
	Name      string          `json:"name"`
	Type      model.ShiftType `json:"shift_type"`
	StartTime string          `json:"start_time"`
	EndTime   string          `json:"end_time"`
	Color     string          `json:"color,omitempty"`
}

// Preset 排班规则预设：一套可直接使用的规则加班次模板蓝图
type Preset struct {
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	MinRoster   int            `json:"min_roster"` // 基线覆盖对应的建议最小名册人数
	Rules       model.Rules    `json:"rules"`
	Templates   []TemplateSpec `json:"templates"`
}

// Catalog 预设目录
type Catalog struct {
	presets map[string]Preset
}

// NewCatalog 创建内置预设目录
func NewCatalog() *Catalog {
	c := &Catalog{presets: make(map[string]Preset)}

	c.presets[CodeFactoryThreeShift] = Preset{
		Code:        CodeFactoryThreeShift,
		Name:        "三班倒工厂",
		Description: "早中夜三班连续生产，节假日不停工，夜班连上不超过 2 天",
		MinRoster:   9,
		Rules: model.Rules{
			DayCoverage:             2,
			EveningCoverage:         2,
			NightCoverage:           2,
			MaxConsecutiveNights:    2,
			MinRestHours:            11,
			AlternateWeekShifts:     true,
			PreferredShiftRotation:  model.RotationBalanced,
			EnableEqualDistribution: true,
		},
		Templates: []TemplateSpec{
			{Name: "早班", Type: model.ShiftMorning, StartTime: "06:00", EndTime: "14:00", Color: "#58A55C"},
			{Name: "中班", Type: model.ShiftEvening, StartTime: "14:00", EndTime: "22:00", Color: "#F2A33C"},
			{Name: "夜班", Type: model.ShiftNight, StartTime: "22:00", EndTime: "06:00", Color: "#4A6FD4"},
		},
	}

	c.presets[CodeHospitalWard] = Preset{
		Code:        CodeHospitalWard,
		Name:        "医院病房",
		Description: "白班人力最重，夜班连上不超过 1 天，班间休息不少于 12 小时",
		MinRoster:   12,
		Rules: model.Rules{
			DayCoverage:             3,
			EveningCoverage:         2,
			NightCoverage:           2,
			MaxConsecutiveNights:    1,
			MinRestHours:            12,
			AlternateWeekShifts:     true,
			PreferredShiftRotation:  model.RotationBalanced,
			EnableEqualDistribution: true,
		},
		Templates: []TemplateSpec{
			{Name: "白班", Type: model.ShiftMorning, StartTime: "08:00", EndTime: "16:00", Color: "#58A55C"},
			{Name: "小夜班", Type: model.ShiftEvening, StartTime: "16:00", EndTime: "00:00", Color: "#F2A33C"},
			{Name: "大夜班", Type: model.ShiftNight, StartTime: "00:00", EndTime: "08:00", Color: "#4A6FD4"},
		},
	}

	c.presets[CodeRetailStore] = Preset{
		Code:        CodeRetailStore,
		Name:        "零售门店",
		Description: "早晚两班覆盖营业时段，无夜班，周末照常排班",
		MinRoster:   6,
		Rules: model.Rules{
			DayCoverage:             2,
			EveningCoverage:         2,
			MinRestHours:            12,
			PreferredShiftRotation:  model.RotationBalanced,
			EnableEqualDistribution: true,
		},
		Templates: []TemplateSpec{
			{Name: "早市班", Type: model.ShiftMorning, StartTime: "09:00", EndTime: "15:00", Color: "#58A55C"},
			{Name: "晚市班", Type: model.ShiftEvening, StartTime: "15:00", EndTime: "21:00", Color: "#F2A33C"},
		},
	}

	c.presets[CodeSecurityDesk] = Preset{
		Code:        CodeSecurityDesk,
		Name:        "安保值守",
		Description: "12 小时两班全年无休值守，夜班连上不超过 3 天",
		MinRoster:   4,
		Rules: model.Rules{
			DayCoverage:             1,
			NightCoverage:           1,
			MaxConsecutiveNights:    3,
			MinRestHours:            12,
			AlternateWeekShifts:     true,
			PreferredShiftRotation:  model.RotationBalanced,
			EnableEqualDistribution: true,
		},
		Templates: []TemplateSpec{
			{Name: "日岗", Type: model.ShiftMorning, StartTime: "08:00", EndTime: "20:00", Color: "#58A55C"},
			{Name: "夜岗", Type: model.ShiftNight, StartTime: "20:00", EndTime: "08:00", Color: "#4A6FD4"},
		},
	}

	return c
}

// List 返回全部预设，按代码排序
func (c *Catalog) List() []Preset {
	out := make([]Preset, 0, len(c.presets))
	for _, p := range c.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Code < out[j].Code
	})
	return out
}

// Get 按代码查找预设
func (c *Catalog) Get(code string) (*Preset, error) {
	p, ok := c.presets[code]
	if !ok {
		return nil, errors.NotFound("预设", code)
	}
	return &p, nil
}

// Materialize 把预设落成可入库的规则与班次模板
// 每次调用生成全新的模板 ID，模板归属到指定租户
func (c *Catalog) Materialize(code string, orgID uuid.UUID) (*model.Rules, []*model.ShiftTemplate, error) {
	p, err := c.Get(code)
	if err != nil {
		return nil, nil, err
	}

	rules := p.Rules
	templates := make([]*model.ShiftTemplate, 0, len(p.Templates))
	for _, spec := range p.Templates {
		templates = append(templates, &model.ShiftTemplate{
			BaseModel: model.NewBaseModel(),
			OrgID:     orgID,
			Name:      spec.Name,
			Type:      spec.Type,
			StartTime: spec.StartTime,
			EndTime:   spec.EndTime,
			Color:     spec.Color,
			IsActive:  true,
		})
	}

	return &rules, templates, nil
}

// SuggestCoverage 按名册规模缩放预设的覆盖人数
// 名册不足建议人数时保持基线覆盖，缺口由生成结果的未覆盖槽位暴露
func (c *Catalog) SuggestCoverage(code string, rosterSize int) (*model.Rules, error) {
	if rosterSize <= 0 {
		return nil, errors.InvalidInput("roster_size", "名册人数必须大于 0")
	}

	p, err := c.Get(code)
	if err != nil {
		return nil, err
	}

	scale := coverageScale(rosterSize, p.MinRoster)
	rules := p.Rules
	rules.DayCoverage *= scale
	rules.EveningCoverage *= scale
	rules.NightCoverage *= scale
	rules.PermitCoverage *= scale
	rules.CustomCoverage *= scale

	return &rules, nil
}

// 辅助函数

// coverageScale 计算覆盖倍率：名册人数相对建议人数的整数倍，封顶 maxCoverageScale
func coverageScale(rosterSize, minRoster int) int {
	if minRoster <= 0 {
		return 1
	}
	scale := rosterSize / minRoster
	if scale < 1 {
		return 1
	}
	if scale > maxCoverageScale {
		return maxCoverageScale
	}
	return scale
}
