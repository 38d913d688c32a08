// Package tenant 提供多租户支持
package tenant

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhipai/zhipai/pkg/model"
)

var (
	ErrTenantNotFound = errors.New("租户不存在")
	ErrInvalidTenant  = errors.New("无效的租户")
	ErrTenantDisabled = errors.New("租户已禁用")
)

// Tenant 租户
// 引擎按组织隔离数据，租户是组织在接入层的投影
type Tenant struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`   // 租户编码，请求头 X-Tenant-Code 携带
	Name      string     `json:"name"`   // 租户名称
	Status    string     `json:"status"` // active/suspended/expired
	Settings  Settings   `json:"settings"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiredAt *time.Time `json:"expired_at,omitempty"`
}

// Settings 租户配置
type Settings struct {
	MaxEmployees      int      `json:"max_employees"`       // 单次请求名册人数上限，0 不限
	AllowedPresets    []string `json:"allowed_presets"`     // 允许使用的规则预设
	Features          []string `json:"features"`            // 启用的功能
	APIRateLimit      int      `json:"api_rate_limit"`      // 每分钟请求数上限
	DataRetentionDays int      `json:"data_retention_days"` // 数据保留天数
}

// IsActive 检查租户是否活跃
func (t *Tenant) IsActive() bool {
	if t.Status != "active" {
		return false
	}
	if t.ExpiredAt != nil && t.ExpiredAt.Before(time.Now()) {
		return false
	}
	return true
}

// HasFeature 检查租户是否拥有某功能
func (t *Tenant) HasFeature(feature string) bool {
	for _, f := range t.Settings.Features {
		if f == feature || f == "*" {
			return true
		}
	}
	return false
}

// HasPreset 检查租户是否允许某规则预设
func (t *Tenant) HasPreset(code string) bool {
	for _, p := range t.Settings.AllowedPresets {
		if p == code || p == "*" {
			return true
		}
	}
	return false
}

// AllowsRosterSize 检查名册人数是否在租户配额内
func (t *Tenant) AllowsRosterSize(n int) bool {
	return t.Settings.MaxEmployees <= 0 || n <= t.Settings.MaxEmployees
}

// Registry 租户注册表
type Registry struct {
	tenants map[string]*Tenant // code -> tenant
	mu      sync.RWMutex
}

// NewRegistry 创建租户注册表
func NewRegistry() *Registry {
	return &Registry{
		tenants: make(map[string]*Tenant),
	}
}

// Register 注册租户
func (r *Registry) Register(tenant *Tenant) error {
	if tenant == nil || tenant.Code == "" {
		return ErrInvalidTenant
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tenants[tenant.Code] = tenant
	return nil
}

// Get 获取租户
func (r *Registry) Get(code string) (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tenant, exists := r.tenants[code]
	if !exists {
		return nil, ErrTenantNotFound
	}

	if !tenant.IsActive() {
		return nil, ErrTenantDisabled
	}

	return tenant, nil
}

// GetByID 通过ID获取租户
func (r *Registry) GetByID(id uuid.UUID) (*Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, tenant := range r.tenants {
		if tenant.ID == id {
			if !tenant.IsActive() {
				return nil, ErrTenantDisabled
			}
			return tenant, nil
		}
	}

	return nil, ErrTenantNotFound
}

// List 列出所有租户
func (r *Registry) List() []*Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		result = append(result, t)
	}
	return result
}

// Remove 移除租户
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tenants, code)
}

// 租户上下文键
type tenantContextKey struct{}

// WithTenant 将租户添加到上下文
func WithTenant(ctx context.Context, tenant *Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tenant)
}

// FromContext 从上下文获取租户
func FromContext(ctx context.Context) (*Tenant, bool) {
	tenant, ok := ctx.Value(tenantContextKey{}).(*Tenant)
	return tenant, ok
}

// DefaultSettings 默认租户配置
func DefaultSettings() Settings {
	return Settings{
		MaxEmployees:      500,
		AllowedPresets:    []string{"*"},
		Features:          []string{"generate", "preview", "edit", "stats"},
		APIRateLimit:      120,
		DataRetentionDays: 365,
	}
}

// CreateDefaultTenant 创建默认租户（纯引擎模式和开发测试用）
func CreateDefaultTenant() *Tenant {
	return &Tenant{
		ID:        uuid.New(),
		Code:      "default",
		Name:      "默认租户",
		Status:    "active",
		Settings:  DefaultSettings(),
		CreatedAt: time.Now(),
	}
}

// FromOrganization 把组织记录投影为租户
// settings 里未出现的键取默认配置
func FromOrganization(org *model.Organization) *Tenant {
	settings := DefaultSettings()
	if org.Settings != nil {
		if v, ok := asInt(org.Settings["max_employees"]); ok {
			settings.MaxEmployees = v
		}
		if v, ok := asInt(org.Settings["api_rate_limit"]); ok {
			settings.APIRateLimit = v
		}
		if v, ok := asInt(org.Settings["data_retention_days"]); ok {
			settings.DataRetentionDays = v
		}
		if v, ok := asStrings(org.Settings["allowed_presets"]); ok {
			settings.AllowedPresets = v
		}
		if v, ok := asStrings(org.Settings["features"]); ok {
			settings.Features = v
		}
	}

	return &Tenant{
		ID:        org.ID,
		Code:      org.Code,
		Name:      org.Name,
		Status:    "active",
		Settings:  settings,
		CreatedAt: org.CreatedAt,
	}
}

// 辅助函数

// asInt JSON反序列化后的数字是float64，设置里也可能直接放int
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

func asStrings(v interface{}) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []interface{}:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	default:
		return nil, false
	}
}
