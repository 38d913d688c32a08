// Package metrics 提供Prometheus文本格式的监控指标
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry 指标注册表
type Registry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter 计数器
type Counter struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Gauge 仪表盘
type Gauge struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Histogram 直方图
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	counts  map[string][]int
	sums    map[string]float64
	mu      sync.RWMutex
}

var (
	registry *Registry
	once     sync.Once
)

// GetRegistry 获取全局注册表
func GetRegistry() *Registry {
	once.Do(func() {
		registry = &Registry{
			counters:   make(map[string]*Counter),
			gauges:     make(map[string]*Gauge),
			histograms: make(map[string]*Histogram),
		}
		initDefaultMetrics()
	})
	return registry
}

// initDefaultMetrics 初始化默认指标
func initDefaultMetrics() {
	// HTTP请求
	registry.NewCounter("zhipai_http_requests_total", "HTTP请求总数", []string{"method", "path", "status"})
	registry.NewHistogram("zhipai_http_request_duration_seconds", "HTTP请求延迟",
		[]string{"method", "path"},
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0})

	// 排班生成（mode: generate/preview）
	registry.NewCounter("zhipai_generation_total", "排班生成次数", []string{"mode", "status"})
	registry.NewHistogram("zhipai_generation_duration_seconds", "排班生成耗时",
		[]string{"mode"},
		[]float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0})

	// 编辑与冲突
	registry.NewCounter("zhipai_edit_requests_total", "排班编辑请求数", []string{"operation", "decision"})
	registry.NewCounter("zhipai_conflicts_detected_total", "检出冲突数", []string{"type"})

	// 运行状态
	registry.NewGauge("zhipai_inflight_requests", "处理中的HTTP请求数", []string{})
	registry.NewGauge("zhipai_db_connections", "数据库连接数", []string{"state"})

	// 方案质量
	registry.NewGauge("zhipai_preview_best_score", "预演最优方案分数", []string{"org_id"})
	registry.NewGauge("zhipai_uncovered_slots", "未覆盖槽位数", []string{"org_id"})
	registry.NewGauge("zhipai_fairness_gini", "公平性基尼系数", []string{"org_id", "metric"})
	registry.NewGauge("zhipai_coverage_rate", "班次覆盖率", []string{"org_id"})
}

// NewCounter 创建计数器
func (r *Registry) NewCounter(name, help string, labels []string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	counter := &Counter{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.counters[name] = counter
	return counter
}

// NewGauge 创建仪表盘
func (r *Registry) NewGauge(name, help string, labels []string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	gauge := &Gauge{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.gauges[name] = gauge
	return gauge
}

// NewHistogram 创建直方图
func (r *Registry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	histogram := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]int),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = histogram
	return histogram
}

// GetCounter 获取计数器
func (r *Registry) GetCounter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// GetGauge 获取仪表盘
func (r *Registry) GetGauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// GetHistogram 获取直方图
func (r *Registry) GetHistogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Counter methods

// Inc 增加计数
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add 增加指定值
func (c *Counter) Add(value float64, labelValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[labelKey(labelValues)] += value
}

// Gauge methods

// Set 设置值
func (g *Gauge) Set(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] = value
}

// Inc 增加
func (g *Gauge) Inc(labelValues ...string) {
	g.Add(1, labelValues...)
}

// Dec 减少
func (g *Gauge) Dec(labelValues ...string) {
	g.Add(-1, labelValues...)
}

// Add 增加指定值
func (g *Gauge) Add(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] += value
}

// Histogram methods

// Observe 记录观测值
// 每个观测只落入第一个满足 value <= 上界 的桶，输出时再做累积
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := labelKey(labelValues)
	if _, exists := h.counts[key]; !exists {
		h.counts[key] = make([]int, len(h.Buckets)+1)
	}

	placed := false
	for i, bucket := range h.Buckets {
		if value <= bucket {
			h.counts[key][i]++
			placed = true
			break
		}
	}
	if !placed {
		h.counts[key][len(h.Buckets)]++ // +Inf bucket
	}
	h.sums[key] += value
}

// labelKey 生成标签键
func labelKey(labels []string) string {
	return strings.Join(labels, ",")
}

// Handler 返回Prometheus文本格式的指标HTTP处理器
// 输出按指标名和标签键排序，保证抓取结果可比对
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		reg := GetRegistry()
		reg.mu.RLock()
		defer reg.mu.RUnlock()

		for _, name := range sortedKeys(reg.counters) {
			counter := reg.counters[name]
			fmt.Fprintf(w, "# HELP %s %s\n", counter.Name, counter.Help)
			fmt.Fprintf(w, "# TYPE %s counter\n", counter.Name)

			counter.mu.RLock()
			for _, key := range sortedKeys(counter.values) {
				if key == "" {
					fmt.Fprintf(w, "%s %f\n", counter.Name, counter.values[key])
				} else {
					fmt.Fprintf(w, "%s{%s} %f\n", counter.Name, formatLabels(counter.Labels, key), counter.values[key])
				}
			}
			counter.mu.RUnlock()
		}

		for _, name := range sortedKeys(reg.gauges) {
			gauge := reg.gauges[name]
			fmt.Fprintf(w, "# HELP %s %s\n", gauge.Name, gauge.Help)
			fmt.Fprintf(w, "# TYPE %s gauge\n", gauge.Name)

			gauge.mu.RLock()
			for _, key := range sortedKeys(gauge.values) {
				if key == "" {
					fmt.Fprintf(w, "%s %f\n", gauge.Name, gauge.values[key])
				} else {
					fmt.Fprintf(w, "%s{%s} %f\n", gauge.Name, formatLabels(gauge.Labels, key), gauge.values[key])
				}
			}
			gauge.mu.RUnlock()
		}

		for _, name := range sortedKeys(reg.histograms) {
			histogram := reg.histograms[name]
			fmt.Fprintf(w, "# HELP %s %s\n", histogram.Name, histogram.Help)
			fmt.Fprintf(w, "# TYPE %s histogram\n", histogram.Name)

			histogram.mu.RLock()
			for _, key := range sortedKeys(histogram.counts) {
				counts := histogram.counts[key]
				cumulative := 0
				for i, bucket := range histogram.Buckets {
					cumulative += counts[i]
					if key == "" {
						fmt.Fprintf(w, "%s_bucket{le=\"%g\"} %d\n", histogram.Name, bucket, cumulative)
					} else {
						fmt.Fprintf(w, "%s_bucket{%s,le=\"%g\"} %d\n", histogram.Name, formatLabels(histogram.Labels, key), bucket, cumulative)
					}
				}
				cumulative += counts[len(histogram.Buckets)]
				if key == "" {
					fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", histogram.Name, cumulative)
					fmt.Fprintf(w, "%s_sum %f\n", histogram.Name, histogram.sums[key])
					fmt.Fprintf(w, "%s_count %d\n", histogram.Name, cumulative)
				} else {
					fmt.Fprintf(w, "%s_bucket{%s,le=\"+Inf\"} %d\n", histogram.Name, formatLabels(histogram.Labels, key), cumulative)
					fmt.Fprintf(w, "%s_sum{%s} %f\n", histogram.Name, formatLabels(histogram.Labels, key), histogram.sums[key])
					fmt.Fprintf(w, "%s_count{%s} %d\n", histogram.Name, formatLabels(histogram.Labels, key), cumulative)
				}
			}
			histogram.mu.RUnlock()
		}
	})
}

// 辅助函数

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatLabels 格式化标签
func formatLabels(names []string, values string) string {
	vals := strings.Split(values, ",")
	parts := make([]string, 0, len(names))
	for i, name := range names {
		val := ""
		if i < len(vals) {
			val = vals[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", name, val))
	}
	return strings.Join(parts, ",")
}

// RecordRequest 记录HTTP请求指标
func RecordRequest(method, path string, status int, duration time.Duration) {
	reg := GetRegistry()

	if counter := reg.GetCounter("zhipai_http_requests_total"); counter != nil {
		counter.Inc(method, path, fmt.Sprintf("%d", status))
	}
	if histogram := reg.GetHistogram("zhipai_http_request_duration_seconds"); histogram != nil {
		histogram.Observe(duration.Seconds(), method, path)
	}
}

// RecordGeneration 记录排班生成指标，mode 为 generate 或 preview
func RecordGeneration(mode string, success bool, duration time.Duration) {
	reg := GetRegistry()

	status := "success"
	if !success {
		status = "failure"
	}
	if counter := reg.GetCounter("zhipai_generation_total"); counter != nil {
		counter.Inc(mode, status)
	}
	if histogram := reg.GetHistogram("zhipai_generation_duration_seconds"); histogram != nil {
		histogram.Observe(duration.Seconds(), mode)
	}
}

// RecordEdit 记录排班编辑请求，decision 为 applied 或 rejected
func RecordEdit(operation, decision string) {
	reg := GetRegistry()
	if counter := reg.GetCounter("zhipai_edit_requests_total"); counter != nil {
		counter.Inc(operation, decision)
	}
}

// RecordConflicts 按冲突类型累加检出数
func RecordConflicts(typeCounts map[string]int) {
	reg := GetRegistry()
	counter := reg.GetCounter("zhipai_conflicts_detected_total")
	if counter == nil {
		return
	}
	for conflictType, n := range typeCounts {
		counter.Add(float64(n), conflictType)
	}
}

// IncInflight 处理中请求数加一
func IncInflight() {
	if gauge := GetRegistry().GetGauge("zhipai_inflight_requests"); gauge != nil {
		gauge.Inc()
	}
}

// DecInflight 处理中请求数减一
func DecInflight() {
	if gauge := GetRegistry().GetGauge("zhipai_inflight_requests"); gauge != nil {
		gauge.Dec()
	}
}

// SetDBConnections 设置数据库连接数
func SetDBConnections(state string, n int) {
	if gauge := GetRegistry().GetGauge("zhipai_db_connections"); gauge != nil {
		gauge.Set(float64(n), state)
	}
}

// SetPreviewBestScore 设置预演最优方案分数
func SetPreviewBestScore(orgID string, score float64) {
	if gauge := GetRegistry().GetGauge("zhipai_preview_best_score"); gauge != nil {
		gauge.Set(score, orgID)
	}
}

// SetUncoveredSlots 设置未覆盖槽位数
func SetUncoveredSlots(orgID string, n int) {
	if gauge := GetRegistry().GetGauge("zhipai_uncovered_slots"); gauge != nil {
		gauge.Set(float64(n), orgID)
	}
}

// SetFairnessGini 设置公平性基尼系数，metric 为 load/night/cumulative
func SetFairnessGini(orgID, metric string, gini float64) {
	if gauge := GetRegistry().GetGauge("zhipai_fairness_gini"); gauge != nil {
		gauge.Set(gini, orgID, metric)
	}
}

// SetCoverageRate 设置班次覆盖率
func SetCoverageRate(orgID string, rate float64) {
	if gauge := GetRegistry().GetGauge("zhipai_coverage_rate"); gauge != nil {
		gauge.Set(rate, orgID)
	}
}
