// Package optimizer 提供排班方案优选：并行生成多个候选并按质量取优
package optimizer

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhipai/zhipai/pkg/errors"
	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/model"
	"github.com/zhipai/zhipai/pkg/scheduler/generator"
	"github.com/zhipai/zhipai/pkg/stats"
)

// 评分权重，分数越低方案越好
const (
	uncoveredWeight = 100.0 // 每个未覆盖槽位
	spreadWeight    = 10.0  // 班次数极差
	nightGiniWeight = 50.0  // 夜班基尼系数
)

// Config 优选配置
type Config struct {
	Runs    int `json:"runs"`    // 独立生成次数
	Workers int `json:"workers"` // 并发工作协程数
}

// DefaultConfig 返回默认优选配置
func DefaultConfig() *Config {
	return &Config{
		Runs:    5,
		Workers: 4,
	}
}

// Candidate 单次生成的评分结果
type Candidate struct {
	Index     int               `json:"index"`
	Result    *generator.Result `json:"result,omitempty"`
	Score     float64           `json:"score"`
	Uncovered int               `json:"uncovered"`
	Spread    int               `json:"spread"`
	NightGini float64           `json:"night_gini"`
	Err       error             `json:"-"`
}

// Selection 优选结果
type Selection struct {
	Best       *Candidate    `json:"best"`
	Candidates []Candidate   `json:"candidates"`
	Runs       int           `json:"runs"`
	Duration   time.Duration `json:"duration"`
}

// Runner 最优方案选择器。
// 生成运行之间不共享可变状态，可以安全并行；每次运行使用独立随机源。
type Runner struct {
	cfg      *Config
	fairness *stats.FairnessAnalyzer
	log      zerolog.Logger
}

// NewRunner 创建优选运行器
func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Runs <= 0 {
		cfg.Runs = DefaultConfig().Runs
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	return &Runner{
		cfg:      cfg,
		fairness: stats.NewFairnessAnalyzer(),
		log:      logger.Get().With().Str("component", "optimizer").Logger(),
	}
}

// Run 并行执行 N 次独立生成并返回最优候选。
// 取消只阻止尚未开始的运行，已开始的运行总会跑完。
func (r *Runner) Run(ctx context.Context, req *generator.Request) (*Selection, error) {
	started := time.Now()

	jobChan := make(chan int, r.cfg.Runs)
	resultChan := make(chan Candidate, r.cfg.Runs)
	seed := started.UnixNano()

	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
					resultChan <- r.runOnce(idx, seed+int64(idx), req)
				}
			}
		}()
	}

	go func() {
		for i := 0; i < r.cfg.Runs; i++ {
			jobChan <- i
		}
		close(jobChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	candidates := make([]Candidate, 0, r.cfg.Runs)
	for c := range resultChan {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Index < candidates[j].Index
	})

	best := FindBest(candidates)
	if best == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, c := range candidates {
			if c.Err != nil {
				return nil, c.Err
			}
		}
		return nil, errors.New(errors.CodeInternal, "没有可用的生成结果")
	}

	r.log.Info().
		Int("runs", r.cfg.Runs).
		Int("workers", r.cfg.Workers).
		Int("best_index", best.Index).
		Float64("best_score", best.Score).
		Dur("duration", time.Since(started)).
		Msg("排班方案优选完成")

	return &Selection{
		Best:       best,
		Candidates: candidates,
		Runs:       r.cfg.Runs,
		Duration:   time.Since(started),
	}, nil
}

// runOnce 执行一次独立生成并评分
func (r *Runner) runOnce(idx int, seed int64, req *generator.Request) Candidate {
	gen := generator.NewGeneratorWithSampler(nil, rand.New(rand.NewSource(seed)))
	result, err := gen.Generate(req)
	if err != nil {
		return Candidate{Index: idx, Err: err}
	}

	metrics := r.fairness.Analyze(result.Assignments, model.ActiveEmployees(req.Employees), model.HistoricalByEmployee(req.History))
	c := Candidate{
		Index:     idx,
		Result:    result,
		Uncovered: len(result.Uncovered),
		Spread:    metrics.LoadSpread,
		NightGini: metrics.NightGini,
	}
	c.Score = float64(c.Uncovered)*uncoveredWeight +
		float64(c.Spread)*spreadWeight +
		c.NightGini*nightGiniWeight
	return c
}

// FindBest 从候选中找出得分最低的可用方案，同分取序号较小者
func FindBest(candidates []Candidate) *Candidate {
	var best *Candidate
	for i := range candidates {
		if candidates[i].Err != nil {
			continue
		}
		if best == nil || candidates[i].Score < best.Score {
			best = &candidates[i]
		}
	}
	return best
}
