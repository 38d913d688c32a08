package middleware

import (
	"sync"
	"time"
)

// RateLimiter 滑动窗口请求频率限制器
// 单节点内存实现，按租户编码计数
type RateLimiter struct {
	requests map[string][]time.Time // key -> request timestamps
	limit    int                    // 默认时间窗口内最大请求数
	window   time.Duration          // 时间窗口
	mu       sync.Mutex
}

// NewRateLimiter 创建频率限制器
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}

	// 启动清理协程
	go rl.cleanup()

	return rl
}

// Allow 按默认上限检查是否允许请求
func (rl *RateLimiter) Allow(key string) bool {
	return rl.AllowLimit(key, rl.limit)
}

// AllowLimit 按指定上限检查是否允许请求，limit <= 0 时取默认上限
// 租户可以在自己的配置里覆盖全局上限
func (rl *RateLimiter) AllowLimit(key string, limit int) bool {
	if limit <= 0 {
		limit = rl.limit
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	// 只保留时间窗口内的请求
	reqs := rl.requests[key]
	var validReqs []time.Time
	for _, t := range reqs {
		if t.After(windowStart) {
			validReqs = append(validReqs, t)
		}
	}

	if len(validReqs) >= limit {
		rl.requests[key] = validReqs
		return false
	}

	validReqs = append(validReqs, now)
	rl.requests[key] = validReqs

	return true
}

// cleanup 定期清理过期数据
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		windowStart := time.Now().Add(-rl.window)

		for key, reqs := range rl.requests {
			var validReqs []time.Time
			for _, t := range reqs {
				if t.After(windowStart) {
					validReqs = append(validReqs, t)
				}
			}
			if len(validReqs) == 0 {
				delete(rl.requests, key)
			} else {
				rl.requests[key] = validReqs
			}
		}
		rl.mu.Unlock()
	}
}
