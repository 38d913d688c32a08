// ZhiPai 排班引擎服务
// 主程序入口

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zhipai/zhipai/internal/config"
	"github.com/zhipai/zhipai/internal/database"
	"github.com/zhipai/zhipai/internal/handler"
	"github.com/zhipai/zhipai/internal/metrics"
	"github.com/zhipai/zhipai/internal/middleware"
	"github.com/zhipai/zhipai/internal/repository"
	"github.com/zhipai/zhipai/internal/tenant"
	"github.com/zhipai/zhipai/pkg/logger"
	"github.com/zhipai/zhipai/pkg/preset"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})

	// 打印版本信息
	fmt.Printf("ZhiPai 排班引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// ========================================
	// 数据层（可选）
	// ========================================

	var db *database.DB
	var store *handler.Store
	if cfg.Database.Enabled {
		db, err = database.New(&cfg.Database)
		if err != nil {
			logger.Error().Err(err).Msg("数据库连接失败")
			os.Exit(1)
		}
		defer db.Close()
		store = handler.NewStore(db)
		logger.Info().
			Str("host", cfg.Database.Host).
			Str("database", cfg.Database.Name).
			Msg("数据库已连接")
	} else {
		logger.Info().Msg("纯引擎模式：数据库未启用，仅接受内联请求载荷")
	}

	// 租户注册表
	registry := tenant.NewRegistry()
	if err := seedTenants(registry, store); err != nil {
		logger.Error().Err(err).Msg("租户注册表初始化失败")
		os.Exit(1)
	}

	// ========================================
	// 处理器
	// ========================================

	catalog := preset.NewCatalog()
	scheduleHandler := handler.NewScheduleHandler(cfg.Engine, catalog, store)
	statsHandler := handler.NewStatsHandler(store)
	rulesHandler := handler.NewRulesHandler(catalog)

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"degraded","service":"zhipai","database":"down"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"zhipai"}`))
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":%q,"build_time":%q,"git_commit":%q}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "ZhiPai 排班引擎 API v1",
			"endpoints": {
				"schedule": {
					"generate": "POST /api/v1/schedule/generate",
					"preview": "POST /api/v1/schedule/preview",
					"validate_move": "POST /api/v1/schedule/validate-move",
					"replacements": "POST /api/v1/schedule/replacements",
					"edit": "POST /api/v1/schedule/edit",
					"audit": "POST /api/v1/schedule/audit"
				},
				"rules": {
					"library": "GET /api/v1/rules/library",
					"presets": "GET /api/v1/rules/presets",
					"preset": "GET /api/v1/rules/presets/{code}"
				},
				"stats": {
					"fairness": "POST /api/v1/stats/fairness",
					"coverage": "POST /api/v1/stats/coverage"
				}
			}
		}`))
	})

	// 排班 API
	mux.HandleFunc("/api/v1/schedule/generate", scheduleHandler.Generate)
	mux.HandleFunc("/api/v1/schedule/preview", scheduleHandler.Preview)
	mux.HandleFunc("/api/v1/schedule/validate-move", scheduleHandler.ValidateMove)
	mux.HandleFunc("/api/v1/schedule/replacements", scheduleHandler.Replacements)
	mux.HandleFunc("/api/v1/schedule/edit", scheduleHandler.Edit)
	mux.HandleFunc("/api/v1/schedule/audit", scheduleHandler.Audit)

	// 规则与预设 API
	mux.HandleFunc("/api/v1/rules/library", rulesHandler.Library)
	mux.HandleFunc("/api/v1/rules/presets", rulesHandler.Presets)
	mux.HandleFunc("/api/v1/rules/presets/", rulesHandler.Presets)

	// 统计分析 API
	mux.HandleFunc("/api/v1/stats/fairness", statsHandler.Fairness)
	mux.HandleFunc("/api/v1/stats/coverage", statsHandler.Coverage)

	// ========================================
	// 监控端点
	// ========================================

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
		if db != nil {
			go reportDBStats(db)
		}
	}

	// ========================================
	// 中间件
	// ========================================

	// 执行顺序：recovery -> requestID -> securityHeaders -> cors -> metrics -> logging -> tenant -> mux
	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimit, time.Minute)
	tenantMW := middleware.TenantMiddleware(&middleware.TenantConfig{
		Registry:        registry,
		RateLimiter:     rateLimiter,
		SkipPaths:       []string{"/health", "/version", cfg.Metrics.Path},
		EnableRateLimit: cfg.Server.RateLimit > 0,
	})

	var root http.Handler = mux
	root = tenantMW(root)
	root = middleware.LoggingMiddleware(root)
	root = middleware.MetricsMiddleware(root)
	if cfg.Server.CORS.Enabled {
		root = middleware.CORSMiddleware(cfg.Server.CORS.Origins)(root)
	}
	root = middleware.SecurityHeadersMiddleware(root)
	root = middleware.RequestIDMiddleware(root)
	root = middleware.RecoveryMiddleware(root)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      root,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: 2 * cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.Server.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Bool("database", cfg.Database.Enabled).
			Str("api_docs", fmt.Sprintf("http://localhost:%d/api/v1/", cfg.Server.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// seedTenants 初始化租户注册表
// 数据库模式下把组织记录投影为租户，纯引擎模式只注册默认租户
func seedTenants(registry *tenant.Registry, store *handler.Store) error {
	if store == nil {
		return registry.Register(tenant.CreateDefaultTenant())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	orgs, _, err := store.Organizations.List(ctx, repository.ListFilter{Limit: 1000})
	if err != nil {
		return fmt.Errorf("加载组织列表失败: %w", err)
	}
	for _, org := range orgs {
		if err := registry.Register(tenant.FromOrganization(org)); err != nil {
			return err
		}
	}

	// 未带租户头的请求落到 default 租户，组织表缺少该代码时补一个内置的
	if _, err := registry.Get("default"); err != nil {
		if regErr := registry.Register(tenant.CreateDefaultTenant()); regErr != nil {
			return regErr
		}
	}

	logger.Info().Int("tenants", len(registry.List())).Msg("租户注册表就绪")
	return nil
}

// reportDBStats 周期性上报数据库连接池状态
func reportDBStats(db *database.DB) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s := db.Stats()
		metrics.SetDBConnections("open", s.OpenConnections)
		metrics.SetDBConnections("idle", s.Idle)
		metrics.SetDBConnections("in_use", s.InUse)
	}
}
