// Package app 提供应用程序的初始化和装配.
package app

import (
	contextPkg "context"
	"fmt"
	"os"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/docvault/pkg/configs"
	"github.com/yeisme/docvault/pkg/internal/jobs"
	"github.com/yeisme/docvault/pkg/internal/router"
	"github.com/yeisme/docvault/pkg/internal/storage"
	"github.com/yeisme/docvault/pkg/log"
	"github.com/yeisme/docvault/pkg/metrics"
	"github.com/yeisme/docvault/pkg/middleware"
	"github.com/yeisme/docvault/pkg/scheduler"
)

// App 聚合 HTTP 引擎、配置与后台调度器.
type App struct {
	Engine    *gin.Engine
	Scheduler *scheduler.Scheduler
	config    *configs.AppConfig
}

// NewApp 完成一次完整装配：配置、日志、指标、存储、路由与定时任务.
func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	log.Init()

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error creating scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	engine := gin.New()
	if len(config.Server.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(config.Server.TrustedProxies); err != nil {
			fmt.Printf("Error setting trusted proxies: %v\n", err)
			os.Exit(1)
		}
	}
	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(manager),
		middleware.SchedulerMiddleware(sched),
		gzip.Gzip(gzip.DefaultCompression),
	)

	router.RegisterAll(engine)

	if config.Metrics.Enabled {
		metrics.MountMetricsEndpoint(config.Metrics, engine)
	}

	return &App{
		Engine:    engine,
		Scheduler: sched,
		config:    config,
	}
}

// Run 启动调度器与 HTTP 服务，阻塞直到服务退出.
func (a *App) Run() error {
	a.Scheduler.Start()

	defer func() {
		if err := a.Scheduler.Stop(); err != nil {
			log.Logger().Error().Err(err).Msg("scheduler shutdown failed")
		}
	}()

	return a.Engine.Run(a.config.Server.Addr())
}
