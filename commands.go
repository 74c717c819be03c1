package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"ad_insight_agent/config"
	"ad_insight_agent/db"
	"ad_insight_agent/handlers"
	"ad_insight_agent/logger"
	"ad_insight_agent/repository"
	"ad_insight_agent/scheduler"
	"ad_insight_agent/services"
)

var (
	runStart string
	runEnd   string
	runTask  string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务（含定时巡检）",
		RunE:  runServe,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "执行一次流水线并以 JSON 输出结果",
		RunE:  runOnce,
	}
)

func init() {
	runCmd.Flags().StringVar(&runTask, "task", "", "任务描述（必填）")
	runCmd.Flags().StringVar(&runStart, "start", "", "开始日期 YYYY-MM-DD")
	runCmd.Flags().StringVar(&runEnd, "end", "", "结束日期 YYYY-MM-DD")
	_ = runCmd.MarkFlagRequired("task")
}

// app 启动时构建一次的全部依赖
type app struct {
	cfg          *config.Config
	orchestrator *services.Orchestrator
	prompts      *services.PromptService
	registry     *prometheus.Registry
	database     *sql.DB
}

func (a *app) Close() {
	if a.database != nil {
		a.database.Close()
	}
}

// bootstrap 初始化日志、指标、数据源与语言模型
func bootstrap(cfg *config.Config) (*app, error) {
	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}
	logger.Info("日志系统初始化成功", "level", cfg.Log.Level, "format", cfg.Log.Format, "output", cfg.Log.Output)

	a := &app{cfg: cfg}

	var metrics *services.Metrics
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = services.NewMetrics(cfg.Metrics.Namespace, a.registry)
	}

	source, err := a.openSource()
	if err != nil {
		a.Close()
		return nil, err
	}

	llm, err := services.NewLanguageModel(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	llm = services.Instrument(llm, metrics)

	a.orchestrator = services.NewOrchestrator(source, llm, cfg.Pipeline, metrics)
	a.prompts = services.NewPromptService(llm)
	logger.Info("流水线初始化完成",
		"backend", cfg.LLM.Backend,
		"data_source", source.Path(),
		"max_attempts", cfg.Pipeline.MaxAttempts,
		"pass_threshold", cfg.Pipeline.PassThreshold)
	return a, nil
}

// openSource 按配置选择 CSV 或 SQL 数据源
func (a *app) openSource() (services.DataSource, error) {
	cfg := a.cfg
	if cfg.DataSource.Type == config.DataSourceCSV {
		path, err := cfg.CSVPath()
		if err != nil {
			return nil, err
		}
		return repository.NewCSVSource(path), nil
	}

	database, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化数据库失败: %w", err)
	}
	a.database = database
	logger.Info("数据库连接成功", "type", cfg.DataSource.Type, "table", cfg.DataSource.Table)
	source, err := repository.NewSQLSource(database, cfg.DataSource.Table)
	if err != nil {
		return nil, err
	}
	return source, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(loadConfig())
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(handlers.Recoverer)

	deps := handlers.Deps{Runner: a.orchestrator, Prompter: a.prompts}
	if a.registry != nil {
		deps.Gatherer = a.registry
	}
	handlers.RegisterRoutes(r, deps)

	if cfg.Scheduler.Enabled {
		sched, err := scheduler.NewScheduler(cfg, a.orchestrator)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	host := cfg.Server.Host
	if host == "" {
		host = "localhost"
	}
	logger.Info("服务器启动", "address", cfg.Server.Addr)
	logger.Info("Swagger文档可访问", "url", fmt.Sprintf("http://%s%s/swagger/index.html", host, cfg.Server.Addr))

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("收到退出信号，正在关闭服务器")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runOnce(cmd *cobra.Command, args []string) error {
	a, err := bootstrap(loadConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	result := a.orchestrator.Run(cmd.Context(), runTask, runStart, runEnd)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if !result.Verified {
		return fmt.Errorf("流水线未通过验证 (run_id=%s)", result.RunID)
	}
	return nil
}
