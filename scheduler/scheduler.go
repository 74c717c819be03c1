package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ad_insight_agent/config"
	"ad_insight_agent/logger"
	"ad_insight_agent/models"
)

// Runner 定时任务执行的流水线
type Runner interface {
	Run(ctx context.Context, task, dateStart, dateEnd string) models.PipelineRunResult
}

// 任务状态
type TaskStatus struct {
	LastRun     time.Time
	NextRun     time.Time
	IsRunning   bool
	Description string
	LastRunID   string
	LastOK      bool
}

// 任务调度器
type Scheduler struct {
	task         string
	lookbackDays int
	runner       Runner
	cron         *cron.Cron
	schedule     cron.Schedule
	status       TaskStatus
	mutex        sync.Mutex
	now          func() time.Time
}

// ParseCron 解析五段式 cron 表达式
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// 创建新的调度器
func NewScheduler(cfg *config.Config, runner Runner) (*Scheduler, error) {
	schedule, err := ParseCron(cfg.Scheduler.Cron)
	if err != nil {
		return nil, fmt.Errorf("无效的 cron 表达式 %q: %w", cfg.Scheduler.Cron, err)
	}
	lookback := cfg.Scheduler.LookbackDays
	if lookback <= 0 {
		lookback = 7
	}

	return &Scheduler{
		task:         cfg.Scheduler.Task,
		lookbackDays: lookback,
		runner:       runner,
		cron:         cron.New(),
		schedule:     schedule,
		status:       TaskStatus{Description: fmt.Sprintf("%s (%s, 回溯%d天)", cfg.Scheduler.Task, cfg.Scheduler.Cron, lookback)},
		now:          time.Now,
	}, nil
}

// 启动调度器
func (s *Scheduler) Start() {
	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		s.RunOnce(context.Background())
	}))
	s.cron.Start()

	s.mutex.Lock()
	s.status.NextRun = s.schedule.Next(s.now())
	next := s.status.NextRun
	s.mutex.Unlock()
	logger.Info("调度器已启动", "task", s.status.Description, "next_run", next.Format("2006-01-02 15:04:05"))
}

// Stop 停止调度并等待正在执行的任务结束
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("调度器已停止")
}

// Status 返回任务状态快照
func (s *Scheduler) Status() TaskStatus {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.status
}

// RunOnce 对回溯窗口执行一次流水线；上一次仍在运行时跳过并返回 false
func (s *Scheduler) RunOnce(ctx context.Context) (models.PipelineRunResult, bool) {
	s.mutex.Lock()
	if s.status.IsRunning {
		s.mutex.Unlock()
		logger.Warn("上一次任务仍在执行，跳过本次调度", "task", s.status.Description)
		return models.PipelineRunResult{}, false
	}
	s.status.IsRunning = true
	now := s.now()
	s.mutex.Unlock()

	start, end := LookbackWindow(now, s.lookbackDays)
	logger.Info("开始执行任务", "task", s.task, "date_start", start, "date_end", end)

	result := s.runner.Run(ctx, s.task, start, end)

	s.mutex.Lock()
	s.status.IsRunning = false
	s.status.LastRun = now
	s.status.LastRunID = result.RunID
	s.status.LastOK = result.Verified
	s.status.NextRun = s.schedule.Next(s.now())
	next := s.status.NextRun
	s.mutex.Unlock()

	if result.Verified {
		logger.Info("任务执行完成", "run_id", result.RunID, "suggestions", len(result.Suggestions),
			"next_run", next.Format("2006-01-02 15:04:05"))
	} else {
		logger.Warn("任务执行完成但未通过验证", "run_id", result.RunID,
			"optimization", result.OptimizationSuggestions, "next_run", next.Format("2006-01-02 15:04:05"))
	}
	return result, true
}

// LookbackWindow 返回截至昨天的最近 days 个完整自然日
func LookbackWindow(now time.Time, days int) (string, string) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := today.AddDate(0, 0, -1)
	start := today.AddDate(0, 0, -days)
	return start.Format(models.DateLayout), end.Format(models.DateLayout)
}
