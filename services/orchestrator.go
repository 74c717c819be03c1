package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ad_insight_agent/config"
	"ad_insight_agent/logger"
	"ad_insight_agent/models"
)

// Orchestrator 依次执行数据、分析、优化三个阶段
type Orchestrator struct {
	data         *DataStage
	analysis     *AnalysisStage
	optimization *OptimizationStage
	previewLen   int
	metrics      *Metrics
}

// NewOrchestrator 由启动时构建好的模型与数据源组装流水线
func NewOrchestrator(source DataSource, llm LanguageModel, cfg config.PipelineConfig, metrics *Metrics) *Orchestrator {
	previewLen := cfg.SummaryPreviewLen
	if previewLen <= 0 {
		previewLen = config.DefaultPipelineConfig().SummaryPreviewLen
	}
	return &Orchestrator{
		data:         NewDataStage(source),
		analysis:     NewAnalysisStage(llm),
		optimization: NewOptimizationStage(llm, cfg, metrics),
		previewLen:   previewLen,
		metrics:      metrics,
	}
}

// Run 执行一次完整流水线；任何阶段失败都体现在返回结果中，不返回错误
func (o *Orchestrator) Run(ctx context.Context, task, dateStart, dateEnd string) (result models.PipelineRunResult) {
	started := time.Now()
	result = models.PipelineRunResult{
		RunID:       uuid.NewString(),
		Task:        task,
		Suggestions: []models.SuggestionItem{},
		Steps:       make([]models.StageResult, 0, 3),
		StartedAt:   started,
	}
	log := logger.With("run_id", result.RunID)
	log.Info("开始执行广告分析流水线", "task", task, "date_start", dateStart, "date_end", dateEnd)

	defer func() {
		result.DurationMs = time.Since(started).Milliseconds()
		o.metrics.observeRun(result.Verified, time.Since(started))
	}()

	// 步骤1：数据
	log.Info("[步骤1/3] 读取并汇总广告数据")
	dataRes := runGuarded(models.StageData, func() DataStageResult {
		return o.data.Run(ctx, task, dateStart, dateEnd)
	}, func(msg string) DataStageResult { return DataStageResult{Err: msg} })
	o.appendStep(&result, dataRes.StageResult(o.previewLen))
	if !dataRes.Verified {
		log.Warn("数据阶段失败，流水线终止", "error", dataRes.Err)
		result.DataSummary = models.TaskFailedMarker
		return result
	}
	result.DataSummary = dataRes.SummaryText

	// 步骤2：分析
	log.Info("[步骤2/3] 分析广告表现", "campaigns", len(dataRes.Summary.Campaigns))
	analysisRes := runGuarded(models.StageAnalysis, func() AnalysisStageResult {
		return o.analysis.Run(ctx, dataRes.SummaryText)
	}, func(msg string) AnalysisStageResult { return AnalysisStageResult{Err: msg} })
	o.appendStep(&result, analysisRes.StageResult(o.previewLen))
	if !analysisRes.Verified {
		log.Warn("分析阶段失败，继续生成优化建议", "error", analysisRes.Err)
	}
	result.AnalysisInsights = analysisRes.Insights

	// 步骤3：优化
	log.Info("[步骤3/3] 生成优化建议")
	optRes := runGuarded(models.StageOptimization, func() OptimizationStageResult {
		return o.optimization.Run(ctx, analysisRes.Insights)
	}, func(msg string) OptimizationStageResult { return OptimizationStageResult{LastReason: msg} })
	o.appendStep(&result, optRes.StageResult(o.previewLen))
	if !optRes.Verified {
		log.Warn("优化阶段未通过验证", "attempts", len(optRes.Attempts), "reason", optRes.LastReason)
		result.OptimizationSuggestions = models.OptimizationFailedMarker
		return result
	}

	result.OptimizationSuggestions = optRes.Text
	result.Suggestions = optRes.Suggestions
	result.Evaluation = optRes.Evaluation
	result.Verified = analysisRes.Verified
	log.Info("流水线执行完成", "verified", result.Verified, "attempts", len(optRes.Attempts),
		"score", optRes.Evaluation.Score)
	return result
}

func (o *Orchestrator) appendStep(result *models.PipelineRunResult, step models.StageResult) {
	o.metrics.observeStage(step.Name, step.Verified)
	result.Steps = append(result.Steps, step)
}

// runGuarded 将阶段内的 panic 转为失败结果，保证流水线总能返回
func runGuarded[T any](stage string, run func() T, onPanic func(msg string) T) (out T) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("%s 执行异常: %v", stage, r)
			logger.Error("阶段执行异常", "stage", stage, "panic", r)
			out = onPanic(msg)
		}
	}()
	return run()
}
