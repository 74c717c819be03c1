package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ad_insight_agent/config"
	"ad_insight_agent/logger"
	"ad_insight_agent/models"
	"ad_insight_agent/utils"
)

// 单次尝试的结果类别
const (
	AttemptTransportError = "transport_error"
	AttemptInvalid        = "invalid"
	AttemptRejected       = "rejected"
	AttemptAccepted       = "accepted"
)

// AttemptRecord 单次生成尝试的记录
type AttemptRecord struct {
	Attempt     int     `json:"attempt"`
	Temperature float64 `json:"temperature"`
	Outcome     string  `json:"outcome"`
	Reason      string  `json:"reason,omitempty"`
	Score       *int    `json:"score,omitempty"`
}

// OptimizationStageResult 优化阶段输出
type OptimizationStageResult struct {
	Text        string
	Suggestions []models.SuggestionItem
	Evaluation  *models.QualityEvaluation
	Verified    bool
	Attempts    []AttemptRecord
	LastReason  string
}

// OptimizationStage 生成、校验、评审并在失败时带反馈重试
type OptimizationStage struct {
	llm     LanguageModel
	gate    *QualityGate
	cfg     config.PipelineConfig
	metrics *Metrics
}

// NewOptimizationStage 创建优化阶段，非法配置回落到默认值
func NewOptimizationStage(llm LanguageModel, cfg config.PipelineConfig, metrics *Metrics) *OptimizationStage {
	def := config.DefaultPipelineConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.BaseTemperature < 0 {
		cfg.BaseTemperature = def.BaseTemperature
	}
	if cfg.TemperatureStep < 0 {
		cfg.TemperatureStep = 0
	}
	return &OptimizationStage{
		llm:     llm,
		gate:    NewQualityGate(llm, cfg.PassThreshold, cfg.GraderMaxTokens),
		cfg:     cfg,
		metrics: metrics,
	}
}

// temperatureFor 第 n 次尝试的采样温度
func (s *OptimizationStage) temperatureFor(attempt int) float64 {
	return s.cfg.BaseTemperature + float64(attempt-1)*s.cfg.TemperatureStep
}

// Run 最多尝试 MaxAttempts 次，首次通过即返回；全部失败时返回最后一次的文本与原因
func (s *OptimizationStage) Run(ctx context.Context, analysis string) OptimizationStageResult {
	var (
		result   OptimizationStageResult
		reason   string
		lastText string
	)

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			reason = fmt.Sprintf("任務已取消：%v", err)
			logger.Warn("优化阶段被取消", "attempt", attempt, "error", err)
			break
		}

		temperature := s.temperatureFor(attempt)
		record := AttemptRecord{Attempt: attempt, Temperature: temperature}
		logger.Info("生成优化建议", "attempt", attempt, "max_attempts", s.cfg.MaxAttempts, "temperature", temperature)

		res, err := s.llm.Generate(ctx, models.GenerateRequest{
			SystemPrompt: optimizationSystemPrompt,
			UserPrompt:   buildOptimizationPrompt(analysis, reason),
			Temperature:  temperature,
			MaxTokens:    s.cfg.MaxTokens,
		})
		if err != nil {
			reason = fmt.Sprintf("模型調用失敗：%v", err)
			record.Outcome, record.Reason = AttemptTransportError, reason
			result.Attempts = append(result.Attempts, record)
			s.metrics.observeAttempt(AttemptTransportError)
			logger.Warn("优化建议生成失败", "attempt", attempt, "error", err)
			continue
		}
		lastText = strings.TrimSpace(res.Output)

		items, err := ParseSuggestions(lastText)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				reason = verr.Message
			} else {
				reason = err.Error()
			}
			record.Outcome, record.Reason = AttemptInvalid, reason
			result.Attempts = append(result.Attempts, record)
			s.metrics.observeAttempt(AttemptInvalid)
			logger.Warn("优化建议结构校验未通过", "attempt", attempt, "reason", reason,
				"output_preview", utils.Preview(lastText, 200))
			continue
		}

		eval := s.gate.Evaluate(ctx, analysis, lastText)
		score := eval.Score
		record.Score = &score
		s.metrics.observeScore(eval.Score)
		if !eval.Passed {
			reason = FeedbackFromEvaluation(eval, s.gate.Threshold())
			record.Outcome, record.Reason = AttemptRejected, reason
			result.Attempts = append(result.Attempts, record)
			s.metrics.observeAttempt(AttemptRejected)
			logger.Warn("优化建议未通过品质门", "attempt", attempt, "score", eval.Score, "critique", eval.Critique)
			continue
		}

		record.Outcome = AttemptAccepted
		result.Attempts = append(result.Attempts, record)
		s.metrics.observeAttempt(AttemptAccepted)
		s.metrics.observeOptimization(attempt)
		logger.Info("优化建议通过验证", "attempt", attempt, "score", eval.Score, "suggestions", len(items))

		result.Text = lastText
		result.Suggestions = items
		result.Evaluation = &eval
		result.Verified = true
		return result
	}

	s.metrics.observeOptimization(len(result.Attempts))
	logger.Error("优化建议多次尝试仍未通过验证", "attempts", len(result.Attempts), "last_reason", reason)
	result.Text = lastText
	result.Suggestions = []models.SuggestionItem{}
	result.LastReason = reason
	return result
}

// StageResult 生成优化阶段的轨迹记录
func (r OptimizationStageResult) StageResult(previewLen int) models.StageResult {
	raw := map[string]any{
		"verified": r.Verified,
		"attempts": r.Attempts,
	}
	if r.Verified {
		raw["suggestions"] = r.Suggestions
		raw["evaluation"] = r.Evaluation
		return models.StageResult{
			Name:      models.StageOptimization,
			Summary:   utils.Preview(r.Text, previewLen),
			Verified:  true,
			RawOutput: raw,
		}
	}
	raw["error"] = r.LastReason
	raw["last_output"] = r.Text
	return models.StageResult{
		Name:      models.StageOptimization,
		Summary:   utils.Preview(r.LastReason, previewLen),
		RawOutput: raw,
	}
}
