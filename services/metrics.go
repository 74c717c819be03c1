package services

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ad_insight_agent/models"
)

// Metrics 流水线指标，nil 时所有记录方法为空操作
type Metrics struct {
	// 流水线指标
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  prometheus.Histogram
	StageRunsTotal    *prometheus.CounterVec

	// 优化阶段指标
	OptimizationAttempts prometheus.Histogram
	AttemptOutcomes      *prometheus.CounterVec
	QualityScore         prometheus.Histogram

	// LLM 调用指标
	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration prometheus.Histogram
	LLMTokensTotal     *prometheus.CounterVec
}

// NewMetrics 在指定注册表上创建指标实例
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PipelineRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Total pipeline runs by final verification status",
			},
			[]string{"verified"},
		),
		PipelineDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_duration_seconds",
				Help:      "End-to-end pipeline duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		StageRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_runs_total",
				Help:      "Total stage invocations by stage and verification status",
			},
			[]string{"stage", "verified"},
		),
		OptimizationAttempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "optimization_attempts",
				Help:      "Generation attempts used per optimization stage",
				Buckets:   []float64{1, 2, 3, 4, 5},
			},
		),
		AttemptOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "optimization_attempt_outcomes_total",
				Help:      "Optimization attempts by outcome",
			},
			[]string{"outcome"},
		),
		QualityScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "quality_gate_score",
				Help:      "Scores returned by the quality gate",
				Buckets:   []float64{0, 20, 40, 60, 70, 80, 90, 100},
			},
		),
		LLMRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "Total language model requests by status",
			},
			[]string{"status"},
		),
		LLMRequestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "Language model request duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
		LLMTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_total",
				Help:      "Tokens consumed by kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) observeRun(verified bool, d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(strconv.FormatBool(verified)).Inc()
	m.PipelineDuration.Observe(d.Seconds())
}

func (m *Metrics) observeStage(stage string, verified bool) {
	if m == nil {
		return
	}
	m.StageRunsTotal.WithLabelValues(stage, strconv.FormatBool(verified)).Inc()
}

func (m *Metrics) observeAttempt(outcome string) {
	if m == nil {
		return
	}
	m.AttemptOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeOptimization(attempts int) {
	if m == nil {
		return
	}
	m.OptimizationAttempts.Observe(float64(attempts))
}

func (m *Metrics) observeScore(score int) {
	if m == nil {
		return
	}
	m.QualityScore.Observe(float64(score))
}

// InstrumentedModel 记录调用耗时与 token 用量的模型装饰器
type InstrumentedModel struct {
	inner   LanguageModel
	metrics *Metrics
}

// Instrument 包装模型；metrics 为 nil 时原样返回
func Instrument(inner LanguageModel, metrics *Metrics) LanguageModel {
	if metrics == nil {
		return inner
	}
	return &InstrumentedModel{inner: inner, metrics: metrics}
}

// Generate 转发调用并记录指标
func (m *InstrumentedModel) Generate(ctx context.Context, req models.GenerateRequest) (models.GenerateResult, error) {
	start := time.Now()
	res, err := m.inner.Generate(ctx, req)
	m.metrics.LLMRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		m.metrics.LLMRequestsTotal.WithLabelValues("error").Inc()
		return res, err
	}
	m.metrics.LLMRequestsTotal.WithLabelValues("ok").Inc()
	if res.Usage != nil {
		m.metrics.LLMTokensTotal.WithLabelValues("prompt").Add(float64(res.Usage.PromptTokens))
		m.metrics.LLMTokensTotal.WithLabelValues("completion").Add(float64(res.Usage.CompletionTokens))
	}
	return res, nil
}
