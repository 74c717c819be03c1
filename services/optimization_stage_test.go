package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ad_insight_agent/config"
	"ad_insight_agent/models"
)

func newTestOptimizationStage(llm LanguageModel, metrics *Metrics) *OptimizationStage {
	return NewOptimizationStage(llm, config.DefaultPipelineConfig(), metrics)
}

func TestOptimizationStage_AcceptsFirstAttempt(t *testing.T) {
	llm := newFakeModel().
		on(optimizationSystemPrompt, fakeReply{out: wellFormedThree}).
		on(graderSystemPrompt, fakeReply{out: passingGrade})

	res := newTestOptimizationStage(llm, nil).Run(context.Background(), analysisText)
	require.True(t, res.Verified)
	assert.Len(t, res.Suggestions, 3)
	require.NotNil(t, res.Evaluation)
	assert.Equal(t, 88, res.Evaluation.Score)
	assert.Equal(t, wellFormedThree, res.Text)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, AttemptAccepted, res.Attempts[0].Outcome)

	calls := llm.callsFor(optimizationSystemPrompt)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].UserPrompt, analysisText)
	assert.NotContains(t, calls[0].UserPrompt, "上一次輸出未通過驗證")
	assert.InDelta(t, 0.4, calls[0].Temperature, 1e-9)
}

func TestOptimizationStage_ExhaustsAfterExactlyMaxAttempts(t *testing.T) {
	llm := newFakeModel().on(optimizationSystemPrompt, fakeReply{out: "我覺得應該多投一點預算。"})

	res := newTestOptimizationStage(llm, nil).Run(context.Background(), analysisText)
	assert.False(t, res.Verified)
	assert.Len(t, llm.callsFor(optimizationSystemPrompt), 3)
	assert.Empty(t, llm.callsFor(graderSystemPrompt))
	assert.Len(t, res.Attempts, 3)
	assert.NotNil(t, res.Suggestions)
	assert.Empty(t, res.Suggestions)
	assert.Nil(t, res.Evaluation)
	assert.Equal(t, "我覺得應該多投一點預算。", res.Text)
	assert.Contains(t, res.LastReason, "建議數量為 0 點")
}

func TestOptimizationStage_RetryCarriesReasonAndRaisesTemperature(t *testing.T) {
	llm := newFakeModel().
		on(optimizationSystemPrompt,
			fakeReply{out: "1. 調整對象：Campaign A\n具體行動：提高出價 10%\n預期成效：轉換增加"},
			fakeReply{out: wellFormedThree},
			fakeReply{out: wellFormedThree}).
		on(graderSystemPrompt,
			fakeReply{out: failingGrade},
			fakeReply{out: passingGrade})

	res := newTestOptimizationStage(llm, nil).Run(context.Background(), analysisText)
	require.True(t, res.Verified)
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, AttemptInvalid, res.Attempts[0].Outcome)
	assert.Equal(t, AttemptRejected, res.Attempts[1].Outcome)
	require.NotNil(t, res.Attempts[1].Score)
	assert.Equal(t, 60, *res.Attempts[1].Score)
	assert.Equal(t, AttemptAccepted, res.Attempts[2].Outcome)

	calls := llm.callsFor(optimizationSystemPrompt)
	require.Len(t, calls, 3)
	assert.Contains(t, calls[1].UserPrompt, "【上一次輸出未通過驗證】")
	assert.Contains(t, calls[1].UserPrompt, "建議數量為 1 點")
	assert.Contains(t, calls[2].UserPrompt, "捏造了 Campaign C 的數據")
	assert.InDelta(t, 0.4, calls[0].Temperature, 1e-9)
	assert.InDelta(t, 0.5, calls[1].Temperature, 1e-9)
	assert.InDelta(t, 0.6, calls[2].Temperature, 1e-9)
}

func TestOptimizationStage_TransportErrorDoesNotAbort(t *testing.T) {
	llm := newFakeModel().
		on(optimizationSystemPrompt,
			fakeReply{err: errors.New("API请求失败: 503 - overloaded")},
			fakeReply{out: wellFormedThree}).
		on(graderSystemPrompt, fakeReply{out: passingGrade})

	res := newTestOptimizationStage(llm, nil).Run(context.Background(), analysisText)
	require.True(t, res.Verified)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, AttemptTransportError, res.Attempts[0].Outcome)
	assert.Contains(t, res.Attempts[0].Reason, "503")

	calls := llm.callsFor(optimizationSystemPrompt)
	require.Len(t, calls, 2)
	assert.Contains(t, calls[1].UserPrompt, "模型調用失敗")
}

func TestOptimizationStage_AlwaysFailingTransport(t *testing.T) {
	llm := newFakeModel().on(optimizationSystemPrompt, fakeReply{err: errors.New("timeout")})

	res := newTestOptimizationStage(llm, nil).Run(context.Background(), analysisText)
	assert.False(t, res.Verified)
	assert.Len(t, res.Attempts, 3)
	assert.Empty(t, res.Text)
	assert.Contains(t, res.LastReason, "timeout")
}

func TestOptimizationStage_ConfigurableAttempts(t *testing.T) {
	cfg := config.DefaultPipelineConfig()
	cfg.MaxAttempts = 5
	llm := newFakeModel().
		on(optimizationSystemPrompt, fakeReply{out: wellFormedThree}).
		on(graderSystemPrompt, fakeReply{out: failingGrade})

	res := NewOptimizationStage(llm, cfg, nil).Run(context.Background(), analysisText)
	assert.False(t, res.Verified)
	assert.Len(t, llm.callsFor(optimizationSystemPrompt), 5)
	assert.Len(t, llm.callsFor(graderSystemPrompt), 5)
	assert.Contains(t, res.LastReason, "60 分")
}

func TestOptimizationStage_StopsOnCancelledContext(t *testing.T) {
	llm := newFakeModel().on(optimizationSystemPrompt, fakeReply{out: "無效"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestOptimizationStage(llm, nil).Run(ctx, analysisText)
	assert.False(t, res.Verified)
	assert.Zero(t, llm.callCount())
	assert.Contains(t, res.LastReason, "任務已取消")
}

func TestOptimizationStage_RecordsMetrics(t *testing.T) {
	metrics := NewMetrics("test", prometheus.NewRegistry())
	llm := newFakeModel().
		on(optimizationSystemPrompt, fakeReply{out: "不合格"}, fakeReply{out: wellFormedThree}).
		on(graderSystemPrompt, fakeReply{out: passingGrade})

	res := newTestOptimizationStage(llm, metrics).Run(context.Background(), analysisText)
	require.True(t, res.Verified)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttemptOutcomes.WithLabelValues(AttemptInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AttemptOutcomes.WithLabelValues(AttemptAccepted)))
}

func TestOptimizationStageResult_StageResult(t *testing.T) {
	failed := OptimizationStageResult{
		Text:        "半成品",
		Suggestions: []models.SuggestionItem{},
		LastReason:  "建議數量為 1 點",
		Attempts:    []AttemptRecord{{Attempt: 1, Outcome: AttemptInvalid}},
	}
	step := failed.StageResult(200)
	assert.Equal(t, models.StageOptimization, step.Name)
	assert.False(t, step.Verified)
	assert.Equal(t, false, step.RawOutput["verified"])
	assert.Equal(t, "建議數量為 1 點", step.RawOutput["error"])
	assert.Equal(t, "半成品", step.RawOutput["last_output"])
}
