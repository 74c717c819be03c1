package services

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ad_insight_agent/models"
)

func TestInstrument_NilMetricsReturnsInner(t *testing.T) {
	llm := newFakeModel()
	assert.Same(t, llm, Instrument(llm, nil))
}

func TestInstrumentedModel_CountsRequestsAndTokens(t *testing.T) {
	metrics := NewMetrics("test", prometheus.NewRegistry())
	llm := newFakeModel().
		on("ok", fakeReply{out: "hi"}).
		on("bad", fakeReply{err: errors.New("down")})
	model := Instrument(llm, metrics)

	_, err := model.Generate(context.Background(), models.GenerateRequest{SystemPrompt: "ok"})
	require.NoError(t, err)
	_, err = model.Generate(context.Background(), models.GenerateRequest{SystemPrompt: "bad"})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LLMRequestsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LLMRequestsTotal.WithLabelValues("error")))
	assert.Equal(t, 10.0, testutil.ToFloat64(metrics.LLMTokensTotal.WithLabelValues("prompt")))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.LLMTokensTotal.WithLabelValues("completion")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeRun(true, 0)
		m.observeStage("x", true)
		m.observeAttempt(AttemptAccepted)
		m.observeOptimization(1)
		m.observeScore(90)
	})
}
