package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ad_insight_agent/models"
)

func TestPromptService_DomainDefaults(t *testing.T) {
	adsPrompt := SystemPromptForDomain(models.DomainAds)
	llm := newFakeModel().on(adsPrompt, fakeReply{out: "CTR 偏低多半與素材有關"})

	res, err := NewPromptService(llm).GenerateWithDomain(context.Background(), models.PromptRequest{
		UserPrompt: "CTR 偏低的原因？",
		Domain:     models.DomainAds,
	})
	require.NoError(t, err)
	assert.Equal(t, "CTR 偏低多半與素材有關", res.Output)

	calls := llm.callsFor(adsPrompt)
	require.Len(t, calls, 1)
	assert.InDelta(t, 0.2, calls[0].Temperature, 1e-9)
	assert.Equal(t, 512, calls[0].MaxTokens)
}

func TestPromptService_ExplicitSystemPromptWins(t *testing.T) {
	llm := newFakeModel().on("自訂指令", fakeReply{out: "ok"})
	_, err := NewPromptService(llm).GenerateWithDomain(context.Background(), models.PromptRequest{
		SystemPrompt: "自訂指令",
		UserPrompt:   "hi",
		Temperature:  0.7,
		MaxTokens:    64,
	})
	require.NoError(t, err)

	calls := llm.callsFor("自訂指令")
	require.Len(t, calls, 1)
	assert.InDelta(t, 0.7, calls[0].Temperature, 1e-9)
	assert.Equal(t, 64, calls[0].MaxTokens)
}

func TestPromptService_Validation(t *testing.T) {
	svc := NewPromptService(newFakeModel())
	_, err := svc.GenerateWithDomain(context.Background(), models.PromptRequest{UserPrompt: "  "})
	assert.Error(t, err)

	_, err = svc.GenerateWithDomain(context.Background(), models.PromptRequest{UserPrompt: "x", Domain: "legal"})
	assert.Error(t, err)
}

func TestBuildOptimizationPrompt(t *testing.T) {
	first := buildOptimizationPrompt(analysisText, "")
	assert.Contains(t, first, analysisText)
	assert.Contains(t, first, "調整對象")
	assert.NotContains(t, first, "上一次輸出未通過驗證")

	retry := buildOptimizationPrompt(analysisText, "第 2 點建議缺少標籤：預期成效")
	assert.Contains(t, retry, "【上一次輸出未通過驗證】\n原因：第 2 點建議缺少標籤：預期成效")
}

func TestOptimizationContractExampleParses(t *testing.T) {
	// 提示词中的格式范例必须能被解析器识别
	example := "1. 調整對象：Campaign A\n   具體行動：將每日預算由 500 下調至 300，並暫停 CTR 低於 0.5% 的素材\n   預期成效：CPA 下降約 15%"
	assert.Contains(t, optimizationContract, example)
	blocks := SplitSuggestionBlocks(example)
	require.Len(t, blocks, 1)
	target, ok := extractLabel(targetPattern, blocks[0])
	require.True(t, ok)
	assert.Equal(t, "Campaign A", target)
}
