package services

import (
	"context"
	"strings"

	"ad_insight_agent/logger"
	"ad_insight_agent/models"
	"ad_insight_agent/utils"
)

// AnalysisStageResult 分析阶段输出
type AnalysisStageResult struct {
	Insights string
	Verified bool
	Skipped  bool // 无数据时未调用模型
	Model    string
	Usage    *models.TokenUsage
	Err      string
}

// AnalysisStage 对数据摘要做一次模型分析，不做结构校验
type AnalysisStage struct {
	llm LanguageModel
}

// NewAnalysisStage 创建分析阶段
func NewAnalysisStage(llm LanguageModel) *AnalysisStage {
	return &AnalysisStage{llm: llm}
}

// Run 摘要为空时直接返回“無可用數據”，模型调用失败时 Verified 为 false
func (s *AnalysisStage) Run(ctx context.Context, summary string) AnalysisStageResult {
	if strings.TrimSpace(summary) == "" {
		logger.Info("数据摘要为空，跳过分析")
		return AnalysisStageResult{Insights: models.NoDataMarker, Verified: true, Skipped: true}
	}

	res, err := s.llm.Generate(ctx, models.GenerateRequest{
		SystemPrompt: analysisSystemPrompt,
		UserPrompt:   buildAnalysisPrompt(summary),
		Temperature:  analysisTemperature,
		MaxTokens:    analysisMaxTokens,
	})
	if err != nil {
		logger.Error("分析阶段模型调用失败", "error", err)
		return AnalysisStageResult{Err: err.Error()}
	}

	insights := strings.TrimSpace(res.Output)
	logger.Info("分析完成", "model", res.Model, "insights_preview", utils.Preview(insights, 100))
	return AnalysisStageResult{
		Insights: insights,
		Verified: true,
		Model:    res.Model,
		Usage:    res.Usage,
	}
}

// StageResult 生成分析阶段的轨迹记录
func (r AnalysisStageResult) StageResult(previewLen int) models.StageResult {
	raw := map[string]any{"verified": r.Verified}
	if !r.Verified {
		raw["error"] = r.Err
		return models.StageResult{
			Name:      models.StageAnalysis,
			Summary:   utils.Preview(r.Err, previewLen),
			RawOutput: raw,
		}
	}
	raw["insights"] = r.Insights
	raw["skipped"] = r.Skipped
	if r.Model != "" {
		raw["model"] = r.Model
	}
	if r.Usage != nil {
		raw["usage"] = r.Usage
	}
	return models.StageResult{
		Name:      models.StageAnalysis,
		Summary:   utils.Preview(r.Insights, previewLen),
		Verified:  true,
		RawOutput: raw,
	}
}
