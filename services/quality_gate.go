package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"ad_insight_agent/logger"
	"ad_insight_agent/models"
	"ad_insight_agent/utils"
)

// 评分结果无法解析时的固定评语
const critiqueUnparsable = "evaluation unparsable"

// DefaultPassThreshold 默认通过分数
const DefaultPassThreshold = 80

// 评分调用使用低温度以减少波动
const graderTemperature = 0.0

// gradeResponse 评分模型返回的 JSON，分项分数仅用于日志
type gradeResponse struct {
	Score        *float64 `json:"score"`
	Critique     string   `json:"critique"`
	Faithfulness *float64 `json:"faithfulness,omitempty"`
	Concreteness *float64 `json:"concreteness,omitempty"`
	Coherence    *float64 `json:"coherence,omitempty"`
}

// QualityGate 以模型作为评审，对候选建议打分并判断是否通过
type QualityGate struct {
	llm       LanguageModel
	threshold int
	maxTokens int
}

// NewQualityGate 创建品质门，threshold 非法时使用默认值 80
func NewQualityGate(llm LanguageModel, threshold, maxTokens int) *QualityGate {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultPassThreshold
	}
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &QualityGate{llm: llm, threshold: threshold, maxTokens: maxTokens}
}

// Threshold 返回通过门槛
func (g *QualityGate) Threshold() int {
	return g.threshold
}

// Evaluate 评估候选建议，任何失败都折算为 0 分而不是返回错误
func (g *QualityGate) Evaluate(ctx context.Context, analysis, candidate string) models.QualityEvaluation {
	res, err := g.llm.Generate(ctx, models.GenerateRequest{
		SystemPrompt: graderSystemPrompt,
		UserPrompt:   buildGraderPrompt(analysis, candidate),
		Temperature:  graderTemperature,
		MaxTokens:    g.maxTokens,
	})
	if err != nil {
		logger.Warn("品质评分调用失败", "error", err)
		return g.unparsable()
	}
	return g.Parse(res.Output)
}

// Parse 取评分输出中第一个带数值 score 的 JSON 对象并判定是否通过
// score 须为 0 到 100 的整数，小数或越界一律按无法解析处理
func (g *QualityGate) Parse(output string) models.QualityEvaluation {
	objects := utils.JSONObjects(output)
	if len(objects) == 0 {
		logger.Warn("评分输出中没有JSON", "output_preview", utils.Preview(output, 200))
		return g.unparsable()
	}
	var resp gradeResponse
	found := false
	for _, raw := range objects {
		var candidate gradeResponse
		if err := json.Unmarshal([]byte(raw), &candidate); err == nil && candidate.Score != nil {
			resp, found = candidate, true
			break
		}
	}
	if !found {
		logger.Warn("评分JSON中没有数值 score", "json", utils.Preview(objects[0], 200))
		return g.unparsable()
	}

	score, ok := validScore(*resp.Score)
	if !ok {
		logger.Warn("评分超出 0-100 整数范围", "score", *resp.Score)
		return g.unparsable()
	}
	eval := models.QualityEvaluation{
		Score:    score,
		Critique: resp.Critique,
		Passed:   score >= g.threshold,
	}
	logger.Info("品质评分完成",
		"score", eval.Score,
		"passed", eval.Passed,
		"faithfulness", floatOrNil(resp.Faithfulness),
		"concreteness", floatOrNil(resp.Concreteness),
		"coherence", floatOrNil(resp.Coherence))
	return eval
}

func (g *QualityGate) unparsable() models.QualityEvaluation {
	return models.QualityEvaluation{Score: 0, Critique: critiqueUnparsable, Passed: false}
}

// FeedbackFromEvaluation 将未通过的评分转为下一次生成的修正反馈
func FeedbackFromEvaluation(eval models.QualityEvaluation, threshold int) string {
	critique := eval.Critique
	if critique == "" {
		critique = "評審未提供具體意見"
	}
	return fmt.Sprintf("品質評分 %d 分，低於通過門檻 %d 分。評審意見：%s", eval.Score, threshold, critique)
}

// validScore 仅接受 0 到 100 的整数分
func validScore(v float64) (int, bool) {
	if math.IsNaN(v) || v != math.Trunc(v) || v < 0 || v > 100 {
		return 0, false
	}
	return int(v), true
}

func floatOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
