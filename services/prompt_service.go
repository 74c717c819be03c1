package services

import (
	"context"
	"fmt"
	"strings"

	"ad_insight_agent/models"
)

// 各阶段的系统指令
const (
	analysisSystemPrompt     = "你是一位數據分析顧問。"
	optimizationSystemPrompt = "你是一位資深成效型廣告優化專家。"
	graderSystemPrompt       = "你是一位嚴格的廣告優化建議審核員，只輸出 JSON。"
)

// 分析阶段生成参数
const (
	analysisTemperature = 0.3
	analysisMaxTokens   = 512
)

// buildAnalysisPrompt 构建分析阶段提示词
func buildAnalysisPrompt(summary string) string {
	return fmt.Sprintf("以下是廣告數據摘要：\n%s\n\n請指出表現最好與最差的 campaign 並簡要說明原因。", summary)
}

// optimizationContract 优化建议的输出格式约定，须与 suggestion_parser 的语法保持一致
const optimizationContract = `請根據上述分析，提出 3 到 5 點具體的廣告優化建議。

輸出格式要求（務必遵守）：
- 每點建議以阿拉伯數字編號開頭，例如「1.」「2.」，共 3 到 5 點。
- 每點建議必須包含以下三個標籤，各自獨立一行，標籤後接冒號：
  調整對象：要調整的 campaign 名稱
  具體行動：預算、出價、素材或受眾的具體調整方式
  預期成效：預期改善的指標與幅度
- 不要使用「無」「未知」「N/A」等佔位內容，不要輸出其他段落。

格式範例：
1. 調整對象：Campaign A
   具體行動：將每日預算由 500 下調至 300，並暫停 CTR 低於 0.5% 的素材
   預期成效：CPA 下降約 15%`

// buildOptimizationPrompt 构建优化阶段提示词，重试时附加上一次的失败原因
func buildOptimizationPrompt(analysis, previousReason string) string {
	var b strings.Builder
	b.WriteString("以下是廣告表現分析：\n")
	b.WriteString(analysis)
	b.WriteString("\n\n")
	b.WriteString(optimizationContract)
	if previousReason != "" {
		b.WriteString("\n\n【上一次輸出未通過驗證】\n原因：")
		b.WriteString(previousReason)
		b.WriteString("\n請修正上述問題後，重新輸出完整的 3 到 5 點建議。")
	}
	return b.String()
}

// buildGraderPrompt 构建品质门评分提示词
func buildGraderPrompt(analysis, candidate string) string {
	return fmt.Sprintf(`請根據以下評分標準，評估「優化建議」相對於「原始分析」的品質，總分 0 到 100：
1. 忠實度（50 分）：建議中的 campaign 名稱、數據與問題必須出自原始分析；若捏造任何關鍵事實，此項為 0 分。
2. 具體性（30 分）：每點建議是否都明確包含調整對象、具體行動、預期成效。
3. 邏輯一致性（20 分）：建議是否對應原始分析中指出的問題。

【原始分析】
%s

【優化建議】
%s

只輸出原始 JSON，不要使用 Markdown 代碼塊，不要附加任何說明，格式如下：
{"score": 0到100的整數, "critique": "主要問題與改進方向", "faithfulness": 0到50, "concreteness": 0到30, "coherence": 0到20}`,
		analysis, candidate)
}

// SystemPromptForDomain 返回领域默认系统指令
func SystemPromptForDomain(domain models.Domain) string {
	switch domain {
	case models.DomainFinance:
		return "你是一位嚴謹的金融知識顧問，回答時需根據資料與風險揭露。"
	case models.DomainAds:
		return "你是一位數據驅動的廣告優化專家，擅長分析指標與提出具體建議。"
	default:
		return "你是一位 helpful 且穩定的 AI 助理。"
	}
}

// PromptService 领域提示词直连生成
type PromptService struct {
	llm LanguageModel
}

// NewPromptService 创建提示词服务
func NewPromptService(llm LanguageModel) *PromptService {
	return &PromptService{llm: llm}
}

// GenerateWithDomain 未指定系统指令时使用领域默认值，温度与长度缺省为 0.2 / 512
func (s *PromptService) GenerateWithDomain(ctx context.Context, req models.PromptRequest) (models.GenerateResult, error) {
	if strings.TrimSpace(req.UserPrompt) == "" {
		return models.GenerateResult{}, fmt.Errorf("user_prompt 不能为空")
	}
	domain := req.Domain
	if domain == "" {
		domain = models.DomainGeneral
	}
	if !domain.Valid() {
		return models.GenerateResult{}, fmt.Errorf("未知的领域: %q", req.Domain)
	}

	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = SystemPromptForDomain(domain)
	}
	temperature := req.Temperature
	if temperature <= 0 {
		temperature = 0.2
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}

	return s.llm.Generate(ctx, models.GenerateRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   req.UserPrompt,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
	})
}
