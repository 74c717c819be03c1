package models

// TokenUsage 模型返回的 token 用量
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// GenerateRequest 一次文本生成调用的参数
type GenerateRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
}

// GenerateResult 一次文本生成调用的结果，Usage 可能为空
type GenerateResult struct {
	Output string      `json:"output"`
	Model  string      `json:"model"`
	Usage  *TokenUsage `json:"usage,omitempty"`
}

// Domain 提示词领域
type Domain string

const (
	DomainFinance Domain = "finance"
	DomainAds     Domain = "ads"
	DomainGeneral Domain = "general"
)

// Valid 是否为已知领域
func (d Domain) Valid() bool {
	switch d {
	case DomainFinance, DomainAds, DomainGeneral:
		return true
	}
	return false
}
