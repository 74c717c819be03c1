package models

// APIResponse 通用API响应
type APIResponse struct {
	Code    int         `json:"code" example:"0"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// AgentRunRequest 流水线运行请求体
type AgentRunRequest struct {
	Task      string `json:"task" example:"找出上週表現最差的廣告活動並給出優化建議"`
	DateStart string `json:"date_start,omitempty" example:"2024-01-01"`
	DateEnd   string `json:"date_end,omitempty" example:"2024-01-31"`
}

// AgentRunResponse 流水线运行响应
type AgentRunResponse struct {
	Code    int               `json:"code" example:"0"`
	Message string            `json:"message" example:"success"`
	Data    PipelineRunResult `json:"data"`
}

// PromptRequest 领域提示词生成请求体
type PromptRequest struct {
	SystemPrompt string  `json:"system_prompt,omitempty"`
	UserPrompt   string  `json:"user_prompt" example:"CTR 偏低通常有哪些原因？"`
	Domain       Domain  `json:"domain,omitempty" example:"ads"`
	Temperature  float64 `json:"temperature,omitempty" example:"0.2"`
	MaxTokens    int     `json:"max_tokens,omitempty" example:"512"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
