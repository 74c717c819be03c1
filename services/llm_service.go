package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ad_insight_agent/config"
	"ad_insight_agent/logger"
	"ad_insight_agent/models"
	"ad_insight_agent/utils"
)

// ErrLLMEmptyResponse 模型响应中没有内容
var ErrLLMEmptyResponse = errors.New("LLM响应中没有内容")

// NewLanguageModel 按配置选择模型后端，进程启动时调用一次
func NewLanguageModel(cfg *config.Config) (LanguageModel, error) {
	timeout := time.Duration(cfg.LLM.TimeoutSec) * time.Second
	switch cfg.LLM.Backend {
	case config.BackendLocal:
		logger.Info("使用本地LLM", "base_url", cfg.LLM.Local.BaseURL, "model", cfg.LLM.Local.Model)
		return NewLocalClient(cfg.LLM.Local.BaseURL, cfg.LLM.Local.Model, timeout), nil
	case config.BackendOpenAI:
		if cfg.LLM.OpenAI.APIKey == "" {
			logger.Warn("LLM_API_KEY 未设置，请在 .env 中设定")
		}
		logger.Info("使用OpenAI兼容LLM", "base_url", cfg.LLM.OpenAI.BaseURL, "model", cfg.LLM.OpenAI.Model)
		return NewOpenAIClient(cfg.LLM.OpenAI.BaseURL, cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model, timeout), nil
	default:
		return nil, fmt.Errorf("未知的LLM后端: %q", cfg.LLM.Backend)
	}
}

// OpenAI 兼容 chat/completions 请求和响应结构
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *models.TokenUsage `json:"usage"`
}

// OpenAIClient 调用 OpenAI 兼容接口
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient 创建 OpenAI 兼容客户端
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	return &OpenAIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate 发送一次 chat/completions 请求
func (c *OpenAIClient) Generate(ctx context.Context, req models.GenerateRequest) (models.GenerateResult, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserPrompt})

	body := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	var resp chatResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/chat/completions", headers, body, &resp); err != nil {
		return models.GenerateResult{}, err
	}
	if len(resp.Choices) == 0 {
		return models.GenerateResult{}, ErrLLMEmptyResponse
	}

	if resp.Usage != nil {
		logger.Info("成功获取LLM响应",
			"model", c.model,
			"tokens_prompt", resp.Usage.PromptTokens,
			"tokens_completion", resp.Usage.CompletionTokens,
			"tokens_total", resp.Usage.TotalTokens,
			"finish_reason", resp.Choices[0].FinishReason)
	}

	return models.GenerateResult{
		Output: resp.Choices[0].Message.Content,
		Model:  c.model,
		Usage:  resp.Usage,
	}, nil
}

// Ollama /api/generate 请求和响应结构
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Options ollamaOptions `json:"options"`
	Stream  bool          `json:"stream"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// LocalClient 调用本地 Ollama 运行时（例如 Qwen2.5）
type LocalClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewLocalClient 创建本地模型客户端
func NewLocalClient(baseURL, model string, timeout time.Duration) *LocalClient {
	return &LocalClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate 发送一次非流式生成请求，系统指令折叠进提示词
func (c *LocalClient) Generate(ctx context.Context, req models.GenerateRequest) (models.GenerateResult, error) {
	prompt := req.UserPrompt
	if req.SystemPrompt != "" {
		prompt = fmt.Sprintf("[指示]\n%s\n\n[使用者提問]\n%s", req.SystemPrompt, req.UserPrompt)
	}
	body := ollamaRequest{
		Model:  c.model,
		Prompt: prompt,
		Options: ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}

	logger.Info("调用本地LLM", "model", c.model, "base_url", c.baseURL)
	var resp ollamaResponse
	if err := postJSON(ctx, c.httpClient, c.baseURL+"/api/generate", nil, body, &resp); err != nil {
		return models.GenerateResult{}, err
	}
	if strings.TrimSpace(resp.Response) == "" {
		return models.GenerateResult{}, ErrLLMEmptyResponse
	}

	result := models.GenerateResult{Output: resp.Response, Model: c.model}
	if resp.EvalCount > 0 {
		result.Usage = &models.TokenUsage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		}
	}
	return result, nil
}

// postJSON 发送 JSON 请求并解析 JSON 响应，非 200 状态码视为错误
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, in, out any) error {
	reqJSON, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("序列化请求体失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	startTime := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		logger.Error("发送LLM请求失败", "url", url, "error", err, "duration_ms", time.Since(startTime).Milliseconds())
		return fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}
	logger.Debug("LLM响应状态",
		"status_code", resp.StatusCode,
		"response_size", len(body),
		"duration_ms", time.Since(startTime).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API请求失败: %d - %s", resp.StatusCode, utils.Preview(string(body), 500))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
