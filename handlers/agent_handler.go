package handlers

import (
	"context"
	"net/http"
	"strings"

	"ad_insight_agent/logger"
	"ad_insight_agent/models"
	"ad_insight_agent/utils"
)

// PipelineRunner 流水线入口
type PipelineRunner interface {
	Run(ctx context.Context, task, dateStart, dateEnd string) models.PipelineRunResult
}

// PromptGenerator 领域提示词直连生成
type PromptGenerator interface {
	GenerateWithDomain(ctx context.Context, req models.PromptRequest) (models.GenerateResult, error)
}

// RunAgentHandler godoc
// @Summary 执行广告分析流水线
// @Description 依次执行数据汇总、成效分析、优化建议生成（含结构校验与品质评分重试）
// @Tags 广告分析
// @Accept json
// @Produce json
// @Param request body models.AgentRunRequest true "任务描述与可选日期范围"
// @Success 200 {object} models.AgentRunResponse "成功（verified 表示建议是否通过验证；优化建议重试耗尽时 code=2004）"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 500 {object} models.APIResponse "数据源错误"
// @Router /api/agent/run [post]
func RunAgentHandler(w http.ResponseWriter, r *http.Request, runner PipelineRunner) {
	var req models.AgentRunRequest
	if !utils.DecodeJSONBody(w, r, &req) {
		return
	}
	if !utils.ValidateRequired(w, "task", strings.TrimSpace(req.Task)) {
		return
	}
	if _, err := models.NewTaskRequest(req.Task, req.DateStart, req.DateEnd); err != nil {
		utils.WriteCustomErrorResponse(w, http.StatusBadRequest, models.CodeInvalidParams, err.Error(),
			map[string]interface{}{})
		return
	}

	result := runner.Run(r.Context(), req.Task, req.DateStart, req.DateEnd)

	// 数据阶段失败时轨迹中只有一条记录
	if len(result.Steps) == 1 && !result.Steps[0].Verified {
		msg := models.CodeMessages[models.CodeDataSourceError]
		if errText, ok := result.Steps[0].RawOutput["error"].(string); ok && errText != "" {
			msg = errText
		}
		utils.WriteCustomErrorResponse(w, http.StatusInternalServerError, models.CodeDataSourceError, msg, result)
		return
	}

	// 优化阶段重试耗尽：数据与分析结果仍随响应返回
	if result.OptimizationSuggestions == models.OptimizationFailedMarker {
		logger.Warn("流水线请求完成但优化建议未通过验证", "run_id", result.RunID, "duration_ms", result.DurationMs)
		utils.WriteCustomErrorResponse(w, http.StatusOK, models.CodePipelineError, models.OptimizationFailedMarker, result)
		return
	}

	logger.Info("流水线请求完成", "run_id", result.RunID, "verified", result.Verified, "duration_ms", result.DurationMs)
	utils.WriteSuccessResponse(w, result)
}

// PromptHandler godoc
// @Summary 领域提示词生成
// @Description 使用领域默认系统指令（finance / ads / general）直接调用语言模型
// @Tags 语言模型
// @Accept json
// @Produce json
// @Param request body models.PromptRequest true "提示词与生成参数"
// @Success 200 {object} models.APIResponse "成功"
// @Failure 400 {object} models.APIResponse "参数错误"
// @Failure 502 {object} models.APIResponse "第三方API错误"
// @Router /api/prompt [post]
func PromptHandler(w http.ResponseWriter, r *http.Request, gen PromptGenerator) {
	var req models.PromptRequest
	if !utils.DecodeJSONBody(w, r, &req) {
		return
	}
	if !utils.ValidateRequired(w, "user_prompt", strings.TrimSpace(req.UserPrompt)) {
		return
	}
	if req.Domain != "" && !req.Domain.Valid() {
		utils.WriteCustomErrorResponse(w, http.StatusBadRequest, models.CodeInvalidParams,
			"domain 仅支持 finance / ads / general", map[string]interface{}{"domain": req.Domain})
		return
	}

	res, err := gen.GenerateWithDomain(r.Context(), req)
	if err != nil {
		logger.Error("领域提示词生成失败", "domain", req.Domain, "error", err)
		utils.WriteCustomErrorResponse(w, http.StatusBadGateway, models.CodeThirdPartyAPIError, err.Error(),
			map[string]interface{}{})
		return
	}
	utils.WriteSuccessResponse(w, res)
}

// HealthHandler godoc
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} models.HealthResponse "成功"
// @Router /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	utils.WriteFormattedJSON(w, http.StatusOK, models.HealthResponse{Status: "ok"})
}
