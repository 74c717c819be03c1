package models

import "time"

// 阶段名称
const (
	StageData         = "DataAgent"
	StageAnalysis     = "AnalysisAgent"
	StageOptimization = "AdOptimizationAgent"
)

// 固定标记文本
const (
	TaskFailedMarker         = "任務失敗"
	NoDataMarker             = "無可用數據"
	OptimizationFailedMarker = "優化建議生成失敗：多次嘗試仍未通過驗證"
)

// StageResult 单个阶段的执行记录，追加到运行轨迹后不再修改
type StageResult struct {
	Name      string         `json:"name"`
	Summary   string         `json:"summary"`
	Verified  bool           `json:"verified"`
	RawOutput map[string]any `json:"raw_output,omitempty"`
}

// PipelineRunResult 一次流水线运行的最终产物
type PipelineRunResult struct {
	RunID                   string             `json:"run_id"`
	Task                    string             `json:"task"`
	DataSummary             string             `json:"data_summary"`
	AnalysisInsights        string             `json:"analysis_insights"`
	OptimizationSuggestions string             `json:"optimization_suggestions"`
	Suggestions             []SuggestionItem   `json:"suggestions"`
	Evaluation              *QualityEvaluation `json:"evaluation,omitempty"`
	Verified                bool               `json:"verified"`
	Steps                   []StageResult      `json:"steps"`
	StartedAt               time.Time          `json:"started_at"`
	DurationMs              int64              `json:"duration_ms"`
}
