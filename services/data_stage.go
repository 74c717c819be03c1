package services

import (
	"context"

	"ad_insight_agent/logger"
	"ad_insight_agent/models"
	"ad_insight_agent/utils"
)

// DataStageResult 数据阶段输出
type DataStageResult struct {
	Request       models.TaskRequest
	Summary       models.AggregatedSummary
	SummaryText   string
	TotalRecords  int
	Verified      bool
	Err           string
	RequestFailed bool // 请求校验失败，未访问数据源
}

// DataStage 读取并汇总广告成效数据
type DataStage struct {
	source DataSource
}

// NewDataStage 创建数据阶段
func NewDataStage(source DataSource) *DataStage {
	return &DataStage{source: source}
}

// Run 校验请求、读取、按日期过滤并汇总；所有失败都体现在结果中
func (s *DataStage) Run(ctx context.Context, task, dateStart, dateEnd string) DataStageResult {
	req, err := models.NewTaskRequest(task, dateStart, dateEnd)
	if err != nil {
		logger.Warn("请求校验失败", "error", err)
		return DataStageResult{Err: err.Error(), RequestFailed: true}
	}

	logger.Info("开始读取广告数据", "source", s.source.Path())
	records, err := s.source.LoadRecords(ctx)
	if err != nil {
		logger.Error("读取广告数据失败", "source", s.source.Path(), "error", err)
		return DataStageResult{Request: req, Err: err.Error()}
	}

	filtered := FilterRecords(records, req)
	summary := models.Aggregate(filtered)
	logger.Info("广告数据汇总完成",
		"total_records", len(records),
		"filtered_records", len(filtered),
		"campaigns", len(summary.Campaigns))

	return DataStageResult{
		Request:      req,
		Summary:      summary,
		SummaryText:  summary.Render(),
		TotalRecords: len(records),
		Verified:     true,
	}
}

// FilterRecords 按请求的闭区间过滤，返回原切片的子集
func FilterRecords(records []models.PerformanceRecord, req models.TaskRequest) []models.PerformanceRecord {
	if req.DateStart == nil && req.DateEnd == nil {
		return records
	}
	out := make([]models.PerformanceRecord, 0, len(records))
	for _, r := range records {
		if req.InRange(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// StageResult 生成数据阶段的轨迹记录
func (r DataStageResult) StageResult(previewLen int) models.StageResult {
	raw := map[string]any{"verified": r.Verified}
	if !r.Verified {
		raw["error"] = r.Err
		return models.StageResult{
			Name:      models.StageData,
			Summary:   utils.Preview(r.Err, previewLen),
			Verified:  false,
			RawOutput: raw,
		}
	}
	raw["summary"] = r.SummaryText
	raw["record_count"] = r.TotalRecords
	raw["filtered_count"] = r.Summary.RecordCount
	raw["campaigns"] = r.Summary.Campaigns
	return models.StageResult{
		Name:      models.StageData,
		Summary:   utils.Preview(r.SummaryText, previewLen),
		Verified:  true,
		RawOutput: raw,
	}
}
