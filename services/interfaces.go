package services

import (
	"context"

	"ad_insight_agent/models"
)

// LanguageModel 文本生成能力，传输或服务端错误以 error 返回
type LanguageModel interface {
	Generate(ctx context.Context, req models.GenerateRequest) (models.GenerateResult, error)
}

// DataSource 广告成效数据源
type DataSource interface {
	LoadRecords(ctx context.Context) ([]models.PerformanceRecord, error)
	// Path 返回数据源位置，仅用于日志
	Path() string
}
