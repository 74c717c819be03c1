package models

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// PerformanceRecord 单个 campaign 单日的投放数据，由外部数据源提供
type PerformanceRecord struct {
	Date         time.Time `json:"date"`
	CampaignName string    `json:"campaign_name"`
	Impressions  int64     `json:"impressions"`
	Clicks       int64     `json:"clicks"`
	Conversions  int64     `json:"conversions"`
	Spend        float64   `json:"spend"`
}

// Validate 检查指标非负且花费为有限数
func (r PerformanceRecord) Validate() error {
	if strings.TrimSpace(r.CampaignName) == "" {
		return fmt.Errorf("campaign_name 为空")
	}
	if math.IsNaN(r.Spend) || math.IsInf(r.Spend, 0) {
		return fmt.Errorf("campaign %s 在 %s 的花费不是有限数", r.CampaignName, r.Date.Format(DateLayout))
	}
	if r.Impressions < 0 || r.Clicks < 0 || r.Conversions < 0 || r.Spend < 0 {
		return fmt.Errorf("campaign %s 在 %s 存在负数指标", r.CampaignName, r.Date.Format(DateLayout))
	}
	return nil
}

// CampaignSummary 单个 campaign 的汇总指标
type CampaignSummary struct {
	CampaignName string  `json:"campaign_name"`
	Impressions  int64   `json:"impressions"`
	Clicks       int64   `json:"clicks"`
	Conversions  int64   `json:"conversions"`
	Spend        float64 `json:"spend"`
	CTR          float64 `json:"ctr"`
	CPC          float64 `json:"cpc"`
	CPA          float64 `json:"cpa"`
}

// AggregatedSummary 按 campaign 名称排序的汇总结果
type AggregatedSummary struct {
	Campaigns   []CampaignSummary `json:"campaigns"`
	RecordCount int               `json:"record_count"`
}

// Aggregate 按 campaign 汇总并在汇总之后计算比率
// 比率由合计值计算，不取逐行比率的平均值；分母下限为 1
func Aggregate(records []PerformanceRecord) AggregatedSummary {
	byName := make(map[string]*CampaignSummary)
	for _, r := range records {
		s, ok := byName[r.CampaignName]
		if !ok {
			s = &CampaignSummary{CampaignName: r.CampaignName}
			byName[r.CampaignName] = s
		}
		s.Impressions += r.Impressions
		s.Clicks += r.Clicks
		s.Conversions += r.Conversions
		s.Spend += r.Spend
	}

	campaigns := make([]CampaignSummary, 0, len(byName))
	for _, s := range byName {
		s.CTR = float64(s.Clicks) / floorOne(s.Impressions)
		s.CPC = s.Spend / floorOne(s.Clicks)
		s.CPA = s.Spend / floorOne(s.Conversions)
		campaigns = append(campaigns, *s)
	}
	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CampaignName < campaigns[j].CampaignName
	})

	return AggregatedSummary{Campaigns: campaigns, RecordCount: len(records)}
}

// Empty 是否没有任何 campaign
func (s AggregatedSummary) Empty() bool {
	return len(s.Campaigns) == 0
}

// Render 渲染为 Markdown 表格供下游提示词使用，无数据时返回空串
func (s AggregatedSummary) Render() string {
	if s.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("| campaign_name | impressions | clicks | conversions | spend | ctr | cpc | cpa |\n")
	b.WriteString("|:--|--:|--:|--:|--:|--:|--:|--:|\n")
	for _, c := range s.Campaigns {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %.2f | %.4f | %.2f | %.2f |\n",
			c.CampaignName, c.Impressions, c.Clicks, c.Conversions, c.Spend, c.CTR, c.CPC, c.CPA)
	}
	return strings.TrimRight(b.String(), "\n")
}

func floorOne(n int64) float64 {
	return math.Max(float64(n), 1)
}
