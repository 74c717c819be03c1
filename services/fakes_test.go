package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ad_insight_agent/models"
)

// fakeReply 一次模拟的模型回复
type fakeReply struct {
	out string
	err error
}

// fakeModel 按系统指令路由回复，队列用尽后重复最后一条
type fakeModel struct {
	mu      sync.Mutex
	replies map[string][]fakeReply
	calls   []models.GenerateRequest
}

func newFakeModel() *fakeModel {
	return &fakeModel{replies: make(map[string][]fakeReply)}
}

func (m *fakeModel) on(system string, replies ...fakeReply) *fakeModel {
	m.replies[system] = append(m.replies[system], replies...)
	return m
}

func (m *fakeModel) Generate(_ context.Context, req models.GenerateRequest) (models.GenerateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	queue := m.replies[req.SystemPrompt]
	if len(queue) == 0 {
		return models.GenerateResult{}, fmt.Errorf("unexpected system prompt %q", req.SystemPrompt)
	}
	reply := queue[0]
	if len(queue) > 1 {
		m.replies[req.SystemPrompt] = queue[1:]
	}
	if reply.err != nil {
		return models.GenerateResult{}, reply.err
	}
	return models.GenerateResult{
		Output: reply.out,
		Model:  "fake",
		Usage:  &models.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (m *fakeModel) callsFor(system string) []models.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GenerateRequest
	for _, c := range m.calls {
		if c.SystemPrompt == system {
			out = append(out, c)
		}
	}
	return out
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// fakeSource 内存数据源
type fakeSource struct {
	records []models.PerformanceRecord
	err     error
	panics  bool
	loads   int
}

func (s *fakeSource) LoadRecords(context.Context) ([]models.PerformanceRecord, error) {
	s.loads++
	if s.panics {
		panic("boom")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *fakeSource) Path() string { return "memory" }

func record(date, campaign string, impressions, clicks, conversions int64, spend float64) models.PerformanceRecord {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return models.PerformanceRecord{
		Date:         d,
		CampaignName: campaign,
		Impressions:  impressions,
		Clicks:       clicks,
		Conversions:  conversions,
		Spend:        spend,
	}
}

func twoCampaignRecords() []models.PerformanceRecord {
	return []models.PerformanceRecord{
		record("2024-01-01", "Campaign A", 1000, 50, 5, 100),
		record("2024-01-02", "Campaign A", 1200, 40, 4, 120),
		record("2024-01-01", "Campaign B", 800, 8, 0, 90),
		record("2024-01-03", "Campaign B", 900, 9, 1, 95),
	}
}

const wellFormedThree = `1. 調整對象：Campaign B
   具體行動：將每日預算由 500 下調至 300，並暫停 CTR 低於 0.5% 的素材
   預期成效：CPA 下降約 15%
2. 調整對象：Campaign A
   具體行動：將節省的預算轉移至 Campaign A 並提高出價 10%
   預期成效：轉換數增加約 20%
3. 調整對象：Campaign B
   具體行動：重新設定受眾，排除近 30 天無互動的用戶
   預期成效：CTR 提升至 1% 以上`

const passingGrade = `{"score": 88, "critique": "建議具體且忠於分析", "faithfulness": 45, "concreteness": 25, "coherence": 18}`

const failingGrade = `{"score": 60, "critique": "捏造了 Campaign C 的數據"}`

const analysisText = "Campaign A 表現最好，CTR 4.1%；Campaign B 表現最差，CPA 過高。"
