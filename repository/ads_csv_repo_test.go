package repository

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `date,campaign_name,impressions,clicks,conversions,spend
2024-01-01,Brand,1000,50,5,120.5
2024-01-02,Brand,800,40,4,100
2024-01-01,Retarget,500,10,0,30.0
`

func TestCSVSource_LoadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ads_performance.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	src := NewCSVSource(path)
	assert.Equal(t, path, src.Path())

	records, err := src.LoadRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Brand", records[0].CampaignName)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, int64(1000), records[0].Impressions)
	assert.InDelta(t, 120.5, records[0].Spend, 1e-9)
	assert.Equal(t, int64(0), records[2].Conversions)
}

// TestReadRecordsCSV_ColumnOrderIndependent 列按表头名称定位
func TestReadRecordsCSV_ColumnOrderIndependent(t *testing.T) {
	data := "\ufeffSpend,Campaign_Name,Date,Clicks,Impressions,Conversions\n12.5,A,2024/03/05,3,30.0,1\n"
	records, err := ReadRecordsCSV(context.Background(), strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].CampaignName)
	assert.Equal(t, int64(30), records[0].Impressions)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), records[0].Date)
}

func TestReadRecordsCSV_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := ReadRecordsCSV(ctx, strings.NewReader(""))
	assert.ErrorContains(t, err, "为空")

	_, err = ReadRecordsCSV(ctx, strings.NewReader("date,campaign_name,clicks\n"))
	assert.ErrorContains(t, err, "impressions")

	_, err = ReadRecordsCSV(ctx, strings.NewReader(sampleCSV+"2024-01-03,Brand,abc,1,1,1\n"))
	assert.ErrorContains(t, err, "第 5 行")

	_, err = ReadRecordsCSV(ctx, strings.NewReader(sampleCSV+"not-a-date,Brand,1,1,1,1\n"))
	assert.ErrorContains(t, err, "无法解析日期")

	_, err = ReadRecordsCSV(ctx, strings.NewReader(sampleCSV+"2024-01-03,Brand,1,-1,1,1\n"))
	assert.ErrorContains(t, err, "负数")

	_, err = ReadRecordsCSV(ctx, strings.NewReader(sampleCSV+"2024-01-03,Brand,12.9,1,1,1\n"))
	assert.ErrorContains(t, err, "impressions 必须为整数")

	_, err = ReadRecordsCSV(ctx, strings.NewReader(sampleCSV+"2024-01-03,Brand,1,NaN,1,1\n"))
	assert.ErrorContains(t, err, "clicks 不是数字")

	_, err = ReadRecordsCSV(ctx, strings.NewReader(sampleCSV+"2024-01-03,Brand,1,1,1e30,1\n"))
	assert.ErrorContains(t, err, "conversions 超出范围")

	_, err = ReadRecordsCSV(ctx, strings.NewReader(sampleCSV+"2024-01-03,Brand,1,1,1,NaN\n"))
	assert.ErrorContains(t, err, "spend 不是有限数字")

	_, err = ReadRecordsCSV(ctx, strings.NewReader(sampleCSV+"2024-01-03,Brand,1,1,1,+Inf\n"))
	assert.ErrorContains(t, err, "spend 不是有限数字")
}

func TestParseCount_IntegralFloatExport(t *testing.T) {
	n, err := parseCount("clicks", "12.0")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	n, err = parseCount("impressions", "1e6")
	require.NoError(t, err)
	assert.Equal(t, int64(1000000), n)
}

func TestCSVSource_MissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "none.csv")).LoadRecords(context.Background())
	assert.ErrorContains(t, err, "打开广告数据文件失败")
}
