package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"ad_insight_agent/models"
)

// 数据表必需的列
var requiredColumns = []string{"date", "campaign_name", "impressions", "clicks", "conversions", "spend"}

// 可接受的日期格式
var dateLayouts = []string{models.DateLayout, "2006/01/02", time.RFC3339, "2006-01-02 15:04:05"}

// CSVSource 从 CSV 文件读取广告成效数据
type CSVSource struct {
	path string
}

// NewCSVSource 创建 CSV 数据源
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Path 返回数据文件路径
func (s *CSVSource) Path() string {
	return s.path
}

// LoadRecords 读取全部记录
func (s *CSVSource) LoadRecords(ctx context.Context) ([]models.PerformanceRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("打开广告数据文件失败: %w", err)
	}
	defer f.Close()
	return ReadRecordsCSV(ctx, f)
}

// ReadRecordsCSV 解析 CSV，列按表头名称定位，顺序无关
func ReadRecordsCSV(ctx context.Context, r io.Reader) ([]models.PerformanceRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("广告数据文件为空")
		}
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		// 去掉可能存在的 UTF-8 BOM
		name = strings.TrimPrefix(name, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("缺少必需列 %s", col)
		}
	}

	var records []models.PerformanceRecord
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("第 %d 行读取失败: %w", line, err)
		}
		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, index map[string]int) (models.PerformanceRecord, error) {
	field := func(name string) string {
		i := index[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec models.PerformanceRecord
	var err error
	if rec.Date, err = ParseDate(field("date")); err != nil {
		return rec, err
	}
	rec.CampaignName = field("campaign_name")
	if rec.Impressions, err = parseCount("impressions", field("impressions")); err != nil {
		return rec, err
	}
	if rec.Clicks, err = parseCount("clicks", field("clicks")); err != nil {
		return rec, err
	}
	if rec.Conversions, err = parseCount("conversions", field("conversions")); err != nil {
		return rec, err
	}
	if rec.Spend, err = strconv.ParseFloat(field("spend"), 64); err != nil || math.IsNaN(rec.Spend) || math.IsInf(rec.Spend, 0) {
		return rec, fmt.Errorf("spend 不是有限数字: %q", field("spend"))
	}
	return rec, rec.Validate()
}

// ParseDate 将日期列转换为可比较的日期（截断到天）
func ParseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("无法解析日期 %q", value)
}

// parseCount 计数列允许 "12.0" 这类导出格式，但必须是有限的非负整数
func parseCount(name, value string) (int64, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s 不是数字: %q", name, value)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s 必须为整数: %q", name, value)
	}
	// float64(MaxInt64) 向上取整为 2^63，因此用 >= 判断
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%s 超出范围: %q", name, value)
	}
	return int64(f), nil
}
