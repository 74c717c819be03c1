package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"ad_insight_agent/models"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource 从 MySQL / SQLite 表读取广告成效数据
type SQLSource struct {
	db    *sql.DB
	table string
}

// NewSQLSource 创建 SQL 数据源，表名只允许标识符字符
func NewSQLSource(db *sql.DB, table string) (*SQLSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("非法表名: %q", table)
	}
	return &SQLSource{db: db, table: table}, nil
}

// Path 返回数据表标识
func (s *SQLSource) Path() string {
	return "table:" + s.table
}

// LoadRecords 读取全部记录，日期列以字符串读取以兼容不同驱动
func (s *SQLSource) LoadRecords(ctx context.Context) ([]models.PerformanceRecord, error) {
	q := "SELECT date, campaign_name, impressions, clicks, conversions, spend FROM " + s.table + " ORDER BY date"
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("查询广告数据失败: %w", err)
	}
	defer rows.Close()

	var records []models.PerformanceRecord
	for rows.Next() {
		var (
			rawDate any
			rec     models.PerformanceRecord
		)
		if err := rows.Scan(&rawDate, &rec.CampaignName, &rec.Impressions, &rec.Clicks, &rec.Conversions, &rec.Spend); err != nil {
			return nil, fmt.Errorf("读取广告数据行失败: %w", err)
		}
		if rec.Date, err = scanDate(rawDate); err != nil {
			return nil, err
		}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("遍历广告数据失败: %w", err)
	}
	return records, nil
}

func scanDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	case []byte:
		return ParseDate(string(d))
	case string:
		return ParseDate(d)
	default:
		return time.Time{}, fmt.Errorf("不支持的日期类型 %T", v)
	}
}
