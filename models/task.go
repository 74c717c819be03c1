package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout 请求与数据源使用的 ISO 日期格式
const DateLayout = "2006-01-02"

// ErrEmptyTask 任务描述为空
var ErrEmptyTask = errors.New("task 不能为空")

// TaskRequest 一次流水线调用的已校验请求，创建后不再修改
type TaskRequest struct {
	Task      string
	DateStart *time.Time
	DateEnd   *time.Time
}

// NewTaskRequest 校验并规范化原始请求参数
// 空白日期视为未设置，而不是字面空字符串过滤条件
func NewTaskRequest(task, dateStart, dateEnd string) (TaskRequest, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return TaskRequest{}, ErrEmptyTask
	}

	start, err := parseOptionalDate("date_start", dateStart)
	if err != nil {
		return TaskRequest{}, err
	}
	end, err := parseOptionalDate("date_end", dateEnd)
	if err != nil {
		return TaskRequest{}, err
	}
	if start != nil && end != nil && start.After(*end) {
		return TaskRequest{}, fmt.Errorf("date_start %s 晚于 date_end %s",
			start.Format(DateLayout), end.Format(DateLayout))
	}

	return TaskRequest{Task: task, DateStart: start, DateEnd: end}, nil
}

// InRange 判断日期是否落在请求的闭区间内（未设置的边界不限制）
func (r TaskRequest) InRange(date time.Time) bool {
	if r.DateStart != nil && date.Before(*r.DateStart) {
		return false
	}
	if r.DateEnd != nil && date.After(*r.DateEnd) {
		return false
	}
	return true
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%s 格式错误，应为 YYYY-MM-DD: %q", field, value)
	}
	return &t, nil
}
