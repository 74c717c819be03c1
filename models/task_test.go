package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRequest_RejectsBlankTask(t *testing.T) {
	for _, task := range []string{"", "   ", "\t\n"} {
		_, err := NewTaskRequest(task, "", "")
		assert.ErrorIs(t, err, ErrEmptyTask)
	}
}

// TestNewTaskRequest_BlankDatesAreUnset 验证空白日期被视为未设置
func TestNewTaskRequest_BlankDatesAreUnset(t *testing.T) {
	req, err := NewTaskRequest("  分析成效  ", " ", "")
	require.NoError(t, err)
	assert.Equal(t, "分析成效", req.Task)
	assert.Nil(t, req.DateStart)
	assert.Nil(t, req.DateEnd)
	assert.True(t, req.InRange(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNewTaskRequest_DateValidation(t *testing.T) {
	_, err := NewTaskRequest("task", "2024/01/01", "")
	assert.ErrorContains(t, err, "date_start")

	_, err = NewTaskRequest("task", "2024-02-01", "2024-01-01")
	assert.ErrorContains(t, err, "晚于")

	req, err := NewTaskRequest("task", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.True(t, req.InRange(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, req.InRange(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, req.InRange(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, req.InRange(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
}
