package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// 各字段最小长度（按字符计）
const (
	MinTargetLen  = 2
	MinActionLen  = 5
	MinOutcomeLen = 2
)

// placeholderValues 无意义的占位内容，比较时忽略大小写
var placeholderValues = map[string]struct{}{
	"無":       {},
	"n/a":     {},
	"未知":      {},
	"none":    {},
	"unknown": {},
}

// SuggestionItem 一条结构化优化建议
type SuggestionItem struct {
	Target  string `json:"target"`
	Action  string `json:"action"`
	Outcome string `json:"outcome"`
}

// FieldError 建议字段内容校验失败
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("欄位 %s 無效（%s）: %q", e.Field, e.Reason, e.Value)
}

// NewSuggestionItem 去除首尾空白后校验长度与占位符
func NewSuggestionItem(target, action, outcome string) (SuggestionItem, error) {
	item := SuggestionItem{
		Target:  strings.TrimSpace(target),
		Action:  strings.TrimSpace(action),
		Outcome: strings.TrimSpace(outcome),
	}
	checks := []struct {
		field string
		value string
		min   int
	}{
		{"target", item.Target, MinTargetLen},
		{"action", item.Action, MinActionLen},
		{"outcome", item.Outcome, MinOutcomeLen},
	}
	for _, c := range checks {
		if IsPlaceholder(c.value) {
			return SuggestionItem{}, &FieldError{Field: c.field, Value: c.value, Reason: "佔位內容"}
		}
		if utf8.RuneCountInString(c.value) < c.min {
			return SuggestionItem{}, &FieldError{
				Field:  c.field,
				Value:  c.value,
				Reason: fmt.Sprintf("長度不足 %d 字", c.min),
			}
		}
	}
	return item, nil
}

// IsPlaceholder 判断值是否为占位符
func IsPlaceholder(value string) bool {
	_, ok := placeholderValues[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// QualityEvaluation 品质门评分结果
type QualityEvaluation struct {
	Score    int    `json:"score"`
	Critique string `json:"critique"`
	Passed   bool   `json:"passed"`
}
