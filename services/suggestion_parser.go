package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ad_insight_agent/models"
)

// 建议条数范围
const (
	MinSuggestions = 3
	MaxSuggestions = 5
)

// ValidationErrorKind 结构化校验失败类别
type ValidationErrorKind string

const (
	ValidationCount        ValidationErrorKind = "count"
	ValidationMissingLabel ValidationErrorKind = "missing_label"
	ValidationContent      ValidationErrorKind = "content"
)

// ValidationError 建议解析失败，Message 直接作为下一次生成的修正反馈
type ValidationError struct {
	Kind    ValidationErrorKind
	Item    int // 1 起始的区块序号，数量错误时为 0
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// 区块以行首编号开始："1." "2、" "3)" "4）" "5．"，可带 Markdown 标题或强调标记；
// 标签为下列同义词之一，可被 * ** _ __ 包裹，后接半角或全角冒号
var (
	blockStartPattern = regexp.MustCompile(`(?m)^[ \t]*(?:#{1,6}[ \t]*)?(?:\*{1,2}|_{1,2})?[ \t]*\d{1,2}[ \t]*[.．、)）]`)

	targetLabels  = []string{"調整對象", "调整对象", "目標活動", "对象", "對象", "target"}
	actionLabels  = []string{"具體行動", "具体行动", "調整方向", "调整方向", "行動", "行动", "action"}
	outcomeLabels = []string{"預期成效", "预期成效", "預期效果", "预期效果", "expected outcome", "outcome"}

	targetPattern  = labelPattern(targetLabels)
	actionPattern  = labelPattern(actionLabels)
	outcomePattern = labelPattern(outcomeLabels)
)

// emphasis 可选的 Markdown 斜体或粗体标记
const emphasis = `(?:\*{1,2}|_{1,2})?`

// labelPattern 生成行首锚定的标签匹配式，行首允许列表符号与区块编号
func labelPattern(labels []string) *regexp.Regexp {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = regexp.QuoteMeta(l)
	}
	return regexp.MustCompile(`(?im)^[ \t>*\-•·#]*` +
		`(?:\d{1,2}[ \t]*[.．、)）][ \t]*)?` +
		emphasis + `[ \t]*(?:` + strings.Join(quoted, "|") + `)[ \t]*` + emphasis +
		`[ \t]*[:：][ \t]*` + emphasis + `(.*)$`)
}

// SplitSuggestionBlocks 按行首编号切分文本，编号前的内容丢弃
func SplitSuggestionBlocks(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var starts []int
	for _, loc := range blockStartPattern.FindAllStringIndex(text, -1) {
		// "1.5 倍" 这类小数不是编号
		if loc[1] < len(text) && text[loc[1]] >= '0' && text[loc[1]] <= '9' {
			continue
		}
		starts = append(starts, loc[0])
	}

	blocks := make([]string, 0, len(starts))
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		blocks = append(blocks, strings.TrimSpace(text[start:end]))
	}
	return blocks
}

// ParseSuggestions 将生成文本解析为 3 到 5 条建议，失败时返回 *ValidationError
func ParseSuggestions(text string) ([]models.SuggestionItem, error) {
	blocks := SplitSuggestionBlocks(text)
	if len(blocks) < MinSuggestions || len(blocks) > MaxSuggestions {
		return nil, &ValidationError{
			Kind: ValidationCount,
			Message: fmt.Sprintf("建議數量為 %d 點，必須為 %d 到 %d 點並以數字編號",
				len(blocks), MinSuggestions, MaxSuggestions),
		}
	}

	items := make([]models.SuggestionItem, 0, len(blocks))
	for i, block := range blocks {
		idx := i + 1
		target, okT := extractLabel(targetPattern, block)
		action, okA := extractLabel(actionPattern, block)
		outcome, okO := extractLabel(outcomePattern, block)

		var missing []string
		if !okT {
			missing = append(missing, "調整對象")
		}
		if !okA {
			missing = append(missing, "具體行動")
		}
		if !okO {
			missing = append(missing, "預期成效")
		}
		if len(missing) > 0 {
			return nil, &ValidationError{
				Kind:    ValidationMissingLabel,
				Item:    idx,
				Message: fmt.Sprintf("第 %d 點建議缺少標籤：%s", idx, strings.Join(missing, "、")),
			}
		}

		item, err := models.NewSuggestionItem(target, action, outcome)
		if err != nil {
			var fe *models.FieldError
			field := "unknown"
			if errors.As(err, &fe) {
				field = fe.Field
			}
			return nil, &ValidationError{
				Kind:    ValidationContent,
				Item:    idx,
				Message: fmt.Sprintf("第 %d 點建議的 %s 欄位內容無效：%v", idx, field, err),
				Err:     err,
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// extractLabel 取第一处匹配的标签值，去掉残留的强调符号
func extractLabel(pattern *regexp.Regexp, block string) (string, bool) {
	m := pattern.FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	return strings.Trim(m[1], "*_ \t"), true
}
