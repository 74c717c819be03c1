package utils

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Preview 截取前 n 个字符作为预览，超出部分以省略号标记
func Preview(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}

// JSONObjects 按出现顺序返回文本中所有合法的 JSON 对象
// 模型常在 JSON 前后附带说明文字或 ```json 代码块，这里按括号配对扫描并跳过字符串内的括号；
// 配对成功但不是合法 JSON 的片段（如 "{忠實度、具體性}"）会被跳过
func JSONObjects(text string) []string {
	var objects []string
	start := strings.Index(text, "{")
	for start >= 0 {
		next := start + 1
		if end := matchBrace(text, start); end > start && json.Valid([]byte(text[start:end+1])) {
			objects = append(objects, text[start:end+1])
			next = end + 1
		}
		if next >= len(text) {
			break
		}
		k := strings.Index(text[next:], "{")
		if k < 0 {
			break
		}
		start = next + k
	}
	return objects
}

// matchBrace 返回与 text[start] 处 '{' 配对的 '}' 下标，未配对返回 -1
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
