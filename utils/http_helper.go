package utils

import (
	"encoding/json"
	"net/http"

	"ad_insight_agent/models"
)

// WriteFormattedJSON 格式化JSON输出，使其更易读
func WriteFormattedJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ") // 使用4个空格缩进
	encoder.Encode(data)
}

// WriteSuccessResponse 写入成功响应
func WriteSuccessResponse(w http.ResponseWriter, data interface{}) {
	WriteFormattedJSON(w, http.StatusOK, models.NewSuccessResponse(data))
}

// WriteErrorResponse 写入错误响应
func WriteErrorResponse(w http.ResponseWriter, status, code int, data interface{}) {
	WriteFormattedJSON(w, status, models.NewErrorResponse(code, data))
}

// WriteCustomErrorResponse 写入自定义错误消息的响应
func WriteCustomErrorResponse(w http.ResponseWriter, status, code int, message string, data interface{}) {
	WriteFormattedJSON(w, status, models.NewCustomErrorResponse(code, message, data))
}

// DecodeJSONBody 解析请求体，失败时直接写入参数错误响应
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteCustomErrorResponse(w, http.StatusBadRequest, models.CodeInvalidParams,
			"请求体解析失败: "+err.Error(), map[string]interface{}{})
		return false
	}
	return true
}

// ValidateRequired 校验必填字符串参数
func ValidateRequired(w http.ResponseWriter, param, value string) bool {
	if value == "" {
		WriteErrorResponse(w, http.StatusBadRequest, models.CodeMissingParams, map[string]interface{}{
			"param": param,
		})
		return false
	}
	return true
}
