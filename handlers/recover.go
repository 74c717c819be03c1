package handlers

import (
	"net/http"
	"runtime/debug"

	"ad_insight_agent/logger"
	"ad_insight_agent/models"
	"ad_insight_agent/utils"
)

// Recoverer 捕获处理器 panic，记录堆栈并以统一 JSON 格式返回 500
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Error("请求处理发生panic", "method", r.Method, "path", r.URL.Path,
				"panic", rec, "stack", string(debug.Stack()))
			utils.WriteErrorResponse(w, http.StatusInternalServerError, models.CodeServerError,
				map[string]interface{}{})
		}()
		next.ServeHTTP(w, r)
	})
}
