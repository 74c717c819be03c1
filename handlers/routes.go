package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "ad_insight_agent/docs" // 导入 swagger 文档
)

// Deps 路由依赖，启动时构建一次
type Deps struct {
	Runner   PipelineRunner
	Prompter PromptGenerator
	Gatherer prometheus.Gatherer // 为空时不暴露 /metrics
}

func RegisterRoutes(r chi.Router, deps Deps) {
	// Swagger 文档
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Get("/health", HealthHandler)

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/api/agent/run", func(w http.ResponseWriter, r *http.Request) {
		RunAgentHandler(w, r, deps.Runner)
	})

	r.Post("/api/prompt", func(w http.ResponseWriter, r *http.Request) {
		PromptHandler(w, r, deps.Prompter)
	})
}
