package middleware

import (
	"inspector/internal/core"
	"inspector/internal/telemetry"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Cors struct {
	trace *telemetry.Trace
}

func NewCors(trace *telemetry.Trace) *Cors {
	return &Cors{trace: trace}
}

// CorsHandler 任何來源皆可呼叫（不帶 credentials），並以 WithSpan 紀錄設定；/metrics 與健康檢查不做 tracing
func (m *Cors) CorsHandler() gin.HandlerFunc {
	cfg := cors.Config{
		AllowAllOrigins: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPut,
			http.MethodPatch, http.MethodPost, http.MethodDelete,
		},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Encoding", "Authorization", "X-Requested-With"},
		ExposeHeaders: []string{"X-App-Version"},
	}
	corsHandler := cors.New(cfg)

	type corsMeta struct {
		AllowAllOrigins bool     `trace:"http.cors.allow_all_origins"`
		AllowMethods    []string `trace:"http.cors.allow_methods"`
		AllowHeaders    []string `trace:"http.cors.allow_headers"`
	}

	return func(c *gin.Context) {
		if skipTelemetry(c.FullPath()) {
			corsHandler(c)
			return
		}

		_, span, end := m.trace.WithSpan(c.Request.Context(), core.SpanCorsMiddleware)
		m.trace.ApplyTraceAttributes(span, corsMeta{
			AllowAllOrigins: cfg.AllowAllOrigins,
			AllowMethods:    cfg.AllowMethods,
			AllowHeaders:    cfg.AllowHeaders,
		})
		end(nil)

		// 執行實際的 CORS middleware（preflight 會在這裡 abort）
		corsHandler(c)
	}
}

// 這些路徑不做 tracing 與 access log
func skipTelemetry(endpoint string) bool {
	return strings.HasPrefix(endpoint, "/metrics") ||
		strings.HasPrefix(endpoint, "/version") ||
		strings.HasPrefix(endpoint, "/health")
}
