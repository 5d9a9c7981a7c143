package middleware

import (
	"fmt"
	"inspector/config"
	"inspector/internal/log"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	logger *zap.Logger
	config *config.Configuration
}

func NewLogger(
	logger *zap.Logger,
	config *config.Configuration,
) *Logger {
	return &Logger{
		logger: logger.Named(log.NameHTTP),
		config: config,
	}
}

// LoggerHandler 每個完成的請求輸出一行 access log（method、path、status、耗時、大小）
func (m *Logger) LoggerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipTelemetry(c.FullPath()) {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.Int("size", size),
			zap.String("client_ip", c.ClientIP()),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if rec, ok := RecordFrom(c); ok {
			fields = append(fields, zap.Int64("record", rec.ID))
		}
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			traceID := sc.TraceID()
			spanID := sc.SpanID()
			fields = append(fields,
				zap.String("spanId", fmt.Sprintf("%x", spanID[:])),
				zap.String("traceId", fmt.Sprintf("%x", traceID[:])),
			)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		m.logger.Log(levelForStatus(status), "[Request]", fields...)
	}
}

// 5xx → error，4xx → warn，其餘 info（對應 morgan dev 的顏色）
func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
