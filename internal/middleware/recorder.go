package middleware

import (
	"bytes"
	"context"
	"errors"
	"inspector/config"
	"inspector/internal/core"
	"inspector/internal/database/fluentd/repository"
	"inspector/internal/inspector"
	"inspector/internal/log"
	"inspector/internal/telemetry"
	"inspector/utils/compress"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recorder 把每個進來的請求建成 Record 存入 LogStore，回應送出前補上狀態碼並廣播給訂閱者
type Recorder struct {
	logger            *zap.Logger
	trace             *telemetry.Trace
	metric            *telemetry.Metric
	config            *config.Configuration
	dispatcher        *inspector.Dispatcher
	fluentdRepository *repository.RecordRepository
	ids               *inspector.IDGenerator
}

func NewRecorder(
	logger *zap.Logger,
	trace *telemetry.Trace,
	metric *telemetry.Metric,
	config *config.Configuration,
	dispatcher *inspector.Dispatcher,
	fluentdRepository *repository.RecordRepository,
) *Recorder {
	return &Recorder{
		logger:            logger.Named(log.NameRecorder),
		trace:             trace,
		metric:            metric,
		config:            config,
		dispatcher:        dispatcher,
		fluentdRepository: fluentdRepository,
		ids:               inspector.NewIDGenerator(),
	}
}

// RecordFrom 取出 Recorder 放進 context 的 Record
func RecordFrom(c *gin.Context) (*inspector.Record, bool) {
	v, ok := c.Get(core.ContextRecordKey)
	if !ok {
		return nil, false
	}
	rec, ok := v.(*inspector.Record)
	return rec, ok
}

func (m *Recorder) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span, end := m.trace.WithSpan(c.Request.Context(), core.SpanRecorderMiddleware)

		rec, parsed := m.capture(c)
		size, evicted := m.dispatcher.Store().Append(rec)
		m.metric.ObserveRecord(size, evicted)

		m.trace.ApplyTraceAttributes(span, core.TraceRecordMeta{
			RecordID:      rec.ID,
			Method:        rec.Method,
			URL:           rec.URL,
			RemoteAddress: rec.RemoteAddress,
			ContentType:   c.ContentType(),
			BodyParsed:    parsed,
			Evicted:       evicted,
		})
		end(nil)
		if evicted > 0 {
			m.logger.Debug("[Recorder] log store truncated",
				zap.Int("evicted", evicted),
				zap.Int("size", size),
			)
		}

		c.Set(core.ContextRecordKey, rec)
		w := newRecordingWriter(c.Writer, func(status int) {
			m.complete(ctx, rec, status)
		})
		c.Writer = w

		c.Next()

		// handler 沒有寫出任何東西，gin 會在之後補寫 header
		w.complete()
	}
}

func (m *Recorder) complete(ctx context.Context, rec *inspector.Record, status int) {
	if !rec.SetStatus(status) {
		return
	}
	m.dispatcher.Broadcast(rec)
	if err := m.fluentdRepository.LogRecord(ctx, rec); err != nil {
		m.logger.Warn("[Recorder] fluentd forward failed", zap.Int64("id", rec.ID), zap.Error(err))
	}
}

func (m *Recorder) capture(c *gin.Context) (*inspector.Record, bool) {
	now := time.Now()
	req := c.Request

	rec := &inspector.Record{
		ID:            m.ids.Next(now),
		Timestamp:     now.UTC(),
		Method:        req.Method,
		URL:           req.RequestURI,
		Headers:       inspector.HeaderMap(req.Header, req.Host),
		Query:         inspector.ValuesMap(req.URL.Query()),
		RemoteAddress: c.RemoteIP(),
	}
	if rec.URL == "" {
		rec.URL = req.URL.RequestURI()
	}

	raw, complete := m.readBody(c)
	if !complete || len(raw) == 0 {
		return rec, false
	}
	decoded, err := compress.Decode(raw, req.Header.Get("Content-Encoding"), m.config.Inspector.MaxBodyBytes)
	if err != nil {
		m.logger.Debug("[Recorder] body decode failed", zap.Int64("id", rec.ID), zap.Error(err))
		return rec, false
	}
	body, ok := inspector.ParseBody(req.Header.Get("Content-Type"), decoded)
	rec.Body = body
	return rec, ok
}

// readBody 最多讀 MaxBodyBytes，已讀的部分接回原本的 body 讓下游照常讀取。
// 超過上限時 complete=false，不做解析。
func (m *Recorder) readBody(c *gin.Context) (data []byte, complete bool) {
	req := c.Request
	limit := m.config.Inspector.MaxBodyBytes
	if req.Body == nil || req.Body == http.NoBody || limit <= 0 {
		return nil, false
	}
	data, err := io.ReadAll(io.LimitReader(req.Body, limit+1))
	req.Body = &restoredBody{
		Reader: io.MultiReader(bytes.NewReader(data), req.Body),
		closer: req.Body,
	}
	if err != nil && !errors.Is(err, io.EOF) {
		m.logger.Debug("[Recorder] read body failed", zap.Error(err))
		return nil, false
	}
	if int64(len(data)) > limit {
		return nil, false
	}
	return data, true
}

type restoredBody struct {
	io.Reader
	closer io.Closer
}

func (b *restoredBody) Close() error {
	return b.closer.Close()
}
