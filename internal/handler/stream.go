package handler

import (
	"inspector/internal/core"
	"inspector/internal/inspector"
	"inspector/internal/log"
	cErr "inspector/internal/pkg/error"
	"inspector/internal/pkg/response"
	"inspector/internal/telemetry"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StreamHandler struct {
	logger     *zap.Logger
	trace      *telemetry.Trace
	dispatcher *inspector.Dispatcher
}

func NewStreamHandler(logger *zap.Logger, trace *telemetry.Trace, dispatcher *inspector.Dispatcher) *StreamHandler {
	return &StreamHandler{logger: logger.Named(log.NameStream), trace: trace, dispatcher: dispatcher}
}

// disconnectOnEvict 被移除時把 write deadline 設為現在，卡在 Write 的連線（對方不讀）會立即失敗並關閉。
// 回傳的 func 須在 handler 結束前呼叫，之後不再動到 ResponseWriter。
func (h *StreamHandler) disconnectOnEvict(c *gin.Context, sub *inspector.Subscriber) func() {
	rc := http.NewResponseController(c.Writer)
	var (
		mu       sync.Mutex
		finished bool
	)
	go func() {
		<-sub.Done()
		mu.Lock()
		defer mu.Unlock()
		if finished {
			return
		}
		if err := rc.SetWriteDeadline(time.Now()); err != nil {
			h.logger.Debug("[Stream] set write deadline failed", zap.Uint64("subscriber", sub.ID), zap.Error(err))
		}
	}()
	return func() {
		mu.Lock()
		finished = true
		mu.Unlock()
	}
}

// Stream GET /stream：先送歷史事件，之後逐筆送出完成的 record，直到斷線或被移除
func (h *StreamHandler) Stream(c *gin.Context) {
	_, span, end := h.trace.WithSpan(c.Request.Context(), core.SpanStreamHandler)
	sub, history, err := h.dispatcher.Subscribe(c.ClientIP())
	if err != nil {
		end(err)
		response.AbortWithError(c, cErr.InternalServer(err.Error()))
		return
	}
	defer h.dispatcher.Unsubscribe(sub)
	defer h.disconnectOnEvict(c, sub)()

	h.trace.ApplyTraceAttributes(span, core.TraceStreamMeta{
		SubscriberID:  sub.ID,
		RemoteAddress: sub.RemoteAddr,
		HistorySize:   h.dispatcher.Store().Len(),
		HistoryBytes:  len(history),
	})
	end(nil)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	if _, err := c.Writer.Write(history); err != nil {
		h.logger.Debug("[Stream] write history failed", zap.Uint64("subscriber", sub.ID), zap.Error(err))
		return
	}
	c.Writer.Flush()
	h.dispatcher.EventSent(core.EventKindHistory)

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case <-sub.Done():
			return false
		case frame := <-sub.Events():
			if _, err := w.Write(frame); err != nil {
				h.logger.Debug("[Stream] write event failed", zap.Uint64("subscriber", sub.ID), zap.Error(err))
				return false
			}
			h.dispatcher.EventSent(core.EventKindRecord)
			return true
		}
	})
}
