package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"inspector/config"
	"inspector/internal/database/fluentd/repository"
	"inspector/internal/inspector"
	"inspector/internal/telemetry"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeFluentd struct {
	mu       sync.Mutex
	messages []any
}

func (f *fakeFluentd) Post(_ context.Context, _ string, message any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeFluentd) Close() error { return nil }

func (f *fakeFluentd) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

type fixture struct {
	engine     *gin.Engine
	dispatcher *inspector.Dispatcher
	fluentd    *fakeFluentd
	logs       *observer.ObservedLogs
}

func newFixture(t *testing.T, mutate ...func(*config.Configuration)) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conf := config.Default()
	for _, fn := range mutate {
		fn(conf)
	}
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	trace, _, err := telemetry.NewTrace(conf, logger)
	require.NoError(t, err)
	metric := telemetry.NewMetric(conf)
	d := inspector.NewDispatcher(
		inspector.NewLogStore(conf.Inspector.MaxRecords, conf.Inspector.KeepRecords),
		inspector.NewRegistry(conf.Inspector.SubscriberBuffer),
		conf.Inspector.Envelope, logger, metric,
	)
	fluentd := &fakeFluentd{}
	recorder := NewRecorder(logger, trace, metric, conf, d, repository.NewRecordRepository(conf, fluentd))

	engine := gin.New()
	engine.Use(recorder.Handler())
	engine.Use(NewLogger(logger, conf).LoggerHandler())
	engine.Use(NewCors(trace).CorsHandler())
	engine.Use(NewRecovery(logger, trace, conf).ErrorHandler())
	return &fixture{engine: engine, dispatcher: d, fluentd: fluentd, logs: logs}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) subscribe(t *testing.T) *inspector.Subscriber {
	t.Helper()
	sub, _, err := f.dispatcher.Subscribe("test")
	require.NoError(t, err)
	t.Cleanup(func() { f.dispatcher.Unsubscribe(sub) })
	return sub
}

func drain(sub *inspector.Subscriber) []*inspector.Record {
	var out []*inspector.Record
	for {
		select {
		case frame := <-sub.Events():
			payload := bytes.TrimSuffix(bytes.TrimPrefix(frame, []byte("data: ")), []byte("\n\n"))
			ev, err := inspector.DecodeEvent(payload)
			if err == nil {
				out = append(out, ev.Record)
			}
		default:
			return out
		}
	}
}

func lastRecord(t *testing.T, d *inspector.Dispatcher) *inspector.Record {
	t.Helper()
	records := d.Store().Snapshot()
	require.NotEmpty(t, records)
	return records[len(records)-1]
}

func TestRecorder_StatusSetBeforeFirstByte(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t)

	f.engine.GET("/echo", func(c *gin.Context) {
		rec, ok := RecordFrom(c)
		require.True(t, ok)
		_, done := rec.Status()
		assert.False(t, done, "status must be null while the handler runs")
		c.JSON(http.StatusCreated, gin.H{"ok": true})
		code, done := rec.Status()
		assert.True(t, done)
		assert.Equal(t, http.StatusCreated, code)
	})

	w := f.do(httptest.NewRequest(http.MethodGet, "/echo?a=1&a=2&b=x", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	rec := lastRecord(t, f.dispatcher)
	assert.Equal(t, "/echo?a=1&a=2&b=x", rec.URL)
	assert.Equal(t, map[string]any{"a": []string{"1", "2"}, "b": "x"}, rec.Query)
	assert.Equal(t, "192.0.2.1", rec.RemoteAddress)
	assert.Equal(t, "example.com", rec.Headers["host"])
	assert.Nil(t, rec.Body)

	events := drain(sub)
	require.Len(t, events, 1)
	code, ok := events[0].Status()
	require.True(t, ok)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 1, f.fluentd.count())
}

func TestRecorder_MultipleWritesFinalizeOnce(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t)

	f.engine.GET("/chunks", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
		for i := 0; i < 3; i++ {
			_, _ = c.Writer.WriteString("chunk\n")
			c.Writer.Flush()
		}
	})

	w := f.do(httptest.NewRequest(http.MethodGet, "/chunks", nil))
	assert.Equal(t, "chunk\nchunk\nchunk\n", w.Body.String())

	events := drain(sub)
	require.Len(t, events, 1)
	code, _ := events[0].Status()
	assert.Equal(t, http.StatusAccepted, code)
	assert.Equal(t, 1, f.fluentd.count())
}

func TestRecorder_NoBodyWritten(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t)
	f.engine.DELETE("/empty", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := f.do(httptest.NewRequest(http.MethodDelete, "/empty", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	events := drain(sub)
	require.Len(t, events, 1)
	code, _ := events[0].Status()
	assert.Equal(t, http.StatusNoContent, code)
}

func TestRecorder_UnmatchedRouteRecorded(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, "/missing", events[0].URL)
	code, _ := events[0].Status()
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRecorder_PanicRecordedAs500(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t)
	f.engine.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := f.do(httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":50000`)

	events := drain(sub)
	require.Len(t, events, 1)
	code, _ := events[0].Status()
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, 1, f.logs.FilterMessage("[PANIC] Recovered").Len())

	// 之後的請求照常處理
	f.engine.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/ok", nil)).Code)
}

func TestRecorder_BodyParsing(t *testing.T) {
	f := newFixture(t)
	var downstream []byte
	f.engine.POST("/body", func(c *gin.Context) {
		downstream, _ = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	// JSON
	req := httptest.NewRequest(http.MethodPost, "/body", strings.NewReader(`{"name":"x","n":[1,2]}`))
	req.Header.Set("Content-Type", "application/json")
	f.do(req)
	body, ok := lastRecord(t, f.dispatcher).Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x", body["name"])
	assert.Equal(t, `{"name":"x","n":[1,2]}`, string(downstream))

	// urlencoded
	req = httptest.NewRequest(http.MethodPost, "/body", strings.NewReader("a=1&b=2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	f.do(req)
	assert.Equal(t, map[string]any{"a": "1", "b": "2"}, lastRecord(t, f.dispatcher).Body)

	// malformed JSON → null，下游仍拿到原始 bytes
	req = httptest.NewRequest(http.MethodPost, "/body", strings.NewReader(`{"broken":`))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, lastRecord(t, f.dispatcher).Body)
	assert.Equal(t, `{"broken":`, string(downstream))

	// 非 JSON/表單 → null
	req = httptest.NewRequest(http.MethodPost, "/body", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	f.do(req)
	assert.Nil(t, lastRecord(t, f.dispatcher).Body)
}

func TestRecorder_GzipBody(t *testing.T) {
	f := newFixture(t)
	var downstream []byte
	f.engine.POST("/gz", func(c *gin.Context) {
		downstream, _ = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"zipped":true}`))
	require.NoError(t, zw.Close())
	raw := buf.Bytes()

	req := httptest.NewRequest(http.MethodPost, "/gz", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	f.do(req)

	assert.Equal(t, map[string]any{"zipped": true}, lastRecord(t, f.dispatcher).Body)
	assert.Equal(t, raw, downstream)
}

func TestRecorder_BodyOverLimit(t *testing.T) {
	f := newFixture(t, func(conf *config.Configuration) {
		conf.Inspector.MaxBodyBytes = 8
	})
	var downstream []byte
	f.engine.POST("/big", func(c *gin.Context) {
		downstream, _ = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	payload := `{"too":"large for the limit"}`
	req := httptest.NewRequest(http.MethodPost, "/big", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	f.do(req)

	assert.Nil(t, lastRecord(t, f.dispatcher).Body)
	assert.Equal(t, payload, string(downstream))
}

func TestRecorder_IDsStrictlyIncreasing(t *testing.T) {
	f := newFixture(t)
	f.engine.GET("/id", func(c *gin.Context) { c.Status(http.StatusOK) })
	for i := 0; i < 20; i++ {
		f.do(httptest.NewRequest(http.MethodGet, "/id", nil))
	}
	records := f.dispatcher.Store().Snapshot()
	require.Len(t, records, 20)
	for i := 1; i < len(records); i++ {
		assert.Greater(t, records[i].ID, records[i-1].ID)
	}
}

func TestRecorder_CorsPreflight(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t)
	f.engine.POST("/api/test-post", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/test-post", nil)
	req.Header.Set("Origin", "http://elsewhere.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := f.do(req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, http.MethodOptions, events[0].Method)
	code, _ := events[0].Status()
	assert.Equal(t, http.StatusNoContent, code)
}

func TestLogger_AccessLine(t *testing.T) {
	f := newFixture(t)
	f.engine.GET("/logged", func(c *gin.Context) { c.String(http.StatusTeapot, "short and stout") })

	f.do(httptest.NewRequest(http.MethodGet, "/logged?x=1", nil))

	entries := f.logs.FilterMessage("[Request]").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "http", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/logged", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
	assert.EqualValues(t, len("short and stout"), fields["size"])
	assert.Equal(t, "x=1", fields["query"])
}
