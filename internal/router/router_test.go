package router

import (
	"context"
	"inspector/config"
	"inspector/internal/database/client"
	"inspector/internal/database/fluentd/repository"
	"inspector/internal/handler"
	"inspector/internal/inspector"
	"inspector/internal/middleware"
	"inspector/internal/service"
	"inspector/internal/telemetry"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	*httptest.Server
	dispatcher *inspector.Dispatcher
	health     *service.HealthService
	closed     atomic.Int32
}

func newTestServer(t *testing.T, mutate ...func(*config.Configuration)) *testServer {
	t.Helper()
	public := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(public, "index.html"), []byte("<html>inspector</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(public, "app.js"), []byte("console.log(1)"), 0o644))

	conf := config.Default()
	conf.App.Env = "test"
	conf.App.Version = "1.2.3"
	conf.Inspector.PublicDir = public
	conf.Telemetry.Metric.Enabled = true
	for _, fn := range mutate {
		fn(conf)
	}

	logger := zap.NewNop()
	trace, cleanup, err := telemetry.NewTrace(conf, logger)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	metric := telemetry.NewMetric(conf)
	dispatcher := inspector.ProvideDispatcher(conf, inspector.ProvideLogStore(conf), inspector.ProvideRegistry(conf), logger, metric)
	repo := repository.NewRecordRepository(conf, &client.NoopClient{})
	health := service.NewHealthService()
	static := handler.NewStaticHandler(conf)

	engine := NewRouter(
		conf,
		metric,
		middleware.NewTraceEntry(trace, metric, conf),
		middleware.NewRecorder(logger, trace, metric, conf, dispatcher, repo),
		middleware.NewLogger(logger, conf),
		middleware.NewCors(trace),
		middleware.NewRecovery(logger, trace, conf),
		NewHealthRouter(handler.NewHealthHandler(health, conf)),
		NewInspectorRouter(handler.NewStreamHandler(logger, trace, dispatcher), handler.NewTestHandler(conf), static),
		static,
	)
	ts := &testServer{dispatcher: dispatcher, health: health}
	srv := httptest.NewUnstartedServer(engine)
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateClosed {
			ts.closed.Add(1)
		}
	}
	srv.Start()
	t.Cleanup(srv.Close)
	ts.Server = srv
	return ts
}

// stream 連上 /stream，回傳事件 channel 與斷線函式
func (s *testServer) stream(t *testing.T) (<-chan *inspector.Event, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	events := make(chan *inspector.Event, 64)
	go func() {
		defer resp.Body.Close()
		defer close(events)
		_ = inspector.ReadEvents(resp.Body, func(data []byte) error {
			ev, err := inspector.DecodeEvent(data)
			if err != nil {
				return err
			}
			events <- ev
			return nil
		})
	}()
	t.Cleanup(cancel)
	return events, cancel
}

// nextRecord 略過 /stream 本身的紀錄，等待指定 URL 的 live event
func nextRecord(t *testing.T, events <-chan *inspector.Event, url string) *inspector.Record {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed before %s arrived", url)
			if ev.Type == inspector.EventTypeRecord && ev.Record.URL == url {
				return ev.Record
			}
		case <-timeout:
			t.Fatalf("no live event for %s", url)
			return nil
		}
	}
}

func history(t *testing.T, events <-chan *inspector.Event) *inspector.Event {
	t.Helper()
	select {
	case ev := <-events:
		require.Equal(t, inspector.EventTypeHistory, ev.Type)
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("no history event")
		return nil
	}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestTestGetScenario(t *testing.T) {
	s := newTestServer(t)
	events, _ := s.stream(t)
	history(t, events)

	resp, body := get(t, s.URL+"/api/test-get?param=1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"message":"This is a GET response","query":{"param":"1"}}`, body)
	assert.Equal(t, "1.2.3", resp.Header.Get("X-App-Version"))

	rec := nextRecord(t, events, "/api/test-get?param=1")
	assert.Equal(t, "GET", rec.Method)
	assert.Equal(t, map[string]any{"param": "1"}, rec.Query)
	assert.Equal(t, "127.0.0.1", rec.RemoteAddress)
	code, ok := rec.Status()
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, code)

	var found bool
	for _, r := range s.dispatcher.Store().Snapshot() {
		if r.URL == "/api/test-get?param=1" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTestPostScenario(t *testing.T) {
	s := newTestServer(t)
	events, _ := s.stream(t)
	history(t, events)

	resp, err := http.Post(s.URL+"/api/test-post", "application/json", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"message":"This is a POST response","body":{"a":1}}`, string(body))

	rec := nextRecord(t, events, "/api/test-post")
	assert.Equal(t, "POST", rec.Method)
	assert.Equal(t, map[string]any{"a": float64(1)}, rec.Body)
	assert.Equal(t, "application/json", rec.Headers["content-type"])
}

func TestTwoSubscriberDisconnect(t *testing.T) {
	s := newTestServer(t)
	a, disconnectA := s.stream(t)
	history(t, a)
	b, _ := s.stream(t)
	history(t, b)
	require.Eventually(t, func() bool { return s.dispatcher.Registry().Len() == 2 }, 3*time.Second, 10*time.Millisecond)

	disconnectA()
	require.Eventually(t, func() bool { return s.dispatcher.Registry().Len() == 1 }, 3*time.Second, 10*time.Millisecond)

	get(t, s.URL+"/api/test-get?after=disconnect")
	rec := nextRecord(t, b, "/api/test-get?after=disconnect")
	code, _ := rec.Status()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, s.dispatcher.Registry().Len())
}

func TestLateSubscriberGetsHistory(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 5; i++ {
		get(t, s.URL+"/api/test-get")
	}

	events, _ := s.stream(t)
	ev := history(t, events)
	// 5 筆已完成 + 自己這次 /stream（尚未完成）
	require.GreaterOrEqual(t, len(ev.History), 5)
	for _, r := range ev.History[:5] {
		code, ok := r.Status()
		require.True(t, ok)
		assert.Equal(t, http.StatusOK, code)
	}
	last := ev.History[len(ev.History)-1]
	assert.Equal(t, "/stream", last.URL)
	_, ok := last.Status()
	assert.False(t, ok)
}

func TestNotFoundIsRecorded(t *testing.T) {
	s := newTestServer(t)
	events, _ := s.stream(t)
	history(t, events)

	resp, body := get(t, s.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"code":40400`)

	rec := nextRecord(t, events, "/nope")
	code, _ := rec.Status()
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStaticAndHealth(t *testing.T) {
	s := newTestServer(t)

	resp, body := get(t, s.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<html>inspector</html>", body)

	resp, body = get(t, s.URL+"/app.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "console.log(1)", body)

	resp, _ = get(t, s.URL+"/../../etc/passwd")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = get(t, s.URL+"/health-check")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)

	resp, _ = get(t, s.URL+"/health/readiness")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	s.health.SetReady(true)
	resp, _ = get(t, s.URL+"/health/readiness")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = get(t, s.URL+"/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"version":"1.2.3"`)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	get(t, s.URL+"/api/test-get")

	resp, body := get(t, s.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "inspector_records_total")
	assert.Contains(t, body, `inspector_requests_total{endpoint="/api/test-get",status="200"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	s := newTestServer(t, func(conf *config.Configuration) {
		conf.Telemetry.Metric.Enabled = false
	})
	resp, _ := get(t, s.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPprofOnlyWhenEnabled(t *testing.T) {
	s := newTestServer(t)
	resp, _ := get(t, s.URL+"/debug/pprof/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	s = newTestServer(t, func(conf *config.Configuration) {
		conf.App.PprofEnabled = true
	})
	resp, _ = get(t, s.URL+"/debug/pprof/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// 對方停止讀取時，被移除的訂閱者不能一直卡在 Write：連線必須被關閉
func TestEvictedStalledSubscriberIsDisconnected(t *testing.T) {
	s := newTestServer(t, func(conf *config.Configuration) {
		conf.Inspector.SubscriberBuffer = 1
	})

	conn, err := net.Dial("tcp", s.Listener.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_, err = conn.Write([]byte("GET /stream HTTP/1.1\r\nHost: inspector\r\n\r\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.dispatcher.Registry().Len() == 1 }, 3*time.Second, 10*time.Millisecond)

	// 大 frame 塞滿 socket buffer，讓 handler 卡在 Write，之後佇列滿而被移除
	big := strings.Repeat("x", 4<<20)
	for i := int64(1); i <= 64 && s.dispatcher.Registry().Len() > 0; i++ {
		rec := &inspector.Record{ID: i, Method: http.MethodPost, URL: "/big", Body: big}
		rec.SetStatus(http.StatusOK)
		s.dispatcher.Broadcast(rec)
		time.Sleep(20 * time.Millisecond)
	}
	require.Equal(t, 0, s.dispatcher.Registry().Len(), "stalled subscriber should be evicted")

	// client 從未讀取，連線仍須在 server 端關閉
	require.Eventually(t, func() bool { return s.closed.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
}
