package core

const ContextTraceKey = "telemetry_trace_ctx"

// ==== 型別安全 span name ====
// 專案全域建議都寫這裡，方便集中管理
type TraceSpanName string

const (
	SpanRecorderMiddleware TraceSpanName = "recorder_middleware"
	SpanCorsMiddleware     TraceSpanName = "cors_middleware"
	SpanRecoveryMiddleware TraceSpanName = "recovery_middleware"
	SpanStreamHandler      TraceSpanName = "stream_handler"
)

// 指標名稱常數
type MetricName string

const (
	MetricHttpRequestsTotal       MetricName = "requests_total"
	MetricHttpRequestDuration     MetricName = "request_duration_seconds"
	MetricRecordsTotal            MetricName = "records_total"
	MetricRecordsEvictedTotal     MetricName = "records_evicted_total"
	MetricLogStoreSize            MetricName = "log_store_size"
	MetricActiveSubscribers       MetricName = "active_subscribers"
	MetricSubscribersEvictedTotal MetricName = "subscribers_evicted_total"
	MetricEventsSentTotal         MetricName = "events_sent_total"
)

// label name 常數
type MetricLabelName string

const (
	MetricLabelEndpoint MetricLabelName = "endpoint"
	MetricLabelStatus   MetricLabelName = "status"
	MetricLabelKind     MetricLabelName = "kind"
)

// 事件種類（events_sent_total 的 kind label）
const (
	EventKindHistory = "history"
	EventKindRecord  = "record"
)

type TraceRecordMeta struct {
	RecordID      int64  `trace:"inspector.record.id"`
	Method        string `trace:"http.request.method"`
	URL           string `trace:"url.full"`
	RemoteAddress string `trace:"client.address"`
	ContentType   string `trace:"http.request.content_type"`
	BodyParsed    bool   `trace:"inspector.record.body_parsed"`
	Evicted       int    `trace:"inspector.store.evicted"`
}

type TraceStreamMeta struct {
	SubscriberID  uint64 `trace:"inspector.subscriber.id"`
	RemoteAddress string `trace:"client.address"`
	HistorySize   int    `trace:"inspector.history.size"`
	HistoryBytes  int    `trace:"inspector.history.bytes"`
}

type TraceErrorMeta struct {
	Code       int     `trace:"error.code"`
	Message    string  `trace:"error.message"`
	Detail     string  `trace:"error.detail"`
	DurationMs float64 `trace:"response.latency_ms"`
	Status     int     `trace:"http.status_code"`
}

type TracePanicMeta struct {
	Path       string  `trace:"http.path"`
	Method     string  `trace:"http.method"`
	ClientIP   string  `trace:"net.peer.ip"`
	UserAgent  string  `trace:"http.user_agent"`
	DurationMs float64 `trace:"response.latency_ms"`
	Status     int     `trace:"http.status_code"`
	Message    string  `trace:"error.message"`
	Stack      string  `trace:"error.stack"`
}

type TraceHttpServerMeta struct {
	// request side
	ClientAddr        string `trace:"client.address"`
	HttpRequestMethod string `trace:"http.request.method"`
	HttpRoute         string `trace:"http.route"`
	UrlPath           string `trace:"http.request.path"`
	UrlScheme         string `trace:"http.request.url.scheme"`
	UserAgent         string `trace:"user_agent.original"`
	ServerAddress     string `trace:"server.address"`
	NetworkPeerAddr   string `trace:"network.peer.address"`
	NetworkPeerPort   int    `trace:"network.peer.port"`
	NetworkProtoVer   string `trace:"network.protocol.version"`
	SpanTraceID       string `trace:"span.trace_id"`
	HttpStatusCode    int    `trace:"http.response.status_code"`
}
