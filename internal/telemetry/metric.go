package telemetry

import (
	"inspector/config"
	"inspector/internal/core"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric struct
type Metric struct {
	HttpRequestsTotal       *prometheus.CounterVec
	HttpRequestDuration     *prometheus.HistogramVec
	RecordsTotal            prometheus.Counter
	RecordsEvictedTotal     prometheus.Counter
	LogStoreSize            prometheus.Gauge
	ActiveSubscribers       prometheus.Gauge
	SubscribersEvictedTotal prometheus.Counter
	EventsSentTotal         *prometheus.CounterVec
	Registry                *prometheus.Registry
	config                  *config.Configuration
}

// NewMetric 建立所有指標（每個 Metric 自帶 registry，測試可重複建立）
func NewMetric(config *config.Configuration) *Metric {
	if config == nil || !config.Telemetry.Metric.Enabled {
		return &Metric{}
	}
	buckets := prometheus.DefBuckets
	if len(config.Telemetry.Metric.Buckets) > 0 {
		buckets = config.Telemetry.Metric.Buckets
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	prefix := metricPrefix(config.App.Name)

	return &Metric{
		config:   config,
		Registry: reg,
		HttpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricHttpRequestsTotal),
				Help: "Total received HTTP requests",
			},
			labelNames(core.MetricLabelEndpoint, core.MetricLabelStatus),
		),
		HttpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + string(core.MetricHttpRequestDuration),
				Help:    "HTTP request duration (seconds)",
				Buckets: buckets,
			},
			labelNames(core.MetricLabelEndpoint),
		),
		RecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + string(core.MetricRecordsTotal),
			Help: "Request records appended to the log store",
		}),
		RecordsEvictedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + string(core.MetricRecordsEvictedTotal),
			Help: "Request records discarded by capacity truncation",
		}),
		LogStoreSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + string(core.MetricLogStoreSize),
			Help: "Records currently retained in the log store",
		}),
		ActiveSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: prefix + string(core.MetricActiveSubscribers),
			Help: "Currently attached stream subscribers",
		}),
		SubscribersEvictedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: prefix + string(core.MetricSubscribersEvictedTotal),
			Help: "Subscribers disconnected because their queue was full",
		}),
		EventsSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + string(core.MetricEventsSentTotal),
				Help: "Stream events written to subscribers",
			},
			labelNames(core.MetricLabelKind),
		),
	}
}

// Handler 回傳 /metrics；未啟用時回 404
func (m *Metric) Handler() http.Handler {
	if m == nil || m.Registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ==== nil-safe 記錄方法，未啟用 metric 時皆為 no-op ====

func (m *Metric) ObserveRecord(storeSize, evicted int) {
	if m == nil || m.RecordsTotal == nil {
		return
	}
	m.RecordsTotal.Inc()
	if evicted > 0 {
		m.RecordsEvictedTotal.Add(float64(evicted))
	}
	m.LogStoreSize.Set(float64(storeSize))
}

func (m *Metric) SubscriberAttached() {
	if m == nil || m.ActiveSubscribers == nil {
		return
	}
	m.ActiveSubscribers.Inc()
}

func (m *Metric) SubscriberDetached(evicted bool) {
	if m == nil || m.ActiveSubscribers == nil {
		return
	}
	m.ActiveSubscribers.Dec()
	if evicted {
		m.SubscribersEvictedTotal.Inc()
	}
}

func (m *Metric) EventSent(kind string) {
	if m == nil || m.EventsSentTotal == nil {
		return
	}
	m.EventsSentTotal.WithLabelValues(kind).Inc()
}

func (m *Metric) SetGauges(storeSize, subscribers int) {
	if m == nil || m.LogStoreSize == nil {
		return
	}
	m.LogStoreSize.Set(float64(storeSize))
	m.ActiveSubscribers.Set(float64(subscribers))
}

// labelNames helper: LabelName slice 轉成 []string
func labelNames(labels ...core.MetricLabelName) []string {
	strs := make([]string, len(labels))
	for i, l := range labels {
		strs[i] = string(l)
	}
	return strs
}

// prometheus metric name 只接受 [a-zA-Z0-9_:]
func metricPrefix(name string) string {
	if name == "" {
		return ""
	}
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name) + "_"
}
