package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 账户与邮箱指标
	AccountsCreated       prometheus.Counter
	EmailAddressesCreated prometheus.Counter

	// 同步指标
	SyncRuns          *prometheus.CounterVec
	SyncDuration      prometheus.Histogram
	MessagesInserted  prometheus.Counter
	MessagesDuplicate prometheus.Counter

	// 供应商指标
	ProviderRequests        *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nordmail_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nordmail_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		AccountsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "nordmail_accounts_created_total",
				Help: "Total number of accounts created",
			},
		),

		EmailAddressesCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "nordmail_email_addresses_created_total",
				Help: "Total number of email addresses provisioned",
			},
		),

		SyncRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nordmail_sync_runs_total",
				Help: "Total number of inbox sync runs",
			},
			[]string{"result"},
		),

		SyncDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nordmail_sync_duration_seconds",
				Help:    "Inbox sync duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		MessagesInserted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "nordmail_messages_inserted_total",
				Help: "Total number of messages inserted by sync",
			},
		),

		MessagesDuplicate: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "nordmail_messages_duplicate_total",
				Help: "Total number of provider messages skipped as duplicates",
			},
		),

		ProviderRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nordmail_provider_requests_total",
				Help: "Total number of provider API requests",
			},
			[]string{"operation", "result"},
		),

		ProviderRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nordmail_provider_request_duration_seconds",
				Help:    "Provider API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nordmail_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "nordmail_panics_total",
				Help: "Total number of panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAccountCreated 记录账户创建
func (m *Metrics) RecordAccountCreated() {
	m.AccountsCreated.Inc()
}

// RecordEmailAddressCreated 记录邮箱地址创建
func (m *Metrics) RecordEmailAddressCreated() {
	m.EmailAddressesCreated.Inc()
}

// RecordSync 记录一次同步
func (m *Metrics) RecordSync(result string, duration time.Duration, inserted, duplicates int) {
	m.SyncRuns.WithLabelValues(result).Inc()
	m.SyncDuration.Observe(duration.Seconds())
	m.MessagesInserted.Add(float64(inserted))
	m.MessagesDuplicate.Add(float64(duplicates))
}

// RecordProviderRequest 记录供应商 API 请求
func (m *Metrics) RecordProviderRequest(operation, result string, duration time.Duration) {
	m.ProviderRequests.WithLabelValues(operation, result).Inc()
	m.ProviderRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
