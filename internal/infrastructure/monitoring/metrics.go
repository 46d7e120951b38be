package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for one control-plane instance.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Kernel metrics
	KernelOps         *prometheus.CounterVec
	KernelOpDuration  *prometheus.HistogramVec
	ThreadsActive     prometheus.Gauge
	ThreadsCreated    prometheus.Counter
	IPCMessages       *prometheus.CounterVec
	KernelInitialized prometheus.Gauge
	KernelUptime      prometheus.Gauge

	// gRPC metrics
	GRPCCalls    *prometheus.CounterVec
	GRPCDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for the JSON metrics endpoint.
type Snapshot struct {
	TotalRequests  int64 `json:"total_requests"`
	TotalErrors    int64 `json:"total_errors"`
	KernelOps      int64 `json:"kernel_operations"`
	KernelFailures int64 `json:"kernel_failures"`
	ThreadsCreated int64 `json:"threads_created"`
	IPCMessages    int64 `json:"ipc_messages"`
}

// NewMetrics creates a collector backed by its own registry, so several
// instances can coexist in one process (tests, embedded use).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurora_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aurora_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		KernelOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurora_kernel_operations_total",
				Help: "Kernel operations by result code",
			},
			[]string{"operation", "code"},
		),
		KernelOpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aurora_kernel_operation_duration_seconds",
				Help:    "Kernel operation duration in seconds",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
			},
			[]string{"operation"},
		),
		ThreadsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aurora_kernel_threads_active",
				Help: "Number of thread records in the registry",
			},
		),
		ThreadsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "aurora_kernel_threads_created_total",
				Help: "Total number of thread records created",
			},
		),
		IPCMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurora_kernel_ipc_messages_total",
				Help: "IPC messages observed by direction",
			},
			[]string{"direction"},
		),
		KernelInitialized: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aurora_kernel_initialized",
				Help: "1 while the kernel is initialized",
			},
		),
		KernelUptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aurora_kernel_uptime_seconds",
				Help: "Seconds since the last successful kernel init",
			},
		),

		GRPCCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurora_grpc_calls_total",
				Help: "Total number of gRPC calls",
			},
			[]string{"method", "code"},
		),
		GRPCDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aurora_grpc_duration_seconds",
				Help:    "gRPC call duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "aurora_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aurora_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordKernelOp records the outcome of one kernel operation. code is the
// kernel code label ("ok", "not_initialized", ...).
func (m *Metrics) RecordKernelOp(operation, code string, duration time.Duration) {
	m.KernelOps.WithLabelValues(operation, code).Inc()
	m.KernelOpDuration.WithLabelValues(operation).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.KernelOps++
	if code != "ok" {
		m.snapshot.KernelFailures++
	}
	m.mu.Unlock()
}

// SetThreadsActive sets the registry size gauge
func (m *Metrics) SetThreadsActive(count int) {
	m.ThreadsActive.Set(float64(count))
}

// IncThreadsCreated increments the created threads counter
func (m *Metrics) IncThreadsCreated() {
	m.ThreadsCreated.Inc()
	m.mu.Lock()
	m.snapshot.ThreadsCreated++
	m.mu.Unlock()
}

// RecordIPCMessage records an observed IPC message ("send" or "receive")
func (m *Metrics) RecordIPCMessage(direction string) {
	m.IPCMessages.WithLabelValues(direction).Inc()
	m.mu.Lock()
	m.snapshot.IPCMessages++
	m.mu.Unlock()
}

// SetKernelInitialized flips the lifecycle gauge
func (m *Metrics) SetKernelInitialized(initialized bool) {
	if initialized {
		m.KernelInitialized.Set(1)
		return
	}
	m.KernelInitialized.Set(0)
	m.KernelUptime.Set(0)
}

// SetKernelUptime records the sampled kernel uptime
func (m *Metrics) SetKernelUptime(uptime time.Duration) {
	m.KernelUptime.Set(uptime.Seconds())
}

// RecordGRPCCall records a gRPC call
func (m *Metrics) RecordGRPCCall(method, code string, duration time.Duration) {
	m.GRPCCalls.WithLabelValues(method, code).Inc()
	m.GRPCDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns a copy of the running totals.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}
