// Copyright 2025 Certen Protocol

// Package telemetry implements FROST's metrics/telemetry surface (C8):
// connection, message, latency, and error counters/gauges/histograms,
// backed by
// github.com/prometheus/client_golang the way the wider example corpus
// wires Prometheus (e.g. system_health_logging.go's HealthLogger).
// Grounded on original_source/src/network/telemetry.rs and
// original_source/src/metrics/chain_metrics.rs.
package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/frost-protocol/frost/pkg/frosttypes"
)

// ConnectionStatus mirrors original_source/src/network/telemetry.rs's
// ConnectionStatus enum for the Connection event variant.
type ConnectionStatus string

const (
	ConnectionEstablished ConnectionStatus = "established"
	ConnectionTerminated  ConnectionStatus = "terminated"
	ConnectionFailed      ConnectionStatus = "failed"
)

// MessageDirection mirrors the original's MessageDirection.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// Recorder is FROST's metrics sink; main.go constructs one and serves its
// registry, and no other package in the module records into it. It is
// the Go counterpart to original_source/src/network/telemetry.rs's
// TelemetryManager trait, minus the OpenTelemetry tracing spans (no
// tracing SDK is wired in this corpus; Prometheus covers the metrics
// half of that trait).
type Recorder struct {
	registry *prometheus.Registry

	connectionsTotal   *prometheus.CounterVec
	connectionsActive  prometheus.Gauge
	connectionFailures prometheus.Counter

	messagesTotal *prometheus.CounterVec
	bytesTotal    *prometheus.CounterVec
	messageErrors prometheus.Counter

	latency *prometheus.HistogramVec

	errorsByKind *prometheus.CounterVec

	circuitState  *prometheus.GaugeVec
	routeFailures prometheus.Counter
	proofCacheHitRatio prometheus.Gauge

	mu          sync.Mutex
	latencySamples map[string][]time.Duration
}

// NewRecorder registers every metric against a fresh registry, as the
// corpus's health loggers do (see system_health_logging.go).
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()

	r := &Recorder{
		registry: reg,
		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frost_connections_total",
			Help: "Connections established, by outcome.",
		}, []string{"status"}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "frost_connections_active",
			Help: "Currently active peer connections.",
		}),
		connectionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frost_connection_failures_total",
			Help: "Connection attempts that failed.",
		}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frost_messages_total",
			Help: "Messages processed, by direction.",
		}, []string{"direction"}),
		bytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frost_bytes_total",
			Help: "Bytes transferred, by direction.",
		}, []string{"direction"}),
		messageErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frost_message_errors_total",
			Help: "Messages that failed validation or handling.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frost_operation_latency_seconds",
			Help:    "Latency of network and pipeline operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		errorsByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frost_errors_total",
			Help: "Errors observed, by kind.",
		}, []string{"kind"}),
		circuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "frost_circuit_breaker_state",
			Help: "Circuit breaker state per chain (0=closed, 1=half_open, 2=open).",
		}, []string{"chain"}),
		routeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frost_route_failures_total",
			Help: "Route selections that found no available hop.",
		}),
		proofCacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "frost_proof_cache_hit_ratio",
			Help: "Rolling proof cache hit ratio.",
		}),
		latencySamples: make(map[string][]time.Duration),
	}

	reg.MustRegister(
		r.connectionsTotal, r.connectionsActive, r.connectionFailures,
		r.messagesTotal, r.bytesTotal, r.messageErrors,
		r.latency, r.errorsByKind, r.circuitState, r.routeFailures,
		r.proofCacheHitRatio,
	)
	return r
}

// Registry exposes the underlying Prometheus registry for a scrape
// handler (e.g. promhttp.HandlerFor) to wire in main.go.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordConnection records a connection lifecycle transition, per
// original_source/src/network/telemetry.rs's Connection event.
func (r *Recorder) RecordConnection(status ConnectionStatus) {
	r.connectionsTotal.WithLabelValues(string(status)).Inc()
	switch status {
	case ConnectionEstablished:
		r.connectionsActive.Inc()
	case ConnectionTerminated:
		r.connectionsActive.Dec()
	case ConnectionFailed:
		r.connectionFailures.Inc()
	}
}

// RecordMessage records message throughput, per the original's Message
// event.
func (r *Recorder) RecordMessage(direction MessageDirection, size int) {
	r.messagesTotal.WithLabelValues(string(direction)).Inc()
	r.bytesTotal.WithLabelValues(string(direction)).Add(float64(size))
}

// RecordMessageError increments the message-error counter.
func (r *Recorder) RecordMessageError() {
	r.messageErrors.Inc()
}

// RecordError records an error by kind, per the original's Error event.
func (r *Recorder) RecordError(kind string) {
	r.errorsByKind.WithLabelValues(kind).Inc()
}

// RecordLatency observes an operation's duration and retains a bounded
// rolling sample for percentile queries, per the original's
// LatencyMetrics.latency_percentiles.
func (r *Recorder) RecordLatency(operation string, d time.Duration) {
	r.latency.WithLabelValues(operation).Observe(d.Seconds())

	r.mu.Lock()
	defer r.mu.Unlock()
	samples := append(r.latencySamples[operation], d)
	if len(samples) > 1000 {
		samples = samples[len(samples)-1000:]
	}
	r.latencySamples[operation] = samples
}

// Percentile returns the p-th percentile (0-100) latency observed for
// operation, or 0 if no samples exist.
func (r *Recorder) Percentile(operation string, p float64) time.Duration {
	r.mu.Lock()
	samples := append([]time.Duration(nil), r.latencySamples[operation]...)
	r.mu.Unlock()
	if len(samples) == 0 {
		return 0
	}
	sortDurations(samples)
	idx := int(p / 100 * float64(len(samples)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(samples) {
		idx = len(samples) - 1
	}
	return samples[idx]
}

func sortDurations(d []time.Duration) {
	for i := 1; i < len(d); i++ {
		for j := i; j > 0 && d[j-1] > d[j]; j-- {
			d[j-1], d[j] = d[j], d[j-1]
		}
	}
}

// RecordCircuitState mirrors a chain's circuit breaker state onto a
// gauge, for dashboards built over pkg/resilience.
func (r *Recorder) RecordCircuitState(chain frosttypes.ChainID, stateValue float64) {
	r.circuitState.WithLabelValues(string(chain)).Set(stateValue)
}

// RecordRouteFailure increments the no-route counter, per spec §8
// boundary scenario 6.
func (r *Recorder) RecordRouteFailure() {
	r.routeFailures.Inc()
}

// RecordProofCacheHitRatio mirrors pkg/stateproof's cache hit ratio.
func (r *Recorder) RecordProofCacheHitRatio(ratio float64) {
	r.proofCacheHitRatio.Set(ratio)
}
