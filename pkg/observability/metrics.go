package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	ServiceName string
}

// InitMetrics initializes the Prometheus metrics exporter.
// Returns the MeterProvider and an HTTP handler for the /metrics endpoint.
func InitMetrics(_ MetricsConfig) (*sdkmetric.MeterProvider, http.Handler, error) {
	exporter, err := promexporter.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	handler := promhttp.Handler()

	return provider, handler, nil
}

// EngineMetrics holds the counters the accounting engine reports.
type EngineMetrics struct {
	EntriesPosted      metric.Int64Counter
	EntriesReversed    metric.Int64Counter
	OutboxProcessed    metric.Int64Counter
	OutboxFailed       metric.Int64Counter
	OutboxDeadLettered metric.Int64Counter
	SagasCompleted     metric.Int64Counter
	SagasCompensated   metric.Int64Counter
	DiagnosticFailures metric.Int64Counter
}

// NewEngineMetrics registers the engine counters on the given meter.
func NewEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	m := &EngineMetrics{}
	var err error

	if m.EntriesPosted, err = meter.Int64Counter("ledger_entries_posted_total"); err != nil {
		return nil, err
	}
	if m.EntriesReversed, err = meter.Int64Counter("ledger_entries_reversed_total"); err != nil {
		return nil, err
	}
	if m.OutboxProcessed, err = meter.Int64Counter("outbox_events_processed_total"); err != nil {
		return nil, err
	}
	if m.OutboxFailed, err = meter.Int64Counter("outbox_events_failed_total"); err != nil {
		return nil, err
	}
	if m.OutboxDeadLettered, err = meter.Int64Counter("outbox_events_dead_lettered_total"); err != nil {
		return nil, err
	}
	if m.SagasCompleted, err = meter.Int64Counter("sagas_completed_total"); err != nil {
		return nil, err
	}
	if m.SagasCompensated, err = meter.Int64Counter("sagas_compensated_total"); err != nil {
		return nil, err
	}
	if m.DiagnosticFailures, err = meter.Int64Counter("diagnostic_failures_total"); err != nil {
		return nil, err
	}

	return m, nil
}
