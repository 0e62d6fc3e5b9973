package telemetry

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the dialog engine's metric instruments. The
// orchestrator (C7) records TurnsTotal, IntentsTotal and TurnDuration on
// every turn; StageDuration, CartMutationsTotal and OrdersPersistedTotal
// are registered but nothing records into them.
type PipelineMetrics struct {
	TurnsTotal          metric.Int64Counter
	TurnDuration        metric.Float64Histogram
	IntentsTotal        metric.Int64Counter
	StageDuration       metric.Float64Histogram
	CartMutationsTotal  metric.Int64Counter
	OrdersPersistedTotal metric.Int64Counter
}

var (
	appMetrics *PipelineMetrics
	once       sync.Once
)

// InitPipelineMetrics initializes the global metric instruments exactly
// once, pulling the Meter from whatever MeterProvider telemetry.Init (or the
// global default) installed.
func InitPipelineMetrics() *PipelineMetrics {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("dialogbrain")
		m := &PipelineMetrics{}
		var err error

		m.TurnsTotal, err = meter.Int64Counter(
			"dialog_turns_total",
			metric.WithDescription("Total number of conversational turns processed"),
			metric.WithUnit("{turn}"),
		)
		if err != nil {
			log.Fatalf("telemetry: dialog_turns_total: %v", err)
		}

		m.TurnDuration, err = meter.Float64Histogram(
			"dialog_turn_duration_seconds",
			metric.WithDescription("End-to-end turn latency"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("telemetry: dialog_turn_duration_seconds: %v", err)
		}

		m.IntentsTotal, err = meter.Int64Counter(
			"dialog_intents_total",
			metric.WithDescription("Resolved intents by source tier"),
			metric.WithUnit("{intent}"),
		)
		if err != nil {
			log.Fatalf("telemetry: dialog_intents_total: %v", err)
		}

		m.StageDuration, err = meter.Float64Histogram(
			"dialog_pipeline_stage_duration_seconds",
			metric.WithDescription("Duration of one orchestrator stage"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("telemetry: dialog_pipeline_stage_duration_seconds: %v", err)
		}

		m.CartMutationsTotal, err = meter.Int64Counter(
			"dialog_cart_mutations_total",
			metric.WithDescription("Number of turns that mutated the cart"),
			metric.WithUnit("{turn}"),
		)
		if err != nil {
			log.Fatalf("telemetry: dialog_cart_mutations_total: %v", err)
		}

		m.OrdersPersistedTotal, err = meter.Int64Counter(
			"dialog_orders_persisted_total",
			metric.WithDescription("Orders written to the orders store, including idempotent skips"),
			metric.WithUnit("{order}"),
		)
		if err != nil {
			log.Fatalf("telemetry: dialog_orders_persisted_total: %v", err)
		}

		appMetrics = m
	})
	return appMetrics
}

// Metrics returns the global instance, initializing it with a no-op global
// meter provider if Init hasn't run (keeps unit tests simple).
func Metrics() *PipelineMetrics {
	if appMetrics == nil {
		return InitPipelineMetrics()
	}
	return appMetrics
}
