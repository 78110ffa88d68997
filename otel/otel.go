package otel

import (
	"context"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelapi "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"github.com/dispatch-gateway/dispatch-gateway/config"
)

// Telemetry records gateway dispatch metrics and exposes them for scraping.
type Telemetry interface {
	Init(cfg config.Config) error
	RecordDispatch(ctx context.Context, agentID string, outcome string, durationMs float64)
	Handler() http.Handler
}

type TelemetryImpl struct {
	meterProvider *sdkmetric.MeterProvider
	registry      *prom.Registry

	dispatchCounter   metric.Int64Counter
	dispatchHistogram metric.Float64Histogram
}

// Init wires the OpenTelemetry meter provider to a Prometheus registry and
// creates the dispatch instruments.
func (t *TelemetryImpl) Init(cfg config.Config) error {
	t.registry = prom.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(t.registry))
	if err != nil {
		return err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ApplicationName),
		)),
	)
	otelapi.SetMeterProvider(mp)
	t.meterProvider = mp

	meter := mp.Meter("dispatch-gateway")

	t.dispatchCounter, err = meter.Int64Counter(
		"gateway.dispatch.count",
		metric.WithDescription("Number of task dispatches"),
	)
	if err != nil {
		return err
	}

	t.dispatchHistogram, err = meter.Float64Histogram(
		"gateway.dispatch.duration",
		metric.WithDescription("Task dispatch duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// RecordDispatch records one task dispatch with its outcome and duration.
func (t *TelemetryImpl) RecordDispatch(ctx context.Context, agentID string, outcome string, durationMs float64) {
	if t.dispatchCounter == nil || t.dispatchHistogram == nil {
		return // Not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String("agent_id", agentID),
		attribute.String("outcome", outcome),
	}

	t.dispatchCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	t.dispatchHistogram.Record(ctx, durationMs, metric.WithAttributes(attrs...))
}

// Handler returns the scrape endpoint for the telemetry registry.
func (t *TelemetryImpl) Handler() http.Handler {
	if t.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}
