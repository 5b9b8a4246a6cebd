package telemetry

import (
	"context"

	"github.com/giobyte8/gallery-thumbnailer/internal/telemetry/metrics"
)

type TelemetryConfig struct {
	OtelEnabled           bool
	OtelCollectorEndpoint string
}

type TelemetrySvc struct {
	metrics metrics.MetricsSvc
}

func NewTelemetrySvc(
	ctx context.Context,
	config TelemetryConfig,
) (*TelemetrySvc, error) {
	var metricsSvc metrics.MetricsSvc
	var err error

	if config.OtelEnabled {
		metricsSvc, err = metrics.NewOtelMetricsSvc(
			ctx,
			config.OtelCollectorEndpoint,
		)
		if err != nil {
			return nil, err
		}
	} else {
		metricsSvc = metrics.NewNoopMetricsSvc()
	}

	return &TelemetrySvc{
		metrics: metricsSvc,
	}, nil
}

// NewTelemetrySvcWith wraps an already built metrics service.
func NewTelemetrySvcWith(metricsSvc metrics.MetricsSvc) *TelemetrySvc {
	return &TelemetrySvc{
		metrics: metricsSvc,
	}
}

func (t *TelemetrySvc) Metrics() metrics.MetricsSvc {
	return t.metrics
}

func (t *TelemetrySvc) Shutdown(ctx context.Context) error {
	return t.metrics.Shutdown(ctx)
}
