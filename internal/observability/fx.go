// Package observability wires logging, tracing and metrics.
package observability

import (
	"github.com/weperezh01/isp-core/internal/config"
	"github.com/weperezh01/isp-core/internal/observability/logger"
	"github.com/weperezh01/isp-core/internal/observability/metrics"
	"github.com/weperezh01/isp-core/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
)

var Module = fx.Options(
	logger.Module,
	fx.Provide(newTracingConfig),
	fx.Provide(tracing.NewProvider),
	fx.Provide(newMetricsConfig),
	fx.Provide(func() metric.MeterProvider { return otel.GetMeterProvider() }),
	fx.Provide(metrics.NewHTTPMetrics),
	fx.Provide(func(cfg metrics.Config) *metrics.SyncMetrics {
		return metrics.SyncWithConfig(cfg)
	}),
)

func newTracingConfig(cfg config.Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.Tracing.Enabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.ServiceVersion,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
		ExporterProtocol: cfg.Tracing.ExporterProtocol,
		SamplingRatio:    cfg.Tracing.SamplingRatio,
	}
}

func newMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	}
}
