package observability

import (
	"github.com/smallbiznis/weighbill/internal/observability/logger"
	"github.com/smallbiznis/weighbill/internal/observability/metrics"
	"github.com/smallbiznis/weighbill/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.loggerConfig,
		logger.New,
		Config.tracingConfig,
		tracing.NewProvider,
		Config.metricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		metrics.Pipeline,
	),
	fx.Invoke(startPipelineTelemetry),
)

func (c Config) loggerConfig() logger.Config {
	return logger.Config{
		ServiceName:         c.ServiceName,
		Environment:         c.Environment,
		Version:             c.Version,
		Facility:            c.Facility,
		Level:               c.LogLevel,
		Format:              c.LogFormat,
		IncludeCaller:       true,
		IncludeStackOnError: c.Debug(),
	}
}

func (c Config) tracingConfig() tracing.Config {
	return tracing.Config{
		Enabled:          c.OtelEnabled,
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		Facility:         c.Facility,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		SamplingRatio:    c.OtelSamplingRatio,
	}
}

// metricsConfig feeds both the OTLP meter and the prometheus pipeline
// collectors, so bills from different weighing sites stay apart on a shared
// scrape target.
func (c Config) metricsConfig() metrics.Config {
	return metrics.Config{
		Enabled:          c.OtelEnabled,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		ServiceName:      c.ServiceName,
		Environment:      c.Environment,
		Facility:         c.Facility,
	}
}

// startPipelineTelemetry builds the tracer provider and registers the
// pipeline collectors at startup instead of on the first bill.
func startPipelineTelemetry(cfg Config, _ *sdktrace.TracerProvider, _ *metrics.PipelineMetrics, log *zap.Logger) {
	log.Named("observability").Info("pipeline telemetry ready",
		zap.String("facility", cfg.Facility),
		zap.Bool("otlp_export", cfg.OtelEnabled),
		zap.Float64("sampling_ratio", cfg.OtelSamplingRatio),
	)
}
