package observability

import (
	"testing"

	"github.com/smallbiznis/weighbill/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.Config{
		AppVersion:  "1.2.0",
		Environment: "production",
		Facility:    config.FacilityConfig{Name: "north-gate"},
		Telemetry: config.TelemetryConfig{
			LogLevel:      "info",
			OTLPEnabled:   true,
			OTLPEndpoint:  "",
			SamplingRatio: 3,
		},
	})

	assert.Equal(t, defaultServiceName, cfg.ServiceName)
	assert.Equal(t, "north-gate", cfg.Facility)
	assert.False(t, cfg.OtelEnabled)
	assert.Equal(t, 0.1, cfg.OtelSamplingRatio)
	assert.False(t, cfg.Debug())
}

func TestConfigDebug(t *testing.T) {
	assert.True(t, Config{LogLevel: "DEBUG", Environment: "production"}.Debug())
	assert.True(t, Config{LogLevel: "info", Environment: "local"}.Debug())
	assert.False(t, Config{LogLevel: "warn", Environment: "staging"}.Debug())
}

func TestConfigCarriesFacilityToEveryProvider(t *testing.T) {
	cfg := Config{
		ServiceName:          "weighbill",
		Environment:          "staging",
		Version:              "1.2.0",
		Facility:             "north-gate",
		LogLevel:             "warn",
		OtelEnabled:          true,
		OtelExporterEndpoint: "otel:4317",
		OtelSamplingRatio:    0.5,
	}

	logCfg := cfg.loggerConfig()
	assert.Equal(t, "north-gate", logCfg.Facility)
	assert.True(t, logCfg.IncludeCaller)
	assert.False(t, logCfg.IncludeStackOnError)

	traceCfg := cfg.tracingConfig()
	assert.Equal(t, "north-gate", traceCfg.Facility)
	assert.Equal(t, "1.2.0", traceCfg.ServiceVersion)
	assert.Equal(t, 0.5, traceCfg.SamplingRatio)

	metricsCfg := cfg.metricsConfig()
	assert.Equal(t, "north-gate", metricsCfg.Facility)
	assert.True(t, metricsCfg.Enabled)
	assert.Equal(t, "otel:4317", metricsCfg.ExporterEndpoint)
}

func TestLoggerConfigStacksInDebug(t *testing.T) {
	cfg := Config{LogLevel: "info", Environment: "local"}
	assert.True(t, cfg.loggerConfig().IncludeStackOnError)
}
