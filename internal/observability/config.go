package observability

import (
	"strings"

	"github.com/smallbiznis/weighbill/internal/config"
)

const defaultServiceName = "weighbill"

// Config is the observability view of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string
	Facility    string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	ratio := cfg.Telemetry.SamplingRatio
	if ratio < 0 || ratio > 1 {
		ratio = 0.1
	}

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		Facility:             strings.TrimSpace(cfg.Facility.Name),
		LogLevel:             strings.TrimSpace(cfg.Telemetry.LogLevel),
		LogFormat:            strings.TrimSpace(cfg.Telemetry.LogFormat),
		OtelEnabled:          cfg.Telemetry.OTLPEnabled && strings.TrimSpace(cfg.Telemetry.OTLPEndpoint) != "",
		OtelExporterEndpoint: strings.TrimSpace(cfg.Telemetry.OTLPEndpoint),
		OtelExporterProtocol: strings.TrimSpace(cfg.Telemetry.OTLPProtocol),
		OtelSamplingRatio:    ratio,
	}
}

// Debug turns on verbose request logging and stack traces.
func (c Config) Debug() bool {
	if strings.EqualFold(c.LogLevel, "debug") {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
