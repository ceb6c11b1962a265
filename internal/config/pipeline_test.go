package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fullBillingYML = `correlation:
  key: container
  ambiguity: exclude
weighing:
  concurrency: 4
  timeout: 2s
`

func writeBillingYML(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billing.yml"), []byte(body), 0o644))
}

// rewrite mimics the watcher: viper re-reads the file, then the holder reloads.
func rewrite(t *testing.T, h *PipelineConfigHolder, dir, body string) error {
	t.Helper()
	writeBillingYML(t, dir, body)
	require.NoError(t, h.v.ReadInConfig())
	return h.reload()
}

func TestValidatePipelineConfig(t *testing.T) {
	require.NoError(t, ValidatePipelineConfig(DefaultPipelineConfig()))

	cases := []struct {
		name   string
		mutate func(*PipelineConfig)
	}{
		{"unknown key", func(c *PipelineConfig) { c.Correlation.Key = "truck" }},
		{"unknown ambiguity", func(c *PipelineConfig) { c.Correlation.Ambiguity = "merge" }},
		{"zero concurrency", func(c *PipelineConfig) { c.Weighing.Concurrency = 0 }},
		{"zero timeout", func(c *PipelineConfig) { c.Weighing.Timeout = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultPipelineConfig()
			tc.mutate(&cfg)
			assert.Error(t, ValidatePipelineConfig(cfg))
		})
	}
}

func TestPipelineConfigHolder_NilReturnsDefaults(t *testing.T) {
	var holder *PipelineConfigHolder
	cfg := holder.Get()
	assert.Equal(t, CorrelationKeyContainerBruto, cfg.Correlation.Key)
	assert.Equal(t, 5*time.Second, cfg.Weighing.Timeout)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("WEIGHING_BASE_URL", "http://weight:5000/")

	cfg := Load()
	assert.Equal(t, "mysql", cfg.DBType)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "http://weight:5000", cfg.Weighing.BaseURL)
}

func TestLocation_FallsBackToUTC(t *testing.T) {
	cfg := Config{Facility: FacilityConfig{Timezone: "Nowhere/Land"}}
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadPipelineConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeBillingYML(t, dir, fullBillingYML)

	h, err := loadPipelineConfig(zap.NewNop(), dir)
	require.NoError(t, err)

	cfg := h.Get()
	assert.Equal(t, CorrelationKeyContainer, cfg.Correlation.Key)
	assert.Equal(t, AmbiguityExclude, cfg.Correlation.Ambiguity)
	assert.Equal(t, 4, cfg.Weighing.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Weighing.Timeout)
	assert.Equal(t, "in", cfg.Weighing.Direction)
}

func TestLoadPipelineConfig_NoFileUsesDefaults(t *testing.T) {
	h, err := loadPipelineConfig(zap.NewNop(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultPipelineConfig(), h.Get())
	assert.Nil(t, h.v)
	h.watch()
}

func TestLoadPipelineConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeBillingYML(t, dir, fullBillingYML)
	t.Setenv("WEIGHBILL_CORRELATION_AMBIGUITY", "keep")

	h, err := loadPipelineConfig(zap.NewNop(), dir)
	require.NoError(t, err)
	assert.Equal(t, AmbiguityKeep, h.Get().Correlation.Ambiguity)
}

func TestLoadPipelineConfig_InvalidFileFails(t *testing.T) {
	dir := t.TempDir()
	writeBillingYML(t, dir, "correlation:\n  key: truck\n")

	_, err := loadPipelineConfig(zap.NewNop(), dir)
	assert.Error(t, err)
}

func TestPipelineConfigHolder_Reload(t *testing.T) {
	dir := t.TempDir()
	writeBillingYML(t, dir, fullBillingYML)
	h, err := loadPipelineConfig(zap.NewNop(), dir)
	require.NoError(t, err)

	edited := `correlation:
  key: container_bruto
  ambiguity: keep
weighing:
  concurrency: 16
  timeout: 3s
`
	require.NoError(t, rewrite(t, h, dir, edited))
	cfg := h.Get()
	assert.Equal(t, CorrelationKeyContainerBruto, cfg.Correlation.Key)
	assert.Equal(t, AmbiguityKeep, cfg.Correlation.Ambiguity)
	assert.Equal(t, 16, cfg.Weighing.Concurrency)

	cases := []struct {
		name string
		body string
	}{
		{"unsupported value", "correlation:\n  key: truck\n  ambiguity: keep\nweighing:\n  concurrency: 16\n  timeout: 3s\n"},
		{"truncated to empty", ""},
		{"half written", "correlation:\n  key: container\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, rewrite(t, h, dir, tc.body))
			assert.Equal(t, cfg, h.Get())
		})
	}

	// Once the write completes the new values apply.
	require.NoError(t, rewrite(t, h, dir, fullBillingYML))
	assert.Equal(t, CorrelationKeyContainer, h.Get().Correlation.Key)
}
