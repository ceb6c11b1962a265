package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	CorrelationKeyContainerBruto = "container_bruto"
	CorrelationKeyContainer      = "container"

	AmbiguityKeep    = "keep"
	AmbiguityExclude = "exclude"
)

// PipelineConfig tunes the bill reconciliation pipeline. It is reloaded
// from billing.yml without a restart.
type PipelineConfig struct {
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Weighing    WeighingPipeline  `mapstructure:"weighing"`
}

type CorrelationConfig struct {
	Key       string `mapstructure:"key"`
	Ambiguity string `mapstructure:"ambiguity"`
}

type WeighingPipeline struct {
	Direction   string        `mapstructure:"direction"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Correlation: CorrelationConfig{
			Key:       CorrelationKeyContainerBruto,
			Ambiguity: AmbiguityKeep,
		},
		Weighing: WeighingPipeline{
			Direction:   "in",
			Concurrency: 8,
			Timeout:     5 * time.Second,
		},
	}
}

// pipelineKeys are the settings billing.yml may carry.
var pipelineKeys = []string{
	"correlation.key",
	"correlation.ambiguity",
	"weighing.direction",
	"weighing.concurrency",
	"weighing.timeout",
}

type PipelineConfigHolder struct {
	current atomic.Value // holds PipelineConfig

	v        *viper.Viper
	log      *zap.Logger
	fileKeys []string
}

// NewStaticPipelineConfigHolder returns a holder that never reloads.
func NewStaticPipelineConfigHolder(cfg PipelineConfig) *PipelineConfigHolder {
	holder := &PipelineConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewPipelineConfigHolder(log *zap.Logger) (*PipelineConfigHolder, error) {
	holder, err := loadPipelineConfig(log, "/etc/weighbill", ".")
	if err != nil {
		return nil, err
	}
	holder.watch()
	return holder, nil
}

func loadPipelineConfig(log *zap.Logger, paths ...string) (*PipelineConfigHolder, error) {
	v := viper.New()
	v.SetConfigName("billing")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("WEIGHBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPipelineConfig()
	v.SetDefault("correlation.key", defaults.Correlation.Key)
	v.SetDefault("correlation.ambiguity", defaults.Correlation.Ambiguity)
	v.SetDefault("weighing.direction", defaults.Weighing.Direction)
	v.SetDefault("weighing.concurrency", defaults.Weighing.Concurrency)
	v.SetDefault("weighing.timeout", defaults.Weighing.Timeout)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	cfg, err := decodePipelineConfig(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticPipelineConfigHolder(cfg)
	if fileFound {
		holder.v = v
		holder.log = log.Named("pipeline.config")
		holder.fileKeys = keysInFile(v)
	}
	return holder, nil
}

func (h *PipelineConfigHolder) watch() {
	if h.v == nil {
		return
	}
	h.v.OnConfigChange(func(e fsnotify.Event) {
		if err := h.reload(); err != nil {
			h.log.Warn("config change ignored, keeping previous", zap.String("file", e.Name), zap.Error(err))
			return
		}
		h.log.Info("reloaded", zap.String("file", e.Name))
	})
	h.v.WatchConfig()
}

// reload applies what viper last read from billing.yml. Editors that
// truncate before writing fire an event on an empty file, so a read that
// drops keys the previous file set is treated as incomplete.
func (h *PipelineConfigHolder) reload() error {
	present := keysInFile(h.v)
	if len(present) == 0 {
		return errors.New("config file is empty")
	}
	if missing := missingKeys(h.fileKeys, present); len(missing) > 0 {
		return fmt.Errorf("config file lost keys %s", strings.Join(missing, ", "))
	}
	cfg, err := decodePipelineConfig(h.v)
	if err != nil {
		return err
	}
	h.current.Store(cfg)
	h.fileKeys = present
	return nil
}

func decodePipelineConfig(v *viper.Viper) (PipelineConfig, error) {
	var cfg PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return PipelineConfig{}, err
	}
	if err := ValidatePipelineConfig(cfg); err != nil {
		return PipelineConfig{}, err
	}
	return cfg, nil
}

func keysInFile(v *viper.Viper) []string {
	var keys []string
	for _, k := range pipelineKeys {
		if v.InConfig(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func missingKeys(want, have []string) []string {
	var missing []string
	for _, k := range want {
		if !slices.Contains(have, k) {
			missing = append(missing, k)
		}
	}
	return missing
}

func (h *PipelineConfigHolder) Get() PipelineConfig {
	if h == nil {
		return DefaultPipelineConfig()
	}
	return h.current.Load().(PipelineConfig)
}

func ValidatePipelineConfig(cfg PipelineConfig) error {
	switch cfg.Correlation.Key {
	case CorrelationKeyContainerBruto, CorrelationKeyContainer:
	default:
		return fmt.Errorf("correlation.key %q is not supported", cfg.Correlation.Key)
	}
	switch cfg.Correlation.Ambiguity {
	case AmbiguityKeep, AmbiguityExclude:
	default:
		return fmt.Errorf("correlation.ambiguity %q is not supported", cfg.Correlation.Ambiguity)
	}
	if cfg.Weighing.Concurrency <= 0 {
		return errors.New("weighing.concurrency must be positive")
	}
	if cfg.Weighing.Timeout <= 0 {
		return errors.New("weighing.timeout must be positive")
	}
	return nil
}
