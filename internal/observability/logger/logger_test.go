package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/weighbill/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(fxtest.NewLifecycle(t), Config{Level: "chatty"})
	require.Error(t, err)
}

func TestNewTagsFacility(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	log, err := New(lc, Config{Level: "warn", Facility: "north-gate"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	fields := baseFields(Config{Facility: "north-gate"})
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"service", "env", "version", "facility"}, keys)
	lc.RequireStart().RequireStop()
}

func TestWithContextAddsCorrelationFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithContext(context.Background(), base).Info("bare")
	ctx := obscontext.WithProviderID(context.Background(), "1790")
	WithContext(ctx, base).Info("scoped")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].Context)
	assert.Equal(t, "1790", entries[1].ContextMap()["provider_id"])
}
