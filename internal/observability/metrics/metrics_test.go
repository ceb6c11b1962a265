package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("provider_id", "123"),
		attribute.String("truck_id", "77-123-45"),
		attribute.String("reason", "upstream_unavailable"),
	)
	require.Len(t, attrs, 2)
	assert.Equal(t, attribute.Key("provider_id"), attrs[0].Key)
	assert.Equal(t, attribute.Key("reason"), attrs[1].Key)
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordBillBuilt(ctx, "1", "ok")
		m.RecordWeighingDrops(ctx, "session", "upstream_unavailable", 2)
		m.RecordUnpricedProduct(ctx, "1")
		m.RecordRateLimitAllowed(ctx, "1", "/bill/:id")
		m.RecordRateLimitDenied(ctx, "1", "/bill/:id", "exhausted")
	})
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "weighbill-test"}, noop.NewMeterProvider())
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.RecordBillBuilt(context.Background(), "1", "ok")
	})
}
