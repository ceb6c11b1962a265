package tracing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsReferenceData(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("provider_id", "10"),
		attribute.String("provider_name", "Green Fields"),
		attribute.String("truck_id", "12-345-67"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("provider_id"), attrs[0].Key)
}

func TestSafeErrorKeepsOuterMessage(t *testing.T) {
	err := fmt.Errorf("upstream_unavailable: %w", errors.New("GET http://weight/session/7: dial tcp"))
	assert.EqualError(t, SafeError(err), "upstream_unavailable")
	assert.Nil(t, SafeError(nil))
}
