package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestGinMiddlewareNamesSpanByRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/bill/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/truck/:id", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bill/1790?format=pdf", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/truck/12-345-67", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	bill := spans[0]
	assert.Equal(t, "HTTP GET /bill/:id", bill.Name())
	assert.Contains(t, bill.Attributes(), attribute.String("provider_id", "1790"))
	assert.Contains(t, bill.Attributes(), attribute.String("bill.format", "pdf"))

	truck := spans[1]
	assert.Equal(t, codes.Error, truck.Status().Code)
	for _, attr := range truck.Attributes() {
		assert.NotEqual(t, attribute.Key("truck_id"), attr.Key)
		assert.NotEqual(t, attribute.Key("provider_id"), attr.Key)
	}
}
