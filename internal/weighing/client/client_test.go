package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smallbiznis/weighbill/internal/config"
	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultPipelineConfig()
	cfg.Weighing.Timeout = 200 * time.Millisecond
	return NewHTTPClient(srv.URL, time.UTC, config.NewStaticPipelineConfigHolder(cfg), 0, zap.NewNop(), nil)
}

func window() (time.Time, time.Time) {
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	return from, from.Add(14 * 24 * time.Hour)
}

func TestListTransactions_DecodesMixedShapes(t *testing.T) {
	var gotQuery map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weight", r.URL.Path)
		gotQuery = map[string]string{
			"from":   r.URL.Query().Get("from"),
			"to":     r.URL.Query().Get("to"),
			"filter": r.URL.Query().Get("filter"),
		}
		_, _ = w.Write([]byte(`[
			{"id": 1, "direction": "in", "bruto": 10000, "neto": "na", "produce": "apples", "containers": ["C1", "C2"]},
			{"id": "2", "direction": "in", "bruto": "8000", "produce": " oranges ", "containers": "C3,C4"},
			{"id": 3, "direction": "in", "bruto": "na", "produce": "na", "containers": []}
		]`))
	}))

	from, to := window()
	txs, err := c.ListTransactions(context.Background(), from, to, "in")
	require.NoError(t, err)
	require.Len(t, txs, 3)

	assert.Equal(t, "20261001000000", gotQuery["from"])
	assert.Equal(t, "20261015000000", gotQuery["to"])
	assert.Equal(t, "in", gotQuery["filter"])

	assert.Equal(t, "1", txs[0].ID)
	assert.Equal(t, int64(10000), *txs[0].Bruto)
	assert.Equal(t, []string{"C1", "C2"}, txs[0].Containers)
	assert.Equal(t, "oranges", txs[1].Produce)
	assert.Equal(t, int64(8000), *txs[1].Bruto)
	assert.Equal(t, []string{"C3", "C4"}, txs[1].Containers)
	assert.Nil(t, txs[2].Bruto)
}

func TestListTransactions_MalformedPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 1, "bruto": {"kg": 5}}]`))
	}))

	from, to := window()
	_, err := c.ListTransactions(context.Background(), from, to, "in")
	assert.ErrorIs(t, err, weighingdomain.ErrMalformedPayload)
}

func TestGetItem(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/item/C1":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "C1", "tara": 200, "sessions": []any{7, "8"}})
		case "/item/T-9":
			_, _ = w.Write([]byte(`{"id": "T-9", "tara": "na", "sessions": []}`))
		default:
			http.NotFound(w, r)
		}
	}))

	from, to := window()
	item, err := c.GetItem(context.Background(), "C1", from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(200), *item.Tara)
	assert.Equal(t, []string{"7", "8"}, item.Sessions)

	truck, err := c.GetItem(context.Background(), "T-9", from, to)
	require.NoError(t, err)
	assert.Nil(t, truck.Tara)

	_, err = c.GetItem(context.Background(), "C404", from, to)
	assert.ErrorIs(t, err, weighingdomain.ErrUpstreamDataMissing)
}

func TestGetSession(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 7, "truck": "12-345-67", "bruto": 10000, "neto": null, "truckTara": "500"}`))
	}))

	s, err := c.GetSession(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "7", s.ID)
	assert.Equal(t, "12-345-67", s.TruckID)
	assert.Equal(t, int64(10000), *s.Bruto)
	assert.Nil(t, s.Neto)
	assert.Equal(t, int64(500), *s.TruckTara)
}

func TestUpstreamUnavailable(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		_, err := c.GetSession(context.Background(), "1")
		assert.ErrorIs(t, err, weighingdomain.ErrUpstreamUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer close(release)

		_, err := c.GetSession(context.Background(), "1")
		assert.ErrorIs(t, err, weighingdomain.ErrUpstreamUnavailable)
	})

	t.Run("parent cancelled", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.GetSession(ctx, "1")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestOptionalIntRejectsFractions(t *testing.T) {
	var v optionalInt
	assert.Error(t, json.Unmarshal([]byte(`"12.5"`), &v))
	require.NoError(t, json.Unmarshal([]byte(`12.0`), &v))
	assert.Equal(t, int64(12), *v.Value)
	require.NoError(t, json.Unmarshal([]byte(`""`), &v))
	assert.Nil(t, v.Value)
}
