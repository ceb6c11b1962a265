package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/weighbill/internal/config"
	obsmetrics "github.com/smallbiznis/weighbill/internal/observability/metrics"
	"github.com/smallbiznis/weighbill/internal/observability/tracing"
	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultMaxBodyBytes = 8 << 20

type Params struct {
	fx.In

	Cfg      config.Config
	Pipeline *config.PipelineConfigHolder
	Log      *zap.Logger
	Metrics  *obsmetrics.PipelineMetrics `optional:"true"`
}

// HTTPClient is the weighing service client. Every call is bounded by the
// pipeline timeout on top of the caller's context.
type HTTPClient struct {
	baseURL      string
	httpClient   *http.Client
	loc          *time.Location
	pipeline     *config.PipelineConfigHolder
	maxBodyBytes int64
	log          *zap.Logger
	metrics      *obsmetrics.PipelineMetrics
}

func New(p Params) weighingdomain.Client {
	return NewHTTPClient(p.Cfg.Weighing.BaseURL, p.Cfg.Location(), p.Pipeline, p.Cfg.Weighing.MaxBodyBytes, p.Log, p.Metrics)
}

func NewHTTPClient(baseURL string, loc *time.Location, pipeline *config.PipelineConfigHolder, maxBodyBytes int64, log *zap.Logger, metrics *obsmetrics.PipelineMetrics) *HTTPClient {
	if loc == nil {
		loc = time.UTC
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		loc:          loc,
		pipeline:     pipeline,
		maxBodyBytes: maxBodyBytes,
		log:          log.Named("weighing.client"),
		metrics:      metrics,
	}
}

func (c *HTTPClient) ListTransactions(ctx context.Context, from, to time.Time, direction string) ([]weighingdomain.Transaction, error) {
	query := c.window(from, to)
	if direction != "" {
		query.Set("filter", direction)
	}

	var payload []transactionPayload
	if err := c.get(ctx, "weight", "/weight", query, &payload); err != nil {
		return nil, err
	}

	out := make([]weighingdomain.Transaction, 0, len(payload))
	for _, p := range payload {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: transaction without id", weighingdomain.ErrMalformedPayload)
		}
		out = append(out, weighingdomain.Transaction{
			ID:         string(p.ID),
			Direction:  p.Direction,
			Produce:    strings.TrimSpace(p.Produce),
			Bruto:      p.Bruto.Value,
			Containers: []string(p.Containers),
		})
	}
	return out, nil
}

func (c *HTTPClient) GetItem(ctx context.Context, id string, from, to time.Time) (*weighingdomain.Item, error) {
	var payload itemPayload
	if err := c.get(ctx, "item", "/item/"+url.PathEscape(id), c.window(from, to), &payload); err != nil {
		return nil, err
	}
	itemID := string(payload.ID)
	if itemID == "" {
		itemID = id
	}
	return &weighingdomain.Item{
		ID:       itemID,
		Tara:     payload.Tara.Value,
		Sessions: []string(payload.Sessions),
	}, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, id string) (*weighingdomain.Session, error) {
	var payload sessionPayload
	if err := c.get(ctx, "session", "/session/"+url.PathEscape(id), nil, &payload); err != nil {
		return nil, err
	}
	sessionID := string(payload.ID)
	if sessionID == "" {
		sessionID = id
	}
	return &weighingdomain.Session{
		ID:        sessionID,
		TruckID:   string(payload.Truck),
		Bruto:     payload.Bruto.Value,
		Neto:      payload.Neto.Value,
		TruckTara: payload.TruckTara.Value,
	}, nil
}

func (c *HTTPClient) window(from, to time.Time) url.Values {
	q := url.Values{}
	q.Set("from", from.In(c.loc).Format(weighingdomain.TimeLayout))
	q.Set("to", to.In(c.loc).Format(weighingdomain.TimeLayout))
	return q
}

func (c *HTTPClient) get(parent context.Context, endpoint, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(parent, c.pipeline.Get().Weighing.Timeout)
	defer cancel()

	start := time.Now()
	defer func() { c.metrics.ObserveLookup(endpoint, time.Since(start)) }()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	tracing.InjectContext(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if parentErr := parent.Err(); parentErr != nil {
			return parentErr
		}
		return fmt.Errorf("%w: GET %s: %v", weighingdomain.ErrUpstreamUnavailable, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: GET %s", weighingdomain.ErrUpstreamDataMissing, path)
	case resp.StatusCode >= http.StatusInternalServerError:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: GET %s returned %d", weighingdomain.ErrUpstreamUnavailable, path, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: GET %s returned %d", weighingdomain.ErrMalformedPayload, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", weighingdomain.ErrUpstreamUnavailable, path, err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return fmt.Errorf("%w: %s body exceeds %d bytes", weighingdomain.ErrMalformedPayload, path, c.maxBodyBytes)
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.log.Debug("undecodable weighing payload", zap.String("endpoint", endpoint), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", weighingdomain.ErrMalformedPayload, path, err)
	}
	return nil
}
