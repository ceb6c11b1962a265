package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
	"github.com/smallbiznis/weighbill/internal/clock"
	"github.com/smallbiznis/weighbill/internal/config"
	"github.com/smallbiznis/weighbill/internal/events"
	obscontext "github.com/smallbiznis/weighbill/internal/observability/context"
	"github.com/smallbiznis/weighbill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/weighbill/internal/observability/metrics"
	"github.com/smallbiznis/weighbill/internal/observability/tracing"
	providerdomain "github.com/smallbiznis/weighbill/internal/provider/domain"
	ratedomain "github.com/smallbiznis/weighbill/internal/rate/domain"
	truckdomain "github.com/smallbiznis/weighbill/internal/truck/domain"
	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	outcomeOK               = "ok"
	outcomePartial          = "partial"
	outcomeInvalid          = "invalid"
	outcomeNoData           = "no_data"
	outcomeUnknownProvider  = "unknown_provider"
	outcomeProviderNotFound = "provider_not_found"
	outcomeNoBillable       = "no_billable"
	outcomeError            = "error"
)

type Params struct {
	fx.In

	Cfg             config.Config
	Pipeline        *config.PipelineConfigHolder
	Log             *zap.Logger
	Clock           clock.Clock
	GenID           *snowflake.Node
	Collector       weighingdomain.Collector
	TruckSvc        truckdomain.Service
	ProviderSvc     providerdomain.Service
	Rates           ratedomain.Resolver
	Publisher       events.Publisher            `optional:"true"`
	Metrics         *obsmetrics.Metrics         `optional:"true"`
	PipelineMetrics *obsmetrics.PipelineMetrics `optional:"true"`
}

type Service struct {
	loc             *time.Location
	pipeline        *config.PipelineConfigHolder
	log             *zap.Logger
	clock           clock.Clock
	genID           *snowflake.Node
	collector       weighingdomain.Collector
	truckSvc        truckdomain.Service
	providerSvc     providerdomain.Service
	rates           ratedomain.Resolver
	publisher       events.Publisher
	metrics         *obsmetrics.Metrics
	pipelineMetrics *obsmetrics.PipelineMetrics
}

func New(p Params) billingdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Service{
		loc:             p.Cfg.Location(),
		pipeline:        p.Pipeline,
		log:             p.Log.Named("billing.service"),
		clock:           clk,
		genID:           p.GenID,
		collector:       p.Collector,
		truckSvc:        p.TruckSvc,
		providerSvc:     p.ProviderSvc,
		rates:           p.Rates,
		publisher:       p.Publisher,
		metrics:         p.Metrics,
		pipelineMetrics: p.PipelineMetrics,
	}
}

// BuildBill runs collect, correlate, enrich, neto and aggregate for one
// provider and window.
func (s *Service) BuildBill(ctx context.Context, q billingdomain.BillQuery) (*billingdomain.Bill, error) {
	providerID, err := s.normalizeQuery(&q)
	if err != nil {
		s.recordOutcome(ctx, q.ProviderID, outcomeInvalid)
		return nil, err
	}

	ctx = obscontext.WithProviderID(ctx, q.ProviderID)
	ctx, span := tracing.StartSpan(ctx, "billing.build_bill",
		attribute.String("provider_id", q.ProviderID),
		attribute.String("bill.from", q.From.Format(weighingdomain.TimeLayout)),
		attribute.String("bill.to", q.To.Format(weighingdomain.TimeLayout)),
	)
	defer span.End()
	log := logger.WithContext(ctx, s.log)

	bill, err := s.build(ctx, q, providerID)
	if err != nil {
		outcome := failureOutcome(err)
		s.recordOutcome(ctx, q.ProviderID, outcome)
		span.RecordError(tracing.SafeError(err))
		if outcome == outcomeError {
			log.Error("bill build failed", zap.Error(err))
		} else {
			log.Info("bill not built", zap.String("outcome", outcome), zap.Error(err))
		}
		return nil, err
	}

	outcome := outcomeOK
	if bill.Diagnostics.Partial {
		outcome = outcomePartial
	}
	s.recordOutcome(ctx, q.ProviderID, outcome)
	span.SetAttributes(
		attribute.Int("bill.products", len(bill.Products)),
		attribute.Int("bill.sessions", bill.SessionCount),
		attribute.Bool("bill.partial", bill.Diagnostics.Partial),
	)
	log.Info("bill built",
		zap.Int("trucks", bill.TruckCount),
		zap.Int("sessions", bill.SessionCount),
		zap.Int64("total", bill.Total),
		zap.Bool("partial", bill.Diagnostics.Partial),
	)

	s.publish(ctx, bill)
	return bill, nil
}

func (s *Service) normalizeQuery(q *billingdomain.BillQuery) (snowflake.ID, error) {
	q.ProviderID = strings.TrimSpace(q.ProviderID)
	id, err := snowflake.ParseString(q.ProviderID)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: provider id %q", billingdomain.ErrInvalidQuery, q.ProviderID)
	}

	defFrom, defTo := billingdomain.DefaultWindow(s.clock.Now(), s.loc)
	if q.From.IsZero() {
		q.From = defFrom
	}
	if q.To.IsZero() {
		q.To = defTo
	}
	if q.From.After(q.To) {
		return 0, fmt.Errorf("%w: from is after to", billingdomain.ErrInvalidQuery)
	}
	return id, nil
}

func (s *Service) build(ctx context.Context, q billingdomain.BillQuery, providerID snowflake.ID) (*billingdomain.Bill, error) {
	cfg := s.pipeline.Get()

	// Registry check runs first so a bad id never costs a weighing fetch.
	provider, err := s.providerSvc.Lookup(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: %s", billingdomain.ErrUnknownProvider, q.ProviderID)
	}

	snap, err := s.collector.Collect(ctx, q.From, q.To)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	joined := correlate(snap, cfg.Correlation)
	s.pipelineMetrics.ObserveStage(obsmetrics.StageCorrelate, time.Since(start))
	s.pipelineMetrics.AddDropped(obsmetrics.StageCorrelate, "unmatched_container", joined.unmatchedContainers)
	s.pipelineMetrics.AddDropped(obsmetrics.StageCorrelate, "unmatched_session", joined.unmatchedSessions)
	s.pipelineMetrics.AddDropped(obsmetrics.StageCorrelate, "ambiguous", joined.ambiguousExcluded)

	start = time.Now()
	enriched, err := s.enrich(ctx, joined.facts)
	if err != nil {
		return nil, err
	}
	s.pipelineMetrics.ObserveStage(obsmetrics.StageEnrich, time.Since(start))
	s.pipelineMetrics.AddDropped(obsmetrics.StageEnrich, "unattributed", enriched.unattributed)

	var mine []billingdomain.JoinedFact
	for _, f := range enriched.facts {
		if f.ProviderID == q.ProviderID {
			mine = append(mine, f)
		}
	}
	if len(mine) == 0 {
		return nil, billingdomain.ErrProviderNotFound
	}

	start = time.Now()
	resolved, excluded := resolveNeto(mine)
	s.pipelineMetrics.ObserveStage(obsmetrics.StageNeto, time.Since(start))
	for _, e := range excluded {
		s.pipelineMetrics.AddDropped(obsmetrics.StageNeto, e.Reason, 1)
	}
	if len(resolved) == 0 {
		return nil, billingdomain.ErrNoBillableData
	}

	start = time.Now()
	agg, err := s.aggregate(ctx, q.ProviderID, resolved)
	if err != nil {
		return nil, err
	}
	s.pipelineMetrics.ObserveStage(obsmetrics.StageAggregate, time.Since(start))
	for range agg.unpriced {
		s.metrics.RecordUnpricedProduct(ctx, q.ProviderID)
	}

	name := resolved[0].ProviderName
	if name == "" {
		name = provider.Name
	}

	diag := billingdomain.Diagnostics{
		Drops:               nonNil(snap.Drops),
		UnmatchedContainers: joined.unmatchedContainers,
		UnmatchedSessions:   joined.unmatchedSessions,
		Ambiguities:         nonNil(joined.ambiguities),
		AmbiguousExcluded:   joined.ambiguousExcluded,
		Unattributed:        enriched.unattributed,
		ExcludedSessions:    nonNil(excluded),
		UnpricedProducts:    nonNil(agg.unpriced),
	}
	diag.Partial = len(diag.Drops) > 0 || len(diag.ExcludedSessions) > 0 || len(diag.UnpricedProducts) > 0

	return &billingdomain.Bill{
		ProviderID:   q.ProviderID,
		ProviderName: name,
		From:         q.From,
		To:           q.To,
		TruckCount:   agg.trucks,
		SessionCount: agg.sessions,
		Products:     agg.products,
		Total:        agg.total,
		Diagnostics:  diag,
	}, nil
}

func (s *Service) publish(ctx context.Context, bill *billingdomain.Bill) {
	if s.publisher == nil {
		return
	}
	evt := &events.BillGenerated{
		ProviderID:   bill.ProviderID,
		From:         bill.From.Format(weighingdomain.TimeLayout),
		To:           bill.To.Format(weighingdomain.TimeLayout),
		TruckCount:   bill.TruckCount,
		SessionCount: bill.SessionCount,
		Products:     len(bill.Products),
		Total:        bill.Total,
		Partial:      bill.Diagnostics.Partial,
		GeneratedAt:  s.clock.Now().UTC(),
	}
	if s.genID != nil {
		evt.RunID = s.genID.Generate().String()
	}
	if err := s.publisher.PublishBillGenerated(ctx, evt); err != nil {
		logger.WithContext(ctx, s.log).Warn("bill event not published", zap.Error(err))
	}
}

func (s *Service) recordOutcome(ctx context.Context, providerID, outcome string) {
	s.pipelineMetrics.IncBuild(outcome)
	s.metrics.RecordBillBuilt(ctx, providerID, outcome)
}

func failureOutcome(err error) string {
	switch {
	case errors.Is(err, billingdomain.ErrNoDataForPeriod):
		return outcomeNoData
	case errors.Is(err, billingdomain.ErrUnknownProvider):
		return outcomeUnknownProvider
	case errors.Is(err, billingdomain.ErrProviderNotFound):
		return outcomeProviderNotFound
	case errors.Is(err, billingdomain.ErrNoBillableData):
		return outcomeNoBillable
	default:
		return outcomeError
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
