package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/smallbiznis/weighbill/internal/config"
	obsmetrics "github.com/smallbiznis/weighbill/internal/observability/metrics"
	"github.com/smallbiznis/weighbill/internal/observability/tracing"
	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Client          weighingdomain.Client
	Pipeline        *config.PipelineConfigHolder
	Log             *zap.Logger
	Metrics         *obsmetrics.Metrics         `optional:"true"`
	PipelineMetrics *obsmetrics.PipelineMetrics `optional:"true"`
}

type Collector struct {
	client          weighingdomain.Client
	pipeline        *config.PipelineConfigHolder
	log             *zap.Logger
	metrics         *obsmetrics.Metrics
	pipelineMetrics *obsmetrics.PipelineMetrics
}

func NewCollector(p Params) weighingdomain.Collector {
	return &Collector{
		client:          p.Client,
		pipeline:        p.Pipeline,
		log:             p.Log.Named("weighing.collector"),
		metrics:         p.Metrics,
		pipelineMetrics: p.PipelineMetrics,
	}
}

type containerRow struct {
	transactionID string
	containerID   string
	produce       string
	bruto         int64
}

// Collect fetches transactions, then container items, then sessions for the
// window. Only the transaction fetch is fatal; every other failed lookup
// becomes a Drop on the returned snapshot.
func (c *Collector) Collect(ctx context.Context, from, to time.Time) (*weighingdomain.Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "weighing.collect")
	defer span.End()

	start := time.Now()
	defer func() { c.pipelineMetrics.ObserveStage(obsmetrics.StageCollect, time.Since(start)) }()

	cfg := c.pipeline.Get().Weighing

	txs, err := c.client.ListTransactions(ctx, from, to, cfg.Direction)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Warn("transaction fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", weighingdomain.ErrNoDataForPeriod, err)
	}
	if len(txs) == 0 {
		return nil, weighingdomain.ErrNoDataForPeriod
	}

	var drops []weighingdomain.Drop
	rows, containerIDs := flattenTransactions(txs, &drops)

	items, failedItems, err := fanOut(ctx, cfg.Concurrency, containerIDs, func(ctx context.Context, id string) (*weighingdomain.Item, error) {
		return c.client.GetItem(ctx, id, from, to)
	})
	if err != nil {
		return nil, err
	}
	drops = appendDrops(drops, weighingdomain.DropContainer, containerIDs, failedItems)

	containers := make([]weighingdomain.ContainerFact, 0, len(rows))
	for _, row := range rows {
		item, ok := items[row.containerID]
		if !ok {
			continue
		}
		containers = append(containers, weighingdomain.ContainerFact{
			TransactionID: row.transactionID,
			ContainerID:   row.containerID,
			Produce:       row.produce,
			Bruto:         row.bruto,
			ContainerTara: item.Tara,
			SessionIDs:    append([]string(nil), item.Sessions...),
		})
	}

	sessionIDs := distinctSessionIDs(containerIDs, items)
	sessions, failedSessions, err := fanOut(ctx, cfg.Concurrency, sessionIDs, func(ctx context.Context, id string) (*weighingdomain.Session, error) {
		return c.client.GetSession(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	drops = appendDrops(drops, weighingdomain.DropSession, sessionIDs, failedSessions)

	truckTaras, truckDrops, err := c.resolveTruckTaras(ctx, sessions, from, to, cfg.Concurrency)
	if err != nil {
		return nil, err
	}
	drops = append(drops, truckDrops...)

	sessionFacts := buildSessionFacts(containerIDs, items, sessions, truckTaras, &drops)

	c.record(ctx, drops)
	span.SetAttributes(
		attribute.Int("weighing.transactions", len(txs)),
		attribute.Int("weighing.containers", len(containers)),
		attribute.Int("weighing.sessions", len(sessionFacts)),
		attribute.Int("weighing.drops", len(drops)),
	)

	return &weighingdomain.Snapshot{
		From:         from,
		To:           to,
		Transactions: len(txs),
		Containers:   containers,
		Sessions:     sessionFacts,
		Drops:        drops,
	}, nil
}

// resolveTruckTaras looks up the tare of every truck whose session reports
// neither neto nor truck tare.
func (c *Collector) resolveTruckTaras(ctx context.Context, sessions map[string]*weighingdomain.Session, from, to time.Time, limit int) (map[string]int64, []weighingdomain.Drop, error) {
	seen := map[string]struct{}{}
	var truckIDs []string
	for _, s := range sessions {
		if s.Neto != nil || s.TruckTara != nil || s.TruckID == "" {
			continue
		}
		if _, ok := seen[s.TruckID]; ok {
			continue
		}
		seen[s.TruckID] = struct{}{}
		truckIDs = append(truckIDs, s.TruckID)
	}
	sort.Strings(truckIDs)
	if len(truckIDs) == 0 {
		return nil, nil, nil
	}

	items, failed, err := fanOut(ctx, limit, truckIDs, func(ctx context.Context, id string) (*weighingdomain.Item, error) {
		return c.client.GetItem(ctx, id, from, to)
	})
	if err != nil {
		return nil, nil, err
	}

	taras := make(map[string]int64, len(items))
	for id, item := range items {
		if item.Tara != nil {
			taras[id] = *item.Tara
		}
	}
	var drops []weighingdomain.Drop
	for _, id := range truckIDs {
		if err, ok := failed[id]; ok {
			drops = append(drops, weighingdomain.Drop{Kind: weighingdomain.DropTruckTara, ID: id, Reason: weighingdomain.DropReason(err)})
			continue
		}
		if _, ok := taras[id]; !ok {
			drops = append(drops, weighingdomain.Drop{Kind: weighingdomain.DropTruckTara, ID: id, Reason: weighingdomain.ReasonDataMissing})
		}
	}
	return taras, drops, nil
}

func (c *Collector) record(ctx context.Context, drops []weighingdomain.Drop) {
	type key struct {
		kind   weighingdomain.DropKind
		reason string
	}
	counts := map[key]int{}
	for _, d := range drops {
		counts[key{d.Kind, d.Reason}]++
	}
	for k, n := range counts {
		c.metrics.RecordWeighingDrops(ctx, string(k.kind), k.reason, n)
		c.pipelineMetrics.AddDropped(obsmetrics.StageCollect, string(k.kind)+"_"+k.reason, n)
	}
	if len(drops) > 0 {
		c.log.Info("partial weighing snapshot", zap.Int("drops", len(drops)))
	}
}

func flattenTransactions(txs []weighingdomain.Transaction, drops *[]weighingdomain.Drop) ([]containerRow, []string) {
	var rows []containerRow
	var ids []string
	seen := map[string]struct{}{}
	for _, tx := range txs {
		if tx.Bruto == nil {
			*drops = append(*drops, weighingdomain.Drop{Kind: weighingdomain.DropTransaction, ID: tx.ID, Reason: weighingdomain.ReasonMissingBruto})
			continue
		}
		for _, containerID := range tx.Containers {
			rows = append(rows, containerRow{
				transactionID: tx.ID,
				containerID:   containerID,
				produce:       tx.Produce,
				bruto:         *tx.Bruto,
			})
			if _, ok := seen[containerID]; !ok {
				seen[containerID] = struct{}{}
				ids = append(ids, containerID)
			}
		}
	}
	return rows, ids
}

func distinctSessionIDs(containerIDs []string, items map[string]*weighingdomain.Item) []string {
	var ids []string
	seen := map[string]struct{}{}
	for _, containerID := range containerIDs {
		item, ok := items[containerID]
		if !ok {
			continue
		}
		for _, sessionID := range item.Sessions {
			if _, dup := seen[sessionID]; dup {
				continue
			}
			seen[sessionID] = struct{}{}
			ids = append(ids, sessionID)
		}
	}
	return ids
}

func buildSessionFacts(containerIDs []string, items map[string]*weighingdomain.Item, sessions map[string]*weighingdomain.Session, truckTaras map[string]int64, drops *[]weighingdomain.Drop) []weighingdomain.SessionFact {
	var facts []weighingdomain.SessionFact
	missingBruto := map[string]struct{}{}
	for _, containerID := range containerIDs {
		item, ok := items[containerID]
		if !ok {
			continue
		}
		for _, sessionID := range item.Sessions {
			s, ok := sessions[sessionID]
			if !ok {
				continue
			}
			if s.Bruto == nil {
				if _, logged := missingBruto[sessionID]; !logged {
					missingBruto[sessionID] = struct{}{}
					*drops = append(*drops, weighingdomain.Drop{Kind: weighingdomain.DropSession, ID: sessionID, Reason: weighingdomain.ReasonMissingBruto})
				}
				continue
			}
			truckTara := s.TruckTara
			if truckTara == nil && s.Neto == nil {
				if tara, ok := truckTaras[s.TruckID]; ok {
					truckTara = weighingdomain.Int64(tara)
				}
			}
			facts = append(facts, weighingdomain.SessionFact{
				SessionID:   sessionID,
				ContainerID: containerID,
				TruckID:     s.TruckID,
				Bruto:       *s.Bruto,
				Neto:        s.Neto,
				TruckTara:   truckTara,
			})
		}
	}
	return facts
}

func appendDrops(drops []weighingdomain.Drop, kind weighingdomain.DropKind, ids []string, failed map[string]error) []weighingdomain.Drop {
	for _, id := range ids {
		if err, ok := failed[id]; ok {
			drops = append(drops, weighingdomain.Drop{Kind: kind, ID: id, Reason: weighingdomain.DropReason(err)})
		}
	}
	return drops
}
