package service

import (
	"testing"

	billingdomain "github.com/smallbiznis/weighbill/internal/billing/domain"
	"github.com/smallbiznis/weighbill/internal/config"
	weighingdomain "github.com/smallbiznis/weighbill/internal/weighing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var i64 = weighingdomain.Int64

func defaultCorrelation() config.CorrelationConfig {
	return config.DefaultPipelineConfig().Correlation
}

func TestCorrelate_JoinsOnContainerAndBruto(t *testing.T) {
	snap := &weighingdomain.Snapshot{
		Containers: []weighingdomain.ContainerFact{
			{TransactionID: "T1", ContainerID: "C1", Produce: "apples", Bruto: 10000, ContainerTara: i64(200)},
			{TransactionID: "T2", ContainerID: "C9", Produce: "pears", Bruto: 500},
		},
		Sessions: []weighingdomain.SessionFact{
			{SessionID: "S1", ContainerID: "C1", TruckID: "Tx", Bruto: 10000, TruckTara: i64(500)},
			{SessionID: "S2", ContainerID: "C1", TruckID: "Ty", Bruto: 7000},
		},
	}

	got := correlate(snap, defaultCorrelation())
	require.Len(t, got.facts, 1)
	f := got.facts[0]
	assert.Equal(t, "T1", f.TransactionID)
	assert.Equal(t, "S1", f.SessionID)
	assert.Equal(t, "Tx", f.TruckID)
	assert.Equal(t, int64(200), *f.ContainerTara)
	assert.Equal(t, int64(500), *f.TruckTara)
	assert.Equal(t, 1, got.unmatchedContainers)
	assert.Equal(t, 1, got.unmatchedSessions)
	assert.Empty(t, got.ambiguities)
}

func TestCorrelate_ContainerKeyIgnoresBruto(t *testing.T) {
	snap := &weighingdomain.Snapshot{
		Containers: []weighingdomain.ContainerFact{{TransactionID: "T1", ContainerID: "C1", Bruto: 1}},
		Sessions:   []weighingdomain.SessionFact{{SessionID: "S1", ContainerID: "C1", Bruto: 2}},
	}
	cfg := defaultCorrelation()
	cfg.Key = config.CorrelationKeyContainer

	got := correlate(snap, cfg)
	assert.Len(t, got.facts, 1)
	assert.Zero(t, got.unmatchedContainers)
}

func TestCorrelate_Ambiguity(t *testing.T) {
	snap := &weighingdomain.Snapshot{
		Containers: []weighingdomain.ContainerFact{{TransactionID: "T1", ContainerID: "C1", Bruto: 900}},
		Sessions: []weighingdomain.SessionFact{
			{SessionID: "S1", ContainerID: "C1", Bruto: 900},
			{SessionID: "S2", ContainerID: "C1", Bruto: 900},
		},
	}

	keep := correlate(snap, defaultCorrelation())
	assert.Len(t, keep.facts, 2)
	require.Len(t, keep.ambiguities, 1)
	assert.Equal(t, []string{"S1", "S2"}, keep.ambiguities[0].SessionIDs)
	assert.Zero(t, keep.ambiguousExcluded)

	cfg := defaultCorrelation()
	cfg.Ambiguity = config.AmbiguityExclude
	excl := correlate(snap, cfg)
	assert.Empty(t, excl.facts)
	assert.Len(t, excl.ambiguities, 1)
	assert.Equal(t, 2, excl.ambiguousExcluded)
	assert.Zero(t, excl.unmatchedSessions)
}

// Container tare and truck tare both known: 10000 - (500 + 200).
func TestResolveNeto_DerivesFromTaras(t *testing.T) {
	facts := []billingdomain.JoinedFact{{
		ContainerID: "C1", ContainerTara: i64(200),
		SessionID: "S1", TruckID: "Tx", Bruto: 10000, TruckTara: i64(500),
	}}

	got, excluded := resolveNeto(facts)
	require.Len(t, got, 1)
	assert.Empty(t, excluded)
	assert.Equal(t, int64(9300), *got[0].Neto)
	assert.Nil(t, facts[0].Neto)
}

func TestResolveNeto_CountsEachContainerTaraOnce(t *testing.T) {
	facts := []billingdomain.JoinedFact{
		{TransactionID: "T1", ContainerID: "C1", ContainerTara: i64(100), SessionID: "S1", Bruto: 5000, TruckTara: i64(1000)},
		{TransactionID: "T2", ContainerID: "C1", ContainerTara: i64(100), SessionID: "S1", Bruto: 5000, TruckTara: i64(1000)},
		{TransactionID: "T3", ContainerID: "C2", ContainerTara: i64(300), SessionID: "S1", Bruto: 5000, TruckTara: i64(1000)},
	}
	got, _ := resolveNeto(facts)
	require.Len(t, got, 3)
	for _, f := range got {
		assert.Equal(t, int64(3600), *f.Neto)
	}
}

func TestResolveNeto_Exclusions(t *testing.T) {
	facts := []billingdomain.JoinedFact{
		{ContainerID: "C1", ContainerTara: i64(10), SessionID: "S-truck", Bruto: 100},
		{ContainerID: "C2", SessionID: "S-container", Bruto: 100, TruckTara: i64(10)},
		{ContainerID: "C3", ContainerTara: i64(90), SessionID: "S-negative", Bruto: 100, TruckTara: i64(50)},
		{SessionID: "S-empty", Bruto: 100, TruckTara: i64(10)},
		{ContainerID: "C4", SessionID: "S-reported", Bruto: 100, Neto: i64(40)},
	}

	got, excluded := resolveNeto(facts)
	require.Len(t, got, 1)
	assert.Equal(t, "S-reported", got[0].SessionID)
	assert.Equal(t, int64(40), *got[0].Neto)
	assert.Equal(t, []billingdomain.ExcludedSession{
		{SessionID: "S-container", Reason: billingdomain.ExclusionUnknownContainerTara},
		{SessionID: "S-empty", Reason: billingdomain.ExclusionNoContainers},
		{SessionID: "S-negative", Reason: billingdomain.ExclusionNegativeNeto},
		{SessionID: "S-truck", Reason: billingdomain.ExclusionUnknownTruckTara},
	}, excluded)
}

func TestResolveNeto_Idempotent(t *testing.T) {
	facts := []billingdomain.JoinedFact{
		{ContainerID: "C1", ContainerTara: i64(200), SessionID: "S1", Bruto: 10000, TruckTara: i64(500)},
		{ContainerID: "C2", ContainerTara: i64(300), SessionID: "S2", Bruto: 8000, TruckTara: i64(700)},
		{ContainerID: "C3", SessionID: "S3", Bruto: 8000, Neto: i64(6000)},
		{ContainerID: "C4", SessionID: "S4", Bruto: 8000},
	}

	once, excludedOnce := resolveNeto(facts)
	twice, excludedTwice := resolveNeto(once)
	assert.Equal(t, once, twice)
	assert.Len(t, excludedOnce, 1)
	assert.Empty(t, excludedTwice)
}
