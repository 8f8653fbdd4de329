package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileCleanPool(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	_, err := env.draws.ExecuteDraw(ctx, product.ID, 4, "user-1")
	require.NoError(t, err)

	report, err := env.reconciler.ReconcileProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, report.Clean())
	assert.Equal(t, 6, report.ObservedRemaining)
	assert.Equal(t, 6, report.ExpectedRemaining)
}

func TestReconcileRepairsDriftedCounters(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	_, err := env.draws.ExecuteDraw(ctx, product.ID, 4, "user-1")
	require.NoError(t, err)

	// Simulate a crash between ledger write and counter decrement.
	require.NoError(t, env.store.Products().SetRemaining(ctx, product.ID, 9))
	tiers, err := env.store.PrizeTiers().FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	corrupted := tiers[len(tiers)-1]
	require.NoError(t, env.store.PrizeTiers().SetRemaining(ctx, corrupted.ID, corrupted.Total))

	report, err := env.reconciler.ReconcileProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, report.Clean())
	assert.True(t, report.ProductRepaired)
	assert.Equal(t, 9, report.ObservedRemaining)
	assert.Equal(t, 6, report.ExpectedRemaining)

	// Counters now match the ledger again.
	repaired, err := env.store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, repaired.Remaining)

	for _, tier := range tiers {
		drawn, err := env.store.DrawRecords().CountByTier(ctx, tier.ID)
		require.NoError(t, err)
		current, err := env.store.PrizeTiers().FindByID(ctx, tier.ID)
		require.NoError(t, err)
		assert.Equal(t, tier.Total-drawn, current.Remaining)
	}

	// A second pass finds nothing to fix.
	again, err := env.reconciler.ReconcileProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, again.Clean())
}

func TestReconcileAll(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	first := env.createPool(t, 10, standardTiers())
	second := env.createPool(t, 10, standardTiers())

	_, err := env.draws.ExecuteDraw(ctx, first.ID, 3, "user-1")
	require.NoError(t, err)
	require.NoError(t, env.store.Products().SetRemaining(ctx, first.ID, 10))

	reports, err := env.reconciler.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	byProduct := make(map[string]*ReconcileReport)
	for _, report := range reports {
		byProduct[report.ProductID.Hex()] = report
	}
	assert.True(t, byProduct[first.ID.Hex()].ProductRepaired)
	assert.True(t, byProduct[second.ID.Hex()].Clean())
}
