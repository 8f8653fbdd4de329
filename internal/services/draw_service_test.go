package services

import (
	"context"
	"sync"
	"testing"

	"github.com/kujifair/kuji-backend/internal/config"
	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Draw: config.DrawConfig{
			MaxClaimAttempts: 10,
			RateEscalation: []config.RateStep{
				{Threshold: 0.5, Step: 0.25},
				{Threshold: 0.8, Step: 0.5},
			},
		},
	}
}

// standardTiers is a 10-ticket pool: one A, two B, seven C, plus the bonus.
func standardTiers() []TierSpec {
	return []TierSpec{
		{Level: "A", Name: "Deluxe Figure", Total: 1, Probability: 0.1},
		{Level: "B", Name: "Plush", Total: 2, Probability: 0.2},
		{Level: "C", Name: "Keychain", Total: 7, Probability: 0.7},
		{Level: "LAST_ONE", Name: "Golden Figure", Total: 1},
	}
}

func scaledTiers(scale int) []TierSpec {
	return []TierSpec{
		{Level: "A", Name: "Deluxe Figure", Total: 1 * scale, Probability: 0.1},
		{Level: "B", Name: "Plush", Total: 2 * scale, Probability: 0.2},
		{Level: "C", Name: "Keychain", Total: 7 * scale, Probability: 0.7},
		{Level: "LAST_ONE", Name: "Golden Figure", Total: 1},
	}
}

type testEnv struct {
	store      *memory.Store
	cfg        *config.Config
	products   *ProductServiceImpl
	draws      *DrawServiceImpl
	rates      *RateServiceImpl
	reconciler *ReconcilerImpl
}

func newTestEnv() *testEnv {
	store := memory.NewStore()
	cfg := testConfig()
	rates := NewRateService(store.RateConfigs(), cfg)
	return &testEnv{
		store:      store,
		cfg:        cfg,
		products:   NewProductService(store.Products(), store.PrizeTiers(), store.Tickets(), rates),
		draws:      NewDrawService(store.Products(), store.Tickets(), store.PrizeTiers(), store.DrawRecords(), cfg),
		rates:      rates,
		reconciler: NewReconciler(store.Products(), store.PrizeTiers(), store.DrawRecords()),
	}
}

func (e *testEnv) createPool(t *testing.T, totalCount int, tiers []TierSpec) *models.Product {
	t.Helper()
	product, err := e.products.CreatePool(context.Background(), &CreatePoolRequest{
		Name:       "Test Pool",
		TotalCount: totalCount,
		Tiers:      tiers,
	})
	require.NoError(t, err)
	return product
}

func TestExecuteDrawConsumesWholePool(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	results, err := env.draws.ExecuteDraw(ctx, product.ID, 10, "user-1")
	require.NoError(t, err)

	// Ten numbered tickets plus the Last One bonus.
	require.Len(t, results, 11)
	last := results[len(results)-1]
	assert.Equal(t, models.LastOneTicketNumber, last.TicketNumber)
	assert.Equal(t, "Last One", last.PrizeLevel)

	seen := make(map[int]bool)
	for _, result := range results[:10] {
		assert.False(t, seen[result.TicketNumber], "ticket %d drawn twice", result.TicketNumber)
		seen[result.TicketNumber] = true
		assert.GreaterOrEqual(t, result.TicketNumber, 1)
		assert.LessOrEqual(t, result.TicketNumber, 10)
	}

	updated, err := env.store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Remaining)
	assert.Equal(t, models.ProductStatusSoldOut, updated.Status)

	tiers, err := env.store.PrizeTiers().FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	for _, tier := range tiers {
		assert.Equal(t, 0, tier.Remaining, "tier %s not fully consumed", tier.Level)
	}
}

func TestExecuteDrawLedgerMatchesResults(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	_, err := env.draws.ExecuteDraw(ctx, product.ID, 4, "user-1")
	require.NoError(t, err)

	records, err := env.store.DrawRecords().FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, records, 4)

	// Nonces are the strict sequence 1..n and every record carries a
	// reproducible random value.
	for i, record := range records {
		assert.Equal(t, int64(i+1), record.Nonce)
		assert.GreaterOrEqual(t, record.RandomValue, 0.0)
		assert.Less(t, record.RandomValue, 1.0)
		assert.Equal(t, "user-1", record.UserID)
	}

	updated, err := env.store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Remaining)
	assert.Equal(t, models.ProductStatusActive, updated.Status)
}

func TestExecuteDrawInsufficientInventory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	_, err := env.draws.ExecuteDraw(ctx, product.ID, 11, "user-1")
	require.ErrorIs(t, err, ErrInsufficientInventory)

	// Fail-fast: nothing was consumed.
	records, err := env.store.DrawRecords().FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	updated, err := env.store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Remaining)
}

func TestExecuteDrawRejectsInactivePool(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	require.NoError(t, env.store.Products().UpdateStatus(ctx, product.ID, models.ProductStatusArchived))

	_, err := env.draws.ExecuteDraw(ctx, product.ID, 1, "user-1")
	assert.ErrorIs(t, err, ErrProductNotActive)
}

func TestExecuteDrawValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	_, err := env.draws.ExecuteDraw(ctx, product.ID, 1, "")
	assert.ErrorIs(t, err, ErrMissingParameter)

	_, err = env.draws.ExecuteDraw(ctx, product.ID, 0, "user-1")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestExecuteDrawConcurrentNoDoubleAllocation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 100, scaledTiers(10))

	const workers = 10
	const perWorker = 10

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				if _, err := env.draws.ExecuteDraw(ctx, product.ID, 1, "user-1"); err != nil {
					errs[w] = err
					return
				}
			}
		}(w)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	records, err := env.store.DrawRecords().FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, records, 101)

	// Every numbered ticket drawn exactly once, the bonus exactly once.
	seen := make(map[int]bool)
	lastOnes := 0
	for _, record := range records {
		assert.False(t, seen[record.TicketNumber], "ticket %d allocated twice", record.TicketNumber)
		seen[record.TicketNumber] = true
		if record.TicketNumber == models.LastOneTicketNumber {
			lastOnes++
		}
	}
	assert.Equal(t, 1, lastOnes)

	updated, err := env.store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Remaining)
	assert.Equal(t, models.ProductStatusSoldOut, updated.Status)

	// Ledger counts per tier match the fixed tier totals.
	tiers, err := env.store.PrizeTiers().FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	for _, tier := range tiers {
		drawn, err := env.store.DrawRecords().CountByTier(ctx, tier.ID)
		require.NoError(t, err)
		assert.Equal(t, tier.Total, drawn, "tier %s ledger count", tier.Level)
	}
}

func TestDrawHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	_, err := env.draws.ExecuteDraw(ctx, product.ID, 2, "alice")
	require.NoError(t, err)
	_, err = env.draws.ExecuteDraw(ctx, product.ID, 3, "bob")
	require.NoError(t, err)

	aliceDraws, err := env.draws.GetDrawsByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, aliceDraws, 2)

	bobDraws, err := env.draws.GetDrawsByUser(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bobDraws, 3)

	all, err := env.draws.GetDrawsByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
