package services

import (
	"context"
	"testing"

	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGetRateDefaultsToNeutral(t *testing.T) {
	env := newTestEnv()

	response, err := env.rates.GetRate(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Equal(t, models.NeutralProfitRate, response.CurrentProfitRate)
}

func TestSetRateRoundTrip(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	productID := primitive.NewObjectID()

	stored, err := env.rates.SetRate(ctx, productID, 1.5, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1.5, stored.CurrentProfitRate)
	assert.Equal(t, "admin@example.com", stored.UpdatedBy)

	loaded, err := env.rates.GetRate(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, loaded.CurrentProfitRate)
	assert.Equal(t, "admin@example.com", loaded.UpdatedBy)
}

func TestSetRateRejectsNegative(t *testing.T) {
	env := newTestEnv()

	_, err := env.rates.SetRate(context.Background(), primitive.NewObjectID(), -0.1, "admin@example.com")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestEffectiveRateEscalation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	productID := primitive.NewObjectID()

	// Escalation steps from testConfig: +0.25 at 50% consumed, +0.5 at 80%.
	cases := []struct {
		remaining int
		want      float64
	}{
		{remaining: 10, want: 1.0},
		{remaining: 6, want: 1.0},
		{remaining: 5, want: 1.25},
		{remaining: 3, want: 1.25},
		{remaining: 2, want: 1.75},
		{remaining: 0, want: 1.75},
	}
	for _, tc := range cases {
		product := &models.Product{ID: productID, TotalCount: 10, Remaining: tc.remaining}
		rate, err := env.rates.EffectiveRate(ctx, product)
		require.NoError(t, err)
		assert.Equalf(t, tc.want, rate, "remaining %d", tc.remaining)
	}
}

func TestEffectiveRateStacksOnStoredRate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	productID := primitive.NewObjectID()

	_, err := env.rates.SetRate(ctx, productID, 1.5, "admin@example.com")
	require.NoError(t, err)

	product := &models.Product{ID: productID, TotalCount: 10, Remaining: 5}
	rate, err := env.rates.EffectiveRate(ctx, product)
	require.NoError(t, err)
	assert.Equal(t, 1.75, rate)
}

func TestAdjustedProbabilitiesNeutralRate(t *testing.T) {
	env := newTestEnv()
	env.cfg.Draw.RateEscalation = nil
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	loaded, err := env.store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	tiers, err := env.store.PrizeTiers().FindByProduct(ctx, product.ID)
	require.NoError(t, err)

	probabilities, err := env.rates.AdjustedProbabilities(ctx, loaded, tiers)
	require.NoError(t, err)
	require.Len(t, probabilities, 4)

	byLevel := make(map[string]models.TierProbability)
	for _, p := range probabilities {
		byLevel[p.Level] = p
	}
	assert.InDelta(t, 0.1, byLevel["A"].Probability, 1e-9)
	assert.InDelta(t, 0.2, byLevel["B"].Probability, 1e-9)
	assert.InDelta(t, 0.7, byLevel["C"].Probability, 1e-9)
	// The bonus is awarded by exhaustion, never by the probability table.
	assert.Zero(t, byLevel["Last One"].Probability)
}

func TestAdjustedProbabilitiesRaisedRate(t *testing.T) {
	env := newTestEnv()
	env.cfg.Draw.RateEscalation = nil
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	_, err := env.rates.SetRate(ctx, product.ID, 2.0, "admin@example.com")
	require.NoError(t, err)

	loaded, err := env.store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	tiers, err := env.store.PrizeTiers().FindByProduct(ctx, product.ID)
	require.NoError(t, err)

	probabilities, err := env.rates.AdjustedProbabilities(ctx, loaded, tiers)
	require.NoError(t, err)

	byLevel := make(map[string]models.TierProbability)
	sum := 0.0
	for _, p := range probabilities {
		byLevel[p.Level] = p
		sum += p.Probability
	}

	// Upper tiers halve, the lowest grade absorbs the freed mass.
	assert.InDelta(t, 0.05, byLevel["A"].Probability, 1e-9)
	assert.InDelta(t, 0.1, byLevel["B"].Probability, 1e-9)
	assert.InDelta(t, 0.85, byLevel["C"].Probability, 1e-9)
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRateOverlayNeverTouchesStoredTiers(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	_, err := env.rates.SetRate(ctx, product.ID, 3.0, "admin@example.com")
	require.NoError(t, err)

	loaded, err := env.store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	tiers, err := env.store.PrizeTiers().FindByProduct(ctx, product.ID)
	require.NoError(t, err)

	_, err = env.rates.AdjustedProbabilities(ctx, loaded, tiers)
	require.NoError(t, err)

	// Stored base probabilities are display input only.
	persisted, err := env.store.PrizeTiers().FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	for _, tier := range persisted {
		if tier.Level.IsLastOne() {
			continue
		}
		assert.Positive(t, tier.Probability)
	}
	reloaded, err := env.store.Products().FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, loaded.TxidHash, reloaded.TxidHash)
}
