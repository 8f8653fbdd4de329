package services

import (
	"context"
	"testing"

	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/pkg/fairness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreatePoolPublishesCommitment(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	assert.Equal(t, 10, product.TotalCount)
	assert.Equal(t, 10, product.Remaining)
	assert.Equal(t, models.ProductStatusActive, product.Status)
	assert.False(t, product.SeedRevealed)
	assert.Len(t, product.Seed, fairness.SeedBytes*2)
	assert.Equal(t, fairness.CommitmentHash(product.Seed), product.TxidHash)

	tickets, err := env.store.Tickets().FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 10)
	for i, ticket := range tickets {
		assert.Equal(t, i+1, ticket.Number)
		assert.False(t, ticket.Claimed)
	}

	// Ticket counts per tier match the declared totals; the bonus tier holds
	// no numbered tickets.
	tiers, err := env.store.PrizeTiers().FindByProduct(ctx, product.ID)
	require.NoError(t, err)
	counts := make(map[primitive.ObjectID]int)
	for _, ticket := range tickets {
		counts[ticket.TierID]++
	}
	for _, tier := range tiers {
		if tier.Level.IsLastOne() {
			assert.Zero(t, counts[tier.ID])
			continue
		}
		assert.Equal(t, tier.Total, counts[tier.ID], "tier %s", tier.Level)
	}
}

func TestAssignTicketsIsDeterministic(t *testing.T) {
	product := &models.Product{ID: primitive.NewObjectID(), Seed: "fixed-seed", TotalCount: 20}
	tiers := []*models.PrizeTier{
		{ID: primitive.NewObjectID(), Level: models.LevelA, Total: 5},
		{ID: primitive.NewObjectID(), Level: models.LevelB, Total: 7},
		{ID: primitive.NewObjectID(), Level: models.LevelC, Total: 8},
		{ID: primitive.NewObjectID(), Level: models.LevelLastOne, Total: 1},
	}

	first := assignTickets(product, tiers)
	second := assignTickets(product, tiers)
	require.Len(t, first, 20)
	for i := range first {
		assert.Equal(t, first[i].Number, second[i].Number)
		assert.Equal(t, first[i].TierID, second[i].TierID)
	}

	// A different seed produces a different assignment.
	other := &models.Product{ID: product.ID, Seed: "other-seed", TotalCount: 20}
	third := assignTickets(other, tiers)
	same := true
	for i := range first {
		if first[i].TierID != third[i].TierID {
			same = false
			break
		}
	}
	assert.False(t, same)
}

func TestCreatePoolValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	cases := []struct {
		name  string
		total int
		tiers []TierSpec
	}{
		{"no tiers", 10, nil},
		{
			"duplicate level", 10,
			[]TierSpec{
				{Level: "A", Name: "x", Total: 5, Probability: 0.5},
				{Level: "a", Name: "y", Total: 5, Probability: 0.5},
				{Level: "LAST_ONE", Name: "z", Total: 1},
			},
		},
		{
			"no last one tier", 10,
			[]TierSpec{
				{Level: "A", Name: "x", Total: 10, Probability: 1.0},
			},
		},
		{
			"last one tier too large", 10,
			[]TierSpec{
				{Level: "A", Name: "x", Total: 10, Probability: 1.0},
				{Level: "LAST_ONE", Name: "z", Total: 2},
			},
		},
		{
			"totals do not cover pool", 10,
			[]TierSpec{
				{Level: "A", Name: "x", Total: 9, Probability: 1.0},
				{Level: "LAST_ONE", Name: "z", Total: 1},
			},
		},
		{
			"probabilities do not sum to one", 10,
			[]TierSpec{
				{Level: "A", Name: "x", Total: 5, Probability: 0.5},
				{Level: "B", Name: "y", Total: 5, Probability: 0.4},
				{Level: "LAST_ONE", Name: "z", Total: 1},
			},
		},
		{
			"non-positive probability", 10,
			[]TierSpec{
				{Level: "A", Name: "x", Total: 5, Probability: 1.0},
				{Level: "B", Name: "y", Total: 5, Probability: 0},
				{Level: "LAST_ONE", Name: "z", Total: 1},
			},
		},
		{
			"unknown level label", 10,
			[]TierSpec{
				{Level: "Z", Name: "x", Total: 10, Probability: 1.0},
				{Level: "LAST_ONE", Name: "z", Total: 1},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.products.CreatePool(ctx, &CreatePoolRequest{
				Name:       "Bad Pool",
				TotalCount: tc.total,
				Tiers:      tc.tiers,
			})
			assert.Error(t, err)
		})
	}
}

func TestGetProductWithholdsSeed(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	view, err := env.products.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Seed)
	assert.Equal(t, product.TxidHash, view.Product.TxidHash)
	assert.Len(t, view.Tiers, 4)
}

func TestRevealSeedRequiresExhaustion(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	// A live pool must keep its seed secret.
	_, err := env.products.RevealSeed(ctx, product.ID)
	assert.ErrorIs(t, err, ErrSeedNotRevealable)

	_, err = env.draws.ExecuteDraw(ctx, product.ID, 10, "user-1")
	require.NoError(t, err)

	revealed, err := env.products.RevealSeed(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, revealed.SeedRevealed)

	view, err := env.products.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.Seed, view.Seed)
	assert.Equal(t, fairness.CommitmentHash(view.Seed), view.Product.TxidHash)
}

func TestRevealSeedOnArchivedPool(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	product := env.createPool(t, 10, standardTiers())

	require.NoError(t, env.store.Products().UpdateStatus(ctx, product.ID, models.ProductStatusArchived))

	revealed, err := env.products.RevealSeed(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, revealed.SeedRevealed)
}

func TestListProducts(t *testing.T) {
	env := newTestEnv()
	env.createPool(t, 10, standardTiers())
	env.createPool(t, 10, standardTiers())

	products, err := env.products.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 2)
}
