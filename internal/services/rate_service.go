package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/kujifair/kuji-backend/internal/config"
	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure RateServiceImpl implements RateService
var _ RateService = (*RateServiceImpl)(nil)

// RateServiceImpl handles the profit-rate overlay: an operator-configured
// multiplier on displayed probabilities, layered over the base probability
// table without ever mutating it, the commitment or the draw ledger.
type RateServiceImpl struct {
	rateRepo repositories.RateConfigRepository
	cfg      *config.Config
}

// NewRateService creates a new RateServiceImpl
func NewRateService(rateRepo repositories.RateConfigRepository, cfg *config.Config) *RateServiceImpl {
	return &RateServiceImpl{
		rateRepo: rateRepo,
		cfg:      cfg,
	}
}

// GetRate returns the configured rate for a product, neutral when unset
func (s *RateServiceImpl) GetRate(ctx context.Context, productID primitive.ObjectID) (*models.RateResponse, error) {
	config, err := s.rateRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rate config: %w", err)
	}
	if config == nil {
		return &models.RateResponse{
			ProductID:         productID.Hex(),
			CurrentProfitRate: models.NeutralProfitRate,
		}, nil
	}
	return rateResponse(config), nil
}

// SetRate stores a new rate for a product. Negative rates are rejected before
// any write.
func (s *RateServiceImpl) SetRate(ctx context.Context, productID primitive.ObjectID, profitRate float64, updatedBy string) (*models.RateResponse, error) {
	if profitRate < 0 {
		return nil, fmt.Errorf("%w: profitRate must not be negative", ErrInvalidParameter)
	}
	config := &models.RateConfig{
		ProductID:  productID,
		ProfitRate: profitRate,
		UpdatedBy:  updatedBy,
	}
	if err := s.rateRepo.Upsert(ctx, config); err != nil {
		return nil, fmt.Errorf("failed to store rate config: %w", err)
	}
	slog.Info("Profit rate updated", "productId", productID, "profitRate", profitRate, "updatedBy", updatedBy)
	return rateResponse(config), nil
}

// EffectiveRate computes the rate applied to a product right now: the stored
// rate plus every escalation step whose consumption threshold the pool has
// crossed. The product snapshot passed in fixes the consumption fraction, so
// one batch sees one consistent rate.
func (s *RateServiceImpl) EffectiveRate(ctx context.Context, product *models.Product) (float64, error) {
	response, err := s.GetRate(ctx, product.ID)
	if err != nil {
		return 0, err
	}
	rate := response.CurrentProfitRate

	if product.TotalCount > 0 {
		consumed := 1.0 - float64(product.Remaining)/float64(product.TotalCount)
		steps := append([]config.RateStep(nil), s.cfg.Draw.RateEscalation...)
		sort.Slice(steps, func(i, j int) bool { return steps[i].Threshold < steps[j].Threshold })
		for _, step := range steps {
			if consumed >= step.Threshold {
				rate += step.Step
			}
		}
	}
	return rate, nil
}

// AdjustedProbabilities applies the effective rate to the displayed tier
// probabilities and renormalizes them. The Last One tier is excluded from the
// weighting and reported with zero probability, as it is awarded by the
// exhaustion rule rather than the probability table.
func (s *RateServiceImpl) AdjustedProbabilities(ctx context.Context, product *models.Product, tiers []*models.PrizeTier) ([]models.TierProbability, error) {
	rate, err := s.EffectiveRate(ctx, product)
	if err != nil {
		return nil, err
	}

	// Raising the profit rate divides the displayed odds of every tier above
	// the lowest grade; the lowest grade absorbs the freed mass so the table
	// still sums to 1. A neutral rate leaves the table untouched.
	var lowest *models.PrizeTier
	for _, tier := range tiers {
		if tier.Level.IsLastOne() {
			continue
		}
		if lowest == nil || tier.Level > lowest.Level {
			lowest = tier
		}
	}

	adjusted := make(map[primitive.ObjectID]float64, len(tiers))
	upperSum := 0.0
	for _, tier := range tiers {
		if tier.Level.IsLastOne() || tier == lowest {
			continue
		}
		p := tier.Probability
		if rate > 0 {
			p = tier.Probability / rate
		}
		adjusted[tier.ID] = p
		upperSum += p
	}
	if lowest != nil {
		remainder := 1.0 - upperSum
		if remainder < 0 {
			remainder = 0
		}
		adjusted[lowest.ID] = remainder
	}

	probabilities := make([]models.TierProbability, 0, len(tiers))
	for _, tier := range tiers {
		p := models.TierProbability{
			Level:     tier.Level.String(),
			Name:      tier.Name,
			Remaining: tier.Remaining,
		}
		if !tier.Level.IsLastOne() {
			p.Probability = adjusted[tier.ID]
		}
		probabilities = append(probabilities, p)
	}
	return probabilities, nil
}

func rateResponse(config *models.RateConfig) *models.RateResponse {
	return &models.RateResponse{
		ProductID:         config.ProductID.Hex(),
		CurrentProfitRate: config.ProfitRate,
		UpdatedAt:         config.UpdatedAt,
		UpdatedBy:         config.UpdatedBy,
	}
}
