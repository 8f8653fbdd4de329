package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"

	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/internal/repositories"
	"github.com/kujifair/kuji-backend/pkg/fairness"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure ProductServiceImpl implements ProductService
var _ ProductService = (*ProductServiceImpl)(nil)

const probabilitySumTolerance = 1e-6

// ProductServiceImpl handles pool lifecycle business logic
type ProductServiceImpl struct {
	productRepo repositories.ProductRepository
	tierRepo    repositories.PrizeTierRepository
	ticketRepo  repositories.TicketRepository
	rateService RateService
}

// NewProductService creates a new ProductServiceImpl
func NewProductService(
	productRepo repositories.ProductRepository,
	tierRepo repositories.PrizeTierRepository,
	ticketRepo repositories.TicketRepository,
	rateService RateService,
) *ProductServiceImpl {
	return &ProductServiceImpl{
		productRepo: productRepo,
		tierRepo:    tierRepo,
		ticketRepo:  ticketRepo,
		rateService: rateService,
	}
}

// CreatePool validates the pool definition, generates the seed and its public
// commitment, and materializes the fixed ticket->tier assignment. The
// assignment is a deterministic shuffle derived from the seed, so once the
// seed is revealed the entire assignment is auditable.
func (s *ProductServiceImpl) CreatePool(ctx context.Context, req *CreatePoolRequest) (*models.Product, error) {
	tiers, err := buildTiers(req)
	if err != nil {
		return nil, err
	}

	seed, err := fairness.GenerateSeed()
	if err != nil {
		return nil, fmt.Errorf("failed to generate pool seed: %w", err)
	}

	product := &models.Product{
		Name:       req.Name,
		ImageURL:   req.ImageURL,
		TotalCount: req.TotalCount,
		Remaining:  req.TotalCount,
		Seed:       seed,
		TxidHash:   fairness.CommitmentHash(seed),
		Status:     models.ProductStatusActive,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		slog.Error("Failed to create product", "error", err, "name", req.Name)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	for _, tier := range tiers {
		tier.ProductID = product.ID
	}
	if err := s.tierRepo.CreateMany(ctx, tiers); err != nil {
		slog.Error("Failed to create prize tiers", "error", err, "productId", product.ID)
		return nil, fmt.Errorf("failed to create prize tiers: %w", err)
	}

	tickets := assignTickets(product, tiers)
	if err := s.ticketRepo.CreateMany(ctx, tickets); err != nil {
		slog.Error("Failed to create tickets", "error", err, "productId", product.ID)
		return nil, fmt.Errorf("failed to create tickets: %w", err)
	}

	slog.Info("Pool created", "productId", product.ID, "totalCount", product.TotalCount, "txidHash", product.TxidHash)
	return product, nil
}

// buildTiers validates the tier specs and converts them into models. Rules:
// unique levels, exactly one Last One tier with a single prize, non-Last-One
// totals summing to the pool size and probabilities summing to 1.
func buildTiers(req *CreatePoolRequest) ([]*models.PrizeTier, error) {
	if len(req.Tiers) == 0 {
		return nil, fmt.Errorf("%w: tiers", ErrMissingParameter)
	}

	seen := make(map[models.PrizeLevel]bool)
	var tiers []*models.PrizeTier
	numberedTotal := 0
	probabilitySum := 0.0
	lastOneCount := 0

	for _, spec := range req.Tiers {
		level, err := models.ParseLevel(spec.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
		}
		if seen[level] {
			return nil, fmt.Errorf("%w: duplicate tier level %s", ErrInvalidParameter, level)
		}
		seen[level] = true

		if level.IsLastOne() {
			lastOneCount++
			if spec.Total != 1 {
				return nil, fmt.Errorf("%w: Last One tier must hold exactly one prize", ErrInvalidParameter)
			}
		} else {
			numberedTotal += spec.Total
			if spec.Probability <= 0 {
				return nil, fmt.Errorf("%w: tier %s probability must be positive", ErrInvalidParameter, level)
			}
			probabilitySum += spec.Probability
		}

		tiers = append(tiers, &models.PrizeTier{
			Level:       level,
			Name:        spec.Name,
			ImageURL:    spec.ImageURL,
			Total:       spec.Total,
			Remaining:   spec.Total,
			Probability: spec.Probability,
		})
	}

	if lastOneCount != 1 {
		return nil, fmt.Errorf("%w: pool must define exactly one Last One tier", ErrInvalidParameter)
	}
	if numberedTotal != req.TotalCount {
		return nil, fmt.Errorf("%w: tier totals sum to %d, want %d", ErrInvalidParameter, numberedTotal, req.TotalCount)
	}
	if math.Abs(probabilitySum-1.0) > probabilitySumTolerance {
		return nil, fmt.Errorf("%w: tier probabilities sum to %g, want 1", ErrInvalidParameter, probabilitySum)
	}
	return tiers, nil
}

// assignTickets expands the tiers into numbered tickets and shuffles the
// assignment with a PRNG seeded from the pool seed. Deterministic: revealing
// the seed reveals the full assignment.
func assignTickets(product *models.Product, tiers []*models.PrizeTier) []*models.Ticket {
	var tierIDs []primitive.ObjectID
	for _, tier := range tiers {
		if tier.Level.IsLastOne() {
			continue
		}
		for i := 0; i < tier.Total; i++ {
			tierIDs = append(tierIDs, tier.ID)
		}
	}

	digest := sha256.Sum256([]byte(product.Seed + ":assignment"))
	rng := rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(digest[:8]))))
	rng.Shuffle(len(tierIDs), func(i, j int) {
		tierIDs[i], tierIDs[j] = tierIDs[j], tierIDs[i]
	})

	tickets := make([]*models.Ticket, len(tierIDs))
	for i, tierID := range tierIDs {
		tickets[i] = &models.Ticket{
			ProductID: product.ID,
			Number:    i + 1,
			TierID:    tierID,
		}
	}
	return tickets
}

// GetProduct returns the customer-facing view of a pool: commitment and
// rate-adjusted display probabilities, seed withheld unless revealed.
func (s *ProductServiceImpl) GetProduct(ctx context.Context, id primitive.ObjectID) (*ProductView, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}
	tiers, err := s.tierRepo.FindByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load prize tiers: %w", err)
	}
	probabilities, err := s.rateService.AdjustedProbabilities(ctx, product, tiers)
	if err != nil {
		return nil, err
	}

	view := &ProductView{Product: product, Tiers: probabilities}
	if product.SeedRevealed {
		view.Seed = product.Seed
	}
	return view, nil
}

// ListProducts returns all pools, newest first
func (s *ProductServiceImpl) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.productRepo.FindAll(ctx)
}

// RevealSeed publishes a pool's seed for auditing. Only a pool that can no
// longer sell tickets may be revealed; revealing a live seed would let buyers
// predict every remaining draw.
func (s *ProductServiceImpl) RevealSeed(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}
	if product.Remaining > 0 && product.Status == models.ProductStatusActive {
		return nil, ErrSeedNotRevealable
	}
	if err := s.productRepo.RevealSeed(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to reveal seed: %w", err)
	}
	product.SeedRevealed = true
	slog.Info("Seed revealed", "productId", id)
	return product, nil
}
