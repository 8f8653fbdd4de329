package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/kujifair/kuji-backend/internal/config"
	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/internal/repositories"
	"github.com/kujifair/kuji-backend/pkg/fairness"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

// DrawServiceImpl handles draw execution. Each consumed ticket is the unit of
// atomicity: the nonce mint and the ticket claim are conditional single-row
// updates, the ledger insert is guarded by the (productId, ticketNumber)
// uniqueness constraint, and counters are a cache repairable from the ledger.
type DrawServiceImpl struct {
	productRepo repositories.ProductRepository
	ticketRepo  repositories.TicketRepository
	tierRepo    repositories.PrizeTierRepository
	drawRepo    repositories.DrawRecordRepository
	cfg         *config.Config
}

// NewDrawService creates a new DrawServiceImpl
func NewDrawService(
	productRepo repositories.ProductRepository,
	ticketRepo repositories.TicketRepository,
	tierRepo repositories.PrizeTierRepository,
	drawRepo repositories.DrawRecordRepository,
	cfg *config.Config,
) *DrawServiceImpl {
	return &DrawServiceImpl{
		productRepo: productRepo,
		ticketRepo:  ticketRepo,
		tierRepo:    tierRepo,
		drawRepo:    drawRepo,
		cfg:         cfg,
	}
}

// ExecuteDraw consumes count tickets from a pool for userID. Tickets are
// consumed strictly sequentially: each unit mints its own nonce, derives its
// random value from (seed, nonce), claims the ticket that value selects among
// the currently unclaimed ones, appends the ledger record, and decrements the
// cached counters. Validation happens before any mutation.
func (s *DrawServiceImpl) ExecuteDraw(ctx context.Context, productID primitive.ObjectID, count int, userID string) ([]models.DrawResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId", ErrMissingParameter)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: count must be at least 1", ErrInvalidParameter)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}
	if product.Status != models.ProductStatusActive {
		return nil, fmt.Errorf("%w: status %s", ErrProductNotActive, product.Status)
	}
	if product.Remaining < count {
		return nil, fmt.Errorf("%w: requested %d, remaining %d", ErrInsufficientInventory, count, product.Remaining)
	}

	tiers, err := s.tierRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prize tiers: %w", err)
	}
	tiersByID := make(map[primitive.ObjectID]*models.PrizeTier, len(tiers))
	var lastOneTier *models.PrizeTier
	for _, tier := range tiers {
		tiersByID[tier.ID] = tier
		if tier.Level.IsLastOne() {
			lastOneTier = tier
		}
	}

	results := make([]models.DrawResult, 0, count)
	for i := 0; i < count; i++ {
		result, lastOne, err := s.drawOne(ctx, product, userID, tiersByID, lastOneTier)
		if err != nil {
			// Units already consumed are complete, consistent draws; the
			// failure applies to the remainder of the batch only.
			return results, err
		}
		results = append(results, *result)
		if lastOne != nil {
			results = append(results, *lastOne)
		}
	}
	return results, nil
}

// drawOne consumes a single ticket and returns its outcome, plus the Last One
// outcome when this unit exhausted the pool.
func (s *DrawServiceImpl) drawOne(
	ctx context.Context,
	product *models.Product,
	userID string,
	tiersByID map[primitive.ObjectID]*models.PrizeTier,
	lastOneTier *models.PrizeTier,
) (*models.DrawResult, *models.DrawResult, error) {
	nonce, err := s.productRepo.NextNonce(ctx, product.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrExhausted) {
			return nil, nil, fmt.Errorf("%w: pool exhausted by concurrent draws", ErrInsufficientInventory)
		}
		return nil, nil, fmt.Errorf("failed to mint draw nonce: %w", err)
	}
	randomValue := fairness.DeriveRandom(product.Seed, nonce)

	ticket, err := s.claimTicket(ctx, product.ID, randomValue, userID)
	if err != nil {
		return nil, nil, err
	}

	record := &models.DrawRecord{
		ProductID:    product.ID,
		TicketNumber: ticket.Number,
		TierID:       ticket.TierID,
		UserID:       userID,
		Nonce:        nonce,
		RandomValue:  randomValue,
	}
	if err := s.drawRepo.Create(ctx, record); err != nil {
		if errors.Is(err, repositories.ErrDuplicateDrawRecord) {
			slog.Error("Ticket recorded twice despite claim guard",
				"productId", product.ID, "ticketNumber", ticket.Number)
			return nil, nil, fmt.Errorf("%w: duplicate ledger entry for ticket %d", ErrConsistencyViolation, ticket.Number)
		}
		return nil, nil, fmt.Errorf("failed to append draw record: %w", err)
	}

	remaining, err := s.productRepo.DecrementRemaining(ctx, product.ID)
	if err != nil {
		slog.Error("Counter decrement failed after ledger write, reconciliation required",
			"error", err, "productId", product.ID, "ticketNumber", ticket.Number)
		return nil, nil, fmt.Errorf("failed to decrement pool counter: %w", err)
	}
	if _, err := s.tierRepo.DecrementRemaining(ctx, ticket.TierID); err != nil {
		slog.Error("Tier counter decrement failed after ledger write, reconciliation required",
			"error", err, "tierId", ticket.TierID, "ticketNumber", ticket.Number)
		return nil, nil, fmt.Errorf("failed to decrement tier counter: %w", err)
	}

	tier := tiersByID[ticket.TierID]
	result := drawResult(ticket.Number, tier)
	slog.Info("Ticket drawn",
		"productId", product.ID, "ticketNumber", ticket.Number,
		"level", tier.Level.String(), "nonce", nonce, "userId", userID)

	if remaining > 0 {
		return result, nil, nil
	}
	lastOne, err := s.awardLastOne(ctx, product, userID, nonce, randomValue, lastOneTier)
	if err != nil {
		return nil, nil, err
	}
	return result, lastOne, nil
}

// claimTicket maps a random value in [0,1) onto the unclaimed tickets and
// claims the selected one. A racing draw can shrink the unclaimed set between
// the count and the claim; the claim then fails cleanly and we retry against
// the updated set.
func (s *DrawServiceImpl) claimTicket(ctx context.Context, productID primitive.ObjectID, randomValue float64, userID string) (*models.Ticket, error) {
	attempts := s.cfg.Draw.MaxClaimAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		unclaimed, err := s.ticketRepo.CountUnclaimed(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("failed to count unclaimed tickets: %w", err)
		}
		if unclaimed == 0 {
			return nil, fmt.Errorf("%w: pool exhausted by concurrent draws", ErrInsufficientInventory)
		}

		index := int(randomValue * float64(unclaimed))
		if index >= unclaimed {
			index = unclaimed - 1
		}

		ticket, err := s.ticketRepo.ClaimNth(ctx, productID, index, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrTicketContended) {
				continue
			}
			return nil, fmt.Errorf("failed to claim ticket: %w", err)
		}
		return ticket, nil
	}
	return nil, fmt.Errorf("failed to claim a ticket after %d attempts", attempts)
}

// awardLastOne writes the Last One bonus record for the draw that consumed
// the final numbered ticket. The ledger's uniqueness constraint on ticket
// number 0 guarantees at most one award even if two draws race past the
// remaining==0 observation.
func (s *DrawServiceImpl) awardLastOne(
	ctx context.Context,
	product *models.Product,
	userID string,
	nonce int64,
	randomValue float64,
	lastOneTier *models.PrizeTier,
) (*models.DrawResult, error) {
	if err := s.productRepo.UpdateStatus(ctx, product.ID, models.ProductStatusSoldOut); err != nil {
		slog.Error("Failed to mark product sold out", "error", err, "productId", product.ID)
	}
	if lastOneTier == nil {
		slog.Error("Pool exhausted but no Last One tier defined", "productId", product.ID)
		return nil, nil
	}

	record := &models.DrawRecord{
		ProductID:    product.ID,
		TicketNumber: models.LastOneTicketNumber,
		TierID:       lastOneTier.ID,
		UserID:       userID,
		Nonce:        nonce,
		RandomValue:  randomValue,
	}
	if err := s.drawRepo.Create(ctx, record); err != nil {
		if errors.Is(err, repositories.ErrDuplicateDrawRecord) {
			// Another draw already took the bonus.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to append Last One record: %w", err)
	}
	if _, err := s.tierRepo.DecrementRemaining(ctx, lastOneTier.ID); err != nil {
		slog.Error("Last One tier decrement failed, reconciliation required",
			"error", err, "tierId", lastOneTier.ID)
	}

	slog.Info("Last One awarded", "productId", product.ID, "userId", userID)
	return drawResult(models.LastOneTicketNumber, lastOneTier), nil
}

func drawResult(ticketNumber int, tier *models.PrizeTier) *models.DrawResult {
	return &models.DrawResult{
		TicketNumber: ticketNumber,
		TierID:       tier.ID.Hex(),
		PrizeLevel:   tier.Level.String(),
		PrizeName:    tier.Name,
		PrizeImage:   tier.ImageURL,
	}
}

// GetDrawsByProduct returns a product's ledger in draw order
func (s *DrawServiceImpl) GetDrawsByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.DrawRecord, error) {
	return s.drawRepo.FindByProduct(ctx, productID)
}

// GetDrawsByUser returns a user's draw history, newest first
func (s *DrawServiceImpl) GetDrawsByUser(ctx context.Context, userID string) ([]*models.DrawRecord, error) {
	return s.drawRepo.FindByUser(ctx, userID)
}
