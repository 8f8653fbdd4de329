package services

import (
	"context"
	"fmt"

	"github.com/kujifair/kuji-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slog"
)

// Compile-time check to ensure ReconcilerImpl implements Reconciler
var _ Reconciler = (*ReconcilerImpl)(nil)

// ReconcilerImpl recomputes the cached remaining counters from the draw
// ledger. The ledger is immutable and append-only, so the expected counter
// values are always derivable: product remaining is totalCount minus numbered
// records, tier remaining is total minus records for that tier. Any
// divergence is logged as a consistency violation and repaired; nothing is
// ever guessed.
type ReconcilerImpl struct {
	productRepo repositories.ProductRepository
	tierRepo    repositories.PrizeTierRepository
	drawRepo    repositories.DrawRecordRepository
}

// NewReconciler creates a new ReconcilerImpl
func NewReconciler(
	productRepo repositories.ProductRepository,
	tierRepo repositories.PrizeTierRepository,
	drawRepo repositories.DrawRecordRepository,
) *ReconcilerImpl {
	return &ReconcilerImpl{
		productRepo: productRepo,
		tierRepo:    tierRepo,
		drawRepo:    drawRepo,
	}
}

// ReconcileProduct checks and repairs one product's counters against the ledger
func (r *ReconcilerImpl) ReconcileProduct(ctx context.Context, productID primitive.ObjectID) (*ReconcileReport, error) {
	product, err := r.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("product not found: %w", err)
	}

	numbered, err := r.drawRepo.CountNumbered(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to count ledger records: %w", err)
	}

	report := &ReconcileReport{
		ProductID:         productID,
		ObservedRemaining: product.Remaining,
		ExpectedRemaining: product.TotalCount - numbered,
	}

	if report.ObservedRemaining != report.ExpectedRemaining {
		slog.Error("Product counter diverged from ledger",
			"error", ErrConsistencyViolation,
			"productId", productID,
			"observed", report.ObservedRemaining,
			"expected", report.ExpectedRemaining)
		if err := r.productRepo.SetRemaining(ctx, productID, report.ExpectedRemaining); err != nil {
			return nil, fmt.Errorf("failed to repair product counter: %w", err)
		}
		report.ProductRepaired = true
	}

	tiers, err := r.tierRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prize tiers: %w", err)
	}
	for _, tier := range tiers {
		drawn, err := r.drawRepo.CountByTier(ctx, tier.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count tier records: %w", err)
		}
		expected := tier.Total - drawn
		if tier.Remaining == expected {
			continue
		}
		slog.Error("Tier counter diverged from ledger",
			"error", ErrConsistencyViolation,
			"tierId", tier.ID,
			"level", tier.Level.String(),
			"observed", tier.Remaining,
			"expected", expected)
		if err := r.tierRepo.SetRemaining(ctx, tier.ID, expected); err != nil {
			return nil, fmt.Errorf("failed to repair tier counter: %w", err)
		}
		report.TierFixes = append(report.TierFixes, TierFix{
			TierID:   tier.ID,
			Level:    tier.Level.String(),
			Expected: expected,
			Observed: tier.Remaining,
		})
	}

	if report.Clean() {
		slog.Info("Reconciliation clean", "productId", productID)
	}
	return report, nil
}

// ReconcileAll runs the reconciliation pass over every product
func (r *ReconcilerImpl) ReconcileAll(ctx context.Context) ([]*ReconcileReport, error) {
	products, err := r.productRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	reports := make([]*ReconcileReport, 0, len(products))
	for _, product := range products {
		report, err := r.ReconcileProduct(ctx, product.ID)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
