package services

import (
	"context"

	"github.com/kujifair/kuji-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TierSpec describes one prize tier when creating a pool.
type TierSpec struct {
	Level       string  `json:"level" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	ImageURL    string  `json:"imageUrl"`
	Total       int     `json:"total" binding:"required,min=1"`
	Probability float64 `json:"probability"`
}

// CreatePoolRequest describes a new draw pool. Tier totals (excluding the
// Last One tier) must sum to TotalCount.
type CreatePoolRequest struct {
	Name       string     `json:"name" binding:"required"`
	ImageURL   string     `json:"imageUrl"`
	TotalCount int        `json:"totalCount" binding:"required,min=1"`
	Tiers      []TierSpec `json:"tiers" binding:"required"`
}

// ProductView is the customer-facing view of a pool: commitment published,
// seed withheld (unless revealed), probabilities already passed through the
// rate overlay.
type ProductView struct {
	Product *models.Product          `json:"product"`
	Tiers   []models.TierProbability `json:"tiers"`
	// Seed is only populated once the pool has been revealed.
	Seed string `json:"seed,omitempty"`
}

// ProductService defines the interface for pool lifecycle operations
type ProductService interface {
	CreatePool(ctx context.Context, req *CreatePoolRequest) (*models.Product, error)
	GetProduct(ctx context.Context, id primitive.ObjectID) (*ProductView, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	// RevealSeed publishes the pool's seed so anyone can audit past draws.
	// Allowed only once the pool is sold out or archived.
	RevealSeed(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

// DrawService defines the interface for draw execution and history
type DrawService interface {
	// ExecuteDraw consumes count tickets for userID, in a well-defined
	// sequential order, and returns the outcomes in consumption order.
	ExecuteDraw(ctx context.Context, productID primitive.ObjectID, count int, userID string) ([]models.DrawResult, error)
	GetDrawsByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.DrawRecord, error)
	GetDrawsByUser(ctx context.Context, userID string) ([]*models.DrawRecord, error)
}

// VerificationService defines the interface for the commit-reveal audit
// endpoint. Verify is a pure function of its inputs.
type VerificationService interface {
	Verify(req *models.VerifyRequest) (*models.VerifyResponse, error)
}

// RateService defines the interface for the profit-rate overlay
type RateService interface {
	GetRate(ctx context.Context, productID primitive.ObjectID) (*models.RateResponse, error)
	SetRate(ctx context.Context, productID primitive.ObjectID, profitRate float64, updatedBy string) (*models.RateResponse, error)
	// EffectiveRate is the configured rate plus any escalation steps the
	// pool's consumption has crossed. One consistent snapshot per call.
	EffectiveRate(ctx context.Context, product *models.Product) (float64, error)
	// AdjustedProbabilities returns the displayed per-tier probabilities
	// under the effective rate. The Last One tier is passed through untouched.
	AdjustedProbabilities(ctx context.Context, product *models.Product, tiers []*models.PrizeTier) ([]models.TierProbability, error)
}

// TierFix describes one repaired tier counter.
type TierFix struct {
	TierID   primitive.ObjectID `json:"tierId"`
	Level    string             `json:"level"`
	Expected int                `json:"expected"`
	Observed int                `json:"observed"`
}

// ReconcileReport is the outcome of one product's reconciliation pass.
type ReconcileReport struct {
	ProductID         primitive.ObjectID `json:"productId"`
	ObservedRemaining int                `json:"observedRemaining"`
	ExpectedRemaining int                `json:"expectedRemaining"`
	ProductRepaired   bool               `json:"productRepaired"`
	TierFixes         []TierFix          `json:"tierFixes"`
}

// Clean reports whether the pass found no divergence.
func (r *ReconcileReport) Clean() bool {
	return !r.ProductRepaired && len(r.TierFixes) == 0
}

// Reconciler recomputes cached remaining counters from the draw ledger.
// The ledger is the source of truth; counters are a cache.
type Reconciler interface {
	ReconcileProduct(ctx context.Context, productID primitive.ObjectID) (*ReconcileReport, error)
	ReconcileAll(ctx context.Context) ([]*ReconcileReport, error)
}

// AuthService defines the interface for operator authentication
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.AdminUser, error)
	Login(ctx context.Context, req *models.LoginRequest) (string, error) // Returns JWT token
}
