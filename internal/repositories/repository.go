package repositories

import (
	"context"
	"errors"

	"github.com/kujifair/kuji-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrTicketContended is returned by ClaimNth when the targeted ticket was
// claimed by a racing draw between selection and claim. Callers retry against
// the updated unclaimed set.
var ErrTicketContended = errors.New("ticket claimed concurrently")

// ErrDuplicateDrawRecord is returned when inserting a draw record whose
// (productId, ticketNumber) pair already exists in the ledger.
var ErrDuplicateDrawRecord = errors.New("draw record already exists for ticket")

// ErrExhausted is returned by NextNonce and DecrementRemaining when the pool
// has no inventory left to consume.
var ErrExhausted = errors.New("no remaining inventory")

// ProductRepository defines the interface for draw pool data operations
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindAll(ctx context.Context) ([]*models.Product, error)
	// NextNonce atomically increments the product's draw counter and returns
	// the new value. Every draw consumes exactly one nonce.
	NextNonce(ctx context.Context, id primitive.ObjectID) (int64, error)
	// DecrementRemaining decrements the remaining counter only while it is
	// positive, returning the new value. ErrExhausted when already zero.
	DecrementRemaining(ctx context.Context, id primitive.ObjectID) (int, error)
	SetRemaining(ctx context.Context, id primitive.ObjectID, remaining int) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ProductStatus) error
	RevealSeed(ctx context.Context, id primitive.ObjectID) error
}

// TicketRepository defines the interface for the materialized ticket->tier
// assignment of a pool.
type TicketRepository interface {
	CreateMany(ctx context.Context, tickets []*models.Ticket) error
	// ClaimNth claims the n-th (0-based, by ascending number) unclaimed ticket
	// of a product for userID. The claim is atomic: a ticket is handed to at
	// most one caller. ErrTicketContended signals a lost race.
	ClaimNth(ctx context.Context, productID primitive.ObjectID, n int, userID string) (*models.Ticket, error)
	CountUnclaimed(ctx context.Context, productID primitive.ObjectID) (int, error)
	FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.Ticket, error)
}

// PrizeTierRepository defines the interface for prize tier data operations
type PrizeTierRepository interface {
	CreateMany(ctx context.Context, tiers []*models.PrizeTier) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeTier, error)
	// FindByProduct returns the product's tiers ordered by level, Last One last.
	FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.PrizeTier, error)
	DecrementRemaining(ctx context.Context, id primitive.ObjectID) (int, error)
	SetRemaining(ctx context.Context, id primitive.ObjectID, remaining int) error
}

// DrawRecordRepository defines the interface for the append-only draw ledger.
type DrawRecordRepository interface {
	// Create appends a record. ErrDuplicateDrawRecord when the ticket number
	// was already recorded for the product.
	Create(ctx context.Context, record *models.DrawRecord) error
	// CountNumbered counts records with ticketNumber > 0 for a product.
	CountNumbered(ctx context.Context, productID primitive.ObjectID) (int, error)
	CountByTier(ctx context.Context, tierID primitive.ObjectID) (int, error)
	FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.DrawRecord, error)
	FindByUser(ctx context.Context, userID string) ([]*models.DrawRecord, error)
}

// RateConfigRepository defines the interface for profit-rate configuration.
type RateConfigRepository interface {
	// FindByProduct returns nil, nil when no rate has been configured.
	FindByProduct(ctx context.Context, productID primitive.ObjectID) (*models.RateConfig, error)
	Upsert(ctx context.Context, config *models.RateConfig) error
}

// AdminUserRepository defines the interface for operator account operations
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}
