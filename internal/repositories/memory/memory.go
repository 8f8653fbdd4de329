// Package memory provides mutex-guarded in-memory implementations of the
// repository interfaces. They mirror the atomicity semantics of the MongoDB
// implementations (conditional decrements, atomic ticket claims, duplicate
// ledger rejection) and back the service tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store holds all in-memory collections behind a single mutex, so every
// repository operation is atomic with respect to the others.
type Store struct {
	mu          sync.Mutex
	products    map[primitive.ObjectID]*models.Product
	tickets     map[primitive.ObjectID][]*models.Ticket // keyed by product ID
	tiers       map[primitive.ObjectID]*models.PrizeTier
	records     []*models.DrawRecord
	recordKeys  map[string]bool // productID.Hex() + "#" + ticketNumber
	rateConfigs map[primitive.ObjectID]*models.RateConfig
	adminUsers  map[string]*models.AdminUser // keyed by email
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		products:    make(map[primitive.ObjectID]*models.Product),
		tickets:     make(map[primitive.ObjectID][]*models.Ticket),
		tiers:       make(map[primitive.ObjectID]*models.PrizeTier),
		recordKeys:  make(map[string]bool),
		rateConfigs: make(map[primitive.ObjectID]*models.RateConfig),
		adminUsers:  make(map[string]*models.AdminUser),
	}
}

// Products returns the product repository view of the store.
func (s *Store) Products() repositories.ProductRepository { return &productRepo{s} }

// Tickets returns the ticket repository view of the store.
func (s *Store) Tickets() repositories.TicketRepository { return &ticketRepo{s} }

// PrizeTiers returns the prize tier repository view of the store.
func (s *Store) PrizeTiers() repositories.PrizeTierRepository { return &tierRepo{s} }

// DrawRecords returns the draw ledger view of the store.
func (s *Store) DrawRecords() repositories.DrawRecordRepository { return &recordRepo{s} }

// RateConfigs returns the rate config repository view of the store.
func (s *Store) RateConfigs() repositories.RateConfigRepository { return &rateRepo{s} }

// AdminUsers returns the operator account repository view of the store.
func (s *Store) AdminUsers() repositories.AdminUserRepository { return &adminRepo{s} }

func recordKey(productID primitive.ObjectID, ticketNumber int) string {
	return productID.Hex() + "#" + strconv.Itoa(ticketNumber)
}

// --- ProductRepository ---

type productRepo struct{ s *Store }

func (r *productRepo) Create(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()
	clone := *product
	r.s.products[product.ID] = &clone
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	product, ok := r.s.products[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	clone := *product
	return &clone, nil
}

func (r *productRepo) FindAll(_ context.Context) ([]*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	products := make([]*models.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		clone := *p
		products = append(products, &clone)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (r *productRepo) NextNonce(_ context.Context, id primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	product, ok := r.s.products[id]
	if !ok {
		return 0, mongo.ErrNoDocuments
	}
	if product.Remaining <= 0 {
		return 0, repositories.ErrExhausted
	}
	product.DrawCounter++
	return product.DrawCounter, nil
}

func (r *productRepo) DecrementRemaining(_ context.Context, id primitive.ObjectID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	product, ok := r.s.products[id]
	if !ok {
		return 0, mongo.ErrNoDocuments
	}
	if product.Remaining <= 0 {
		return 0, repositories.ErrExhausted
	}
	product.Remaining--
	product.UpdatedAt = time.Now()
	return product.Remaining, nil
}

func (r *productRepo) SetRemaining(_ context.Context, id primitive.ObjectID, remaining int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	product, ok := r.s.products[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	product.Remaining = remaining
	product.UpdatedAt = time.Now()
	return nil
}

func (r *productRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, status models.ProductStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	product, ok := r.s.products[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	product.Status = status
	product.UpdatedAt = time.Now()
	return nil
}

func (r *productRepo) RevealSeed(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	product, ok := r.s.products[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	product.SeedRevealed = true
	product.UpdatedAt = time.Now()
	return nil
}

// --- TicketRepository ---

type ticketRepo struct{ s *Store }

func (r *ticketRepo) CreateMany(_ context.Context, tickets []*models.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range tickets {
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		clone := *t
		r.s.tickets[t.ProductID] = append(r.s.tickets[t.ProductID], &clone)
	}
	return nil
}

func (r *ticketRepo) ClaimNth(_ context.Context, productID primitive.ObjectID, n int, userID string) (*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var unclaimed []*models.Ticket
	for _, t := range r.s.tickets[productID] {
		if !t.Claimed {
			unclaimed = append(unclaimed, t)
		}
	}
	if n >= len(unclaimed) {
		return nil, repositories.ErrTicketContended
	}
	sort.Slice(unclaimed, func(i, j int) bool { return unclaimed[i].Number < unclaimed[j].Number })
	ticket := unclaimed[n]
	ticket.Claimed = true
	ticket.ClaimedBy = userID
	ticket.ClaimedAt = time.Now()
	clone := *ticket
	return &clone, nil
}

func (r *ticketRepo) CountUnclaimed(_ context.Context, productID primitive.ObjectID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, t := range r.s.tickets[productID] {
		if !t.Claimed {
			count++
		}
	}
	return count, nil
}

func (r *ticketRepo) FindByProduct(_ context.Context, productID primitive.ObjectID) ([]*models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tickets := make([]*models.Ticket, 0, len(r.s.tickets[productID]))
	for _, t := range r.s.tickets[productID] {
		clone := *t
		tickets = append(tickets, &clone)
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].Number < tickets[j].Number })
	return tickets, nil
}

// --- PrizeTierRepository ---

type tierRepo struct{ s *Store }

func (r *tierRepo) CreateMany(_ context.Context, tiers []*models.PrizeTier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tier := range tiers {
		if tier.ID.IsZero() {
			tier.ID = primitive.NewObjectID()
		}
		clone := *tier
		r.s.tiers[tier.ID] = &clone
	}
	return nil
}

func (r *tierRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.PrizeTier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tier, ok := r.s.tiers[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	clone := *tier
	return &clone, nil
}

func (r *tierRepo) FindByProduct(_ context.Context, productID primitive.ObjectID) ([]*models.PrizeTier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var tiers []*models.PrizeTier
	for _, tier := range r.s.tiers {
		if tier.ProductID == productID {
			clone := *tier
			tiers = append(tiers, &clone)
		}
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Level < tiers[j].Level })
	return tiers, nil
}

func (r *tierRepo) DecrementRemaining(_ context.Context, id primitive.ObjectID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tier, ok := r.s.tiers[id]
	if !ok {
		return 0, mongo.ErrNoDocuments
	}
	if tier.Remaining <= 0 {
		return 0, repositories.ErrExhausted
	}
	tier.Remaining--
	return tier.Remaining, nil
}

func (r *tierRepo) SetRemaining(_ context.Context, id primitive.ObjectID, remaining int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tier, ok := r.s.tiers[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	tier.Remaining = remaining
	return nil
}

// --- DrawRecordRepository ---

type recordRepo struct{ s *Store }

func (r *recordRepo) Create(_ context.Context, record *models.DrawRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := recordKey(record.ProductID, record.TicketNumber)
	if r.s.recordKeys[key] {
		return repositories.ErrDuplicateDrawRecord
	}
	record.ID = primitive.NewObjectID()
	record.CreatedAt = time.Now()
	clone := *record
	r.s.records = append(r.s.records, &clone)
	r.s.recordKeys[key] = true
	return nil
}

func (r *recordRepo) CountNumbered(_ context.Context, productID primitive.ObjectID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, rec := range r.s.records {
		if rec.ProductID == productID && rec.TicketNumber > models.LastOneTicketNumber {
			count++
		}
	}
	return count, nil
}

func (r *recordRepo) CountByTier(_ context.Context, tierID primitive.ObjectID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	count := 0
	for _, rec := range r.s.records {
		if rec.TierID == tierID {
			count++
		}
	}
	return count, nil
}

func (r *recordRepo) FindByProduct(_ context.Context, productID primitive.ObjectID) ([]*models.DrawRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var records []*models.DrawRecord
	for _, rec := range r.s.records {
		if rec.ProductID == productID {
			clone := *rec
			records = append(records, &clone)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Nonce < records[j].Nonce })
	return records, nil
}

func (r *recordRepo) FindByUser(_ context.Context, userID string) ([]*models.DrawRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var records []*models.DrawRecord
	for _, rec := range r.s.records {
		if rec.UserID == userID {
			clone := *rec
			records = append(records, &clone)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })
	return records, nil
}

// --- RateConfigRepository ---

type rateRepo struct{ s *Store }

func (r *rateRepo) FindByProduct(_ context.Context, productID primitive.ObjectID) (*models.RateConfig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	config, ok := r.s.rateConfigs[productID]
	if !ok {
		return nil, nil
	}
	clone := *config
	return &clone, nil
}

func (r *rateRepo) Upsert(_ context.Context, config *models.RateConfig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	config.UpdatedAt = time.Now()
	clone := *config
	r.s.rateConfigs[config.ProductID] = &clone
	return nil
}

// --- AdminUserRepository ---

type adminRepo struct{ s *Store }

func (r *adminRepo) Create(_ context.Context, adminUser *models.AdminUser) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if adminUser.ID.IsZero() {
		adminUser.ID = primitive.NewObjectID()
	}
	adminUser.CreatedAt = time.Now()
	adminUser.UpdatedAt = time.Now()
	clone := *adminUser
	r.s.adminUsers[adminUser.Email] = &clone
	return nil
}

func (r *adminRepo) FindByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	adminUser, ok := r.s.adminUsers[email]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	clone := *adminUser
	return &clone, nil
}
