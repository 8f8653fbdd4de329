package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TicketRepository implements the repositories.TicketRepository interface
type TicketRepository struct {
	collection *mongo.Collection
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *mongo.Database) repositories.TicketRepository {
	return &TicketRepository{
		collection: db.Collection("tickets"),
	}
}

// CreateMany inserts the full ticket assignment of a pool
func (r *TicketRepository) CreateMany(ctx context.Context, tickets []*models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	docs := make([]interface{}, len(tickets))
	for i, t := range tickets {
		docs[i] = t
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// ClaimNth claims the n-th unclaimed ticket (by ascending number) of a
// product. Selection and claim are two steps, so a racing draw can steal the
// ticket in between; the conditional update on claimed=false detects that and
// reports ErrTicketContended instead of handing the ticket out twice.
func (r *TicketRepository) ClaimNth(ctx context.Context, productID primitive.ObjectID, n int, userID string) (*models.Ticket, error) {
	filter := bson.M{"productId": productID, "claimed": false}
	findOpts := options.FindOne().
		SetSort(bson.M{"number": 1}).
		SetSkip(int64(n))

	var candidate models.Ticket
	if err := r.collection.FindOne(ctx, filter, findOpts).Decode(&candidate); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrTicketContended
		}
		return nil, err
	}

	claimFilter := bson.M{
		"productId": productID,
		"number":    candidate.Number,
		"claimed":   false,
	}
	update := bson.M{"$set": bson.M{
		"claimed":   true,
		"claimedBy": userID,
		"claimedAt": time.Now(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var claimed models.Ticket
	err := r.collection.FindOneAndUpdate(ctx, claimFilter, update, opts).Decode(&claimed)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrTicketContended
		}
		return nil, err
	}
	return &claimed, nil
}

// CountUnclaimed counts the unclaimed tickets of a product
func (r *TicketRepository) CountUnclaimed(ctx context.Context, productID primitive.ObjectID) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"productId": productID, "claimed": false})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// FindByProduct returns all tickets of a product ordered by number
func (r *TicketRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.Ticket, error) {
	opts := options.Find().SetSort(bson.M{"number": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"productId": productID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tickets []*models.Ticket
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, err
	}
	if tickets == nil {
		tickets = []*models.Ticket{}
	}
	return tickets, nil
}
