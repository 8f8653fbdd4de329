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

// PrizeTierRepository implements the repositories.PrizeTierRepository interface
type PrizeTierRepository struct {
	collection *mongo.Collection
}

// NewPrizeTierRepository creates a new PrizeTierRepository
func NewPrizeTierRepository(db *mongo.Database) repositories.PrizeTierRepository {
	return &PrizeTierRepository{
		collection: db.Collection("prize_tiers"),
	}
}

// CreateMany inserts the tiers of a pool, assigning generated IDs back
func (r *PrizeTierRepository) CreateMany(ctx context.Context, tiers []*models.PrizeTier) error {
	if len(tiers) == 0 {
		return nil
	}
	docs := make([]interface{}, len(tiers))
	for i, tier := range tiers {
		if tier.ID.IsZero() {
			tier.ID = primitive.NewObjectID()
		}
		docs[i] = tier
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return err
}

// FindByID finds a tier by ID
func (r *PrizeTierRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.PrizeTier, error) {
	var tier models.PrizeTier
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tier)
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// FindByProduct returns the tiers of a product ordered by level. The Last One
// tier carries the highest level ordinal, so it always sorts last.
func (r *PrizeTierRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.PrizeTier, error) {
	opts := options.Find().SetSort(bson.M{"level": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"productId": productID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tiers []*models.PrizeTier
	if err := cursor.All(ctx, &tiers); err != nil {
		return nil, err
	}
	if tiers == nil {
		tiers = []*models.PrizeTier{}
	}
	return tiers, nil
}

// DecrementRemaining decrements the tier's remaining counter while positive
func (r *PrizeTierRepository) DecrementRemaining(ctx context.Context, id primitive.ObjectID) (int, error) {
	filter := bson.M{"_id": id, "remaining": bson.M{"$gt": 0}}
	update := bson.M{"$inc": bson.M{"remaining": -1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var tier models.PrizeTier
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&tier)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repositories.ErrExhausted
		}
		return 0, err
	}
	return tier.Remaining, nil
}

// SetRemaining overwrites the remaining counter (reconciliation only)
func (r *PrizeTierRepository) SetRemaining(ctx context.Context, id primitive.ObjectID, remaining int) error {
	update := bson.M{"$set": bson.M{"remaining": remaining, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
