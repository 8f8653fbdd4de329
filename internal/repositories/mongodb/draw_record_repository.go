package mongodb

import (
	"context"
	"time"

	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DrawRecordRepository implements the repositories.DrawRecordRepository
// interface. The collection carries a unique index on
// (productId, ticketNumber); see EnsureIndexes.
type DrawRecordRepository struct {
	collection *mongo.Collection
}

// NewDrawRecordRepository creates a new DrawRecordRepository
func NewDrawRecordRepository(db *mongo.Database) repositories.DrawRecordRepository {
	return &DrawRecordRepository{
		collection: db.Collection("draw_records"),
	}
}

// Create appends a record to the ledger. A duplicate (productId, ticketNumber)
// pair is rejected by the unique index and surfaced as ErrDuplicateDrawRecord.
func (r *DrawRecordRepository) Create(ctx context.Context, record *models.DrawRecord) error {
	record.CreatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicateDrawRecord
		}
		return err
	}
	record.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// CountNumbered counts records with ticketNumber > 0 for a product
func (r *DrawRecordRepository) CountNumbered(ctx context.Context, productID primitive.ObjectID) (int, error) {
	filter := bson.M{
		"productId":    productID,
		"ticketNumber": bson.M{"$gt": models.LastOneTicketNumber},
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// CountByTier counts all records resolved to a tier
func (r *DrawRecordRepository) CountByTier(ctx context.Context, tierID primitive.ObjectID) (int, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"tierId": tierID})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// FindByProduct returns a product's records in draw order
func (r *DrawRecordRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.DrawRecord, error) {
	opts := options.Find().SetSort(bson.M{"nonce": 1})
	return r.find(ctx, bson.M{"productId": productID}, opts)
}

// FindByUser returns a user's records, newest first
func (r *DrawRecordRepository) FindByUser(ctx context.Context, userID string) ([]*models.DrawRecord, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

func (r *DrawRecordRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.DrawRecord, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.DrawRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []*models.DrawRecord{}
	}
	return records, nil
}
