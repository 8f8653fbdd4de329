package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the draw engine's correctness depends on.
// The unique index on draw_records (productId, ticketNumber) is the structural
// guard against double allocation; everything else is for query performance.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		"draw_records": {
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "ticketNumber", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "tierId", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}}},
		},
		"tickets": {
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "number", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "claimed", Value: 1}, {Key: "number", Value: 1}}},
		},
		"prize_tiers": {
			{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "level", Value: 1}}},
		},
		"rate_configs": {
			{Keys: bson.D{{Key: "productId", Value: 1}}, Options: unique},
		},
		"admin_users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
	}

	for collection, models := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}
	return nil
}
