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

// RateConfigRepository implements the repositories.RateConfigRepository interface
type RateConfigRepository struct {
	collection *mongo.Collection
}

// NewRateConfigRepository creates a new RateConfigRepository
func NewRateConfigRepository(db *mongo.Database) repositories.RateConfigRepository {
	return &RateConfigRepository{
		collection: db.Collection("rate_configs"),
	}
}

// FindByProduct finds the rate config for a product; nil when unset
func (r *RateConfigRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) (*models.RateConfig, error) {
	var config models.RateConfig
	err := r.collection.FindOne(ctx, bson.M{"productId": productID}).Decode(&config)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// Upsert writes the rate config for a product, replacing any existing one
func (r *RateConfigRepository) Upsert(ctx context.Context, config *models.RateConfig) error {
	config.UpdatedAt = time.Now()
	filter := bson.M{"productId": config.ProductID}
	update := bson.M{"$set": bson.M{
		"productId":  config.ProductID,
		"profitRate": config.ProfitRate,
		"updatedAt":  config.UpdatedAt,
		"updatedBy":  config.UpdatedBy,
	}}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	return err
}
