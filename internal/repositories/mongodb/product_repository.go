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

// ProductRepository implements the repositories.ProductRepository interface
type ProductRepository struct {
	collection *mongo.Collection
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *mongo.Database) repositories.ProductRepository {
	return &ProductRepository{
		collection: db.Collection("products"),
	}
}

// Create creates a new product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()
	res, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		return err
	}
	product.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindByID finds a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindAll finds all products, newest first
func (r *ProductRepository) FindAll(ctx context.Context) ([]*models.Product, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var products []*models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []*models.Product{}
	}
	return products, nil
}

// NextNonce atomically increments the draw counter and returns the new value.
// The guard on remaining > 0 means a nonce can only be minted while inventory
// is left, so concurrent over-draws fail here before touching any ticket.
func (r *ProductRepository) NextNonce(ctx context.Context, id primitive.ObjectID) (int64, error) {
	filter := bson.M{"_id": id, "remaining": bson.M{"$gt": 0}}
	update := bson.M{"$inc": bson.M{"drawCounter": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repositories.ErrExhausted
		}
		return 0, err
	}
	return product.DrawCounter, nil
}

// DecrementRemaining decrements the remaining counter while it is positive
func (r *ProductRepository) DecrementRemaining(ctx context.Context, id primitive.ObjectID) (int, error) {
	filter := bson.M{"_id": id, "remaining": bson.M{"$gt": 0}}
	update := bson.M{
		"$inc": bson.M{"remaining": -1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repositories.ErrExhausted
		}
		return 0, err
	}
	return product.Remaining, nil
}

// SetRemaining overwrites the remaining counter (reconciliation only)
func (r *ProductRepository) SetRemaining(ctx context.Context, id primitive.ObjectID, remaining int) error {
	update := bson.M{"$set": bson.M{"remaining": remaining, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// UpdateStatus updates the product lifecycle status
func (r *ProductRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ProductStatus) error {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// RevealSeed marks the seed as publicly revealed
func (r *ProductRepository) RevealSeed(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"seedRevealed": true, "updatedAt": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
