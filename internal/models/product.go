package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStatus represents the lifecycle state of a draw pool
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusSoldOut  ProductStatus = "SOLD_OUT"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// Product represents one kuji draw pool: a fixed set of numbered tickets
// (1..TotalCount) pre-assigned to prize tiers, plus the fairness commitment
// published when the pool goes on sale. The seed is secret until the pool is
// exhausted or the operator reveals it explicitly.
type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	ImageURL     string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	TotalCount   int                `bson:"totalCount" json:"totalCount"`
	Remaining    int                `bson:"remaining" json:"remaining"`
	Seed         string             `bson:"seed" json:"-"` // never serialized to clients
	TxidHash     string             `bson:"txidHash" json:"txidHash"`
	DrawCounter  int64              `bson:"drawCounter" json:"-"` // nonce source, incremented per draw
	Status       ProductStatus      `bson:"status" json:"status"`
	SeedRevealed bool               `bson:"seedRevealed" json:"seedRevealed"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}
