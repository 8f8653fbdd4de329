package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ticket is one numbered unit of pool inventory. The tier assignment is
// materialized once at pool creation and never recomputed, which is what makes
// a draw auditable: a ticket number maps to exactly one tier for the life of
// the pool. A unique index on (productId, number) backs the claim operation.
type Ticket struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	Number    int                `bson:"number" json:"number"`
	TierID    primitive.ObjectID `bson:"tierId" json:"tierId"`
	Claimed   bool               `bson:"claimed" json:"claimed"`
	ClaimedBy string             `bson:"claimedBy,omitempty" json:"claimedBy,omitempty"`
	ClaimedAt time.Time          `bson:"claimedAt,omitempty" json:"claimedAt,omitempty"`
}
