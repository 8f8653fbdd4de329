package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NeutralProfitRate is the multiplier applied when no rate has been
// configured for a product.
const NeutralProfitRate = 1.0

// RateConfig is the operator-configured profit-rate multiplier for one
// product. It adjusts displayed probabilities and draw weighting only; it
// never touches the commitment, the ticket assignment or the draw ledger.
type RateConfig struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID  primitive.ObjectID `bson:"productId" json:"productId"`
	ProfitRate float64            `bson:"profitRate" json:"profitRate"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
	UpdatedBy  string             `bson:"updatedBy" json:"updatedBy"`
}
