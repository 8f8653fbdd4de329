package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LastOneTicketNumber is the reserved ticket number for the Last One bonus
// record. It is not part of the numbered pool and does not count against
// Product.Remaining.
const LastOneTicketNumber = 0

// DrawRecord is the immutable ledger entry for one consumed ticket. Records
// are append-only and owned by the draw engine; the cached remaining counters
// on Product and PrizeTier are recomputable from these records at any time.
// A unique index on (productId, ticketNumber) structurally prevents double
// allocation of a ticket, and, because the Last One record uses ticket number
// 0, also prevents a second Last One award.
type DrawRecord struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID    primitive.ObjectID `bson:"productId" json:"productId"`
	TicketNumber int                `bson:"ticketNumber" json:"ticketNumber"`
	TierID       primitive.ObjectID `bson:"tierId" json:"tierId"`
	UserID       string             `bson:"userId" json:"userId"`
	Nonce        int64              `bson:"nonce" json:"nonce"`
	RandomValue  float64            `bson:"randomValue" json:"randomValue"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsLastOne reports whether the record is the Last One bonus draw.
func (r *DrawRecord) IsLastOne() bool {
	return r.TicketNumber == LastOneTicketNumber
}
