package models

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PrizeLevel is the grade of a prize tier. Levels carry an explicit total
// ordering: A sorts first, the Last One bonus always sorts last, regardless
// of how the operator spelled the label.
type PrizeLevel int

const (
	LevelA PrizeLevel = iota + 1
	LevelB
	LevelC
	LevelD
	LevelE
	LevelF
	LevelG
	LevelH
	// LevelLastOne is the guaranteed bonus awarded exactly once per pool, on
	// the draw that consumes the final numbered ticket. It sits outside the
	// numbered pool and outside probability-sum validation.
	LevelLastOne PrizeLevel = 100
)

var levelLabels = map[PrizeLevel]string{
	LevelA:       "A",
	LevelB:       "B",
	LevelC:       "C",
	LevelD:       "D",
	LevelE:       "E",
	LevelF:       "F",
	LevelG:       "G",
	LevelH:       "H",
	LevelLastOne: "Last One",
}

// String returns the canonical label for the level.
func (l PrizeLevel) String() string {
	if s, ok := levelLabels[l]; ok {
		return s
	}
	return fmt.Sprintf("PrizeLevel(%d)", int(l))
}

// IsLastOne reports whether the level is the Last One bonus tier.
func (l PrizeLevel) IsLastOne() bool {
	return l == LevelLastOne
}

// ParseLevel normalizes an operator-supplied label into a PrizeLevel.
// Variants like "LAST ONE", "lastone" and "最後賞" all map to LevelLastOne.
func ParseLevel(label string) (PrizeLevel, error) {
	normalized := strings.ToUpper(strings.TrimSpace(label))
	switch normalized {
	case "LAST ONE", "LASTONE", "LAST_ONE", "最後賞", "ラストワン賞", "ラストワン":
		return LevelLastOne, nil
	}
	if len(normalized) == 1 && normalized[0] >= 'A' && normalized[0] <= 'H' {
		return LevelA + PrizeLevel(normalized[0]-'A'), nil
	}
	return 0, fmt.Errorf("unknown prize level label %q", label)
}

// MarshalJSON serializes the level as its canonical label.
func (l PrizeLevel) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", l.String())), nil
}

// UnmarshalJSON accepts any label variant ParseLevel understands.
func (l *PrizeLevel) UnmarshalJSON(data []byte) error {
	label := strings.Trim(string(data), `"`)
	parsed, err := ParseLevel(label)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// PrizeTier is one prize grade within a pool. Total and Remaining count the
// physical prizes of that grade; Probability is the nominal display weight.
// The ticket->tier assignment is fixed at pool creation, so a tier's actual
// odds are determined by its share of the numbered tickets.
type PrizeTier struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	Level       PrizeLevel         `bson:"level" json:"level"`
	Name        string             `bson:"name" json:"name"`
	ImageURL    string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Total       int                `bson:"total" json:"total"`
	Remaining   int                `bson:"remaining" json:"remaining"`
	Probability float64            `bson:"probability" json:"probability"`
}
