package models

import "time"

// VerifyRequest is the body of the public verification endpoint. Nonce is
// accepted as either a JSON number or a numeric string; nothing is ever
// defaulted, a missing field is a client error.
type VerifyRequest struct {
	Seed         string      `json:"seed"`
	Nonce        interface{} `json:"nonce"`
	ExpectedHash string      `json:"expectedHash"`
}

// VerifyResponse is the successful verification payload.
type VerifyResponse struct {
	RandomValue float64 `json:"randomValue"`
	HashMatch   bool    `json:"hashMatch"`
	TxidHash    string  `json:"txidHash"`
}

// RateResponse echoes the effective rate configuration for a product.
type RateResponse struct {
	ProductID         string    `json:"productId"`
	CurrentProfitRate float64   `json:"currentProfitRate"`
	UpdatedAt         time.Time `json:"updatedAt"`
	UpdatedBy         string    `json:"updatedBy"`
}

// UpdateRateRequest is the body of the rate configuration write endpoint.
// ProfitRate is a pointer so that an absent field is distinguishable from an
// explicit zero.
type UpdateRateRequest struct {
	ProfitRate *float64 `json:"profitRate"`
}

// DrawRequest is the body of the draw endpoint.
type DrawRequest struct {
	Count int `json:"count" binding:"required,min=1"`
}

// DrawResult is one consumed ticket within a draw response, in consumption
// order. The Last One bonus appears as a trailing entry with ticket number 0.
type DrawResult struct {
	TicketNumber int    `json:"ticketNumber"`
	TierID       string `json:"prizeTierId"`
	PrizeLevel   string `json:"prizeLevel"`
	PrizeName    string `json:"prizeName"`
	PrizeImage   string `json:"prizeImage,omitempty"`
}

// TierProbability is a tier's displayed probability after the rate overlay
// has been applied. The raw probability table is never exposed.
type TierProbability struct {
	Level       string  `json:"level"`
	Name        string  `json:"name"`
	Remaining   int     `json:"remaining"`
	Probability float64 `json:"probability"`
}
