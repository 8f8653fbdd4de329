package services

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/kujifair/kuji-backend/internal/models"
	"github.com/kujifair/kuji-backend/pkg/fairness"
)

// Compile-time check to ensure VerificationServiceImpl implements VerificationService
var _ VerificationService = (*VerificationServiceImpl)(nil)

// VerificationServiceImpl lets any party re-derive a draw's hash and random
// value from (seed, nonce) and compare against a published commitment. It
// holds no state and touches no storage: identical inputs always produce
// identical outputs, which is what makes the scheme auditable. It never
// exposes the probability table or tier boundaries.
type VerificationServiceImpl struct{}

// NewVerificationService creates a new VerificationServiceImpl
func NewVerificationService() *VerificationServiceImpl {
	return &VerificationServiceImpl{}
}

// Verify validates the request and recomputes the commitment. A hash mismatch
// is reported as HashMatch false, not as an error; only malformed input is
// rejected.
func (s *VerificationServiceImpl) Verify(req *models.VerifyRequest) (*models.VerifyResponse, error) {
	if req.Seed == "" {
		return nil, fmt.Errorf("%w: seed", ErrMissingParameter)
	}
	if req.Nonce == nil {
		return nil, fmt.Errorf("%w: nonce", ErrMissingParameter)
	}
	if req.ExpectedHash == "" {
		return nil, fmt.Errorf("%w: expectedHash", ErrMissingParameter)
	}

	nonce, err := parseNonce(req.Nonce)
	if err != nil {
		return nil, err
	}

	result := fairness.Verify(req.Seed, nonce, req.ExpectedHash)
	return &models.VerifyResponse{
		RandomValue: result.RandomValue,
		HashMatch:   result.HashMatch,
		TxidHash:    result.TxidHash,
	}, nil
}

// parseNonce accepts the nonce as a JSON number or a numeric string. Nothing
// is coerced to a default: a non-integer nonce is rejected.
func parseNonce(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: nonce must be an integer", ErrInvalidParameter)
		}
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: nonce %q is not numeric", ErrInvalidParameter, v)
		}
		return n, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: nonce %q is not an integer", ErrInvalidParameter, v.String())
		}
		return n, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: nonce must be a number or numeric string", ErrInvalidParameter)
	}
}
