package services

import "errors"

// Error taxonomy shared across the service layer. Callers wrap these with the
// offending field or product for context and match with errors.Is.
var (
	// ErrMissingParameter signals a required field was absent. Never defaulted.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidParameter signals a malformed field (bad id, negative rate,
	// non-numeric nonce).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInsufficientInventory signals a draw request exceeding the remaining
	// ticket count. The draw aborts with no partial mutation.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrProductNotActive signals a draw against a sold-out or archived pool.
	ErrProductNotActive = errors.New("product is not active")

	// ErrConsistencyViolation signals a counter/ledger mismatch detected by
	// reconciliation. Internal, logged and repaired from the ledger.
	ErrConsistencyViolation = errors.New("consistency violation")

	// ErrSeedNotRevealable signals an attempt to reveal the seed of a pool
	// that is still selling.
	ErrSeedNotRevealable = errors.New("seed can only be revealed once the pool is exhausted or archived")
)
