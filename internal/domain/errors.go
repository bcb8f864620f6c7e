package domain

import "errors"

// Error message strings shared by the sentinels below and by tests
// that match on message fragments.
const (
	// Stake and balance errors
	ErrMsgInvalidStake        = "invalid stake"
	ErrMsgInvalidAmount       = "invalid amount"
	ErrMsgInsufficientBalance = "insufficient balance"

	// Session errors
	ErrMsgInvalidSessionState = "invalid session state"

	// Reward errors
	ErrMsgDuplicateClaim = "reward already claimed"

	// Game configuration errors
	ErrMsgUnknownGame    = "unknown game"
	ErrMsgInvalidRisk    = "invalid risk tier"
	ErrMsgInvalidRows    = "invalid row count"
	ErrMsgUnknownPackage = "unknown credit package"

	// Lookup errors
	ErrMsgOutcomeNotFound = "outcome not found"
)

// Domain errors used across packages.
// Wrap with fmt.Errorf("%w: %s", domain.ErrXxx, details) to add context.
var (
	ErrInvalidStake        = errors.New(ErrMsgInvalidStake)
	ErrInvalidAmount       = errors.New(ErrMsgInvalidAmount)
	ErrInsufficientBalance = errors.New(ErrMsgInsufficientBalance)

	ErrInvalidSessionState = errors.New(ErrMsgInvalidSessionState)

	// ErrDuplicateClaim is reported for one-time rewards that were already
	// granted. Callers treat it as a no-op rather than a failure.
	ErrDuplicateClaim = errors.New(ErrMsgDuplicateClaim)

	ErrUnknownGame    = errors.New(ErrMsgUnknownGame)
	ErrInvalidRisk    = errors.New(ErrMsgInvalidRisk)
	ErrInvalidRows    = errors.New(ErrMsgInvalidRows)
	ErrUnknownPackage = errors.New(ErrMsgUnknownPackage)

	ErrOutcomeNotFound = errors.New(ErrMsgOutcomeNotFound)
)
