package api

import (
	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/history"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/ledger"
)

// EngineError is the body of every error response.
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types
const (
	// Input validation errors
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"
	ErrTypeInvalidStake  = "invalid_stake"

	// Game and ledger errors
	ErrTypeGameNotFound        = "game_not_found"
	ErrTypeNotFound            = "not_found"
	ErrTypeInsufficientBalance = "insufficient_balance"
	ErrTypeInvalidState        = "invalid_session_state"
	ErrTypeAutoplayConflict    = "autoplay_conflict"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory groups error types for logging and the X-Error-Category header.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryGame       ErrorCategory = "game"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidParams, ErrTypeValidation, ErrTypeInvalidStake:
		return CategoryValidation
	case ErrTypeGameNotFound, ErrTypeNotFound, ErrTypeInsufficientBalance, ErrTypeInvalidState, ErrTypeAutoplayConflict:
		return CategoryGame
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains build information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// BetRequest places a single-shot bet or opens a mines round.
type BetRequest struct {
	Stake decimal.Decimal `json:"stake"`
}

// RevealRequest opens one mines cell.
type RevealRequest struct {
	Cell *int `json:"cell" validate:"required,min=0,max=24"`
}

// DropRequest launches a plinko ball.
type DropRequest struct {
	Stake decimal.Decimal `json:"stake"`
	Risk  string          `json:"risk" validate:"required,max=16"`
	Rows  int             `json:"rows" validate:"required"`
}

// AdvanceRequest steps the plinko field.
type AdvanceRequest struct {
	Frames int `json:"frames" validate:"omitempty,min=1,max=600"`
}

// DepositRequest adds purchased credits.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// AutoplayStartRequest starts a strategy script.
type AutoplayStartRequest struct {
	Script string `json:"script" validate:"required,max=65536"`
}

// HistoryQuery filters and pages GET /history.
type HistoryQuery struct {
	Game    string `validate:"omitempty,max=32"`
	RunID   string `validate:"omitempty,max=64"`
	Page    int    `validate:"min=1,max=100000"`
	PerPage int    `validate:"min=1,max=500"`
}

// GamesResponse lists the playable games.
type GamesResponse struct {
	Games         []games.GameSpec `json:"games"`
	EngineVersion string           `json:"engine_version"`
}

// PackagesResponse lists the credit packages.
type PackagesResponse struct {
	Packages []ledger.Package `json:"packages"`
}

// SummaryResponse aggregates history per game.
type SummaryResponse struct {
	Games []history.GameSummary `json:"games"`
}

// ExitResponse reports the ledger after leaving a game.
type ExitResponse struct {
	Game   string          `json:"game"`
	Ledger ledger.Snapshot `json:"ledger"`
}
