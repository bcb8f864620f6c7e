package games

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
)

// Game identifiers.
const (
	Dice   = "dice"
	Wheel  = "wheel"
	Mines  = "mines"
	Plinko = "plinko"
)

// Kind describes a game's turn structure.
type Kind string

const (
	KindSingleShot Kind = "single_shot"
	KindMultiStep  Kind = "multi_step"
	KindContinuous Kind = "continuous"
)

// GameSpec describes a playable game.
type GameSpec struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	MetricLabel string        `json:"metric_label"`
	Kind        Kind          `json:"kind"`
	RevealDelay time.Duration `json:"reveal_delay_ms"`
}

var registry = map[string]GameSpec{
	Dice: {
		ID:          Dice,
		Name:        "Quantum Dice",
		MetricLabel: "face",
		Kind:        KindSingleShot,
		RevealDelay: 3 * time.Second,
	},
	Wheel: {
		ID:          Wheel,
		Name:        "Fortune Wheel",
		MetricLabel: "segment",
		Kind:        KindSingleShot,
		RevealDelay: 6 * time.Second,
	},
	Mines: {
		ID:          Mines,
		Name:        "Holographic Mines",
		MetricLabel: "cell",
		Kind:        KindMultiStep,
	},
	Plinko: {
		ID:          Plinko,
		Name:        "Cyber Plinko",
		MetricLabel: "bucket",
		Kind:        KindContinuous,
		RevealDelay: 650 * time.Millisecond,
	},
}

// Lookup returns the spec for a game ID.
func Lookup(id string) (GameSpec, error) {
	spec, ok := registry[id]
	if !ok {
		return GameSpec{}, fmt.Errorf("%w: %q", domain.ErrUnknownGame, id)
	}
	return spec, nil
}

// ListGames returns all game specs sorted by ID.
func ListGames() []GameSpec {
	specs := make([]GameSpec, 0, len(registry))
	for _, spec := range registry {
		specs = append(specs, spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs
}

// Outcome is the resolved result of one settled action.
type Outcome struct {
	ID         string          `json:"id"`
	Game       string          `json:"game"`
	Stake      decimal.Decimal `json:"stake"`
	Won        bool            `json:"won"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	Terminal   bool            `json:"terminal"`
	Details    map[string]any  `json:"details,omitempty"`
	ResolvedAt time.Time       `json:"resolved_at"`
	// RevealAt is a pacing hint for the UI. The ledger is already final.
	RevealAt time.Time `json:"reveal_at"`
}

// NewOutcome builds an Outcome with payout = stake * multiplier.
func NewOutcome(game string, stake, multiplier decimal.Decimal, won, terminal bool) Outcome {
	return Outcome{
		ID:         uuid.NewString(),
		Game:       game,
		Stake:      stake,
		Won:        won,
		Multiplier: multiplier,
		Payout:     stake.Mul(multiplier),
		Terminal:   terminal,
		Details:    map[string]any{},
	}
}

// Profit is payout minus stake.
func (o Outcome) Profit() decimal.Decimal {
	return o.Payout.Sub(o.Stake)
}

// Stamp sets the resolution time and the reveal hint from the game's delay.
func (o *Outcome) Stamp(now time.Time) {
	o.ResolvedAt = now
	o.RevealAt = now
	if spec, ok := registry[o.Game]; ok {
		o.RevealAt = now.Add(spec.RevealDelay)
	}
}

// ValidateStake rejects non-positive stakes before any draw happens.
func ValidateStake(stake decimal.Decimal) error {
	if !stake.IsPositive() {
		return fmt.Errorf("%w: stake must be > 0, got %s", domain.ErrInvalidStake, stake)
	}
	return nil
}

// floorIndex maps a draw onto [0, n) clamping float edge cases.
func floorIndex(draw float64, n int) int {
	idx := int(draw * float64(n))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
