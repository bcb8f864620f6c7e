package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
)

// CellState is the visible state of one mines cell.
type CellState string

const (
	CellHidden CellState = "hidden"
	CellSafe   CellState = "safe"
	CellMine   CellState = "mine"
)

// MinesRound is one mines session from stake to mine or cash out.
type MinesRound struct {
	ID           string                         `json:"id"`
	Stake        decimal.Decimal                `json:"stake"`
	Cells        [games.MinesGridSize]CellState `json:"cells"`
	StepsCleared int                            `json:"steps_cleared"`
	Active       bool                           `json:"active"`
	Credited     decimal.Decimal                `json:"credited"`
}

// NewMinesRound opens an active round with every cell hidden.
func NewMinesRound(stake decimal.Decimal) *MinesRound {
	r := &MinesRound{
		ID:       uuid.NewString(),
		Stake:    stake,
		Active:   true,
		Credited: decimal.Zero,
	}
	for i := range r.Cells {
		r.Cells[i] = CellHidden
	}
	return r
}

// CheckReveal reports whether cell may be revealed next.
func (r *MinesRound) CheckReveal(cell int) error {
	if r == nil || !r.Active {
		return fmt.Errorf("%w: no active mines session", domain.ErrInvalidSessionState)
	}
	if cell < 0 || cell >= len(r.Cells) {
		return fmt.Errorf("%w: cell %d out of range", domain.ErrInvalidSessionState, cell)
	}
	if r.Cells[cell] != CellHidden {
		return fmt.Errorf("%w: cell %d already revealed", domain.ErrInvalidSessionState, cell)
	}
	return nil
}

// MarkSafe records a safe reveal and its credit.
func (r *MinesRound) MarkSafe(cell int, credit decimal.Decimal) {
	r.Cells[cell] = CellSafe
	r.StepsCleared++
	r.Credited = r.Credited.Add(credit)
}

// MarkMine records the mine and closes the round.
func (r *MinesRound) MarkMine(cell int) {
	r.Cells[cell] = CellMine
	r.Active = false
}

// Close ends the round without touching the grid.
func (r *MinesRound) Close() {
	r.Active = false
}

// Multiplier is the running display multiplier.
func (r *MinesRound) Multiplier() decimal.Decimal {
	return games.MinesDisplayMultiplier(r.StepsCleared)
}

// InProfit reports whether credited reveals exceed the stake.
func (r *MinesRound) InProfit() bool {
	return r.Credited.GreaterThan(r.Stake)
}
