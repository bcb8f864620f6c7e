package games

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
)

const (
	MinesGridSize = 25
	// MinesEscalateAfter is the number of safe reveals after which the
	// late mine chance applies.
	MinesEscalateAfter = 2
)

var minesRevealCredit = decimal.RequireFromString("0.25")

// MinesEarlyOdds applies while fewer than MinesEscalateAfter cells are cleared.
var MinesEarlyOdds = mustValidate(OddsTable{
	Game:      Mines,
	Selection: SelectionDirect,
	Entries: []OddsEntry{
		{OutcomeID: "safe", Weight: 0.80, Multiplier: minesRevealCredit},
	},
})

// MinesLateOdds applies once the session has escalated.
var MinesLateOdds = mustValidate(OddsTable{
	Game:      Mines,
	Selection: SelectionDirect,
	Entries: []OddsEntry{
		{OutcomeID: "safe", Weight: 0.15, Multiplier: minesRevealCredit},
	},
})

// MinesOddsFor returns the table used for the next reveal.
func MinesOddsFor(stepsCleared int) OddsTable {
	if stepsCleared >= MinesEscalateAfter {
		return MinesLateOdds
	}
	return MinesEarlyOdds
}

// MineChance is the probability that the next reveal is a mine.
func MineChance(stepsCleared int) float64 {
	return 1 - MinesOddsFor(stepsCleared).Probability("safe")
}

// MinesDisplayMultiplier is the running multiplier shown to the player.
func MinesDisplayMultiplier(stepsCleared int) decimal.Decimal {
	return decimal.NewFromInt(1).Add(minesRevealCredit.Mul(decimal.NewFromInt(int64(stepsCleared))))
}

// MinesReveal is the raw result of revealing one cell.
type MinesReveal struct {
	Cell       int             `json:"cell"`
	Mine       bool            `json:"mine"`
	MineChance float64         `json:"mine_chance"`
	Credit     decimal.Decimal `json:"credit"`
}

// RevealCell draws once against the mine chance for stepsCleared.
func RevealCell(stake decimal.Decimal, stepsCleared, cell int, src engine.Source) (MinesReveal, error) {
	if cell < 0 || cell >= MinesGridSize {
		return MinesReveal{}, fmt.Errorf("mines cell %d out of range [0,%d)", cell, MinesGridSize)
	}

	table := MinesOddsFor(stepsCleared)
	chance := 1 - table.Probability("safe")
	reveal := MinesReveal{Cell: cell, MineChance: chance}
	if src.Draw() < chance {
		reveal.Mine = true
		reveal.Credit = decimal.Zero
		return reveal, nil
	}
	reveal.Credit = stake.Mul(table.Entries[0].Multiplier)
	return reveal, nil
}
