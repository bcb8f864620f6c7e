package games

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Selection tells how an OddsTable's weights are read.
type Selection int

const (
	// SelectionDirect weights are probabilities of mutually exclusive
	// outcomes; whatever is left below 1 is the implicit no-win.
	SelectionDirect Selection = iota
	// SelectionIndex weights are relative frequencies of table indices.
	SelectionIndex
)

const probabilityEpsilon = 1e-9

// OddsEntry is one row of an odds table.
type OddsEntry struct {
	OutcomeID  string          `json:"outcome_id"`
	Weight     float64         `json:"weight"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// OddsTable declares a game's outcomes, their weights and payouts.
type OddsTable struct {
	Game      string      `json:"game"`
	Selection Selection   `json:"selection"`
	Entries   []OddsEntry `json:"entries"`
}

// Validate checks weights are non-negative and, for direct tables, that
// the probabilities do not exceed 1.
func (t OddsTable) Validate() error {
	if len(t.Entries) == 0 {
		return fmt.Errorf("odds table %q has no entries", t.Game)
	}

	total := 0.0
	for _, e := range t.Entries {
		if e.Weight < 0 {
			return fmt.Errorf("odds table %q: negative weight %f for %q", t.Game, e.Weight, e.OutcomeID)
		}
		if e.Multiplier.IsNegative() {
			return fmt.Errorf("odds table %q: negative multiplier for %q", t.Game, e.OutcomeID)
		}
		total += e.Weight
	}

	switch t.Selection {
	case SelectionDirect:
		if total > 1+probabilityEpsilon {
			return fmt.Errorf("odds table %q: probabilities sum to %f (> 1)", t.Game, total)
		}
	case SelectionIndex:
		if total <= 0 {
			return fmt.Errorf("odds table %q: index weights sum to zero", t.Game)
		}
	default:
		return fmt.Errorf("odds table %q: unknown selection %d", t.Game, t.Selection)
	}
	return nil
}

// Entry returns the entry with the given outcome ID.
func (t OddsTable) Entry(outcomeID string) (OddsEntry, bool) {
	for _, e := range t.Entries {
		if e.OutcomeID == outcomeID {
			return e, true
		}
	}
	return OddsEntry{}, false
}

// Probability returns the chance of outcomeID under this table.
func (t OddsTable) Probability(outcomeID string) float64 {
	e, ok := t.Entry(outcomeID)
	if !ok {
		return 0
	}
	if t.Selection == SelectionDirect {
		return e.Weight
	}
	return e.Weight / t.totalWeight()
}

// ExpectedMultiplier is the mean payout multiplier per unit staked.
func (t OddsTable) ExpectedMultiplier() float64 {
	sum := 0.0
	for _, e := range t.Entries {
		m, _ := e.Multiplier.Float64()
		sum += e.Weight * m
	}
	if t.Selection == SelectionIndex {
		return sum / t.totalWeight()
	}
	return sum
}

func (t OddsTable) totalWeight() float64 {
	total := 0.0
	for _, e := range t.Entries {
		total += e.Weight
	}
	return total
}

func mustValidate(t OddsTable) OddsTable {
	if err := t.Validate(); err != nil {
		panic(err)
	}
	return t
}
