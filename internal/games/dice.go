package games

import (
	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
)

const (
	// DiceStreakCap is the number of consecutive wins after which the next
	// roll is forced to lose.
	DiceStreakCap   = 2
	DiceWinChance   = 0.25
	diceWinningFace = 6
	diceLosingFaces = 5
)

var diceMultiplier = decimal.RequireFromString("2.5")

// DiceOdds declares the single winning face; losses are the remainder.
var DiceOdds = mustValidate(OddsTable{
	Game:      Dice,
	Selection: SelectionDirect,
	Entries: []OddsEntry{
		{OutcomeID: "six", Weight: DiceWinChance, Multiplier: diceMultiplier},
	},
})

// DiceRoll is the raw result of one roll.
type DiceRoll struct {
	Face   int  `json:"face"`
	Won    bool `json:"won"`
	Forced bool `json:"forced"`
}

// RollDice resolves a roll given the current win streak.
//
// A forced loss consumes one draw (the face). Otherwise the first draw
// decides win/loss and a loss takes a second draw for the face.
func RollDice(streak int, src engine.Source) DiceRoll {
	if streak >= DiceStreakCap {
		return DiceRoll{Face: losingFace(src.Draw()), Forced: true}
	}
	if src.Draw() < DiceOdds.Entries[0].Weight {
		return DiceRoll{Face: diceWinningFace, Won: true}
	}
	return DiceRoll{Face: losingFace(src.Draw())}
}

func losingFace(draw float64) int {
	return 1 + floorIndex(draw, diceLosingFaces)
}

// ResolveDice rolls and builds the Outcome for stake.
func ResolveDice(stake decimal.Decimal, streak int, src engine.Source) (Outcome, DiceRoll, error) {
	if err := ValidateStake(stake); err != nil {
		return Outcome{}, DiceRoll{}, err
	}

	roll := RollDice(streak, src)
	multiplier := decimal.Zero
	if roll.Won {
		multiplier = DiceOdds.Entries[0].Multiplier
	}

	out := NewOutcome(Dice, stake, multiplier, roll.Won, true)
	out.Details["face"] = roll.Face
	out.Details["forced_loss"] = roll.Forced
	return out, roll, nil
}
