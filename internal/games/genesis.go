package games

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
)

// Genesis is the one-time signup wheel.
const Genesis = "genesis"

// GenesisJackpotChance is the draw threshold for the 1000 credit prize.
const GenesisJackpotChance = 0.0001

var genesisPrizes = []int64{1000, 5, 0, 0, 2, 1}

// GenesisOdds weights each prize segment by its selection probability.
// Multipliers hold the flat prize amount.
var GenesisOdds = mustValidate(func() OddsTable {
	entries := make([]OddsEntry, len(genesisPrizes))
	other := (1 - GenesisJackpotChance) / float64(len(genesisPrizes)-1)
	for i, p := range genesisPrizes {
		w := other
		if i == 0 {
			w = GenesisJackpotChance
		}
		entries[i] = OddsEntry{
			OutcomeID:  fmt.Sprintf("prize-%d", i),
			Weight:     w,
			Multiplier: decimal.NewFromInt(p),
		}
	}
	return OddsTable{Game: Genesis, Selection: SelectionIndex, Entries: entries}
}())

// GenesisSpin is the result of the signup wheel.
type GenesisSpin struct {
	Segment int             `json:"segment"`
	Prize   decimal.Decimal `json:"prize"`
}

// SpinGenesis draws once: below GenesisJackpotChance lands the jackpot,
// otherwise one of the remaining five segments.
func SpinGenesis(src engine.Source) GenesisSpin {
	d := src.Draw()
	segment := 0
	if d >= GenesisJackpotChance {
		segment = 1 + floorIndex(d, len(genesisPrizes)-1)
	}
	return GenesisSpin{Segment: segment, Prize: GenesisOdds.Entries[segment].Multiplier}
}
