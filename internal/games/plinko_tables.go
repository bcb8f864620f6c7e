package games

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Plinko payout tables keyed by risk then rows. Each table has rows+1
// symmetric buckets with the lowest multipliers in the centre.
var plinkoPayouts = map[Risk]map[int][]float64{
	RiskLow: {
		8:  {5.6, 2.1, 1.1, 1, 0.5, 1, 1.1, 2.1, 5.6},
		12: {10, 3, 1.6, 1.4, 1.1, 1, 0.5, 1, 1.1, 1.4, 1.6, 3, 10},
		16: {16, 9, 2, 1.4, 1.4, 1.2, 1.1, 1, 0.5, 1, 1.1, 1.2, 1.4, 1.4, 2, 9, 16},
	},
	RiskMedium: {
		8:  {13, 3, 1.3, 0.7, 0.4, 0.7, 1.3, 3, 13},
		12: {33, 11, 4, 2, 1.1, 0.6, 0.3, 0.6, 1.1, 2, 4, 11, 33},
		16: {110, 41, 10, 5, 3, 1.5, 1, 0.5, 0.3, 0.5, 1, 1.5, 3, 5, 10, 41, 110},
	},
	RiskHigh: {
		8:  {29, 4, 1.5, 0.3, 0.2, 0.3, 1.5, 4, 29},
		12: {170, 24, 8.1, 2, 0.7, 0.2, 0.2, 0.2, 0.7, 2, 8.1, 24, 170},
		16: {1000, 130, 26, 9, 4, 2, 0.2, 0.2, 0.2, 0.2, 0.2, 2, 4, 9, 26, 130, 1000},
	},
}

var plinkoOdds = loadPlinkoOdds()

func loadPlinkoOdds() map[Risk]map[int]OddsTable {
	result := make(map[Risk]map[int]OddsTable, len(plinkoPayouts))
	for risk, byRows := range plinkoPayouts {
		result[risk] = make(map[int]OddsTable, len(byRows))
		for rows, multipliers := range byRows {
			if len(multipliers) != rows+1 {
				panic(fmt.Sprintf("plinko table mismatch for risk %q rows %d: expected %d entries, got %d", risk, rows, rows+1, len(multipliers)))
			}

			weights := plinkoBucketWeights(len(multipliers))
			entries := make([]OddsEntry, len(multipliers))
			for i, m := range multipliers {
				entries[i] = OddsEntry{
					OutcomeID:  fmt.Sprintf("bucket-%d", i),
					Weight:     weights[i],
					Multiplier: decimal.NewFromFloat(m),
				}
			}
			result[risk][rows] = mustValidate(OddsTable{Game: Plinko, Selection: SelectionIndex, Entries: entries})
		}
	}
	return result
}

// plinkoBucketWeights is the selection distribution produced by PickBucket.
func plinkoBucketWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = (1 - PlinkoCenterBias) / float64(n)
	}
	for _, c := range plinkoCenterBuckets(n) {
		weights[c] += PlinkoCenterBias / 2
	}
	return weights
}

// PlinkoOdds returns the odds table for a risk tier and row count.
func PlinkoOdds(risk Risk, rows int) (OddsTable, error) {
	byRows, ok := plinkoOdds[risk]
	if !ok {
		return OddsTable{}, fmt.Errorf("no plinko table for risk %q", risk)
	}
	table, ok := byRows[rows]
	if !ok {
		return OddsTable{}, fmt.Errorf("no plinko table for risk %q with %d rows", risk, rows)
	}
	return table, nil
}
