package games

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
)

func TestRollDice(t *testing.T) {
	tests := []struct {
		name       string
		streak     int
		draws      []float64
		wantFace   int
		wantWon    bool
		wantForced bool
		wantDraws  int
	}{
		{name: "winning draw", streak: 0, draws: []float64{0.1}, wantFace: 6, wantWon: true, wantDraws: 1},
		{name: "edge of win branch loses", streak: 0, draws: []float64{0.25, 0.0}, wantFace: 1, wantDraws: 2},
		{name: "losing draw picks face", streak: 1, draws: []float64{0.5, 0.3}, wantFace: 2, wantDraws: 2},
		{name: "highest losing face", streak: 0, draws: []float64{0.9, 0.999}, wantFace: 5, wantDraws: 2},
		{name: "streak cap forces loss", streak: 2, draws: []float64{0.1}, wantFace: 1, wantForced: true, wantDraws: 1},
		{name: "above cap still forced", streak: 5, draws: []float64{0.85}, wantFace: 5, wantForced: true, wantDraws: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := engine.NewSequence(tt.draws...)
			roll := RollDice(tt.streak, seq)
			assert.Equal(t, tt.wantFace, roll.Face)
			assert.Equal(t, tt.wantWon, roll.Won)
			assert.Equal(t, tt.wantForced, roll.Forced)
			assert.Equal(t, tt.wantDraws, seq.Consumed())
		})
	}
}

func TestResolveDiceThreeWinsInARow(t *testing.T) {
	// Every draw would win on its own; the third roll must still lose.
	seq := engine.NewSequence(0.01)
	stake := decimal.NewFromInt(10)

	streak := 0
	var results []bool
	for i := 0; i < 3; i++ {
		out, roll, err := ResolveDice(stake, streak, seq)
		require.NoError(t, err)
		results = append(results, out.Won)
		if roll.Won {
			streak++
		} else {
			streak = 0
		}
	}
	assert.Equal(t, []bool{true, true, false}, results)
	assert.Equal(t, 0, streak)
}

func TestResolveDicePayout(t *testing.T) {
	out, _, err := ResolveDice(decimal.NewFromInt(4), 0, engine.NewSequence(0.2))
	require.NoError(t, err)
	assert.True(t, out.Won)
	assert.True(t, out.Terminal)
	assert.True(t, out.Payout.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 6, out.Details["face"])

	out, _, err = ResolveDice(decimal.NewFromInt(4), 0, engine.NewSequence(0.7, 0.1))
	require.NoError(t, err)
	assert.False(t, out.Won)
	assert.True(t, out.Payout.IsZero())
}

func TestResolveDiceRejectsStakeBeforeDrawing(t *testing.T) {
	seq := engine.NewSequence(0.1)
	_, _, err := ResolveDice(decimal.Zero, 0, seq)
	assert.Error(t, err)
	assert.Equal(t, 0, seq.Consumed())
}

func TestDiceWinRate(t *testing.T) {
	src := engine.NewSeededSource(7)
	const rolls = 100_000
	wins := 0
	for i := 0; i < rolls; i++ {
		if RollDice(0, src).Won {
			wins++
		}
	}
	assert.InDelta(t, DiceWinChance, float64(wins)/rolls, 0.01)
}
