package games

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
)

func TestMineChanceEscalates(t *testing.T) {
	assert.InDelta(t, 0.20, MineChance(0), 1e-9)
	assert.InDelta(t, 0.20, MineChance(1), 1e-9)
	assert.InDelta(t, 0.85, MineChance(2), 1e-9)
	assert.InDelta(t, 0.85, MineChance(10), 1e-9)
}

func TestRevealCellEscalation(t *testing.T) {
	// The same draw is safe early and a mine once two cells are cleared.
	stake := decimal.NewFromInt(10)
	seq := engine.NewSequence(0.5)

	var mines []bool
	steps := 0
	for cell := 0; cell < 3; cell++ {
		reveal, err := RevealCell(stake, steps, cell, seq)
		require.NoError(t, err)
		mines = append(mines, reveal.Mine)
		if !reveal.Mine {
			assert.True(t, reveal.Credit.Equal(decimal.RequireFromString("2.5")))
			steps++
		} else {
			assert.True(t, reveal.Credit.IsZero())
		}
	}
	assert.Equal(t, []bool{false, false, true}, mines)
	assert.Equal(t, 3, seq.Consumed())
}

func TestRevealCellBoundaries(t *testing.T) {
	stake := decimal.NewFromInt(4)

	reveal, err := RevealCell(stake, 0, 0, engine.NewSequence(0.19))
	require.NoError(t, err)
	assert.True(t, reveal.Mine)

	reveal, err = RevealCell(stake, 0, 24, engine.NewSequence(0.2))
	require.NoError(t, err)
	assert.False(t, reveal.Mine)
	assert.True(t, reveal.Credit.Equal(decimal.NewFromInt(1)))

	_, err = RevealCell(stake, 0, MinesGridSize, engine.NewSequence(0.9))
	assert.Error(t, err)
	_, err = RevealCell(stake, 0, -1, engine.NewSequence(0.9))
	assert.Error(t, err)
}

func TestMinesDisplayMultiplier(t *testing.T) {
	assert.True(t, MinesDisplayMultiplier(0).Equal(decimal.NewFromInt(1)))
	assert.True(t, MinesDisplayMultiplier(3).Equal(decimal.RequireFromString("1.75")))
}

func TestMinesLateSurvivalRate(t *testing.T) {
	src := engine.NewSeededSource(99)
	const reveals = 50_000
	safe := 0
	for i := 0; i < reveals; i++ {
		r, err := RevealCell(decimal.NewFromInt(1), MinesEscalateAfter, i%MinesGridSize, src)
		require.NoError(t, err)
		if !r.Mine {
			safe++
		}
	}
	assert.InDelta(t, 0.15, float64(safe)/reveals, 0.01)
}
