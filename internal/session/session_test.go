package session

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
)

func TestStreak(t *testing.T) {
	var s Streak
	s.Record(true)
	s.Record(true)
	assert.Equal(t, 2, s.Count)
	s.Record(false)
	assert.Equal(t, 0, s.Count)
	s.Win()
	s.Reset()
	assert.Equal(t, 0, s.Count)
}

func TestMinesRoundLifecycle(t *testing.T) {
	r := NewMinesRound(decimal.NewFromInt(10))
	require.True(t, r.Active)
	for _, c := range r.Cells {
		require.Equal(t, CellHidden, c)
	}

	require.NoError(t, r.CheckReveal(3))
	r.MarkSafe(3, decimal.RequireFromString("2.5"))
	assert.Equal(t, 1, r.StepsCleared)
	assert.True(t, r.Multiplier().Equal(decimal.RequireFromString("1.25")))
	assert.ErrorIs(t, r.CheckReveal(3), domain.ErrInvalidSessionState)
	assert.ErrorIs(t, r.CheckReveal(25), domain.ErrInvalidSessionState)

	r.MarkMine(4)
	assert.False(t, r.Active)
	assert.Equal(t, CellMine, r.Cells[4])
	assert.ErrorIs(t, r.CheckReveal(5), domain.ErrInvalidSessionState)
}

func TestMinesRoundInProfit(t *testing.T) {
	r := NewMinesRound(decimal.NewFromInt(4))
	for cell := 0; cell < 4; cell++ {
		r.MarkSafe(cell, decimal.NewFromInt(1))
	}
	assert.False(t, r.InProfit(), "credit equal to stake is break-even")
	r.MarkSafe(4, decimal.NewFromInt(1))
	assert.True(t, r.InProfit())
}

func TestNilRoundRejectsReveal(t *testing.T) {
	var r *MinesRound
	assert.ErrorIs(t, r.CheckReveal(0), domain.ErrInvalidSessionState)
}

func TestBallFollowsPath(t *testing.T) {
	for _, rows := range games.PlinkoRows {
		for _, bucket := range []int{0, rows / 2, rows} {
			drop := games.PlinkoDrop{Rows: rows, Bucket: bucket, Path: games.PlinkoPath(rows, bucket)}
			b := newBall("out", drop)
			frames := 0
			for !b.Landed {
				b.Step()
				frames++
				require.Less(t, frames, 100)
			}
			assert.Equal(t, rows, b.RowIndex)
			assert.InDelta(t, ballStartX+pegSpacingHalf*float64(2*bucket-rows), b.Position.X, 1e-9)
			assert.Equal(t, 39, frames)
		}
	}
}

func TestFieldAdvanceRetiresLandedBalls(t *testing.T) {
	f := NewField()
	drop := games.PlinkoDrop{Rows: 8, Bucket: 4, Path: games.PlinkoPath(8, 4)}
	first := f.Launch("a", drop)
	assert.Equal(t, 1, f.InFlight())

	assert.Empty(t, f.Advance(20))
	second := f.Launch("b", drop)
	require.Len(t, f.Balls(), 2)

	landed := f.Advance(19)
	require.Len(t, landed, 1)
	assert.Equal(t, first.ID, landed[0].ID)
	assert.Equal(t, "a", landed[0].OutcomeID)

	remaining := f.Balls()
	require.Len(t, remaining, 1)
	assert.Equal(t, second.ID, remaining[0].ID)

	f.Reset()
	assert.Zero(t, f.InFlight())
}
