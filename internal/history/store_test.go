package history

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func bet(game string, stake, payout int64, won bool) Bet {
	st := decimal.NewFromInt(stake)
	pa := decimal.NewFromInt(payout)
	return Bet{
		Game:       game,
		Stake:      st,
		Payout:     pa,
		Multiplier: pa.Div(st),
		Profit:     pa.Sub(st),
		Won:        won,
		Details:    map[string]any{"face": 6},
		CreatedAt:  time.Now(),
	}
}

func TestInsertAndListBets(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.InsertBets(ctx, []Bet{
		bet("dice", 10, 25, true),
		bet("dice", 10, 0, false),
		bet("wheel", 5, 10, true),
	}))

	page, err := s.ListBets(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Bets, 3)
	assert.Equal(t, "wheel", page.Bets[0].Game, "newest first")
	assert.Equal(t, SourceManual, page.Bets[0].Source)
	assert.NotEmpty(t, page.Bets[0].ID)
	assert.EqualValues(t, 6, page.Bets[2].Details["face"])
	assert.True(t, page.Bets[2].Payout.Equal(decimal.NewFromInt(25)))

	page, err = s.ListBets(ctx, Query{Game: "dice", PerPage: 1, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Bets, 1)
	assert.False(t, page.Bets[0].Won)
}

func TestListBetsCapsPageSize(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.InsertBets(ctx, []Bet{bet("dice", 1, 0, false)}))

	page, err := s.ListBets(ctx, Query{PerPage: 1 << 50})
	require.NoError(t, err)
	assert.Equal(t, MaxPerPage, page.PerPage)
	assert.Len(t, page.Bets, 1)

	page, err = s.ListBets(ctx, Query{Game: "wheel"})
	require.NoError(t, err)
	assert.NotNil(t, page.Bets, "an empty page encodes as an empty list")
	assert.Empty(t, page.Bets)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.InsertBets(ctx, []Bet{
		bet("dice", 10, 25, true),
		bet("dice", 10, 0, false),
		bet("plinko", 4, 2, false),
	}))

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, sum, 2)

	dice := sum[0]
	assert.Equal(t, "dice", dice.Game)
	assert.Equal(t, 2, dice.Bets)
	assert.Equal(t, 1, dice.Wins)
	assert.True(t, dice.Wagered.Equal(decimal.NewFromInt(20)))
	assert.True(t, dice.Profit.Equal(decimal.NewFromInt(5)))
	assert.InDelta(t, 1.25, dice.RTP, 1e-9)
	assert.InDelta(t, 0.5, dice.HitRate, 1e-9)

	assert.Equal(t, "plinko", sum[1].Game)
	assert.InDelta(t, 0.5, sum[1].RTP, 1e-9)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	run := &Run{Game: "dice", ScriptSource: "function dobet(){}", StartBalance: decimal.NewFromInt(100)}
	id, err := s.CreateRun(ctx, run)
	require.NoError(t, err)

	b := bet("dice", 1, 0, false)
	b.Source = SourceAutoplay
	b.RunID = id
	require.NoError(t, s.InsertBets(ctx, []Bet{b, bet("dice", 1, 0, false)}))

	require.NoError(t, s.EndRun(ctx, id, "stopped", RunStats{
		FinalBalance: decimal.NewFromInt(99),
		TotalBets:    1,
		TotalLosses:  1,
		TotalProfit:  decimal.NewFromInt(-1),
		TotalWagered: decimal.NewFromInt(1),
		LowestStreak: -1,
	}))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "stopped", runs[0].FinalState)
	require.NotNil(t, runs[0].FinalBalance)
	assert.True(t, runs[0].FinalBalance.Equal(decimal.NewFromInt(99)))
	assert.NotNil(t, runs[0].EndedAt)

	page, err := s.ListBets(ctx, Query{RunID: id})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalCount)

	assert.Error(t, s.EndRun(ctx, "missing", "stopped", RunStats{}))
}

func TestRecorderFlushesOnReadAndSize(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	r := NewRecorder(s, 3)

	require.NoError(t, r.RecordBet(ctx, bet("dice", 1, 0, false)))
	require.NoError(t, r.RecordBet(ctx, bet("dice", 1, 0, false)))
	assert.Equal(t, 2, r.Pending())

	raw, err := s.ListBets(ctx, Query{})
	require.NoError(t, err)
	assert.Zero(t, raw.TotalCount)

	require.NoError(t, r.RecordBet(ctx, bet("dice", 1, 0, false)))
	assert.Zero(t, r.Pending())

	require.NoError(t, r.RecordBet(ctx, bet("wheel", 1, 2, true)))
	page, err := r.ListBets(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalCount)
	assert.Zero(t, r.Pending())
}
