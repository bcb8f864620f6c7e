package casino

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/history"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/ledger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/scripting"
)

func newAutoplayRig(t *testing.T, balance string, draws ...float64) (*Engine, *scripting.Engine, *history.Store) {
	t.Helper()
	store, err := history.Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	e := New(
		WithLedger(ledger.New(ledger.WithStartingBalance(dec(balance)))),
		WithSource(engine.NewSequence(draws...)),
		WithHistory(history.NewRecorder(store, 50)),
	)
	ap := NewAutoplay(e, store)
	runner := scripting.NewEngine(ap, nil)
	runner.SetRecorder(ap)
	return e, runner, store
}

func waitRun(t *testing.T, runner *scripting.Engine) scripting.EngineSnapshot {
	t.Helper()
	select {
	case <-runner.Done():
	case <-time.After(5 * time.Second):
		_ = runner.Stop()
		t.Fatal("autoplay did not finish")
	}
	return runner.GetState()
}

func TestAutoplayDiceRunIsRecorded(t *testing.T) {
	ctx := context.Background()
	e, runner, store := newAutoplayRig(t, "10", 0.5)

	script := `
		nextbet = 1
		dobet = function() {
			if (bets >= 3) stop()
		}
	`
	require.NoError(t, runner.Start(ctx, script, e.Snapshot().Balance.InexactFloat64()))
	snap := waitRun(t, runner)
	require.Equal(t, scripting.StateStopped, snap.State, snap.Error)
	assert.Equal(t, 3, snap.Stats.Bets)
	assert.InDelta(t, 7.0, snap.Stats.Balance, 1e-9)
	assert.True(t, e.Snapshot().Balance.Equal(dec("7")))

	page, err := store.ListBets(ctx, history.Query{RunID: snap.RunID})
	require.NoError(t, err)
	require.Len(t, page.Bets, 3)
	for _, b := range page.Bets {
		assert.Equal(t, history.SourceAutoplay, b.Source)
		assert.Equal(t, games.Dice, b.Game)
	}

	runs, err := store.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, snap.RunID, runs[0].ID)
	assert.Equal(t, "stopped", runs[0].FinalState)
	assert.Equal(t, 3, runs[0].TotalBets)
	assert.Equal(t, 3, runs[0].TotalLosses)
	require.NotNil(t, runs[0].FinalBalance)
	assert.True(t, runs[0].FinalBalance.Equal(dec("7")))
	assert.True(t, runs[0].TotalWagered.Equal(dec("3")))
}

func TestAutoplayMinesRoundCashesOut(t *testing.T) {
	ctx := context.Background()
	e, runner, store := newAutoplayRig(t, "20", 0.9)

	script := `
		game = GAME_MINES
		nextbet = 4
		fields = [0, 1, 2, 3, 4]
		dobet = function() { stop() }
	`
	require.NoError(t, runner.Start(ctx, script, 20))
	snap := waitRun(t, runner)
	require.Equal(t, scripting.StateStopped, snap.State, snap.Error)
	assert.Equal(t, 1, snap.Stats.Bets)
	assert.Equal(t, 1, snap.Stats.Wins)
	assert.InDelta(t, 1.0, snap.Stats.Profit, 1e-9)

	assert.True(t, e.Snapshot().Balance.Equal(dec("21")))
	assert.Equal(t, PhaseIdle, e.Phase(games.Mines))

	page, err := store.ListBets(ctx, history.Query{Game: games.Mines})
	require.NoError(t, err)
	require.Len(t, page.Bets, 1)
	assert.True(t, page.Bets[0].Payout.Equal(dec("5")))
	assert.Equal(t, snap.RunID, page.Bets[0].RunID)
}

func TestAutoplayPlinkoBadRiskEndsInError(t *testing.T) {
	e, runner, _ := newAutoplayRig(t, "10", 0.5)

	script := `
		game = GAME_PLINKO
		risk = "extreme"
		nextbet = 1
		dobet = function() {}
	`
	require.NoError(t, runner.Start(context.Background(), script, 10))
	snap := waitRun(t, runner)
	assert.Equal(t, scripting.StateError, snap.State)
	assert.Contains(t, snap.Error, "extreme")
	assert.True(t, e.Snapshot().Balance.Equal(dec("10")))
}

func TestAutoplayRevealErrorClosesRound(t *testing.T) {
	e, runner, _ := newAutoplayRig(t, "20", 0.9)

	// round() keeps asking for the same revealed cell after the first, so
	// the run errors and the open round must still be closed.
	script := `
		game = "mines"
		nextbet = 4
		round = function() { return 3 }
		dobet = function() {}
	`
	require.NoError(t, runner.Start(context.Background(), script, 20))
	snap := waitRun(t, runner)
	assert.Equal(t, scripting.StateError, snap.State)
	assert.Contains(t, snap.Error, "reveal cell 3")

	assert.Equal(t, PhaseIdle, e.Phase(games.Mines))
	// Stake 4 debited, one safe reveal credited 1.
	assert.True(t, e.Snapshot().Balance.Equal(dec("17")))
}
