package casino

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/history"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/ledger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/logger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/scripting"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/session"
)

// stakePlaces is the precision script stakes are rounded to.
const stakePlaces = 8

// RunStore persists autoplay runs.
type RunStore interface {
	CreateRun(ctx context.Context, run *history.Run) (string, error)
	EndRun(ctx context.Context, id, finalState string, stats history.RunStats) error
}

// Autoplay lets a strategy script play through the engine. It implements
// scripting.BetPlacer, scripting.RoundPlacer and scripting.RunRecorder.
type Autoplay struct {
	engine *Engine
	runs   RunStore
}

var (
	_ scripting.BetPlacer   = (*Autoplay)(nil)
	_ scripting.RoundPlacer = (*Autoplay)(nil)
	_ scripting.RunRecorder = (*Autoplay)(nil)
)

// NewAutoplay binds strategies to e. runs may be nil.
func NewAutoplay(e *Engine, runs RunStore) *Autoplay {
	return &Autoplay{engine: e, runs: runs}
}

// PlaceBet settles a dice, wheel or plinko bet, or opens a mines round.
func (a *Autoplay) PlaceBet(ctx context.Context, vars *scripting.Variables) (*scripting.BetResult, error) {
	stake := decimal.NewFromFloat(vars.NextBet).Round(stakePlaces)

	switch vars.Game {
	case games.Dice, games.Wheel:
		res, err := a.engine.PlaceBet(ctx, vars.Game, stake)
		if err != nil {
			return nil, err
		}
		return outcomeResult(res.Outcome, res.Ledger), nil
	case games.Plinko:
		risk, err := games.ParseRisk(vars.Risk)
		if err != nil {
			return nil, err
		}
		res, err := a.engine.DropBall(ctx, stake, risk, vars.Rows)
		if err != nil {
			return nil, err
		}
		return outcomeResult(res.Outcome, res.Ledger), nil
	case games.Mines:
		st, err := a.engine.StartSession(ctx, games.Mines, stake)
		if err != nil {
			return nil, err
		}
		return roundResult(&st.Round, st.Ledger), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownGame, vars.Game)
	}
}

// Reveal opens one cell of the open mines round.
func (a *Autoplay) Reveal(ctx context.Context, cell int) (*scripting.BetResult, error) {
	res, err := a.engine.Reveal(ctx, games.Mines, cell)
	if err != nil {
		return nil, err
	}
	out := roundResult(res.Round, res.Ledger)
	out.ID = res.Outcome.ID
	return out, nil
}

// CashOut closes the open mines round.
func (a *Autoplay) CashOut(ctx context.Context) (*scripting.BetResult, error) {
	res, err := a.engine.CashOut(ctx, games.Mines)
	if err != nil {
		return nil, err
	}
	return roundResult(res.Round, res.Ledger), nil
}

// BeginRun stores the run and tags ctx so its bets are attributed to it.
func (a *Autoplay) BeginRun(ctx context.Context, game, script string, startBalance float64) (context.Context, string, error) {
	if a.runs == nil {
		return ctx, "", nil
	}
	id, err := a.runs.CreateRun(ctx, &history.Run{
		Game:         game,
		ScriptSource: script,
		StartBalance: decimal.NewFromFloat(startBalance),
		CreatedAt:    a.engine.now(),
	})
	if err != nil {
		return ctx, "", err
	}
	ctx = WithRunID(ctx, id)
	logger.FromContext(ctx).Debug("autoplay run created", "run_id", id, "game", game)
	return ctx, id, nil
}

// EndRun stores the final statistics of a run.
func (a *Autoplay) EndRun(ctx context.Context, runID string, state scripting.State, stats scripting.Statistics) error {
	if a.runs == nil || runID == "" {
		return nil
	}
	if h := a.engine.history; h != nil {
		if f, ok := h.(interface{ Flush(context.Context) error }); ok {
			if err := f.Flush(ctx); err != nil {
				return fmt.Errorf("flush run bets: %w", err)
			}
		}
	}
	return a.runs.EndRun(ctx, runID, string(state), history.RunStats{
		FinalBalance:  a.engine.Snapshot().Balance,
		TotalBets:     stats.Bets,
		TotalWins:     stats.Wins,
		TotalLosses:   stats.Losses,
		TotalProfit:   decimal.NewFromFloat(stats.Profit).Round(stakePlaces),
		TotalWagered:  decimal.NewFromFloat(stats.Wagered).Round(stakePlaces),
		HighestStreak: stats.HighestStreak,
		LowestStreak:  stats.LowestStreak,
	})
}

func outcomeResult(out games.Outcome, snap ledger.Snapshot) *scripting.BetResult {
	r := &scripting.BetResult{
		ID:          out.ID,
		Game:        out.Game,
		Amount:      out.Stake.InexactFloat64(),
		Payout:      out.Payout.InexactFloat64(),
		PayoutMulti: out.Multiplier.InexactFloat64(),
		Win:         out.Won,
		Balance:     snap.Balance.InexactFloat64(),
	}
	for _, key := range []string{"face", "segment", "bucket"} {
		if v, ok := out.Details[key].(int); ok {
			r.Result = v
		}
	}
	return r
}

// roundResult reports a mines round. Payout is what the round has credited
// so far, so a closed round reads as one settled bet.
func roundResult(round *session.MinesRound, snap ledger.Snapshot) *scripting.BetResult {
	r := &scripting.BetResult{
		ID:           round.ID,
		Game:         games.Mines,
		Amount:       round.Stake.InexactFloat64(),
		Payout:       round.Credited.InexactFloat64(),
		PayoutMulti:  round.Credited.Div(round.Stake).InexactFloat64(),
		Win:          round.InProfit(),
		Balance:      snap.Balance.InexactFloat64(),
		Result:       round.StepsCleared,
		Active:       round.Active,
		StepsCleared: round.StepsCleared,
		MineChance:   games.MineChance(round.StepsCleared),
	}
	for i, c := range round.Cells {
		if c != session.CellHidden {
			r.Revealed = append(r.Revealed, i)
		}
	}
	return r
}
