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
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/session"
)

// RoundState is the mines round as seen by the player.
type RoundState struct {
	Round      session.MinesRound `json:"round"`
	Multiplier decimal.Decimal    `json:"multiplier"`
	MineChance float64            `json:"mine_chance"`
	Ledger     ledger.Snapshot    `json:"ledger"`
}

func requireMines(gameID string) error {
	if _, err := games.Lookup(gameID); err != nil {
		return err
	}
	if gameID != games.Mines {
		return fmt.Errorf("%w: %s has no multi-step session", domain.ErrInvalidSessionState, gameID)
	}
	return nil
}

// StartSession debits the stake once and opens a fresh 25-cell grid.
func (e *Engine) StartSession(ctx context.Context, gameID string, stake decimal.Decimal) (RoundState, error) {
	if err := requireMines(gameID); err != nil {
		return RoundState{}, err
	}
	if err := games.ValidateStake(stake); err != nil {
		e.reject(ctx, gameID, err)
		return RoundState{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.advance(gameID, PhaseStakeCommitted); err != nil {
		e.reject(ctx, gameID, err)
		return RoundState{}, err
	}
	snap, err := e.debit(ctx, gameID, stake)
	if err != nil {
		return RoundState{}, e.fail(gameID, err)
	}
	if err := e.advance(gameID, PhaseAwaitingNextReveal); err != nil {
		return RoundState{}, e.fail(gameID, err)
	}

	e.mines = session.NewMinesRound(stake)
	logger.FromContext(ctx).Info("mines session started", "round_id", e.mines.ID, "stake", stake.String())
	return e.roundStateLocked(snap), nil
}

// Reveal opens one cell of the active round. A safe cell credits a
// quarter of the stake at once; a mine ends the round.
func (e *Engine) Reveal(ctx context.Context, gameID string, cell int) (Result, error) {
	if err := requireMines(gameID); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phaseLocked(gameID) != PhaseAwaitingNextReveal {
		err := fmt.Errorf("%w: no active mines session", domain.ErrInvalidSessionState)
		e.reject(ctx, gameID, err)
		return Result{}, err
	}
	if err := e.mines.CheckReveal(cell); err != nil {
		e.reject(ctx, gameID, err)
		return Result{}, err
	}
	if err := e.advance(gameID, PhaseResolving); err != nil {
		return Result{}, err
	}

	round := e.mines
	reveal, err := games.RevealCell(round.Stake, round.StepsCleared, cell, e.src)
	if err != nil {
		e.resume(gameID)
		return Result{}, err
	}

	if reveal.Mine {
		round.MarkMine(cell)
		out := games.NewOutcome(games.Mines, round.Stake, decimal.Zero, false, true)
		e.fillMinesDetails(&out, reveal)
		e.settle(gameID, PhaseSettled)

		e.publish(ctx, &out)
		e.recordRound(ctx, round, "mine")
		snap := e.ledger.Snapshot()
		return Result{Outcome: out, Ledger: snap, Round: copyRound(round)}, nil
	}

	wasInProfit := round.InProfit()
	round.MarkSafe(cell, reveal.Credit)
	snap, err := e.credit(ctx, gameID, reveal.Credit, !wasInProfit && round.InProfit())
	if err != nil {
		e.resume(gameID)
		return Result{}, err
	}
	e.resume(gameID)

	out := games.NewOutcome(games.Mines, round.Stake, reveal.Credit.Div(round.Stake), true, false)
	e.fillMinesDetails(&out, reveal)
	e.publish(ctx, &out)
	return Result{Outcome: out, Ledger: snap, Round: copyRound(round)}, nil
}

// CashOut ends the active round keeping everything credited so far.
func (e *Engine) CashOut(ctx context.Context, gameID string) (Result, error) {
	if err := requireMines(gameID); err != nil {
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.advance(gameID, PhaseCashedOut); err != nil {
		e.reject(ctx, gameID, err)
		return Result{}, err
	}
	out := e.cashOutLocked(ctx)
	return Result{Outcome: out, Ledger: e.ledger.Snapshot(), Round: copyRound(e.mines)}, nil
}

// cashOutLocked closes the round. Caller has moved the phase to CashedOut.
func (e *Engine) cashOutLocked(ctx context.Context) games.Outcome {
	round := e.mines
	round.Close()

	multiplier := round.Credited.Div(round.Stake)
	out := games.NewOutcome(games.Mines, round.Stake, multiplier, round.InProfit(), true)
	out.Payout = round.Credited
	out.Details["round_id"] = round.ID
	out.Details["steps_cleared"] = round.StepsCleared
	out.Details["cashed_out"] = true
	e.phases[games.Mines] = PhaseIdle

	e.publish(ctx, &out)
	e.recordRound(ctx, round, "cashout")
	return out
}

// MinesState returns the active or last mines round.
func (e *Engine) MinesState() (RoundState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mines == nil {
		return RoundState{}, fmt.Errorf("%w: no mines session", domain.ErrInvalidSessionState)
	}
	return e.roundStateLocked(e.ledger.Snapshot()), nil
}

func (e *Engine) roundStateLocked(snap ledger.Snapshot) RoundState {
	return RoundState{
		Round:      *copyRound(e.mines),
		Multiplier: e.mines.Multiplier(),
		MineChance: games.MineChance(e.mines.StepsCleared),
		Ledger:     snap,
	}
}

func (e *Engine) fillMinesDetails(out *games.Outcome, reveal games.MinesReveal) {
	out.Details["round_id"] = e.mines.ID
	out.Details["cell"] = reveal.Cell
	out.Details["mine"] = reveal.Mine
	out.Details["mine_chance"] = reveal.MineChance
	out.Details["steps_cleared"] = e.mines.StepsCleared
	out.Details["session_credited"] = e.mines.Credited.String()
}

// recordRound stores the whole round as one bet.
func (e *Engine) recordRound(ctx context.Context, round *session.MinesRound, endedBy string) {
	e.record(ctx, history.Bet{
		ID:         round.ID,
		Game:       games.Mines,
		Stake:      round.Stake,
		Payout:     round.Credited,
		Multiplier: round.Credited.Div(round.Stake),
		Profit:     round.Credited.Sub(round.Stake),
		Won:        round.InProfit(),
		Details: map[string]any{
			"steps_cleared": round.StepsCleared,
			"ended_by":      endedBy,
		},
	})
}

func copyRound(r *session.MinesRound) *session.MinesRound {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
