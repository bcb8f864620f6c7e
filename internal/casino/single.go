package casino

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/session"
)

// PlaceBet plays one round of a single-shot game (dice or wheel). The
// stake is debited, the round resolved and any payout credited before
// PlaceBet returns.
func (e *Engine) PlaceBet(ctx context.Context, gameID string, stake decimal.Decimal) (Result, error) {
	spec, err := games.Lookup(gameID)
	if err != nil {
		return Result{}, err
	}
	if spec.Kind != games.KindSingleShot {
		return Result{}, fmt.Errorf("%w: %s is not a single-shot game", domain.ErrInvalidSessionState, gameID)
	}
	if err := games.ValidateStake(stake); err != nil {
		e.reject(ctx, gameID, err)
		return Result{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.advance(gameID, PhaseStakeCommitted); err != nil {
		e.reject(ctx, gameID, err)
		return Result{}, err
	}
	if _, err := e.debit(ctx, gameID, stake); err != nil {
		return Result{}, e.fail(gameID, err)
	}
	if err := e.advance(gameID, PhaseResolving); err != nil {
		return Result{}, e.fail(gameID, err)
	}

	var (
		out    games.Outcome
		streak *session.Streak
	)
	switch gameID {
	case games.Dice:
		streak = &e.diceStreak
		out, _, err = games.ResolveDice(stake, streak.Count, e.src)
	case games.Wheel:
		streak = &e.wheelStreak
		out, _, err = games.ResolveWheel(stake, e.src)
	}
	if err != nil {
		return Result{}, e.fail(gameID, fmt.Errorf("resolve %s: %w", gameID, err))
	}
	streak.Record(out.Won)

	snap, err := e.credit(ctx, gameID, out.Payout, out.Payout.GreaterThan(stake))
	if err != nil {
		return Result{}, e.fail(gameID, err)
	}
	e.settle(gameID, PhaseSettled)

	e.publish(ctx, &out)
	e.record(ctx, betFromOutcome(out))

	return Result{Outcome: out, Ledger: snap, Streak: streak.Count}, nil
}
