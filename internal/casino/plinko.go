package casino

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/metrics"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/session"
)

// DropBall debits one stake, settles the ball's bucket immediately and
// launches it for display. Any number of balls may be in flight.
func (e *Engine) DropBall(ctx context.Context, stake decimal.Decimal, risk games.Risk, rows int) (Result, error) {
	if err := games.ValidateStake(stake); err != nil {
		e.reject(ctx, games.Plinko, err)
		return Result{}, err
	}
	if err := games.ValidateRows(rows); err != nil {
		return Result{}, err
	}
	if _, err := games.PlinkoOdds(risk, rows); err != nil {
		return Result{}, fmt.Errorf("%w: %q", domain.ErrInvalidRisk, risk)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.advance(games.Plinko, PhaseStakeCommitted); err != nil {
		e.reject(ctx, games.Plinko, err)
		return Result{}, err
	}
	if _, err := e.debit(ctx, games.Plinko, stake); err != nil {
		return Result{}, e.fail(games.Plinko, err)
	}
	if err := e.advance(games.Plinko, PhaseResolving); err != nil {
		return Result{}, e.fail(games.Plinko, err)
	}

	out, drop, err := games.ResolvePlinko(stake, risk, rows, e.src)
	if err != nil {
		return Result{}, e.fail(games.Plinko, err)
	}
	snap, err := e.credit(ctx, games.Plinko, out.Payout, out.Won)
	if err != nil {
		return Result{}, e.fail(games.Plinko, err)
	}
	e.settle(games.Plinko, PhaseSettled)

	ball := e.field.Launch(out.ID, drop)
	out.Details["ball_id"] = ball.ID
	metrics.PlinkoBallsInFlight.Set(float64(e.field.InFlight()))

	e.publish(ctx, &out)
	e.record(ctx, betFromOutcome(out))
	return Result{Outcome: out, Ledger: snap, Ball: &ball}, nil
}

// AdvancePlinko steps every ball by frames and returns the ones that landed.
func (e *Engine) AdvancePlinko(ctx context.Context, frames int) []session.Ball {
	if frames <= 0 {
		frames = 1
	}
	landed := e.field.Advance(frames)
	metrics.PlinkoBallsInFlight.Set(float64(e.field.InFlight()))
	return landed
}

// PlinkoBalls lists the balls still in flight.
func (e *Engine) PlinkoBalls() []session.Ball {
	return e.field.Balls()
}
