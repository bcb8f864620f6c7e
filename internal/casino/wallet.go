package casino

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/ledger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/logger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/metrics"
)

// DepositResult reports a deposit or package purchase.
type DepositResult struct {
	Receipt ledger.DepositReceipt `json:"receipt"`
	Package *ledger.Package       `json:"package,omitempty"`
	Ledger  ledger.Snapshot       `json:"ledger"`
}

// Deposit adds purchased credits.
func (e *Engine) Deposit(ctx context.Context, amount decimal.Decimal) (DepositResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.depositLocked(ctx, amount)
}

// BuyPackage deposits the credits of a named package.
func (e *Engine) BuyPackage(ctx context.Context, packageID string) (DepositResult, error) {
	pkg, err := ledger.LookupPackage(packageID)
	if err != nil {
		return DepositResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.depositLocked(ctx, pkg.Credits)
	if err != nil {
		return DepositResult{}, err
	}
	res.Package = &pkg
	return res, nil
}

func (e *Engine) depositLocked(ctx context.Context, amount decimal.Decimal) (DepositResult, error) {
	receipt, snap, err := e.ledger.Deposit(amount)
	if err != nil {
		return DepositResult{}, err
	}
	metrics.DepositedCredits.Add(amount.Add(receipt.Bonus).InexactFloat64())
	e.notifier.LedgerChanged(ctx, snap)

	logger.FromContext(ctx).Info("deposit applied",
		"amount", amount.String(),
		"bonus", receipt.Bonus.String(),
		"balance", snap.Balance.String())
	return DepositResult{Receipt: receipt, Ledger: snap}, nil
}

// SignupResult reports the signup wheel.
type SignupResult struct {
	Granted bool              `json:"granted"`
	Spin    games.GenesisSpin `json:"spin"`
	Ledger  ledger.Snapshot   `json:"ledger"`
}

// ClaimSignup spins the one-time signup wheel and credits the prize. A
// repeated claim returns ErrDuplicateClaim with Granted false and no draw.
func (e *Engine) ClaimSignup(ctx context.Context) (SignupResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ledger.SignupClaimed() {
		return SignupResult{Ledger: e.ledger.Snapshot()}, domain.ErrDuplicateClaim
	}

	spin := games.SpinGenesis(e.src)
	snap, err := e.ledger.ClaimSignupReward(spin.Prize)
	if errors.Is(err, domain.ErrDuplicateClaim) {
		return SignupResult{Ledger: snap}, err
	}
	if err != nil {
		return SignupResult{}, err
	}
	e.notifier.LedgerChanged(ctx, snap)
	logger.FromContext(ctx).Info("signup reward claimed", "segment", spin.Segment, "prize", spin.Prize.String())
	return SignupResult{Granted: true, Spin: spin, Ledger: snap}, nil
}

// ExitToLobby resets a game's session state. An open mines round is
// cashed out first; plinko balls in flight are already settled.
func (e *Engine) ExitToLobby(ctx context.Context, gameID string) (ledger.Snapshot, error) {
	if _, err := games.Lookup(gameID); err != nil {
		return ledger.Snapshot{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch gameID {
	case games.Dice:
		e.diceStreak.Reset()
	case games.Wheel:
		e.wheelStreak.Reset()
	case games.Mines:
		if e.phaseLocked(games.Mines) == PhaseAwaitingNextReveal {
			e.phases[games.Mines] = PhaseCashedOut
			e.cashOutLocked(ctx)
		}
		e.mines = nil
	case games.Plinko:
		e.field.Reset()
		metrics.PlinkoBallsInFlight.Set(0)
	}
	e.phases[gameID] = PhaseIdle

	logger.FromContext(ctx).Debug("returned to lobby", "game", gameID)
	return e.ledger.Snapshot(), nil
}
