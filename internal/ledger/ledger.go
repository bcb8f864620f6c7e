// Package ledger holds the player's credit balance and progression counters.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
)

const (
	xpPerCredit       = 10
	signupXP          = 500
	xpPerLevel        = 1000
	depositBonusFloor = 10
	depositBonus      = 3
)

// Snapshot is a read-only copy of the ledger state.
type Snapshot struct {
	Balance       decimal.Decimal `json:"balance"`
	Wagered       decimal.Decimal `json:"wagered"`
	XP            int64           `json:"xp"`
	Level         int64           `json:"level"`
	Wins          int64           `json:"wins"`
	LastWin       decimal.Decimal `json:"last_win"`
	HasDeposited  bool            `json:"has_deposited"`
	BonusClaimed  bool            `json:"bonus_claimed"`
	SignupClaimed bool            `json:"signup_claimed"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DepositReceipt describes what a deposit added.
type DepositReceipt struct {
	Amount  decimal.Decimal `json:"amount"`
	Bonus   decimal.Decimal `json:"bonus"`
	Granted bool            `json:"bonus_granted"`
}

// Observer is called with a fresh snapshot after every mutation.
type Observer func(Snapshot)

// Ledger is the single shared credit account. All methods are safe for
// concurrent use and apply in call order.
type Ledger struct {
	mu sync.Mutex

	balance       decimal.Decimal
	wagered       decimal.Decimal
	xp            int64
	wins          int64
	lastWin       decimal.Decimal
	hasDeposited  bool
	bonusClaimed  bool
	signupClaimed bool
	updatedAt     time.Time

	observers []Observer
	now       func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithStartingBalance seeds the balance. Negative values are ignored.
func WithStartingBalance(amount decimal.Decimal) Option {
	return func(l *Ledger) {
		if !amount.IsNegative() {
			l.balance = amount
		}
	}
}

// WithClock overrides time.Now for snapshots.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New creates a ledger with zero balance unless configured otherwise.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		balance: decimal.Zero,
		wagered: decimal.Zero,
		lastWin: decimal.Zero,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.updatedAt = l.now()
	return l
}

// Subscribe registers an observer. Observers run synchronously after the
// lock is released.
func (l *Ledger) Subscribe(obs Observer) {
	l.mu.Lock()
	l.observers = append(l.observers, obs)
	l.mu.Unlock()
}

// Debit removes a stake from the balance.
func (l *Ledger) Debit(amount decimal.Decimal) (Snapshot, error) {
	if !amount.IsPositive() {
		return Snapshot{}, fmt.Errorf("%w: debit must be > 0, got %s", domain.ErrInvalidStake, amount)
	}

	l.mu.Lock()
	if amount.GreaterThan(l.balance) {
		bal := l.balance
		l.mu.Unlock()
		return Snapshot{}, fmt.Errorf("%w: stake %s exceeds balance %s", domain.ErrInsufficientBalance, amount, bal)
	}
	l.balance = l.balance.Sub(amount)
	l.wagered = l.wagered.Add(amount)
	l.xp += xpFor(amount)
	return l.commit(), nil
}

// Credit adds a payout. isWin marks a net-positive resolution.
func (l *Ledger) Credit(amount decimal.Decimal, isWin bool) (Snapshot, error) {
	if amount.IsNegative() {
		return Snapshot{}, fmt.Errorf("%w: credit must be >= 0, got %s", domain.ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	l.balance = l.balance.Add(amount)
	if isWin && amount.IsPositive() {
		l.wins++
		l.lastWin = amount
	}
	l.xp += xpFor(amount)
	return l.commit(), nil
}

// Deposit adds purchased credits. The first deposit of at least 10
// credits earns a one-time bonus of 3.
func (l *Ledger) Deposit(amount decimal.Decimal) (DepositReceipt, Snapshot, error) {
	if !amount.IsPositive() {
		return DepositReceipt{}, Snapshot{}, fmt.Errorf("%w: deposit must be > 0, got %s", domain.ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	receipt := DepositReceipt{Amount: amount, Bonus: decimal.Zero}
	if !l.hasDeposited && !l.bonusClaimed && amount.GreaterThanOrEqual(decimal.NewFromInt(depositBonusFloor)) {
		receipt.Bonus = decimal.NewFromInt(depositBonus)
		receipt.Granted = true
		l.bonusClaimed = true
	}
	l.balance = l.balance.Add(amount).Add(receipt.Bonus)
	l.hasDeposited = true
	l.xp += xpFor(amount)
	return receipt, l.commit(), nil
}

// ClaimSignupReward credits the signup prize once. A second claim
// returns ErrDuplicateClaim and leaves the ledger untouched.
func (l *Ledger) ClaimSignupReward(prize decimal.Decimal) (Snapshot, error) {
	if prize.IsNegative() {
		return Snapshot{}, fmt.Errorf("%w: prize must be >= 0, got %s", domain.ErrInvalidAmount, prize)
	}

	l.mu.Lock()
	if l.signupClaimed {
		snap := l.snapshotLocked()
		l.mu.Unlock()
		return snap, domain.ErrDuplicateClaim
	}
	l.signupClaimed = true
	l.balance = l.balance.Add(prize)
	l.xp += signupXP
	return l.commit(), nil
}

// SignupClaimed reports whether the signup reward was taken.
func (l *Ledger) SignupClaimed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.signupClaimed
}

// Balance returns the current balance.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Snapshot returns a copy of the current state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// commit must be called with mu held. It releases the lock and notifies.
func (l *Ledger) commit() Snapshot {
	l.updatedAt = l.now()
	snap := l.snapshotLocked()
	observers := make([]Observer, len(l.observers))
	copy(observers, l.observers)
	l.mu.Unlock()

	for _, obs := range observers {
		obs(snap)
	}
	return snap
}

func (l *Ledger) snapshotLocked() Snapshot {
	return Snapshot{
		Balance:       l.balance,
		Wagered:       l.wagered,
		XP:            l.xp,
		Level:         Level(l.xp),
		Wins:          l.wins,
		LastWin:       l.lastWin,
		HasDeposited:  l.hasDeposited,
		BonusClaimed:  l.bonusClaimed,
		SignupClaimed: l.signupClaimed,
		UpdatedAt:     l.updatedAt,
	}
}

// Level derives the player level from xp.
func Level(xp int64) int64 {
	return xp/xpPerLevel + 1
}

func xpFor(amount decimal.Decimal) int64 {
	return amount.Abs().Mul(decimal.NewFromInt(xpPerCredit)).IntPart()
}
