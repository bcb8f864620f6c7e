// Package casino orchestrates the game controllers over one shared ledger.
package casino

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shopspring/decimal"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/engine"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/history"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/ledger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/logger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/metrics"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/session"
)

const (
	DefaultOutcomeCacheSize = 256
	DefaultOutcomeCacheTTL  = 30 * time.Minute
)

// Notifier receives every settled outcome and every ledger change.
type Notifier interface {
	OutcomeResolved(ctx context.Context, out games.Outcome)
	LedgerChanged(ctx context.Context, snap ledger.Snapshot)
}

// BetRecorder stores settled bets.
type BetRecorder interface {
	RecordBet(ctx context.Context, bet history.Bet) error
}

// HistoryReader reads stored bets.
type HistoryReader interface {
	ListBets(ctx context.Context, q history.Query) (*history.BetsPage, error)
	Summary(ctx context.Context) ([]history.GameSummary, error)
}

// History both stores and reads bets.
type History interface {
	BetRecorder
	HistoryReader
}

type nopNotifier struct{}

func (nopNotifier) OutcomeResolved(context.Context, games.Outcome)  {}
func (nopNotifier) LedgerChanged(context.Context, ledger.Snapshot) {}

// Engine is the single owner of the ledger and all session state. Every
// inbound call is serialized.
type Engine struct {
	mu sync.Mutex

	ledger   *ledger.Ledger
	src      engine.Source
	notifier Notifier
	history  History
	outcomes *expirable.LRU[string, games.Outcome]
	now      func() time.Time

	cacheSize int
	cacheTTL  time.Duration

	phases      map[string]Phase
	diceStreak  session.Streak
	wheelStreak session.Streak
	mines       *session.MinesRound
	field       *session.Field
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource sets the randomness source.
func WithSource(src engine.Source) Option {
	return func(e *Engine) { e.src = src }
}

// WithLedger uses an existing ledger.
func WithLedger(l *ledger.Ledger) Option {
	return func(e *Engine) { e.ledger = l }
}

// WithNotifier sets the outbound notifier.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithHistory records settled bets and serves history reads.
func WithHistory(h History) Option {
	return func(e *Engine) { e.history = h }
}

// WithOutcomeCache sizes the recent-outcome lookup.
func WithOutcomeCache(size int, ttl time.Duration) Option {
	return func(e *Engine) {
		e.cacheSize = size
		e.cacheTTL = ttl
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine. Without options it draws from crypto/rand and
// starts with an empty ledger.
func New(opts ...Option) *Engine {
	e := &Engine{
		src:       engine.CryptoSource{},
		notifier:  nopNotifier{},
		now:       time.Now,
		cacheSize: DefaultOutcomeCacheSize,
		cacheTTL:  DefaultOutcomeCacheTTL,
		phases:    make(map[string]Phase),
		field:     session.NewField(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ledger == nil {
		e.ledger = ledger.New()
	}
	if e.cacheSize <= 0 {
		e.cacheSize = DefaultOutcomeCacheSize
	}
	e.outcomes = expirable.NewLRU[string, games.Outcome](e.cacheSize, nil, e.cacheTTL)
	e.ledger.Subscribe(func(s ledger.Snapshot) {
		metrics.Balance.Set(s.Balance.InexactFloat64())
	})
	metrics.Balance.Set(e.ledger.Balance().InexactFloat64())
	return e
}

// Ledger exposes the shared ledger.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Snapshot returns the current ledger state.
func (e *Engine) Snapshot() ledger.Snapshot {
	return e.ledger.Snapshot()
}

// Profile is the player view: ledger plus per-game streaks.
type Profile struct {
	Ledger        ledger.Snapshot     `json:"ledger"`
	Level         int64               `json:"level"`
	DiceStreak    int                 `json:"dice_streak"`
	WheelStreak   int                 `json:"wheel_streak"`
	Mines         *session.MinesRound `json:"mines,omitempty"`
	BallsInFlight int                 `json:"balls_in_flight"`
	Phases        map[string]Phase    `json:"phases"`
}

// Profile returns the player view.
func (e *Engine) Profile() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.ledger.Snapshot()
	p := Profile{
		Ledger:        snap,
		Level:         snap.Level,
		DiceStreak:    e.diceStreak.Count,
		WheelStreak:   e.wheelStreak.Count,
		BallsInFlight: e.field.InFlight(),
		Phases:        make(map[string]Phase, 4),
	}
	for _, spec := range games.ListGames() {
		p.Phases[spec.ID] = e.phaseLocked(spec.ID)
	}
	if e.mines != nil {
		round := *e.mines
		p.Mines = &round
	}
	return p
}

// Outcome returns a recently resolved outcome.
func (e *Engine) Outcome(id string) (games.Outcome, error) {
	out, ok := e.outcomes.Get(id)
	if !ok {
		return games.Outcome{}, fmt.Errorf("%w: %q", domain.ErrOutcomeNotFound, id)
	}
	return out, nil
}

// History lists recorded bets.
func (e *Engine) History(ctx context.Context, q history.Query) (*history.BetsPage, error) {
	if e.history == nil {
		return &history.BetsPage{Bets: []history.Bet{}, Page: 1, PerPage: q.PerPage}, nil
	}
	return e.history.ListBets(ctx, q)
}

// HistorySummary aggregates recorded bets per game.
func (e *Engine) HistorySummary(ctx context.Context) ([]history.GameSummary, error) {
	if e.history == nil {
		return []history.GameSummary{}, nil
	}
	return e.history.Summary(ctx)
}

// Result is what a settled action returns to the caller.
type Result struct {
	Outcome games.Outcome       `json:"outcome"`
	Ledger  ledger.Snapshot     `json:"ledger"`
	Streak  int                 `json:"streak"`
	Round   *session.MinesRound `json:"round,omitempty"`
	Ball    *session.Ball       `json:"ball,omitempty"`
}

// debit takes the stake and reports the ledger change. Caller holds e.mu.
func (e *Engine) debit(ctx context.Context, game string, stake decimal.Decimal) (ledger.Snapshot, error) {
	snap, err := e.ledger.Debit(stake)
	if err != nil {
		e.reject(ctx, game, err)
		return ledger.Snapshot{}, err
	}
	metrics.StakedCredits.WithLabelValues(game).Add(stake.InexactFloat64())
	e.notifier.LedgerChanged(ctx, snap)
	return snap, nil
}

// credit pays out and reports the ledger change. Zero amounts are skipped.
func (e *Engine) credit(ctx context.Context, game string, amount decimal.Decimal, isWin bool) (ledger.Snapshot, error) {
	if !amount.IsPositive() {
		return e.ledger.Snapshot(), nil
	}
	snap, err := e.ledger.Credit(amount, isWin)
	if err != nil {
		return ledger.Snapshot{}, err
	}
	metrics.PaidCredits.WithLabelValues(game).Add(amount.InexactFloat64())
	e.notifier.LedgerChanged(ctx, snap)
	return snap, nil
}

// publish caches, announces and counts a resolved outcome.
func (e *Engine) publish(ctx context.Context, out *games.Outcome) {
	out.Stamp(e.now())
	e.outcomes.Add(out.ID, *out)
	e.notifier.OutcomeResolved(ctx, *out)

	logger.FromContext(ctx).Debug("outcome resolved",
		"game", out.Game,
		"outcome_id", out.ID,
		"stake", out.Stake.String(),
		"payout", out.Payout.String(),
		"won", out.Won,
		"terminal", out.Terminal)
}

// record stores a terminal settlement. Failures are logged; the ledger
// is already final.
func (e *Engine) record(ctx context.Context, bet history.Bet) {
	result := metrics.ResultLoss
	switch {
	case bet.Won:
		result = metrics.ResultWin
	case bet.Payout.Equal(bet.Stake):
		result = metrics.ResultPush
	}
	metrics.BetsTotal.WithLabelValues(bet.Game, result).Inc()

	if e.history == nil {
		return
	}
	if runID, ok := RunIDFromContext(ctx); ok {
		bet.Source = history.SourceAutoplay
		bet.RunID = runID
	}
	if bet.CreatedAt.IsZero() {
		bet.CreatedAt = e.now()
	}
	if err := e.history.RecordBet(ctx, bet); err != nil {
		logger.FromContext(ctx).Warn("failed to record bet", "game", bet.Game, "bet_id", bet.ID, "error", err)
	}
}

func betFromOutcome(out games.Outcome) history.Bet {
	return history.Bet{
		ID:         out.ID,
		Game:       out.Game,
		Stake:      out.Stake,
		Payout:     out.Payout,
		Multiplier: out.Multiplier,
		Profit:     out.Profit(),
		Won:        out.Won,
		Details:    out.Details,
		CreatedAt:  out.ResolvedAt,
	}
}

func (e *Engine) reject(ctx context.Context, game string, err error) {
	kind := "other"
	switch {
	case errors.Is(err, domain.ErrInvalidStake):
		kind = "invalid_stake"
	case errors.Is(err, domain.ErrInsufficientBalance):
		kind = "insufficient_balance"
	case errors.Is(err, domain.ErrInvalidSessionState):
		kind = "invalid_session_state"
	}
	metrics.RejectedActions.WithLabelValues(game, kind).Inc()
	logger.FromContext(ctx).Info("action rejected", "game", game, "reason", kind, "error", err)
}
