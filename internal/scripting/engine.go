package scripting

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/logger"
	"github.com/bhaeesma-sketch/Bhaeesgame/internal/metrics"
)

// State is the autoplay lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopped  State = "stopped"
	StateError    State = "error"
)

// maxReveals bounds one mines round; the grid has 25 cells.
const maxReveals = 25

// ErrAlreadyRunning is returned by Start while a run is starting or active.
var ErrAlreadyRunning = errors.New("autoplay is already running")

// ErrNotRunning is returned by Stop when nothing is running.
var ErrNotRunning = errors.New("autoplay is not running")

// ErrInvalidScript wraps errors from loading a strategy script.
var ErrInvalidScript = errors.New("invalid script")

// BetPlacer settles one bet from the current variables. For mines it opens
// the round and returns it with Active set.
type BetPlacer interface {
	PlaceBet(ctx context.Context, vars *Variables) (*BetResult, error)
}

// RoundPlacer drives an open mines round.
type RoundPlacer interface {
	Reveal(ctx context.Context, cell int) (*BetResult, error)
	CashOut(ctx context.Context) (*BetResult, error)
}

// RunRecorder persists run boundaries. BeginRun returns the context the
// run's bets are placed with.
type RunRecorder interface {
	BeginRun(ctx context.Context, game, script string, startBalance float64) (context.Context, string, error)
	EndRun(ctx context.Context, runID string, state State, stats Statistics) error
}

// EventEmitter pushes engine state and script logs to clients.
type EventEmitter interface {
	EmitScriptState(state EngineSnapshot)
	EmitScriptLog(entries []LogEntry)
}

// EngineSnapshot is a copy of the engine state safe to serialise.
type EngineSnapshot struct {
	State         State        `json:"state"`
	Error         string       `json:"error,omitempty"`
	RunID         string       `json:"runId,omitempty"`
	Game          string       `json:"game,omitempty"`
	Stats         *Statistics  `json:"stats,omitempty"`
	RTP           float64      `json:"rtp"`
	Chart         []ChartPoint `json:"chart"`
	StartedAt     time.Time    `json:"startedAt,omitempty"`
	BetsPerSecond float64      `json:"betsPerSecond"`
}

// Engine runs one strategy at a time.
type Engine struct {
	mu    sync.RWMutex
	state State
	err   error
	runID string

	cancel context.CancelFunc
	done   chan struct{}

	vm    *VM
	vars  *Variables
	stats *Statistics
	chart *ChartBuffer

	placer   BetPlacer
	emitter  EventEmitter
	recorder RunRecorder

	startTime time.Time
	lastEmit  time.Time
}

// NewEngine creates an idle engine. emitter may be nil.
func NewEngine(placer BetPlacer, emitter EventEmitter) *Engine {
	return &Engine{
		state:   StateIdle,
		placer:  placer,
		emitter: emitter,
	}
}

// SetRecorder attaches run persistence. Call before Start.
func (e *Engine) SetRecorder(rec RunRecorder) {
	e.recorder = rec
}

// Start executes script and begins betting in the background. The run
// outlives ctx; only Stop or the strategy itself ends it.
func (e *Engine) Start(ctx context.Context, script string, startBalance float64) error {
	e.mu.Lock()
	if e.state == StateRunning || e.state == StateStarting {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.state = StateStarting
	e.stats = NewStatistics(startBalance)
	e.chart = NewChartBuffer(500)
	e.vars = NewVariables(e.stats)
	e.vm = NewVM()
	e.err = nil
	e.runID = ""
	e.mu.Unlock()

	e.vm.SetVariables(e.vars)
	if err := e.vm.Execute(script); err != nil {
		return e.failStart(fmt.Errorf("%w: %w", ErrInvalidScript, err))
	}
	if !e.vm.HasFunc("dobet") {
		return e.failStart(fmt.Errorf("%w: script must define a dobet() function", ErrInvalidScript))
	}
	e.mu.Lock()
	e.vm.SyncVariables(e.vars)
	game := e.vars.Game
	e.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	var runID string
	if e.recorder != nil {
		tagged, id, err := e.recorder.BeginRun(runCtx, game, script, startBalance)
		if err != nil {
			cancel()
			return e.failStart(fmt.Errorf("begin run: %w", err))
		}
		runCtx, runID = tagged, id
	}

	e.mu.Lock()
	e.runID = runID
	e.state = StateRunning
	e.cancel = cancel
	e.done = make(chan struct{})
	e.startTime = time.Now()
	e.vars.Running = true
	done := e.done
	e.mu.Unlock()

	e.vm.SetVariables(e.vars)
	logger.FromContext(ctx).Info("autoplay started", "game", game, "run_id", runID, "start_balance", startBalance)
	e.emitState()

	go e.betLoop(runCtx, done)
	return nil
}

func (e *Engine) failStart(err error) error {
	e.mu.Lock()
	e.state = StateError
	e.err = err
	e.mu.Unlock()
	e.emitState()
	return err
}

// Stop cancels the run and waits for the loop to exit. An open mines round
// is cashed out before the loop returns.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return ErrNotRunning
	}
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	cancel()
	<-done
	return nil
}

// Done is closed when the current run ends.
func (e *Engine) Done() <-chan struct{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return e.done
}

// GetState returns a snapshot of the engine.
func (e *Engine) GetState() EngineSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot()
}

// GetLogs returns the strategy's log buffer.
func (e *Engine) GetLogs() []LogEntry {
	e.mu.RLock()
	vm := e.vm
	e.mu.RUnlock()
	if vm == nil {
		return nil
	}
	return vm.Logs()
}

func (e *Engine) betLoop(ctx context.Context, done chan struct{}) {
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("script panic: %v", r)
		}
		e.finish(ctx, err)
		close(done)
	}()
	err = e.run(ctx)
}

// run returns nil when the strategy stopped itself or was cancelled.
func (e *Engine) run(ctx context.Context) error {
	for {
		if ctx.Err() != nil || e.vm.StopRequested() {
			return nil
		}

		e.mu.RLock()
		nextBet, game := e.vars.NextBet, e.vars.Game
		e.mu.RUnlock()
		if nextBet <= 0 {
			return fmt.Errorf("nextbet must be > 0, got %v", nextBet)
		}

		result, err := e.placeOne(ctx, game)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s bet failed: %w", game, err)
		}
		e.apply(result)

		if err := e.vm.CallDobet(); err != nil {
			return err
		}
		e.mu.Lock()
		e.vm.SyncVariables(e.vars)
		if e.vm.TakeResetStats() {
			e.stats.Reset()
			e.chart.Reset()
		}
		stopOnWin := e.vars.StopOnWin
		e.mu.Unlock()
		e.vm.SetVariables(e.vars)

		if e.vm.StopRequested() || (stopOnWin && result.Win) {
			return nil
		}
		e.throttledEmitState()

		if d := e.vm.TakeSleep(); d > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(d):
			}
		}
	}
}

func (e *Engine) placeOne(ctx context.Context, game string) (*BetResult, error) {
	if game != GameMines {
		return e.placer.PlaceBet(ctx, e.vars)
	}
	rp, ok := e.placer.(RoundPlacer)
	if !ok {
		return nil, fmt.Errorf("placer cannot play %s", game)
	}
	e.mu.Lock()
	e.vars.CashoutDone = false
	e.mu.Unlock()

	opened, err := e.placer.PlaceBet(ctx, e.vars)
	if err != nil {
		return nil, err
	}
	return e.playRound(ctx, rp, opened)
}

// playRound reveals cells until a mine, a cashout request or a full grid.
// Every exit path leaves the round closed.
func (e *Engine) playRound(ctx context.Context, rp RoundPlacer, current *BetResult) (*BetResult, error) {
	useRound := e.vm.HasFunc("round")
	nextField := 0

	for i := 0; i < maxReveals && current.Active; i++ {
		if ctx.Err() != nil || e.vm.StopRequested() {
			return rp.CashOut(context.WithoutCancel(ctx))
		}

		var (
			cell    int
			cashout bool
			err     error
		)
		if useRound {
			cell, cashout, err = e.askRound(current, i)
		} else {
			e.mu.RLock()
			fields := e.vars.Fields
			e.mu.RUnlock()
			if nextField >= len(fields) {
				cashout = true
			} else {
				cell = fields[nextField]
				nextField++
			}
		}
		if err != nil {
			return e.abandon(ctx, rp, err)
		}
		if cashout {
			return rp.CashOut(ctx)
		}

		next, err := rp.Reveal(ctx, cell)
		if err != nil {
			return e.abandon(ctx, rp, fmt.Errorf("reveal cell %d: %w", cell, err))
		}
		current = next
	}
	if current.Active {
		return rp.CashOut(ctx)
	}
	return current, nil
}

func (e *Engine) askRound(current *BetResult, reveal int) (int, bool, error) {
	e.mu.Lock()
	e.vars.CurrentRound = map[string]any{
		"active":     true,
		"reveal":     reveal,
		"steps":      current.StepsCleared,
		"credited":   current.Payout,
		"multiplier": current.PayoutMulti,
		"mineChance": current.MineChance,
		"revealed":   current.Revealed,
	}
	e.mu.Unlock()
	e.vm.SetVariables(e.vars)

	v, err := e.vm.CallRound()
	if err != nil {
		return 0, false, err
	}
	e.mu.Lock()
	e.vm.SyncVariables(e.vars)
	cashoutDone := e.vars.CashoutDone
	e.mu.Unlock()

	if cashoutDone {
		return 0, true, nil
	}
	if isUndefinedOrNull(v) {
		return 0, false, errors.New("round() must return a cell index or MINES_CASHOUT")
	}
	cell := int(v.ToInteger())
	return cell, cell == MinesCashout, nil
}

// abandon cashes out the open round and reports cause.
func (e *Engine) abandon(ctx context.Context, rp RoundPlacer, cause error) (*BetResult, error) {
	if _, err := rp.CashOut(context.WithoutCancel(ctx)); err != nil {
		return nil, errors.Join(cause, fmt.Errorf("cash out: %w", err))
	}
	return nil, cause
}

func (e *Engine) apply(r *BetResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.RecordBet(*r)
	// The ledger may also move through manual play; trust its balance.
	e.stats.Balance = r.Balance

	e.vars.Win = r.Win
	e.vars.PreviousBet = r.Amount
	e.vars.Balance = r.Balance
	e.vars.CurrentRound = map[string]any{"active": false}
	e.vars.LastBet = map[string]any{
		"id":               r.ID,
		"game":             r.Game,
		"amount":           r.Amount,
		"payout":           r.Payout,
		"payoutMultiplier": r.PayoutMulti,
		"win":              r.Win,
		"result":           r.Result,
	}
	e.vm.SetVariables(e.vars)

	e.chart.Push(ChartPoint{BetNumber: e.stats.Bets, Profit: e.stats.Profit, Win: r.Win})
}

func (e *Engine) finish(ctx context.Context, err error) {
	e.mu.Lock()
	e.state = StateStopped
	if err != nil {
		e.state = StateError
		e.err = err
	}
	e.vars.Running = false
	state, runID, game, stats := e.state, e.runID, e.vars.Game, *e.stats
	e.mu.Unlock()

	log := logger.FromContext(ctx)
	if e.recorder != nil && runID != "" {
		if rerr := e.recorder.EndRun(context.WithoutCancel(ctx), runID, state, stats); rerr != nil {
			log.Warn("failed to record autoplay run", "run_id", runID, "error", rerr)
		}
	}
	metrics.AutoplayRuns.WithLabelValues(game, string(state)).Inc()

	if err != nil {
		log.Warn("autoplay ended with error", "run_id", runID, "bets", stats.Bets, "error", err)
	} else {
		log.Info("autoplay stopped", "run_id", runID, "bets", stats.Bets, "profit", stats.Profit)
	}
	e.emitState()
}

func (e *Engine) snapshot() EngineSnapshot {
	snap := EngineSnapshot{State: e.state, RunID: e.runID}
	if e.err != nil {
		snap.Error = e.err.Error()
	}
	if e.stats != nil {
		stats := *e.stats
		snap.Stats = &stats
		snap.RTP = stats.RTP()
	}
	if e.chart != nil {
		snap.Chart = append([]ChartPoint(nil), e.chart.Points...)
	}
	if e.vars != nil {
		snap.Game = e.vars.Game
	}
	if !e.startTime.IsZero() {
		snap.StartedAt = e.startTime
	}
	if e.state == StateRunning && e.stats != nil && e.stats.Bets > 0 {
		if elapsed := time.Since(e.startTime).Seconds(); elapsed > 0 {
			snap.BetsPerSecond = float64(e.stats.Bets) / elapsed
		}
	}
	return snap
}

func (e *Engine) emitState() {
	if e.emitter == nil {
		return
	}
	e.mu.Lock()
	snap := e.snapshot()
	vm := e.vm
	e.lastEmit = time.Now()
	e.mu.Unlock()

	e.emitter.EmitScriptState(snap)
	if vm != nil {
		if logs := vm.DrainNew(); len(logs) > 0 {
			e.emitter.EmitScriptLog(logs)
		}
	}
}

// throttledEmitState emits at most every 100ms.
func (e *Engine) throttledEmitState() {
	e.mu.RLock()
	recent := time.Since(e.lastEmit) < 100*time.Millisecond
	e.mu.RUnlock()
	if !recent {
		e.emitState()
	}
}
