package history

import (
	"context"
	"log/slog"
	"sync"
)

// Recorder buffers settled bets and writes them to the store in batches.
// Reads flush the buffer first so listings never miss a settled bet.
type Recorder struct {
	store     *Store
	mu        sync.Mutex
	buffer    []Bet
	flushSize int
}

// NewRecorder creates a recorder. flushSize controls how many bets are
// buffered before a batch insert.
func NewRecorder(store *Store, flushSize int) *Recorder {
	if flushSize <= 0 {
		flushSize = 50
	}
	return &Recorder{
		store:     store,
		buffer:    make([]Bet, 0, flushSize),
		flushSize: flushSize,
	}
}

// RecordBet adds a bet to the buffer and flushes if the buffer is full.
func (r *Recorder) RecordBet(ctx context.Context, bet Bet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, bet)
	if len(r.buffer) >= r.flushSize {
		return r.flushLocked(ctx)
	}
	return nil
}

// Flush persists any remaining buffered bets.
func (r *Recorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked(ctx)
}

// Pending is the number of buffered bets.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

func (r *Recorder) flushLocked(ctx context.Context) error {
	if len(r.buffer) == 0 {
		return nil
	}
	if err := r.store.InsertBets(ctx, r.buffer); err != nil {
		slog.Error("history: flush bets failed", "count", len(r.buffer), "error", err)
		return err
	}
	r.buffer = r.buffer[:0]
	return nil
}

// ListBets flushes and returns a page of bets.
func (r *Recorder) ListBets(ctx context.Context, q Query) (*BetsPage, error) {
	if err := r.Flush(ctx); err != nil {
		return nil, err
	}
	return r.store.ListBets(ctx, q)
}

// Summary flushes and returns per-game aggregates.
func (r *Recorder) Summary(ctx context.Context) ([]GameSummary, error) {
	if err := r.Flush(ctx); err != nil {
		return nil, err
	}
	return r.store.Summary(ctx)
}

// Store returns the underlying store.
func (r *Recorder) Store() *Store {
	return r.store
}
