// Package history keeps settled bets and autoplay runs in an in-memory
// SQLite database for the lifetime of the process.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// Bet sources.
const (
	SourceManual   = "manual"
	SourceAutoplay = "autoplay"
)

// Bet is one settled action.
type Bet struct {
	ID         string          `json:"id"`
	Game       string          `json:"game"`
	Stake      decimal.Decimal `json:"stake"`
	Payout     decimal.Decimal `json:"payout"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Profit     decimal.Decimal `json:"profit"`
	Won        bool            `json:"won"`
	Source     string          `json:"source"`
	RunID      string          `json:"run_id,omitempty"`
	Details    map[string]any  `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BetsPage is a paginated bets response.
type BetsPage struct {
	Bets       []Bet `json:"bets"`
	TotalCount int   `json:"total_count"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

// Query filters ListBets. Zero values mean no filter.
type Query struct {
	Game    string
	RunID   string
	Page    int
	PerPage int
}

// GameSummary aggregates bets for one game.
type GameSummary struct {
	Game     string          `json:"game"`
	Bets     int             `json:"bets"`
	Wins     int             `json:"wins"`
	Wagered  decimal.Decimal `json:"wagered"`
	Paid     decimal.Decimal `json:"paid"`
	Profit   decimal.Decimal `json:"profit"`
	HitRate  float64         `json:"hit_rate"`
	RTP      float64         `json:"rtp"`
	LastPlay time.Time       `json:"last_play"`
}

// Run is one autoplay script execution.
type Run struct {
	ID            string           `json:"id"`
	Game          string           `json:"game"`
	ScriptSource  string           `json:"script_source"`
	StartBalance  decimal.Decimal  `json:"start_balance"`
	FinalBalance  *decimal.Decimal `json:"final_balance,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	EndedAt       *time.Time       `json:"ended_at,omitempty"`
	FinalState    string           `json:"final_state"`
	TotalBets     int              `json:"total_bets"`
	TotalWins     int              `json:"total_wins"`
	TotalLosses   int              `json:"total_losses"`
	TotalProfit   decimal.Decimal  `json:"total_profit"`
	TotalWagered  decimal.Decimal  `json:"total_wagered"`
	HighestStreak int              `json:"highest_streak"`
	LowestStreak  int              `json:"lowest_streak"`
}

// RunStats holds final stats for ending a run.
type RunStats struct {
	FinalBalance  decimal.Decimal
	TotalBets     int
	TotalWins     int
	TotalLosses   int
	TotalProfit   decimal.Decimal
	TotalWagered  decimal.Decimal
	HighestStreak int
	LowestStreak  int
}

// Store is the SQLite-backed history.
type Store struct {
	db *sql.DB
}

// Open creates a fresh in-memory store and runs migrations.
func Open(ctx context.Context) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	migrations := []string{
		`PRAGMA foreign_keys=ON`,
		`CREATE TABLE IF NOT EXISTS autoplay_runs (
			id TEXT PRIMARY KEY,
			game TEXT NOT NULL,
			script_source TEXT NOT NULL DEFAULT '',
			start_balance TEXT NOT NULL DEFAULT '0',
			final_balance TEXT,
			created_at DATETIME NOT NULL,
			ended_at DATETIME,
			final_state TEXT NOT NULL DEFAULT 'running',
			total_bets INTEGER NOT NULL DEFAULT 0,
			total_wins INTEGER NOT NULL DEFAULT 0,
			total_losses INTEGER NOT NULL DEFAULT 0,
			total_profit TEXT NOT NULL DEFAULT '0',
			total_wagered TEXT NOT NULL DEFAULT '0',
			highest_streak INTEGER NOT NULL DEFAULT 0,
			lowest_streak INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS bets (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			game TEXT NOT NULL,
			stake TEXT NOT NULL,
			payout TEXT NOT NULL,
			multiplier TEXT NOT NULL,
			profit TEXT NOT NULL,
			won BOOLEAN NOT NULL DEFAULT 0,
			source TEXT NOT NULL DEFAULT 'manual',
			run_id TEXT,
			details_json TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			FOREIGN KEY (run_id) REFERENCES autoplay_runs(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_game ON bets(game)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_run ON bets(run_id)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("history: migrate: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertBets records bets in a single transaction.
func (s *Store) InsertBets(ctx context.Context, bets []Bet) error {
	if len(bets) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bets (id, game, stake, payout, multiplier, profit, won, source, run_id, details_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("history: prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bets {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if b.Source == "" {
			b.Source = SourceManual
		}
		details, err := json.Marshal(b.Details)
		if err != nil {
			return fmt.Errorf("history: marshal details for %s: %w", b.ID, err)
		}
		var runID any
		if b.RunID != "" {
			runID = b.RunID
		}
		_, err = stmt.ExecContext(ctx,
			b.ID, b.Game, b.Stake.String(), b.Payout.String(), b.Multiplier.String(), b.Profit.String(),
			b.Won, b.Source, runID, string(details), b.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("history: insert bet %s: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

// MaxPerPage caps one page of ListBets.
const MaxPerPage = 500

// ListBets returns bets newest first.
func (s *Store) ListBets(ctx context.Context, q Query) (*BetsPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = 50
	}
	q.PerPage = min(q.PerPage, MaxPerPage)
	offset := (q.Page - 1) * q.PerPage

	where := "WHERE (? = '' OR game = ?) AND (? = '' OR run_id = ?)"
	args := []any{q.Game, q.Game, q.RunID, q.RunID}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bets "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("history: count bets: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game, stake, payout, multiplier, profit, won, source, COALESCE(run_id, ''), details_json, created_at
		 FROM bets `+where+` ORDER BY seq DESC LIMIT ? OFFSET ?`,
		append(args, q.PerPage, offset)...,
	)
	if err != nil {
		return nil, fmt.Errorf("history: list bets: %w", err)
	}
	defer rows.Close()

	bets := []Bet{}
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate bets: %w", err)
	}

	totalPages := total / q.PerPage
	if total%q.PerPage > 0 {
		totalPages++
	}
	return &BetsPage{
		Bets:       bets,
		TotalCount: total,
		Page:       q.Page,
		PerPage:    q.PerPage,
		TotalPages: totalPages,
	}, nil
}

func scanBet(rows *sql.Rows) (Bet, error) {
	var (
		b                                 Bet
		stake, payout, multiplier, profit string
		details                           string
	)
	if err := rows.Scan(&b.ID, &b.Game, &stake, &payout, &multiplier, &profit, &b.Won, &b.Source, &b.RunID, &details, &b.CreatedAt); err != nil {
		return Bet{}, fmt.Errorf("history: scan bet: %w", err)
	}
	var err error
	if b.Stake, err = decimal.NewFromString(stake); err != nil {
		return Bet{}, fmt.Errorf("history: bet %s stake: %w", b.ID, err)
	}
	if b.Payout, err = decimal.NewFromString(payout); err != nil {
		return Bet{}, fmt.Errorf("history: bet %s payout: %w", b.ID, err)
	}
	if b.Multiplier, err = decimal.NewFromString(multiplier); err != nil {
		return Bet{}, fmt.Errorf("history: bet %s multiplier: %w", b.ID, err)
	}
	if b.Profit, err = decimal.NewFromString(profit); err != nil {
		return Bet{}, fmt.Errorf("history: bet %s profit: %w", b.ID, err)
	}
	if err := json.Unmarshal([]byte(details), &b.Details); err != nil {
		return Bet{}, fmt.Errorf("history: bet %s details: %w", b.ID, err)
	}
	return b, nil
}

// Summary aggregates all bets per game, ordered by game.
func (s *Store) Summary(ctx context.Context) ([]GameSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT game, stake, payout, won, created_at FROM bets ORDER BY game, seq`,
	)
	if err != nil {
		return nil, fmt.Errorf("history: summary: %w", err)
	}
	defer rows.Close()

	var out []GameSummary
	for rows.Next() {
		var (
			game, stake, payout string
			won                 bool
			at                  time.Time
		)
		if err := rows.Scan(&game, &stake, &payout, &won, &at); err != nil {
			return nil, fmt.Errorf("history: scan summary row: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Game != game {
			out = append(out, GameSummary{Game: game, Wagered: decimal.Zero, Paid: decimal.Zero})
		}
		g := &out[len(out)-1]
		g.Bets++
		if won {
			g.Wins++
		}
		g.Wagered = g.Wagered.Add(decimal.RequireFromString(stake))
		g.Paid = g.Paid.Add(decimal.RequireFromString(payout))
		g.LastPlay = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate summary: %w", err)
	}

	for i := range out {
		g := &out[i]
		g.Profit = g.Paid.Sub(g.Wagered)
		g.HitRate = float64(g.Wins) / float64(g.Bets)
		if g.Wagered.IsPositive() {
			g.RTP = g.Paid.Div(g.Wagered).InexactFloat64()
		}
	}
	return out, nil
}

// CreateRun inserts a new autoplay run and returns its ID.
func (s *Store) CreateRun(ctx context.Context, run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO autoplay_runs (id, game, script_source, start_balance, created_at, final_state)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Game, run.ScriptSource, run.StartBalance.String(), run.CreatedAt.UTC(), "running",
	)
	if err != nil {
		return "", fmt.Errorf("history: create run: %w", err)
	}
	return run.ID, nil
}

// EndRun marks a run as ended with final stats.
func (s *Store) EndRun(ctx context.Context, id, finalState string, stats RunStats) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE autoplay_runs SET
			ended_at = ?, final_state = ?, final_balance = ?,
			total_bets = ?, total_wins = ?, total_losses = ?,
			total_profit = ?, total_wagered = ?,
			highest_streak = ?, lowest_streak = ?
		 WHERE id = ?`,
		time.Now().UTC(), finalState, stats.FinalBalance.String(),
		stats.TotalBets, stats.TotalWins, stats.TotalLosses,
		stats.TotalProfit.String(), stats.TotalWagered.String(),
		stats.HighestStreak, stats.LowestStreak,
		id,
	)
	if err != nil {
		return fmt.Errorf("history: end run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("history: run %q not found", id)
	}
	return nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, game, script_source, start_balance, final_balance, created_at, ended_at,
		        final_state, total_bets, total_wins, total_losses, total_profit, total_wagered,
		        highest_streak, lowest_streak
		 FROM autoplay_runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                      Run
			start, profit, wagered string
			final                  sql.NullString
			ended                  sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Game, &r.ScriptSource, &start, &final, &r.CreatedAt, &ended,
			&r.FinalState, &r.TotalBets, &r.TotalWins, &r.TotalLosses, &profit, &wagered,
			&r.HighestStreak, &r.LowestStreak); err != nil {
			return nil, fmt.Errorf("history: scan run: %w", err)
		}
		r.StartBalance = decimal.RequireFromString(start)
		r.TotalProfit = decimal.RequireFromString(profit)
		r.TotalWagered = decimal.RequireFromString(wagered)
		if final.Valid {
			fb := decimal.RequireFromString(final.String)
			r.FinalBalance = &fb
		}
		if ended.Valid {
			r.EndedAt = &ended.Time
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
