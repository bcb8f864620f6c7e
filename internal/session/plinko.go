package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/games"
)

// Board geometry in percent of the play field.
const (
	ballStartX     = 50.0
	ballFallSpeed  = 2.5
	ballLandY      = 96.0
	pegSpacingHalf = 3.3
)

// Vec is a 2D point or velocity in percent units.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ball is one plinko ball in flight. Its bucket and payout are already
// settled; the flight is for display.
type Ball struct {
	ID           string            `json:"id"`
	OutcomeID    string            `json:"outcome_id"`
	Rows         int               `json:"rows"`
	TargetBucket int               `json:"target_bucket"`
	Path         []games.Direction `json:"path"`
	Position     Vec               `json:"position"`
	Velocity     Vec               `json:"velocity"`
	RowIndex     int               `json:"row_index"`
	Landed       bool              `json:"landed"`
}

func newBall(outcomeID string, drop games.PlinkoDrop) *Ball {
	return &Ball{
		ID:           uuid.NewString(),
		OutcomeID:    outcomeID,
		Rows:         drop.Rows,
		TargetBucket: drop.Bucket,
		Path:         drop.Path,
		Position:     Vec{X: ballStartX},
		Velocity:     Vec{Y: ballFallSpeed},
	}
}

// Step advances the ball one frame. Crossing a peg row applies the next
// path direction.
func (b *Ball) Step() {
	if b.Landed {
		return
	}
	rowHeight := 100 / float64(b.Rows+2)
	nextY := b.Position.Y + b.Velocity.Y
	for int(nextY/rowHeight) > b.RowIndex && b.RowIndex < len(b.Path) {
		if b.Path[b.RowIndex] == games.Right {
			b.Position.X += pegSpacingHalf
		} else {
			b.Position.X -= pegSpacingHalf
		}
		b.RowIndex++
	}
	b.Position.Y = nextY
	if b.Position.Y > ballLandY {
		b.Landed = true
	}
}

// Field is the set of balls currently in flight.
type Field struct {
	mu    sync.Mutex
	balls map[string]*Ball
}

// NewField creates an empty field.
func NewField() *Field {
	return &Field{balls: make(map[string]*Ball)}
}

// Launch adds a ball for a settled drop.
func (f *Field) Launch(outcomeID string, drop games.PlinkoDrop) Ball {
	b := newBall(outcomeID, drop)
	f.mu.Lock()
	f.balls[b.ID] = b
	f.mu.Unlock()
	return *b
}

// Advance steps every ball by frames and retires the ones that landed.
func (f *Field) Advance(frames int) (landed []Ball) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := 0; i < frames; i++ {
		for id, b := range f.balls {
			b.Step()
			if b.Landed {
				landed = append(landed, *b)
				delete(f.balls, id)
			}
		}
	}
	sort.Slice(landed, func(i, j int) bool { return landed[i].ID < landed[j].ID })
	return landed
}

// Balls returns a copy of the in-flight balls ordered by ID.
func (f *Field) Balls() []Ball {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Ball, 0, len(f.balls))
	for _, b := range f.balls {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InFlight is the number of balls not yet landed.
func (f *Field) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.balls)
}

// Reset drops every ball in flight.
func (f *Field) Reset() {
	f.mu.Lock()
	f.balls = make(map[string]*Ball)
	f.mu.Unlock()
}
