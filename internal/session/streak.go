// Package session holds per-game round state owned by the controllers.
package session

// Streak counts consecutive wins for the single-shot games.
type Streak struct {
	Count int `json:"count"`
}

// Win records a winning round.
func (s *Streak) Win() { s.Count++ }

// Loss breaks the streak.
func (s *Streak) Loss() { s.Count = 0 }

// Reset clears the streak when leaving the game.
func (s *Streak) Reset() { s.Count = 0 }

// Record applies the result of one round.
func (s *Streak) Record(won bool) {
	if won {
		s.Win()
		return
	}
	s.Loss()
}
