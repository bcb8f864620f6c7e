package casino

import (
	"fmt"

	"github.com/bhaeesma-sketch/Bhaeesgame/internal/domain"
)

// Phase is a controller's position in the bet lifecycle.
type Phase string

const (
	PhaseIdle               Phase = "idle"
	PhaseStakeCommitted     Phase = "stake_committed"
	PhaseResolving          Phase = "resolving"
	PhaseSettled            Phase = "settled"
	PhaseAwaitingNextReveal Phase = "awaiting_next_reveal"
	PhaseCashedOut          Phase = "cashed_out"
)

var transitions = map[Phase][]Phase{
	PhaseIdle:               {PhaseStakeCommitted},
	PhaseStakeCommitted:     {PhaseResolving, PhaseAwaitingNextReveal, PhaseIdle},
	PhaseResolving:          {PhaseSettled, PhaseAwaitingNextReveal},
	PhaseAwaitingNextReveal: {PhaseResolving, PhaseCashedOut},
	PhaseSettled:            {PhaseIdle},
	PhaseCashedOut:          {PhaseIdle},
}

func canTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// advance moves game to phase or returns ErrInvalidSessionState.
// Caller holds e.mu.
func (e *Engine) advance(game string, to Phase) error {
	from := e.phaseLocked(game)
	if !canTransition(from, to) {
		return fmt.Errorf("%w: %s cannot move from %s to %s", domain.ErrInvalidSessionState, game, from, to)
	}
	e.phases[game] = to
	return nil
}

// settle walks a finished action through via back to idle.
func (e *Engine) settle(game string, via Phase) {
	if err := e.advance(game, via); err != nil {
		panic(err)
	}
	e.phases[game] = PhaseIdle
}

// abort returns a game to idle after a rejected stake.
func (e *Engine) abort(game string) {
	e.phases[game] = PhaseIdle
}

// fail aborts game and returns err. Every error exit after a phase change
// goes through here or resume.
func (e *Engine) fail(game string, err error) error {
	e.abort(game)
	return err
}

// resume puts an open mines round back to awaiting its next reveal.
func (e *Engine) resume(game string) {
	e.phases[game] = PhaseAwaitingNextReveal
}

func (e *Engine) phaseLocked(game string) Phase {
	if p, ok := e.phases[game]; ok {
		return p
	}
	return PhaseIdle
}

// Phase returns the current phase of a game controller.
func (e *Engine) Phase(game string) Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phaseLocked(game)
}
