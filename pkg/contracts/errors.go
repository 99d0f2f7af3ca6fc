package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrUnknownSport matches any UnknownSportError via errors.Is
	ErrUnknownSport = errors.New("unknown sport")
)

// UnknownSportError is returned when no plugin is registered for a sport key
type UnknownSportError struct {
	SportKey string
}

func (e *UnknownSportError) Error() string {
	return fmt.Sprintf("unknown sport: %q", e.SportKey)
}

func (e *UnknownSportError) Is(target error) bool {
	return target == ErrUnknownSport
}

// ContextBuildError aborts a bonus calculation because match context could not be
// reconstructed. It is safe to retry once the underlying data is available.
type ContextBuildError struct {
	MatchID string
	Stage   string // "match", "tournament", "events"
	Err     error
}

func (e *ContextBuildError) Error() string {
	return fmt.Sprintf("build context for match %s (%s): %v", e.MatchID, e.Stage, e.Err)
}

func (e *ContextBuildError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller should try again later
func (e *ContextBuildError) Retryable() bool {
	return true
}

// EvaluationError is a fault inside one rule for one player.
// It is logged and isolated; it never fails the whole calculation.
type EvaluationError struct {
	Rule     string
	PlayerID string
	Err      error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate rule %s for player %s: %v", e.Rule, e.PlayerID, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
