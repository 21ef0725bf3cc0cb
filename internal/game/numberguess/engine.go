// Package numberguess implements the number guessing game: the player
// guesses a hidden integer and is told whether each guess is too high or
// too low until it is found.
package numberguess

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"gamecenter/internal/game"
)

const (
	DefaultMin = 1
	DefaultMax = 100
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
)

type Outcome string

const (
	TooHigh Outcome = "too-high"
	TooLow  Outcome = "too-low"
	Correct Outcome = "correct"
)

// Hint describes how far the last guess was from the target.
type Hint string

const (
	HintNone      Hint = ""
	HintVeryClose Hint = "very-close"
	HintClose     Hint = "close"
	HintFar       Hint = "far"
	HintVeryFar   Hint = "very-far"
)

// Range is an inclusive integer interval.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultRange is 1..100.
func DefaultRange() Range { return Range{Min: DefaultMin, Max: DefaultMax} }

func (r Range) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("invalid range: min %d > max %d", r.Min, r.Max)
	}
	if int64(r.Max)-int64(r.Min) >= math.MaxInt32 {
		return fmt.Errorf("invalid range: %d..%d is too wide", r.Min, r.Max)
	}
	return nil
}

func (r Range) contains(n int) bool { return n >= r.Min && n <= r.Max }

// GuessRecord is one evaluated guess.
type GuessRecord struct {
	Guess         int       `json:"guess"`
	Outcome       Outcome   `json:"outcome"`
	AttemptNumber int       `json:"attemptNumber"`
	Timestamp     time.Time `json:"timestamp"`
}

// Session is the state of one round. Operations return a new Session and
// never modify their argument.
type Session struct {
	Target         int           `json:"targetNumber"`
	Range          Range         `json:"range"`
	CurrentInput   string        `json:"currentInput"`
	Attempts       int           `json:"attempts"`
	History        []GuessRecord `json:"history"`
	Status         Status        `json:"status"`
	StartTime      time.Time     `json:"startTime"`
	EndTime        *time.Time    `json:"endTime,omitempty"`
	BestScoreSoFar *int          `json:"bestScore,omitempty"`
}

// NewSession returns a session waiting for its first start.
func NewSession(r Range) Session {
	return Session{Range: r, Status: StatusWaiting}
}

// ValidationError rejects a guess without changing the session.
// Kind is game.ErrInvalidFormat or game.ErrOutOfRange.
type ValidationError struct {
	Kind  error
	Input string
	Range Range
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Kind, game.ErrOutOfRange) {
		return fmt.Sprintf("enter a number between %d and %d", e.Range.Min, e.Range.Max)
	}
	return fmt.Sprintf("%q is not a valid number", e.Input)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// Start draws a fresh target uniformly from r and begins a new round.
func Start(rnd game.Rand, r Range, best *int, now time.Time) (Session, error) {
	if err := r.Validate(); err != nil {
		return Session{}, err
	}
	return Session{
		Target:         r.Min + rnd.IntN(r.Max-r.Min+1),
		Range:          r,
		History:        []GuessRecord{},
		Status:         StatusPlaying,
		StartTime:      now,
		BestScoreSoFar: cloneInt(best),
	}, nil
}

// SubmitGuess evaluates rawInput against the target.
func SubmitGuess(s Session, rawInput string, now time.Time) (Session, error) {
	if s.Status != StatusPlaying {
		return s, game.ErrNotAcceptingInput
	}
	guess, err := strconv.Atoi(strings.TrimSpace(rawInput))
	if errors.Is(err, strconv.ErrRange) {
		return s, &ValidationError{Kind: game.ErrOutOfRange, Input: rawInput, Range: s.Range}
	}
	if err != nil {
		return s, &ValidationError{Kind: game.ErrInvalidFormat, Input: rawInput, Range: s.Range}
	}
	if !s.Range.contains(guess) {
		return s, &ValidationError{Kind: game.ErrOutOfRange, Input: rawInput, Range: s.Range}
	}

	next := s
	next.CurrentInput = ""
	next.Attempts = s.Attempts + 1
	rec := GuessRecord{
		Guess:         guess,
		Outcome:       classify(guess, s.Target),
		AttemptNumber: next.Attempts,
		Timestamp:     now,
	}
	next.History = append(slices.Clip(s.History), rec)
	if rec.Outcome == Correct {
		end := now
		next.Status = StatusWon
		next.EndTime = &end
	}
	return next, nil
}

func classify(guess, target int) Outcome {
	switch {
	case guess == target:
		return Correct
	case guess > target:
		return TooHigh
	default:
		return TooLow
	}
}

// ComputeHint grades the distance of the last guess from the target.
func ComputeHint(s Session) Hint {
	if len(s.History) == 0 {
		return HintNone
	}
	diff := s.History[len(s.History)-1].Guess - s.Target
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 5:
		return HintVeryClose
	case diff <= 10:
		return HintClose
	case diff <= 20:
		return HintFar
	default:
		return HintVeryFar
	}
}

// LastOutcome reports the outcome of the most recent guess.
func LastOutcome(s Session) (Outcome, bool) {
	if len(s.History) == 0 {
		return "", false
	}
	return s.History[len(s.History)-1].Outcome, true
}

// Elapsed is the time from start to the winning guess, or to now while playing.
func Elapsed(s Session, now time.Time) time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
