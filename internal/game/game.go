package game

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"time"

	"gamecenter/internal/stats"
)

// Info describes a playable engine. ID matches the catalog descriptor id.
type Info struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Action is one user intent dispatched into a match.
type Action struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Rand is the randomness an engine draws from. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// MatchConfig holds the collaborators injected into a new match.
type MatchConfig struct {
	Rand  Rand
	Now   func() time.Time
	Stats stats.Store
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// WithDefaults fills unset collaborators: the global PRNG, the wall clock
// and a throwaway in-memory stats store.
func (c MatchConfig) WithDefaults() MatchConfig {
	if c.Rand == nil {
		c.Rand = globalRand{}
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Stats == nil {
		c.Stats = stats.NewMemoryStore()
	}
	return c
}

// Game describes a playable engine.
type Game interface {
	Info() Info
	NewMatch(ctx context.Context, config MatchConfig) Match
	// LoadStats returns the aggregate stats stored for this game, or defaults.
	LoadStats(ctx context.Context, store stats.Store) any
}

// Match is one single-player game in progress.
type Match interface {
	// State is the render-safe view; hidden information stays hidden.
	State() any
	Phase() string
	ValidActions() []string
	ApplyAction(ctx context.Context, action Action) error
	Stats() any
	// MarshalJSON / UnmarshalJSON support for persistence
	MarshalJSON() ([]byte, error)
	UnmarshalJSON(data []byte) error
}

// Deferred is implemented by matches that need a follow-up action applied
// after a delay, such as the reveal that follows a committed hand.
type Deferred interface {
	Pending() (action Action, delay time.Duration, ok bool)
}
