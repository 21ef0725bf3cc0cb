package numberguess

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gamecenter/internal/game"
	"gamecenter/internal/logger"
	"gamecenter/internal/stats"
)

// ID is the catalog id of the game and the key of its stats record.
const ID = "guess-the-number"

const recentGuesses = 5

// NumberGuess implements game.Game. The zero value plays 1..100.
type NumberGuess struct {
	Range Range

	configured bool
}

// New returns the game with the given guessing range. Any range is taken
// as given, including 0..0.
func New(r Range) NumberGuess {
	return NumberGuess{Range: r, configured: true}
}

func (g NumberGuess) Info() game.Info {
	return game.Info{ID: ID, Title: "Guess the Number"}
}

func (g NumberGuess) rangeOrDefault() Range {
	if !g.configured {
		return DefaultRange()
	}
	return g.Range
}

func (g NumberGuess) NewMatch(ctx context.Context, config game.MatchConfig) game.Match {
	config = config.WithDefaults()
	m := &Match{
		Session: NewSession(g.rangeOrDefault()),
		rnd:     config.Rand,
		now:     config.Now,
		store:   config.Stats,
	}
	m.stats = stats.Load(ctx, m.store, ID, Stats{})
	m.Session.BestScoreSoFar = cloneInt(m.stats.BestScore)
	return m
}

func (g NumberGuess) LoadStats(ctx context.Context, store stats.Store) any {
	return stats.Load(ctx, store, ID, Stats{})
}

// Match implements game.Match for the number guessing game.
type Match struct {
	Session Session `json:"session"`

	stats Stats
	rnd   game.Rand
	now   func() time.Time
	store stats.Store
}

type startPayload struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

type guessPayload struct {
	Input string `json:"input"`
}

// View is what the player sees. The target stays hidden until won.
type View struct {
	Status      Status        `json:"status"`
	Range       Range         `json:"range"`
	Attempts    int           `json:"attempts"`
	LastOutcome Outcome       `json:"lastOutcome,omitempty"`
	Hint        Hint          `json:"hint,omitempty"`
	Recent      []GuessRecord `json:"recentGuesses"`
	Target      *int          `json:"targetNumber,omitempty"`
	BestScore   *int          `json:"bestScore,omitempty"`
	ElapsedSecs float64       `json:"elapsedSeconds"`
}

func (m *Match) State() any {
	s := m.Session
	v := View{
		Status:      s.Status,
		Range:       s.Range,
		Attempts:    s.Attempts,
		Hint:        ComputeHint(s),
		Recent:      tail(s.History, recentGuesses),
		BestScore:   cloneInt(s.BestScoreSoFar),
		ElapsedSecs: Elapsed(s, m.now()).Seconds(),
	}
	if o, ok := LastOutcome(s); ok {
		v.LastOutcome = o
	}
	if s.Status == StatusWon {
		target := s.Target
		v.Target = &target
	}
	return v
}

func tail(h []GuessRecord, n int) []GuessRecord {
	if len(h) > n {
		h = h[len(h)-n:]
	}
	out := make([]GuessRecord, len(h))
	copy(out, h)
	return out
}

func (m *Match) Phase() string { return string(m.Session.Status) }

func (m *Match) ValidActions() []string {
	if m.Session.Status == StatusPlaying {
		return []string{"start", "guess"}
	}
	return []string{"start"}
}

func (m *Match) ApplyAction(ctx context.Context, action game.Action) error {
	switch action.Type {
	case "start":
		r := m.Session.Range
		if len(action.Payload) > 0 {
			var p startPayload
			if err := json.Unmarshal(action.Payload, &p); err != nil {
				return fmt.Errorf("invalid start payload: %w", err)
			}
			if p.Min != nil {
				r.Min = *p.Min
			}
			if p.Max != nil {
				r.Max = *p.Max
			}
		}
		s, err := Start(m.rnd, r, m.stats.BestScore, m.now())
		if err != nil {
			return err
		}
		m.Session = s
		return nil

	case "guess":
		var p guessPayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid guess payload: %w", err)
		}
		next, err := SubmitGuess(m.Session, p.Input, m.now())
		if err != nil {
			return err
		}
		m.Session = next
		if next.Status == StatusWon {
			m.recordWin(ctx)
		}
		return nil

	default:
		return fmt.Errorf("%w: %s", game.ErrUnknownAction, action.Type)
	}
}

func (m *Match) recordWin(ctx context.Context) {
	next, err := stats.Update(ctx, m.store, ID, Stats{}, func(prev Stats) Stats {
		return UpdateStats(prev, m.Session)
	})
	m.stats = next
	m.Session.BestScoreSoFar = cloneInt(m.stats.BestScore)
	if err != nil {
		logger.Warn("persist stats", "game", ID, "err", err)
	}
}

func (m *Match) Stats() any { return m.stats }

// CurrentStats returns the typed aggregates.
func (m *Match) CurrentStats() Stats { return m.stats }

func (m *Match) MarshalJSON() ([]byte, error) {
	type alias Match
	return json.Marshal((*alias)(m))
}

func (m *Match) UnmarshalJSON(data []byte) error {
	type alias Match
	return json.Unmarshal(data, (*alias)(m))
}
