package rps

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
const ID = "rock-paper-scissors"

// DefaultRevealDelay is the suspense pause between committing a hand and
// seeing the CPU hand.
const DefaultRevealDelay = 1500 * time.Millisecond

const recentRounds = 6

// RockPaperScissors implements game.Game.
type RockPaperScissors struct {
	RevealDelay time.Duration
}

func New(revealDelay time.Duration) RockPaperScissors {
	return RockPaperScissors{RevealDelay: revealDelay}
}

func (g RockPaperScissors) Info() game.Info {
	return game.Info{ID: ID, Title: "Rock Paper Scissors"}
}

func (g RockPaperScissors) NewMatch(ctx context.Context, config game.MatchConfig) game.Match {
	config = config.WithDefaults()
	delay := g.RevealDelay
	if delay <= 0 {
		delay = DefaultRevealDelay
	}
	m := &Match{
		Session:     NewSession(),
		rnd:         config.Rand,
		now:         config.Now,
		store:       config.Stats,
		revealDelay: delay,
	}
	m.stats = stats.Load(ctx, m.store, ID, Stats{})
	return m
}

func (g RockPaperScissors) LoadStats(ctx context.Context, store stats.Store) any {
	return stats.Load(ctx, store, ID, Stats{})
}

// Match implements game.Match and game.Deferred.
type Match struct {
	Session Session `json:"session"`

	stats       Stats
	rnd         game.Rand
	now         func() time.Time
	store       stats.Store
	revealDelay time.Duration
}

type choosePayload struct {
	Hand string `json:"hand"`
}

// View is what the player sees. While revealing only the player's own
// hand is shown.
type View struct {
	Phase            Phase         `json:"phase"`
	PlayerHand       Hand          `json:"playerHand,omitempty"`
	CPUHand          Hand          `json:"cpuHand,omitempty"`
	Result           Result        `json:"result,omitempty"`
	CurrentWinStreak int           `json:"currentWinStreak"`
	RoundCount       int           `json:"roundCount"`
	Recent           []RoundRecord `json:"recentRounds"`
}

func (m *Match) State() any {
	s := m.Session
	v := View{
		Phase:            s.Phase,
		PlayerHand:       s.PlayerHand,
		CurrentWinStreak: s.CurrentWinStreak,
		RoundCount:       s.RoundCount,
		Recent:           recent(s.History, recentRounds),
	}
	if s.Phase == PhaseResult {
		v.CPUHand = s.CPUHand
		v.Result = s.Result
	}
	return v
}

// recent returns the last n rounds, newest first.
func recent(h []RoundRecord, n int) []RoundRecord {
	if len(h) > n {
		h = h[len(h)-n:]
	}
	out := make([]RoundRecord, len(h))
	for i, r := range h {
		out[len(h)-1-i] = r
	}
	return out
}

func (m *Match) Phase() string { return string(m.Session.Phase) }

func (m *Match) ValidActions() []string {
	switch m.Session.Phase {
	case PhaseSelecting:
		return []string{"start", "choose"}
	case PhaseResult:
		return []string{"start", "continue"}
	default:
		return []string{"start"}
	}
}

func (m *Match) ApplyAction(ctx context.Context, action game.Action) error {
	switch action.Type {
	case "start":
		m.Session = Start(m.now())
		return nil

	case "choose":
		var p choosePayload
		if err := json.Unmarshal(action.Payload, &p); err != nil {
			return fmt.Errorf("invalid choose payload: %w", err)
		}
		hand, err := ParseHand(p.Hand)
		if err != nil {
			return err
		}
		next, err := ChooseHand(m.Session, hand, m.rnd)
		if err != nil {
			return err
		}
		m.Session = next
		return nil

	case "reveal":
		next, rec, err := Reveal(m.Session, m.now())
		if err != nil {
			return err
		}
		m.Session = next
		m.recordRound(ctx, rec, next.CurrentWinStreak)
		return nil

	case "continue":
		next, err := ContinueRound(m.Session)
		if err != nil {
			return err
		}
		m.Session = next
		return nil

	default:
		return fmt.Errorf("%w: %s", game.ErrUnknownAction, action.Type)
	}
}

func (m *Match) recordRound(ctx context.Context, rec RoundRecord, streak int) {
	next, err := stats.Update(ctx, m.store, ID, Stats{}, func(prev Stats) Stats {
		return UpdateStats(prev, rec.PlayerHand, rec.Result, streak)
	})
	m.stats = next
	if err != nil {
		logger.Warn("persist stats", "game", ID, "err", err)
	}
}

// Pending reports the reveal owed to a revealing round.
func (m *Match) Pending() (game.Action, time.Duration, bool) {
	if m.Session.Phase != PhaseRevealing {
		return game.Action{}, 0, false
	}
	return game.Action{Type: "reveal"}, m.revealDelay, true
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
