// Package rps implements rock-paper-scissors against a random CPU hand,
// played as a run of rounds that ends on the first loss.
package rps

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gamecenter/internal/game"
)

type Hand string

const (
	Rock     Hand = "rock"
	Paper    Hand = "paper"
	Scissors Hand = "scissors"
)

// Hands lists the three hands in CPU draw order.
var Hands = [3]Hand{Rock, Paper, Scissors}

// beats maps each hand to the hand it defeats.
var beats = map[Hand]Hand{
	Rock:     Scissors,
	Scissors: Paper,
	Paper:    Rock,
}

// ParseHand accepts the hand names case-insensitively.
func ParseHand(s string) (Hand, error) {
	h := Hand(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := beats[h]; !ok {
		return "", fmt.Errorf("unknown hand %q", s)
	}
	return h, nil
}

type Result string

const (
	Win  Result = "win"
	Lose Result = "lose"
	Draw Result = "draw"
)

// Decide returns the result for the player.
func Decide(player, cpu Hand) Result {
	switch {
	case player == cpu:
		return Draw
	case beats[player] == cpu:
		return Win
	default:
		return Lose
	}
}

type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseSelecting Phase = "selecting"
	PhaseRevealing Phase = "revealing"
	PhaseResult    Phase = "result"
)

// historyLimit bounds the retained rounds. RoundCount is not affected.
const historyLimit = 100

// RoundRecord is one revealed round.
type RoundRecord struct {
	PlayerHand  Hand      `json:"playerHand"`
	CPUHand     Hand      `json:"cpuHand"`
	Result      Result    `json:"result"`
	RoundNumber int       `json:"roundNumber"`
	Timestamp   time.Time `json:"timestamp"`
}

// Session is the state of one run. Operations return a new Session and
// never modify their argument.
type Session struct {
	PlayerHand       Hand          `json:"playerHand,omitempty"`
	CPUHand          Hand          `json:"cpuHand,omitempty"`
	Phase            Phase         `json:"phase"`
	Result           Result        `json:"result,omitempty"`
	CurrentWinStreak int           `json:"currentWinStreak"`
	RoundCount       int           `json:"roundCount"`
	StartTime        time.Time     `json:"startTime"`
	History          []RoundRecord `json:"history"`
}

// NewSession returns a session waiting for its first start.
func NewSession() Session {
	return Session{Phase: PhaseWaiting}
}

// Start begins a new run.
func Start(now time.Time) Session {
	return Session{
		Phase:     PhaseSelecting,
		StartTime: now,
		History:   []RoundRecord{},
	}
}

// ChooseHand commits the player's hand and draws the CPU hand. The result
// is decided here but stays hidden until Reveal.
func ChooseHand(s Session, hand Hand, rnd game.Rand) (Session, error) {
	if s.Phase != PhaseSelecting {
		return s, game.ErrNotAcceptingInput
	}
	if _, ok := beats[hand]; !ok {
		return s, fmt.Errorf("unknown hand %q", hand)
	}
	cpu := Hands[rnd.IntN(len(Hands))]

	next := s
	next.PlayerHand = hand
	next.CPUHand = cpu
	next.Result = Decide(hand, cpu)
	next.Phase = PhaseRevealing
	next.RoundCount = s.RoundCount + 1
	return next, nil
}

// Reveal moves a revealing round to its result and records it.
func Reveal(s Session, now time.Time) (Session, RoundRecord, error) {
	if s.Phase != PhaseRevealing {
		return s, RoundRecord{}, game.ErrNotAcceptingInput
	}
	next := s
	next.Phase = PhaseResult
	if s.Result == Win {
		next.CurrentWinStreak = s.CurrentWinStreak + 1
	} else {
		next.CurrentWinStreak = 0
	}
	rec := RoundRecord{
		PlayerHand:  s.PlayerHand,
		CPUHand:     s.CPUHand,
		Result:      s.Result,
		RoundNumber: s.RoundCount,
		Timestamp:   now,
	}
	h := append(slices.Clip(s.History), rec)
	if len(h) > historyLimit {
		h = h[len(h)-historyLimit:]
	}
	next.History = h
	return next, rec, nil
}

// ContinueRound ends the run after a loss, otherwise opens the next round.
func ContinueRound(s Session) (Session, error) {
	if s.Phase != PhaseResult {
		return s, game.ErrNotAcceptingInput
	}
	next := s
	if s.Result == Lose {
		next.Phase = PhaseWaiting
		return next, nil
	}
	next.PlayerHand = ""
	next.CPUHand = ""
	next.Result = ""
	next.Phase = PhaseSelecting
	return next, nil
}
