package rps

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gamecenter/internal/game"
	"gamecenter/internal/stats"
)

func newTestMatch(t *testing.T, store stats.Store, cpu Hand) *Match {
	t.Helper()
	return New(0).NewMatch(context.Background(), game.MatchConfig{
		Rand:  cpuRand(cpu),
		Now:   func() time.Time { return t0 },
		Stats: store,
	}).(*Match)
}

func choose(hand Hand) game.Action {
	payload, _ := json.Marshal(choosePayload{Hand: string(hand)})
	return game.Action{Type: "choose", Payload: payload}
}

func TestMatchHidesCPUHandWhileRevealing(t *testing.T) {
	ctx := context.Background()
	m := newTestMatch(t, stats.NewMemoryStore(), Scissors)
	if err := m.ApplyAction(ctx, game.Action{Type: "start"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.ApplyAction(ctx, choose(Rock)); err != nil {
		t.Fatalf("choose: %v", err)
	}
	view := m.State().(View)
	if view.Phase != PhaseRevealing || view.PlayerHand != Rock {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.CPUHand != "" || view.Result != "" {
		t.Fatalf("cpu hand leaked while revealing: %+v", view)
	}
	data, _ := json.Marshal(view)
	var raw map[string]any
	json.Unmarshal(data, &raw)
	if _, ok := raw["cpuHand"]; ok {
		t.Fatalf("cpuHand present in JSON: %s", data)
	}
}

func TestMatchPendingReveal(t *testing.T) {
	ctx := context.Background()
	m := newTestMatch(t, stats.NewMemoryStore(), Scissors)
	if _, _, ok := m.Pending(); ok {
		t.Fatal("no reveal should be pending before a hand is chosen")
	}
	m.ApplyAction(ctx, game.Action{Type: "start"})
	m.ApplyAction(ctx, choose(Rock))

	action, delay, ok := m.Pending()
	if !ok || action.Type != "reveal" || delay != DefaultRevealDelay {
		t.Fatalf("expected pending reveal after %v, got %v %v %v", DefaultRevealDelay, action, delay, ok)
	}

	if err := m.ApplyAction(ctx, action); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, _, ok := m.Pending(); ok {
		t.Fatal("reveal should no longer be pending")
	}
	view := m.State().(View)
	if view.CPUHand != Scissors || view.Result != Win || view.CurrentWinStreak != 1 {
		t.Fatalf("unexpected result view: %+v", view)
	}
}

func TestMatchStatsSavedOnReveal(t *testing.T) {
	ctx := context.Background()
	store := stats.NewMemoryStore()
	m := newTestMatch(t, store, Paper)
	m.ApplyAction(ctx, game.Action{Type: "start"})
	m.ApplyAction(ctx, choose(Rock))

	if _, err := store.LoadStats(ctx, ID); !errors.Is(err, stats.ErrNotFound) {
		t.Fatalf("stats must not be written before reveal, got %v", err)
	}
	m.ApplyAction(ctx, game.Action{Type: "reveal"})

	saved := stats.Load(ctx, store, ID, Stats{})
	if saved.TotalRounds != 1 || saved.Losses != 1 || saved.TotalGames != 1 {
		t.Fatalf("unexpected saved stats: %+v", saved)
	}

	if err := m.ApplyAction(ctx, game.Action{Type: "continue"}); err != nil {
		t.Fatalf("continue: %v", err)
	}
	if m.Phase() != string(PhaseWaiting) {
		t.Fatalf("expected waiting after loss, got %s", m.Phase())
	}
}

func TestMatchRejectsInputOutsidePhase(t *testing.T) {
	ctx := context.Background()
	m := newTestMatch(t, stats.NewMemoryStore(), Rock)
	if err := m.ApplyAction(ctx, choose(Rock)); !errors.Is(err, game.ErrNotAcceptingInput) {
		t.Fatalf("expected ErrNotAcceptingInput, got %v", err)
	}
	if err := m.ApplyAction(ctx, game.Action{Type: "reveal"}); !errors.Is(err, game.ErrNotAcceptingInput) {
		t.Fatalf("expected ErrNotAcceptingInput, got %v", err)
	}
	m.ApplyAction(ctx, game.Action{Type: "start"})
	bad := game.Action{Type: "choose", Payload: json.RawMessage(`{"hand":"spock"}`)}
	if err := m.ApplyAction(ctx, bad); err == nil {
		t.Fatal("expected error for unknown hand")
	}
	if err := m.ApplyAction(ctx, game.Action{Type: "dance"}); !errors.Is(err, game.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestMatchRecentRoundsNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := newTestMatch(t, stats.NewMemoryStore(), Rock)
	m.ApplyAction(ctx, game.Action{Type: "start"})
	for i := 0; i < 8; i++ {
		m.ApplyAction(ctx, choose(Rock))
		m.ApplyAction(ctx, game.Action{Type: "reveal"})
		m.ApplyAction(ctx, game.Action{Type: "continue"})
	}
	view := m.State().(View)
	if len(view.Recent) != recentRounds {
		t.Fatalf("expected %d recent rounds, got %d", recentRounds, len(view.Recent))
	}
	if view.Recent[0].RoundNumber != 8 || view.Recent[5].RoundNumber != 3 {
		t.Fatalf("unexpected order: first %d last %d", view.Recent[0].RoundNumber, view.Recent[5].RoundNumber)
	}
}

func TestMatchMarshalUnmarshal(t *testing.T) {
	ctx := context.Background()
	m := newTestMatch(t, stats.NewMemoryStore(), Scissors)
	m.ApplyAction(ctx, game.Action{Type: "start"})
	m.ApplyAction(ctx, choose(Rock))

	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	m2 := newTestMatch(t, stats.NewMemoryStore(), Rock)
	if err := m2.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m2.Session.Phase != PhaseRevealing || m2.Session.CPUHand != Scissors {
		t.Fatalf("state mismatch after round-trip: %+v", m2.Session)
	}
	if _, _, ok := m2.Pending(); !ok {
		t.Fatal("restored revealing match should report a pending reveal")
	}
}

func TestCustomRevealDelay(t *testing.T) {
	m := New(20*time.Millisecond).NewMatch(context.Background(), game.MatchConfig{Rand: cpuRand(Rock)}).(*Match)
	m.ApplyAction(context.Background(), game.Action{Type: "start"})
	m.ApplyAction(context.Background(), choose(Paper))
	if _, d, _ := m.Pending(); d != 20*time.Millisecond {
		t.Fatalf("expected 20ms delay, got %v", d)
	}
	if New(0).Info().ID != "rock-paper-scissors" {
		t.Fatal("unexpected id")
	}
}
