package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gamecenter/internal/catalog"
	"gamecenter/internal/game"
	"gamecenter/internal/game/numberguess"
	"gamecenter/internal/game/rps"
	"gamecenter/internal/session"
	"gamecenter/internal/stats"
)

// fixedRand draws 41 (mod n): guess target 42 in 1..100, CPU scissors.
type fixedRand struct{}

func (fixedRand) IntN(n int) int { return 41 % n }

func fixedNow() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }

func TestPlayNumberGuess(t *testing.T) {
	store := stats.NewMemoryStore()
	g := numberguess.New(numberguess.DefaultRange())
	in := strings.NewReader("abc\n500\n50\n10\n42\nquit\n")
	var out bytes.Buffer

	err := runPlay(context.Background(), g, game.MatchConfig{Rand: fixedRand{}, Now: fixedNow, Stats: store}, in, &out, func(time.Duration) {
		t.Fatal("number guess should not defer actions")
	})
	if err != nil {
		t.Fatalf("play: %v", err)
	}

	text := out.String()
	for _, want := range []string{"pick a number between 1 and 100", "enter a number between 1 and 100", "too-high", "too-low", "correct! 42 in 3 attempts"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}

	st := g.LoadStats(context.Background(), store).(numberguess.Stats)
	if st.GamesWon != 1 || st.BestScore == nil || *st.BestScore != 3 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestPlayRockPaperScissors(t *testing.T) {
	store := stats.NewMemoryStore()
	g := rps.New(time.Second)
	in := strings.NewReader("r\nrock\np\nstats\nq\n")
	var out bytes.Buffer

	var waits []time.Duration
	err := runPlay(context.Background(), g, game.MatchConfig{Rand: fixedRand{}, Now: fixedNow, Stats: store}, in, &out, func(d time.Duration) {
		waits = append(waits, d)
	})
	if err != nil {
		t.Fatalf("play: %v", err)
	}

	if len(waits) != 3 {
		t.Fatalf("expected 3 reveal waits, got %v", waits)
	}
	for _, d := range waits {
		if d != time.Second {
			t.Fatalf("expected 1s reveal delay, got %v", d)
		}
	}

	text := out.String()
	for _, want := range []string{"you played rock...", "rock vs scissors: win", "paper vs scissors: lose", `"maxWinStreak": 2`} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}

	st := g.LoadStats(context.Background(), store).(rps.Stats)
	if st.Wins != 2 || st.Losses != 1 || st.TotalGames != 1 || st.TotalRounds != 3 || st.MaxWinStreak != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestPlayStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runPlay(ctx, rps.New(time.Second), game.MatchConfig{Rand: fixedRand{}}, strings.NewReader("r\n"), &bytes.Buffer{}, func(time.Duration) {})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestLookupGame(t *testing.T) {
	reg := game.NewRegistry()
	reg.Register(numberguess.New(numberguess.DefaultRange()))
	reg.Register(rps.New(time.Second))

	if _, err := lookupGame(reg, rps.ID); err != nil {
		t.Fatalf("lookup rps: %v", err)
	}
	cases := map[string]error{
		"nope":            session.ErrUnknownGame,
		"game-template-3": session.ErrUnavailable,
		"game-template-1": session.ErrNoEngine,
	}
	for id, want := range cases {
		if _, err := lookupGame(reg, id); !errors.Is(err, want) {
			t.Fatalf("%s: expected %v, got %v", id, want, err)
		}
	}
}

func TestParseFilter(t *testing.T) {
	f, err := parseFilter("", "", "available", "rock")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	games := catalog.Default().Filter(f)
	if len(games) != 1 || games[0].ID != rps.ID {
		t.Fatalf("expected rock-paper-scissors only, got %+v", games)
	}
	if _, err := parseFilter("", "impossible", "", ""); err == nil {
		t.Fatal("expected error for unknown difficulty")
	}
}

func TestPrintCatalog(t *testing.T) {
	var out bytes.Buffer
	printCatalog(&out, catalog.Default().All())
	if !strings.Contains(out.String(), "Guess the Number") {
		t.Fatalf("expected titles in output:\n%s", out.String())
	}

	out.Reset()
	printCatalog(&out, nil)
	if !strings.Contains(out.String(), "no games match") {
		t.Fatalf("expected empty message, got %q", out.String())
	}
}
