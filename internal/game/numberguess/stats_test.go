package numberguess

import (
	"testing"
	"time"
)

func wonSession(t *testing.T, attempts int, took time.Duration) Session {
	t.Helper()
	s := startWithTarget(t, DefaultRange(), 50)
	for i := 1; i < attempts; i++ {
		var err error
		s, err = SubmitGuess(s, "1", t0)
		if err != nil {
			t.Fatalf("miss: %v", err)
		}
	}
	s, err := SubmitGuess(s, "50", t0.Add(took))
	if err != nil {
		t.Fatalf("hit: %v", err)
	}
	if s.Status != StatusWon || s.Attempts != attempts {
		t.Fatalf("expected won in %d, got %+v", attempts, s)
	}
	return s
}

func TestUpdateStatsFirstWin(t *testing.T) {
	got := UpdateStats(Stats{}, wonSession(t, 4, 30*time.Second))

	if got.TotalGames != 1 || got.GamesWon != 1 || got.TotalAttempts != 4 {
		t.Fatalf("unexpected counters: %+v", got)
	}
	if got.BestScore == nil || *got.BestScore != 4 {
		t.Fatalf("expected best score 4, got %v", got.BestScore)
	}
	if got.AverageAttempts != 4 {
		t.Fatalf("expected average 4, got %v", got.AverageAttempts)
	}
	if got.FastestTimeSeconds == nil || *got.FastestTimeSeconds != 30 {
		t.Fatalf("expected fastest 30s, got %v", got.FastestTimeSeconds)
	}
	if got.WinRatePercent != 100 {
		t.Fatalf("expected win rate 100, got %v", got.WinRatePercent)
	}
}

func TestUpdateStatsBestScoreKeepsMinimum(t *testing.T) {
	k := 3
	st := UpdateStats(Stats{}, wonSession(t, k, 20*time.Second))
	st = UpdateStats(st, wonSession(t, k+5, 10*time.Second))

	if *st.BestScore != k {
		t.Fatalf("expected best score %d, got %d", k, *st.BestScore)
	}
	if *st.FastestTimeSeconds != 10 {
		t.Fatalf("expected fastest time 10, got %v", *st.FastestTimeSeconds)
	}
	if st.TotalAttempts != 2*k+5 || st.AverageAttempts != float64(2*k+5)/2 {
		t.Fatalf("unexpected attempts aggregate: %+v", st)
	}
}

func TestUpdateStatsIgnoresUnfinished(t *testing.T) {
	prev := Stats{TotalGames: 2, GamesWon: 2, TotalAttempts: 9}
	s := startWithTarget(t, DefaultRange(), 50)
	s, _ = SubmitGuess(s, "1", t0)
	if got := UpdateStats(prev, s); got != prev {
		t.Fatalf("expected stats unchanged, got %+v", got)
	}
}

func TestStatsValidate(t *testing.T) {
	zero := 0
	neg := -1.0
	bad := []Stats{
		{TotalGames: -1},
		{TotalGames: 1, GamesWon: 2, TotalAttempts: 2},
		{TotalGames: 2, GamesWon: 2, TotalAttempts: 1},
		{TotalGames: 1, GamesWon: 1, TotalAttempts: 1, BestScore: &zero},
		{TotalGames: 1, GamesWon: 1, TotalAttempts: 1, FastestTimeSeconds: &neg},
		{WinRatePercent: 120},
	}
	for i, s := range bad {
		if err := s.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error for %+v", i, s)
		}
	}
	if err := (Stats{}).Validate(); err != nil {
		t.Fatalf("zero stats should be valid: %v", err)
	}
}
