package rps

import (
	"math/rand/v2"
	"testing"
)

func TestUpdateStatsCountsGamesOnLossOnly(t *testing.T) {
	var s Stats
	s = UpdateStats(s, Rock, Win, 1)
	s = UpdateStats(s, Rock, Draw, 0)
	if s.TotalGames != 0 {
		t.Fatalf("expected no games before a loss, got %d", s.TotalGames)
	}
	s = UpdateStats(s, Paper, Lose, 0)
	if s.TotalGames != 1 || s.Wins != 1 || s.Losses != 1 || s.Draws != 1 {
		t.Fatalf("unexpected counters: %+v", s)
	}
	if s.AverageWinStreak != 1 {
		t.Fatalf("expected average streak 1, got %v", s.AverageWinStreak)
	}
	if s.HandFrequency.Get(Rock) != 2 || s.HandFrequency.Get(Paper) != 1 {
		t.Fatalf("unexpected frequency: %+v", s.HandFrequency)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid stats, got %v", err)
	}
}

func TestUpdateStatsWinRateAndMaxStreak(t *testing.T) {
	var s Stats
	s = UpdateStats(s, Rock, Win, 1)
	s = UpdateStats(s, Rock, Win, 2)
	s = UpdateStats(s, Rock, Win, 3)
	s = UpdateStats(s, Rock, Lose, 0)
	if s.MaxWinStreak != 3 {
		t.Fatalf("expected max streak 3, got %d", s.MaxWinStreak)
	}
	if s.WinRatePercent != 75 {
		t.Fatalf("expected 75%% win rate, got %v", s.WinRatePercent)
	}
	s = UpdateStats(s, Rock, Win, 1)
	if s.MaxWinStreak != 3 {
		t.Fatalf("max streak must not drop, got %d", s.MaxWinStreak)
	}
}

func TestRandomRunsKeepInvariants(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 99))
	var st Stats
	s := Start(t0)
	for i := 0; i < 2000; i++ {
		hand := Hands[rnd.IntN(3)]
		var err error
		s, err = ChooseHand(s, hand, rnd)
		if err != nil {
			t.Fatalf("choose: %v", err)
		}
		var rec RoundRecord
		s, rec, err = Reveal(s, t0)
		if err != nil {
			t.Fatalf("reveal: %v", err)
		}
		st = UpdateStats(st, rec.PlayerHand, rec.Result, s.CurrentWinStreak)
		if st.HandFrequency.Total() != st.TotalRounds {
			t.Fatalf("round %d: frequency sum %d != rounds %d", i, st.HandFrequency.Total(), st.TotalRounds)
		}
		if err := st.Validate(); err != nil {
			t.Fatalf("round %d: %v", i, err)
		}
		s, _ = ContinueRound(s)
		if s.Phase == PhaseWaiting {
			s = Start(t0)
		}
	}
}

func TestStatsValidate(t *testing.T) {
	cases := map[string]Stats{
		"frequency mismatch": {TotalRounds: 2, Wins: 2, MaxWinStreak: 2, HandFrequency: HandFrequency{Rock: 1}},
		"results mismatch":   {TotalRounds: 1, HandFrequency: HandFrequency{Rock: 1}},
		"games vs losses":    {TotalRounds: 1, Losses: 1, HandFrequency: HandFrequency{Rock: 1}},
		"streak over wins":   {TotalRounds: 1, Wins: 1, MaxWinStreak: 4, HandFrequency: HandFrequency{Rock: 1}},
		"negative":           {Wins: -1},
		"rate":               {WinRatePercent: 101},
	}
	for name, s := range cases {
		if err := s.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if err := (Stats{}).Validate(); err != nil {
		t.Fatalf("zero stats should validate: %v", err)
	}
}
