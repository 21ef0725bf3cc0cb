package rps

import (
	"errors"
	"fmt"
)

// HandFrequency counts how often the player chose each hand.
type HandFrequency struct {
	Rock     int `json:"rock"`
	Paper    int `json:"paper"`
	Scissors int `json:"scissors"`
}

func (f HandFrequency) Get(h Hand) int {
	switch h {
	case Rock:
		return f.Rock
	case Paper:
		return f.Paper
	case Scissors:
		return f.Scissors
	}
	return 0
}

func (f HandFrequency) inc(h Hand) HandFrequency {
	switch h {
	case Rock:
		f.Rock++
	case Paper:
		f.Paper++
	case Scissors:
		f.Scissors++
	}
	return f
}

func (f HandFrequency) Total() int { return f.Rock + f.Paper + f.Scissors }

// Stats are the aggregates persisted across runs. A "game" is a run that
// ended in a loss; draws and abandoned runs do not count toward TotalGames.
type Stats struct {
	TotalGames       int           `json:"totalGames"`
	Wins             int           `json:"wins"`
	Losses           int           `json:"losses"`
	Draws            int           `json:"draws"`
	WinRatePercent   float64       `json:"winRate"`
	MaxWinStreak     int           `json:"maxWinStreak"`
	TotalRounds      int           `json:"totalRounds"`
	HandFrequency    HandFrequency `json:"handFrequency"`
	AverageWinStreak float64       `json:"averageWinStreak"`
}

// Validate checks the invariants a decoded record must satisfy.
func (s Stats) Validate() error {
	if s.TotalGames < 0 || s.Wins < 0 || s.Losses < 0 || s.Draws < 0 || s.MaxWinStreak < 0 || s.TotalRounds < 0 {
		return errors.New("negative counter")
	}
	f := s.HandFrequency
	if f.Rock < 0 || f.Paper < 0 || f.Scissors < 0 {
		return errors.New("negative hand frequency")
	}
	if f.Total() != s.TotalRounds {
		return fmt.Errorf("hand frequency sum %d != totalRounds %d", f.Total(), s.TotalRounds)
	}
	if s.Wins+s.Losses+s.Draws != s.TotalRounds {
		return fmt.Errorf("results sum %d != totalRounds %d", s.Wins+s.Losses+s.Draws, s.TotalRounds)
	}
	if s.TotalGames != s.Losses {
		return fmt.Errorf("totalGames %d != losses %d", s.TotalGames, s.Losses)
	}
	if s.MaxWinStreak > s.Wins {
		return fmt.Errorf("maxWinStreak %d exceeds wins %d", s.MaxWinStreak, s.Wins)
	}
	if s.WinRatePercent < 0 || s.WinRatePercent > 100 {
		return fmt.Errorf("winRate %v outside 0..100", s.WinRatePercent)
	}
	return nil
}

// UpdateStats folds one revealed round into prev.
func UpdateStats(prev Stats, hand Hand, result Result, newStreak int) Stats {
	next := prev
	next.TotalRounds = prev.TotalRounds + 1
	next.HandFrequency = prev.HandFrequency.inc(hand)
	if newStreak > next.MaxWinStreak {
		next.MaxWinStreak = newStreak
	}
	switch result {
	case Win:
		next.Wins++
	case Lose:
		next.Losses++
		next.TotalGames++
	case Draw:
		next.Draws++
	}
	next.WinRatePercent = 100 * float64(next.Wins) / float64(next.TotalRounds)
	if next.TotalGames > 0 {
		next.AverageWinStreak = float64(next.Wins) / float64(next.TotalGames)
	} else {
		next.AverageWinStreak = 0
	}
	return next
}
