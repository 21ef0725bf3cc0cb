package numberguess

import (
	"errors"
	"fmt"
)

// Stats are the aggregates persisted across rounds. BestScore and
// FastestTimeSeconds are nil until the first win.
type Stats struct {
	TotalGames         int      `json:"totalGames"`
	GamesWon           int      `json:"gamesWon"`
	TotalAttempts      int      `json:"totalAttempts"`
	BestScore          *int     `json:"bestScore"`
	AverageAttempts    float64  `json:"averageAttempts"`
	FastestTimeSeconds *float64 `json:"fastestTime"`
	WinRatePercent     float64  `json:"winRate"`
}

// Validate checks the invariants a decoded record must satisfy.
func (s Stats) Validate() error {
	if s.TotalGames < 0 || s.GamesWon < 0 || s.TotalAttempts < 0 {
		return errors.New("negative counter")
	}
	if s.GamesWon > s.TotalGames {
		return fmt.Errorf("gamesWon %d exceeds totalGames %d", s.GamesWon, s.TotalGames)
	}
	if s.TotalAttempts < s.GamesWon {
		return fmt.Errorf("totalAttempts %d below gamesWon %d", s.TotalAttempts, s.GamesWon)
	}
	if s.BestScore != nil && *s.BestScore < 1 {
		return fmt.Errorf("bestScore %d below 1", *s.BestScore)
	}
	if s.FastestTimeSeconds != nil && *s.FastestTimeSeconds < 0 {
		return errors.New("negative fastestTime")
	}
	if s.WinRatePercent < 0 || s.WinRatePercent > 100 {
		return fmt.Errorf("winRate %v outside 0..100", s.WinRatePercent)
	}
	return nil
}

// UpdateStats folds a won session into prev. Sessions that are not won
// leave prev unchanged.
func UpdateStats(prev Stats, s Session) Stats {
	if s.Status != StatusWon {
		return prev
	}
	next := prev
	next.TotalGames = prev.TotalGames + 1
	next.GamesWon = prev.GamesWon + 1
	next.TotalAttempts = prev.TotalAttempts + s.Attempts

	best := s.Attempts
	if prev.BestScore != nil && *prev.BestScore < best {
		best = *prev.BestScore
	}
	next.BestScore = &best

	next.AverageAttempts = float64(next.TotalAttempts) / float64(next.TotalGames)

	secs := Elapsed(s, s.StartTime).Seconds()
	if prev.FastestTimeSeconds != nil && *prev.FastestTimeSeconds < secs {
		secs = *prev.FastestTimeSeconds
	}
	next.FastestTimeSeconds = &secs

	next.WinRatePercent = 100 * float64(next.GamesWon) / float64(next.TotalGames)
	return next
}
