package service

import (
	"context"
	"regexp"
)

type LeaderboardEntry struct {
	Nickname    string `json:"nickname"`
	Email       string `json:"email"`
	TotalProfit string `json:"total_profit"`
	DayProfit   string `json:"day_profit"`
}

// emailMaskRe keeps the first two characters and the last two before the
// domain, e.g. "alice@example.com" -> "al****ce@example.com". Addresses too
// short to match pass through unchanged.
var emailMaskRe = regexp.MustCompile(`(.{2}).+(.{2}@.+)`)

func MaskEmail(email string) string {
	return emailMaskRe.ReplaceAllString(email, "$1****$2")
}

// Leaderboard returns the top users by the chosen rollup ("day" or "total"),
// with identifying emails masked. This is a public read; no auth scope
// applies.
func (s *PortfolioService) Leaderboard(ctx context.Context, sortKey string, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.store.TopUsers(ctx, sortKey, limit)
	if err != nil {
		return nil, err
	}
	res := make([]LeaderboardEntry, 0, len(rows))
	for _, u := range rows {
		res = append(res, LeaderboardEntry{
			Nickname:    u.Nickname,
			Email:       MaskEmail(u.Email),
			TotalProfit: u.TotalProfit.StringFixed(2),
			DayProfit:   u.DayProfit.StringFixed(2),
		})
	}
	return res, nil
}
