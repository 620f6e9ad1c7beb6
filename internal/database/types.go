package database

import (
	"time"

	"github.com/shopspring/decimal"
)

type Holding struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"-"`
	FundCode  string          `db:"fund_code" json:"code"`
	FundName  string          `db:"fund_name" json:"name"`
	AvgCost   decimal.Decimal `db:"avg_cost" json:"cost"`
	HoldShare decimal.Decimal `db:"hold_share" json:"shares"`
	CreatedAt time.Time       `db:"created_at" json:"-"`
}

type User struct {
	ID          int64           `db:"id" json:"id"`
	Email       string          `db:"email" json:"email"`
	Nickname    string          `db:"nickname" json:"nickname"`
	TotalProfit decimal.Decimal `db:"total_profit" json:"total_profit"`
	DayProfit   decimal.Decimal `db:"day_profit" json:"day_profit"`
}

// LeaderboardRow is the raw ranking projection; emails are masked in the
// service layer before they leave the process.
type LeaderboardRow struct {
	Nickname    string          `db:"nickname" json:"nickname"`
	Email       string          `db:"email" json:"email"`
	TotalProfit decimal.Decimal `db:"total_profit" json:"total_profit"`
	DayProfit   decimal.Decimal `db:"day_profit" json:"day_profit"`
}
