package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxLeaderboardSize = 50

type Repo struct {
	db  *sqlx.DB
	log *logrus.Logger
}

func New(db *sqlx.DB, log *logrus.Logger) *Repo {
	return &Repo{db: db, log: log}
}

func (r *Repo) ListHoldings(ctx context.Context, userID int64) ([]Holding, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT id, user_id, fund_code, fund_name, avg_cost, hold_share, created_at FROM holdings WHERE user_id = $1 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Holding{}
	for rows.Next() {
		var h Holding
		if err := rows.StructScan(&h); err != nil {
			r.log.Warnf("scan holding failed: %v", err)
			continue
		}
		res = append(res, h)
	}
	return res, nil
}

func (r *Repo) InsertHolding(ctx context.Context, userID int64, fundCode, fundName string, avgCost, holdShare decimal.Decimal) (int64, error) {
	var id int64
	q := `INSERT INTO holdings (user_id, fund_code, fund_name, avg_cost, hold_share, created_at) VALUES ($1, $2, $3, $4::numeric, $5::numeric, now()) RETURNING id`
	if err := r.db.QueryRowContext(ctx, q, userID, fundCode, fundName, avgCost.String(), holdShare.String()).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateHolding rewrites an owned holding in place. Returns sql.ErrNoRows
// when the row does not exist or belongs to someone else.
func (r *Repo) UpdateHolding(ctx context.Context, userID, holdingID int64, fundCode, fundName string, avgCost, holdShare decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `UPDATE holdings SET fund_code = $1, fund_name = $2, avg_cost = $3::numeric, hold_share = $4::numeric WHERE id = $5 AND user_id = $6`,
		fundCode, fundName, avgCost.String(), holdShare.String(), holdingID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *Repo) DeleteHolding(ctx context.Context, userID, holdingID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holdings WHERE id = $1 AND user_id = $2`, holdingID, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateUserRollup overwrites the cached aggregate profit figures on the user
// row. Last write wins; concurrent list requests may race and that is
// accepted.
func (r *Repo) UpdateUserRollup(ctx context.Context, userID int64, totalProfit, dayProfit decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET total_profit = $1::numeric, day_profit = $2::numeric WHERE id = $3`,
		totalProfit.StringFixed(2), dayProfit.StringFixed(2), userID)
	return err
}

// TopUsers returns up to limit users ordered descending by the chosen rollup
// column. The sort key maps onto a column whitelist; anything other than
// "day" ranks by total profit.
func (r *Repo) TopUsers(ctx context.Context, sortKey string, limit int) ([]LeaderboardRow, error) {
	orderBy := "total_profit"
	if sortKey == "day" {
		orderBy = "day_profit"
	}
	if limit <= 0 || limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	rows, err := r.db.QueryxContext(ctx, `SELECT nickname, email, total_profit, day_profit FROM users ORDER BY `+orderBy+` DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []LeaderboardRow{}
	for rows.Next() {
		var u LeaderboardRow
		if err := rows.StructScan(&u); err != nil {
			r.log.Warnf("scan leaderboard row failed: %v", err)
			continue
		}
		res = append(res, u)
	}
	return res, nil
}

func (r *Repo) GetUser(ctx context.Context, userID int64) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT id, email, nickname, total_profit, day_profit FROM users WHERE id = $1`, userID)
	return u, err
}

func (r *Repo) EnsureUserExists(ctx context.Context, userID int64, email, nickname string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, email, nickname, total_profit, day_profit) VALUES ($1, $2, $3, 0, 0) ON CONFLICT (id) DO NOTHING`, userID, email, nickname)
	return err
}
