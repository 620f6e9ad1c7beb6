package service

import (
	"context"
	"sync"

	"fundfolio/internal/database"
	"fundfolio/internal/market"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Store is the narrow persistence contract the pipeline needs. *database.Repo
// satisfies it; unit tests substitute fakes.
type Store interface {
	ListHoldings(ctx context.Context, userID int64) ([]database.Holding, error)
	UpdateUserRollup(ctx context.Context, userID int64, totalProfit, dayProfit decimal.Decimal) error
	TopUsers(ctx context.Context, sortKey string, limit int) ([]database.LeaderboardRow, error)
}

type PortfolioService struct {
	store   Store
	fetcher market.Provider
	log     *logrus.Logger
	// maxConcurrent caps in-flight fetches per request; zero means one
	// goroutine per holding with no cap.
	maxConcurrent int
}

func NewPortfolioService(store Store, fetcher market.Provider, log *logrus.Logger, maxConcurrent int) *PortfolioService {
	return &PortfolioService{store: store, fetcher: fetcher, log: log, maxConcurrent: maxConcurrent}
}

// HoldingView is one enriched holding in a listing response.
type HoldingView struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Cost      decimal.Decimal `json:"cost"`
	Shares    decimal.Decimal `json:"shares"`
	Market    market.Quote    `json:"market"`
	Profit    string          `json:"profit"`
	DayProfit string          `json:"day_profit"`
}

// ListResult carries the enriched holdings plus unrounded aggregate totals.
// Callers round once at the output boundary.
type ListResult struct {
	Entries     []HoldingView
	TotalProfit decimal.Decimal
	DayProfit   decimal.Decimal
}

type profitResult struct {
	total decimal.Decimal
	day   decimal.Decimal
}

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// computeProfit derives per-holding profit from a quote. Day profit backs the
// prior market value out of the estimated change rate:
//
//	prev = value / (1 + rate/100); day = value - prev
//
// rather than the cruder value*(rate/100) approximation. A zero rate (which
// includes every failed fetch) yields zero day profit, and a zero valuation
// prices the position at a full loss of its cost basis.
func computeProfit(avgCost, holdShare decimal.Decimal, q market.Quote) profitResult {
	total := q.EstValue.Sub(avgCost).Mul(holdShare)

	day := decimal.Zero
	if !q.EstRate.IsZero() {
		denom := one.Add(q.EstRate.Div(hundred))
		if !denom.IsZero() {
			value := q.EstValue.Mul(holdShare)
			day = value.Sub(value.Div(denom))
		}
	}
	return profitResult{total: total, day: day}
}

// List loads the user's holdings, fans out one quote fetch per holding, joins
// on all of them, and sums the results. The rollup write afterwards is
// advisory: its failure is logged and never fails the listing.
func (s *PortfolioService) List(ctx context.Context, userID int64) (*ListResult, error) {
	holdings, err := s.store.ListHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]HoldingView, len(holdings))
	results := make([]profitResult, len(holdings))

	var sem chan struct{}
	if s.maxConcurrent > 0 {
		sem = make(chan struct{}, s.maxConcurrent)
	}
	var wg sync.WaitGroup
	for i, h := range holdings {
		wg.Add(1)
		go func(i int, h database.Holding) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			quote := s.fetcher.Fetch(ctx, h.FundCode)
			p := computeProfit(h.AvgCost, h.HoldShare, quote)
			results[i] = p
			entries[i] = HoldingView{
				ID:        h.ID,
				Code:      h.FundCode,
				Name:      h.FundName,
				Cost:      h.AvgCost,
				Shares:    h.HoldShare,
				Market:    quote,
				Profit:    p.total.StringFixed(2),
				DayProfit: p.day.StringFixed(2),
			}
		}(i, h)
	}
	wg.Wait()

	total := decimal.Zero
	day := decimal.Zero
	for _, p := range results {
		total = total.Add(p.total)
		day = day.Add(p.day)
	}

	if err := s.store.UpdateUserRollup(ctx, userID, total, day); err != nil {
		s.log.Warnf("rollup write for user %d failed: %v", userID, err)
	}

	return &ListResult{Entries: entries, TotalProfit: total, DayProfit: day}, nil
}
