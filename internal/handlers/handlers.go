package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"fundfolio/internal/auth"
	"fundfolio/internal/market"
	"fundfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// HoldingStore covers the direct holding mutations; listing goes through the
// aggregation pipeline instead.
type HoldingStore interface {
	InsertHolding(ctx context.Context, userID int64, fundCode, fundName string, avgCost, holdShare decimal.Decimal) (int64, error)
	UpdateHolding(ctx context.Context, userID, holdingID int64, fundCode, fundName string, avgCost, holdShare decimal.Decimal) error
	DeleteHolding(ctx context.Context, userID, holdingID int64) error
}

type Handler struct {
	store     HoldingStore
	portfolio *service.PortfolioService
	fetcher   market.Provider
	log       *logrus.Logger
}

func NewHandler(store HoldingStore, portfolio *service.PortfolioService, fetcher market.Provider, log *logrus.Logger) *Handler {
	return &Handler{store: store, portfolio: portfolio, fetcher: fetcher, log: log}
}

type HoldingRequest struct {
	FundCode string          `json:"fund_code" binding:"required"`
	Cost     decimal.Decimal `json:"cost"`
	Shares   decimal.Decimal `json:"shares"`
}

func (h *Handler) ListHoldings(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "login required"})
		return
	}

	res, err := h.portfolio.List(c.Request.Context(), userID)
	if err != nil {
		h.log.Errorf("list holdings failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"data":         res.Entries,
		"total_profit": res.TotalProfit.StringFixed(2),
		"day_profit":   res.DayProfit.StringFixed(2),
	})
}

func (h *Handler) AddHolding(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "login required"})
		return
	}
	var req HoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid add body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	// one best-effort fetch to resolve the display name; a degraded source
	// leaves the placeholder until a later fetch succeeds
	quote := h.fetcher.Fetch(c.Request.Context(), req.FundCode)

	id, err := h.store.InsertHolding(c.Request.Context(), userID, req.FundCode, quote.Name, req.Cost, req.Shares)
	if err != nil {
		h.log.Errorf("insert holding failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "insert failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": id})
}

func (h *Handler) UpdateHolding(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "login required"})
		return
	}
	holdingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid holding id"})
		return
	}
	var req HoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid update body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	quote := h.fetcher.Fetch(c.Request.Context(), req.FundCode)

	if err := h.store.UpdateHolding(c.Request.Context(), userID, holdingID, req.FundCode, quote.Name, req.Cost, req.Shares); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "holding not found"})
			return
		}
		h.log.Errorf("update holding failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteHolding(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "login required"})
		return
	}
	holdingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid holding id"})
		return
	}

	if err := h.store.DeleteHolding(c.Request.Context(), userID, holdingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "holding not found"})
			return
		}
		h.log.Errorf("delete holding failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Leaderboard is a public read; no auth scope applies.
func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if iv, err := strconv.Atoi(v); err == nil && iv > 0 {
			limit = iv
		}
	}

	entries, err := h.portfolio.Leaderboard(c.Request.Context(), c.Query("type"), limit)
	if err != nil {
		h.log.Errorf("leaderboard query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entries})
}
