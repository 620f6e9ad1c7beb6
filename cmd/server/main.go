package main

import (
	"context"
	"fmt"
	"time"

	"fundfolio/internal/auth"
	"fundfolio/internal/config"
	"fundfolio/internal/database"
	"fundfolio/internal/handlers"
	"fundfolio/internal/market"
	"fundfolio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	// Load .env file if it exists, but don't fail if it's missing (e.g. in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	db, err := initDB(cfg.PostgresURL)
	if err != nil {
		logger.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	repo := database.New(db, logger)
	fetcher := market.NewClient(cfg.FundAPIBase, cfg.FundSearchBase, cfg.FetchTimeout, logger)
	portfolio := service.NewPortfolioService(repo, fetcher, logger, cfg.FetchConcurrency)
	h := handlers.NewHandler(repo, portfolio, fetcher, logger)

	rg := gin.Default()
	rg.Use(requestID())
	rg.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	rg.GET("/api/leaderboard", h.Leaderboard)

	authed := rg.Group("/api", auth.Middleware([]byte(cfg.JWTSecret)))
	authed.GET("/holdings", h.ListHoldings)
	authed.POST("/add", h.AddHolding)
	authed.PUT("/update/:id", h.UpdateHolding)
	authed.DELETE("/delete/:id", h.DeleteHolding)

	logger.Infof("server starting on :%s", cfg.Port)
	rg.Run(fmt.Sprintf(":" + cfg.Port))
}

// requestID tags each request with a short correlation id for log stitching.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()[:8]
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

func initDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}
