package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/jitendraK4121/letter-monitoring-system/internal/config"
	"github.com/jitendraK4121/letter-monitoring-system/internal/database"
	"github.com/jitendraK4121/letter-monitoring-system/internal/handler"
	"github.com/jitendraK4121/letter-monitoring-system/internal/queue"
	"github.com/jitendraK4121/letter-monitoring-system/internal/repository"
	"github.com/jitendraK4121/letter-monitoring-system/internal/router"
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	letters := repository.NewLetterRepo(db)

	authH := handler.NewAuthHandler(cfg, users)
	userH := handler.NewUserHandler(cfg, users)
	letterH := handler.NewLetterHandler(cfg, letters, users)

	e := echo.New()
	router.RegisterRoutes(e, cfg)
	router.RegisterAuth(e, authH, userH, cfg, rdb)
	router.RegisterUsers(e, userH, cfg)
	router.RegisterLetters(e, letterH, cfg, rdb)

	// Audit-trail consumer runs for the life of the process and
	// reconnects on broker failures.
	go func() {
		if err := queue.StartLetterConsumer(); err != nil {
			log.Printf("letter consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
