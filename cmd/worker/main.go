package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Swati9798/Vehicle-Parking/internal/app"
	"github.com/Swati9798/Vehicle-Parking/internal/config"
	"github.com/Swati9798/Vehicle-Parking/internal/database"
)

// The worker consumes queued jobs and runs the reminder and report
// schedules.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	dispatcher, err := app.NewDispatcher(cfg, db, rdb, app.NewAnalytics(db))
	if err != nil {
		log.Fatalf("jobs: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("job-worker: starting (env=%s, queue=%s)", cfg.Env, cfg.JobQueue)
	if err := app.RunWorker(ctx, cfg, dispatcher); err != nil {
		log.Fatalf("job-worker: %v", err)
	}
	log.Println("job-worker: stopped")
}
