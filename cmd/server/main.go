package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Swati9798/Vehicle-Parking/internal/app"
	"github.com/Swati9798/Vehicle-Parking/internal/config"
	"github.com/Swati9798/Vehicle-Parking/internal/database"
	"github.com/Swati9798/Vehicle-Parking/internal/handler"
	"github.com/Swati9798/Vehicle-Parking/internal/middleware"
	"github.com/Swati9798/Vehicle-Parking/internal/realtime"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
	"github.com/Swati9798/Vehicle-Parking/internal/router"
	"github.com/Swati9798/Vehicle-Parking/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable
	if rdb != nil {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var revoked repository.RevocationStore = repository.NewMemoryRevocationStore()
	if rdb != nil {
		revoked = repository.NewRedisRevocationStore(rdb, "parking:revoked")
	}

	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	hub := realtime.NewHub()
	go hub.Run(ctx)

	users := repository.NewUserRepo(db)
	lotRepo := repository.NewLotRepo(db)
	spotRepo := repository.NewSpotRepo(db)
	resRepo := repository.NewReservationRepo(db)

	lots := service.NewLotService(db, lotRepo, spotRepo, cache.OnChange, hub.OnChange)
	reservations := service.NewReservationService(db, lotRepo, spotRepo, resRepo, cache.OnChange, hub.OnChange)
	analytics := app.NewAnalytics(db)
	search := service.NewSearchService(repository.NewSearchRepo(db), lotRepo)

	dispatcher, err := app.NewDispatcher(cfg, db, rdb, analytics)
	if err != nil {
		log.Fatalf("jobs: %v", err)
	}
	if cfg.WorkerEmbedded {
		go func() {
			if err := app.RunWorker(ctx, cfg, dispatcher); err != nil {
				log.Printf("job-worker: stopped: %v", err)
			}
		}()
	}

	e := router.New(router.Deps{
		JWTSecret: cfg.JWTSecret,
		Users:     users,
		Revoked:   revoked,
		Cache:     cache,
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Hub:       hub,

		Auth:         handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db), revoked),
		Health:       &handler.HealthHandler{DB: db, Redis: rdb},
		Lots:         handler.NewLotHandler(lots),
		Reservations: handler.NewReservationHandler(reservations),
		Analytics:    handler.NewAnalyticsHandler(analytics, users),
		Search:       handler.NewSearchHandler(search),
		Tasks:        handler.NewTaskHandler(dispatcher, cfg.ExportDir),
		CacheAdmin:   &handler.CacheHandler{Cache: cache},
	})

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
