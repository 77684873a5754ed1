// Package app wires the job pipeline shared by the API server and the
// worker process.
package app

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/Swati9798/Vehicle-Parking/internal/config"
	"github.com/Swati9798/Vehicle-Parking/internal/jobs"
	"github.com/Swati9798/Vehicle-Parking/internal/mail"
	"github.com/Swati9798/Vehicle-Parking/internal/queue"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
	"github.com/Swati9798/Vehicle-Parking/internal/service"
)

// NewDispatcher builds the runner and dispatcher.  Without a broker URL
// every job runs inline; without Redis, job results are kept in memory and
// are only visible to the process that ran the job.
func NewDispatcher(cfg config.Config, db *sql.DB, rdb *redis.Client, analytics *service.AnalyticsService) (*jobs.Dispatcher, error) {
	mailer, err := mail.New(config.LoadMailConfig())
	if err != nil {
		return nil, err
	}
	runner := jobs.NewRunner(
		repository.NewUserRepo(db),
		repository.NewReservationRepo(db),
		analytics,
		mailer,
		cfg.ExportDir,
		cfg.BaseURL,
	)

	var status jobs.StatusStore
	if rdb != nil {
		status = jobs.NewRedisStatusStore(rdb, cfg.JobResultTTL)
	} else {
		status = jobs.NewMemoryStatusStore(cfg.JobResultTTL)
	}

	var pub jobs.Publisher
	if cfg.AMQPURL != "" {
		pub = queue.NewPublisher(cfg.AMQPURL, cfg.JobQueue)
	} else {
		log.Println("job-dispatch: no broker configured, jobs run synchronously")
	}
	return jobs.NewDispatcher(pub, status, runner), nil
}

// NewAnalytics builds the analytics service over db.
func NewAnalytics(db *sql.DB) *service.AnalyticsService {
	return service.NewAnalyticsService(repository.NewAnalyticsRepo(db), repository.NewReservationRepo(db))
}

// RunWorker starts the cron scheduler and, when a broker is configured,
// consumes jobs until ctx is cancelled.
func RunWorker(ctx context.Context, cfg config.Config, d *jobs.Dispatcher) error {
	sched, err := jobs.NewScheduler(d, cfg.ReminderCron, cfg.ReportCron)
	if err != nil {
		return err
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	if cfg.AMQPURL == "" {
		log.Println("job-worker: no broker configured, running scheduler only")
		<-ctx.Done()
		return nil
	}
	err = queue.Consume(ctx, cfg.AMQPURL, cfg.JobQueue, d.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
