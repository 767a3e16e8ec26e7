// Package main is the entry point for the resido background worker.
// It schedules bill reminders, delivers due notifications and prunes old rows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"resido/internal/config"
	"resido/internal/domain/auth"
	"resido/internal/domain/notification"
	"resido/internal/infrastructure/storage/postgres"
	"resido/internal/infrastructure/storage/postgres/auth_repo"
	"resido/internal/infrastructure/storage/postgres/notification_repo"
	"resido/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger("resido-worker"))
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting resido worker")

	pool, err := postgres.NewPool(ctx, cfg.Pool("resido-worker"))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)

	notifications := notification.NewService(notification_repo.NewRepo(txm), txm, notification.Config{
		ReminderLeadDays: cfg.ReminderLeadDays,
		Retention:        cfg.NotificationRetention,
	})
	authService := auth.NewService(
		auth_repo.NewAccountRepo(txm),
		auth_repo.NewTokenRepo(txm),
		txm,
		auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret)),
		auth.DefaultServiceConfig(),
	)

	worker := NewWorker(log, cfg.ReminderInterval,
		Job{Name: "schedule_bill_reminders", Run: notifications.ScheduleBillReminders},
		Job{Name: "deliver_notifications", Run: notifications.DeliverDue},
		Job{Name: "cleanup_notifications", Run: notifications.CleanupNotifications},
		Job{Name: "cleanup_refresh_tokens", Run: func(ctx context.Context) (int64, error) {
			n, err := authService.CleanupTokens(ctx)
			return int64(n), err
		}},
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Job is one periodic task. Run returns the number of rows it affected.
type Job struct {
	Name string
	Run  func(ctx context.Context) (int64, error)
}

// Worker runs its jobs in order, once at start and then on every tick.
type Worker struct {
	log      *logger.Logger
	interval time.Duration
	jobs     []Job
}

func NewWorker(log *logger.Logger, interval time.Duration, jobs ...Job) *Worker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Worker{
		log:      log.WithComponent("worker"),
		interval: interval,
		jobs:     jobs,
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.runAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runAll(ctx)
		}
	}
}

func (w *Worker) runAll(ctx context.Context) {
	for _, job := range w.jobs {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		n, err := job.Run(ctx)
		if err != nil {
			w.log.Errorw("job failed", "job", job.Name, "error", err)
			continue
		}
		w.log.Infow("job finished", "job", job.Name, "affected", n, "duration_ms", time.Since(start).Milliseconds())
	}
}
