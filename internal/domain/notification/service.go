package notification

import (
	"context"
	"fmt"
	"time"

	"resido/internal/core/apperror"
	appctx "resido/internal/core/context"
	"resido/internal/core/id"
	"resido/internal/core/tx"
	"resido/pkg/logger"
)

// Repository persists notifications.
type Repository interface {
	// DueBills returns unpaid or partially paid bills due in [from, until] without a reminder.
	DueBills(ctx context.Context, from, until time.Time) ([]DueBill, error)
	CreateMany(ctx context.Context, items []*Notification) (int64, error)
	// Deliver stamps sent_at on every notification scheduled at or before now.
	Deliver(ctx context.Context, now time.Time) (int64, error)
	// DeleteReadBefore removes notifications read before cutoff.
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)

	ListForResident(ctx context.Context, residentID id.ID, unreadOnly bool, now time.Time) ([]*Notification, error)
	MarkRead(ctx context.Context, notificationID, residentID id.ID, at time.Time) (bool, error)
}

// Config tunes the scheduled jobs.
type Config struct {
	// ReminderLeadDays is how many days before the due date a reminder is created.
	ReminderLeadDays int
	// Retention is how long read notifications are kept.
	Retention time.Duration
}

// DefaultConfig returns a three-day lead and thirty-day retention.
func DefaultConfig() Config {
	return Config{ReminderLeadDays: 3, Retention: 30 * 24 * time.Hour}
}

// Service runs notification jobs and serves a resident's inbox.
type Service struct {
	repo      Repository
	txManager tx.Manager
	cfg       Config
	now       func() time.Time
}

// NewService creates the notification service.
func NewService(repo Repository, txm tx.Manager, cfg Config) *Service {
	return &Service{repo: repo, txManager: txm, cfg: cfg, now: time.Now}
}

func today(now time.Time) time.Time {
	return now.UTC().Truncate(24 * time.Hour)
}

// ScheduleBillReminders creates one reminder for every open bill due within the lead window.
// Bills that already have a reminder are skipped, so the job can run any number of times.
func (s *Service) ScheduleBillReminders(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	from := today(now)
	until := from.AddDate(0, 0, s.cfg.ReminderLeadDays)

	var created int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		due, err := s.repo.DueBills(ctx, from, until)
		if err != nil {
			return fmt.Errorf("find due bills: %w", err)
		}
		if len(due) == 0 {
			return nil
		}

		items := make([]*Notification, len(due))
		for i, b := range due {
			items[i] = b.Reminder(now)
		}
		created, err = s.repo.CreateMany(ctx, items)
		if err != nil {
			return fmt.Errorf("create reminders: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		logger.Info(ctx, "bill reminders scheduled", "count", created, "until", until.Format("2006-01-02"))
	}
	return created, nil
}

// DeliverDue marks scheduled notifications as sent.
func (s *Service) DeliverDue(ctx context.Context) (int64, error) {
	n, err := s.repo.Deliver(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deliver notifications: %w", err)
	}
	if n > 0 {
		logger.Debug(ctx, "notifications delivered", "count", n)
	}
	return n, nil
}

// CleanupNotifications deletes read notifications older than the retention period.
func (s *Service) CleanupNotifications(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.cfg.Retention)
	n, err := s.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup notifications: %w", err)
	}
	if n > 0 {
		logger.Info(ctx, "notifications cleaned up", "count", n)
	}
	return n, nil
}

func residentID(ctx context.Context) (id.ID, error) {
	u := appctx.GetUser(ctx)
	if u == nil || u.Class != appctx.ClassResident {
		return id.Nil(), apperror.NewForbidden("notifications are available to residents")
	}
	rid, err := id.Parse(u.UserID)
	if err != nil {
		return id.Nil(), apperror.NewUnauthorized("invalid principal")
	}
	return rid, nil
}

// List returns the calling resident's delivered notifications, newest first.
func (s *Service) List(ctx context.Context, unreadOnly bool) ([]*Notification, error) {
	rid, err := residentID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListForResident(ctx, rid, unreadOnly, s.now().UTC())
}

// MarkRead marks one of the calling resident's notifications as read.
func (s *Service) MarkRead(ctx context.Context, notificationID id.ID) error {
	rid, err := residentID(ctx)
	if err != nil {
		return err
	}
	ok, err := s.repo.MarkRead(ctx, notificationID, rid, s.now().UTC())
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return apperror.NewNotFound("notification", notificationID.String())
	}
	return nil
}
