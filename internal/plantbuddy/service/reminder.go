package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/auth"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/domain"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/store"
)

const localDateLayout = "2006-01-02"

// Notifier sends a reminder message to a user's chat. Satisfied by the
// telegram client; a fake stands in for it in tests.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// ReminderService periodically checks every plant owner and sends at most one
// reminder per local day when something is due or overdue. The last-sent date
// is persisted so restarts don't re-send.
type ReminderService struct {
	Store    store.Store
	Schedule *ScheduleService
	Notifier Notifier
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewReminderService creates a reminder dispatcher with the given check
// interval. If interval is 0 or negative, defaults to 30 minutes.
func NewReminderService(
	st store.Store,
	schedule *ScheduleService,
	notifier Notifier,
	logger *slog.Logger,
	interval time.Duration,
) *ReminderService {
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	return &ReminderService{
		Store:    st,
		Schedule: schedule,
		Notifier: notifier,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *ReminderService) Start() {
	go s.run()
	s.Logger.Info("reminder service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker, blocking until any
// in-progress sweep finishes.
func (s *ReminderService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("reminder service stopped")
}

func (s *ReminderService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// First sweep immediately on startup.
	s.sweep(context.Background(), time.Now())

	for {
		select {
		case <-ticker.C:
			s.sweep(context.Background(), time.Now())
		case <-s.stopCh:
			return
		}
	}
}

// sweep sends due reminders to every owner that hasn't received one today.
// Each owner is independent: a failure for one is logged and skipped.
func (s *ReminderService) sweep(ctx context.Context, now time.Time) {
	owners, err := s.Store.Plants().ListOwnerIDs(ctx)
	if err != nil {
		s.Logger.Error("reminder sweep: list owners failed", "error", err)
		return
	}

	today := localDate(now, s.Schedule.location()).Format(localDateLayout)

	var sent int
	for _, userID := range owners {
		ok, err := s.remindOwner(ctx, userID, now, today)
		if err != nil {
			s.Logger.Error("reminder failed", "user_id", userID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}

	s.Logger.Debug("reminder sweep completed", "owners", len(owners), "sent", sent)
}

// remindOwner sends at most one reminder to a single user and records the
// send date. Returns true when a message went out.
func (s *ReminderService) remindOwner(ctx context.Context, userID int64, now time.Time, today string) (bool, error) {
	lastSent, err := s.Store.Reminders().GetLastSent(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("load reminder state: %w", err)
	}
	if lastSent == today {
		return false, nil
	}

	statuses, err := s.Schedule.ComputeStatuses(ctx, auth.FromOwnerRecord(userID), now)
	if err != nil {
		return false, fmt.Errorf("compute statuses: %w", err)
	}

	text := reminderText(statuses)
	if text == "" {
		return false, nil
	}

	if err := s.Notifier.Notify(ctx, userID, text); err != nil {
		return false, fmt.Errorf("send reminder: %w", err)
	}

	// Only mark the day once the message is actually out; a send failure
	// retries on the next sweep.
	if err := s.Store.Reminders().SetLastSent(ctx, userID, today); err != nil {
		return false, fmt.Errorf("store reminder state: %w", err)
	}
	return true, nil
}

// reminderText renders the overdue and due-today groups, or returns "" when
// nothing needs attention.
func reminderText(statuses []domain.PlantStatus) string {
	var overdue, due []string
	for _, ps := range statuses {
		switch ps.Status {
		case domain.StatusOverdue:
			days := 0
			if ps.OverdueDays != nil {
				days = *ps.OverdueDays
			}
			overdue = append(overdue, fmt.Sprintf("• %s (%d %s overdue)", ps.Name, days, pluralDays(days)))
		case domain.StatusDue:
			due = append(due, "• "+ps.Name)
		}
	}

	if len(overdue) == 0 && len(due) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("🌿 Watering reminder\n")
	if len(overdue) > 0 {
		b.WriteString("\nOverdue:\n")
		b.WriteString(strings.Join(overdue, "\n"))
		b.WriteString("\n")
	}
	if len(due) > 0 {
		b.WriteString("\nDue today:\n")
		b.WriteString(strings.Join(due, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

func pluralDays(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
