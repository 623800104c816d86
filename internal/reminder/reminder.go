// Package reminder runs the scheduled job that nudges Telegram-linked users
// whose reviews are due.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"word-garden/internal/model"
)

// DefaultCron fires every day at 09:00.
const DefaultCron = "0 9 * * *"

// TargetSource lists users with reviews due at now.
type TargetSource interface {
	ListReminderTargets(ctx context.Context, now time.Time) ([]*model.ReminderTarget, error)
}

// Notifier delivers a message to a Telegram user.
type Notifier interface {
	Notify(ctx context.Context, telegramID int64, text string) error
}

// Reminder sends review reminders on a cron schedule.
type Reminder struct {
	targets   TargetSource
	notifier  Notifier
	loc       *time.Location
	now       func() time.Time
	scheduler gocron.Scheduler
}

// New creates a Reminder. now may be nil.
func New(targets TargetSource, notifier Notifier, loc *time.Location, now func() time.Time) *Reminder {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Reminder{
		targets:  targets,
		notifier: notifier,
		loc:      loc,
		now:      now,
	}
}

// Start schedules the reminder job and starts the scheduler.
func (r *Reminder) Start(crontab string) error {
	if crontab == "" {
		crontab = DefaultCron
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(r.loc))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.CronJob(crontab, false),
		gocron.NewTask(func() {
			if _, err := r.RunOnce(context.Background()); err != nil {
				log.Error().Err(err).Msg("Review reminder run failed")
			}
		}),
		gocron.WithName("review-reminder"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule reminder %q: %w", crontab, err)
	}

	s.Start()
	r.scheduler = s

	log.Info().Str("cron", crontab).Str("location", r.loc.String()).Msg("Review reminder scheduled")
	return nil
}

// Stop shuts the scheduler down, waiting for a running job to finish.
func (r *Reminder) Stop() error {
	if r.scheduler == nil {
		return nil
	}
	return r.scheduler.Shutdown()
}

// RunOnce notifies every current target and returns how many messages were
// delivered. A failed delivery is logged and does not stop the run.
func (r *Reminder) RunOnce(ctx context.Context) (int, error) {
	targets, err := r.targets.ListReminderTargets(ctx, r.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list reminder targets: %w", err)
	}

	sent := 0
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if err := r.notifier.Notify(ctx, t.TelegramID, Message(t)); err != nil {
			log.Warn().Err(err).
				Int64("user_id", t.UserID).
				Int64("telegram_id", t.TelegramID).
				Msg("Failed to send review reminder")
			continue
		}
		sent++
	}

	log.Info().Int("targets", len(targets)).Int("sent", sent).Msg("Review reminders sent")
	return sent, nil
}

// Message renders the reminder text for t.
func Message(t *model.ReminderTarget) string {
	return fmt.Sprintf("⏰ %s，你有 %d 个单词需要复习了！发送 /due 查看", t.Nickname, t.DueCount)
}
