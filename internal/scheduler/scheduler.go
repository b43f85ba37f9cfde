// Package scheduler runs the periodic jobs: due-task reminder emails and the
// purge of expired one-time tokens.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eventease-dev/eventease/internal/config"
	"github.com/eventease-dev/eventease/internal/mail"
	"github.com/eventease-dev/eventease/internal/metrics"
	"github.com/eventease-dev/eventease/internal/models"
	"github.com/eventease-dev/eventease/internal/types"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JobTaskReminders = "task_reminders"
	JobPurgeTokens   = "purge_tokens"

	// ReminderWindow is how far ahead a due date triggers a reminder.
	ReminderWindow = 24 * time.Hour

	jobTimeout = 5 * time.Minute
)

// Reminder is what one user is told about.
type Reminder interface {
	SendTaskReminder(user *models.User, tasks []mail.ReminderTask)
}

type Scheduler struct {
	db     *gorm.DB
	mailer Reminder
	logger *zap.Logger
	cfg    config.SchedulerConfig
	now    func() time.Time

	cron    *cron.Cron
	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewScheduler(database *gorm.DB, mailer Reminder, cfg config.SchedulerConfig, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		db:     database,
		mailer: mailer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
		cron:   cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers the jobs and begins running them in the background.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) (int, error)
	}{
		{JobTaskReminders, s.cfg.ReminderSchedule, s.SendReminders},
		{JobPurgeTokens, s.cfg.PurgeSchedule, s.PurgeExpiredTokens},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.schedule, func() { s.runJob(job.name, job.run) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.name, job.schedule, err)
		}
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started",
		zap.String("reminders", s.cfg.ReminderSchedule),
		zap.String("purge", s.cfg.PurgeSchedule),
	)
	return nil
}

// Stop waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.running = false

	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"jobs":    len(s.cron.Entries()),
		"running": s.running,
	}
}

func (s *Scheduler) runJob(name string, run func(context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	count, err := run(ctx)

	metrics.Get().JobRunsTotal.WithLabelValues(name, metrics.Outcome(err)).Inc()

	if err != nil {
		s.logger.Error("Scheduled job failed", zap.String("job", name), zap.Error(err))
		return
	}

	s.logger.Info("Scheduled job finished",
		zap.String("job", name),
		zap.Int("affected", count),
		zap.Duration("took", time.Since(start)),
	)
}

type dueAssignment struct {
	UserID      uint
	TaskID      uint
	Description string
	DueDate     time.Time
	EventName   string
}

// SendReminders emails every user with open assigned tasks due within the
// reminder window. It returns the number of users reminded.
func (s *Scheduler) SendReminders(ctx context.Context) (int, error) {
	now := s.now()
	// Due dates are stored at midnight, so today's tasks count as due.
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var rows []dueAssignment

	err := s.db.WithContext(ctx).
		Table("task_assignments").
		Select("task_assignments.user_id, tasks.id AS task_id, tasks.description, tasks.due_date, events.name AS event_name").
		Joins("JOIN tasks ON tasks.id = task_assignments.task_id").
		Joins("JOIN events ON events.id = tasks.event_id").
		Where("tasks.completed = ? AND tasks.due_date IS NOT NULL AND tasks.due_date >= ? AND tasks.due_date < ?",
			false, today, now.Add(ReminderWindow)).
		Order("tasks.due_date ASC").
		Scan(&rows).Error

	if err != nil {
		return 0, fmt.Errorf("query due tasks: %w", err)
	}

	if len(rows) == 0 {
		return 0, nil
	}

	byUser := make(map[uint][]mail.ReminderTask)
	for _, row := range rows {
		byUser[row.UserID] = append(byUser[row.UserID], mail.ReminderTask{
			Description: row.Description,
			EventName:   row.EventName,
			Due:         row.DueDate.Format(types.DateLayout),
		})
	}

	userIDs := make([]uint, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	var users []models.User

	if err := s.db.WithContext(ctx).Where("id IN ? AND email_verified = ?", userIDs, true).Find(&users).Error; err != nil {
		return 0, fmt.Errorf("load users: %w", err)
	}

	for i := range users {
		s.mailer.SendTaskReminder(&users[i], byUser[users[i].ID])
	}

	return len(users), nil
}

// PurgeExpiredTokens clears reset and verification tokens past their expiry.
// It returns the number of rows touched.
func (s *Scheduler) PurgeExpiredTokens(ctx context.Context) (int, error) {
	now := s.now()

	reset := s.db.WithContext(ctx).Model(&models.User{}).
		Where("reset_token IS NOT NULL AND reset_token_expiry < ?", now).
		Updates(map[string]interface{}{"reset_token": nil, "reset_token_expiry": nil})

	if reset.Error != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", reset.Error)
	}

	verification := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email_verification_token IS NOT NULL AND email_verification_token_expiry < ?", now).
		Updates(map[string]interface{}{"email_verification_token": nil, "email_verification_token_expiry": nil})

	if verification.Error != nil {
		return 0, fmt.Errorf("purge verification tokens: %w", verification.Error)
	}

	return int(reset.RowsAffected + verification.RowsAffected), nil
}
