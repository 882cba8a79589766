package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/markaz-center/markazbot/internal/clock"
	"github.com/markaz-center/markazbot/internal/logger"
	"github.com/markaz-center/markazbot/internal/models"
	"github.com/markaz-center/markazbot/internal/notify"
	"github.com/markaz-center/markazbot/internal/repository"
)

// ReminderJob fires time-relative course reminders. A reminder for a
// (registration, type) pair is due once `now >= courseStart - offset`, as
// long as the course has not started yet and no marker exists for the pair.
// The marker create is the commit point: the notifier is invoked first, so a
// marker persistence failure after a sent notification can duplicate the
// reminder on the next tick (accepted, and alerted rather than swallowed).
type ReminderJob struct {
	courses     repository.CourseRepository
	regs        repository.RegistrationRepository
	markers     repository.ReminderMarkerRepository
	notifier    notify.Notifier
	clk         clock.Clock
	offsets     map[models.ReminderType]time.Duration
	alerts      AdminAlerter
	tickTimeout time.Duration

	mu sync.Mutex
}

func NewReminderJob(
	courses repository.CourseRepository,
	regs repository.RegistrationRepository,
	markers repository.ReminderMarkerRepository,
	notifier notify.Notifier,
	clk clock.Clock,
	offsets map[models.ReminderType]time.Duration,
	alerts AdminAlerter,
	tickTimeout time.Duration,
) *ReminderJob {
	return &ReminderJob{
		courses:     courses,
		regs:        regs,
		markers:     markers,
		notifier:    notifier,
		clk:         clk,
		offsets:     offsets,
		alerts:      alerts,
		tickTimeout: tickTimeout,
	}
}

// Run is the cron entrypoint.
func (j *ReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.tickTimeout)
	defer cancel()

	if err := j.RunOnce(ctx); err != nil && !errors.Is(err, ErrPassInProgress) {
		logger.Log.Errorf("reminder pass failed: %v", err)
	}
}

// RunOnce executes a single reminder pass, serialized against itself.
func (j *ReminderJob) RunOnce(ctx context.Context) error {
	if !j.mu.TryLock() {
		logger.Log.Warn("reminder pass still running, skipping tick")
		return ErrPassInProgress
	}
	defer j.mu.Unlock()

	now := j.clk.Now()

	var maxOffset time.Duration
	for _, offset := range j.offsets {
		if offset > maxOffset {
			maxOffset = offset
		}
	}

	courses, err := j.courses.ListStartingBefore(ctx, now, now.Add(maxOffset))
	if err != nil {
		logger.Log.Errorf("listing upcoming courses failed: %v", err)
		return err
	}

	for _, course := range courses {
		for reminderType, offset := range j.offsets {
			if now.Before(course.StartAt.Add(-offset)) {
				continue // not yet inside this reminder's window
			}
			j.fireForCourse(ctx, course, reminderType, now)
		}
	}
	return nil
}

func (j *ReminderJob) fireForCourse(ctx context.Context, course *models.Course, reminderType models.ReminderType, now time.Time) {
	log := logger.Log.WithFields(map[string]interface{}{
		"course":   course.ID,
		"reminder": string(reminderType),
	})

	regs, err := j.regs.ListApprovedByCourse(ctx, course.ID)
	if err != nil {
		log.Errorf("listing registrations failed: %v", err)
		return
	}

	params := map[string]string{
		"course_name": course.Name,
		"starts_at":   course.StartAt.In(now.Location()).Format("2006-01-02 15:04"),
	}

	for _, reg := range regs {
		exists, err := j.markers.Exists(ctx, reg.ID, reminderType)
		if err != nil {
			log.WithField("registration", reg.ID).Errorf("marker lookup failed: %v", err)
			continue
		}
		if exists {
			continue // already fired
		}

		if err := j.notifier.Send(ctx, reg.TelegramChatID, notify.TemplateCourseReminder, params); err != nil {
			// No marker written: the next tick retries this registration.
			log.WithField("registration", reg.ID).Warnf("reminder send failed: %v", err)
			continue
		}

		marker := &models.ReminderMarker{
			RegistrationID: reg.ID,
			ReminderType:   reminderType,
			FiredAt:        now,
		}
		if err := j.markers.Create(ctx, marker); err != nil {
			if errors.Is(err, repository.ErrDuplicateMarker) {
				continue // another writer got there first; already fired
			}
			// The reminder went out but the marker did not stick: next tick
			// may send it again.
			log.WithField("registration", reg.ID).Errorf("reminder sent but marker not persisted: %v", err)
			j.alerts.Alert(ctx, SeverityCritical,
				fmt.Sprintf("reminder %s for registration %s sent but marker not persisted: %v", reminderType, reg.ID, err))
			continue
		}
		log.WithField("registration", reg.ID).Info("reminder fired")
	}
}
