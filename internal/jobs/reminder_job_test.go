package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-center/markazbot/internal/clock"
	"github.com/markaz-center/markazbot/internal/models"
	"github.com/markaz-center/markazbot/internal/notify"
	"github.com/markaz-center/markazbot/internal/repository"
)

type fakeCourseRepo struct {
	courses []*models.Course
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id string) (*models.Course, error) {
	for _, c := range r.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeCourseRepo) ListStartingBefore(_ context.Context, now, until time.Time) ([]*models.Course, error) {
	var out []*models.Course
	for _, c := range r.courses {
		if c.StartAt.After(now) && !c.StartAt.After(until) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeRegRepo struct {
	byCourse map[string][]*models.Registration
}

func (r *fakeRegRepo) GetByID(_ context.Context, id string) (*models.Registration, error) {
	for _, regs := range r.byCourse {
		for _, reg := range regs {
			if reg.ID == id {
				return reg, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeRegRepo) ListApprovedByCourse(_ context.Context, courseID string) ([]*models.Registration, error) {
	return r.byCourse[courseID], nil
}

type fakeMarkerRepo struct {
	mu        sync.Mutex
	fired     map[string]bool
	createErr error
}

func newFakeMarkerRepo() *fakeMarkerRepo {
	return &fakeMarkerRepo{fired: make(map[string]bool)}
}

func markerKey(registrationID string, reminderType models.ReminderType) string {
	return registrationID + "|" + string(reminderType)
}

func (r *fakeMarkerRepo) Exists(_ context.Context, registrationID string, reminderType models.ReminderType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fired[markerKey(registrationID, reminderType)], nil
}

func (r *fakeMarkerRepo) Create(_ context.Context, marker *models.ReminderMarker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	key := markerKey(marker.RegistrationID, marker.ReminderType)
	if r.fired[key] {
		return repository.ErrDuplicateMarker
	}
	r.fired[key] = true
	return nil
}

func (r *fakeMarkerRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

type reminderFixture struct {
	job      *ReminderJob
	markers  *fakeMarkerRepo
	notifier *fakeNotifier
	alerts   *fakeAlerter
	now      time.Time
}

func newReminderFixture(t *testing.T, courseStart time.Time, regs ...*models.Registration) *reminderFixture {
	t.Helper()

	now := fx0Time(t)
	course := &models.Course{
		ID:      "crs_go101",
		Name:    "Intro to Go",
		StartAt: courseStart,
		Status:  models.CourseStatusPublished,
	}

	fx := &reminderFixture{
		markers:  newFakeMarkerRepo(),
		notifier: &fakeNotifier{},
		alerts:   &fakeAlerter{},
		now:      now,
	}
	fx.job = NewReminderJob(
		&fakeCourseRepo{courses: []*models.Course{course}},
		&fakeRegRepo{byCourse: map[string][]*models.Registration{course.ID: regs}},
		fx.markers,
		fx.notifier,
		clock.Fixed{Instant: now},
		map[models.ReminderType]time.Duration{models.ReminderCourseStart24h: 24 * time.Hour},
		fx.alerts,
		time.Minute,
	)
	return fx
}

func registration(id string, chatID int64) *models.Registration {
	return &models.Registration{
		ID:             id,
		CourseID:       "crs_go101",
		StudentID:      "std_" + id,
		TelegramChatID: chatID,
		Status:         models.RegistrationStatusApproved,
	}
}

func TestReminderFiresOnceInsideWindow(t *testing.T) {
	fx := newReminderFixture(t, fx0Time(t).Add(23*time.Hour), registration("reg1", 1001))

	require.NoError(t, fx.job.RunOnce(context.Background()))

	sent := fx.notifier.sentOfKind(notify.TemplateCourseReminder)
	require.Len(t, sent, 1)
	assert.Equal(t, int64(1001), sent[0].recipient)
	assert.Equal(t, "Intro to Go", sent[0].params["course_name"])
	assert.Equal(t, 1, fx.markers.count())

	// Further passes must not fire again: the marker is the idempotency key.
	require.NoError(t, fx.job.RunOnce(context.Background()))
	require.NoError(t, fx.job.RunOnce(context.Background()))
	assert.Len(t, fx.notifier.sentOfKind(notify.TemplateCourseReminder), 1)
}

func TestReminderNotDueBeforeWindow(t *testing.T) {
	fx := newReminderFixture(t, fx0Time(t).Add(48*time.Hour), registration("reg1", 1001))

	require.NoError(t, fx.job.RunOnce(context.Background()))

	assert.Zero(t, fx.notifier.calls)
	assert.Zero(t, fx.markers.count())
}

func TestReminderNotFiredAfterCourseStarted(t *testing.T) {
	fx := newReminderFixture(t, fx0Time(t).Add(-time.Hour), registration("reg1", 1001))

	require.NoError(t, fx.job.RunOnce(context.Background()))

	assert.Zero(t, fx.notifier.calls)
}

func TestReminderRetriesAfterNotifierFailure(t *testing.T) {
	fx := newReminderFixture(t, fx0Time(t).Add(23*time.Hour), registration("reg1", 1001))
	fx.notifier.errs = []error{errors.New("telegram timeout")}

	// First pass: send fails, no marker, nothing committed.
	require.NoError(t, fx.job.RunOnce(context.Background()))
	assert.Zero(t, fx.markers.count())

	// Second pass: send succeeds, marker committed.
	require.NoError(t, fx.job.RunOnce(context.Background()))
	assert.Equal(t, 1, fx.markers.count())
	assert.Equal(t, 2, fx.notifier.calls)
	assert.Len(t, fx.notifier.sentOfKind(notify.TemplateCourseReminder), 1)
}

func TestReminderDuplicateMarkerTreatedAsFired(t *testing.T) {
	fx := newReminderFixture(t, fx0Time(t).Add(23*time.Hour), registration("reg1", 1001))
	fx.markers.createErr = repository.ErrDuplicateMarker

	require.NoError(t, fx.job.RunOnce(context.Background()))

	// The duplicate is a benign race, never an operator alert.
	assert.Empty(t, fx.alerts.bySeverity(SeverityCritical))
}

func TestReminderMarkerPersistenceFailureIsAlerted(t *testing.T) {
	fx := newReminderFixture(t, fx0Time(t).Add(23*time.Hour), registration("reg1", 1001))
	fx.markers.createErr = errors.New("store unreachable")

	require.NoError(t, fx.job.RunOnce(context.Background()))

	// The notification went out but may repeat next tick; that risk must be
	// surfaced, not swallowed.
	require.Len(t, fx.alerts.bySeverity(SeverityCritical), 1)
	assert.Contains(t, fx.alerts.bySeverity(SeverityCritical)[0].message, "marker not persisted")
}

func TestReminderCoversAllApprovedRegistrations(t *testing.T) {
	fx := newReminderFixture(t, fx0Time(t).Add(23*time.Hour),
		registration("reg1", 1001),
		registration("reg2", 1002),
		registration("reg3", 1003),
	)

	require.NoError(t, fx.job.RunOnce(context.Background()))

	sent := fx.notifier.sentOfKind(notify.TemplateCourseReminder)
	require.Len(t, sent, 3)
	assert.Equal(t, 3, fx.markers.count())
}

// blockingCourseRepo parks the caller inside the upcoming-course query so a
// test can observe the pass while it is still in flight.
type blockingCourseRepo struct {
	entered chan struct{}
	release chan struct{}
}

func (r *blockingCourseRepo) GetByID(context.Context, string) (*models.Course, error) {
	return nil, nil
}

func (r *blockingCourseRepo) ListStartingBefore(context.Context, time.Time, time.Time) ([]*models.Course, error) {
	r.entered <- struct{}{}
	<-r.release
	return nil, nil
}

func TestReminderPassNeverOverlapsItself(t *testing.T) {
	repo := &blockingCourseRepo{entered: make(chan struct{}), release: make(chan struct{})}
	notifier := &fakeNotifier{}
	markers := newFakeMarkerRepo()
	job := NewReminderJob(repo, &fakeRegRepo{}, markers, notifier,
		clock.Fixed{Instant: fx0Time(t)},
		map[models.ReminderType]time.Duration{models.ReminderCourseStart24h: 24 * time.Hour},
		&fakeAlerter{}, time.Minute)

	done := make(chan error, 1)
	go func() { done <- job.RunOnce(context.Background()) }()
	<-repo.entered // first pass now owns the single-flight lock

	err := job.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrPassInProgress)
	assert.Zero(t, notifier.calls, "skipped tick must not notify anyone")
	assert.Zero(t, markers.count())

	close(repo.release)
	require.NoError(t, <-done)
}
