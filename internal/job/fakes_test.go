package job

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/analytics"
	"github.com/phrazzld/task-service/internal/platform/notification"
	"github.com/phrazzld/task-service/internal/store"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTasks struct {
	mu      sync.Mutex
	tasks   map[uuid.UUID]*domain.Task
	updated [][]string
	dueSoon []uuid.UUID
	overdue []uuid.UUID
	listErr error
}

func newFakeTasks(tasks ...*domain.Task) *fakeTasks {
	f := &fakeTasks{tasks: make(map[uuid.UUID]*domain.Task)}
	for _, t := range tasks {
		f.put(t)
	}
	return f
}

func (f *fakeTasks) put(t *domain.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := *t
	f.tasks[t.ID] = &c
}

func (f *fakeTasks) get(id uuid.UUID) *domain.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	if !ok {
		return nil
	}
	c := *t
	return &c
}

func (f *fakeTasks) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	t := f.get(id)
	if t == nil || t.IsDeleted {
		return nil, store.ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeTasks) UpdateFields(ctx context.Context, task *domain.Task, columns ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	for _, c := range columns {
		switch c {
		case domain.ColumnReminderSent:
			stored.ReminderSent = task.ReminderSent
		case domain.ColumnOverdueNotificationSent:
			stored.OverdueNotificationSent = task.OverdueNotificationSent
		case domain.ColumnStatus:
			stored.Status = task.Status
		}
	}
	stored.UpdatedAt = task.UpdatedAt
	f.updated = append(f.updated, columns)
	return nil
}

func (f *fakeTasks) ListCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, t := range f.tasks {
		if t.UserID == userID && !t.IsDeleted && !t.CreatedAt.Before(from) && !t.CreatedAt.After(to) {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeTasks) ListDueSoonIDs(ctx context.Context, now time.Time, window time.Duration) ([]uuid.UUID, error) {
	return f.dueSoon, f.listErr
}

func (f *fakeTasks) ListOverdueIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return f.overdue, f.listErr
}

func (f *fakeTasks) ListPurgeable(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for id, t := range f.tasks {
		if t.IsDeleted && t.UpdatedAt.Before(cutoff) && len(ids) < limit {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeTasks) HardDelete(ctx context.Context, ids []uuid.UUID, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range ids {
		if t, ok := f.tasks[id]; ok && t.IsDeleted && t.UpdatedAt.Before(cutoff) {
			delete(f.tasks, id)
			n++
		}
	}
	return n, nil
}

type fakeUsers map[uuid.UUID]*domain.User

func (f fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	errs  []error
	sent  []notification.Message
	calls int
	// onSend runs after each call is recorded.
	onSend func()
}

func (f *fakeNotifier) Send(ctx context.Context, msg notification.Message) error {
	f.mu.Lock()
	f.calls++
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	if err == nil {
		f.sent = append(f.sent, msg)
	}
	onSend := f.onSend
	f.mu.Unlock()
	if onSend != nil {
		onSend()
	}
	return err
}

type fakeReporter struct {
	mu      sync.Mutex
	errs    []error
	reports []analytics.Report
}

func (f *fakeReporter) StoreReport(ctx context.Context, r analytics.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	f.reports = append(f.reports, r)
	return nil
}

type fakeBulk struct {
	userID  uuid.UUID
	taskIDs []uuid.UUID
	update  domain.BulkUpdate
	count   int
	err     error
}

func (f *fakeBulk) ApplyBulkUpdate(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID, update domain.BulkUpdate) (int, error) {
	f.userID, f.taskIDs, f.update = userID, taskIDs, update
	return f.count, f.err
}

type fixture struct {
	tasks    *fakeTasks
	users    fakeUsers
	notifier *fakeNotifier
	reporter *fakeReporter
	bulk     *fakeBulk
	owner    *domain.User
}

func newFixture() *fixture {
	owner := &domain.User{ID: uuid.New(), Username: "ada", Email: "ada@example.com"}
	return &fixture{
		tasks:    newFakeTasks(),
		users:    fakeUsers{owner.ID: owner},
		notifier: &fakeNotifier{},
		reporter: &fakeReporter{},
		bulk:     &fakeBulk{},
		owner:    owner,
	}
}

func (f *fixture) deps() Deps {
	fast := RetryPolicy{Base: time.Millisecond, MaxAttempts: 3}
	return Deps{
		Tasks:             f.tasks,
		Users:             f.users,
		Notifier:          f.notifier,
		Reporter:          f.reporter,
		Bulk:              f.bulk,
		NotificationRetry: fast,
		ReportRetry:       fast,
		Retention:         RetentionPolicy{GracePeriod: 30 * 24 * time.Hour, BatchSize: 2},
		Now:               func() time.Time { return testNow },
		Logger:            discardLogger(),
	}
}

// addTask stores a pending task owned by the fixture user.
func (f *fixture) addTask(t *testing.T, mutate func(*domain.Task)) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(f.owner.ID, domain.TaskDraft{Title: "Write report"}, testNow.Add(-72*time.Hour))
	require.NoError(t, err)
	if mutate != nil {
		mutate(task)
	}
	f.tasks.put(task)
	return task
}

func dueIn(d time.Duration) func(*domain.Task) {
	return func(t *domain.Task) {
		due := testNow.Add(d)
		t.DueDate = &due
	}
}
