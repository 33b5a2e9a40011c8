package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/events"
	"github.com/phrazzld/task-service/internal/store"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() Option {
	return WithClock(func() time.Time { return testNow })
}

// newMockDB returns a sqlmock-backed *sql.DB used only for transaction
// begin/commit/rollback; the fake stores ignore the transaction.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func expectCommits(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func expectRollback(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectRollback()
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	c.Labels = append([]domain.Label(nil), t.Labels...)
	return &c
}

type fakeTaskStore struct {
	mu      sync.Mutex
	db      *sql.DB
	tasks   map[uuid.UUID]*domain.Task
	columns map[uuid.UUID][][]string
	failOn  map[uuid.UUID]error
	listed  []domain.TaskFilter
}

func newFakeTaskStore(db *sql.DB) *fakeTaskStore {
	return &fakeTaskStore{
		db:      db,
		tasks:   map[uuid.UUID]*domain.Task{},
		columns: map[uuid.UUID][][]string{},
		failOn:  map[uuid.UUID]error{},
	}
}

func (s *fakeTaskStore) put(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = cloneTask(t)
}

func (s *fakeTaskStore) stored(id uuid.UUID) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		return cloneTask(t)
	}
	return nil
}

func (s *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	s.put(task)
	return nil
}

func (s *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	t := s.stored(id)
	if t == nil || t.IsDeleted {
		return nil, store.ErrTaskNotFound
	}
	return t, nil
}

func (s *fakeTaskStore) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.GetByID(ctx, id)
}

func (s *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	return s.write(task, []string{"*"})
}

func (s *fakeTaskStore) UpdateFields(ctx context.Context, task *domain.Task, columns ...string) error {
	return s.write(task, append([]string{}, columns...))
}

func (s *fakeTaskStore) write(task *domain.Task, columns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failOn[task.ID]; err != nil {
		return err
	}
	if _, ok := s.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	s.tasks[task.ID] = cloneTask(task)
	s.columns[task.ID] = append(s.columns[task.ID], columns)
	return nil
}

func (s *fakeTaskStore) writes(id uuid.UUID) [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.columns[id]
}

func (s *fakeTaskStore) SetLabels(ctx context.Context, taskID uuid.UUID, labelIDs []uuid.UUID) error {
	return nil
}

func (s *fakeTaskStore) List(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter, now time.Time) ([]*domain.Task, int, error) {
	s.mu.Lock()
	s.listed = append(s.listed, filter)
	s.mu.Unlock()
	tasks, err := s.ListAll(ctx, userID)
	return tasks, len(tasks), err
}

func (s *fakeTaskStore) ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Task
	for _, t := range s.tasks {
		if t.UserID == userID && !t.IsDeleted {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

func (s *fakeTaskStore) ListCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Task, error) {
	return s.ListAll(ctx, userID)
}

func (s *fakeTaskStore) ListDueSoonIDs(ctx context.Context, now time.Time, window time.Duration) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *fakeTaskStore) ListOverdueIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *fakeTaskStore) ListPurgeable(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *fakeTaskStore) HardDelete(ctx context.Context, ids []uuid.UUID, cutoff time.Time) (int, error) {
	return 0, nil
}

func (s *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return s }

func (s *fakeTaskStore) DB() *sql.DB { return s.db }

type fakeLabelStore struct {
	mu     sync.Mutex
	labels map[uuid.UUID]domain.Label
}

func newFakeLabelStore(labels ...domain.Label) *fakeLabelStore {
	s := &fakeLabelStore{labels: map[uuid.UUID]domain.Label{}}
	for _, l := range labels {
		s.labels[l.ID] = l
	}
	return s
}

func (s *fakeLabelStore) Create(ctx context.Context, label *domain.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.labels {
		if l.UserID == label.UserID && l.Name == label.Name {
			return store.ErrLabelExists
		}
	}
	s.labels[label.ID] = *label
	return nil
}

func (s *fakeLabelStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.labels[id]
	if !ok {
		return nil, store.ErrLabelNotFound
	}
	return &l, nil
}

func (s *fakeLabelStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Label
	for _, id := range ids {
		if l, ok := s.labels[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeLabelStore) Update(ctx context.Context, label *domain.Label) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[label.ID] = *label
	return nil
}

func (s *fakeLabelStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.labels, id)
	return nil
}

func (s *fakeLabelStore) ListByOwner(ctx context.Context, userID uuid.UUID) ([]domain.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Label
	for _, l := range s.labels {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeLabelStore) WithTx(tx *sql.Tx) store.LabelStore { return s }

type fakeActivityStore struct {
	mu   sync.Mutex
	rows []*domain.Activity
	err  error
}

func (s *fakeActivityStore) Append(ctx context.Context, activities ...*domain.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, activities...)
	return nil
}

func (s *fakeActivityStore) ListByTask(ctx context.Context, taskID uuid.UUID, limit int) ([]*domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Activity
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if s.rows[i].TaskID == taskID {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}

func (s *fakeActivityStore) WithTx(tx *sql.Tx) store.ActivityStore { return s }

func (s *fakeActivityStore) forTask(taskID uuid.UUID) []*domain.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Activity
	for _, a := range s.rows {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out
}

func (s *fakeActivityStore) fields(taskID uuid.UUID) []string {
	var out []string
	for _, a := range s.forTask(taskID) {
		out = append(out, a.FieldName)
	}
	return out
}

type fakeCommentStore struct {
	mu       sync.Mutex
	comments map[uuid.UUID]*domain.Comment
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: map[uuid.UUID]*domain.Comment{}}
}

func (s *fakeCommentStore) Create(ctx context.Context, c *domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *fakeCommentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok || c.IsDeleted {
		return nil, store.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeCommentStore) UpdateContent(ctx context.Context, c *domain.Comment) error {
	return s.Create(ctx, c)
}

func (s *fakeCommentStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return store.ErrCommentNotFound
	}
	c.IsDeleted = true
	return nil
}

func (s *fakeCommentStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Comment
	for _, c := range s.comments {
		if c.TaskID == taskID && !c.IsDeleted {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeCommentStore) WithTx(tx *sql.Tx) store.CommentStore { return s }

type fakeAttachmentStore struct {
	mu          sync.Mutex
	attachments map[uuid.UUID]*domain.Attachment
}

func newFakeAttachmentStore() *fakeAttachmentStore {
	return &fakeAttachmentStore{attachments: map[uuid.UUID]*domain.Attachment{}}
}

func (s *fakeAttachmentStore) Create(ctx context.Context, a *domain.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[a.ID] = a
	return nil
}

func (s *fakeAttachmentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attachments[id]
	if !ok {
		return nil, store.ErrAttachmentNotFound
	}
	return a, nil
}

func (s *fakeAttachmentStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Attachment
	for _, a := range s.attachments {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeAttachmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attachments[id]; !ok {
		return store.ErrAttachmentNotFound
	}
	delete(s.attachments, id)
	return nil
}

func (s *fakeAttachmentStore) WithTx(tx *sql.Tx) store.AttachmentStore { return s }

type fakeUserStore map[uuid.UUID]*domain.User

func (s fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []*events.JobRequestEvent
	err    error
}

func (e *fakeEmitter) EmitEvent(ctx context.Context, event *events.JobRequestEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

func (e *fakeEmitter) emitted() []*events.JobRequestEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*events.JobRequestEvent(nil), e.events...)
}

var errBoom = errors.New("boom")

// taskFixture wires a TaskService over fakes and a sqlmock transaction source.
type taskFixture struct {
	mock       sqlmock.Sqlmock
	tasks      *fakeTaskStore
	labels     *fakeLabelStore
	activities *fakeActivityStore
	emitter    *fakeEmitter
	svc        TaskService
	owner      uuid.UUID
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	db, mock := newMockDB(t)
	f := &taskFixture{
		mock:       mock,
		tasks:      newFakeTaskStore(db),
		labels:     newFakeLabelStore(),
		activities: &fakeActivityStore{},
		emitter:    &fakeEmitter{},
		owner:      uuid.New(),
	}
	svc, err := NewTaskService(f.tasks, f.labels, f.activities, f.emitter, discardLogger(), fixedClock())
	require.NoError(t, err)
	f.svc = svc
	return f
}

// seed stores a pending task owned by userID, created a day before testNow.
func (f *taskFixture) seed(t *testing.T, userID uuid.UUID, mutate func(*domain.Task)) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(userID, domain.TaskDraft{Title: "Write report", Category: "work"}, testNow.Add(-24*time.Hour))
	require.NoError(t, err)
	if mutate != nil {
		mutate(task)
	}
	f.tasks.put(task)
	return task
}
