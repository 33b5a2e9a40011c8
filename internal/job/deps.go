package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/phrazzld/task-service/internal/platform/analytics"
	"github.com/phrazzld/task-service/internal/platform/notification"
)

// TaskRepository is the task access the built-in jobs and the scheduler need.
// store.TaskStore satisfies it.
type TaskRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	UpdateFields(ctx context.Context, task *domain.Task, columns ...string) error
	ListCreatedBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Task, error)
	ListDueSoonIDs(ctx context.Context, now time.Time, window time.Duration) ([]uuid.UUID, error)
	ListOverdueIDs(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	ListPurgeable(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
	HardDelete(ctx context.Context, ids []uuid.UUID, cutoff time.Time) (int, error)
}

// UserRepository resolves task owners.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Notifier delivers task emails.
type Notifier interface {
	Send(ctx context.Context, msg notification.Message) error
}

// Reporter delivers productivity reports.
type Reporter interface {
	StoreReport(ctx context.Context, report analytics.Report) error
}

// BulkApplier applies one bulk update and returns how many tasks changed.
type BulkApplier interface {
	ApplyBulkUpdate(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID, update domain.BulkUpdate) (int, error)
}

// RetentionPolicy controls the retention sweep.
type RetentionPolicy struct {
	GracePeriod time.Duration
	BatchSize   int
}

// DefaultRetentionPolicy keeps soft-deleted tasks for 30 days.
func DefaultRetentionPolicy() RetentionPolicy {
	return RetentionPolicy{GracePeriod: 30 * 24 * time.Hour, BatchSize: 500}
}

// Deps bundles the collaborators of the built-in jobs.
type Deps struct {
	Tasks             TaskRepository
	Users             UserRepository
	Notifier          Notifier
	Reporter          Reporter
	Bulk              BulkApplier
	NotificationRetry RetryPolicy
	ReportRetry       RetryPolicy
	Retention         RetentionPolicy
	Now               func() time.Time
	Logger            *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.NotificationRetry.MaxAttempts == 0 {
		d.NotificationRetry = DefaultRetryPolicy()
	}
	if d.ReportRetry.MaxAttempts == 0 {
		d.ReportRetry = DefaultRetryPolicy()
	}
	if d.Retention.GracePeriod == 0 {
		d.Retention = DefaultRetentionPolicy()
	}
	return d
}

// RegisterBuiltins installs factories for every built-in job type.
func RegisterBuiltins(r *Registry, deps Deps) {
	deps = deps.withDefaults()

	r.Register(TypeDueSoonReminder, func(rec Record) (Job, error) {
		var p TaskPayload
		if err := decodePayload(rec, &p); err != nil {
			return nil, err
		}
		return newReminderJob(rec.ID, p, deps)
	})
	r.Register(TypeOverdueNotification, func(rec Record) (Job, error) {
		var p TaskPayload
		if err := decodePayload(rec, &p); err != nil {
			return nil, err
		}
		return newOverdueJob(rec.ID, p, deps)
	})
	r.Register(TypeBulkUpdate, func(rec Record) (Job, error) {
		var p BulkPayload
		if err := decodePayload(rec, &p); err != nil {
			return nil, err
		}
		return NewBulkUpdateJob(rec.ID, p, deps)
	})
	r.Register(TypeRetentionSweep, func(rec Record) (Job, error) {
		return NewRetentionJob(rec.ID, deps)
	})
	r.Register(TypeTaskReport, func(rec Record) (Job, error) {
		var p ReportPayload
		if err := decodePayload(rec, &p); err != nil {
			return nil, err
		}
		return NewReportJob(rec.ID, p, deps)
	})
}
