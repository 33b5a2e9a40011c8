package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/task-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresActivityStore_Append(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	s := NewPostgresActivityStore(db, discardLogger())

	taskID, actor := uuid.New(), uuid.New()
	created := domain.NewActivity(taskID, domain.ActivityFieldCreated, "", "Task created", nil, testNow)
	changed := domain.NewActivity(taskID, "status", "pending", "completed", &actor, testNow)

	mock.ExpectExec(`INSERT INTO task_activities \(id, task_id, field_name, old_value, new_value, changed_by, changed_at\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\), \(\$8, \$9, \$10, \$11, \$12, \$13, \$14\)`).
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), "created", "", "Task created", nil, testNow,
			sqlmock.AnyArg(), sqlmock.AnyArg(), "status", "pending", "completed", actor.String(), testNow,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, s.Append(context.Background(), created, changed))
	require.NoError(t, s.Append(context.Background()), "empty append is a no-op")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresActivityStore_ListByTask(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	s := NewPostgresActivityStore(db, discardLogger())

	taskID, actor := uuid.New(), uuid.New()
	mock.ExpectQuery(`FROM task_activities WHERE task_id = \$1 ORDER BY changed_at DESC, id LIMIT \$2`).
		WithArgs(sqlmock.AnyArg(), 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_id", "field_name", "old_value", "new_value", "changed_by", "changed_at"}).
			AddRow(uuid.NewString(), taskID.String(), "status", "pending", "completed", actor.String(), testNow).
			AddRow(uuid.NewString(), taskID.String(), "created", "", "Task created", nil, testNow))

	activities, err := s.ListByTask(context.Background(), taskID, 50)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	require.NotNil(t, activities[0].ChangedBy)
	assert.Equal(t, actor, *activities[0].ChangedBy)
	assert.Nil(t, activities[1].ChangedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}
