package postgres

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	t.Parallel()

	files, err := fs.Glob(migrationsFS, migrationsDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		content, err := fs.ReadFile(migrationsFS, name)
		require.NoError(t, err)
		sql := string(content)

		assert.True(t, strings.HasPrefix(sql, "-- +goose Up"), "%s must start with an Up section", name)
		assert.Contains(t, sql, "-- +goose Down", "%s must be reversible", name)
	}
}

func TestMigrate_UnknownCommand(t *testing.T) {
	t.Parallel()

	err := Migrate(context.Background(), nil, "sideways", discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown migration command "sideways"`)
}
