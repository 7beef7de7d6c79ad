package testutil_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/permitsite/migrations"
	"github.com/pkordes/permitsite/testutil"
)

// TestMigrations applies every migration, checks the permits table and its
// composite-key constraint, then rolls everything back.
func TestMigrations(t *testing.T) {
	db := testutil.NewSQLDB(t)

	provider, err := goose.NewProvider(
		goose.DialectPostgres,
		db,
		migrations.FS,
	)
	require.NoError(t, err, "create goose provider")

	ctx := context.Background()

	// The repo tests may already have migrated a shared database.
	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "initial reset")

	results, err := provider.Up(ctx)
	require.NoError(t, err, "goose up")
	assert.NotEmpty(t, results, "expected at least one migration to be applied")

	assertTableExists(t, db, "permits")
	assertConstraintExists(t, db, "permits", "permits_composite_key")

	applied, err := migrations.Up(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, applied, "a second Up has nothing left to apply")

	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "goose down-to 0")

	assertTableNotExists(t, db, "permits")
}

func assertTableExists(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	assertTablePresence(t, db, table, true)
}

func assertTableNotExists(t *testing.T, db *sql.DB, table string) {
	t.Helper()
	assertTablePresence(t, db, table, false)
}

func assertTablePresence(t *testing.T, db *sql.DB, table string, shouldExist bool) {
	t.Helper()

	const q = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public'
			AND   table_name   = $1
		)`
	var exists bool
	err := db.QueryRowContext(context.Background(), q, table).Scan(&exists)
	require.NoError(t, err, "check table existence for %q", table)

	if shouldExist {
		assert.True(t, exists, "expected table %q to exist", table)
	} else {
		assert.False(t, exists, "expected table %q to not exist", table)
	}
}

func assertConstraintExists(t *testing.T, db *sql.DB, table, constraint string) {
	t.Helper()

	const q = `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.table_constraints
			WHERE table_name      = $1
			AND   constraint_name = $2
			AND   constraint_type = 'UNIQUE'
		)`
	var exists bool
	err := db.QueryRowContext(context.Background(), q, table, constraint).Scan(&exists)
	require.NoError(t, err, "check constraint %q", constraint)
	assert.True(t, exists, "expected unique constraint %q on %q", constraint, table)
}
