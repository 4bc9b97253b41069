package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitaplataforma/orbita/storage/database"
	"github.com/orbitaplataforma/orbita/testutil"
)

func TestSQLiteDSN(t *testing.T) {
	dsn := database.SQLiteDSN(":memory:")
	assert.Contains(t, dsn, "file::memory:?")
	assert.Contains(t, dsn, "_pragma=foreign_keys%281%29")
	assert.Contains(t, dsn, "_time_format=sqlite")
}

func TestOpen_unsupportedEngine(t *testing.T) {
	conf := testutil.NewConfig()
	conf.Database.Engine = "mysql"
	_, err := database.Open(conf)
	assert.EqualError(t, err, `unsupported database engine "mysql"`)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db := testutil.PrepareDB(t)

	// already up to date
	require.NoError(t, database.Migrate(ctx, db))

	tables := []string{"users", "administrators", "mentors", "students", "study_sessions", "mock_exams", "schedule_slots", "mentor_notes"}
	for _, table := range tables {
		var cnt int
		err := db.GetContext(ctx, &cnt, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		require.NoError(t, err)
		assert.Equal(t, 1, cnt, table)
	}

	var fk int
	require.NoError(t, db.GetContext(ctx, &fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)

	// roll the study tables back, then forward again
	require.NoError(t, database.RunGoose(ctx, db, "down"))
	var cnt int
	require.NoError(t, db.GetContext(ctx, &cnt, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'study_sessions'"))
	assert.Equal(t, 0, cnt)
	require.NoError(t, database.RunGoose(ctx, db, "up"))
}

func TestCreateIfNotExist_sqlite(t *testing.T) {
	// nothing to create up front for sqlite
	assert.NoError(t, database.CreateIfNotExist(context.Background(), testutil.NewConfig()))
}
