package migrate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightside-studio/backend/migrations"
)

type fakeRow struct {
	exists bool
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*bool)) = r.exists
	return nil
}

// fakeDB records executed SQL and answers the applied-check from a set.
type fakeDB struct {
	applied map[string]bool
	execs   []string
	failOn  string
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.failOn != "" && strings.Contains(sql, f.failOn) {
		return pgconn.CommandTag{}, errors.New("syntax error")
	}
	f.execs = append(f.execs, sql)
	if strings.HasPrefix(sql, "INSERT INTO schema_migrations") && len(args) == 1 {
		f.applied[args[0].(string)] = true
	}
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return fakeRow{exists: f.applied[args[0].(string)]}
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"002_b.up.sql":         {Data: []byte("-- b")},
		"001_a.up.sql":         {Data: []byte("-- a")},
		"001_a.down.sql":       {Data: []byte("-- down")},
		"000_drop_all.sql":     {Data: []byte("-- drop")},
		"000_consolidated.sql": {Data: []byte("-- consolidated")},
	}
}

func TestUpFiles_SortedUpOnly(t *testing.T) {
	files, err := New(&fakeDB{}, testFS()).upFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.up.sql", "002_b.up.sql"}, files)
}

func TestUp_AppliesPendingInOrder(t *testing.T) {
	db := &fakeDB{applied: map[string]bool{"001_a": true}}

	n, err := New(db, testFS()).Up(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Contains(t, db.execs, "-- b")
	assert.NotContains(t, db.execs, "-- a")
	assert.True(t, db.applied["002_b"])
}

func TestUp_Idempotent(t *testing.T) {
	db := &fakeDB{applied: map[string]bool{}}
	m := New(db, testFS())

	_, err := m.Up(context.Background())
	require.NoError(t, err)
	n, err := m.Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestUp_StopsOnFailure(t *testing.T) {
	db := &fakeDB{applied: map[string]bool{}, failOn: "-- a"}

	n, err := New(db, testFS()).Up(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, n)
	assert.False(t, db.applied["002_b"], "later migrations must not run after a failure")
}

func TestReset_MarksEverythingApplied(t *testing.T) {
	db := &fakeDB{applied: map[string]bool{}}

	require.NoError(t, New(db, testFS()).Reset(context.Background()))

	assert.Equal(t, "-- drop", db.execs[0])
	assert.Contains(t, db.execs, "-- consolidated")
	assert.True(t, db.applied["001_a"])
	assert.True(t, db.applied["002_b"])
}

func TestEmbeddedMigrations_Present(t *testing.T) {
	files, err := New(&fakeDB{}, migrations.FS).upFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_contact_messages.up.sql", files[0])
}
