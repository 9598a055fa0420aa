package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.migrate(t.Context()))

	var version int
	require.NoError(t, db.QueryRow("SELECT MAX(version) FROM schema_versions").Scan(&version))
	assert.Equal(t, len(migrations), version)
}

func TestRebind(t *testing.T) {
	sqlite := &DB{Dialect: DialectSQLite}
	pg := &DB{Dialect: DialectPostgres}

	q := "SELECT * FROM facts WHERE category = ? AND key = ? LIMIT ?"
	assert.Equal(t, q, sqlite.rebind(q))
	assert.Equal(t, "SELECT * FROM facts WHERE category = $1 AND key = $2 LIMIT $3", pg.rebind(q))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%alice%", likePattern("ALICE"))
	assert.Equal(t, `%50\%%`, likePattern("50%"))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}
