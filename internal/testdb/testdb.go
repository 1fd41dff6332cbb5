// Package testdb opens migrated throwaway databases and seeds rows for tests.
package testdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gradnet/gradnet/internal/db"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// New returns a freshly migrated SQLite database that lives for the duration of t.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "gradnet.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

// College inserts a college and returns its id.
func College(t testing.TB, database *sqlx.DB, name string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := database.Exec(`INSERT INTO colleges (id, name, created_at) VALUES ($1, $2, $3)`, id, name, time.Now().UTC())
	require.NoError(t, err)
	return id
}

// User inserts a student with an unusable password hash and returns its id.
// collegeID may be empty.
func User(t testing.TB, database *sqlx.DB, name, collegeID string) string {
	t.Helper()

	id := uuid.NewString()
	var college *string
	if collegeID != "" {
		college = &collegeID
	}
	now := time.Now().UTC()
	_, err := database.Exec(`INSERT INTO users (id, email, password_hash, name, role, college_id, created_at, updated_at)
	                         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, id+"@example.com", "x", name, "student", college, now, now)
	require.NoError(t, err)
	return id
}

// Post inserts a post and returns its id. circleID may be empty.
func Post(t testing.TB, database *sqlx.DB, userID, circleID, content string) string {
	t.Helper()

	id := uuid.NewString()
	var circle *string
	if circleID != "" {
		circle = &circleID
	}
	now := time.Now().UTC()
	_, err := database.Exec(`INSERT INTO posts (id, user_id, circle_id, content, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID, circle, content, now, now)
	require.NoError(t, err)
	return id
}

// Circle inserts a circle owned by createdByID and returns its id. No membership row is created.
func Circle(t testing.TB, database *sqlx.DB, createdByID, name string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := database.Exec(`INSERT INTO circles (id, name, created_by_id, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, name, createdByID, now, now)
	require.NoError(t, err)
	return id
}

func Comment(t testing.TB, database *sqlx.DB, postID, userID, content string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := database.Exec(`INSERT INTO comments (id, post_id, user_id, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, postID, userID, content, time.Now().UTC())
	require.NoError(t, err)
	return id
}

func Media(t testing.TB, database *sqlx.DB, postID, url string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := database.Exec(`INSERT INTO media (id, post_id, url, type, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, postID, url, "image", time.Now().UTC())
	require.NoError(t, err)
	return id
}

// Count returns the number of rows in table matching the optional where clause.
func Count(t testing.TB, database *sqlx.DB, table, where string, args ...any) int {
	t.Helper()

	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	require.NoError(t, database.Get(&n, query, args...))
	return n
}
