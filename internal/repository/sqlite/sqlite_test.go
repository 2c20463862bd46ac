package sqlite

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sakif/microblog/internal/model"
)

// newTestDB returns a store backed by an in-memory SQLite database.
// Each test gets a fresh schema; t.Cleanup closes the pool.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := New(":memory:", logger)
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Name:         "Test " + username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$notarealhashbutlongenough",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return user
}

// createTestTweet creates a tweet and fails the test if it errors.
func createTestTweet(t *testing.T, db *DB, userID, content string) *model.Tweet {
	t.Helper()
	tweet := &model.Tweet{Content: content, UserID: userID}
	if err := db.Tweets().Create(context.Background(), tweet); err != nil {
		t.Fatalf("failed to create test tweet: %v", err)
	}
	return tweet
}

// backdateTweet rewrites a tweet's created_at so ordering tests can place
// records at distinct points in time.
func backdateTweet(t *testing.T, db *DB, id string, at time.Time) {
	t.Helper()
	if _, err := db.conn.Exec(`UPDATE tweets SET created_at = ? WHERE id = ?`, at, id); err != nil {
		t.Fatalf("failed to backdate tweet %s: %v", id, err)
	}
}
