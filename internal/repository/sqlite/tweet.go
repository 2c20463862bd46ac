package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// TweetDB is the tweet-repository view of the store.
type TweetDB struct {
	db *DB
}

var _ repository.TweetRepository = (*TweetDB)(nil)

const tweetColumns = `id, content, user_id, created_at, updated_at`

// Tweets come back newest-first everywhere. The secondary `id DESC` breaks
// created_at ties by insertion order — xid values are monotonic within a
// process, so a later insert always has the larger ID.
const tweetOrder = ` ORDER BY created_at DESC, id DESC`

// Create inserts a new tweet. The author must exist: the user_id foreign
// key rejects unknown users, which we surface as NotFound.
func (t *TweetDB) Create(ctx context.Context, tweet *model.Tweet) error {
	tweet.ID = xid.New().String()
	now := time.Now().UTC()
	tweet.CreatedAt = now
	tweet.UpdatedAt = now

	_, err := t.db.conn.ExecContext(ctx,
		`INSERT INTO tweets (`+tweetColumns+`) VALUES (?, ?, ?, ?, ?)`,
		tweet.ID,
		tweet.Content,
		tweet.UserID,
		tweet.CreatedAt,
		tweet.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed") {
			return apperror.NotFound("user", tweet.UserID)
		}
		return fmt.Errorf("sqlite: inserting tweet: %w", err)
	}

	return nil
}

// GetByID retrieves a single tweet.
func (t *TweetDB) GetByID(ctx context.Context, id string) (*model.Tweet, error) {
	var tw model.Tweet
	err := t.db.conn.QueryRowContext(ctx,
		`SELECT `+tweetColumns+` FROM tweets WHERE id = ?`, id,
	).Scan(&tw.ID, &tw.Content, &tw.UserID, &tw.CreatedAt, &tw.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tweet", id)
		}
		return nil, fmt.Errorf("sqlite: getting tweet %s: %w", id, err)
	}
	return &tw, nil
}

// List returns every tweet, newest first.
func (t *TweetDB) List(ctx context.Context) ([]model.Tweet, error) {
	return t.queryTweets(ctx, `SELECT `+tweetColumns+` FROM tweets`+tweetOrder)
}

// ListByUser returns one author's tweets, newest first. An unknown user
// simply has no tweets — that's an empty list, not an error.
func (t *TweetDB) ListByUser(ctx context.Context, userID string) ([]model.Tweet, error) {
	return t.queryTweets(ctx,
		`SELECT `+tweetColumns+` FROM tweets WHERE user_id = ?`+tweetOrder, userID)
}

// ListByUsers returns the tweets of all given authors, newest first.
// Placeholders are expanded per author; an empty author set short-circuits
// to an empty list (SQLite rejects `IN ()`).
func (t *TweetDB) ListByUsers(ctx context.Context, userIDs []string) ([]model.Tweet, error) {
	if len(userIDs) == 0 {
		return []model.Tweet{}, nil
	}

	placeholders := strings.Repeat("?,", len(userIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(userIDs))
	for i, id := range userIDs {
		args[i] = id
	}

	return t.queryTweets(ctx,
		`SELECT `+tweetColumns+` FROM tweets WHERE user_id IN (`+placeholders+`)`+tweetOrder,
		args...)
}

// ListSince returns tweets created at or after the cutoff, newest first.
func (t *TweetDB) ListSince(ctx context.Context, cutoff time.Time) ([]model.Tweet, error) {
	return t.queryTweets(ctx,
		`SELECT `+tweetColumns+` FROM tweets WHERE created_at >= ?`+tweetOrder, cutoff)
}

// Delete removes a tweet. The schema's ON DELETE CASCADE removes its likes
// and replies in the same statement.
func (t *TweetDB) Delete(ctx context.Context, id string) error {
	result, err := t.db.conn.ExecContext(ctx, `DELETE FROM tweets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting tweet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("tweet", id)
	}

	return nil
}

func (t *TweetDB) queryTweets(ctx context.Context, query string, args ...any) ([]model.Tweet, error) {
	rows, err := t.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tweets: %w", err)
	}
	defer rows.Close()

	tweets := []model.Tweet{}
	for rows.Next() {
		var tw model.Tweet
		if err := rows.Scan(&tw.ID, &tw.Content, &tw.UserID, &tw.CreatedAt, &tw.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tweet row: %w", err)
		}
		tweets = append(tweets, tw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tweets: %w", err)
	}

	return tweets, nil
}
