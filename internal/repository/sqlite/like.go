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

// LikeDB is the like-repository view of the store.
type LikeDB struct {
	db *DB
}

var _ repository.LikeRepository = (*LikeDB)(nil)

// Create inserts a like for (like.UserID, like.TweetID).
//
// Duplicate semantics: liking an already-liked tweet is not an error — the
// existing like is loaded into the argument and the insert is skipped. The
// UNIQUE(tweet_id, user_id) constraint makes this safe even if two inserts
// race past the existence check.
func (l *LikeDB) Create(ctx context.Context, like *model.Like) error {
	existing, err := l.get(ctx, like.UserID, like.TweetID)
	if err == nil {
		*like = *existing
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: checking existing like: %w", err)
	}

	like.ID = xid.New().String()
	like.CreatedAt = time.Now().UTC()

	_, err = l.db.conn.ExecContext(ctx,
		`INSERT INTO likes (id, tweet_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
		like.ID,
		like.TweetID,
		like.UserID,
		like.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "likes.tweet_id") {
			// Lost a race with an identical insert; return the winner.
			if existing, getErr := l.get(ctx, like.UserID, like.TweetID); getErr == nil {
				*like = *existing
				return nil
			}
			return nil
		}
		if strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed") {
			return apperror.NotFound("tweet", like.TweetID)
		}
		return fmt.Errorf("sqlite: inserting like: %w", err)
	}

	return nil
}

// Delete removes the like for (userID, tweetID). Deleting a like that
// doesn't exist is fine — idempotent by contract.
func (l *LikeDB) Delete(ctx context.Context, userID, tweetID string) error {
	_, err := l.db.conn.ExecContext(ctx,
		`DELETE FROM likes WHERE user_id = ? AND tweet_id = ?`, userID, tweetID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting like: %w", err)
	}
	return nil
}

// Exists reports whether userID has liked tweetID.
func (l *LikeDB) Exists(ctx context.Context, userID, tweetID string) (bool, error) {
	var n int
	err := l.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM likes WHERE user_id = ? AND tweet_id = ?`,
		userID, tweetID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking like: %w", err)
	}
	return n > 0, nil
}

// CountByTweet returns the number of likes on a tweet.
func (l *LikeDB) CountByTweet(ctx context.Context, tweetID string) (int, error) {
	var n int
	err := l.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM likes WHERE tweet_id = ?`, tweetID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting likes for tweet %s: %w", tweetID, err)
	}
	return n, nil
}

// ListByTweet returns all likes on a tweet.
func (l *LikeDB) ListByTweet(ctx context.Context, tweetID string) ([]model.Like, error) {
	return l.queryLikes(ctx,
		`SELECT id, tweet_id, user_id, created_at FROM likes WHERE tweet_id = ?`, tweetID)
}

// ListByUser returns all likes a user has given.
func (l *LikeDB) ListByUser(ctx context.Context, userID string) ([]model.Like, error) {
	return l.queryLikes(ctx,
		`SELECT id, tweet_id, user_id, created_at FROM likes WHERE user_id = ?`, userID)
}

func (l *LikeDB) get(ctx context.Context, userID, tweetID string) (*model.Like, error) {
	var like model.Like
	err := l.db.conn.QueryRowContext(ctx,
		`SELECT id, tweet_id, user_id, created_at FROM likes
		 WHERE user_id = ? AND tweet_id = ?`,
		userID, tweetID,
	).Scan(&like.ID, &like.TweetID, &like.UserID, &like.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &like, nil
}

func (l *LikeDB) queryLikes(ctx context.Context, query string, args ...any) ([]model.Like, error) {
	rows, err := l.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing likes: %w", err)
	}
	defer rows.Close()

	likes := []model.Like{}
	for rows.Next() {
		var like model.Like
		if err := rows.Scan(&like.ID, &like.TweetID, &like.UserID, &like.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning like row: %w", err)
		}
		likes = append(likes, like)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating likes: %w", err)
	}

	return likes, nil
}
