package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// FollowDB is the follow-repository view of the store.
//
// Follow edges have no surrogate ID — the (follower_id, following_id) pair
// IS the identity, matching the relational variant of the original schema.
type FollowDB struct {
	db *DB
}

var _ repository.FollowRepository = (*FollowDB)(nil)

// Create inserts a follow edge. Re-following is a no-op (the pair is the
// primary key, and a duplicate insert is swallowed); the CHECK constraint
// rejects self-follows that slip past service validation.
func (f *FollowDB) Create(ctx context.Context, follow *model.Follow) error {
	follow.CreatedAt = time.Now().UTC()

	_, err := f.db.conn.ExecContext(ctx,
		`INSERT INTO follows (follower_id, following_id, created_at)
		 VALUES (?, ?, ?)`,
		follow.FollowerID,
		follow.FollowingID,
		follow.CreatedAt,
	)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "unique constraint failed") {
			return nil // already following
		}
		if strings.Contains(msg, "foreign key constraint failed") {
			return apperror.NotFound("user", follow.FollowingID)
		}
		if strings.Contains(msg, "check constraint failed") {
			return apperror.ValidationFailed("followingId", "users cannot follow themselves")
		}
		return fmt.Errorf("sqlite: inserting follow: %w", err)
	}

	return nil
}

// Delete removes a follow edge. Idempotent.
func (f *FollowDB) Delete(ctx context.Context, followerID, followingID string) error {
	_, err := f.db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting follow: %w", err)
	}
	return nil
}

// Exists reports whether followerID follows followingID.
func (f *FollowDB) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	var n int
	err := f.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow: %w", err)
	}
	return n > 0, nil
}

// ListFollowers returns the users following userID.
func (f *FollowDB) ListFollowers(ctx context.Context, userID string) ([]model.User, error) {
	return f.queryUsers(ctx,
		`SELECT u.id, u.username, u.name, u.email, u.password_hash, u.github_id,
		        u.avatar_url, u.created_at, u.updated_at
		 FROM users u
		 JOIN follows fo ON fo.follower_id = u.id
		 WHERE fo.following_id = ?
		 ORDER BY fo.created_at DESC`,
		userID)
}

// ListFollowing returns the users userID follows.
func (f *FollowDB) ListFollowing(ctx context.Context, userID string) ([]model.User, error) {
	return f.queryUsers(ctx,
		`SELECT u.id, u.username, u.name, u.email, u.password_hash, u.github_id,
		        u.avatar_url, u.created_at, u.updated_at
		 FROM users u
		 JOIN follows fo ON fo.following_id = u.id
		 WHERE fo.follower_id = ?
		 ORDER BY fo.created_at DESC`,
		userID)
}

// FollowingIDs returns just the followed IDs, for timeline assembly.
func (f *FollowDB) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := f.db.conn.QueryContext(ctx,
		`SELECT following_id FROM follows WHERE follower_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing following ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning following id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating following ids: %w", err)
	}

	return ids, nil
}

func (f *FollowDB) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := f.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing follow users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning follow user row: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating follow users: %w", err)
	}

	return users, nil
}
