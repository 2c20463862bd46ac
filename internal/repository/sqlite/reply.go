package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// ReplyDB is the reply-repository view of the store.
type ReplyDB struct {
	db *DB
}

var _ repository.ReplyRepository = (*ReplyDB)(nil)

// Create inserts a new reply. The tweet must exist (foreign key).
func (r *ReplyDB) Create(ctx context.Context, reply *model.Reply) error {
	reply.ID = xid.New().String()
	now := time.Now().UTC()
	reply.CreatedAt = now
	reply.UpdatedAt = now

	_, err := r.db.conn.ExecContext(ctx,
		`INSERT INTO replies (id, content, tweet_id, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		reply.ID,
		reply.Content,
		reply.TweetID,
		reply.UserID,
		reply.CreatedAt,
		reply.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "foreign key constraint failed") {
			return apperror.NotFound("tweet", reply.TweetID)
		}
		return fmt.Errorf("sqlite: inserting reply: %w", err)
	}

	return nil
}

// ListByTweet returns a tweet's replies oldest-first — conversation order,
// the opposite of the tweet listings. The `id ASC` tie-break keeps
// same-timestamp replies in insertion order.
func (r *ReplyDB) ListByTweet(ctx context.Context, tweetID string) ([]model.Reply, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, content, tweet_id, user_id, created_at, updated_at
		 FROM replies WHERE tweet_id = ?
		 ORDER BY created_at ASC, id ASC`,
		tweetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing replies for tweet %s: %w", tweetID, err)
	}
	defer rows.Close()

	replies := []model.Reply{}
	for rows.Next() {
		var rep model.Reply
		if err := rows.Scan(&rep.ID, &rep.Content, &rep.TweetID, &rep.UserID,
			&rep.CreatedAt, &rep.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning reply row: %w", err)
		}
		replies = append(replies, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating replies: %w", err)
	}

	return replies, nil
}
