// Package repository declares the storage contracts consumed by the service
// layer. Services depend on these interfaces, never on the concrete SQLite
// types — tests inject in-memory fakes, and the persistence technology can
// change without touching business logic.
package repository

import (
	"context"
	"time"

	"github.com/sakif/microblog/internal/model"
)

// UserRepository is the account store.
//
// The Get* methods return an apperror.NotFound error when no row matches —
// absence is an expected outcome, and callers check it with errors.Is.
type UserRepository interface {
	// Create inserts a new user. Fails with apperror.ErrConflict when the
	// username or email is already taken.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// UpsertGitHub inserts or updates a user keyed on their GitHub ID.
	// Used only by the optional GitHub sign-in flow.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

// TweetRepository is the tweet store. All listings are newest-first;
// ties on created_at break by insertion order (IDs are time-sortable).
type TweetRepository interface {
	Create(ctx context.Context, tweet *model.Tweet) error
	GetByID(ctx context.Context, id string) (*model.Tweet, error)
	List(ctx context.Context) ([]model.Tweet, error)
	ListByUser(ctx context.Context, userID string) ([]model.Tweet, error)
	// ListByUsers returns the tweets of all given authors, newest first.
	// Feeds the following timeline.
	ListByUsers(ctx context.Context, userIDs []string) ([]model.Tweet, error)
	// ListSince returns tweets created at or after the cutoff, newest first.
	// Feeds the recommended timeline.
	ListSince(ctx context.Context, cutoff time.Time) ([]model.Tweet, error)
	// Delete removes a tweet; likes and replies referencing it go with it
	// (foreign-key cascade).
	Delete(ctx context.Context, id string) error
}

// LikeRepository is the like store.
type LikeRepository interface {
	// Create inserts a like. If the (user, tweet) pair already exists the
	// existing like is returned unchanged — duplicates are not an error.
	Create(ctx context.Context, like *model.Like) error
	// Delete removes the like for (userID, tweetID). Idempotent: deleting
	// an absent like is not an error.
	Delete(ctx context.Context, userID, tweetID string) error
	Exists(ctx context.Context, userID, tweetID string) (bool, error)
	CountByTweet(ctx context.Context, tweetID string) (int, error)
	ListByTweet(ctx context.Context, tweetID string) ([]model.Like, error)
	ListByUser(ctx context.Context, userID string) ([]model.Like, error)
}

// ReplyRepository is the reply store. Listings are oldest-first.
type ReplyRepository interface {
	Create(ctx context.Context, reply *model.Reply) error
	ListByTweet(ctx context.Context, tweetID string) ([]model.Reply, error)
}

// FollowRepository is the follow-graph store.
type FollowRepository interface {
	// Create inserts a follow edge. Inserting an existing edge is a no-op.
	Create(ctx context.Context, follow *model.Follow) error
	// Delete removes an edge. Idempotent.
	Delete(ctx context.Context, followerID, followingID string) error
	Exists(ctx context.Context, followerID, followingID string) (bool, error)
	ListFollowers(ctx context.Context, userID string) ([]model.User, error)
	ListFollowing(ctx context.Context, userID string) ([]model.User, error)
	// FollowingIDs returns just the IDs the user follows — enough for
	// timeline assembly without loading full profiles.
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}
