package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
//
// In-memory implementations of the repository interfaces. Fakes (not a
// mock framework) keep the tests dependency-free and easy to read — you
// can see exactly what each fake does. The fakes honor the interface
// contracts: NotFound sentinel on absence, idempotent deletes, duplicate
// likes returning the existing row.
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeUserRepo is an in-memory repository.UserRepository.
type fakeUserRepo struct {
	users  map[string]*model.User // keyed by internal ID
	nextID int
	// set to a non-nil error to simulate a database failure
	createErr  error
	getByIDErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", "username")
		}
		if u.Email == user.Email {
			return apperror.Conflict("user", "email")
		}
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) UpsertGitHub(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.GitHubID != 0 && u.GitHubID == user.GitHubID {
			u.Name = user.Name
			u.AvatarURL = user.AvatarURL
			*user = *u
			return nil
		}
	}
	return f.Create(ctx, user)
}

// fakeTweetRepo is an in-memory repository.TweetRepository. Listings come
// back newest first, like the real store.
type fakeTweetRepo struct {
	tweets []model.Tweet
	nextID int
}

func newFakeTweetRepo() *fakeTweetRepo {
	return &fakeTweetRepo{nextID: 1}
}

func (f *fakeTweetRepo) Create(ctx context.Context, tweet *model.Tweet) error {
	tweet.ID = fmt.Sprintf("tweet-%d", f.nextID)
	f.nextID++
	if tweet.CreatedAt.IsZero() {
		tweet.CreatedAt = time.Now().UTC()
	}
	tweet.UpdatedAt = tweet.CreatedAt
	f.tweets = append(f.tweets, *tweet)
	return nil
}

func (f *fakeTweetRepo) GetByID(ctx context.Context, id string) (*model.Tweet, error) {
	for i := range f.tweets {
		if f.tweets[i].ID == id {
			t := f.tweets[i]
			return &t, nil
		}
	}
	return nil, apperror.NotFound("tweet", id)
}

func (f *fakeTweetRepo) List(ctx context.Context) ([]model.Tweet, error) {
	return f.newestFirst(func(model.Tweet) bool { return true }), nil
}

func (f *fakeTweetRepo) ListByUser(ctx context.Context, userID string) ([]model.Tweet, error) {
	return f.newestFirst(func(t model.Tweet) bool { return t.UserID == userID }), nil
}

func (f *fakeTweetRepo) ListByUsers(ctx context.Context, userIDs []string) ([]model.Tweet, error) {
	want := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	return f.newestFirst(func(t model.Tweet) bool { return want[t.UserID] }), nil
}

func (f *fakeTweetRepo) ListSince(ctx context.Context, cutoff time.Time) ([]model.Tweet, error) {
	return f.newestFirst(func(t model.Tweet) bool { return !t.CreatedAt.Before(cutoff) }), nil
}

func (f *fakeTweetRepo) Delete(ctx context.Context, id string) error {
	for i := range f.tweets {
		if f.tweets[i].ID == id {
			f.tweets = append(f.tweets[:i], f.tweets[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("tweet", id)
}

func (f *fakeTweetRepo) newestFirst(keep func(model.Tweet) bool) []model.Tweet {
	var out []model.Tweet
	// Insertion order is oldest first; walk backwards.
	for i := len(f.tweets) - 1; i >= 0; i-- {
		if keep(f.tweets[i]) {
			out = append(out, f.tweets[i])
		}
	}
	return out
}

// fakeLikeRepo is an in-memory repository.LikeRepository. It is
// mutex-guarded so the concurrent toggle tests can hammer it.
type fakeLikeRepo struct {
	mu     sync.Mutex
	likes  []model.Like
	nextID int
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{nextID: 1}
}

func (f *fakeLikeRepo) Create(ctx context.Context, like *model.Like) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.likes {
		if f.likes[i].UserID == like.UserID && f.likes[i].TweetID == like.TweetID {
			*like = f.likes[i]
			return nil
		}
	}
	like.ID = fmt.Sprintf("like-%d", f.nextID)
	f.nextID++
	like.CreatedAt = time.Now().UTC()
	f.likes = append(f.likes, *like)
	return nil
}

func (f *fakeLikeRepo) Delete(ctx context.Context, userID, tweetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.likes {
		if f.likes[i].UserID == userID && f.likes[i].TweetID == tweetID {
			f.likes = append(f.likes[:i], f.likes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeLikeRepo) Exists(ctx context.Context, userID, tweetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.likes {
		if f.likes[i].UserID == userID && f.likes[i].TweetID == tweetID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLikeRepo) CountByTweet(ctx context.Context, tweetID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for i := range f.likes {
		if f.likes[i].TweetID == tweetID {
			n++
		}
	}
	return n, nil
}

func (f *fakeLikeRepo) ListByTweet(ctx context.Context, tweetID string) ([]model.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Like
	for i := range f.likes {
		if f.likes[i].TweetID == tweetID {
			out = append(out, f.likes[i])
		}
	}
	return out, nil
}

func (f *fakeLikeRepo) ListByUser(ctx context.Context, userID string) ([]model.Like, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Like
	for i := range f.likes {
		if f.likes[i].UserID == userID {
			out = append(out, f.likes[i])
		}
	}
	return out, nil
}

// fakeReplyRepo is an in-memory repository.ReplyRepository. Listings come
// back oldest first, like the real store.
type fakeReplyRepo struct {
	replies []model.Reply
	nextID  int
}

func newFakeReplyRepo() *fakeReplyRepo {
	return &fakeReplyRepo{nextID: 1}
}

func (f *fakeReplyRepo) Create(ctx context.Context, reply *model.Reply) error {
	reply.ID = fmt.Sprintf("reply-%d", f.nextID)
	f.nextID++
	reply.CreatedAt = time.Now().UTC()
	reply.UpdatedAt = reply.CreatedAt
	f.replies = append(f.replies, *reply)
	return nil
}

func (f *fakeReplyRepo) ListByTweet(ctx context.Context, tweetID string) ([]model.Reply, error) {
	var out []model.Reply
	for i := range f.replies {
		if f.replies[i].TweetID == tweetID {
			out = append(out, f.replies[i])
		}
	}
	return out, nil
}

// fakeFollowRepo is an in-memory repository.FollowRepository.
type fakeFollowRepo struct {
	edges map[[2]string]bool // [follower, following]
	users *fakeUserRepo      // for profile lookups in the List methods
}

func newFakeFollowRepo(users *fakeUserRepo) *fakeFollowRepo {
	return &fakeFollowRepo{edges: make(map[[2]string]bool), users: users}
}

func (f *fakeFollowRepo) Create(ctx context.Context, follow *model.Follow) error {
	f.edges[[2]string{follow.FollowerID, follow.FollowingID}] = true
	return nil
}

func (f *fakeFollowRepo) Delete(ctx context.Context, followerID, followingID string) error {
	delete(f.edges, [2]string{followerID, followingID})
	return nil
}

func (f *fakeFollowRepo) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	return f.edges[[2]string{followerID, followingID}], nil
}

func (f *fakeFollowRepo) ListFollowers(ctx context.Context, userID string) ([]model.User, error) {
	var out []model.User
	for edge := range f.edges {
		if edge[1] == userID {
			if u, ok := f.users.users[edge[0]]; ok {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (f *fakeFollowRepo) ListFollowing(ctx context.Context, userID string) ([]model.User, error) {
	var out []model.User
	for edge := range f.edges {
		if edge[0] == userID {
			if u, ok := f.users.users[edge[1]]; ok {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (f *fakeFollowRepo) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var out []string
	for edge := range f.edges {
		if edge[0] == userID {
			out = append(out, edge[1])
		}
	}
	return out, nil
}

// addUser registers a user directly in the fake, bypassing validation.
func addUser(t *testing.T, repo *fakeUserRepo, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username: username,
		Name:     username,
		Email:    username + "@example.com",
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("adding user %s: %v", username, err)
	}
	return u
}

// newTestTokenService returns a TokenService with a test-only secret.
func newTestTokenService(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}
