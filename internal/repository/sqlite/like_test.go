package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
)

func TestLikeCreate(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	tweet := createTestTweet(t, db, alice.ID, "hello")

	like := &model.Like{UserID: bob.ID, TweetID: tweet.ID}
	if err := db.Likes().Create(context.Background(), like); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if like.ID == "" {
		t.Error("Create() did not set like.ID")
	}

	count, err := db.Likes().CountByTweet(context.Background(), tweet.ID)
	if err != nil {
		t.Fatalf("CountByTweet() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountByTweet() = %d, want 1", count)
	}
}

func TestLikeCreate_DuplicateReturnsExisting(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	tweet := createTestTweet(t, db, alice.ID, "hello")

	first := &model.Like{UserID: alice.ID, TweetID: tweet.ID}
	if err := db.Likes().Create(context.Background(), first); err != nil {
		t.Fatalf("Create() first like: %v", err)
	}

	// Liking again is not an error — the existing record comes back.
	second := &model.Like{UserID: alice.ID, TweetID: tweet.ID}
	if err := db.Likes().Create(context.Background(), second); err != nil {
		t.Fatalf("Create() duplicate like: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate Create() ID = %q, want existing %q", second.ID, first.ID)
	}

	count, _ := db.Likes().CountByTweet(context.Background(), tweet.ID)
	if count != 1 {
		t.Errorf("CountByTweet() after duplicate = %d, want 1", count)
	}
}

func TestLikeCreate_UnknownTweet(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	like := &model.Like{UserID: alice.ID, TweetID: "no-such-tweet"}
	err := db.Likes().Create(context.Background(), like)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Create() with unknown tweet error = %v, want ErrNotFound", err)
	}
}

func TestLikeDelete_Idempotent(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	tweet := createTestTweet(t, db, alice.ID, "hello")

	like := &model.Like{UserID: alice.ID, TweetID: tweet.ID}
	if err := db.Likes().Create(context.Background(), like); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Delete twice in a row — the second call must not error.
	if err := db.Likes().Delete(context.Background(), alice.ID, tweet.ID); err != nil {
		t.Fatalf("Delete() first call: %v", err)
	}
	if err := db.Likes().Delete(context.Background(), alice.ID, tweet.ID); err != nil {
		t.Fatalf("Delete() second call should be a no-op, got: %v", err)
	}

	liked, err := db.Likes().Exists(context.Background(), alice.ID, tweet.ID)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if liked {
		t.Error("Exists() = true after delete, want false")
	}
}

func TestLikeExists(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	tweet := createTestTweet(t, db, alice.ID, "hello")

	liked, err := db.Likes().Exists(context.Background(), bob.ID, tweet.ID)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if liked {
		t.Error("Exists() = true before any like")
	}

	if err := db.Likes().Create(context.Background(), &model.Like{UserID: bob.ID, TweetID: tweet.ID}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	liked, err = db.Likes().Exists(context.Background(), bob.ID, tweet.ID)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !liked {
		t.Error("Exists() = false after like, want true")
	}
}

func TestLikeListByTweetAndUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	t1 := createTestTweet(t, db, alice.ID, "one")
	t2 := createTestTweet(t, db, alice.ID, "two")

	for _, pair := range []struct{ userID, tweetID string }{
		{bob.ID, t1.ID},
		{bob.ID, t2.ID},
		{alice.ID, t1.ID},
	} {
		if err := db.Likes().Create(context.Background(), &model.Like{UserID: pair.userID, TweetID: pair.tweetID}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	byTweet, err := db.Likes().ListByTweet(context.Background(), t1.ID)
	if err != nil {
		t.Fatalf("ListByTweet() error = %v", err)
	}
	if len(byTweet) != 2 {
		t.Errorf("ListByTweet() = %d likes, want 2", len(byTweet))
	}

	byUser, err := db.Likes().ListByUser(context.Background(), bob.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("ListByUser() = %d likes, want 2", len(byUser))
	}
}
