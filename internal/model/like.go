package model

import "time"

// Like is a user's endorsement of a single tweet. The pair
// (UserID, TweetID) is unique — enforced by the database — so a user can
// like a given tweet at most once. Likes are immutable once created.
type Like struct {
	ID        string    `json:"id"        db:"id"`
	TweetID   string    `json:"tweetId"   db:"tweet_id"`
	UserID    string    `json:"userId"    db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
