package model

import "time"

// Reply is a comment attached to a tweet. Replies are listed oldest-first
// (conversation order) — the opposite of tweets.
type Reply struct {
	ID        string    `json:"id"        db:"id"`
	Content   string    `json:"content"   db:"content"`
	TweetID   string    `json:"tweetId"   db:"tweet_id"`
	UserID    string    `json:"userId"    db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
