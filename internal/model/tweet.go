package model

import "time"

// MaxTweetLength is the hard cap on tweet content, counted in runes so
// multi-byte characters aren't penalised.
const MaxTweetLength = 280

// Tweet is a short user-authored post.
type Tweet struct {
	ID        string    `json:"id"        db:"id"`
	Content   string    `json:"content"   db:"content"` // 1–280 characters
	UserID    string    `json:"userId"    db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// FeedItem is a tweet as the feed shows it: the record itself plus the
// author and the viewer-dependent like state. Assembled by the service
// layer, never stored.
type FeedItem struct {
	Tweet
	User       PublicUser `json:"user"`
	LikesCount int        `json:"likesCount"`
	IsLiked    bool       `json:"isLiked"`
}
