package model

import "time"

// Follow is a directed edge in the follow graph: FollowerID follows
// FollowingID. The pair is unique and self-follows are rejected before
// they ever reach storage (the table CHECK is the backstop).
type Follow struct {
	FollowerID  string    `json:"followerId"  db:"follower_id"`
	FollowingID string    `json:"followingId" db:"following_id"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
}
