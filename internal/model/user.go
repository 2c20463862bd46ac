// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// PasswordHash is the bcrypt hash of the user's password — never the
// plaintext, and never serialized: the `json:"-"` tag makes encoding/json
// skip the field entirely, so no handler can leak it by accident.
//
// GitHubID is non-zero only for accounts created through the optional
// GitHub sign-in. We still generate our own internal string ID (xid) so
// primary keys aren't tied to a third party's numbering scheme.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"` // unique, [A-Za-z0-9_]+
	Name         string    `json:"name"      db:"name"`     // display name
	Email        string    `json:"email"     db:"email"`    // unique
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"-"         db:"github_id"`
	AvatarURL    string    `json:"avatarUrl" db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicUser is the subset of User safe to embed in other payloads
// (tweet authors, follower lists). It mirrors what the frontend selects.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Public returns the shareable view of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
	}
}
