package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// UserDB is the user-repository view of the store.
type UserDB struct {
	db *DB
}

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, username, name, email, password_hash, github_id, avatar_url, created_at, updated_at`

// scanUser reads one user row. github_id is nullable, so it goes through
// sql.NullInt64.
func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var githubID sql.NullInt64
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&githubID,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.GitHubID = githubID.Int64
	return &u, nil
}

// Create inserts a new user.
//
// Uniqueness of username and email is checked up front so the caller gets
// a precise Conflict error naming the colliding field; the UNIQUE
// constraints remain as the backstop against a race between the check and
// the insert.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	var githubID any
	if user.GitHubID != 0 {
		githubID = user.GitHubID
	}

	_, err := u.db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Name,
		user.Email,
		user.PasswordHash,
		githubID,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// Translate constraint failures into the caller-facing conflict.
		if isUniqueViolation(err, "users.username") {
			return apperror.Conflict("user", "username")
		}
		if isUniqueViolation(err, "users.email") {
			return apperror.Conflict("user", "email")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no such user exists.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := scanUser(u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email address.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := scanUser(u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username.
func (u *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := scanUser(u.db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username: %w", err)
	}
	return user, nil
}

// UpsertGitHub inserts or updates a user keyed on their GitHub ID.
//
// First sign-in → INSERT (internal ID generated here). Subsequent sign-ins
// → UPDATE of the mutable profile fields, keeping the existing internal ID
// so tweets and likes stay attached to the same account.
func (u *UserDB) UpsertGitHub(ctx context.Context, user *model.User) error {
	var existingID string
	err := u.db.conn.QueryRowContext(ctx,
		`SELECT id FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.UpdatedAt = time.Now().UTC()
		_, err = u.db.conn.ExecContext(ctx,
			`UPDATE users SET name = ?, avatar_url = ?, updated_at = ? WHERE id = ?`,
			user.Name,
			user.AvatarURL,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	return u.Create(ctx, user)
}
