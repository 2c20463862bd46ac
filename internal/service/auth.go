// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take repository INTERFACES, not concrete SQLite types. Tests
// inject in-memory fakes; handlers never touch the database directly; the
// repositories never see HTTP. Each layer returns domain errors
// (apperror.*) and the handler alone translates them to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/auth"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// MinPasswordLength is the registration minimum.
const MinPasswordLength = 6

// usernamePattern is the allowed username alphabet: letters, digits, and
// underscore. Registered as the custom "username_charset" validator tag.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// AuthService handles registration, login, and session issuance.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	v := validator.New()
	// Built-in "alphanum" excludes underscore, so the username rule needs
	// its own tag.
	_ = v.RegisterValidation("username_charset", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		validate:  v,
		logger:    logger,
	}
}

// RegisterInput is the payload for Register. The validate tags carry the
// registration rules: RFC-shaped email, username restricted to
// alphanumerics and underscore, password at least 6 characters.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=30,username_charset"`
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResult bundles the user and the issued session token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account.
//
// Validation happens before any mutation is attempted (fail fast, no
// partial writes): field rules first, then the username/email uniqueness
// checks. The repository's UNIQUE constraints back the checks up, so a
// race between two identical registrations still produces exactly one
// account and one Conflict.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validate.Struct(in); err != nil {
		return nil, registerValidationError(err)
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperror.Conflict("user", "email")
	}
	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, apperror.Conflict("user", "username")
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:     in.Username,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies credentials and issues a session token.
//
// Unknown email and wrong password both come back as the same
// Unauthenticated error — the response must not reveal which half of the
// credential pair was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperror.Unauthenticated("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("login rejected", slog.String("email", email))
		return nil, apperror.Unauthenticated("invalid email or password")
	}

	token, err := s.tokens.Issue(auth.Session{UserID: user.ID, Username: user.Username})
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// LoginOrRegisterGitHub handles the GitHub OAuth callback: upsert the user
// keyed on their GitHub ID, then issue the same session token password
// logins get.
//
// First sign-in derives a username from the GitHub login; if that name is
// taken by a password account, a numeric suffix is appended until one is
// free.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}
	email := ghUser.Email
	if email == "" {
		// GitHub users may hide their email; synthesise a stable one so
		// the NOT NULL UNIQUE column holds.
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", ghUser.ID, ghUser.Login)
	}

	username, err := s.availableUsername(ctx, ghUser.Login)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:  username,
		Name:      name,
		Email:     strings.ToLower(email),
		GitHubID:  ghUser.ID,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	// The upsert may have found an existing account whose username
	// differs from the one we derived — reload so the token carries the
	// canonical identity.
	user, err = s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: reloading user %s: %w", user.ID, err)
	}

	token, err := s.tokens.Issue(auth.Session{UserID: user.ID, Username: user.Username})
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID. Used by /api/me
// after the middleware has validated the session.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

// availableUsername sanitises a GitHub login into the username alphabet
// and suffixes it until no existing account claims it.
func (s *AuthService) availableUsername(ctx context.Context, login string) (string, error) {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, login)
	if base == "" {
		base = "github_user"
	}

	candidate := base
	for i := 2; ; i++ {
		_, err := s.users.GetByUsername(ctx, candidate)
		if err != nil {
			// NotFound means the name is free; any other error means the
			// lookup itself failed.
			if errors.Is(err, apperror.ErrNotFound) {
				return candidate, nil
			}
			return "", err
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

// registerValidationError maps the first validator failure onto the
// apperror taxonomy with a field-specific message.
func registerValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.ValidationFailed("", "invalid registration payload")
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch field {
	case "username":
		if fe.Tag() == "username_charset" {
			return apperror.ValidationFailed("username", "username may only contain letters, digits, and underscores")
		}
		return apperror.ValidationFailed("username", "username is required and must be at most 30 characters")
	case "email":
		return apperror.ValidationFailed("email", "a valid email address is required")
	case "password":
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	case "name":
		return apperror.ValidationFailed("name", "name is required and must be at most 100 characters")
	}
	return apperror.ValidationFailed(field, "invalid value")
}
