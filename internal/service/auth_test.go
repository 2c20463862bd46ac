package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/auth"
)

// newTestAuthService returns an AuthService wired with fake dependencies.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) *AuthService {
	t.Helper()
	// Cost 4 is bcrypt minimum — makes tests fast
	ps := auth.NewPasswordServiceForTest(4)
	return NewAuthService(repo, newTestTokenService(t), ps, testLogger())
}

// =========================================================================
// Register TESTS
// =========================================================================

func TestRegister_Success(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Name:     "Alice",
		Email:    "Alice@Example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Register() did not assign an ID")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lowercased %q", user.Email, "alice@example.com")
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret1" {
		t.Error("Register() must store a hash, not the plaintext")
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{
			name:  "empty username",
			in:    RegisterInput{Name: "A", Email: "a@b.com", Password: "secret1"},
			field: "username",
		},
		{
			name:  "username with spaces",
			in:    RegisterInput{Username: "bad name", Name: "A", Email: "a@b.com", Password: "secret1"},
			field: "username",
		},
		{
			name:  "username with punctuation",
			in:    RegisterInput{Username: "bad!name", Name: "A", Email: "a@b.com", Password: "secret1"},
			field: "username",
		},
		{
			name:  "malformed email",
			in:    RegisterInput{Username: "alice", Name: "A", Email: "not-an-email", Password: "secret1"},
			field: "email",
		},
		{
			name:  "password too short",
			in:    RegisterInput{Username: "alice", Name: "A", Email: "a@b.com", Password: "12345"},
			field: "password",
		},
		{
			name:  "missing name",
			in:    RegisterInput{Username: "alice", Email: "a@b.com", Password: "secret1"},
			field: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAuthService(t, newFakeUserRepo())

			_, err := svc.Register(context.Background(), tt.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Register() error = %v, want ErrValidation", err)
			}

			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.field)
			}
		})
	}
}

func TestRegister_UnderscoreUsernameAllowed(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice_01",
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register() with underscore username error = %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	first := RegisterInput{Username: "alice", Name: "Alice", Email: "alice@example.com", Password: "secret1"}
	if _, err := svc.Register(context.Background(), first); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	second := RegisterInput{Username: "alice2", Name: "Alice", Email: "alice@example.com", Password: "secret1"}
	_, err := svc.Register(context.Background(), second)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate email Register() error = %v, want ErrConflict", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	first := RegisterInput{Username: "alice", Name: "Alice", Email: "alice@example.com", Password: "secret1"}
	if _, err := svc.Register(context.Background(), first); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	second := RegisterInput{Username: "alice", Name: "Other", Email: "other@example.com", Password: "secret1"}
	_, err := svc.Register(context.Background(), second)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("duplicate username Register() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// Login TESTS
// =========================================================================

func TestLogin_Scenario(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	// Correct credentials succeed and carry a token.
	result, err := svc.Login(context.Background(), "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() returned empty token")
	}
	if result.User.Username != "alice" {
		t.Errorf("Username = %q, want %q", result.User.Username, "alice")
	}

	// Wrong password is rejected as Unauthenticated, not Validation.
	_, err = svc.Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("wrong password Login() error = %v, want ErrUnauthenticated", err)
	}

	// Unknown email gets the same answer as a wrong password.
	_, err = svc.Login(context.Background(), "nobody@example.com", "secret1")
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("unknown email Login() error = %v, want ErrUnauthenticated", err)
	}
}

func TestLogin_EmptyCredentials(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo())

	_, err := svc.Login(context.Background(), "", "")
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("Login() error = %v, want ErrUnauthenticated", err)
	}
}

// =========================================================================
// LoginOrRegisterGitHub TESTS
// =========================================================================

func TestLoginOrRegisterGitHub_NewUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID:    42,
		Login: "octocat",
		Email: "octocat@github.com",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if result.User.Username != "octocat" {
		t.Errorf("Username = %q, want %q", result.User.Username, "octocat")
	}
	if result.Token == "" {
		t.Error("LoginOrRegisterGitHub() returned empty token")
	}
}

func TestLoginOrRegisterGitHub_UsernameTaken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	addUser(t, repo, "octocat")

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{
		ID:    42,
		Login: "octocat",
		Email: "octocat@github.com",
	})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if result.User.Username != "octocat2" {
		t.Errorf("Username = %q, want suffixed %q", result.User.Username, "octocat2")
	}
}

func TestLoginOrRegisterGitHub_ReturningUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo)

	gh := &auth.GitHubUser{ID: 42, Login: "octocat", Email: "octocat@github.com"}
	first, err := svc.LoginOrRegisterGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("first LoginOrRegisterGitHub() error = %v", err)
	}

	second, err := svc.LoginOrRegisterGitHub(context.Background(), gh)
	if err != nil {
		t.Fatalf("second LoginOrRegisterGitHub() error = %v", err)
	}
	if second.User.ID != first.User.ID {
		t.Errorf("returning user got new ID %q, want %q", second.User.ID, first.User.ID)
	}
}
