package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// Tests use bcrypt.MinCost (4) — the logic is identical at every cost, and
// cost 12 would add ~250ms per hash to the suite.
func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

func TestHashAndVerify(t *testing.T) {
	ps := newTestPasswordService()

	hash, err := ps.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "secret1" {
		t.Fatal("Hash() returned the plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("hash %q does not look like bcrypt output", hash)
	}

	if err := ps.Verify(hash, "secret1"); err != nil {
		t.Errorf("Verify() with correct password: %v", err)
	}
	if err := ps.Verify(hash, "wrong-password"); err == nil {
		t.Error("Verify() accepted the wrong password")
	}
}

func TestHash_SaltedOutput(t *testing.T) {
	ps := newTestPasswordService()

	// Same input, different salt, different hash — both must verify.
	h1, err := ps.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := ps.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical — salting is broken")
	}
	if err := ps.Verify(h2, "secret1"); err != nil {
		t.Errorf("Verify() second hash: %v", err)
	}
}

func TestHash_TooLong(t *testing.T) {
	ps := newTestPasswordService()

	if _, err := ps.Hash(strings.Repeat("x", 73)); err == nil {
		t.Fatal("Hash() should reject passwords over 72 bytes")
	}
}

func TestDefaultCost(t *testing.T) {
	// bcrypt cost should stay in the 10-12 range: lower is too cheap to
	// brute-force, higher makes login noticeably slow.
	if defaultCost < 10 || defaultCost > 12 {
		t.Errorf("defaultCost = %d, want between 10 and 12", defaultCost)
	}
}
