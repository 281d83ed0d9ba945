package auth

import (
	"strings"
	"testing"
)

// All tests use bcrypt cost 4 (the minimum) — the logic is identical at
// every cost, and cost 12 would make this file take seconds.

func TestHashAndVerify(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	hash, err := ps.Hash("password1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// The stored value must never be the plaintext.
	if hash == "password1" {
		t.Fatal("Hash() returned the plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Errorf("Hash() = %q, want bcrypt format ($2...)", hash)
	}

	if err := ps.Verify(hash, "password1"); err != nil {
		t.Errorf("Verify() with correct password error = %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	hash, err := ps.Hash("password1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if err := ps.Verify(hash, "password2"); err == nil {
		t.Error("Verify() accepted a wrong password")
	}
}

func TestHash_SaltsDiffer(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	h1, err := ps.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := ps.Hash("same password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	// Random salt → two hashes of the same password must differ.
	if h1 == h2 {
		t.Error("two hashes of the same password are identical — salt missing?")
	}
}

func TestHash_TooLong(t *testing.T) {
	ps := NewPasswordServiceForTest(4)

	if _, err := ps.Hash(strings.Repeat("x", 73)); err == nil {
		t.Error("Hash() accepted a password longer than 72 bytes")
	}
}
