package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewBcryptHasher_DefaultCostWhenNonPositive(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(0)
	if h.cost != bcrypt.DefaultCost {
		t.Fatalf("expected cost=%d, got %d", bcrypt.DefaultCost, h.cost)
	}
}

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4) // lower cost for test speed
	pw := "P@ssw0rd123!"

	hash, err := h.Hash(pw)
	if err != nil {
		t.Fatalf("hash err: %v", err)
	}
	if hash == "" || hash == pw {
		t.Fatalf("hash should be non-empty and differ from plaintext")
	}
	if !h.Verify(pw, hash) {
		t.Fatalf("verify should succeed")
	}
	if h.Verify("wrong-password", hash) {
		t.Fatalf("verify should fail for wrong password")
	}
}

func TestBcryptHasher_SaltedHashesDiffer(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(4)
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatalf("two hashes of the same password should differ")
	}
}

func TestBcryptHasher_Verify_MalformedHash(t *testing.T) {
	t.Parallel()

	if NewBcryptHasher(4).Verify("pw", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash must not verify")
	}
}

func TestBcryptHasher_Hash_Errors(t *testing.T) {
	t.Parallel()

	// cost above bcrypt.MaxCost is rejected
	if _, err := NewBcryptHasher(100).Hash("pw"); err == nil {
		t.Fatalf("expected error for invalid cost")
	}
	// bcrypt refuses inputs longer than 72 bytes
	if _, err := NewBcryptHasher(4).Hash(strings.Repeat("x", 73)); err == nil {
		t.Fatalf("expected error for over-long password")
	}
}
