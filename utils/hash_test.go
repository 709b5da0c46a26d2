package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", 4)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword("correct horse battery staple", hash) {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword("wrong password", hash) {
		t.Fatal("expected non-matching password to fail")
	}
}

func TestHashPasswordClampsCost(t *testing.T) {
	// An out-of-range cost falls back to the bcrypt default instead of failing
	hash, err := HashPassword("secret-password", 0)
	if err != nil {
		t.Fatalf("hash error with low cost: %v", err)
	}
	if !CheckPassword("secret-password", hash) {
		t.Fatal("expected password to verify against default-cost hash")
	}
}
