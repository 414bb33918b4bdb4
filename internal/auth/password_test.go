package auth

import "testing"

func TestHashPassword_Deterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")
	a := HashPassword("hunter2", salt)
	b := HashPassword("hunter2", salt)
	if a != b {
		t.Error("same password and salt must hash identically")
	}
	if a == HashPassword("hunter3", salt) {
		t.Error("different passwords must hash differently")
	}
}

func TestHashPassword_SaltMatters(t *testing.T) {
	a := HashPassword("hunter2", []byte("0123456789abcdef"))
	b := HashPassword("hunter2", []byte("fedcba9876543210"))
	if a == b {
		t.Error("different salts must hash differently")
	}
}

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt: %v", err)
	}
	if len(a) != saltSize {
		t.Errorf("salt length = %d, want %d", len(a), saltSize)
	}
	b, _ := GenerateSalt()
	if string(a) == string(b) {
		t.Error("two salts should not collide")
	}
}

func TestVerifyPassword(t *testing.T) {
	salt := []byte("0123456789abcdef")
	digest := HashPassword("hunter2", salt)
	if !VerifyPassword("hunter2", salt, digest) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("hunter3", salt, digest) {
		t.Error("wrong password accepted")
	}
}
