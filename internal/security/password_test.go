package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if strings.Contains(hash, "pw1") {
		t.Fatal("hash contains the plaintext")
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatal(err)
	}
	if cost != PasswordCost {
		t.Fatalf("cost = %d, want %d", cost, PasswordCost)
	}

	again, _ := HashPassword("pw1")
	if again == hash {
		t.Fatal("expected a fresh salt per hash")
	}
}

func TestComparePasswords(t *testing.T) {
	hash, _ := HashPassword("secret")

	ok, err := ComparePasswords(hash, "secret")
	if err != nil || !ok {
		t.Fatalf("matching password: ok=%v err=%v", ok, err)
	}

	ok, err = ComparePasswords(hash, "Secret")
	if err != nil || ok {
		t.Fatalf("wrong password: ok=%v err=%v", ok, err)
	}

	if _, err := ComparePasswords("not-a-hash", "secret"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
