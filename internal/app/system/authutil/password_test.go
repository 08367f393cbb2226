package authutil

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func init() {
	BcryptCost = bcrypt.MinCost
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"valid", "correct horse", nil},
		{"exactly min", "abcdefg1", nil},
		{"too short", "abc123", ErrPasswordTooShort},
		{"multibyte counts runes", "ééééééé", ErrPasswordTooShort},
		{"multibyte at min", "éééééééé", nil},
		{"at byte limit", strings.Repeat("a", MaxPasswordBytes), nil},
		{"over byte limit", strings.Repeat("a", MaxPasswordBytes+1), ErrPasswordTooLong},
		{"multibyte over byte limit", strings.Repeat("é", 37), ErrPasswordTooLong},
		{"whitespace", "          ", ErrPasswordBlank},
		{"common", "password123", ErrPasswordCommon},
		{"common any case", "PassWord1", ErrPasswordCommon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidatePassword(tt.password); !errors.Is(err, tt.want) {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, err, tt.want)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct horse" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("HashPassword() = %q, want a bcrypt hash", hash)
	}

	other, _ := HashPassword("correct horse")
	if other == hash {
		t.Error("HashPassword() reused a salt")
	}

	if !CheckPassword("correct horse", hash) {
		t.Error("CheckPassword() rejected the right password")
	}
	if CheckPassword("Correct horse", hash) {
		t.Error("CheckPassword() accepted a different password")
	}
	if CheckPassword("", hash) {
		t.Error("CheckPassword() accepted an empty password")
	}
	if CheckPassword("anything", "") {
		t.Error("CheckPassword() matched an empty hash")
	}
	if CheckPassword("anything", "not-a-hash") {
		t.Error("CheckPassword() matched a malformed hash")
	}
}

func TestCommonPasswordsMeetLength(t *testing.T) {
	for p := range commonPasswords {
		if len(p) < MinPasswordLength {
			t.Errorf("common password %q is shorter than the minimum and can never match", p)
		}
	}
}

func TestPasswordRules(t *testing.T) {
	if !strings.Contains(PasswordRules(), "8") {
		t.Errorf("PasswordRules() = %q, want the minimum length", PasswordRules())
	}
}
