// internal/app/system/authutil/password.go

// Package authutil hashes and checks passwords and opaque tokens.
package authutil

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is counted in runes.
const MinPasswordLength = 8

// MaxPasswordBytes is bcrypt's input limit.
const MaxPasswordBytes = 72

// BcryptCost is the work factor for new hashes. Tests lower it.
var BcryptCost = 10

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrPasswordBlank    = errors.New("password cannot be only whitespace")
	ErrPasswordCommon   = errors.New("password is too common; choose another")
)

// commonPasswords blocks the most guessed passwords of at least
// MinPasswordLength characters.
var commonPasswords = map[string]struct{}{
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"password":    {},
	"password1":   {},
	"password123": {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"11111111":    {},
	"00000000":    {},
	"iloveyou":    {},
	"sunshine":    {},
	"football":    {},
	"baseball":    {},
	"princess":    {},
	"letmein1":    {},
	"welcome1":    {},
	"abcd1234":    {},
	"passw0rd":    {},
	"trustno1":    {},
}

// PasswordRules describes the policy for clients to show next to a
// password field.
func PasswordRules() string {
	return "Use 8 or more characters (at most 72 bytes). Very common passwords are rejected."
}

// ValidatePassword reports why password breaks the policy, or nil.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	if strings.TrimFunc(password, unicode.IsSpace) == "" {
		return ErrPasswordBlank
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a validated password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash. An empty hash, as
// stored for third-party accounts, never matches.
func CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
