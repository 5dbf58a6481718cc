package security

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const DefaultPasswordCost = 12

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

const (
	MinPasswordLength  = 8
	PasswordSymbols    = "!@#$%^&*()_+-=[]{}|;:,.<>?"
	msgPasswordLength  = "Password must be at least 8 characters long"
	msgPasswordUpper   = "Password must contain at least one uppercase letter"
	msgPasswordLower   = "Password must contain at least one lowercase letter"
	msgPasswordDigit   = "Password must contain at least one number"
	msgPasswordSymbol  = "Password must contain at least one special character (" + PasswordSymbols + ")"
	msgPasswordTooLong = "Password must be at most 72 bytes long"
)

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify fails closed: a malformed or empty digest never matches.
func (h *Hasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength reports the first violated rule, checked in the order
// length, uppercase, lowercase, digit, symbol.
func ValidatePasswordStrength(password string) (bool, string) {
	if len([]rune(password)) < MinPasswordLength {
		return false, msgPasswordLength
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(PasswordSymbols, r):
			symbol = true
		}
	}

	switch {
	case !upper:
		return false, msgPasswordUpper
	case !lower:
		return false, msgPasswordLower
	case !digit:
		return false, msgPasswordDigit
	case !symbol:
		return false, msgPasswordSymbol
	case len(password) > maxPasswordBytes:
		return false, msgPasswordTooLong
	}
	return true, ""
}
