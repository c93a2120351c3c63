package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost 12 keeps hashing slow enough to blunt offline guessing without
// making interactive login sluggish.
const hashCost = 12

const (
	minPasswordLength = 10
	maxPasswordLength = 72 // bcrypt ignores input beyond 72 bytes
)

// ValidatePassword enforces the account password policy.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}
	return nil
}

// HashPassword derives a bcrypt hash suitable for storage.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword reports whether a plain text password matches a stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
