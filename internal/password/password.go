package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const hashCost = 10

// Hash returns a bcrypt hash of the password.
func Hash(password string) (string, error) {
	sum, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(sum), nil
}

// Verify checks a password against its bcrypt hash.
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
