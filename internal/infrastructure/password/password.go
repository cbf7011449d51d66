// Package password stores resource owner passwords as bcrypt hashes.
package password

import (
	"errors"

	"github.com/manorfm/cpa-auth/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor for new hashes
const Cost = bcrypt.DefaultCost

// maxLength is the longest input bcrypt takes into account
const maxLength = 72

var ErrTooLong = errors.New("password exceeds 72 bytes")

func HashPassword(plain string) (string, error) {
	if len(plain) > maxLength {
		return "", ErrTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports a mismatch as domain.ErrInvalidCredentials.
func CheckPassword(plain, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrInvalidCredentials
	}
	return err
}
