package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when no usable hash exists so that unknown
// accounts take as long to reject as wrong passwords.
var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether plaintext matches storedHash. An empty or
// corrupt hash never matches.
func CheckPassword(plaintext, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}

func burnCompare(plaintext string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("garage-desk-timing"), passwordHashCost())
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plaintext))
}
