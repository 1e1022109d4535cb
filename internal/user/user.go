// Package user persists user credential records: a unique username plus
// a salted bcrypt password hash.
package user

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrExists   = errors.New("username already registered")
	ErrNotFound = errors.New("user not found")
)

// User is a stored credential record.
type User struct {
	Username     string `bson:"username"`
	PasswordHash string `bson:"password"`
}

// Store abstracts user credential persistence.
type Store interface {
	// Create registers a new user; ErrExists if the username is taken.
	Create(ctx context.Context, username, password string) error

	// Authenticate reports whether the username/password pair is valid.
	// An unknown username is a normal false result, not an error.
	Authenticate(ctx context.Context, username, password string) (bool, error)

	Close() error
}

// HashPassword returns the bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
