package security

import (
	"context"
	"errors"
	"fmt"

	"filedrop/internal/db"
	"filedrop/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUsername  = db.ErrDuplicateUsername
)

// UserRepository is the persistence the credential store needs. *db.DB implements it.
type UserRepository interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

type Credentials struct {
	users UserRepository
}

func NewCredentials(users UserRepository) *Credentials {
	return &Credentials{users: users}
}

// Register stores a new user with a bcrypt hash of password. A taken username yields
// ErrDuplicateUsername.
func (c *Credentials) Register(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return c.users.CreateUser(ctx, username, hash)
}

// Authenticate returns the user when password matches. Unknown users and wrong
// passwords both yield ErrInvalidCredentials.
func (c *Credentials) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := c.users.GetUserByUsername(ctx, username)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := ComparePasswords(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
