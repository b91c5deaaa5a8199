package usersvc

import (
	"context"
	"errors"
)

type User struct {
	ID       uint64 `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	Email    string `gorm:"uniqueIndex:idx_users_email;not null"`
	Password string `gorm:"not null" json:"-"`
}

// UserRepository persists users. FindByEmail returns ErrUserNotFound when
// no user has the given email.
type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Transaction(ctx context.Context, fn func(UserRepository) error) error
}

var (
	ErrInvalidArgument    = errors.New("missing required fields")
	ErrDuplicateEmail     = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)
