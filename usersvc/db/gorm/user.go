package gorm

import (
	"context"
	"errors"

	"github.com/ichigozero/todokit/usersvc"
	libgorm "gorm.io/gorm"
)

type userRepository struct {
	db *libgorm.DB
}

func NewUserRepository(db *libgorm.DB) usersvc.UserRepository {
	return &userRepository{db}
}

func (u *userRepository) Create(ctx context.Context, user usersvc.User) (usersvc.User, error) {
	result := u.db.WithContext(ctx).Create(&user)
	if errors.Is(result.Error, libgorm.ErrDuplicatedKey) {
		return usersvc.User{}, usersvc.ErrDuplicateEmail
	}

	return user, result.Error
}

func (u *userRepository) FindByEmail(ctx context.Context, email string) (usersvc.User, error) {
	var user usersvc.User
	result := u.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if errors.Is(result.Error, libgorm.ErrRecordNotFound) {
		return usersvc.User{}, usersvc.ErrUserNotFound
	}

	return user, result.Error
}

func (u *userRepository) Transaction(ctx context.Context, fn func(usersvc.UserRepository) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *libgorm.DB) error {
		return fn(&userRepository{tx})
	})
}
