package userservice

import (
	"context"
	"errors"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/usersvc"
	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Register(ctx context.Context, name, email, password string) (uint64, error)
	Verify(ctx context.Context, email, password string) (uint64, error)
}

func New(users usersvc.UserRepository, cost int, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(users, cost)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	users usersvc.UserRepository
	cost  int
	dummy []byte
}

// NewBasicService returns a Service storing bcrypt hashes of the given cost.
// A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewBasicService(users usersvc.UserRepository, cost int) Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Compared against when the email is unknown so both failure paths of
	// Verify pay for one bcrypt comparison.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("todokit-dummy-password"), cost)

	return basicService{users: users, cost: cost, dummy: dummy}
}

func (s basicService) Register(ctx context.Context, name, email, password string) (uint64, error) {
	if name == "" || email == "" || password == "" {
		return 0, usersvc.ErrInvalidArgument
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return 0, err
	}

	var user usersvc.User
	err = s.users.Transaction(ctx, func(r usersvc.UserRepository) error {
		_, err := r.FindByEmail(ctx, email)
		switch {
		case err == nil:
			return usersvc.ErrDuplicateEmail
		case !errors.Is(err, usersvc.ErrUserNotFound):
			return err
		}

		user, err = r.Create(ctx, usersvc.User{Name: name, Email: email, Password: string(hash)})
		return err
	})
	if err != nil {
		return 0, err
	}

	return user.ID, nil
}

func (s basicService) Verify(ctx context.Context, email, password string) (uint64, error) {
	if email == "" || password == "" {
		return 0, usersvc.ErrInvalidArgument
	}

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, usersvc.ErrUserNotFound) {
		bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		return 0, usersvc.ErrInvalidCredentials
	}
	if err != nil {
		return 0, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return 0, usersvc.ErrInvalidCredentials
	}

	return user.ID, nil
}
