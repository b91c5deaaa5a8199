package authservice

import (
	"context"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/usersvc/pkg/userendpoint"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) Register(ctx context.Context, name, email, password string) (token string, err error) {
	defer func() {
		mw.logger.Log("method", "Register", "issued", token != "", "err", err)
	}()
	return mw.next.Register(ctx, name, email, password)
}

func (mw loggingMiddleware) Login(ctx context.Context, email, password string) (token string, err error) {
	defer func() {
		mw.logger.Log("method", "Login", "issued", token != "", "err", err)
	}()
	return mw.next.Login(ctx, email, password)
}

// ProxingMiddleware resolves the user through the credential store
// endpoints before the token is issued.
func ProxingMiddleware(registerEndpoint, verifyEndpoint endpoint.Endpoint) Middleware {
	return func(next Service) Service {
		return proxingMiddleware{next, registerEndpoint, verifyEndpoint}
	}
}

type proxingMiddleware struct {
	next     Service
	register endpoint.Endpoint
	verify   endpoint.Endpoint
}

func (mw proxingMiddleware) Register(ctx context.Context, name, email, password string) (string, error) {
	response, err := mw.register(ctx, userendpoint.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return "", err
	}

	resp := response.(userendpoint.RegisterResponse)
	if resp.Err != nil {
		return "", resp.Err
	}

	ctx = context.WithValue(ctx, authsvc.UserIDContextKey, resp.ID)

	return mw.next.Register(ctx, name, email, password)
}

func (mw proxingMiddleware) Login(ctx context.Context, email, password string) (string, error) {
	response, err := mw.verify(ctx, userendpoint.VerifyRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	resp := response.(userendpoint.VerifyResponse)
	if resp.Err != nil {
		return "", resp.Err
	}

	ctx = context.WithValue(ctx, authsvc.UserIDContextKey, resp.ID)

	return mw.next.Login(ctx, email, password)
}
