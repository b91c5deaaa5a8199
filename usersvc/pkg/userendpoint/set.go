package userendpoint

import (
	"context"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/usersvc/pkg/userservice"
)

type Set struct {
	RegisterEndpoint endpoint.Endpoint
	VerifyEndpoint   endpoint.Endpoint
}

func New(svc userservice.Service, logger log.Logger) Set {
	var registerEndpoint endpoint.Endpoint
	{
		registerEndpoint = MakeRegisterEndpoint(svc)
		registerEndpoint = LoggingMiddleware(log.With(logger, "method", "Register"))(registerEndpoint)
	}

	var verifyEndpoint endpoint.Endpoint
	{
		verifyEndpoint = MakeVerifyEndpoint(svc)
		verifyEndpoint = LoggingMiddleware(log.With(logger, "method", "Verify"))(verifyEndpoint)
	}

	return Set{
		RegisterEndpoint: registerEndpoint,
		VerifyEndpoint:   verifyEndpoint,
	}
}

func (s Set) Register(ctx context.Context, name, email, password string) (uint64, error) {
	resp, err := s.RegisterEndpoint(ctx, RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return 0, err
	}
	response := resp.(RegisterResponse)
	return response.ID, response.Err
}

func (s Set) Verify(ctx context.Context, email, password string) (uint64, error) {
	resp, err := s.VerifyEndpoint(ctx, VerifyRequest{Email: email, Password: password})
	if err != nil {
		return 0, err
	}
	response := resp.(VerifyResponse)
	return response.ID, response.Err
}

func MakeRegisterEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(RegisterRequest)
		id, err := s.Register(ctx, req.Name, req.Email, req.Password)
		return RegisterResponse{ID: id, Err: err}, nil
	}
}

func MakeVerifyEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(VerifyRequest)
		id, err := s.Verify(ctx, req.Email, req.Password)
		return VerifyResponse{ID: id, Err: err}, nil
	}
}

var (
	_ endpoint.Failer = RegisterResponse{}
	_ endpoint.Failer = VerifyResponse{}
)

type RegisterRequest struct {
	Name, Email, Password string
}

type RegisterResponse struct {
	ID  uint64 `json:"id"`
	Err error  `json:"-"`
}

func (r RegisterResponse) Failed() error { return r.Err }

type VerifyRequest struct {
	Email, Password string
}

type VerifyResponse struct {
	ID  uint64 `json:"id"`
	Err error  `json:"-"`
}

func (r VerifyResponse) Failed() error { return r.Err }
