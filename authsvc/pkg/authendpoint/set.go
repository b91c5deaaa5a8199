package authendpoint

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
)

type Set struct {
	RegisterEndpoint endpoint.Endpoint
	LoginEndpoint    endpoint.Endpoint
}

func New(svc authservice.Service, logger log.Logger) Set {
	var registerEndpoint endpoint.Endpoint
	{
		registerEndpoint = MakeRegisterEndpoint(svc)
		registerEndpoint = LoggingMiddleware(log.With(logger, "method", "Register"))(registerEndpoint)
	}

	var loginEndpoint endpoint.Endpoint
	{
		loginEndpoint = MakeLoginEndpoint(svc)
		loginEndpoint = LoggingMiddleware(log.With(logger, "method", "Login"))(loginEndpoint)
	}

	return Set{
		RegisterEndpoint: registerEndpoint,
		LoginEndpoint:    loginEndpoint,
	}
}

func (s Set) Register(ctx context.Context, name, email, password string) (string, error) {
	response, err := s.RegisterEndpoint(ctx, RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return "", err
	}

	resp := response.(RegisterResponse)
	return resp.Token, resp.Err
}

func (s Set) Login(ctx context.Context, email, password string) (string, error) {
	response, err := s.LoginEndpoint(ctx, LoginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	resp := response.(LoginResponse)
	return resp.AccessToken, resp.Err
}

func MakeRegisterEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(RegisterRequest)
		t, err := s.Register(ctx, req.Name, req.Email, req.Password)

		return RegisterResponse{Token: t, Err: err}, nil
	}
}

func MakeLoginEndpoint(s authservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(LoginRequest)
		t, err := s.Login(ctx, req.Email, req.Password)

		return LoginResponse{AccessToken: t, Err: err}, nil
	}
}

var (
	_ endpoint.Failer = RegisterResponse{}
	_ endpoint.Failer = LoginResponse{}
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Token string `json:"token"`
	Err   error  `json:"-"`
}

func (r RegisterResponse) Failed() error { return r.Err }

func (r RegisterResponse) StatusCode() int { return http.StatusCreated }

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Err         error  `json:"-"`
}

func (r LoginResponse) Failed() error { return r.Err }
