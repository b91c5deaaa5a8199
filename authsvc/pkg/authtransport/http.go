package authtransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/ichigozero/todokit/usersvc"
)

func NewHTTPHandler(endpoints authendpoint.Set, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	registerHandler := httptransport.NewServer(
		endpoints.RegisterEndpoint,
		decodeHTTPRegisterRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	loginHandler := httptransport.NewServer(
		endpoints.LoginEndpoint,
		decodeHTTPLoginRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	r := mux.NewRouter()

	r.Methods("POST").Path("/register").Handler(registerHandler)
	r.Methods("POST").Path("/login").Handler(loginHandler)

	return r
}

func NewHTTPClient(instance string, logger log.Logger) (authservice.Service, error) {
	// Quickly sanitize the instance string.
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return nil, err
	}

	var options []httptransport.ClientOption

	var registerEndpoint endpoint.Endpoint
	{
		registerEndpoint = httptransport.NewClient(
			"POST",
			copyURL(u, "/register"),
			encodeHTTPGenericRequest,
			decodeHTTPRegisterResponse,
			options...,
		).Endpoint()
	}

	var loginEndpoint endpoint.Endpoint
	{
		loginEndpoint = httptransport.NewClient(
			"POST",
			copyURL(u, "/login"),
			encodeHTTPGenericRequest,
			decodeHTTPLoginResponse,
			options...,
		).Endpoint()
	}

	return authendpoint.Set{
		RegisterEndpoint: registerEndpoint,
		LoginEndpoint:    loginEndpoint,
	}, nil
}

func copyURL(base *url.URL, path string) *url.URL {
	next := *base
	next.Path = path
	return &next
}

func errorEncoder(ctx context.Context, err error, w http.ResponseWriter) {
	code := err2code(err)
	if errors.Is(err, authsvc.ErrUnauthorized) {
		EncodeUnauthorized(ctx, w)
		return
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = errInternal.Error()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorWrapper{Error: msg})
}

func err2code(err error) int {
	switch {
	case errors.Is(err, usersvc.ErrInvalidArgument), errors.Is(err, usersvc.ErrDuplicateEmail):
		return http.StatusBadRequest
	case errors.Is(err, usersvc.ErrInvalidCredentials), errors.Is(err, authsvc.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

var errInternal = errors.New("an internal error occurred")

type errorWrapper struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func decodeHTTPRegisterRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, usersvc.ErrInvalidArgument
	}
	return req, nil
}

func decodeHTTPRegisterResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusCreated {
		return authendpoint.RegisterResponse{Err: decodeHTTPError(r)}, nil
	}
	var resp authendpoint.RegisterResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req authendpoint.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, usersvc.ErrInvalidArgument
	}
	return req, nil
}

func decodeHTTPLoginResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return authendpoint.LoginResponse{Err: decodeHTTPError(r)}, nil
	}
	var resp authendpoint.LoginResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPError(r *http.Response) error {
	var w errorWrapper
	if err := json.NewDecoder(r.Body).Decode(&w); err != nil {
		return errors.New(r.Status)
	}
	if w.Message != "" {
		return authsvc.ErrUnauthorized
	}
	return str2err(w.Error)
}

func str2err(s string) error {
	switch s {
	case usersvc.ErrInvalidArgument.Error():
		return usersvc.ErrInvalidArgument
	case usersvc.ErrDuplicateEmail.Error():
		return usersvc.ErrDuplicateEmail
	case usersvc.ErrInvalidCredentials.Error():
		return usersvc.ErrInvalidCredentials
	}

	return errors.New(s)
}

// encodeHTTPGenericRequest is a transport/http.EncodeRequestFunc that
// JSON-encodes any request to the request body. Primarily useful in a client.
func encodeHTTPGenericRequest(_ context.Context, r *http.Request, request interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.Body = io.NopCloser(&buf)
	return nil
}

// encodeHTTPGenericResponse is a transport/http.EncodeResponseFunc that encodes
// the response as JSON to the response writer. Primarily useful in a server.
func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if sc, ok := response.(httptransport.StatusCoder); ok {
		w.WriteHeader(sc.StatusCode())
	}
	return json.NewEncoder(w).Encode(response)
}
