package todotransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/transport"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/ichigozero/todokit/authsvc/pkg/authtransport"
	"github.com/ichigozero/todokit/todosvc"
	"github.com/ichigozero/todokit/todosvc/pkg/todoendpoint"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// NewHTTPHandler mounts the todo routes behind the bearer authenticater.
func NewHTTPHandler(endpoints todoendpoint.Set, t authservice.Tokenizer, logger log.Logger) http.Handler {
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(errorEncoder),
		httptransport.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
	}

	createTodoHandler := httptransport.NewServer(
		endpoints.CreateTodoEndpoint,
		decodeHTTPCreateTodoRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	todosHandler := httptransport.NewServer(
		endpoints.TodosEndpoint,
		decodeHTTPTodosRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	todoHandler := httptransport.NewServer(
		endpoints.TodoEndpoint,
		decodeHTTPTodoRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	updateTodoHandler := httptransport.NewServer(
		endpoints.UpdateTodoEndpoint,
		decodeHTTPUpdateTodoRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	deleteTodoHandler := httptransport.NewServer(
		endpoints.DeleteTodoEndpoint,
		decodeHTTPDeleteTodoRequest,
		encodeHTTPGenericResponse,
		options...,
	)

	r := mux.NewRouter()
	r.Use(authtransport.NewAuthenticater(t, logger))

	r.Methods("POST").Path("/todos").Handler(createTodoHandler)
	r.Methods("GET").Path("/todos").Handler(todosHandler)
	r.Methods("GET").Path("/todos/{todo_id:[0-9]+}").Handler(todoHandler)
	r.Methods("PUT").Path("/todos/{todo_id:[0-9]+}").Handler(updateTodoHandler)
	r.Methods("DELETE").Path("/todos/{todo_id:[0-9]+}").Handler(deleteTodoHandler)

	return r
}

// NewHTTPClient returns endpoints backed by the todo routes of instance; the
// returned Set satisfies todoservice.Service. Calls authenticate with the
// token found in the context under kitjwt.JWTTokenContextKey. Page and limit
// are always sent, so the server clamps them as the local service does.
func NewHTTPClient(instance string, logger log.Logger) (todoendpoint.Set, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(instance)
	if err != nil {
		return todoendpoint.Set{}, err
	}

	limiter := ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(10*time.Millisecond), 100))

	options := []httptransport.ClientOption{
		httptransport.ClientBefore(kitjwt.ContextToHTTP()),
	}

	wrap := func(name string, e endpoint.Endpoint) endpoint.Endpoint {
		e = limiter(e)
		e = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
		}))(e)
		return e
	}

	var createTodoEndpoint endpoint.Endpoint
	{
		createTodoEndpoint = httptransport.NewClient(
			"POST",
			copyURL(u, "/todos"),
			encodeHTTPGenericRequest,
			decodeHTTPCreateTodoResponse,
			options...,
		).Endpoint()
		createTodoEndpoint = wrap("CreateTodo", createTodoEndpoint)
	}

	var todosEndpoint endpoint.Endpoint
	{
		todosEndpoint = httptransport.NewClient(
			"GET",
			copyURL(u, "/todos"),
			encodeHTTPTodosRequest,
			decodeHTTPTodosResponse,
			options...,
		).Endpoint()
		todosEndpoint = wrap("Todos", todosEndpoint)
	}

	var todoEndpoint endpoint.Endpoint
	{
		todoEndpoint = httptransport.NewClient(
			"GET",
			copyURL(u, "/todos"),
			encodeHTTPTodoRequest,
			decodeHTTPTodoResponse,
			options...,
		).Endpoint()
		todoEndpoint = wrap("Todo", todoEndpoint)
	}

	var updateTodoEndpoint endpoint.Endpoint
	{
		updateTodoEndpoint = httptransport.NewClient(
			"PUT",
			copyURL(u, "/todos"),
			encodeHTTPUpdateTodoRequest,
			decodeHTTPUpdateTodoResponse,
			options...,
		).Endpoint()
		updateTodoEndpoint = wrap("UpdateTodo", updateTodoEndpoint)
	}

	var deleteTodoEndpoint endpoint.Endpoint
	{
		deleteTodoEndpoint = httptransport.NewClient(
			"DELETE",
			copyURL(u, "/todos"),
			encodeHTTPDeleteTodoRequest,
			decodeHTTPDeleteTodoResponse,
			options...,
		).Endpoint()
		deleteTodoEndpoint = wrap("DeleteTodo", deleteTodoEndpoint)
	}

	return todoendpoint.Set{
		CreateTodoEndpoint: createTodoEndpoint,
		TodosEndpoint:      todosEndpoint,
		TodoEndpoint:       todoEndpoint,
		UpdateTodoEndpoint: updateTodoEndpoint,
		DeleteTodoEndpoint: deleteTodoEndpoint,
	}, nil
}

func copyURL(base *url.URL, path string) *url.URL {
	next := *base
	next.Path = path
	return &next
}

func errorEncoder(ctx context.Context, err error, w http.ResponseWriter) {
	if errors.Is(err, authsvc.ErrUnauthorized) {
		authtransport.EncodeUnauthorized(ctx, w)
		return
	}

	code := err2code(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = errInternal.Error()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorWrapper{Error: msg})
}

type errorWrapper struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

var errInternal = errors.New("an internal error occurred")

func err2code(err error) int {
	switch {
	case errors.Is(err, authsvc.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, todosvc.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, todosvc.ErrForbidden), errors.Is(err, todosvc.ErrTodoNotFound):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// ErrBadRouting is returned when an expected path variable is missing.
// It always indicates programmer error.
var ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")

func todoID(r *http.Request) (uint64, error) {
	vars := mux.Vars(r)
	raw, ok := vars["todo_id"]
	if !ok {
		return 0, ErrBadRouting
	}

	// Digits that overflow cannot name an existing todo.
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, todosvc.ErrForbidden
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}

func decodeHTTPCreateTodoRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req todoendpoint.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, todosvc.ErrInvalidArgument
	}
	return req, nil
}

func decodeHTTPTodosRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return todoendpoint.TodosRequest{
		Page:   queryInt(r, "page", todosvc.DefaultPage),
		Limit:  queryInt(r, "limit", todosvc.DefaultLimit),
		Search: r.URL.Query().Get("search"),
	}, nil
}

func decodeHTTPTodoRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := todoID(r)
	if err != nil {
		return nil, err
	}
	return todoendpoint.TodoRequest{TodoID: id}, nil
}

func decodeHTTPUpdateTodoRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := todoID(r)
	if err != nil {
		return nil, err
	}

	var req todoendpoint.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, todosvc.ErrInvalidArgument
	}
	req.TodoID = id

	return req, nil
}

func decodeHTTPDeleteTodoRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, err := todoID(r)
	if err != nil {
		return nil, err
	}
	return todoendpoint.DeleteTodoRequest{TodoID: id}, nil
}

func encodeHTTPGenericResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		errorEncoder(ctx, f.Failed(), w)
		return nil
	}

	code := http.StatusOK
	if sc, ok := response.(httptransport.StatusCoder); ok {
		code = sc.StatusCode()
	}
	if code == http.StatusNoContent {
		w.WriteHeader(code)
		return nil
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(response)
}

func encodeHTTPGenericRequest(_ context.Context, r *http.Request, request interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.Body = io.NopCloser(&buf)
	return nil
}

func encodeHTTPTodosRequest(_ context.Context, r *http.Request, request interface{}) error {
	req := request.(todoendpoint.TodosRequest)
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("limit", strconv.Itoa(req.Limit))
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	r.URL.RawQuery = q.Encode()
	return nil
}

func encodeHTTPTodoRequest(_ context.Context, r *http.Request, request interface{}) error {
	req := request.(todoendpoint.TodoRequest)
	r.URL.Path += "/" + strconv.FormatUint(req.TodoID, 10)
	return nil
}

func encodeHTTPUpdateTodoRequest(ctx context.Context, r *http.Request, request interface{}) error {
	req := request.(todoendpoint.UpdateTodoRequest)
	r.URL.Path += "/" + strconv.FormatUint(req.TodoID, 10)
	return encodeHTTPGenericRequest(ctx, r, req)
}

func encodeHTTPDeleteTodoRequest(_ context.Context, r *http.Request, request interface{}) error {
	req := request.(todoendpoint.DeleteTodoRequest)
	r.URL.Path += "/" + strconv.FormatUint(req.TodoID, 10)
	return nil
}

func decodeHTTPCreateTodoResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusCreated {
		return todoendpoint.CreateTodoResponse{Err: decodeHTTPError(r)}, nil
	}
	var resp todoendpoint.CreateTodoResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPTodosResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return todoendpoint.TodosResponse{Err: decodeHTTPError(r)}, nil
	}
	var resp todoendpoint.TodosResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPTodoResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return todoendpoint.TodoResponse{Err: decodeHTTPError(r)}, nil
	}
	var resp todoendpoint.TodoResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPUpdateTodoResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusOK {
		return todoendpoint.UpdateTodoResponse{Err: decodeHTTPError(r)}, nil
	}
	var resp todoendpoint.UpdateTodoResponse
	err := json.NewDecoder(r.Body).Decode(&resp)
	return resp, err
}

func decodeHTTPDeleteTodoResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode != http.StatusNoContent {
		return todoendpoint.DeleteTodoResponse{Err: decodeHTTPError(r)}, nil
	}
	return todoendpoint.DeleteTodoResponse{}, nil
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
	case todosvc.ErrInvalidArgument.Error():
		return todosvc.ErrInvalidArgument
	case todosvc.ErrForbidden.Error():
		return todosvc.ErrForbidden
	}

	return errors.New(s)
}
