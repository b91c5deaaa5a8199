package todoendpoint

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/authsvc"
	"github.com/ichigozero/todokit/todosvc"
	"github.com/ichigozero/todokit/todosvc/pkg/todoservice"
)

type Set struct {
	CreateTodoEndpoint endpoint.Endpoint
	TodosEndpoint      endpoint.Endpoint
	TodoEndpoint       endpoint.Endpoint
	UpdateTodoEndpoint endpoint.Endpoint
	DeleteTodoEndpoint endpoint.Endpoint
}

func New(svc todoservice.Service, logger log.Logger) Set {
	var createTodoEndpoint endpoint.Endpoint
	{
		createTodoEndpoint = MakeCreateTodoEndpoint(svc)
		createTodoEndpoint = LoggingMiddleware(log.With(logger, "method", "CreateTodo"))(createTodoEndpoint)
	}
	var todosEndpoint endpoint.Endpoint
	{
		todosEndpoint = MakeTodosEndpoint(svc)
		todosEndpoint = LoggingMiddleware(log.With(logger, "method", "Todos"))(todosEndpoint)
	}
	var todoEndpoint endpoint.Endpoint
	{
		todoEndpoint = MakeTodoEndpoint(svc)
		todoEndpoint = LoggingMiddleware(log.With(logger, "method", "Todo"))(todoEndpoint)
	}

	var updateTodoEndpoint endpoint.Endpoint
	{
		updateTodoEndpoint = MakeUpdateTodoEndpoint(svc)
		updateTodoEndpoint = LoggingMiddleware(log.With(logger, "method", "UpdateTodo"))(updateTodoEndpoint)
	}

	var deleteTodoEndpoint endpoint.Endpoint
	{
		deleteTodoEndpoint = MakeDeleteTodoEndpoint(svc)
		deleteTodoEndpoint = LoggingMiddleware(log.With(logger, "method", "DeleteTodo"))(deleteTodoEndpoint)
	}

	return Set{
		CreateTodoEndpoint: createTodoEndpoint,
		TodosEndpoint:      todosEndpoint,
		TodoEndpoint:       todoEndpoint,
		UpdateTodoEndpoint: updateTodoEndpoint,
		DeleteTodoEndpoint: deleteTodoEndpoint,
	}
}

// The Set methods satisfy todoservice.Service for clients. The caller is
// identified by the bearer token carried in ctx, so userID is not sent.

func (s Set) CreateTodo(ctx context.Context, _ uint64, title, description string) (todosvc.Todo, error) {
	resp, err := s.CreateTodoEndpoint(ctx, CreateTodoRequest{Title: title, Description: description})
	if err != nil {
		return todosvc.Todo{}, err
	}
	response := resp.(CreateTodoResponse)
	return response.Todo, response.Err
}

func (s Set) Todos(ctx context.Context, _ uint64, page, limit int, search string) (todosvc.Page, error) {
	resp, err := s.TodosEndpoint(ctx, TodosRequest{Page: page, Limit: limit, Search: search})
	if err != nil {
		return todosvc.Page{}, err
	}
	response := resp.(TodosResponse)
	return todosvc.Page{
		Todos: response.Data,
		Page:  response.Page,
		Limit: response.Limit,
		Total: response.Total,
	}, response.Err
}

func (s Set) Todo(ctx context.Context, _, todoID uint64) (todosvc.Todo, error) {
	resp, err := s.TodoEndpoint(ctx, TodoRequest{TodoID: todoID})
	if err != nil {
		return todosvc.Todo{}, err
	}
	response := resp.(TodoResponse)
	return response.Todo, response.Err
}

func (s Set) UpdateTodo(ctx context.Context, _, todoID uint64, title, description *string) (todosvc.Todo, error) {
	resp, err := s.UpdateTodoEndpoint(
		ctx,
		UpdateTodoRequest{
			TodoID:      todoID,
			Title:       title,
			Description: description,
		},
	)
	if err != nil {
		return todosvc.Todo{}, err
	}
	response := resp.(UpdateTodoResponse)
	return response.Todo, response.Err
}

func (s Set) DeleteTodo(ctx context.Context, _, todoID uint64) error {
	resp, err := s.DeleteTodoEndpoint(ctx, DeleteTodoRequest{TodoID: todoID})
	if err != nil {
		return err
	}
	response := resp.(DeleteTodoResponse)
	return response.Err
}

func MakeCreateTodoEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		userID, ok := authsvc.UserID(ctx)
		if !ok {
			return CreateTodoResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		req := request.(CreateTodoRequest)
		t, err := s.CreateTodo(ctx, userID, req.Title, req.Description)
		return CreateTodoResponse{Todo: t, Err: err}, nil
	}
}

func MakeTodosEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		userID, ok := authsvc.UserID(ctx)
		if !ok {
			return TodosResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		req := request.(TodosRequest)
		p, err := s.Todos(ctx, userID, req.Page, req.Limit, req.Search)
		return TodosResponse{
			Data:  p.Todos,
			Page:  p.Page,
			Limit: p.Limit,
			Total: p.Total,
			Err:   err,
		}, nil
	}
}

func MakeTodoEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		userID, ok := authsvc.UserID(ctx)
		if !ok {
			return TodoResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		req := request.(TodoRequest)
		t, err := s.Todo(ctx, userID, req.TodoID)
		return TodoResponse{Todo: t, Err: err}, nil
	}
}

func MakeUpdateTodoEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		userID, ok := authsvc.UserID(ctx)
		if !ok {
			return UpdateTodoResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		req := request.(UpdateTodoRequest)
		t, err := s.UpdateTodo(ctx, userID, req.TodoID, req.Title, req.Description)
		return UpdateTodoResponse{Todo: t, Err: err}, nil
	}
}

func MakeDeleteTodoEndpoint(s todoservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		userID, ok := authsvc.UserID(ctx)
		if !ok {
			return DeleteTodoResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		req := request.(DeleteTodoRequest)
		err = s.DeleteTodo(ctx, userID, req.TodoID)
		return DeleteTodoResponse{Err: err}, nil
	}
}

var (
	_ endpoint.Failer = CreateTodoResponse{}
	_ endpoint.Failer = TodosResponse{}
	_ endpoint.Failer = TodoResponse{}
	_ endpoint.Failer = UpdateTodoResponse{}
	_ endpoint.Failer = DeleteTodoResponse{}
)

type CreateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type CreateTodoResponse struct {
	todosvc.Todo
	Err error `json:"-"`
}

func (r CreateTodoResponse) Failed() error { return r.Err }

func (r CreateTodoResponse) StatusCode() int { return http.StatusCreated }

type TodosRequest struct {
	Page   int
	Limit  int
	Search string
}

type TodosResponse struct {
	Data  []todosvc.Todo `json:"data"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int64          `json:"total"`
	Err   error          `json:"-"`
}

func (r TodosResponse) Failed() error { return r.Err }

type TodoRequest struct {
	TodoID uint64
}

type TodoResponse struct {
	todosvc.Todo
	Err error `json:"-"`
}

func (r TodoResponse) Failed() error { return r.Err }

// UpdateTodoRequest leaves a field nil when the client omitted it.
type UpdateTodoRequest struct {
	TodoID      uint64  `json:"-"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type UpdateTodoResponse struct {
	todosvc.Todo
	Err error `json:"-"`
}

func (r UpdateTodoResponse) Failed() error { return r.Err }

type DeleteTodoRequest struct {
	TodoID uint64
}

type DeleteTodoResponse struct {
	Err error `json:"-"`
}

func (r DeleteTodoResponse) Failed() error { return r.Err }

func (r DeleteTodoResponse) StatusCode() int { return http.StatusNoContent }
