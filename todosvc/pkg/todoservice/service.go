package todoservice

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/ichigozero/todokit/todosvc"
)

// Service manages the todos of the calling user. Every method takes the
// authenticated user ID; a todo is visible to its owner only.
type Service interface {
	CreateTodo(ctx context.Context, userID uint64, title, description string) (todosvc.Todo, error)
	Todos(ctx context.Context, userID uint64, page, limit int, search string) (todosvc.Page, error)
	Todo(ctx context.Context, userID, todoID uint64) (todosvc.Todo, error)
	UpdateTodo(ctx context.Context, userID, todoID uint64, title, description *string) (todosvc.Todo, error)
	DeleteTodo(ctx context.Context, userID, todoID uint64) error
}

func New(t todosvc.TodoRepository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	todos todosvc.TodoRepository
}

func NewBasicService(t todosvc.TodoRepository) Service {
	return basicService{todos: t}
}

func (s basicService) CreateTodo(ctx context.Context, userID uint64, title, description string) (todosvc.Todo, error) {
	if userID == 0 || title == "" || description == "" {
		return todosvc.Todo{}, todosvc.ErrInvalidArgument
	}
	return s.todos.Create(ctx, todosvc.Todo{UserID: userID, Title: title, Description: description})
}

func (s basicService) Todos(ctx context.Context, userID uint64, page, limit int, search string) (todosvc.Page, error) {
	if userID == 0 {
		return todosvc.Page{}, todosvc.ErrInvalidArgument
	}

	q := todosvc.NewListQuery(userID, page, limit, search)
	todos, total, err := s.todos.List(ctx, q)
	if err != nil {
		return todosvc.Page{}, err
	}

	return todosvc.Page{Todos: todos, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

func (s basicService) Todo(ctx context.Context, userID, todoID uint64) (todosvc.Todo, error) {
	return authorize(ctx, s.todos, userID, todoID)
}

// UpdateTodo applies a partial update: a nil or empty field keeps its stored
// value. At least one field must be supplied.
func (s basicService) UpdateTodo(ctx context.Context, userID, todoID uint64, title, description *string) (todosvc.Todo, error) {
	if !supplied(title) && !supplied(description) {
		return todosvc.Todo{}, todosvc.ErrInvalidArgument
	}

	var updated todosvc.Todo
	err := s.todos.Transaction(ctx, func(r todosvc.TodoRepository) error {
		todo, err := authorize(ctx, r, userID, todoID)
		if err != nil {
			return err
		}

		if supplied(title) {
			todo.Title = *title
		}
		if supplied(description) {
			todo.Description = *description
		}

		updated, err = r.Update(ctx, todo)
		return err
	})
	if err != nil {
		return todosvc.Todo{}, hideExistence(err)
	}

	return updated, nil
}

func (s basicService) DeleteTodo(ctx context.Context, userID, todoID uint64) error {
	err := s.todos.Transaction(ctx, func(r todosvc.TodoRepository) error {
		if _, err := authorize(ctx, r, userID, todoID); err != nil {
			return err
		}
		return r.Delete(ctx, userID, todoID)
	})
	return hideExistence(err)
}

func supplied(field *string) bool {
	return field != nil && *field != ""
}
