package todosvc

import (
	"context"
	"errors"
)

type Todo struct {
	ID          uint64 `json:"id" gorm:"primaryKey"`
	UserID      uint64 `json:"-" gorm:"not null;index"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
}

// TodoRepository persists todos. Find returns ErrTodoNotFound for unknown
// ids; Update and Delete return it when no row matches both id and owner.
type TodoRepository interface {
	Create(ctx context.Context, todo Todo) (Todo, error)
	Find(ctx context.Context, todoID uint64) (Todo, error)
	Update(ctx context.Context, todo Todo) (Todo, error)
	Delete(ctx context.Context, userID, todoID uint64) error
	List(ctx context.Context, q ListQuery) ([]Todo, int64, error)
	Transaction(ctx context.Context, fn func(TodoRepository) error) error
}

// Page is one window of a user's todos.
type Page struct {
	Todos []Todo
	Page  int
	Limit int
	Total int64
}

var (
	ErrInvalidArgument = errors.New("missing required fields")
	ErrForbidden       = errors.New("forbidden")
	ErrTodoNotFound    = errors.New("todo not found")
)
