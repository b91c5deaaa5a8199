package todoservice

import (
	"context"
	"errors"

	"github.com/ichigozero/todokit/todosvc"
)

// authorize loads a todo on behalf of userID. A todo that does not exist and
// a todo owned by someone else both yield todosvc.ErrForbidden, so callers
// cannot probe which ids are valid.
func authorize(ctx context.Context, r todosvc.TodoRepository, userID, todoID uint64) (todosvc.Todo, error) {
	if userID == 0 {
		return todosvc.Todo{}, todosvc.ErrForbidden
	}

	todo, err := r.Find(ctx, todoID)
	if err != nil {
		return todosvc.Todo{}, hideExistence(err)
	}
	if todo.UserID != userID {
		return todosvc.Todo{}, todosvc.ErrForbidden
	}

	return todo, nil
}

func hideExistence(err error) error {
	if errors.Is(err, todosvc.ErrTodoNotFound) {
		return todosvc.ErrForbidden
	}
	return err
}
