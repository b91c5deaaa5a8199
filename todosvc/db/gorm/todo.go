package gorm

import (
	"context"
	"errors"

	"github.com/ichigozero/todokit/todosvc"
	stdgorm "gorm.io/gorm"
)

type todoRepository struct {
	db *stdgorm.DB
}

func NewTodoRepository(db *stdgorm.DB) todosvc.TodoRepository {
	return &todoRepository{db}
}

func (t todoRepository) Create(ctx context.Context, todo todosvc.Todo) (todosvc.Todo, error) {
	todo.ID = 0
	result := t.db.WithContext(ctx).Create(&todo)

	return todo, result.Error
}

func (t todoRepository) Find(ctx context.Context, todoID uint64) (todosvc.Todo, error) {
	var todo todosvc.Todo
	result := t.db.WithContext(ctx).First(&todo, todoID)
	if errors.Is(result.Error, stdgorm.ErrRecordNotFound) {
		return todosvc.Todo{}, todosvc.ErrTodoNotFound
	}

	return todo, result.Error
}

func (t todoRepository) Update(ctx context.Context, todo todosvc.Todo) (todosvc.Todo, error) {
	result := t.db.WithContext(ctx).
		Model(&todosvc.Todo{}).
		Where("id = ? AND user_id = ?", todo.ID, todo.UserID).
		Updates(map[string]interface{}{
			"title":       todo.Title,
			"description": todo.Description,
		})
	if result.Error != nil {
		return todosvc.Todo{}, result.Error
	}
	if result.RowsAffected == 0 {
		return todosvc.Todo{}, todosvc.ErrTodoNotFound
	}

	return todo, nil
}

func (t todoRepository) Delete(ctx context.Context, userID, todoID uint64) error {
	result := t.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", todoID, userID).
		Delete(&todosvc.Todo{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return todosvc.ErrTodoNotFound
	}

	return nil
}

func (t todoRepository) List(ctx context.Context, q todosvc.ListQuery) ([]todosvc.Todo, int64, error) {
	scoped := t.db.WithContext(ctx).
		Model(&todosvc.Todo{}).
		Scopes(ownedBy(q.OwnerID), matching(q.Search))

	var total int64
	if err := scoped.Session(&stdgorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	todos := []todosvc.Todo{}
	err := scoped.Session(&stdgorm.Session{}).
		Scopes(paginate(q)).
		Order("id ASC").
		Find(&todos).Error
	if err != nil {
		return nil, 0, err
	}

	return todos, total, nil
}

func (t todoRepository) Transaction(ctx context.Context, fn func(todosvc.TodoRepository) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *stdgorm.DB) error {
		return fn(todoRepository{tx})
	})
}
