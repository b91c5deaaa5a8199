package todoservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/ichigozero/todokit/todosvc"
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

func (mw loggingMiddleware) CreateTodo(ctx context.Context, userID uint64, title, description string) (t todosvc.Todo, err error) {
	defer func() {
		mw.logger.Log(
			"method", "CreateTodo",
			"user_id", userID,
			"todo_id", t.ID,
			"err", err,
		)
	}()
	return mw.next.CreateTodo(ctx, userID, title, description)
}

func (mw loggingMiddleware) Todos(ctx context.Context, userID uint64, page, limit int, search string) (p todosvc.Page, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Todos",
			"user_id", userID,
			"page", p.Page,
			"limit", p.Limit,
			"search_set", search != "",
			"total", p.Total,
			"err", err,
		)
	}()
	return mw.next.Todos(ctx, userID, page, limit, search)
}

func (mw loggingMiddleware) Todo(ctx context.Context, userID, todoID uint64) (t todosvc.Todo, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Todo",
			"user_id", userID,
			"todo_id", todoID,
			"err", err,
		)
	}()
	return mw.next.Todo(ctx, userID, todoID)
}

func (mw loggingMiddleware) UpdateTodo(ctx context.Context, userID, todoID uint64, title, description *string) (t todosvc.Todo, err error) {
	defer func() {
		mw.logger.Log(
			"method", "UpdateTodo",
			"user_id", userID,
			"todo_id", todoID,
			"title_set", title != nil,
			"description_set", description != nil,
			"err", err,
		)
	}()
	return mw.next.UpdateTodo(ctx, userID, todoID, title, description)
}

func (mw loggingMiddleware) DeleteTodo(ctx context.Context, userID, todoID uint64) (err error) {
	defer func() {
		mw.logger.Log(
			"method", "DeleteTodo",
			"user_id", userID,
			"todo_id", todoID,
			"err", err,
		)
	}()
	return mw.next.DeleteTodo(ctx, userID, todoID)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) observe(method string, begin time.Time) {
	mw.requestCount.With("method", method).Add(1)
	mw.requestLatency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mw instrumentingMiddleware) CreateTodo(ctx context.Context, userID uint64, title, description string) (todosvc.Todo, error) {
	defer mw.observe("create_todo", time.Now())
	return mw.next.CreateTodo(ctx, userID, title, description)
}

func (mw instrumentingMiddleware) Todos(ctx context.Context, userID uint64, page, limit int, search string) (todosvc.Page, error) {
	defer mw.observe("todos", time.Now())
	return mw.next.Todos(ctx, userID, page, limit, search)
}

func (mw instrumentingMiddleware) Todo(ctx context.Context, userID, todoID uint64) (todosvc.Todo, error) {
	defer mw.observe("todo", time.Now())
	return mw.next.Todo(ctx, userID, todoID)
}

func (mw instrumentingMiddleware) UpdateTodo(ctx context.Context, userID, todoID uint64, title, description *string) (todosvc.Todo, error) {
	defer mw.observe("update_todo", time.Now())
	return mw.next.UpdateTodo(ctx, userID, todoID, title, description)
}

func (mw instrumentingMiddleware) DeleteTodo(ctx context.Context, userID, todoID uint64) error {
	defer mw.observe("delete_todo", time.Now())
	return mw.next.DeleteTodo(ctx, userID, todoID)
}
