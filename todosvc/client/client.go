package client

import (
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/sd"
	"github.com/go-kit/kit/sd/lb"
	"github.com/ichigozero/todokit/todosvc/pkg/todoendpoint"
	"github.com/ichigozero/todokit/todosvc/pkg/todotransport"
)

// New returns endpoints balanced round-robin over the given HTTP instances,
// retrying each call up to retryMax times within retryTimeout.
func New(instances []string, logger log.Logger, retryMax int, retryTimeout time.Duration) (todoendpoint.Set, error) {
	sets := make([]todoendpoint.Set, 0, len(instances))
	for _, instance := range instances {
		set, err := todotransport.NewHTTPClient(instance, logger)
		if err != nil {
			return todoendpoint.Set{}, err
		}
		sets = append(sets, set)
	}

	pick := func(f func(todoendpoint.Set) endpoint.Endpoint) endpoint.Endpoint {
		var endpointer sd.FixedEndpointer
		for _, s := range sets {
			endpointer = append(endpointer, f(s))
		}
		balancer := lb.NewRoundRobin(endpointer)
		return lb.Retry(retryMax, retryTimeout, balancer)
	}

	return todoendpoint.Set{
		CreateTodoEndpoint: pick(func(s todoendpoint.Set) endpoint.Endpoint { return s.CreateTodoEndpoint }),
		TodosEndpoint:      pick(func(s todoendpoint.Set) endpoint.Endpoint { return s.TodosEndpoint }),
		TodoEndpoint:       pick(func(s todoendpoint.Set) endpoint.Endpoint { return s.TodoEndpoint }),
		UpdateTodoEndpoint: pick(func(s todoendpoint.Set) endpoint.Endpoint { return s.UpdateTodoEndpoint }),
		DeleteTodoEndpoint: pick(func(s todoendpoint.Set) endpoint.Endpoint { return s.DeleteTodoEndpoint }),
	}, nil
}
