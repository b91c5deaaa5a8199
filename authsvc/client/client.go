package client

import (
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/sd"
	"github.com/go-kit/kit/sd/lb"
	"github.com/ichigozero/todokit/authsvc/pkg/authendpoint"
	"github.com/ichigozero/todokit/authsvc/pkg/authservice"
	"github.com/ichigozero/todokit/authsvc/pkg/authtransport"
)

// New returns endpoints balanced round-robin over the given HTTP instances,
// retrying each call up to retryMax times within retryTimeout.
func New(instances []string, logger log.Logger, retryMax int, retryTimeout time.Duration) (authendpoint.Set, error) {
	services := make([]authservice.Service, 0, len(instances))
	for _, instance := range instances {
		service, err := authtransport.NewHTTPClient(instance, logger)
		if err != nil {
			return authendpoint.Set{}, err
		}
		services = append(services, service)
	}

	endpoints := authendpoint.Set{
		RegisterEndpoint: balanced(services, authendpoint.MakeRegisterEndpoint, retryMax, retryTimeout),
		LoginEndpoint:    balanced(services, authendpoint.MakeLoginEndpoint, retryMax, retryTimeout),
	}

	return endpoints, nil
}

func balanced(
	services []authservice.Service,
	makeEndpoint func(authservice.Service) endpoint.Endpoint,
	retryMax int,
	retryTimeout time.Duration,
) endpoint.Endpoint {
	var endpointer sd.FixedEndpointer
	for _, s := range services {
		endpointer = append(endpointer, makeEndpoint(s))
	}
	balancer := lb.NewRoundRobin(endpointer)
	return lb.Retry(retryMax, retryTimeout, balancer)
}
