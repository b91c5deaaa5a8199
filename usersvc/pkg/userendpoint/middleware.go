package userendpoint

import (
	"context"
	"time"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
)

// LoggingMiddleware logs the duration and the business error, if any, of
// each call.
func LoggingMiddleware(logger log.Logger) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			defer func(begin time.Time) {
				var failed error
				if f, ok := response.(endpoint.Failer); ok {
					failed = f.Failed()
				}
				logger.Log("transport_error", err, "err", failed, "took", time.Since(begin))
			}(time.Now())
			return next(ctx, request)
		}
	}
}
