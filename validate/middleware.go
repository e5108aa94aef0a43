package validate

import (
	"context"

	"github.com/go-kit/kit/endpoint"
)

// Normalizer is a request carrying raw client input. Normalize returns the
// request with its parsed, defaulted values filled in.
type Normalizer interface {
	Normalize() (interface{}, error)
}

// Middleware normalizes Normalizer requests before they reach the endpoint
// and fails with the validation error instead when the input is invalid.
// Other requests pass through unchanged.
func Middleware() endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			n, ok := request.(Normalizer)
			if !ok {
				return next(ctx, request)
			}

			normalized, err := n.Normalize()
			if err != nil {
				return nil, err
			}
			return next(ctx, normalized)
		}
	}
}
