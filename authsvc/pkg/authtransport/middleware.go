package authtransport

import (
	"context"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	"github.com/ichigozero/taskmgr/authsvc"
	"github.com/ichigozero/taskmgr/authsvc/pkg/authservice"
)

// NewAuthenticater verifies the bearer token that kitjwt.HTTPToContext put
// into the context and attaches the resulting identity. Claims are trusted
// for the lifetime of the token; the user is not reloaded.
func NewAuthenticater(t authservice.Tokenizer) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			token, ok := ctx.Value(kitjwt.JWTContextKey).(string)
			if !ok || token == "" {
				return nil, authsvc.ErrTokenMissing
			}

			id, err := t.Verify(token)
			if err != nil {
				return nil, authsvc.ErrTokenInvalid
			}

			ctx = authsvc.NewContext(ctx, id)

			return next(ctx, request)
		}
	}
}

// NewAuthorizer must run after NewAuthenticater.
func NewAuthorizer(roles ...authsvc.Role) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (response interface{}, err error) {
			id, ok := authsvc.FromContext(ctx)
			if !ok {
				return nil, authsvc.ErrUnauthorized
			}

			for _, r := range roles {
				if id.Role == r {
					return next(ctx, request)
				}
			}
			return nil, authsvc.ErrForbidden
		}
	}
}

// Protect chains authentication, the optional role gate, and the remaining
// middlewares in front of e, outermost first.
func Protect(t authservice.Tokenizer, roles []authsvc.Role, e endpoint.Endpoint, inner ...endpoint.Middleware) endpoint.Endpoint {
	var mws []endpoint.Middleware
	mws = append(mws, NewAuthenticater(t))
	if len(roles) > 0 {
		mws = append(mws, NewAuthorizer(roles...))
	}
	mws = append(mws, inner...)

	return endpoint.Chain(mws[0], mws[1:]...)(e)
}
