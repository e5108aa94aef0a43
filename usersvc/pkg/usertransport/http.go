package usertransport

import (
	"context"
	"net/http"

	kitjwt "github.com/go-kit/kit/auth/jwt"
	"github.com/go-kit/kit/endpoint"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
	"github.com/gorilla/mux"
	"github.com/ichigozero/taskmgr/authsvc"
	"github.com/ichigozero/taskmgr/authsvc/pkg/authservice"
	"github.com/ichigozero/taskmgr/authsvc/pkg/authtransport"
	"github.com/ichigozero/taskmgr/httpapi"
	"github.com/ichigozero/taskmgr/usersvc/pkg/userendpoint"
	"github.com/ichigozero/taskmgr/validate"
)

// NewHTTPHandler serves /api/auth and /api/users.
func NewHTTPHandler(endpoints userendpoint.Set, tokens authservice.Tokenizer, logger log.Logger) http.Handler {
	options := httpapi.ServerOptions(logger)
	encode := httpapi.NewResponseEncoder(logger)
	admin := []authsvc.Role{authsvc.RoleAdmin}

	var registerEndpoint endpoint.Endpoint
	{
		registerEndpoint = endpoints.RegisterEndpoint
		registerEndpoint = validate.Middleware()(registerEndpoint)
	}

	registerHandler := httptransport.NewServer(
		registerEndpoint,
		decodeHTTPRegisterRequest,
		encode,
		options...,
	)

	var loginEndpoint endpoint.Endpoint
	{
		loginEndpoint = endpoints.LoginEndpoint
		loginEndpoint = validate.Middleware()(loginEndpoint)
	}

	loginHandler := httptransport.NewServer(
		loginEndpoint,
		decodeHTTPLoginRequest,
		encode,
		options...,
	)

	profileHandler := httptransport.NewServer(
		authtransport.Protect(tokens, nil, endpoints.ProfileEndpoint),
		decodeHTTPProfileRequest,
		encode,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	updateProfileHandler := httptransport.NewServer(
		authtransport.Protect(tokens, nil, endpoints.UpdateProfileEndpoint, validate.Middleware()),
		decodeHTTPUpdateProfileRequest,
		encode,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	usersHandler := httptransport.NewServer(
		authtransport.Protect(tokens, admin, endpoints.UsersEndpoint),
		decodeHTTPUsersRequest,
		encode,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	userHandler := httptransport.NewServer(
		authtransport.Protect(tokens, admin, endpoints.UserEndpoint),
		decodeHTTPUserRequest,
		encode,
		append(options, httptransport.ServerBefore(kitjwt.HTTPToContext()))...,
	)

	r := mux.NewRouter()

	r.Methods("POST").Path("/api/auth/register").Handler(registerHandler)
	r.Methods("POST").Path("/api/auth/login").Handler(loginHandler)
	r.Methods("GET").Path("/api/auth/profile").Handler(profileHandler)
	r.Methods("PUT").Path("/api/auth/profile").Handler(updateProfileHandler)
	r.Methods("GET").Path("/api/users").Handler(usersHandler)
	r.Methods("GET").Path("/api/users/{id}").Handler(userHandler)

	r.NotFoundHandler = httpapi.NotFoundHandler()
	r.MethodNotAllowedHandler = httpapi.NotFoundHandler()

	return r
}

func decodeHTTPRegisterRequest(_ context.Context, r *http.Request) (interface{}, error) {
	body, err := httpapi.ReadBody(r)
	return userendpoint.RegisterRequest{Body: body}, err
}

func decodeHTTPLoginRequest(_ context.Context, r *http.Request) (interface{}, error) {
	body, err := httpapi.ReadBody(r)
	return userendpoint.LoginRequest{Body: body}, err
}

func decodeHTTPProfileRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return userendpoint.ProfileRequest{}, nil
}

func decodeHTTPUpdateProfileRequest(_ context.Context, r *http.Request) (interface{}, error) {
	body, err := httpapi.ReadBody(r)
	return userendpoint.UpdateProfileRequest{Body: body}, err
}

func decodeHTTPUsersRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return userendpoint.UsersRequest{}, nil
}

func decodeHTTPUserRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, httpapi.ErrBadRouting
	}
	return userendpoint.UserRequest{ID: id}, nil
}
