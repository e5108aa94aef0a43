package userendpoint

import (
	"context"
	"net/http"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/log"
	"github.com/ichigozero/taskmgr/authsvc"
	"github.com/ichigozero/taskmgr/usersvc"
	"github.com/ichigozero/taskmgr/usersvc/pkg/userservice"
)

type Set struct {
	RegisterEndpoint      endpoint.Endpoint
	LoginEndpoint         endpoint.Endpoint
	ProfileEndpoint       endpoint.Endpoint
	UpdateProfileEndpoint endpoint.Endpoint
	UsersEndpoint         endpoint.Endpoint
	UserEndpoint          endpoint.Endpoint
}

func New(svc userservice.Service, logger log.Logger) Set {
	var registerEndpoint endpoint.Endpoint
	{
		registerEndpoint = MakeRegisterEndpoint(svc)
		registerEndpoint = LoggingMiddleware(log.With(logger, "method", "Register"))(registerEndpoint)
	}
	var loginEndpoint endpoint.Endpoint
	{
		loginEndpoint = MakeLoginEndpoint(svc)
		loginEndpoint = LoggingMiddleware(log.With(logger, "method", "Login"))(loginEndpoint)
	}
	var profileEndpoint endpoint.Endpoint
	{
		profileEndpoint = MakeProfileEndpoint(svc)
		profileEndpoint = LoggingMiddleware(log.With(logger, "method", "Profile"))(profileEndpoint)
	}
	var updateProfileEndpoint endpoint.Endpoint
	{
		updateProfileEndpoint = MakeUpdateProfileEndpoint(svc)
		updateProfileEndpoint = LoggingMiddleware(log.With(logger, "method", "UpdateProfile"))(updateProfileEndpoint)
	}
	var usersEndpoint endpoint.Endpoint
	{
		usersEndpoint = MakeUsersEndpoint(svc)
		usersEndpoint = LoggingMiddleware(log.With(logger, "method", "Users"))(usersEndpoint)
	}
	var userEndpoint endpoint.Endpoint
	{
		userEndpoint = MakeUserEndpoint(svc)
		userEndpoint = LoggingMiddleware(log.With(logger, "method", "User"))(userEndpoint)
	}

	return Set{
		RegisterEndpoint:      registerEndpoint,
		LoginEndpoint:         loginEndpoint,
		ProfileEndpoint:       profileEndpoint,
		UpdateProfileEndpoint: updateProfileEndpoint,
		UsersEndpoint:         usersEndpoint,
		UserEndpoint:          userEndpoint,
	}
}

func MakeRegisterEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(RegisterRequest)
		session, err := s.Register(ctx, req.Registration)
		return RegisterResponse{Session: session, Err: err}, nil
	}
}

func MakeLoginEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(LoginRequest)
		session, err := s.Login(ctx, req.Credentials)
		return LoginResponse{Session: session, Err: err}, nil
	}
}

func MakeProfileEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.FromContext(ctx)
		if !ok {
			return ProfileResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		_ = request.(ProfileRequest)
		u, err := s.User(ctx, id.ID)
		return ProfileResponse{User: u, Err: err}, nil
	}
}

func MakeUpdateProfileEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.FromContext(ctx)
		if !ok {
			return UpdateProfileResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		req := request.(UpdateProfileRequest)
		u, err := s.UpdateUser(ctx, id.ID, req.Patch)
		return UpdateProfileResponse{User: u, Err: err}, nil
	}
}

func MakeUsersEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		_ = request.(UsersRequest)
		users, err := s.Users(ctx)
		return UsersResponse{Users: users, Err: err}, nil
	}
}

func MakeUserEndpoint(s userservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(UserRequest)
		u, err := s.User(ctx, req.ID)
		return UserResponse{User: u, Err: err}, nil
	}
}

var (
	_ endpoint.Failer = RegisterResponse{}
	_ endpoint.Failer = LoginResponse{}
	_ endpoint.Failer = ProfileResponse{}
	_ endpoint.Failer = UpdateProfileResponse{}
	_ endpoint.Failer = UsersResponse{}
	_ endpoint.Failer = UserResponse{}
)

// RegisterRequest holds the raw body until Normalize parses it.
type RegisterRequest struct {
	Body         []byte
	Registration usersvc.Registration
}

func (r RegisterRequest) Normalize() (interface{}, error) {
	reg, err := usersvc.ParseRegistration(r.Body)
	if err != nil {
		return nil, err
	}
	r.Registration = reg
	return r, nil
}

type RegisterResponse struct {
	usersvc.Session
	Err error `json:"-"`
}

func (r RegisterResponse) Failed() error   { return r.Err }
func (r RegisterResponse) StatusCode() int { return http.StatusCreated }
func (r RegisterResponse) Message() string { return "user registered successfully" }

type LoginRequest struct {
	Body        []byte
	Credentials usersvc.Credentials
}

func (r LoginRequest) Normalize() (interface{}, error) {
	c, err := usersvc.ParseCredentials(r.Body)
	if err != nil {
		return nil, err
	}
	r.Credentials = c
	return r, nil
}

type LoginResponse struct {
	usersvc.Session
	Err error `json:"-"`
}

func (r LoginResponse) Failed() error   { return r.Err }
func (r LoginResponse) Message() string { return "login successful" }

type ProfileRequest struct{}

type ProfileResponse struct {
	User usersvc.User `json:"user"`
	Err  error        `json:"-"`
}

func (r ProfileResponse) Failed() error { return r.Err }

type UpdateProfileRequest struct {
	Body  []byte
	Patch usersvc.ProfilePatch
}

func (r UpdateProfileRequest) Normalize() (interface{}, error) {
	p, err := usersvc.ParseProfilePatch(r.Body)
	if err != nil {
		return nil, err
	}
	r.Patch = p
	return r, nil
}

type UpdateProfileResponse struct {
	User usersvc.User `json:"user"`
	Err  error        `json:"-"`
}

func (r UpdateProfileResponse) Failed() error   { return r.Err }
func (r UpdateProfileResponse) Message() string { return "profile updated successfully" }

type UsersRequest struct{}

type UsersResponse struct {
	Users []usersvc.User `json:"users"`
	Err   error          `json:"-"`
}

func (r UsersResponse) Failed() error { return r.Err }

type UserRequest struct {
	ID string
}

type UserResponse struct {
	User usersvc.User `json:"user"`
	Err  error        `json:"-"`
}

func (r UserResponse) Failed() error { return r.Err }
