package tasktransport

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
	"github.com/ichigozero/taskmgr/tasksvc/pkg/taskendpoint"
	"github.com/ichigozero/taskmgr/validate"
)

// NewHTTPHandler serves /api/tasks. Every route requires a bearer token.
func NewHTTPHandler(endpoints taskendpoint.Set, tokens authservice.Tokenizer, logger log.Logger) http.Handler {
	options := append(
		httpapi.ServerOptions(logger),
		httptransport.ServerBefore(kitjwt.HTTPToContext()),
	)
	encode := httpapi.NewResponseEncoder(logger)
	admin := []authsvc.Role{authsvc.RoleAdmin}

	var createTaskEndpoint endpoint.Endpoint
	{
		createTaskEndpoint = endpoints.CreateTaskEndpoint
		createTaskEndpoint = authtransport.Protect(tokens, nil, createTaskEndpoint, validate.Middleware())
	}

	createTaskHandler := httptransport.NewServer(
		createTaskEndpoint,
		decodeHTTPCreateTaskRequest,
		encode,
		options...,
	)

	var tasksEndpoint endpoint.Endpoint
	{
		tasksEndpoint = endpoints.TasksEndpoint
		tasksEndpoint = authtransport.Protect(tokens, nil, tasksEndpoint, validate.Middleware())
	}

	tasksHandler := httptransport.NewServer(
		tasksEndpoint,
		decodeHTTPTasksRequest,
		encode,
		options...,
	)

	var allTasksEndpoint endpoint.Endpoint
	{
		allTasksEndpoint = endpoints.AllTasksEndpoint
		allTasksEndpoint = authtransport.Protect(tokens, admin, allTasksEndpoint, validate.Middleware())
	}

	allTasksHandler := httptransport.NewServer(
		allTasksEndpoint,
		decodeHTTPTasksRequest,
		encode,
		options...,
	)

	taskHandler := httptransport.NewServer(
		authtransport.Protect(tokens, nil, endpoints.TaskEndpoint),
		decodeHTTPTaskRequest,
		encode,
		options...,
	)

	adminTaskHandler := httptransport.NewServer(
		authtransport.Protect(tokens, admin, endpoints.AdminTaskEndpoint),
		decodeHTTPTaskRequest,
		encode,
		options...,
	)

	var updateTaskEndpoint endpoint.Endpoint
	{
		updateTaskEndpoint = endpoints.UpdateTaskEndpoint
		updateTaskEndpoint = authtransport.Protect(tokens, nil, updateTaskEndpoint, validate.Middleware())
	}

	updateTaskHandler := httptransport.NewServer(
		updateTaskEndpoint,
		decodeHTTPUpdateTaskRequest,
		encode,
		options...,
	)

	deleteTaskHandler := httptransport.NewServer(
		authtransport.Protect(tokens, nil, endpoints.DeleteTaskEndpoint),
		decodeHTTPDeleteTaskRequest,
		encode,
		options...,
	)

	r := mux.NewRouter()

	// Admin routes first so "admin" is never taken for a task id.
	r.Methods("GET").Path("/api/tasks/admin/all").Handler(allTasksHandler)
	r.Methods("GET").Path("/api/tasks/admin/{id}").Handler(adminTaskHandler)

	r.Methods("POST").Path("/api/tasks").Handler(createTaskHandler)
	r.Methods("GET").Path("/api/tasks").Handler(tasksHandler)
	r.Methods("GET").Path("/api/tasks/{id}").Handler(taskHandler)
	r.Methods("PUT").Path("/api/tasks/{id}").Handler(updateTaskHandler)
	r.Methods("DELETE").Path("/api/tasks/{id}").Handler(deleteTaskHandler)

	r.NotFoundHandler = httpapi.NotFoundHandler()
	r.MethodNotAllowedHandler = httpapi.NotFoundHandler()

	return r
}

func decodeHTTPCreateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	body, err := httpapi.ReadBody(r)
	return taskendpoint.CreateTaskRequest{Body: body}, err
}

func decodeHTTPTasksRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return taskendpoint.TasksRequest{Values: r.URL.Query()}, nil
}

func decodeHTTPTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, httpapi.ErrBadRouting
	}
	return taskendpoint.TaskRequest{TaskID: id}, nil
}

func decodeHTTPUpdateTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, httpapi.ErrBadRouting
	}

	body, err := httpapi.ReadBody(r)
	if err != nil {
		return nil, err
	}

	return taskendpoint.UpdateTaskRequest{TaskID: id, Body: body}, nil
}

func decodeHTTPDeleteTaskRequest(_ context.Context, r *http.Request) (interface{}, error) {
	id, ok := mux.Vars(r)["id"]
	if !ok {
		return nil, httpapi.ErrBadRouting
	}
	return taskendpoint.DeleteTaskRequest{TaskID: id}, nil
}
