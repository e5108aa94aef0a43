package taskendpoint

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/log"
	"github.com/ichigozero/taskmgr/authsvc"
	"github.com/ichigozero/taskmgr/tasksvc"
	"github.com/ichigozero/taskmgr/tasksvc/pkg/taskservice"
)

type Set struct {
	CreateTaskEndpoint endpoint.Endpoint
	TasksEndpoint      endpoint.Endpoint
	AllTasksEndpoint   endpoint.Endpoint
	TaskEndpoint       endpoint.Endpoint
	AdminTaskEndpoint  endpoint.Endpoint
	UpdateTaskEndpoint endpoint.Endpoint
	DeleteTaskEndpoint endpoint.Endpoint
}

func New(svc taskservice.Service, logger log.Logger) Set {
	var createTaskEndpoint endpoint.Endpoint
	{
		createTaskEndpoint = MakeCreateTaskEndpoint(svc)
		createTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "CreateTask"))(createTaskEndpoint)
	}
	var tasksEndpoint endpoint.Endpoint
	{
		tasksEndpoint = MakeTasksEndpoint(svc)
		tasksEndpoint = LoggingMiddleware(log.With(logger, "method", "Tasks"))(tasksEndpoint)
	}
	var allTasksEndpoint endpoint.Endpoint
	{
		allTasksEndpoint = MakeAllTasksEndpoint(svc)
		allTasksEndpoint = LoggingMiddleware(log.With(logger, "method", "AllTasks"))(allTasksEndpoint)
	}
	var taskEndpoint endpoint.Endpoint
	{
		taskEndpoint = MakeTaskEndpoint(svc)
		taskEndpoint = LoggingMiddleware(log.With(logger, "method", "Task"))(taskEndpoint)
	}
	var adminTaskEndpoint endpoint.Endpoint
	{
		adminTaskEndpoint = MakeAdminTaskEndpoint(svc)
		adminTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "AdminTask"))(adminTaskEndpoint)
	}

	var updateTaskEndpoint endpoint.Endpoint
	{
		updateTaskEndpoint = MakeUpdateTaskEndpoint(svc)
		updateTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "UpdateTask"))(updateTaskEndpoint)
	}

	var deleteTaskEndpoint endpoint.Endpoint
	{
		deleteTaskEndpoint = MakeDeleteTaskEndpoint(svc)
		deleteTaskEndpoint = LoggingMiddleware(log.With(logger, "method", "DeleteTask"))(deleteTaskEndpoint)
	}

	return Set{
		CreateTaskEndpoint: createTaskEndpoint,
		TasksEndpoint:      tasksEndpoint,
		AllTasksEndpoint:   allTasksEndpoint,
		TaskEndpoint:       taskEndpoint,
		AdminTaskEndpoint:  adminTaskEndpoint,
		UpdateTaskEndpoint: updateTaskEndpoint,
		DeleteTaskEndpoint: deleteTaskEndpoint,
	}
}

func MakeCreateTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.FromContext(ctx)
		if !ok {
			return CreateTaskResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		req := request.(CreateTaskRequest)
		t, err := s.CreateTask(ctx, id.ID, req.Task)
		return CreateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeTasksEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.FromContext(ctx)
		if !ok {
			return TasksResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		req := request.(TasksRequest)
		p, err := s.Tasks(ctx, id.ID, req.Query)
		return TasksResponse{TaskPage: p, Err: err}, nil
	}
}

func MakeAllTasksEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(TasksRequest)
		p, err := s.AllTasks(ctx, req.Query)
		return TasksResponse{TaskPage: p, Err: err}, nil
	}
}

func MakeTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.FromContext(ctx)
		if !ok {
			return TaskResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		req := request.(TaskRequest)
		t, err := s.Task(ctx, req.TaskID, id.ID)
		return TaskResponse{Task: t, Err: err}, nil
	}
}

func MakeAdminTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(TaskRequest)
		t, err := s.AdminTask(ctx, req.TaskID)
		return TaskResponse{Task: t, Err: err}, nil
	}
}

func MakeUpdateTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.FromContext(ctx)
		if !ok {
			return UpdateTaskResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		req := request.(UpdateTaskRequest)
		t, err := s.UpdateTask(ctx, req.TaskID, id.ID, req.Patch)
		return UpdateTaskResponse{Task: t, Err: err}, nil
	}
}

func MakeDeleteTaskEndpoint(s taskservice.Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		id, ok := authsvc.FromContext(ctx)
		if !ok {
			return DeleteTaskResponse{Err: authsvc.ErrUnauthorized}, nil
		}

		req := request.(DeleteTaskRequest)
		err = s.DeleteTask(ctx, req.TaskID, id.ID)
		return DeleteTaskResponse{Err: err}, nil
	}
}

var (
	_ endpoint.Failer = CreateTaskResponse{}
	_ endpoint.Failer = TasksResponse{}
	_ endpoint.Failer = TaskResponse{}
	_ endpoint.Failer = UpdateTaskResponse{}
	_ endpoint.Failer = DeleteTaskResponse{}
)

type CreateTaskRequest struct {
	Body []byte
	Task tasksvc.NewTask
}

func (r CreateTaskRequest) Normalize() (interface{}, error) {
	t, err := tasksvc.ParseNewTask(r.Body)
	if err != nil {
		return nil, err
	}
	r.Task = t
	return r, nil
}

type CreateTaskResponse struct {
	Task tasksvc.Task `json:"task"`
	Err  error        `json:"-"`
}

func (r CreateTaskResponse) Failed() error   { return r.Err }
func (r CreateTaskResponse) StatusCode() int { return http.StatusCreated }
func (r CreateTaskResponse) Message() string { return "task created successfully" }

// TasksRequest serves both the owner and the admin listing.
type TasksRequest struct {
	Values url.Values
	Query  tasksvc.ListQuery
}

func (r TasksRequest) Normalize() (interface{}, error) {
	q, err := tasksvc.ParseListQuery(r.Values)
	if err != nil {
		return nil, err
	}
	r.Query = q
	return r, nil
}

type TasksResponse struct {
	tasksvc.TaskPage
	Err error `json:"-"`
}

func (r TasksResponse) Failed() error { return r.Err }

type TaskRequest struct {
	TaskID string
}

type TaskResponse struct {
	Task tasksvc.Task `json:"task"`
	Err  error        `json:"-"`
}

func (r TaskResponse) Failed() error { return r.Err }

type UpdateTaskRequest struct {
	TaskID string
	Body   []byte
	Patch  tasksvc.TaskPatch
}

func (r UpdateTaskRequest) Normalize() (interface{}, error) {
	p, err := tasksvc.ParseTaskPatch(r.Body)
	if err != nil {
		return nil, err
	}
	r.Patch = p
	return r, nil
}

type UpdateTaskResponse struct {
	Task tasksvc.Task `json:"task"`
	Err  error        `json:"-"`
}

func (r UpdateTaskResponse) Failed() error   { return r.Err }
func (r UpdateTaskResponse) Message() string { return "task updated successfully" }

type DeleteTaskRequest struct {
	TaskID string
}

type DeleteTaskResponse struct {
	Err error `json:"-"`
}

func (r DeleteTaskResponse) Failed() error   { return r.Err }
func (r DeleteTaskResponse) Message() string { return "task deleted successfully" }
