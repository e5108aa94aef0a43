package taskservice

import (
	"context"

	"github.com/go-kit/log"
	"github.com/ichigozero/taskmgr/tasksvc"
)

// Service methods taking an ownerID only see tasks of that owner; AllTasks
// and AdminTask do not filter and must be guarded by an admin check.
type Service interface {
	CreateTask(ctx context.Context, ownerID string, t tasksvc.NewTask) (tasksvc.Task, error)
	Tasks(ctx context.Context, ownerID string, q tasksvc.ListQuery) (tasksvc.TaskPage, error)
	AllTasks(ctx context.Context, q tasksvc.ListQuery) (tasksvc.TaskPage, error)
	Task(ctx context.Context, taskID, ownerID string) (tasksvc.Task, error)
	AdminTask(ctx context.Context, taskID string) (tasksvc.Task, error)
	UpdateTask(ctx context.Context, taskID, ownerID string, p tasksvc.TaskPatch) (tasksvc.Task, error)
	DeleteTask(ctx context.Context, taskID, ownerID string) error
}

func New(t tasksvc.TaskRepository, logger log.Logger) Service {
	var svc Service
	{
		svc = NewBasicService(t)
		svc = LoggingMiddleware(logger)(svc)
	}
	return svc
}

type basicService struct {
	tasks tasksvc.TaskRepository
}

func NewBasicService(t tasksvc.TaskRepository) Service {
	return basicService{tasks: t}
}

func (s basicService) CreateTask(ctx context.Context, ownerID string, t tasksvc.NewTask) (tasksvc.Task, error) {
	if t.Status == "" {
		t.Status = tasksvc.StatusTodo
	}
	return s.tasks.Create(ctx, ownerID, t)
}

func (s basicService) Tasks(ctx context.Context, ownerID string, q tasksvc.ListQuery) (tasksvc.TaskPage, error) {
	return s.page(ctx, ownerID, q)
}

func (s basicService) AllTasks(ctx context.Context, q tasksvc.ListQuery) (tasksvc.TaskPage, error) {
	return s.page(ctx, "", q)
}

func (s basicService) page(ctx context.Context, ownerID string, q tasksvc.ListQuery) (tasksvc.TaskPage, error) {
	if q.Page < 1 {
		q.Page = tasksvc.DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = tasksvc.DefaultLimit
	}

	tasks, total, err := s.tasks.FindAll(ctx, tasksvc.NewFilter(ownerID, q))
	if err != nil {
		return tasksvc.TaskPage{}, err
	}

	return tasksvc.TaskPage{
		Tasks:      tasks,
		Pagination: tasksvc.NewPagination(q.Page, q.Limit, total),
	}, nil
}

func (s basicService) Task(ctx context.Context, taskID, ownerID string) (tasksvc.Task, error) {
	return s.tasks.Find(ctx, taskID, ownerID)
}

func (s basicService) AdminTask(ctx context.Context, taskID string) (tasksvc.Task, error) {
	return s.tasks.FindByID(ctx, taskID)
}

func (s basicService) UpdateTask(ctx context.Context, taskID, ownerID string, p tasksvc.TaskPatch) (tasksvc.Task, error) {
	return s.tasks.Update(ctx, taskID, ownerID, p)
}

func (s basicService) DeleteTask(ctx context.Context, taskID, ownerID string) error {
	return s.tasks.Delete(ctx, taskID, ownerID)
}
