package taskservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/log"
	"github.com/ichigozero/taskmgr/tasksvc"
)

type Middleware func(Service) Service

func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) CreateTask(ctx context.Context, ownerID string, t tasksvc.NewTask) (task tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "CreateTask",
			"user_id", ownerID,
			"title", t.Title,
			"status", t.Status,
			"task_id", task.ID,
			"err", err,
		)
	}()
	return mw.next.CreateTask(ctx, ownerID, t)
}

func (mw loggingMiddleware) Tasks(ctx context.Context, ownerID string, q tasksvc.ListQuery) (p tasksvc.TaskPage, err error) {
	defer func() {
		mw.logger.Log(
			"method", "Tasks",
			"user_id", ownerID,
			"page", q.Page,
			"limit", q.Limit,
			"total", p.Pagination.Total,
			"err", err,
		)
	}()
	return mw.next.Tasks(ctx, ownerID, q)
}

func (mw loggingMiddleware) AllTasks(ctx context.Context, q tasksvc.ListQuery) (p tasksvc.TaskPage, err error) {
	defer func() {
		mw.logger.Log(
			"method", "AllTasks",
			"page", q.Page,
			"limit", q.Limit,
			"total", p.Pagination.Total,
			"err", err,
		)
	}()
	return mw.next.AllTasks(ctx, q)
}

func (mw loggingMiddleware) Task(ctx context.Context, taskID, ownerID string) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log("method", "Task", "user_id", ownerID, "task_id", taskID, "err", err)
	}()
	return mw.next.Task(ctx, taskID, ownerID)
}

func (mw loggingMiddleware) AdminTask(ctx context.Context, taskID string) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log("method", "AdminTask", "task_id", taskID, "err", err)
	}()
	return mw.next.AdminTask(ctx, taskID)
}

func (mw loggingMiddleware) UpdateTask(ctx context.Context, taskID, ownerID string, p tasksvc.TaskPatch) (t tasksvc.Task, err error) {
	defer func() {
		mw.logger.Log(
			"method", "UpdateTask",
			"user_id", ownerID,
			"task_id", taskID,
			"title_changed", p.Title != nil,
			"description_changed", p.Description != nil,
			"status", t.Status,
			"err", err,
		)
	}()
	return mw.next.UpdateTask(ctx, taskID, ownerID, p)
}

func (mw loggingMiddleware) DeleteTask(ctx context.Context, taskID, ownerID string) (err error) {
	defer func() {
		mw.logger.Log("method", "DeleteTask", "user_id", ownerID, "task_id", taskID, "err", err)
	}()
	return mw.next.DeleteTask(ctx, taskID, ownerID)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) observe(method string, begin time.Time) {
	mw.requestCount.With("method", method).Add(1)
	mw.requestLatency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mw instrumentingMiddleware) CreateTask(ctx context.Context, ownerID string, t tasksvc.NewTask) (tasksvc.Task, error) {
	defer mw.observe("create_task", time.Now())
	return mw.next.CreateTask(ctx, ownerID, t)
}

func (mw instrumentingMiddleware) Tasks(ctx context.Context, ownerID string, q tasksvc.ListQuery) (tasksvc.TaskPage, error) {
	defer mw.observe("tasks", time.Now())
	return mw.next.Tasks(ctx, ownerID, q)
}

func (mw instrumentingMiddleware) AllTasks(ctx context.Context, q tasksvc.ListQuery) (tasksvc.TaskPage, error) {
	defer mw.observe("all_tasks", time.Now())
	return mw.next.AllTasks(ctx, q)
}

func (mw instrumentingMiddleware) Task(ctx context.Context, taskID, ownerID string) (tasksvc.Task, error) {
	defer mw.observe("task", time.Now())
	return mw.next.Task(ctx, taskID, ownerID)
}

func (mw instrumentingMiddleware) AdminTask(ctx context.Context, taskID string) (tasksvc.Task, error) {
	defer mw.observe("admin_task", time.Now())
	return mw.next.AdminTask(ctx, taskID)
}

func (mw instrumentingMiddleware) UpdateTask(ctx context.Context, taskID, ownerID string, p tasksvc.TaskPatch) (tasksvc.Task, error) {
	defer mw.observe("update_task", time.Now())
	return mw.next.UpdateTask(ctx, taskID, ownerID, p)
}

func (mw instrumentingMiddleware) DeleteTask(ctx context.Context, taskID, ownerID string) error {
	defer mw.observe("delete_task", time.Now())
	return mw.next.DeleteTask(ctx, taskID, ownerID)
}
