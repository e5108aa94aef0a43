package tasksvc

import (
	"context"
	"strings"
	"time"

	"github.com/ichigozero/taskmgr/apperror"
	"github.com/ichigozero/taskmgr/authsvc"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// StorageValue is the upper-case form persisted by the repositories.
func (s Status) StorageValue() string {
	return strings.ToUpper(string(s))
}

func StatusFromStorage(s string) Status {
	return Status(strings.ToLower(s))
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	// User is the owner's public identity.
	User *authsvc.Identity `json:"user,omitempty"`
}

type NewTask struct {
	Title       string
	Description string
	Status      Status
}

// TaskPatch holds the fields to change; nil means unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
}

type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByTitle     SortField = "title"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type ListQuery struct {
	Page      int
	Limit     int
	Status    *Status
	SortBy    SortField
	SortOrder SortOrder
}

// Filter is what the repository needs for one page of tasks.
type Filter struct {
	// UserID restricts the result to one owner; empty means every owner.
	UserID    string
	Status    *Status
	SortBy    SortField
	SortOrder SortOrder
	Offset    int
	Limit     int
}

// NewFilter turns q into a repository filter. An unknown sort field falls
// back to newest first.
func NewFilter(userID string, q ListQuery) Filter {
	f := Filter{
		UserID:    userID,
		Status:    q.Status,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
		Offset:    (q.Page - 1) * q.Limit,
		Limit:     q.Limit,
	}
	if f.SortBy != SortByCreatedAt && f.SortBy != SortByTitle {
		f.SortBy, f.SortOrder = SortByCreatedAt, SortDesc
	}
	if f.SortOrder != SortAsc {
		f.SortOrder = SortDesc
	}
	return f
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

func NewPagination(page, limit int, total int64) Pagination {
	var totalPages int
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

type TaskPage struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

// TaskRepository scopes every single-task operation by owner so that a task
// of another user is indistinguishable from a missing one.
type TaskRepository interface {
	Create(ctx context.Context, userID string, t NewTask) (Task, error)
	FindAll(ctx context.Context, f Filter) ([]Task, int64, error)
	Find(ctx context.Context, taskID, userID string) (Task, error)
	FindByID(ctx context.Context, taskID string) (Task, error)
	Update(ctx context.Context, taskID, userID string, p TaskPatch) (Task, error)
	Delete(ctx context.Context, taskID, userID string) error
}

var ErrTaskNotFound = apperror.New(apperror.NotFound, "task not found")
