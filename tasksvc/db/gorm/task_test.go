package gorm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ichigozero/taskmgr/authsvc"
	"github.com/ichigozero/taskmgr/database/dbtest"
	"github.com/ichigozero/taskmgr/tasksvc"
	"github.com/ichigozero/taskmgr/usersvc"
	usergorm "github.com/ichigozero/taskmgr/usersvc/db/gorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stdgorm "gorm.io/gorm"
)

type fixture struct {
	db    *stdgorm.DB
	repo  tasksvc.TaskRepository
	alice usersvc.User
	bob   usersvc.User
}

func newFixture(t *testing.T) fixture {
	db := dbtest.Open(t, usergorm.Migrate, Migrate)
	users := usergorm.NewUserRepository(db)

	alice, err := users.Create(context.Background(), usersvc.User{Email: "alice@example.com", PasswordHash: "h", Role: authsvc.RoleUser})
	require.NoError(t, err)
	bob, err := users.Create(context.Background(), usersvc.User{Email: "bob@example.com", PasswordHash: "h", Role: authsvc.RoleAdmin})
	require.NoError(t, err)

	return fixture{db: db, repo: NewTaskRepository(db), alice: alice, bob: bob}
}

func TestTaskRepository_Create(t *testing.T) {
	f := newFixture(t)

	task, err := f.repo.Create(context.Background(), f.alice.ID, tasksvc.NewTask{Title: "t", Description: "d", Status: tasksvc.StatusInProgress})
	require.NoError(t, err)
	assert.Len(t, task.ID, 36)
	assert.Equal(t, tasksvc.StatusInProgress, task.Status)
	assert.Equal(t, f.alice.ID, task.UserID)
	require.NotNil(t, task.User)
	assert.Equal(t, authsvc.Identity{ID: f.alice.ID, Email: "alice@example.com", Role: authsvc.RoleUser}, *task.User)

	var stored taskRecord
	require.NoError(t, f.db.First(&stored, "id = ?", task.ID).Error)
	assert.Equal(t, "IN_PROGRESS", stored.Status)
}

func TestTaskRepository_CreateUnknownOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.Create(context.Background(), "no-such-user", tasksvc.NewTask{Title: "t", Description: "d", Status: tasksvc.StatusTodo})
	assert.Error(t, err)
}

func TestTaskRepository_Ownership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.repo.Create(ctx, f.alice.ID, tasksvc.NewTask{Title: "t", Description: "d", Status: tasksvc.StatusTodo})
	require.NoError(t, err)

	_, err = f.repo.Find(ctx, task.ID, f.alice.ID)
	assert.NoError(t, err)
	_, err = f.repo.Find(ctx, task.ID, f.bob.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)
	_, err = f.repo.Find(ctx, "missing", f.alice.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)

	title := "stolen"
	_, err = f.repo.Update(ctx, task.ID, f.bob.ID, tasksvc.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)
	assert.ErrorIs(t, f.repo.Delete(ctx, task.ID, f.bob.ID), tasksvc.ErrTaskNotFound)

	byID, err := f.repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", byID.Title)

	require.NoError(t, f.repo.Delete(ctx, task.ID, f.alice.ID))
	_, err = f.repo.FindByID(ctx, task.ID)
	assert.ErrorIs(t, err, tasksvc.ErrTaskNotFound)
}

func TestTaskRepository_UpdatePartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.repo.Create(ctx, f.alice.ID, tasksvc.NewTask{Title: "t", Description: "d", Status: tasksvc.StatusTodo})
	require.NoError(t, err)

	done := tasksvc.StatusDone
	updated, err := f.repo.Update(ctx, task.ID, f.alice.ID, tasksvc.TaskPatch{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, tasksvc.StatusDone, updated.Status)
	assert.Equal(t, "t", updated.Title)
	assert.Equal(t, "d", updated.Description)
	assert.NotNil(t, updated.User)
}

func TestTaskRepository_FindAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		status := tasksvc.StatusTodo
		if i%5 == 0 {
			status = tasksvc.StatusDone
		}
		task, err := f.repo.Create(ctx, f.alice.ID, tasksvc.NewTask{Title: fmt.Sprintf("task %02d", i), Description: "d", Status: status})
		require.NoError(t, err)
		require.NoError(t, f.db.Model(&taskRecord{}).Where("id = ?", task.ID).
			Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}
	_, err := f.repo.Create(ctx, f.bob.ID, tasksvc.NewTask{Title: "bob's", Description: "d", Status: tasksvc.StatusTodo})
	require.NoError(t, err)

	tasks, total, err := f.repo.FindAll(ctx, tasksvc.Filter{UserID: f.alice.ID, SortBy: tasksvc.SortByCreatedAt, SortOrder: tasksvc.SortDesc, Offset: 10, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	require.Len(t, tasks, 10)
	assert.Equal(t, "task 14", tasks[0].Title)
	assert.Equal(t, "task 05", tasks[9].Title)
	assert.NotNil(t, tasks[0].User)

	tasks, total, err = f.repo.FindAll(ctx, tasksvc.Filter{UserID: f.alice.ID, SortBy: tasksvc.SortByTitle, SortOrder: tasksvc.SortAsc, Limit: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	assert.Equal(t, "task 00", tasks[0].Title)
	assert.Equal(t, "task 02", tasks[2].Title)

	done := tasksvc.StatusDone
	tasks, total, err = f.repo.FindAll(ctx, tasksvc.Filter{UserID: f.alice.ID, Status: &done, SortBy: tasksvc.SortByCreatedAt, SortOrder: tasksvc.SortAsc, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, tasks, 5)
	for _, task := range tasks {
		assert.Equal(t, tasksvc.StatusDone, task.Status)
	}

	_, total, err = f.repo.FindAll(ctx, tasksvc.Filter{SortBy: tasksvc.SortByCreatedAt, Limit: 100})
	require.NoError(t, err)
	assert.EqualValues(t, 26, total)
}
