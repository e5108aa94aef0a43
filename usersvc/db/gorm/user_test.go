package gorm

import (
	"context"
	"testing"
	"time"

	"github.com/ichigozero/taskmgr/authsvc"
	"github.com/ichigozero/taskmgr/database/dbtest"
	"github.com/ichigozero/taskmgr/usersvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	db := dbtest.Open(t, Migrate)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, usersvc.User{Email: "a@example.com", PasswordHash: "hash", Role: authsvc.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, created.ID, 36)
	assert.Equal(t, authsvc.RoleAdmin, created.Role)
	assert.False(t, created.CreatedAt.IsZero())

	var stored UserRecord
	require.NoError(t, db.First(&stored, "id = ?", created.ID).Error)
	assert.Equal(t, "ADMIN", stored.Role)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", byID.Email)
	assert.Equal(t, "hash", byID.PasswordHash)

	byEmail, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	repo := NewUserRepository(dbtest.Open(t, Migrate))
	ctx := context.Background()

	_, err := repo.Create(ctx, usersvc.User{Email: "a@example.com", PasswordHash: "h", Role: authsvc.RoleUser})
	require.NoError(t, err)

	_, err = repo.Create(ctx, usersvc.User{Email: "a@example.com", PasswordHash: "h", Role: authsvc.RoleUser})
	assert.ErrorIs(t, err, usersvc.ErrEmailTaken)
}

func TestUserRepository_Update(t *testing.T) {
	repo := NewUserRepository(dbtest.Open(t, Migrate))
	ctx := context.Background()

	a, err := repo.Create(ctx, usersvc.User{Email: "a@example.com", PasswordHash: "old", Role: authsvc.RoleUser})
	require.NoError(t, err)
	_, err = repo.Create(ctx, usersvc.User{Email: "b@example.com", PasswordHash: "h", Role: authsvc.RoleUser})
	require.NoError(t, err)

	hash := "new"
	u, err := repo.Update(ctx, a.ID, usersvc.UserChanges{PasswordHash: &hash})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
	assert.Equal(t, "new", u.PasswordHash)

	email := "b@example.com"
	_, err = repo.Update(ctx, a.ID, usersvc.UserChanges{Email: &email})
	assert.ErrorIs(t, err, usersvc.ErrEmailTaken)

	email = "c@example.com"
	_, err = repo.Update(ctx, "missing", usersvc.UserChanges{Email: &email})
	assert.ErrorIs(t, err, usersvc.ErrUserNotFound)
}

func TestUserRepository_FindAllNewestFirst(t *testing.T) {
	db := dbtest.Open(t, Migrate)
	repo := NewUserRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, email := range []string{"old@example.com", "mid@example.com", "new@example.com"} {
		u, err := repo.Create(ctx, usersvc.User{Email: email, PasswordHash: "h", Role: authsvc.RoleUser})
		require.NoError(t, err)
		require.NoError(t, db.Model(&UserRecord{}).Where("id = ?", u.ID).
			Update("created_at", base.Add(time.Duration(i)*time.Hour)).Error)
	}

	users, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "new@example.com", users[0].Email)
	assert.Equal(t, "mid@example.com", users[1].Email)
	assert.Equal(t, "old@example.com", users[2].Email)
}
