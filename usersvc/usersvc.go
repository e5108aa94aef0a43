package usersvc

import (
	"context"
	"time"

	"github.com/ichigozero/taskmgr/apperror"
	"github.com/ichigozero/taskmgr/authsvc"
)

// DefaultRole is assigned when a registration names no role.
const DefaultRole = authsvc.RoleUser

type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Role         authsvc.Role `json:"role"`
	CreatedAt    time.Time    `json:"createdAt"`
}

func (u User) Identity() authsvc.Identity {
	return authsvc.Identity{ID: u.ID, Email: u.Email, Role: u.Role}
}

// Session is returned by register and login.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type Registration struct {
	Email    string
	Password string
	Role     authsvc.Role
}

type Credentials struct {
	Email    string
	Password string
}

// ProfilePatch holds the fields to change; nil means unchanged.
type ProfilePatch struct {
	Email    *string
	Password *string
}

// UserChanges is a ProfilePatch after password hashing.
type UserChanges struct {
	Email        *string
	PasswordHash *string
}

type UserRepository interface {
	// Create fails with ErrEmailTaken when the email is already stored.
	Create(ctx context.Context, u User) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	Update(ctx context.Context, id string, c UserChanges) (User, error)
	// FindAll orders by creation time, newest first.
	FindAll(ctx context.Context) ([]User, error)
}

var (
	ErrUserNotFound       = apperror.New(apperror.NotFound, "user not found")
	ErrEmailTaken         = apperror.New(apperror.Conflict, "user with this email already exists")
	ErrInvalidCredentials = apperror.New(apperror.Unauthorized, "invalid email or password")
)
