package authsvc

import (
	"context"
	"strings"

	"github.com/ichigozero/taskmgr/apperror"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// StorageValue is the upper-case form persisted by the repositories.
func (r Role) StorageValue() string {
	return strings.ToUpper(string(r))
}

func RoleFromStorage(s string) Role {
	return Role(strings.ToLower(s))
}

// Identity is the caller identity carried by an access token.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type contextKey string

const IdentityContextKey contextKey = "Identity"

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(Identity)
	return id, ok
}

var (
	ErrTokenMissing = apperror.New(apperror.Unauthorized, "access token is missing")
	ErrTokenInvalid = apperror.New(apperror.Unauthorized, "invalid access token")
	ErrUnauthorized = apperror.New(apperror.Unauthorized, "user is not authenticated")
	ErrForbidden    = apperror.New(apperror.Forbidden, "insufficient permissions")
)
