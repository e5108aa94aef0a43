package usersvc

import (
	"testing"

	"github.com/ichigozero/taskmgr/apperror"
	"github.com/ichigozero/taskmgr/authsvc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegistration(t *testing.T) {
	r, err := ParseRegistration([]byte(`{"email":"a@example.com","password":"secret","extra":true}`))
	require.NoError(t, err)
	assert.Equal(t, Registration{Email: "a@example.com", Password: "secret", Role: authsvc.RoleUser}, r)

	r, err = ParseRegistration([]byte(`{"email":"a@example.com","password":"secret","role":"admin"}`))
	require.NoError(t, err)
	assert.Equal(t, authsvc.RoleAdmin, r.Role)
}

func TestParseRegistration_Violations(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", `{}`, "email is required, password is required"},
		{"bad email short password", `{"email":"nope","password":"12345"}`, "email must be a valid email, password must be at least 6 characters long"},
		{"bad role", `{"email":"a@example.com","password":"secret","role":"root"}`, "role must be one of [user, admin]"},
		{"wrong types", `{"email":1,"password":"secret"}`, "email must be a string, email is required"},
		{"not an object", `[1,2]`, "request body must be a JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistration([]byte(tt.body))
			require.Error(t, err)
			assert.Equal(t, apperror.Validation, apperror.KindOf(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestParseCredentials(t *testing.T) {
	c, err := ParseCredentials([]byte(`{"email":"a@example.com","password":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, Credentials{Email: "a@example.com", Password: "x"}, c)

	_, err = ParseCredentials([]byte(`{"email":"a@example.com"}`))
	assert.EqualError(t, err, "password is required")

	_, err = ParseCredentials([]byte(`{"password":"x","email":"bad"}`))
	assert.EqualError(t, err, "email must be a valid email")
}

func TestParseProfilePatch(t *testing.T) {
	p, err := ParseProfilePatch([]byte(`{"email":"new@example.com"}`))
	require.NoError(t, err)
	require.NotNil(t, p.Email)
	assert.Equal(t, "new@example.com", *p.Email)
	assert.Nil(t, p.Password)

	p, err = ParseProfilePatch([]byte(`{"password":"longenough"}`))
	require.NoError(t, err)
	assert.Nil(t, p.Email)
	require.NotNil(t, p.Password)

	_, err = ParseProfilePatch([]byte(`{}`))
	assert.EqualError(t, err, "at least one of email or password must be provided")

	_, err = ParseProfilePatch([]byte(`{"role":"admin"}`))
	assert.EqualError(t, err, "at least one of email or password must be provided")

	_, err = ParseProfilePatch([]byte(`{"email":"bad","password":"123"}`))
	assert.EqualError(t, err, "email must be a valid email, password must be at least 6 characters long")
}
