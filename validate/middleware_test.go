package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawName struct {
	Body []byte
	Name string
}

func (r rawName) Normalize() (interface{}, error) {
	f, err := Object(r.Body)
	if err != nil {
		return nil, err
	}

	var vs Violations
	name := f.String("name", &vs)
	if name == nil {
		vs.Add("name is required")
	}
	if err := vs.Err(); err != nil {
		return nil, err
	}

	r.Name = *name
	return r, nil
}

func TestMiddleware(t *testing.T) {
	var got interface{}
	e := Middleware()(func(_ context.Context, request interface{}) (interface{}, error) {
		got = request
		return "ok", nil
	})

	resp, err := e(context.Background(), rawName{Body: []byte(`{"name":"x"}`)})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "x", got.(rawName).Name)

	got = nil
	_, err = e(context.Background(), rawName{Body: []byte(`{}`)})
	assert.EqualError(t, err, "name is required")
	assert.Nil(t, got)

	_, err = e(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}
