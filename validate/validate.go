// Package validate holds the building blocks of the request parsers: access
// to the fields of a JSON object body and a collector that reports every
// violation at once.
package validate

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ichigozero/taskmgr/apperror"
)

var v = validator.New()

// Email reports whether s is syntactically an email address.
func Email(s string) bool {
	return v.Var(s, "required,email") == nil
}

// Violations accumulates human readable rule violations.
type Violations []string

func (vs *Violations) Add(msg string) {
	*vs = append(*vs, msg)
}

// Err returns nil when nothing was added, otherwise a validation error
// joining all messages.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	return apperror.NewValidation(strings.Join(vs, ", "))
}

var ErrNotObject = apperror.NewValidation("request body must be a JSON object")

// Fields are the top-level members of a JSON object body.
type Fields map[string]json.RawMessage

// Object decodes body as a JSON object. An empty body is an empty object.
func Object(body []byte) (Fields, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Fields{}, nil
	}

	var f Fields
	if err := json.Unmarshal(body, &f); err != nil || f == nil {
		return nil, ErrNotObject
	}
	return f, nil
}

// String returns the named member as a string. Absent and null members
// yield nil. A member of another type records a violation and yields nil.
func (f Fields) String(name string, vs *Violations) *string {
	raw, ok := f[name]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		vs.Add(name + " must be a string")
		return nil
	}
	return &s
}

// Has reports whether any of names is present and not null.
func (f Fields) Has(names ...string) bool {
	for _, n := range names {
		if raw, ok := f[n]; ok && string(bytes.TrimSpace(raw)) != "null" {
			return true
		}
	}
	return false
}
