package tasksvc

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ichigozero/taskmgr/validate"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit within int range.
	MaxPage = math.MaxInt32
)

const statusChoices = "[todo, in_progress, done]"

// ParseNewTask validates a create body; strings are trimmed and status
// defaults to todo.
func ParseNewTask(body []byte) (NewTask, error) {
	f, err := validate.Object(body)
	if err != nil {
		return NewTask{}, err
	}

	var vs validate.Violations
	title := f.String("title", &vs)
	description := f.String("description", &vs)
	status := f.String("status", &vs)

	t := NewTask{Status: StatusTodo}
	if title == nil {
		vs.Add("title is required")
	} else {
		t.Title = checkTitle(*title, &vs)
	}
	if description == nil {
		vs.Add("description is required")
	} else {
		t.Description = checkDescription(*description, &vs)
	}
	if status != nil {
		t.Status = checkStatus(*status, &vs)
	}

	if err := vs.Err(); err != nil {
		return NewTask{}, err
	}
	return t, nil
}

// ParseTaskPatch requires at least one of title, description or status.
func ParseTaskPatch(body []byte) (TaskPatch, error) {
	f, err := validate.Object(body)
	if err != nil {
		return TaskPatch{}, err
	}

	var vs validate.Violations
	if !f.Has("title", "description", "status") {
		vs.Add("at least one of title, description or status must be provided")
		return TaskPatch{}, vs.Err()
	}

	var p TaskPatch
	if title := f.String("title", &vs); title != nil {
		s := checkTitle(*title, &vs)
		p.Title = &s
	}
	if description := f.String("description", &vs); description != nil {
		s := checkDescription(*description, &vs)
		p.Description = &s
	}
	if status := f.String("status", &vs); status != nil {
		s := checkStatus(*status, &vs)
		p.Status = &s
	}

	if err := vs.Err(); err != nil {
		return TaskPatch{}, err
	}
	return p, nil
}

// ParseListQuery validates list parameters and applies their defaults.
// Unknown keys are ignored.
func ParseListQuery(q url.Values) (ListQuery, error) {
	var vs validate.Violations
	lq := ListQuery{
		Page:      queryInt(q, "page", DefaultPage, 1, MaxPage, &vs),
		Limit:     queryInt(q, "limit", DefaultLimit, 1, MaxLimit, &vs),
		SortBy:    SortByCreatedAt,
		SortOrder: SortDesc,
	}

	if s, ok := queryString(q, "status"); ok {
		st := checkStatus(s, &vs)
		lq.Status = &st
	}
	if s, ok := queryString(q, "sortBy"); ok {
		switch SortField(s) {
		case SortByCreatedAt, SortByTitle:
			lq.SortBy = SortField(s)
		default:
			vs.Add("sortBy must be one of [createdAt, title]")
		}
	}
	if s, ok := queryString(q, "sortOrder"); ok {
		switch SortOrder(s) {
		case SortAsc, SortDesc:
			lq.SortOrder = SortOrder(s)
		default:
			vs.Add("sortOrder must be one of [asc, desc]")
		}
	}

	if err := vs.Err(); err != nil {
		return ListQuery{}, err
	}
	return lq, nil
}

func checkTitle(s string, vs *validate.Violations) string {
	s = strings.TrimSpace(s)
	switch n := utf8.RuneCountInString(s); {
	case n == 0:
		vs.Add("title cannot be empty")
	case n > MaxTitleLength:
		vs.Add("title must not exceed 200 characters")
	}
	return s
}

func checkDescription(s string, vs *validate.Violations) string {
	s = strings.TrimSpace(s)
	switch n := utf8.RuneCountInString(s); {
	case n == 0:
		vs.Add("description cannot be empty")
	case n > MaxDescriptionLength:
		vs.Add("description must not exceed 1000 characters")
	}
	return s
}

func checkStatus(s string, vs *validate.Violations) Status {
	st := Status(s)
	if !st.Valid() {
		vs.Add("status must be one of " + statusChoices)
	}
	return st
}

func queryString(q url.Values, key string) (string, bool) {
	if _, ok := q[key]; !ok {
		return "", false
	}
	return q.Get(key), true
}

// queryInt reads an integer parameter within [min, max].
func queryInt(q url.Values, key string, def, min, max int, vs *validate.Violations) int {
	s, ok := queryString(q, key)
	if !ok {
		return def
	}

	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || s == "" {
		vs.Add(key + " must be a number")
		return def
	}
	if math.IsNaN(f) || f != math.Trunc(f) {
		vs.Add(key + " must be an integer")
		return def
	}
	if f < float64(min) {
		vs.Add(key + " must be greater than or equal to " + strconv.Itoa(min))
		return def
	}
	if f > float64(max) {
		vs.Add(key + " must be less than or equal to " + strconv.Itoa(max))
		return def
	}
	return int(f)
}
