package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-kit/log"
	"github.com/ichigozero/taskmgr/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *ErrorBody      `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

type createdResponse struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
}

func (r createdResponse) Failed() error   { return r.Err }
func (r createdResponse) StatusCode() int { return http.StatusCreated }
func (r createdResponse) Message() string { return "created" }

func TestResponseEncoder(t *testing.T) {
	enc := NewResponseEncoder(log.NewNopLogger())

	rec := httptest.NewRecorder()
	require.NoError(t, enc(context.Background(), rec, createdResponse{ID: "1"}))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "created", env.Message)
	assert.JSONEq(t, `{"id":"1"}`, string(env.Data))
	assert.Nil(t, env.Error)

	rec = httptest.NewRecorder()
	require.NoError(t, enc(context.Background(), rec, createdResponse{Err: apperror.New(apperror.NotFound, "task not found")}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"task not found"}}`, rec.Body.String())
}

func TestErrorEncoder_HidesInternalErrors(t *testing.T) {
	var buf strings.Builder
	enc := NewErrorEncoder(log.NewLogfmtLogger(&buf))

	rec := httptest.NewRecorder()
	enc(context.Background(), errors.New("pq: password authentication failed"), rec)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"internal server error"}}`, rec.Body.String())
	assert.Contains(t, buf.String(), "password authentication failed")
}

func TestReadBody_TooLarge(t *testing.T) {
	var got error
	h := LimitBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, got = ReadBody(r)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))
	assert.ErrorIs(t, got, ErrBodyTooLarge)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apperror.StatusCode(got))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")))
	assert.NoError(t, got)
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"route not found"}}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(RootHandler("1.0.0"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecover(t *testing.T) {
	var buf strings.Builder
	h := Recover(log.NewLogfmtLogger(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "kaboom")
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(3, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	now = now.Add(20 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	now = now.Add(2 * time.Minute)
	l.Allow("10.0.0.3")
	assert.NotContains(t, l.clients, "10.0.0.1")
}

func TestRateLimiter_Handler(t *testing.T) {
	h := NewRateLimiter(1, time.Hour).Handler(RootHandler("1.0.0"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, ErrTooManyRequests.Message, env.Error.Message)
}

func TestRootHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	RootHandler("1.0.0").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"version":"1.0.0"}`, string(env.Data))
}

func TestHealthHandler(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	h := HealthHandler(NewHealthEndpoint(db, time.Second), log.NewNopLogger())

	mock.ExpectPing()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"status":"healthy"`)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"message":"database unavailable"}}`, rec.Body.String())

	assert.NoError(t, mock.ExpectationsWereMet())
}
