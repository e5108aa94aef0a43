package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/ratelimit"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/ichigozero/taskmgr/database"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// NotFoundHandler answers unknown routes with a 404 envelope.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, ErrRouteNotFound)
	})
}

type rootResponse struct {
	Version string `json:"version"`
}

func (rootResponse) Message() string { return "task management API is running" }

// RootHandler identifies the running API.
func RootHandler(version string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, Envelope{
			Success: true,
			Message: rootResponse{}.Message(),
			Data:    rootResponse{Version: version},
		})
	})
}

var ErrDatabaseUnavailable = errors.New("database unavailable")

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// NewHealthEndpoint pings the database behind a circuit breaker, so a
// database that keeps failing is reported without being hit on every probe.
func NewHealthEndpoint(p database.Pinger, timeout time.Duration) endpoint.Endpoint {
	var e endpoint.Endpoint
	{
		e = func(ctx context.Context, _ interface{}) (interface{}, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			if err := database.Health(ctx, p); err != nil {
				return nil, err
			}
			return healthResponse{Status: "healthy", Timestamp: time.Now().UTC()}, nil
		}
		e = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "database",
			Timeout: 30 * time.Second,
		}))(e)
		e = ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(100*time.Millisecond), 10))(e)
	}
	return e
}

// HealthHandler serves e, answering 503 when it fails.
func HealthHandler(e endpoint.Endpoint, logger log.Logger) http.Handler {
	return httptransport.NewServer(
		e,
		httptransport.NopRequestDecoder,
		NewResponseEncoder(logger),
		httptransport.ServerErrorEncoder(func(_ context.Context, err error, w http.ResponseWriter) {
			if errors.Is(err, ratelimit.ErrLimited) {
				WriteError(w, ErrTooManyRequests)
				return
			}
			level.Warn(logger).Log("msg", "health check failed", "err", err)
			WriteJSON(w, http.StatusServiceUnavailable, Envelope{
				Error: &ErrorBody{Message: ErrDatabaseUnavailable.Error()},
			})
		}),
	)
}
