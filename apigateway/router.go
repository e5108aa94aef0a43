package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-kit/kit/metrics"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/go-kit/log"
	"github.com/gorilla/mux"
	"github.com/ichigozero/taskmgr/authsvc/pkg/authservice"
	"github.com/ichigozero/taskmgr/config"
	"github.com/ichigozero/taskmgr/httpapi"
	taskgorm "github.com/ichigozero/taskmgr/tasksvc/db/gorm"
	"github.com/ichigozero/taskmgr/tasksvc/pkg/taskendpoint"
	"github.com/ichigozero/taskmgr/tasksvc/pkg/taskservice"
	"github.com/ichigozero/taskmgr/tasksvc/pkg/tasktransport"
	usergorm "github.com/ichigozero/taskmgr/usersvc/db/gorm"
	"github.com/ichigozero/taskmgr/usersvc/pkg/userendpoint"
	"github.com/ichigozero/taskmgr/usersvc/pkg/userservice"
	"github.com/ichigozero/taskmgr/usersvc/pkg/usertransport"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	libgorm "gorm.io/gorm"
)

const (
	version = "1.0.0"

	healthTimeout = 2 * time.Second
)

// NewHandler wires repositories, services, endpoints and transports on db
// and returns the complete HTTP surface behind the shared middlewares.
// Service metrics are registered with reg and exposed on /metrics.
func NewHandler(db *libgorm.DB, cfg config.Config, reg *stdprometheus.Registry, logger log.Logger) (http.Handler, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}

	var (
		tokens = authservice.NewTokenizer(cfg.JWTSecret, cfg.JWTExpiresIn)
		hasher = authservice.NewHasher(cfg.BcryptCost)
	)

	var userService userservice.Service
	{
		counter, latency := newInstruments(reg, "user_service")
		userService = userservice.New(usergorm.NewUserRepository(db), hasher, tokens, log.With(logger, "component", "userservice"))
		userService = userservice.InstrumentingMiddleware(counter, latency)(userService)
	}

	var taskService taskservice.Service
	{
		counter, latency := newInstruments(reg, "task_service")
		taskService = taskservice.New(taskgorm.NewTaskRepository(db), log.With(logger, "component", "taskservice"))
		taskService = taskservice.InstrumentingMiddleware(counter, latency)(taskService)
	}

	var (
		userHandler = usertransport.NewHTTPHandler(
			userendpoint.New(userService, log.With(logger, "component", "userendpoint")),
			tokens,
			log.With(logger, "component", "usertransport"),
		)
		taskHandler = tasktransport.NewHTTPHandler(
			taskendpoint.New(taskService, log.With(logger, "component", "taskendpoint")),
			tokens,
			log.With(logger, "component", "tasktransport"),
		)
	)

	r := mux.NewRouter()

	r.Methods("GET").Path("/").Handler(httpapi.RootHandler(version))
	r.Methods("GET").Path("/health").Handler(httpapi.HealthHandler(
		httpapi.NewHealthEndpoint(sqlDB, healthTimeout),
		log.With(logger, "component", "health"),
	))
	r.Methods("GET").Path("/metrics").Handler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.PathPrefix("/api/auth").Handler(userHandler)
	r.PathPrefix("/api/users").Handler(userHandler)
	r.PathPrefix("/api/tasks").Handler(taskHandler)

	r.NotFoundHandler = httpapi.NotFoundHandler()
	r.MethodNotAllowedHandler = httpapi.NotFoundHandler()

	var h http.Handler = r
	{
		h = httpapi.LimitBody(httpapi.MaxBodyBytes)(h)
		h = httpapi.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow).Handler(h)
		h = httpapi.CORS(cfg.AllowedOrigins)(h)
		h = httpapi.SecurityHeaders(h)
		h = httpapi.Recover(log.With(logger, "component", "http"))(h)
	}
	return h, nil
}

func newInstruments(reg stdprometheus.Registerer, subsystem string) (metrics.Counter, metrics.Histogram) {
	fieldKeys := []string{"method"}

	count := stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
		Namespace: "api",
		Subsystem: subsystem,
		Name:      "request_count",
		Help:      "Number of requests received.",
	}, fieldKeys)
	latency := stdprometheus.NewSummaryVec(stdprometheus.SummaryOpts{
		Namespace: "api",
		Subsystem: subsystem,
		Name:      "request_latency_seconds",
		Help:      "Total duration of requests in seconds.",
	}, fieldKeys)
	reg.MustRegister(count, latency)

	return kitprometheus.NewCounter(count), kitprometheus.NewSummary(latency)
}
