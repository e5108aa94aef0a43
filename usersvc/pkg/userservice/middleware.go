package userservice

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/log"
	"github.com/ichigozero/taskmgr/usersvc"
)

type Middleware func(Service) Service

// LoggingMiddleware logs every call. Passwords and tokens are never logged.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) Register(ctx context.Context, r usersvc.Registration) (s usersvc.Session, err error) {
	defer func() {
		mw.logger.Log("method", "Register", "email", r.Email, "role", r.Role, "id", s.User.ID, "err", err)
	}()
	return mw.next.Register(ctx, r)
}

func (mw loggingMiddleware) Login(ctx context.Context, c usersvc.Credentials) (s usersvc.Session, err error) {
	defer func() {
		mw.logger.Log("method", "Login", "email", c.Email, "id", s.User.ID, "err", err)
	}()
	return mw.next.Login(ctx, c)
}

func (mw loggingMiddleware) User(ctx context.Context, id string) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "User", "id", id, "err", err)
	}()
	return mw.next.User(ctx, id)
}

func (mw loggingMiddleware) UpdateUser(ctx context.Context, id string, p usersvc.ProfilePatch) (u usersvc.User, err error) {
	defer func() {
		mw.logger.Log(
			"method", "UpdateUser",
			"id", id,
			"email_changed", p.Email != nil,
			"password_changed", p.Password != nil,
			"err", err,
		)
	}()
	return mw.next.UpdateUser(ctx, id, p)
}

func (mw loggingMiddleware) Users(ctx context.Context) (us []usersvc.User, err error) {
	defer func() {
		mw.logger.Log("method", "Users", "count", len(us), "err", err)
	}()
	return mw.next.Users(ctx)
}

func InstrumentingMiddleware(counter metrics.Counter, latency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{counter, latency, next}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) observe(method string, begin time.Time) {
	mw.requestCount.With("method", method).Add(1)
	mw.requestLatency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mw instrumentingMiddleware) Register(ctx context.Context, r usersvc.Registration) (usersvc.Session, error) {
	defer mw.observe("register", time.Now())
	return mw.next.Register(ctx, r)
}

func (mw instrumentingMiddleware) Login(ctx context.Context, c usersvc.Credentials) (usersvc.Session, error) {
	defer mw.observe("login", time.Now())
	return mw.next.Login(ctx, c)
}

func (mw instrumentingMiddleware) User(ctx context.Context, id string) (usersvc.User, error) {
	defer mw.observe("user", time.Now())
	return mw.next.User(ctx, id)
}

func (mw instrumentingMiddleware) UpdateUser(ctx context.Context, id string, p usersvc.ProfilePatch) (usersvc.User, error) {
	defer mw.observe("update_user", time.Now())
	return mw.next.UpdateUser(ctx, id, p)
}

func (mw instrumentingMiddleware) Users(ctx context.Context) ([]usersvc.User, error) {
	defer mw.observe("users", time.Now())
	return mw.next.Users(ctx)
}
