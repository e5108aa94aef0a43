package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	libgorm "gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type gormLogger struct {
	logger        log.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

// NewLogger adapts logger to gorm. Failed statements are logged at error
// level and statements slower than slowThreshold at warn level; missing
// records are not errors.
func NewLogger(logger log.Logger, slowThreshold time.Duration) gormlogger.Interface {
	return &gormLogger{
		logger:        log.With(logger, "component", "gorm"),
		level:         gormlogger.Warn,
		slowThreshold: slowThreshold,
	}
}

func (l *gormLogger) LogMode(lv gormlogger.LogLevel) gormlogger.Interface {
	nl := *l
	nl.level = lv
	return &nl
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		level.Info(l.logger).Log("msg", fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		level.Warn(l.logger).Log("msg", fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		level.Error(l.logger).Log("msg", fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	took := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, libgorm.ErrRecordNotFound):
		sql, rows := fc()
		level.Error(l.logger).Log("sql", sql, "rows", rows, "took", took, "err", err)
	case l.slowThreshold > 0 && took > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		level.Warn(l.logger).Log("msg", "slow query", "sql", sql, "rows", rows, "took", took)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		level.Debug(l.logger).Log("sql", sql, "rows", rows, "took", took)
	}
}
