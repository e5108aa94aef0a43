package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/ichigozero/taskmgr/config"
	"github.com/ichigozero/taskmgr/database"
	taskgorm "github.com/ichigozero/taskmgr/tasksvc/db/gorm"
	usergorm "github.com/ichigozero/taskmgr/usersvc/db/gorm"
	"github.com/oklog/oklog/pkg/group"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load("apigateway", os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
		if cfg.Env == config.EnvProduction {
			logger = level.NewFilter(logger, level.AllowInfo())
		}
	}

	for _, w := range cfg.Warnings {
		level.Warn(logger).Log("msg", w)
	}

	db, err := database.Open(cfg.DatabaseURL, logger)
	if err != nil {
		level.Error(logger).Log("during", "Open", "err", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db, usergorm.Migrate, taskgorm.Migrate); err != nil {
		level.Error(logger).Log("during", "Migrate", "err", err)
		os.Exit(1)
	}

	reg := stdprometheus.NewRegistry()
	reg.MustRegister(
		stdprometheus.NewGoCollector(),
		stdprometheus.NewProcessCollector(stdprometheus.ProcessCollectorOpts{}),
	)

	handler, err := NewHandler(db, cfg, reg, logger)
	if err != nil {
		level.Error(logger).Log("during", "NewHandler", "err", err)
		os.Exit(1)
	}

	var g group.Group
	{
		httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			level.Error(logger).Log("transport", "HTTP", "during", "Listen", "err", err)
			os.Exit(1)
		}
		srv := &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Add(func() error {
			level.Info(logger).Log("transport", "HTTP", "addr", cfg.HTTPAddr, "env", cfg.Env)
			if err := srv.Serve(httpListener); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				level.Error(logger).Log("transport", "HTTP", "during", "Shutdown", "err", err)
			}
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	logger.Log("exit", g.Run())
}
