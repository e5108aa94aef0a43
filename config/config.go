package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	DefaultJWTSecret = "development-secret-key-change-in-production"
)

type Config struct {
	HTTPAddr    string
	Env         string
	DatabaseURL string

	JWTSecret    string
	JWTExpiresIn time.Duration

	AllowedOrigins []string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	BcryptCost int

	// Warnings lists non-fatal problems found while loading.
	Warnings []string
}

// Load parses args on top of environment defaults. Missing DATABASE_URL or
// JWT_SECRET is fatal in production and a warning otherwise.
func Load(name string, args []string, output io.Writer) (Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	var (
		httpAddr = fs.String(
			"http.addr",
			getEnv("HTTP_ADDR", portAddr(getEnv("PORT", "3000"))),
			"HTTP listen address",
		)
		appEnv = fs.String(
			"app.env",
			getEnv("APP_ENV", EnvDevelopment),
			"application environment (development, test, production)",
		)
		databaseURL = fs.String(
			"database.url",
			getEnv("DATABASE_URL", ""),
			"Database URL; empty selects a local sqlite file",
		)
		jwtSecret = fs.String(
			"jwt.secret",
			getEnv("JWT_SECRET", ""),
			"JWT signing secret",
		)
		jwtExpiresIn = fs.String(
			"jwt.expires-in",
			getEnv("JWT_EXPIRES_IN", "7d"),
			"JWT lifetime (Go duration or Nd)",
		)
		corsOrigins = fs.String(
			"cors.origins",
			getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
			"comma separated list of allowed CORS origins",
		)
		rateLimitRequests = fs.Int(
			"ratelimit.requests",
			getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
			"requests allowed per client IP per window",
		)
		rateLimitWindow = fs.String(
			"ratelimit.window",
			getEnv("RATE_LIMIT_WINDOW", "15m"),
			"rate limit window",
		)
		bcryptCost = fs.Int(
			"bcrypt.cost",
			getEnvAsInt("BCRYPT_COST", 12),
			"bcrypt work factor",
		)
	)

	fs.Usage = usageFor(fs, name+" [flags]")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr:          *httpAddr,
		Env:               *appEnv,
		DatabaseURL:       *databaseURL,
		JWTSecret:         *jwtSecret,
		AllowedOrigins:    splitList(*corsOrigins),
		RateLimitRequests: *rateLimitRequests,
		BcryptCost:        *bcryptCost,
	}

	switch cfg.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return Config{}, fmt.Errorf("invalid app env %q: must be development, test, or production", cfg.Env)
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
		cfg.JWTSecret = DefaultJWTSecret
	}
	if len(missing) > 0 {
		if cfg.Env == EnvProduction {
			return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
		}
		for _, m := range missing {
			cfg.Warnings = append(cfg.Warnings, "missing environment variable "+m)
		}
	}

	var err error
	if cfg.JWTExpiresIn, err = ParseDuration(*jwtExpiresIn); err != nil {
		return Config{}, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}
	if cfg.RateLimitWindow, err = ParseDuration(*rateLimitWindow); err != nil {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_WINDOW: %w", err)
	}
	if cfg.RateLimitRequests < 1 {
		return Config{}, errors.New("rate limit requests must be positive")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return Config{}, fmt.Errorf("bcrypt cost %d out of range [4, 31]", cfg.BcryptCost)
	}

	return cfg, nil
}

// ParseDuration accepts everything time.ParseDuration does plus a whole
// number of days written as "Nd".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("malformed day duration %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, "USAGE\n")
		fmt.Fprintf(w, "  %s\n", short)
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "FLAGS\n")
		tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(tw, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		tw.Flush()
		fmt.Fprintf(w, "\n")
	}
}

func portAddr(port string) string {
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
