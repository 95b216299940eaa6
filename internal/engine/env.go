package engine

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotenv loads a .env file when present. Missing files are fine;
// production deployments set the environment directly.
func LoadDotenv() {
	if err := godotenv.Load(); err == nil {
		slog.Debug("env: loaded .env file")
	}
}

// EnvStr returns the env value or def when unset/empty.
func EnvStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvInt returns the env value parsed as int, or def on unset/garbage.
func EnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("env: invalid int, using default", slog.String("key", key), slog.String("value", v))
		return def
	}
	return n
}

// EnvFloat returns the env value parsed as float64, or def on unset/garbage.
func EnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("env: invalid float, using default", slog.String("key", key), slog.String("value", v))
		return def
	}
	return f
}

// EnvDur returns the env value parsed as a duration, or def.
func EnvDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("env: invalid duration, using default", slog.String("key", key), slog.String("value", v))
		return def
	}
	return d
}

// EnvList splits a comma-separated env value, trimming blanks.
func EnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
