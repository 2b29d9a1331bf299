package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	HTTPTimeout time.Duration
	LogLevel    slog.Level

	DatastoreURL string
	DatastoreKey string
	ClientsFile  string

	RedisURL string
	CacheTTL time.Duration

	SinkURL    string
	SinkSecret string

	InfluenceFactor float64
	BaselinePoints  int
	SpikeThreshold  float64

	CORSOrigins []string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() Config {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return Config{
		Port:            envOr("PORT", "8080"),
		HTTPTimeout:     seconds("HTTP_TIMEOUT_SECONDS", 15*time.Second),
		LogLevel:        lvl,
		DatastoreURL:    strings.TrimRight(os.Getenv("DATASTORE_URL"), "/"),
		DatastoreKey:    os.Getenv("DATASTORE_KEY"),
		ClientsFile:     os.Getenv("CLIENTS_FILE"),
		RedisURL:        os.Getenv("REDIS_URL"),
		CacheTTL:        seconds("CACHE_TTL_SECONDS", 5*time.Minute),
		SinkURL:         os.Getenv("SINK_URL"),
		SinkSecret:      os.Getenv("SINK_SECRET"),
		InfluenceFactor: floatOr("INFLUENCE_FACTOR", 0.25),
		BaselinePoints:  intOr("BASELINE_POINTS", 14),
		SpikeThreshold:  floatOr("SPIKE_THRESHOLD", 2.0),
		CORSOrigins:     csv(envOr("CORS_ORIGINS", "*")),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func seconds(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func floatOr(k string, def float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func intOr(k string, def int) int {
	i, err := strconv.Atoi(os.Getenv(k))
	if err != nil || i <= 0 {
		return def
	}
	return i
}

func csv(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
