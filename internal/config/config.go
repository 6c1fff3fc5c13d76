// Package config reads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig configures cmd/server.
type ServerConfig struct {
	Addr           string
	TickEvery      time.Duration
	Seed           int64
	StartingCash   float64
	TrendEvalEvery int64
	TrendShockProb float64
	EventLogSize   int
	BotCount       int
	LogLevel       string
}

// CLIConfig configures the pmx client.
type CLIConfig struct {
	APIBaseURL string
}

// LoadServerFromEnv builds the server config. PORT wins over
// PM_API_ADDR for platform compatibility.
func LoadServerFromEnv() ServerConfig {
	addr := strings.TrimSpace(os.Getenv("PORT"))
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("PM_API_ADDR", ":8080")
	}

	return ServerConfig{
		Addr:           addr,
		TickEvery:      envDurationDefault("PM_TICK_EVERY", 2*time.Second),
		Seed:           envInt64Default("PM_SEED", 0),
		StartingCash:   envFloatDefault("PM_STARTING_CASH", 10_000),
		TrendEvalEvery: envInt64Default("PM_TREND_EVAL_EVERY", 10),
		TrendShockProb: envFloatDefault("PM_TREND_SHOCK_PROB", 0.02),
		EventLogSize:   int(envInt64Default("PM_EVENT_LOG_SIZE", 256)),
		BotCount:       int(envInt64Default("PM_BOT_COUNT", 0)),
		LogLevel:       envDefault("PM_LOG_LEVEL", "info"),
	}
}

// LoadCLIFromEnv builds the client config.
func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL: strings.TrimRight(envDefault("PM_API_BASE_URL", "http://localhost:8080"), "/"),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt64Default(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
