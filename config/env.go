package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings loaded from the environment (and an optional .env file).
type Config struct {
	ServerURL    string
	Username     string
	DebugAddr    string
	GRPCAddr     string
	LogLevel     string
	LogFormat    string
	TuningFile   string
	TickInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AllowOrigins []string
	ArenaSeed    int64
}

// Load reads .env (if present) and then the process environment.
// A missing .env file is not an error.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already set in the process.
		_ = godotenv.Load(f)
	}

	return Config{
		ServerURL:    getEnv("MINIISLAND_SERVER_URL", "ws://localhost:8080/ws"),
		Username:     getEnv("MINIISLAND_USERNAME", "player"),
		DebugAddr:    getEnv("MINIISLAND_DEBUG_ADDR", ":8081"),
		GRPCAddr:     getEnv("MINIISLAND_GRPC_ADDR", ":8082"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "console"),
		TuningFile:   getEnv("MINIISLAND_TUNING", ""),
		TickInterval: parseDuration(getEnv("MINIISLAND_TICK", ""), TICK_INTERVAL),
		ReadTimeout:  parseDuration(getEnv("API_READ_TIMEOUT", "15s"), 15*time.Second),
		WriteTimeout: parseDuration(getEnv("API_WRITE_TIMEOUT", "15s"), 15*time.Second),
		AllowOrigins: []string{getEnv("API_ALLOW_ORIGIN", "*")},
		ArenaSeed:    parseInt(getEnv("MINIISLAND_SEED", "0"), 0),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func parseInt(s string, def int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}
