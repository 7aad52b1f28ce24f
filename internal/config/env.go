package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Env holds process-level settings that do not belong in a run config.
type Env struct {
	DataDir      string
	Addr         string
	RedisURL     string
	RedisChannel string
	TickRate     float64
}

// LoadEnv reads .env (or the given files) when present, then the process
// environment. Variables already set in the environment win.
func LoadEnv(files ...string) *Env {
	godotenv.Load(files...)

	return &Env{
		DataDir:      getEnv("CLOTHSIM_DATA_DIR", ".clothsim"),
		Addr:         getEnv("CLOTHSIM_ADDR", ":8080"),
		RedisURL:     getEnv("CLOTHSIM_REDIS_URL", ""),
		RedisChannel: getEnv("CLOTHSIM_REDIS_CHANNEL", "clothsim:state"),
		TickRate:     getEnvFloat("CLOTHSIM_TICK_RATE", 50),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}
