package config

import (
	"os"
	"strconv"
)

// applyEnv lets deployments override the file without editing it.
func applyEnv(cfg *Config) {
	if v := os.Getenv("RHYTHMAI_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("RHYTHMAI_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("RHYTHMAI_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("RHYTHMAI_POSTGRES_URL"); v != "" {
		cfg.Storage.PostgresURL = v
	}
	if v := getEnvInt("RHYTHMAI_SESSION_TTL_HOURS"); v > 0 {
		cfg.Auth.SessionTTLHours = v
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
