package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverDiskv    = "diskv"
	DriverPostgres = "postgres"
)

type Config struct {
	Server  Server  `yaml:"server" json:"server"`
	Storage Storage `yaml:"storage" json:"storage"`
	Auth    Auth    `yaml:"auth" json:"auth"`
}

type Server struct {
	Addr string `yaml:"addr" json:"addr"`
}

type Storage struct {
	Driver      string `yaml:"driver" json:"driver"`
	DataDir     string `yaml:"data_dir" json:"data_dir"`
	PostgresURL string `yaml:"postgres_url" json:"-"`
}

type Auth struct {
	SessionTTLHours int `yaml:"session_ttl_hours" json:"session_ttl_hours"`
}

func Default() *Config {
	return &Config{
		Server:  Server{Addr: ":8080"},
		Storage: Storage{Driver: DriverDiskv, DataDir: "data"},
		Auth:    Auth{SessionTTLHours: 30 * 24},
	}
}

// Load reads the YAML config file, falling back to defaults when the
// file is absent, then applies environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	applyEnv(cfg)

	switch cfg.Storage.Driver {
	case DriverMemory, DriverDiskv, DriverPostgres:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == DriverPostgres && cfg.Storage.PostgresURL == "" {
		return nil, fmt.Errorf("storage driver %q requires postgres_url", DriverPostgres)
	}
	return cfg, nil
}
