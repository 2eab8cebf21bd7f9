package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Storage struct {
		Driver string `yaml:"driver"`
		Dir    string `yaml:"dir"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"catalog"`
	Session struct {
		IdleTTL       string `yaml:"idle_ttl"`
		SweepInterval string `yaml:"sweep_interval"`
	} `yaml:"session"`
	Scoring struct {
		Policy          string `yaml:"policy"`
		Evaluator       string `yaml:"evaluator"`
		MaxEditDistance int    `yaml:"max_edit_distance"`
	} `yaml:"scoring"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// StorageDriver resolves the configured driver: an explicit value wins,
// otherwise postgres when a URL is set, else memory.
func (c Config) StorageDriver() string {
	if c.Storage.Driver != "" {
		return c.Storage.Driver
	}
	if c.Postgres.URL != "" {
		return StoragePostgres
	}
	return StorageMemory
}

// StorageDir is where the file driver keeps videos.json, users.json and results.csv.
func (c Config) StorageDir() string {
	if c.Storage.Dir == "" {
		return "data"
	}
	return c.Storage.Dir
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// PositiveDuration is TTLDuration for values that must be > 0, such as ticker intervals.
func PositiveDuration(raw string, fallback time.Duration) time.Duration {
	if d := TTLDuration(raw, fallback); d > 0 {
		return d
	}
	return fallback
}
