package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Admin struct {
		Token string `yaml:"token"`
	} `yaml:"admin"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL                  string `yaml:"ttl"`
		CursorTTL            string `yaml:"cursorTtl"`
		Winners              int    `yaml:"winners"`
		Period               string `yaml:"period"`
		Timezone             string `yaml:"timezone"`
		BroadcastConcurrency int    `yaml:"broadcastConcurrency"`
	} `yaml:"quiz"`
	Schedule struct {
		Open  string `yaml:"open"`
		Close string `yaml:"close"`
	} `yaml:"schedule"`
}

// Load reads YAML config from path. A missing file yields an empty config so
// the service can run from environment variables alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		c.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

// Location resolves the quiz timezone, defaulting to UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Quiz.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Quiz.Timezone)
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
