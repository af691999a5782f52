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
	Redis struct {
		Addr      string `yaml:"addr"`
		Password  string `yaml:"password"`
		DB        int    `yaml:"db"`
		TTL       string `yaml:"ttl"`
		KeyPrefix string `yaml:"key_prefix"` // submission list prefix, default "submissions:"
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Input struct {
		// CSV files produced by the collection front end, one per quiz;
		// glob patterns are allowed.
		CSV []string `yaml:"csv"`
	} `yaml:"input"`
	Output struct {
		Path string `yaml:"path"` // report JSON destination, empty = stdout only
	} `yaml:"output"`
	Analysis struct {
		Bins                int   `yaml:"bins"`
		Options             int   `yaml:"options"`
		ReferenceSampleSize int   `yaml:"reference_sample_size"`
		GuesserRuns         int   `yaml:"guesser_runs"`
		Seed                int64 `yaml:"seed"` // 0 = time-seeded
	} `yaml:"analysis"`
	Report struct {
		TTL string `yaml:"ttl"` // serve-mode cache TTL
	} `yaml:"report"`
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
