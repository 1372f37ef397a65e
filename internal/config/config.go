package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"timed-quiz-service/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format" validate:"omitempty,oneof=json pretty"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Quiz struct {
		TTL             string `yaml:"ttl"`
		QuestionLimit   int    `yaml:"question_limit" validate:"gte=0"`
		TimePerQuestion string `yaml:"time_per_question"`
		Grace           string `yaml:"grace"`
	} `yaml:"quiz"`
	Kafka struct {
		Brokers []string `yaml:"brokers" validate:"dive,hostname_port"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
}

var validate = validator.New()

// Load reads YAML config from path, then applies a .env file and environment
// overrides. A missing file yields an all-defaults config.
func Load(path string) (Config, error) {
	cfg := Config{}
	_ = godotenv.Load() // .env is optional

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Postgres.URL = getEnv("POSTGRES_URL", c.Postgres.URL)
	c.SQLite.Path = getEnv("SQLITE_PATH", c.SQLite.Path)
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		c.Kafka.Brokers = splitList(raw)
	}
}

// Validate checks field tags and that every duration string parses.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name, raw := range map[string]string{
		"redis.ttl":              c.Redis.TTL,
		"quiz.ttl":               c.Quiz.TTL,
		"quiz.time_per_question": c.Quiz.TimePerQuestion,
		"quiz.grace":             c.Quiz.Grace,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	return nil
}

// QuizDefaults is the QuizConfig used by courses without an active stored config
// and by the mixed pool.
func (c Config) QuizDefaults() domain.QuizConfig {
	cfg := domain.DefaultQuizConfig()
	if c.Quiz.QuestionLimit > 0 {
		cfg.QuestionLimit = c.Quiz.QuestionLimit
	}
	cfg.TimePerQuestion = TTLDuration(c.Quiz.TimePerQuestion, cfg.TimePerQuestion)
	return cfg
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

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
