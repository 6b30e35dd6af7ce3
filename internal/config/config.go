package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the process reads from the environment. Business
// logic never touches raw env vars; main loads this once and wires it through.
type Config struct {
	Port        int
	DatabaseURL string
	ServiceURL  string

	Rabbit RabbitConfig
	Redis  RedisConfig
	Sched  SchedulerConfig
	Caller CallerConfig
	Mail   MailConfig
}

type RabbitConfig struct {
	User string
	Pass string
	Host string
	Port string
}

type RedisConfig struct {
	Addr string
}

type SchedulerConfig struct {
	Interval    time.Duration // how often a batch run fires
	BatchSize   int           // users per run
	HardCap     int           // per-user per-run call ceiling
	RunDeadline time.Duration // soft deadline for one run
}

type CallerConfig struct {
	APIURL     string
	APIKey     string
	FromNumber string
}

type MailConfig struct {
	Host string
	Port int
	User string
	Pass string
}

func Load() (Config, error) {
	c := Config{
		Port:        intEnv("PORT", 8080),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ServiceURL:  strings.TrimSpace(os.Getenv("SERVICE_URL")),
		Rabbit: RabbitConfig{
			User: envOr("RABBITMQ_USER", "guest"),
			Pass: envOr("RABBITMQ_PASS", "guest"),
			Host: envOr("RABBITMQ_HOST", "localhost"),
			Port: envOr("RABBITMQ_PORT", "5672"),
		},
		Redis: RedisConfig{
			Addr: envOr("REDIS_ADDR", "localhost:6379"),
		},
		Sched: SchedulerConfig{
			Interval:    time.Duration(intEnv("SCHEDULE_INTERVAL_MINUTES", 5)) * time.Minute,
			BatchSize:   intEnv("BATCH_SIZE", 50),
			HardCap:     intEnv("HARD_DAILY_CAP", 10),
			RunDeadline: time.Duration(intEnv("RUN_DEADLINE_MINUTES", 5)) * time.Minute,
		},
		Caller: CallerConfig{
			APIURL:     envOr("ULTRAVOX_API_URL", "https://api.ultravox.ai"),
			APIKey:     strings.TrimSpace(os.Getenv("ULTRAVOX_API_KEY")),
			FromNumber: envOr("TELNYX_FROM_NUMBER", "+1234567890"),
		},
		Mail: MailConfig{
			Host: strings.TrimSpace(os.Getenv("MAIL_HOST")),
			Port: intEnv("MAIL_PORT", 587),
			User: strings.TrimSpace(os.Getenv("MAIL_USER")),
			Pass: os.Getenv("MAIL_PASS"),
		},
	}

	if c.DatabaseURL == "" {
		return c, fmt.Errorf("DATABASE_URL is required")
	}
	if c.Sched.BatchSize <= 0 {
		return c, fmt.Errorf("BATCH_SIZE must be positive, got %d", c.Sched.BatchSize)
	}
	if c.Sched.Interval <= 0 {
		return c, fmt.Errorf("SCHEDULE_INTERVAL_MINUTES must be positive")
	}
	return c, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
