package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/calldrip")

	c, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 8080, c.Port)
	assert.Equal(t, 5*time.Minute, c.Sched.Interval)
	assert.Equal(t, 50, c.Sched.BatchSize)
	assert.Equal(t, 10, c.Sched.HardCap)
	assert.Equal(t, "guest", c.Rabbit.User)
	assert.Equal(t, "localhost:6379", c.Redis.Addr)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/calldrip")
	t.Setenv("SCHEDULE_INTERVAL_MINUTES", "15")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("HARD_DAILY_CAP", "3")

	c, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 15*time.Minute, c.Sched.Interval)
	assert.Equal(t, 100, c.Sched.BatchSize)
	assert.Equal(t, 3, c.Sched.HardCap)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadIgnoresGarbageInts(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/calldrip")
	t.Setenv("BATCH_SIZE", "lots")

	c, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 50, c.Sched.BatchSize, "unparseable value falls back to the default")
}
