package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := LoadConfig()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
	assert.Equal(t, 10, cfg.Board.PageSize)
	assert.False(t, cfg.Board.CommentOwnerCheck)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("BOARD_PAGE_SIZE", "25")
	t.Setenv("COMMENT_OWNER_CHECK", "true")
	t.Setenv("OUTBOX_INTERVAL", "5s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg := LoadConfig()

	assert.Equal(t, 25, cfg.Board.PageSize)
	assert.True(t, cfg.Board.CommentOwnerCheck)
	assert.Equal(t, 5*time.Second, cfg.Workers.OutboxInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfigIgnoresMalformedValues(t *testing.T) {
	t.Setenv("BOARD_PAGE_SIZE", "ten")
	t.Setenv("JWT_ACCESS_TTL", "soon")

	cfg := LoadConfig()

	assert.Equal(t, 10, cfg.Board.PageSize)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
}
