package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteLiteral(t *testing.T) {
	assert.Equal(t, "'America/Sao_Paulo'", quoteLiteral("America/Sao_Paulo"))
	assert.Equal(t, "'it''s'", quoteLiteral("it's"))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")
	t.Setenv("DATABASE_MAX_CONNS", "25")
	t.Setenv("DATABASE_TIMEZONE", "UTC")

	cfg := ConfigFromEnv()
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN)
	assert.Equal(t, 25, cfg.MaxConns)
	assert.Equal(t, "UTC", cfg.TimeZone)
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_MAX_CONNS", "nope")

	cfg := ConfigFromEnv()
	assert.Contains(t, cfg.DSN, "localhost:5432")
	assert.Equal(t, 10, cfg.MaxConns)
}
