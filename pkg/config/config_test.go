package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "stdio", cfg.Transport)
	assert.Equal(t, "127.0.0.1", cfg.BindAddr)
	assert.Equal(t, "3820", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10, cfg.Pool.MaxOpenConns)
	assert.Equal(t, 2, cfg.Pool.MaxIdleConns)
	assert.Equal(t, 30, cfg.Pool.ConnMaxLifetimeMinutes)
	assert.Equal(t, 10, cfg.Pool.ConnectTimeoutSeconds)
	assert.Equal(t, 1000, cfg.Query.MaxRows)
	assert.Equal(t, "1.2.3", cfg.Version)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TRANSPORT", "http")
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("POOL_MAX_OPEN_CONNS", "20")
	t.Setenv("QUERY_MAX_ROWS", "50")

	cfg, err := Load("dev")
	require.NoError(t, err)

	assert.Equal(t, "http", cfg.Transport)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 20, cfg.Pool.MaxOpenConns)
	assert.Equal(t, 50, cfg.Query.MaxRows)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Run("unknown transport", func(t *testing.T) {
		t.Setenv("TRANSPORT", "grpc")
		_, err := Load("dev")
		assert.Error(t, err)
	})

	t.Run("zero max open conns", func(t *testing.T) {
		t.Setenv("POOL_MAX_OPEN_CONNS", "0")
		_, err := Load("dev")
		assert.Error(t, err)
	})

	t.Run("idle above open", func(t *testing.T) {
		t.Setenv("POOL_MAX_OPEN_CONNS", "2")
		t.Setenv("POOL_MAX_IDLE_CONNS", "5")
		_, err := Load("dev")
		assert.Error(t, err)
	})

	t.Run("zero max rows", func(t *testing.T) {
		t.Setenv("QUERY_MAX_ROWS", "0")
		_, err := Load("dev")
		assert.Error(t, err)
	})
}

func TestListenAddr(t *testing.T) {
	cfg := &Config{BindAddr: "0.0.0.0", Port: "3820"}
	assert.Equal(t, "0.0.0.0:3820", cfg.ListenAddr())
}
