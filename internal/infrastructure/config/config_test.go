package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "test",
			Password: "test",
			Database: "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		Queue: QueueConfig{
			ValidationMaxAttempts: 5,
			EnrollmentMaxAttempts: 5,
			BackoffInitial:        2 * time.Second,
			BackoffMax:            time.Minute,
			BackoffFactor:         2.0,
		},
		Worker: WorkerConfig{
			BatchSize: 10,
			LockTTL:   30 * time.Second,
		},
		URLs: URLConfig{
			Backend:  "http://localhost:8080",
			Frontend: "http://localhost:3000",
		},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_InvalidServerPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"port too low", 0},
		{"port negative", -1},
		{"port too high", 99999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "server.port")
		})
	}
}

func TestConfig_Validate_QueuePolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Queue.ValidationMaxAttempts = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation_max_attempts")

	cfg = validConfig()
	cfg.Queue.BackoffFactor = 0.5
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backoff_factor")
}

func TestConfig_Validate_ShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestConfig_Validate_MissingBackendURL(t *testing.T) {
	cfg := validConfig()
	cfg.URLs.Backend = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "urls.backend")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := validConfig()
	dsn := cfg.Database.DatabaseDSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=test_db")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestRedisAddr(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Queue.ValidationMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Queue.BackoffInitial)
	assert.Equal(t, time.Minute, cfg.Queue.BackoffMax)
	assert.Equal(t, "payment-processors", cfg.Worker.ConsumerGroup)
	assert.False(t, cfg.Gateway.Live)
	assert.Equal(t, 5*time.Second, cfg.Gateway.InlineTimeout)
}
