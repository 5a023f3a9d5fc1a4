package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
database:
  redis:
    address: localhost:6379
workers:
  query-nyc-taxi:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, 10, cfg.Camunda.MaxJobsActive)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DefaultInfactoryBaseURL, cfg.APIs.Infactory.BaseURL)
	assert.Equal(t, DefaultInfactoryModel, cfg.APIs.Infactory.Model)

	w := cfg.Workers["query-nyc-taxi"]
	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "redis.internal:6380")
	path := writeConfig(t, `
camunda:
  broker_address: localhost:26500
database:
  redis:
    address: ${TEST_REDIS_ADDR}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.Database.Redis.Address)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		errMsg string
	}{
		{
			name: "missing broker",
			body: `
database:
  redis:
    address: localhost:6379
`,
			errMsg: "camunda.broker_address is required",
		},
		{
			name: "missing redis",
			body: `
camunda:
  broker_address: localhost:26500
`,
			errMsg: "database.redis.address is required",
		},
		{
			name: "redis unset but preference store disabled",
			body: `
camunda:
  broker_address: localhost:26500
workers:
  select-endpoint:
    enabled: false
  query-nyc-taxi:
    enabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromFile(writeConfig(t, tt.body))
			if tt.errMsg == "" {
				require.NoError(t, err)
				assert.False(t, NeedsRedis(cfg))
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNeedsRedis(t *testing.T) {
	tests := []struct {
		name    string
		workers map[string]WorkerConfig
		want    bool
	}{
		{name: "not configured defaults to enabled", workers: map[string]WorkerConfig{}, want: true},
		{name: "enabled", workers: map[string]WorkerConfig{PreferenceStoreWorker: {Enabled: true}}, want: true},
		{name: "disabled", workers: map[string]WorkerConfig{PreferenceStoreWorker: {Enabled: false}}, want: false},
		{name: "only the tool enabled", workers: map[string]WorkerConfig{
			"query-nyc-taxi":      {Enabled: true},
			PreferenceStoreWorker: {Enabled: false},
		}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NeedsRedis(&Config{Workers: tt.workers}))
		})
	}
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{}}

	w := GetWorkerConfig(cfg, "unknown")

	assert.True(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.True(t, IsWorkerEnabled(cfg, "unknown"))
}

func TestReadInfactoryCredentials(t *testing.T) {
	t.Run("reads both values", func(t *testing.T) {
		t.Setenv(EnvInfactoryAPIKey, "secret-key")
		t.Setenv(EnvInfactoryIntegrationID, "integration-1")

		creds := ReadInfactoryCredentials()

		assert.True(t, creds.HasAPIKey())
		assert.Equal(t, "secret-key", creds.APIKey)
		assert.Equal(t, "integration-1", creds.IntegrationID)
		assert.False(t, creds.IntegrationIDDefaulted)
	})

	t.Run("whitespace integration id is used as-is", func(t *testing.T) {
		t.Setenv(EnvInfactoryAPIKey, "secret-key")
		t.Setenv(EnvInfactoryIntegrationID, "  ")

		creds := ReadInfactoryCredentials()

		assert.Equal(t, "  ", creds.IntegrationID)
		assert.False(t, creds.IntegrationIDDefaulted)
	})

	t.Run("defaults integration id", func(t *testing.T) {
		t.Setenv(EnvInfactoryAPIKey, "secret-key")
		t.Setenv(EnvInfactoryIntegrationID, "")

		creds := ReadInfactoryCredentials()

		assert.Equal(t, DefaultInfactoryIntegrationID, creds.IntegrationID)
		assert.True(t, creds.IntegrationIDDefaulted)
	})

	t.Run("observes changes between calls", func(t *testing.T) {
		t.Setenv(EnvInfactoryAPIKey, "")
		assert.False(t, ReadInfactoryCredentials().HasAPIKey())

		t.Setenv(EnvInfactoryAPIKey, "now-set")
		assert.Equal(t, "now-set", ReadInfactoryCredentials().APIKey)
	})
}
