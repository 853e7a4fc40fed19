package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplespot/invest-engine-e2e/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "https://api-uat.simple-spot.biz/api/v1/tg_invest", cfg.BaseURL)
	assert.Equal(t, "InvestAction/create-market-open-position", cfg.Endpoints.OpenPosition)
	assert.Equal(t, "InvestAction/create-market-close-position", cfg.Endpoints.ClosePosition)
	assert.Equal(t, "InvestAction/get-position", cfg.Endpoints.GetPosition)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, time.Second, cfg.RetryDelay())
	assert.Equal(t, 5, cfg.Polling.Attempts)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, 3*time.Second, cfg.SettlementWait())
	assert.Equal(t, "TEST2USDT.FTS", cfg.Symbol)
	assert.Equal(t, "SMPL", cfg.AssetID)
	assert.Equal(t, "services-invest-engine-positions.simple-spot.biz:82", cfg.GRPC.PositionAction.Target())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://localhost:8080/api")
	t.Setenv("API_TIMEOUT", "2500")
	t.Setenv("ENDPOINT_GET_POSITION", "InvestReader/get-position")
	t.Setenv("HELPER_GRPC_HOST", "helper.local")
	t.Setenv("HELPER_GRPC_PORT", "9090")
	t.Setenv("RETRY_ATTEMPTS", "7")
	t.Setenv("POLLING_INTERVAL", "250")
	t.Setenv("TG_USER_ID", "12345")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api", cfg.BaseURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.HTTPTimeout())
	assert.Equal(t, "InvestReader/get-position", cfg.Endpoints.GetPosition)
	assert.Equal(t, "helper.local:9090", cfg.GRPC.Helper.Target())
	assert.Equal(t, 7, cfg.Retry.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.PollingInterval())
	assert.Equal(t, int64(12345), cfg.Auth.UserID)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
base_url: "http://engine.test/api"
polling:
  attempts: 10
  interval_ms: 500
symbol: "BTCUSDT.FTS"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://engine.test/api", cfg.BaseURL)
	assert.Equal(t, 10, cfg.Polling.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.PollingInterval())
	assert.Equal(t, "BTCUSDT.FTS", cfg.Symbol)
	// Untouched fields keep their defaults.
	assert.Equal(t, 3, cfg.Retry.Attempts)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadAttemptBudget(t *testing.T) {
	t.Setenv("RETRY_ATTEMPTS", "0")
	_, err := config.Load("")
	assert.ErrorContains(t, err, "retry attempts must be positive")
}
