package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Endpoints are the engine's position-action paths, relative to BaseURL.
type Endpoints struct {
	OpenPosition     string `yaml:"open_position"`
	ClosePosition    string `yaml:"close_position"`
	OpenPendingLimit string `yaml:"open_pending_limit"`
	OpenPendingStop  string `yaml:"open_pending_stop"`
	GetPosition      string `yaml:"get_position"`
}

// GRPCEndpoint addresses one of the engine's auxiliary gRPC services.
type GRPCEndpoint struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (e GRPCEndpoint) Target() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

type Config struct {
	BaseURL   string    `yaml:"base_url"`
	TimeoutMs int       `yaml:"timeout_ms"`
	Endpoints Endpoints `yaml:"endpoints"`

	GRPC struct {
		Helper         GRPCEndpoint `yaml:"helper"`
		Invest         GRPCEndpoint `yaml:"invest"`
		PositionAction GRPCEndpoint `yaml:"position_action"`
	} `yaml:"grpc"`

	Retry struct {
		Attempts int `yaml:"attempts"`
		DelayMs  int `yaml:"delay_ms"`
	} `yaml:"retry"`

	Polling struct {
		Attempts   int `yaml:"attempts"`
		IntervalMs int `yaml:"interval_ms"`
	} `yaml:"polling"`

	SettlementWaitMs int `yaml:"settlement_wait_ms"`

	Symbol  string `yaml:"symbol"`
	AssetID string `yaml:"asset_id"`

	Auth struct {
		BotToken string `yaml:"bot_token"`
		UserID   int64  `yaml:"user_id"`
	} `yaml:"auth"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Journal struct {
		Path string `yaml:"path"`
	} `yaml:"journal"`
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Retry.DelayMs) * time.Millisecond
}

func (c *Config) PollingInterval() time.Duration {
	return time.Duration(c.Polling.IntervalMs) * time.Millisecond
}

func (c *Config) SettlementWait() time.Duration {
	return time.Duration(c.SettlementWaitMs) * time.Millisecond
}

// GRPCTargets maps logical service names to dial targets for the connection
// pool.
func (c *Config) GRPCTargets() map[string]string {
	return map[string]string{
		"helper":         c.GRPC.Helper.Target(),
		"invest":         c.GRPC.Invest.Target(),
		"positionAction": c.GRPC.PositionAction.Target(),
	}
}

// Default returns the documented defaults for the UAT environment.
func Default() *Config {
	cfg := &Config{
		BaseURL:   "https://api-uat.simple-spot.biz/api/v1/tg_invest",
		TimeoutMs: 5000,
		Endpoints: Endpoints{
			OpenPosition:     "InvestAction/create-market-open-position",
			ClosePosition:    "InvestAction/create-market-close-position",
			OpenPendingLimit: "InvestAction/create-pending-limit-position",
			OpenPendingStop:  "InvestAction/create-pending-stop-position",
			GetPosition:      "InvestAction/get-position",
		},
		SettlementWaitMs: 3000,
		Symbol:           "TEST2USDT.FTS",
		AssetID:          "SMPL",
	}
	cfg.GRPC.Helper = GRPCEndpoint{Host: "invest-engine-prices-demo.spot-services.svc.cluster.local", Port: 80}
	cfg.GRPC.Invest = GRPCEndpoint{Host: "invest-engine-prices-demo.spot-services.svc.cluster.local", Port: 80}
	cfg.GRPC.PositionAction = GRPCEndpoint{Host: "services-invest-engine-positions.simple-spot.biz", Port: 82}
	cfg.Retry.Attempts = 3
	cfg.Retry.DelayMs = 1000
	cfg.Polling.Attempts = 5
	cfg.Polling.IntervalMs = 1000
	cfg.Logging.Level = "info"
	cfg.Journal.Path = "e2e-runs.db"
	return cfg
}

// Load builds the configuration in three layers: documented defaults, an
// optional yaml file, then environment variables. A missing file is not an
// error when path is empty; a named file must exist.
func Load(path string) (*Config, error) {
	// .env is optional, same as the dotenv behavior the suite always had.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Retry.Attempts < 1 {
		return nil, fmt.Errorf("retry attempts must be positive, got %d", cfg.Retry.Attempts)
	}
	if cfg.Polling.Attempts < 1 {
		return nil, fmt.Errorf("polling attempts must be positive, got %d", cfg.Polling.Attempts)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	envStr(&c.BaseURL, "API_BASE_URL")
	envInt(&c.TimeoutMs, "API_TIMEOUT")

	envStr(&c.Endpoints.OpenPosition, "ENDPOINT_OPEN_POSITION")
	envStr(&c.Endpoints.ClosePosition, "ENDPOINT_CLOSE_POSITION")
	envStr(&c.Endpoints.OpenPendingLimit, "ENDPOINT_OPEN_PENDING_LIMIT_POSITION")
	envStr(&c.Endpoints.OpenPendingStop, "ENDPOINT_OPEN_PENDING_STOP_POSITION")
	envStr(&c.Endpoints.GetPosition, "ENDPOINT_GET_POSITION")

	envStr(&c.GRPC.Helper.Host, "HELPER_GRPC_HOST")
	envInt(&c.GRPC.Helper.Port, "HELPER_GRPC_PORT")
	envStr(&c.GRPC.Invest.Host, "INVEST_GRPC_HOST")
	envInt(&c.GRPC.Invest.Port, "INVEST_GRPC_PORT")
	envStr(&c.GRPC.PositionAction.Host, "POSITION_ACTION_GRPC_HOST")
	envInt(&c.GRPC.PositionAction.Port, "POSITION_ACTION_GRPC_PORT")

	envInt(&c.Retry.Attempts, "RETRY_ATTEMPTS")
	envInt(&c.Retry.DelayMs, "RETRY_DELAY")
	envInt(&c.Polling.Attempts, "POLLING_ATTEMPTS")
	envInt(&c.Polling.IntervalMs, "POLLING_INTERVAL")
	envInt(&c.SettlementWaitMs, "SETTLEMENT_WAIT")

	envStr(&c.Symbol, "TEST_SYMBOL")
	envStr(&c.AssetID, "TEST_ASSET_ID")

	envStr(&c.Auth.BotToken, "TG_BOT_TOKEN")
	envInt64(&c.Auth.UserID, "TG_USER_ID")

	envStr(&c.Logging.Level, "LOG_LEVEL")
	envStr(&c.Journal.Path, "JOURNAL_PATH")
}

func envStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}
