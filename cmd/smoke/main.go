// Command smoke runs one full open/close cycle against the configured
// environment: set the price, open a market Buy, settle, close manually and
// expect a MarketClose reason. Exit status reports the result, so it works
// as a deployment gate before the full suite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/simplespot/invest-engine-e2e/internal/config"
	"github.com/simplespot/invest-engine-e2e/internal/domain"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/auth"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/engine"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/grpcpool"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/logger"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/storage"
	"github.com/simplespot/invest-engine-e2e/internal/usecase"
)

func main() {
	configPath := flag.String("config", "", "optional yaml config path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("smoke run failed", zap.Error(err))
		os.Exit(1)
	}
	log.Info("smoke run passed")
}

func run(cfg *config.Config, log *zap.Logger) error {
	token, err := auth.GenerateToken(cfg.Auth.BotToken, cfg.Auth.UserID)
	if err != nil {
		return fmt.Errorf("generate auth token: %w", err)
	}

	pool := grpcpool.New(cfg.GRPCTargets(), log)
	defer pool.CloseAll()

	journal, err := storage.NewJournalStore(cfg.Journal.Path)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer journal.Close()

	api := engine.New(cfg, token, pool, log)
	verifier := usecase.NewVerifier(api, log, cfg.Polling.Attempts, cfg.PollingInterval())
	service := usecase.NewInvestService(api, verifier, journal, cfg.SettlementWait(), log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	req := &domain.OpenPositionRequest{
		Symbol:        cfg.Symbol,
		Amount:        100,
		AmountAssetID: cfg.AssetID,
		Multiplicator: 5,
		Direction:     domain.DirectionBuy,
	}

	positionID, err := service.OpenAndVerifyMarketPosition(ctx, req, 1, domain.StatusOpened)
	if err != nil {
		return err
	}
	log.Info("position opened", zap.String("position_id", positionID), zap.String("run_id", service.RunID()))

	if err := service.SettleWait(ctx); err != nil {
		return err
	}

	if _, err := service.CloseAndVerifyMarketPosition(ctx, positionID, domain.CloseReasonMarketClose); err != nil {
		return err
	}
	return nil
}
