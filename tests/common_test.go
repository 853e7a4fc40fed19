package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simplespot/invest-engine-e2e/internal/config"
	"github.com/simplespot/invest-engine-e2e/internal/domain"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/auth"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/engine"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/grpcpool"
	"github.com/simplespot/invest-engine-e2e/internal/infrastructure/storage"
	"github.com/simplespot/invest-engine-e2e/internal/usecase"
)

// Reference prices used across the suite. The test instrument is quoted at 1,
// so trigger values are small offsets around par.
const (
	initialPrice   = 1.0
	takeProfitBuy  = 1.049
	stopLossBuy    = 0.95
	takeProfitSell = 0.95
	stopLossSell   = 1.049
	pendingPrice   = 0.95

	// Margin fraction at which the test instrument liquidates.
	stopOutFraction = 0.1
)

// fakeEngine is an in-process stand-in for the trading engine. It applies the
// same lifecycle rules the real engine does (pending activation at the target
// price, tp/sl triggers, margin liquidation) synchronously on every price
// push, so scenarios run without any deployed environment.
type fakeEngine struct {
	mu        sync.Mutex
	prices    map[string]float64
	positions map[string]*fakePosition
	seq       int
}

type fakePosition struct {
	domain.Position
	creationPrice float64
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		prices:    make(map[string]float64),
		positions: make(map[string]*fakePosition),
	}
}

func (f *fakeEngine) SetupInstrumentPrice(_ context.Context, symbol string, price float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prices[symbol] = price
	for _, pos := range f.positions {
		if pos.Symbol == symbol {
			f.advance(pos, price)
		}
	}
	return nil
}

// advance moves one position along its lifecycle for a new quote. A position
// that activates on this tick is not trigger-checked until the next one,
// matching how the engine sequences fills and trigger evaluation.
func (f *fakeEngine) advance(pos *fakePosition, price float64) {
	switch pos.Status {
	case domain.StatusPending:
		if (pos.creationPrice-pos.TargetPrice)*(price-pos.TargetPrice) <= 0 {
			pos.Status = domain.StatusOpened
			pos.OpenPrice = pos.TargetPrice
		}
	case domain.StatusOpening:
		pos.Status = domain.StatusOpened
		pos.OpenPrice = price
	case domain.StatusOpened:
		f.checkTriggers(pos, price)
	}
}

func (f *fakeEngine) checkTriggers(pos *fakePosition, price float64) {
	buy := pos.Direction == domain.DirectionBuy

	if pos.TakeProfitType == domain.TriggerTypePrice && pos.TakeProfitValue > 0 {
		if (buy && price >= pos.TakeProfitValue) || (!buy && price <= pos.TakeProfitValue) {
			pos.Status = domain.StatusClosed
			pos.CloseReason = domain.CloseReasonTakeProfit
			return
		}
	}
	if pos.StopLossType == domain.TriggerTypePrice && pos.StopLossValue > 0 {
		if (buy && price <= pos.StopLossValue) || (!buy && price >= pos.StopLossValue) {
			pos.Status = domain.StatusClosed
			pos.CloseReason = domain.CloseReasonStopLoss
			return
		}
	}

	sign := 1.0
	if !buy {
		sign = -1.0
	}
	pnl := sign * pos.Volume * (price - pos.OpenPrice) / pos.OpenPrice
	threshold := -(pos.Volume / pos.Multiplicator) * (1 - stopOutFraction)
	// Epsilon absorbs float error on exact-threshold prices.
	if pnl <= threshold+1e-9 {
		pos.Status = domain.StatusClosed
		pos.CloseReason = domain.CloseReasonLiquidation
	}
}

func (f *fakeEngine) OpenMarketPosition(_ context.Context, req *domain.OpenPositionRequest) (*domain.CallResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	price, ok := f.prices[req.Symbol]
	if !ok {
		return clientError("no price for instrument"), nil
	}
	return f.create(req, domain.StatusOpening, price), nil
}

func (f *fakeEngine) OpenPendingLimitPosition(_ context.Context, req *domain.OpenPositionRequest) (*domain.CallResult, error) {
	return f.openPending(req)
}

func (f *fakeEngine) OpenPendingStopPosition(_ context.Context, req *domain.OpenPositionRequest) (*domain.CallResult, error) {
	return f.openPending(req)
}

func (f *fakeEngine) openPending(req *domain.OpenPositionRequest) (*domain.CallResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	price, ok := f.prices[req.Symbol]
	if !ok {
		return clientError("no price for instrument"), nil
	}
	if req.TargetPrice <= 0 {
		return clientError("target price is required"), nil
	}
	return f.create(req, domain.StatusPending, price), nil
}

func (f *fakeEngine) create(req *domain.OpenPositionRequest, status domain.Status, price float64) *domain.CallResult {
	f.seq++
	pos := &fakePosition{
		Position: domain.Position{
			ID:              fmt.Sprintf("pos-%d", f.seq),
			Symbol:          req.Symbol,
			Direction:       req.Direction,
			Status:          status,
			Volume:          req.Amount,
			Multiplicator:   float64(req.Multiplicator),
			TargetPrice:     req.TargetPrice,
			TakeProfitType:  req.TakeProfitType,
			TakeProfitValue: req.TakeProfitValue,
			StopLossType:    req.StopLossType,
			StopLossValue:   req.StopLossValue,
		},
		creationPrice: price,
	}
	f.positions[pos.ID] = pos
	return f.result(pos)
}

func (f *fakeEngine) CloseMarketPosition(_ context.Context, positionID string, _ float64) (*domain.CallResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pos, ok := f.positions[positionID]
	if !ok {
		return notFound(positionID), nil
	}
	switch pos.Status {
	case domain.StatusPending, domain.StatusOpening, domain.StatusOpened:
		pos.Status = domain.StatusClosed
		pos.CloseReason = domain.CloseReasonMarketClose
		return f.result(pos), nil
	default:
		return clientError("position is not active"), nil
	}
}

func (f *fakeEngine) GetPositionByID(_ context.Context, positionID string) (*domain.CallResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pos, ok := f.positions[positionID]
	if !ok {
		return notFound(positionID), nil
	}
	return f.result(pos), nil
}

func (f *fakeEngine) RecalculateRollover(_ context.Context, positionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pos, ok := f.positions[positionID]
	if !ok {
		return fmt.Errorf("position %s not found", positionID)
	}
	pos.RollOver += 0.5
	return nil
}

func (f *fakeEngine) result(pos *fakePosition) *domain.CallResult {
	clone := pos.Position
	body, _ := json.Marshal(&clone)
	return &domain.CallResult{StatusCode: http.StatusOK, Body: body, Position: &clone}
}

func clientError(msg string) *domain.CallResult {
	return &domain.CallResult{
		StatusCode: http.StatusBadRequest,
		Body:       []byte(fmt.Sprintf(`{"error":%q}`, msg)),
	}
}

func notFound(positionID string) *domain.CallResult {
	return &domain.CallResult{
		StatusCode: http.StatusNotFound,
		Body:       []byte(fmt.Sprintf(`{"error":"position %s not found"}`, positionID)),
	}
}

// harness wires the scenario service either against a deployed engine (when
// E2E_BASE_URL is set) or against the in-process fake. Scenarios are written
// once and run in both modes; fake is nil in live mode.
type harness struct {
	svc     *usecase.InvestService
	journal domain.Journal
	symbol  string
	assetID string
	fake    *fakeEngine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()

	if base := os.Getenv("E2E_BASE_URL"); base != "" {
		cfg, err := config.Load(os.Getenv("E2E_CONFIG"))
		require.NoError(t, err)
		cfg.BaseURL = base

		var token string
		if cfg.Auth.BotToken != "" {
			token, err = auth.GenerateToken(cfg.Auth.BotToken, cfg.Auth.UserID)
			require.NoError(t, err)
		}

		pool := grpcpool.New(cfg.GRPCTargets(), logger)
		t.Cleanup(pool.CloseAll)

		journal, err := storage.NewJournalStore(cfg.Journal.Path)
		require.NoError(t, err)
		t.Cleanup(func() { journal.Close() })

		api := engine.New(cfg, token, pool, logger)
		verifier := usecase.NewVerifier(api, logger, cfg.Polling.Attempts, cfg.PollingInterval())
		svc := usecase.NewInvestService(api, verifier, journal, cfg.SettlementWait(), logger)
		return &harness{svc: svc, journal: journal, symbol: cfg.Symbol, assetID: cfg.AssetID}
	}

	fake := newFakeEngine()
	journal, err := storage.NewJournalStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	// The fake settles synchronously, so the waits only need to be long
	// enough to exercise the polling machinery.
	verifier := usecase.NewVerifier(fake, logger, 5, 20*time.Millisecond)
	svc := usecase.NewInvestService(fake, verifier, journal, 50*time.Millisecond, logger)
	return &harness{svc: svc, journal: journal, symbol: "TEST2USDT.FTS", assetID: "SMPL", fake: fake}
}

func (h *harness) setPrice(ctx context.Context, t *testing.T, price float64) {
	t.Helper()
	require.NoError(t, h.svc.Engine().SetupInstrumentPrice(ctx, h.symbol, price))
}

func (h *harness) marketRequest(direction domain.Direction, amount float64, multiplicator int) *domain.OpenPositionRequest {
	return &domain.OpenPositionRequest{
		Symbol:        h.symbol,
		Amount:        amount,
		AmountAssetID: h.assetID,
		Multiplicator: multiplicator,
		Direction:     direction,
	}
}
