package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simplespot/invest-engine-e2e/internal/domain"
)

// InvestService composes gateway operations into verified scenario steps:
// drive a stimulus, wait for the engine to settle, assert the observed
// outcome. Every failure path has its own message so a red test names the
// cause without anyone digging through payloads.
type InvestService struct {
	engine   domain.Engine
	verifier *Verifier
	journal  domain.Journal // optional
	logger   *zap.Logger

	runID      string
	settleWait time.Duration
}

func NewInvestService(engine domain.Engine, verifier *Verifier, journal domain.Journal, settleWait time.Duration, logger *zap.Logger) *InvestService {
	if settleWait <= 0 {
		settleWait = 3 * time.Second
	}
	return &InvestService{
		engine:     engine,
		verifier:   verifier,
		journal:    journal,
		logger:     logger,
		runID:      uuid.NewString(),
		settleWait: settleWait,
	}
}

// Engine exposes the gateway for primitive operations scenarios drive
// directly (price injection, rollover recalculation).
func (s *InvestService) Engine() domain.Engine { return s.engine }

// RunID identifies this suite execution in the journal.
func (s *InvestService) RunID() string { return s.runID }

// SettleWait pauses for the configured settlement window. All "give the
// engine time" waits in scenarios go through here.
func (s *InvestService) SettleWait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.settleWait):
		return nil
	}
}

// OpenAndVerifyMarketPosition sets the price, opens a market position,
// re-sets the price so the pricing engine is guaranteed a quote before it
// evaluates fills, then polls until the position reaches want.
func (s *InvestService) OpenAndVerifyMarketPosition(ctx context.Context, req *domain.OpenPositionRequest, price float64, want domain.Status) (string, error) {
	if err := s.engine.SetupInstrumentPrice(ctx, req.Symbol, price); err != nil {
		return "", err
	}

	res, err := s.engine.OpenMarketPosition(ctx, req)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to open market position: unexpected status code %d: %s", res.StatusCode, res.Body)
	}
	if res.Position == nil || res.Position.ID == "" {
		return "", fmt.Errorf("position id not found in open response")
	}
	positionID := res.Position.ID

	if err := s.engine.SetupInstrumentPrice(ctx, req.Symbol, price); err != nil {
		return "", err
	}

	pos, err := s.verifier.WaitForStatus(ctx, positionID, want)
	if err != nil {
		return "", err
	}

	s.record(ctx, "open-market", pos, fmt.Sprintf("opened at price %v", price))
	return positionID, nil
}

// OpenAndVerifyPendingLimitPosition opens a pending limit order and verifies
// it parks in Pending until the target price is reached.
func (s *InvestService) OpenAndVerifyPendingLimitPosition(ctx context.Context, req *domain.OpenPositionRequest) (string, error) {
	res, err := s.engine.OpenPendingLimitPosition(ctx, req)
	if err != nil {
		return "", err
	}
	return s.verifyPendingCreated(ctx, "open-pending-limit", res)
}

// OpenAndVerifyPendingStopPosition is the stop-order variant of
// OpenAndVerifyPendingLimitPosition.
func (s *InvestService) OpenAndVerifyPendingStopPosition(ctx context.Context, req *domain.OpenPositionRequest) (string, error) {
	res, err := s.engine.OpenPendingStopPosition(ctx, req)
	if err != nil {
		return "", err
	}
	return s.verifyPendingCreated(ctx, "open-pending-stop", res)
}

func (s *InvestService) verifyPendingCreated(ctx context.Context, scenario string, res *domain.CallResult) (string, error) {
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to open pending position: unexpected status code %d: %s", res.StatusCode, res.Body)
	}
	if res.Position == nil || res.Position.ID == "" {
		return "", fmt.Errorf("position id not found in pending open response")
	}
	positionID := res.Position.ID

	pos, err := s.verifier.WaitForStatus(ctx, positionID, domain.StatusPending)
	if err != nil {
		return "", err
	}

	s.record(ctx, scenario, pos, fmt.Sprintf("pending at target price %v", pos.TargetPrice))
	return positionID, nil
}

// CloseAndVerifyMarketPosition closes the position at market and asserts the
// engine's close reason.
func (s *InvestService) CloseAndVerifyMarketPosition(ctx context.Context, positionID string, want domain.CloseReason) (domain.CloseReason, error) {
	if positionID == "" {
		return domain.CloseReasonUndefined, fmt.Errorf("position id is not defined")
	}

	s.logger.Info("closing market position", zap.String("position_id", positionID))
	res, err := s.engine.CloseMarketPosition(ctx, positionID, 0)
	if err != nil {
		return domain.CloseReasonUndefined, err
	}
	if res.StatusCode != http.StatusOK {
		return domain.CloseReasonUndefined, fmt.Errorf("failed to close market position: unexpected status code %d: %s", res.StatusCode, res.Body)
	}
	if res.Position == nil {
		return domain.CloseReasonUndefined, fmt.Errorf("%w: %s", domain.ErrPositionMissing, positionID)
	}

	got := res.Position.CloseReason
	if got != want {
		return got, fmt.Errorf("unexpected close reason for position %s: got %s, want %s", positionID, got, want)
	}

	s.record(ctx, "close-market", res.Position, "closed manually")
	return got, nil
}

// VerifyPositionCloseReason fetches the position and asserts both the
// closed status and the close reason. CloseReason is defined exactly when
// status is Closed, so a defined reason on a non-closed position is itself
// a failure.
func (s *InvestService) VerifyPositionCloseReason(ctx context.Context, positionID string, want domain.CloseReason) (domain.CloseReason, error) {
	pos, err := s.fetchPosition(ctx, positionID)
	if err != nil {
		return domain.CloseReasonUndefined, err
	}

	if pos.Status != domain.StatusClosed {
		return pos.CloseReason, fmt.Errorf("position %s is not closed: status %s, close reason %s",
			positionID, pos.Status, pos.CloseReason)
	}
	if pos.CloseReason != want {
		return pos.CloseReason, fmt.Errorf("unexpected close reason for position %s: got %s, want %s",
			positionID, pos.CloseReason, want)
	}

	s.logger.Info("close reason verified",
		zap.String("position_id", positionID),
		zap.Stringer("close_reason", pos.CloseReason))
	s.record(ctx, "verify-close-reason", pos, "")
	return pos.CloseReason, nil
}

// VerifyOpenedPosition waits for the position to activate and asserts it
// opened exactly at the expected price (a pending order must fill at its
// target).
func (s *InvestService) VerifyOpenedPosition(ctx context.Context, positionID string, wantOpenPrice float64) (*domain.Position, error) {
	pos, err := s.verifier.WaitForStatus(ctx, positionID, domain.StatusOpened)
	if err != nil {
		return nil, err
	}

	got := decimal.NewFromFloat(pos.OpenPrice)
	if !got.Equal(decimal.NewFromFloat(wantOpenPrice)) {
		return nil, fmt.Errorf("position %s opened at %s, want %v", positionID, got, wantOpenPrice)
	}

	s.record(ctx, "verify-opened", pos, fmt.Sprintf("opened at target %v", wantOpenPrice))
	return pos, nil
}

// VerifyRollover asserts the accrued rollover equals want exactly. The
// engine adds a fixed increment per recalculation, so the expectation is an
// equality, not a tolerance.
func (s *InvestService) VerifyRollover(ctx context.Context, positionID string, want decimal.Decimal) error {
	pos, err := s.fetchPosition(ctx, positionID)
	if err != nil {
		return err
	}

	got := decimal.NewFromFloat(pos.RollOver)
	if !got.Equal(want) {
		return fmt.Errorf("unexpected rollover for position %s: got %s, want %s", positionID, got, want)
	}

	s.logger.Info("rollover verified",
		zap.String("position_id", positionID),
		zap.String("rollover", got.String()))
	return nil
}

// CalculateAndSetStopOutPrice re-derives the liquidation trigger from the
// position's current fields and injects it as the instrument price.
func (s *InvestService) CalculateAndSetStopOutPrice(ctx context.Context, positionID string, stopOutFraction float64) (float64, error) {
	pos, err := s.fetchPosition(ctx, positionID)
	if err != nil {
		return 0, err
	}

	price := StopOutPrice(pos, stopOutFraction)
	s.logger.Info("calculated stop-out price",
		zap.String("position_id", positionID),
		zap.Float64("price", price))

	if err := s.engine.SetupInstrumentPrice(ctx, pos.Symbol, price); err != nil {
		return 0, err
	}
	return price, nil
}

func (s *InvestService) fetchPosition(ctx context.Context, positionID string) (*domain.Position, error) {
	res, err := s.engine.GetPositionByID(ctx, positionID)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get position %s: unexpected status code %d: %s", positionID, res.StatusCode, res.Body)
	}
	if res.Position == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrPositionNotFound, positionID)
	}
	return res.Position, nil
}

func (s *InvestService) record(ctx context.Context, scenario string, pos *domain.Position, detail string) {
	if s.journal == nil || pos == nil {
		return
	}
	entry := &domain.JournalEntry{
		RunID:       s.runID,
		Scenario:    scenario,
		PositionID:  pos.ID,
		Symbol:      pos.Symbol,
		Direction:   pos.Direction,
		Status:      pos.Status,
		CloseReason: pos.CloseReason,
		Detail:      detail,
		CreatedAt:   time.Now(),
	}
	if err := s.journal.SaveEntry(ctx, entry); err != nil {
		s.logger.Warn("journal write failed", zap.String("scenario", scenario), zap.Error(err))
	}
}
