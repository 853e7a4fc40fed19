package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/simplespot/invest-engine-e2e/internal/domain"
)

const (
	defaultPollAttempts = 5
	defaultPollInterval = time.Second
)

// SettlementTimeoutError reports a polling budget exhausted before the
// position reached the expected status.
type SettlementTimeoutError struct {
	PositionID string
	Want       domain.Status
	Last       domain.Status
	Attempts   int
}

func (e *SettlementTimeoutError) Error() string {
	return fmt.Sprintf("position %s did not reach %s status after %d attempts, current status: %s",
		e.PositionID, e.Want, e.Attempts, e.Last)
}

// Verifier polls the engine for position state transitions at a fixed
// interval. The engine's settlement latency is roughly constant in this
// environment, so there is no backoff: wait, fetch, compare, up to the
// attempt budget.
type Verifier struct {
	engine   domain.Engine
	logger   *zap.Logger
	attempts int
	interval time.Duration
}

func NewVerifier(engine domain.Engine, logger *zap.Logger, attempts int, interval time.Duration) *Verifier {
	if attempts < 1 {
		attempts = defaultPollAttempts
	}
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Verifier{engine: engine, logger: logger, attempts: attempts, interval: interval}
}

// WaitForStatus blocks until the position reports the wanted status and
// returns its projection. A missing position is fatal on the spot: the id
// came from a successful open, so absence is engine state loss, not latency.
func (v *Verifier) WaitForStatus(ctx context.Context, positionID string, want domain.Status) (*domain.Position, error) {
	var last domain.Status
	for attempt := 1; attempt <= v.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(v.interval):
		}

		res, err := v.engine.GetPositionByID(ctx, positionID)
		if err != nil {
			return nil, err
		}
		if res.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %s (engine returned %d)", domain.ErrPositionNotFound, positionID, res.StatusCode)
		}
		if res.Position == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrPositionNotFound, positionID)
		}

		if res.Position.Status == want {
			return res.Position, nil
		}
		last = res.Position.Status

		v.logger.Info("waiting for position status",
			zap.String("position_id", positionID),
			zap.Stringer("want", want),
			zap.Stringer("current", last),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", v.attempts))
	}

	return nil, &SettlementTimeoutError{
		PositionID: positionID,
		Want:       want,
		Last:       last,
		Attempts:   v.attempts,
	}
}
