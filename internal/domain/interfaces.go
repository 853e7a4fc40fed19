package domain

import (
	"context"
	"time"
)

// Engine is the gateway to the external trading engine: HTTP for position
// actions, gRPC for price injection and rollover recalculation.
type Engine interface {
	SetupInstrumentPrice(ctx context.Context, symbol string, price float64) error
	OpenMarketPosition(ctx context.Context, req *OpenPositionRequest) (*CallResult, error)
	OpenPendingLimitPosition(ctx context.Context, req *OpenPositionRequest) (*CallResult, error)
	OpenPendingStopPosition(ctx context.Context, req *OpenPositionRequest) (*CallResult, error)
	CloseMarketPosition(ctx context.Context, positionID string, clientClosePrice float64) (*CallResult, error)
	GetPositionByID(ctx context.Context, positionID string) (*CallResult, error)
	RecalculateRollover(ctx context.Context, positionID string) error
}

// JournalEntry records one scenario step against one position.
type JournalEntry struct {
	ID          int64
	RunID       string
	Scenario    string
	PositionID  string
	Symbol      string
	Direction   Direction
	Status      Status
	CloseReason CloseReason
	Detail      string
	CreatedAt   time.Time
}

// Journal defines storage operations for the run history.
type Journal interface {
	SaveEntry(ctx context.Context, entry *JournalEntry) error
	ListEntries(ctx context.Context, runID string, limit int) ([]*JournalEntry, error)
}
