package domain

// Direction of a leveraged exposure.
type Direction int

const (
	DirectionUndefined Direction = iota
	DirectionBuy
	DirectionSell
)

func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "Buy"
	case DirectionSell:
		return "Sell"
	default:
		return "Undefined"
	}
}

// Status is the position lifecycle as reported by the engine. The harness
// never mutates it, only observes transitions through polling.
type Status int

const (
	StatusUndefined Status = iota
	StatusDraft
	StatusPending
	StatusOpening
	StatusOpened
	StatusClosing
	StatusClosed
	StatusCancelling
	StatusCancelled
	StatusDraftCancelled
)

var statusNames = map[Status]string{
	StatusUndefined:      "Undefined",
	StatusDraft:          "Draft",
	StatusPending:        "Pending",
	StatusOpening:        "Opening",
	StatusOpened:         "Opened",
	StatusClosing:        "Closing",
	StatusClosed:         "Closed",
	StatusCancelling:     "Cancelling",
	StatusCancelled:      "Cancelled",
	StatusDraftCancelled: "DraftCancelled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// CloseReason is set by the engine once a position reaches Closed.
type CloseReason int

const (
	CloseReasonUndefined CloseReason = iota
	CloseReasonStopLoss
	CloseReasonTakeProfit
	CloseReasonMarketClose
	CloseReasonLiquidation
)

func (r CloseReason) String() string {
	switch r {
	case CloseReasonStopLoss:
		return "StopLoss"
	case CloseReasonTakeProfit:
		return "TakeProfit"
	case CloseReasonMarketClose:
		return "MarketClose"
	case CloseReasonLiquidation:
		return "Liquidation"
	default:
		return "Undefined"
	}
}

// TriggerType selects how a take-profit or stop-loss value is interpreted.
type TriggerType int

const (
	TriggerTypePrice  TriggerType = 1
	TriggerTypeAmount TriggerType = 2
)

// Position is a read-only projection of an engine-owned position.
type Position struct {
	ID            string      `json:"id"`
	Symbol        string      `json:"symbol"`
	Direction     Direction   `json:"direction"`
	Status        Status      `json:"status"`
	CloseReason   CloseReason `json:"closeReason"`
	OpenPrice     float64     `json:"openPrice"`
	Volume        float64     `json:"volume"`
	Multiplicator float64     `json:"multiplicator"`
	OpenFee       float64     `json:"openFee"`
	CloseFee      float64     `json:"closeFee"`
	RollOver      float64     `json:"rollOver"`

	TargetPrice     float64     `json:"targetPrice,omitempty"`
	TakeProfitType  TriggerType `json:"takeProfitType,omitempty"`
	TakeProfitValue float64     `json:"takeProfitValue,omitempty"`
	StopLossType    TriggerType `json:"stopLossType,omitempty"`
	StopLossValue   float64     `json:"stopLossValue,omitempty"`
}
