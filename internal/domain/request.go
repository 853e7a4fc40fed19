package domain

// OpenPositionRequest is the creation payload shared by market and pending
// endpoints. TargetPrice is only meaningful for pending orders.
type OpenPositionRequest struct {
	Symbol        string    `json:"symbol"`
	Amount        float64   `json:"amount"`
	AmountAssetID string    `json:"amountAssetId"`
	Multiplicator int       `json:"multiplicator"`
	Direction     Direction `json:"direction"`

	TargetPrice     float64     `json:"targetPrice,omitempty"`
	TakeProfitType  TriggerType `json:"takeProfitType,omitempty"`
	TakeProfitValue float64     `json:"takeProfitValue,omitempty"`
	StopLossType    TriggerType `json:"stopLossType,omitempty"`
	StopLossValue   float64     `json:"stopLossValue,omitempty"`
}

// ClosePositionRequest asks the engine to close an active position at market.
type ClosePositionRequest struct {
	PositionID       string  `json:"positionId"`
	ClientClosePrice float64 `json:"clientClosePrice"`
}

// GetPositionRequest fetches the current projection of one position.
type GetPositionRequest struct {
	PositionID string `json:"positionId"`
}
