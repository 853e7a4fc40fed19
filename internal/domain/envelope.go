package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrPositionMissing means a 200 response did not carry a position object.
	ErrPositionMissing = errors.New("position missing from engine response")
	// ErrPositionIDMissing means the engine returned a position without an id.
	ErrPositionIDMissing = errors.New("position id missing from engine response")
	// ErrPositionNotFound means a previously returned id no longer resolves.
	ErrPositionNotFound = errors.New("position not found")
)

// positionEnvelope is the engine's response wrapper: {"data":{"position":{...}}}.
type positionEnvelope struct {
	Data struct {
		Position *Position `json:"position"`
	} `json:"data"`
}

// DecodePosition unwraps an engine response body into a Position. It fails
// fast on a malformed envelope, an absent position or an empty id, so a bad
// payload surfaces here instead of as an undefined id deep into a scenario.
func DecodePosition(body []byte) (*Position, error) {
	var env positionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode engine response: %w", err)
	}
	if env.Data.Position == nil {
		return nil, ErrPositionMissing
	}
	if env.Data.Position.ID == "" {
		return nil, ErrPositionIDMissing
	}
	return env.Data.Position, nil
}

// CallResult is the outcome of one engine HTTP call. Statuses below 500 are
// not errors at the transport layer; scenario helpers decide what to do with
// them. Position is decoded only for 200 responses.
type CallResult struct {
	StatusCode int
	Body       []byte
	Position   *Position
}
