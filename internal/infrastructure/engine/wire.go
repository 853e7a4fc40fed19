package engine

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// The engine's auxiliary services speak three tiny messages. Hand-encoding
// them with protowire is cheaper than maintaining codegen for proto files
// owned by another team; the decimal payload is carried as opaque bytes
// between the helper and price RPCs, exactly as the engine hands it out.

type wireMessage interface {
	appendWire(b []byte) []byte
	unmarshalWire(b []byte) error
}

// rawCodec moves hand-encoded protobuf frames through grpc without
// generated message types.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("rawCodec: unsupported message type %T", v)
	}
	return m.appendWire(nil), nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("rawCodec: unsupported message type %T", v)
	}
	return m.unmarshalWire(data)
}

func (rawCodec) Name() string { return "proto" }

// stringToDecimalRequest is GrpcHelperService.StringToDecimal input:
// field 1, the decimal rendered as a string.
type stringToDecimalRequest struct {
	Value string
}

func (m *stringToDecimalRequest) appendWire(b []byte) []byte {
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	return protowire.AppendString(b, m.Value)
}

func (m *stringToDecimalRequest) unmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, v []byte) {
		if num == 1 {
			m.Value = string(v)
		}
	})
}

// stringToDecimalResponse carries the engine's decimal message in field 1.
// The payload stays opaque; it is only ever echoed back in MakePrice.
type stringToDecimalResponse struct {
	Value []byte
}

func (m *stringToDecimalResponse) appendWire(b []byte) []byte {
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	return protowire.AppendBytes(b, m.Value)
}

func (m *stringToDecimalResponse) unmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, v []byte) {
		if num == 1 {
			m.Value = append([]byte(nil), v...)
		}
	})
}

// makePriceRequest is PriceManagerService.MakePrice input: symbol in field 1,
// ask/bid/last decimal messages in fields 2-4.
type makePriceRequest struct {
	Symbol string
	Ask    []byte
	Bid    []byte
	Last   []byte
}

func (m *makePriceRequest) appendWire(b []byte) []byte {
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, m.Symbol)
	b = protowire.AppendTag(b, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Ask)
	b = protowire.AppendTag(b, 3, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Bid)
	b = protowire.AppendTag(b, 4, protowire.BytesType)
	b = protowire.AppendBytes(b, m.Last)
	return b
}

func (m *makePriceRequest) unmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, v []byte) {
		switch num {
		case 1:
			m.Symbol = string(v)
		case 2:
			m.Ask = append([]byte(nil), v...)
		case 3:
			m.Bid = append([]byte(nil), v...)
		case 4:
			m.Last = append([]byte(nil), v...)
		}
	})
}

// recalcRollOverRequest is PositionActionService.RecalculatePositionRollOver
// input: the position id in field 1.
type recalcRollOverRequest struct {
	PositionID string
}

func (m *recalcRollOverRequest) appendWire(b []byte) []byte {
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	return protowire.AppendString(b, m.PositionID)
}

func (m *recalcRollOverRequest) unmarshalWire(b []byte) error {
	return walkFields(b, func(num protowire.Number, v []byte) {
		if num == 1 {
			m.PositionID = string(v)
		}
	})
}

// emptyAck accepts any acknowledgement payload and discards its fields.
type emptyAck struct{}

func (m *emptyAck) appendWire(b []byte) []byte { return b }

func (m *emptyAck) unmarshalWire(b []byte) error {
	return walkFields(b, func(protowire.Number, []byte) {})
}

// walkFields iterates a wire-format buffer, handing length-delimited field
// payloads to fn and skipping everything else.
func walkFields(b []byte, fn func(num protowire.Number, v []byte)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			fn(num, v)
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}
