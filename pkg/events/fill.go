// Package events carries executed fills out of the node.
package events

import (
	"context"
	"encoding/json"

	"github.com/uhyunpark/crossbook/pkg/engine"
)

// FillEvent is an engine.Fill stamped by the node.
type FillEvent struct {
	ID        string  `json:"id"`
	Seq       uint64  `json:"seq"`
	Timestamp int64   `json:"timestamp"` // Unix milliseconds
	Symbol    string  `json:"symbol"`
	Buyer     uint16  `json:"buyer"`
	Seller    uint16  `json:"seller"`
	Price     float32 `json:"price"`
	Aggressor string  `json:"aggressor"` // "buy" or "sell"
}

func NewFillEvent(id string, seq uint64, tsMillis int64, f engine.Fill) FillEvent {
	return FillEvent{
		ID:        id,
		Seq:       seq,
		Timestamp: tsMillis,
		Symbol:    f.Symbol,
		Buyer:     uint16(f.Buyer),
		Seller:    uint16(f.Seller),
		Price:     f.Price,
		Aggressor: f.Aggressor.String(),
	}
}

func (e FillEvent) Marshal() ([]byte, error) { return json.Marshal(e) }

func UnmarshalFill(b []byte) (FillEvent, error) {
	var e FillEvent
	err := json.Unmarshal(b, &e)
	return e, err
}

// Publisher ships fills to an external bus.
type Publisher interface {
	Publish(ctx context.Context, fills []FillEvent) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, []FillEvent) error { return nil }
func (NopPublisher) Close() error                                { return nil }

var _ Publisher = NopPublisher{}
