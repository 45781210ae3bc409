package api

import "github.com/shopspring/decimal"

// API response types for REST endpoints and WebSocket messages. Prices and
// cash are rendered as decimal strings.

// ==============================
// REST Response Types
// ==============================

// OrderEntry is one resting order.
type OrderEntry struct {
	FirmID uint16          `json:"firmId"`
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// BookSnapshot lists both sides in (firm, symbol) order.
type BookSnapshot struct {
	Symbol    string       `json:"symbol,omitempty"` // empty = all symbols
	Bids      []OrderEntry `json:"bids"`
	Asks      []OrderEntry `json:"asks"`
	Timestamp int64        `json:"timestamp"` // Unix milliseconds
}

// FirmSummary is one line of the final report.
type FirmSummary struct {
	FirmID    uint16          `json:"firmId"`
	LiveCount int             `json:"liveCount"`
	FillCount int             `json:"fillCount"`
	NetCash   decimal.Decimal `json:"netCash"`
}

// FillInfo is one executed match from the fill tape.
type FillInfo struct {
	ID        string          `json:"id"`
	Seq       uint64          `json:"seq"`
	Symbol    string          `json:"symbol"`
	Buyer     uint16          `json:"buyer"`
	Seller    uint16          `json:"seller"`
	Price     decimal.Decimal `json:"price"`
	Aggressor string          `json:"aggressor"` // "buy" or "sell"
	Timestamp int64           `json:"timestamp"` // Unix milliseconds
}

// EngineStatus represents sequencer state
type EngineStatus struct {
	Height      uint64 `json:"height"`    // Batches applied
	StateHash   string `json:"stateHash"` // 0x-prefixed SHA-256
	MempoolSize int    `json:"mempoolSize"`
	Fills       uint64 `json:"fills"`
	SellPricing string `json:"sellPricing"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is sent by client to subscribe to channels
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // e.g., ["book:AAPL", "fills:AAPL", "fills"]
}

// BookUpdate is broadcast after every batch that touched the symbol
type BookUpdate struct {
	Type      string       `json:"type"` // "book"
	Symbol    string       `json:"symbol"`
	Bids      []OrderEntry `json:"bids"`
	Asks      []OrderEntry `json:"asks"`
	Timestamp int64        `json:"timestamp"`
	Height    uint64       `json:"height"`
}

// FillUpdate is broadcast when a match executes
type FillUpdate struct {
	Type string `json:"type"` // "fill"
	FillInfo
}

// ==============================
// REST Request Types
// ==============================

// NewOrderRequest is the payload for POST /api/v1/orders
type NewOrderRequest struct {
	FirmID *uint16  `json:"firmId"`
	Symbol string   `json:"symbol"`
	Side   string   `json:"side"` // "B"/"S" or "buy"/"sell"
	Price  *float32 `json:"price"`
}

// ModifyOrderRequest is the payload for POST /api/v1/orders/modify
type ModifyOrderRequest struct {
	FirmID *uint16  `json:"firmId"`
	Symbol string   `json:"symbol"`
	Price  *float32 `json:"price"`
}

// CancelOrderRequest is the payload for POST /api/v1/orders/cancel
type CancelOrderRequest struct {
	FirmID *uint16 `json:"firmId"`
	Symbol string  `json:"symbol"`
}

// SubmitResponse is the response from instruction submission
type SubmitResponse struct {
	Status  string `json:"status"` // "queued"
	Op      string `json:"op,omitempty"`
	Pending int    `json:"pending"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
