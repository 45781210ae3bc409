package engine

import "fmt"

// FirmID identifies a trading firm. Ids are supplied by the caller and never
// generated by the engine.
type FirmID uint16

// Side is the book side an order rests on, encoded as the protocol character.
type Side byte

const (
	Buy  Side = 'B'
	Sell Side = 'S'
)

func (s Side) Valid() bool { return s == Buy || s == Sell }

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("side(%q)", byte(s))
	}
}

// Opposite returns the counter-party side. Invalid sides map to themselves.
func (s Side) Opposite() Side {
	switch s {
	case Buy:
		return Sell
	case Sell:
		return Buy
	default:
		return s
	}
}

// OrderKey identifies at most one resting order across both book sides.
type OrderKey struct {
	Firm   FirmID
	Symbol string
}

// Less orders keys by firm id, then symbol.
func (k OrderKey) Less(o OrderKey) bool {
	if k.Firm != o.Firm {
		return k.Firm < o.Firm
	}
	return k.Symbol < o.Symbol
}

func (k OrderKey) String() string { return fmt.Sprintf("%d/%s", k.Firm, k.Symbol) }

// RestingOrder is a key and the price it rests at.
type RestingOrder struct {
	Key   OrderKey
	Price float32
}

// Fill is one executed match. Each match fully consumes both orders.
type Fill struct {
	Symbol    string
	Buyer     FirmID
	Seller    FirmID
	Price     float32
	Aggressor Side
}

// PricingRule selects the trade price when a sell order is the aggressor.
type PricingRule uint8

const (
	// RestingPrice trades at the resting bid.
	RestingPrice PricingRule = iota
	// AggressorPrice trades at the incoming sell price.
	AggressorPrice
)

// ParsePricingRule accepts "resting" and "aggressor".
func ParsePricingRule(s string) (PricingRule, error) {
	switch s {
	case "", "resting":
		return RestingPrice, nil
	case "aggressor":
		return AggressorPrice, nil
	default:
		return RestingPrice, fmt.Errorf("unknown sell pricing rule %q", s)
	}
}

func (r PricingRule) String() string {
	if r == AggressorPrice {
		return "aggressor"
	}
	return "resting"
}
