// Package engine implements a unit-size limit order matching engine keyed by
// (firm, symbol). An Engine is not safe for concurrent use.
package engine

// Result describes the effect of NewOrder or ModifyOrder.
type Result struct {
	// Accepted is false when the call was a no-op.
	Accepted bool
	// Matched is true when the call executed Fill.
	Matched bool
	Fill    Fill
}

type Option func(*Engine)

// WithSellPricing sets the trade price used when a sell order crosses.
func WithSellPricing(r PricingRule) Option {
	return func(e *Engine) { e.sellPricing = r }
}

// Engine owns one Book and one Ledger.
type Engine struct {
	book        *Book
	ledger      *Ledger
	sellPricing PricingRule
}

func New(opts ...Option) *Engine {
	e := &Engine{book: NewBook(), ledger: NewLedger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Book() *Book     { return e.book }
func (e *Engine) Ledger() *Ledger { return e.ledger }

func (e *Engine) SellPricing() PricingRule { return e.sellPricing }

// NewOrder rests a new order and attempts one match. It is a no-op when the
// key already rests on either side or side is not Buy or Sell.
func (e *Engine) NewOrder(firm FirmID, symbol string, side Side, price float32) Result {
	if !side.Valid() {
		return Result{}
	}
	k := OrderKey{Firm: firm, Symbol: symbol}
	if e.book.Contains(k) {
		return Result{}
	}
	if side == Buy {
		e.book.InsertBid(k, price)
	} else {
		e.book.InsertAsk(k, price)
	}
	e.ledger.RegisterIfNew(firm)
	return e.matchOrder(k, side)
}

// ModifyOrder reprices a resting order in place and attempts one match. It is
// a no-op when the key rests on neither side.
func (e *Engine) ModifyOrder(firm FirmID, symbol string, price float32) Result {
	k := OrderKey{Firm: firm, Symbol: symbol}
	var side Side
	switch {
	case e.book.IsBid(k):
		side = Buy
	case e.book.IsAsk(k):
		side = Sell
	default:
		return Result{}
	}
	e.book.ReplacePrice(k, side, price)
	return e.matchOrder(k, side)
}

// CancelOrder removes a resting order. It reports whether anything was
// removed. Ledger counters are left untouched.
func (e *Engine) CancelOrder(firm FirmID, symbol string) bool {
	k := OrderKey{Firm: firm, Symbol: symbol}
	switch {
	case e.book.IsBid(k):
		e.book.RemoveBid(k)
	case e.book.IsAsk(k):
		e.book.RemoveAsk(k)
	default:
		return false
	}
	return true
}

// matchOrder scans firms in first-seen order for a crossing order on the
// opposite side of k's symbol. The first crossing counter-party trades and the
// scan ends: one instruction executes at most one match.
func (e *Engine) matchOrder(k OrderKey, side Side) Result {
	price, ok := e.book.Price(k, side)
	if !ok {
		return Result{Accepted: true}
	}
	opp := side.Opposite()
	for _, f := range e.ledger.order {
		ck := OrderKey{Firm: f, Symbol: k.Symbol}
		resting, ok := e.book.Price(ck, opp)
		if !ok {
			continue
		}
		var fill Fill
		if side == Buy {
			if resting > price {
				continue
			}
			fill = Fill{Symbol: k.Symbol, Buyer: k.Firm, Seller: f, Price: resting, Aggressor: Buy}
			e.book.RemoveAsk(ck)
			e.book.RemoveBid(k)
		} else {
			if resting < price {
				continue
			}
			tradePrice := resting
			if e.sellPricing == AggressorPrice {
				tradePrice = price
			}
			fill = Fill{Symbol: k.Symbol, Buyer: f, Seller: k.Firm, Price: tradePrice, Aggressor: Sell}
			e.book.RemoveBid(ck)
			e.book.RemoveAsk(k)
		}
		e.settle(fill)
		return Result{Accepted: true, Matched: true, Fill: fill}
	}
	return Result{Accepted: true}
}

func (e *Engine) settle(f Fill) {
	e.ledger.RecordFill(f.Buyer)
	e.ledger.RecordFill(f.Seller)
	e.ledger.AdjustCash(f.Buyer, -f.Price)
	e.ledger.AdjustCash(f.Seller, f.Price)
}

// Snapshot is a point-in-time copy of engine state.
type Snapshot struct {
	Bids  []RestingOrder
	Asks  []RestingOrder
	Firms []FirmID
	// Records are in first-seen order with live counts recomputed from the book.
	Records []FirmRecord
}

// Snapshot recomputes live counts and copies the book and ledger.
func (e *Engine) Snapshot() Snapshot {
	e.ledger.ComputeLiveCounts(e.book)
	return Snapshot{
		Bids:    e.book.Bids(),
		Asks:    e.book.Asks(),
		Firms:   e.ledger.Firms(),
		Records: e.ledger.Records(),
	}
}
