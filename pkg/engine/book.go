package engine

import "sort"

// bookSide maps keys to prices. Lookups are O(1); enumeration sorts by key.
type bookSide struct {
	orders map[OrderKey]float32
}

func newBookSide() *bookSide {
	return &bookSide{orders: make(map[OrderKey]float32)}
}

func (s *bookSide) has(k OrderKey) bool {
	_, ok := s.orders[k]
	return ok
}

func (s *bookSide) price(k OrderKey) (float32, bool) {
	p, ok := s.orders[k]
	return p, ok
}

func (s *bookSide) len() int { return len(s.orders) }

// sorted returns the side's orders in key order.
func (s *bookSide) sorted() []RestingOrder {
	out := make([]RestingOrder, 0, len(s.orders))
	for k, p := range s.orders {
		out = append(out, RestingOrder{Key: k, Price: p})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key.Less(out[j].Key)
	})
	return out
}

// Book holds the bid and ask sides. Callers keep an OrderKey on at most one
// side; the insert methods do not check.
type Book struct {
	bids *bookSide
	asks *bookSide
}

func NewBook() *Book {
	return &Book{bids: newBookSide(), asks: newBookSide()}
}

func (b *Book) IsBid(k OrderKey) bool { return b.bids.has(k) }
func (b *Book) IsAsk(k OrderKey) bool { return b.asks.has(k) }

// Contains reports whether k rests on either side.
func (b *Book) Contains(k OrderKey) bool { return b.bids.has(k) || b.asks.has(k) }

// InsertBid overwrites any existing bid at k.
func (b *Book) InsertBid(k OrderKey, price float32) { b.bids.orders[k] = price }

// InsertAsk overwrites any existing ask at k.
func (b *Book) InsertAsk(k OrderKey, price float32) { b.asks.orders[k] = price }

// RemoveBid is a no-op when k is absent.
func (b *Book) RemoveBid(k OrderKey) { delete(b.bids.orders, k) }

// RemoveAsk is a no-op when k is absent.
func (b *Book) RemoveAsk(k OrderKey) { delete(b.asks.orders, k) }

// ReplacePrice removes k from the given side and reinserts it at price.
func (b *Book) ReplacePrice(k OrderKey, side Side, price float32) {
	s := b.side(side)
	if s == nil {
		return
	}
	delete(s.orders, k)
	s.orders[k] = price
}

// Price returns the price k rests at on the given side.
func (b *Book) Price(k OrderKey, side Side) (float32, bool) {
	s := b.side(side)
	if s == nil {
		return 0, false
	}
	return s.price(k)
}

// Bids returns every resting bid in key order.
func (b *Book) Bids() []RestingOrder { return b.bids.sorted() }

// Asks returns every resting ask in key order.
func (b *Book) Asks() []RestingOrder { return b.asks.sorted() }

func (b *Book) BidCount() int { return b.bids.len() }
func (b *Book) AskCount() int { return b.asks.len() }

// ForEach visits every resting order on both sides in unspecified order.
func (b *Book) ForEach(fn func(side Side, o RestingOrder)) {
	for k, p := range b.bids.orders {
		fn(Buy, RestingOrder{Key: k, Price: p})
	}
	for k, p := range b.asks.orders {
		fn(Sell, RestingOrder{Key: k, Price: p})
	}
}

func (b *Book) side(s Side) *bookSide {
	switch s {
	case Buy:
		return b.bids
	case Sell:
		return b.asks
	default:
		return nil
	}
}
