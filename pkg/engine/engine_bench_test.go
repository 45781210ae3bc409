package engine

import (
	"math/rand"
	"testing"
)

// seedBook rests one bid and one ask per firm on symbol "X" without crossing.
func seedBook(firms int) *Engine {
	e := New()
	for i := 0; i < firms; i++ {
		e.NewOrder(FirmID(2*i+1), "X", Buy, float32(90-i%10))
		e.NewOrder(FirmID(2*i+2), "X", Sell, float32(110+i%10))
	}
	return e
}

// BenchmarkNewOrderNoCross measures insert plus the full counterparty scan.
func BenchmarkNewOrderNoCross(b *testing.B) {
	e := seedBook(100)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		firm := FirmID(1000 + i%5000)
		e.NewOrder(firm, "X", Buy, 95)
		e.CancelOrder(firm, "X")
	}
}

// BenchmarkNewOrderCross measures an order that fills against a resting ask
// which is immediately replenished.
func BenchmarkNewOrderCross(b *testing.B) {
	e := seedBook(100)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		res := e.NewOrder(60000, "X", Buy, 200)
		if res.Matched {
			e.NewOrder(res.Fill.Seller, "X", Sell, 110)
		}
	}
}

// BenchmarkMixedStream replays a random instruction stream over a few symbols.
func BenchmarkMixedStream(b *testing.B) {
	rng := rand.New(rand.NewSource(7))
	symbols := []string{"AAPL", "MSFT", "GOOG", "AMZN"}
	e := New()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		firm := FirmID(1 + rng.Intn(64))
		sym := symbols[rng.Intn(len(symbols))]
		price := float32(95 + rng.Intn(11))
		switch r := rng.Intn(100); {
		case r < 60:
			side := Buy
			if r%2 == 0 {
				side = Sell
			}
			e.NewOrder(firm, sym, side, price)
		case r < 85:
			e.ModifyOrder(firm, sym, price)
		default:
			e.CancelOrder(firm, sym)
		}
	}
}
