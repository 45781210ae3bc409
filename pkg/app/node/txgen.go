package node

import (
	"math/rand"

	"github.com/uhyunpark/crossbook/pkg/engine"
	"github.com/uhyunpark/crossbook/pkg/protocol"
)

// TxGenerator creates random instructions for load testing.
type TxGenerator struct {
	firms   int
	symbols []string
	rng     *rand.Rand
}

func NewTxGenerator(numFirms int, symbols []string, seed int64) *TxGenerator {
	if numFirms < 1 {
		numFirms = 1
	}
	if len(symbols) == 0 {
		symbols = []string{"AAPL"}
	}
	return &TxGenerator{
		firms:   numFirms,
		symbols: symbols,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// price returns a random price within ±5% of 100, in cents.
func (g *TxGenerator) price() float32 {
	cents := 10000 + g.rng.Intn(1001) - 500
	return float32(cents) / 100
}

// Next returns one instruction: 60% new, 25% modify, 15% cancel.
func (g *TxGenerator) Next() protocol.Instruction {
	in := protocol.Instruction{
		Firm:   engine.FirmID(g.rng.Intn(g.firms) + 1),
		Symbol: g.symbols[g.rng.Intn(len(g.symbols))],
	}
	switch r := g.rng.Intn(100); {
	case r < 60:
		in.Op = protocol.OpNew
		in.Side = engine.Buy
		if g.rng.Intn(2) == 1 {
			in.Side = engine.Sell
		}
		in.Price = g.price()
	case r < 85:
		in.Op = protocol.OpModify
		in.Price = g.price()
	default:
		in.Op = protocol.OpCancel
	}
	return in
}

func (g *TxGenerator) GenerateBatch(n int) []protocol.Instruction {
	out := make([]protocol.Instruction, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}
