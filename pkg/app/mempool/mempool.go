package mempool

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/uhyunpark/crossbook/pkg/engine"
	"github.com/uhyunpark/crossbook/pkg/protocol"
)

var ErrEmptyTx = errors.New("empty instruction")

// Envelope is the JSON form of one instruction:
//
//	{"op":"N","firmId":1,"symbol":"AAPL","side":"B","price":10.5}
//	{"op":"M","firmId":1,"symbol":"AAPL","price":11}
//	{"op":"C","firmId":1,"symbol":"AAPL"}
type Envelope struct {
	Op     string   `json:"op"`
	FirmID *uint16  `json:"firmId"`
	Symbol string   `json:"symbol"`
	Side   string   `json:"side,omitempty"`
	Price  *float32 `json:"price,omitempty"`
}

// Decode parses a raw JSON instruction. Known opcodes require firmId, and N
// and M also require price. Unknown opcodes decode without error and are
// dropped by the engine later, like the text protocol does.
func Decode(b []byte) (protocol.Instruction, error) {
	var in protocol.Instruction
	if len(b) == 0 {
		return in, ErrEmptyTx
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return in, fmt.Errorf("decode instruction: %w", err)
	}
	if len(env.Op) != 1 {
		return in, fmt.Errorf("decode instruction: op must be one character, got %q", env.Op)
	}
	if env.Symbol == "" {
		return in, fmt.Errorf("decode instruction: missing symbol")
	}
	in = protocol.Instruction{
		Op:     protocol.Op(env.Op[0]),
		Symbol: env.Symbol,
	}
	if env.FirmID != nil {
		in.Firm = engine.FirmID(*env.FirmID)
	} else if in.Op.Known() {
		return in, fmt.Errorf("decode instruction: missing firmId")
	}
	if in.Op == protocol.OpNew || in.Op == protocol.OpModify {
		if env.Price == nil {
			return in, fmt.Errorf("decode instruction: missing price")
		}
		in.Price = *env.Price
	}
	if in.Op == protocol.OpNew {
		if len(env.Side) != 1 {
			return in, fmt.Errorf("decode instruction: side must be one character, got %q", env.Side)
		}
		in.Side = engine.Side(env.Side[0])
	}
	return in, nil
}

// Encode is the inverse of Decode.
func Encode(in protocol.Instruction) ([]byte, error) {
	firm := uint16(in.Firm)
	env := Envelope{
		Op:     string(rune(in.Op)),
		FirmID: &firm,
		Symbol: in.Symbol,
	}
	if in.Op == protocol.OpNew || in.Op == protocol.OpModify {
		price := in.Price
		env.Price = &price
	}
	if in.Op == protocol.OpNew {
		env.Side = string(rune(in.Side))
	}
	return json.Marshal(env)
}

// Mempool is a single FIFO of pending instructions. Instructions are never
// reordered: the outcome of a stream depends on its order.
type Mempool struct {
	mu      sync.Mutex
	pending []protocol.Instruction
	total   uint64
}

func NewMempool() *Mempool {
	return &Mempool{}
}

// PushRaw decodes and enqueues a JSON instruction.
func (m *Mempool) PushRaw(b []byte) error {
	in, err := Decode(b)
	if err != nil {
		return err
	}
	m.Push(in)
	return nil
}

func (m *Mempool) Push(in protocol.Instruction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, in)
	m.total++
}

// SelectBatch removes and returns up to max instructions in arrival order.
// max <= 0 drains everything.
func (m *Mempool) SelectBatch(max int) []protocol.Instruction {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.pending)
	if max > 0 && n > max {
		n = max
	}
	if n == 0 {
		return nil
	}
	out := make([]protocol.Instruction, n)
	copy(out, m.pending[:n])
	m.pending = m.pending[n:]
	if len(m.pending) == 0 {
		m.pending = nil
	}
	return out
}

// Len returns total pending instructions.
func (m *Mempool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Total returns how many instructions were ever admitted.
func (m *Mempool) Total() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}
