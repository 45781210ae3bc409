// Package protocol parses the line-oriented instruction stream and applies
// instructions to an engine.
package protocol

import (
	"fmt"

	"github.com/uhyunpark/crossbook/pkg/engine"
)

// Op is the single-character instruction opcode.
type Op byte

const (
	OpNew    Op = 'N'
	OpModify Op = 'M'
	OpCancel Op = 'C'
)

func (o Op) Known() bool { return o == OpNew || o == OpModify || o == OpCancel }

func (o Op) String() string {
	switch o {
	case OpNew:
		return "new"
	case OpModify:
		return "modify"
	case OpCancel:
		return "cancel"
	default:
		return fmt.Sprintf("op(%q)", byte(o))
	}
}

// Instruction is one parsed record. Side is set only for OpNew and Price only
// for OpNew and OpModify.
type Instruction struct {
	Op     Op
	Firm   engine.FirmID
	Symbol string
	Side   engine.Side
	Price  float32
}

func (in Instruction) String() string {
	switch in.Op {
	case OpNew:
		return fmt.Sprintf("N %d %s %c %g", in.Firm, in.Symbol, in.Side, in.Price)
	case OpModify:
		return fmt.Sprintf("M %d %s %g", in.Firm, in.Symbol, in.Price)
	default:
		return fmt.Sprintf("%c %d %s", in.Op, in.Firm, in.Symbol)
	}
}

// Outcome is what applying one instruction did.
type Outcome struct {
	engine.Result
	// Cancelled is set when an OpCancel removed an order.
	Cancelled bool
}

// Apply runs in against e. Unknown opcodes are ignored.
func Apply(e *engine.Engine, in Instruction) Outcome {
	switch in.Op {
	case OpNew:
		return Outcome{Result: e.NewOrder(in.Firm, in.Symbol, in.Side, in.Price)}
	case OpModify:
		return Outcome{Result: e.ModifyOrder(in.Firm, in.Symbol, in.Price)}
	case OpCancel:
		ok := e.CancelOrder(in.Firm, in.Symbol)
		return Outcome{Result: engine.Result{Accepted: ok}, Cancelled: ok}
	default:
		return Outcome{}
	}
}
