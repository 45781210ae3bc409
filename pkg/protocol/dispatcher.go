package protocol

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/uhyunpark/crossbook/pkg/engine"
)

const (
	promptNew    = "NEW ORDER - ENTER THE SIDE AND THEN THE PRICE"
	promptModify = "MODIFY ORDER - ENTER THE PRICE"
	promptCancel = "ORDER CANCELLED"
)

// Reader decodes instructions from a Scanner.
type Reader struct {
	sc *Scanner
	// Prompts, when set, receives the interactive prompt for each recognised
	// opcode before its remaining fields are read.
	Prompts io.Writer
}

func NewReader(r io.Reader) *Reader {
	return &Reader{sc: NewScanner(r)}
}

func eof(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrUnexpectedEOF
	}
	return err
}

// Count reads the leading instruction count.
func (r *Reader) Count() (int, error) {
	tok, err := r.sc.Token()
	if err != nil {
		return 0, fmt.Errorf("read count: %w", eof(err))
	}
	n, err := strconv.ParseUint(tok, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(n), nil
}

// Next reads one instruction. Unknown opcodes still consume the firm id and
// symbol and come back with their Op unchanged.
func (r *Reader) Next() (Instruction, error) {
	var in Instruction

	op, err := r.sc.Char()
	if err != nil {
		return in, fmt.Errorf("read opcode: %w", eof(err))
	}
	in.Op = Op(op)

	tok, err := r.sc.Token()
	if err != nil {
		return in, fmt.Errorf("read firm id: %w", eof(err))
	}
	firm, err := strconv.ParseUint(tok, 10, 16)
	if err != nil {
		return in, fmt.Errorf("parse firm id: %w", err)
	}
	in.Firm = engine.FirmID(firm)

	if in.Symbol, err = r.sc.Token(); err != nil {
		return in, fmt.Errorf("read symbol: %w", eof(err))
	}

	switch in.Op {
	case OpNew:
		r.prompt(promptNew)
		side, err := r.sc.Char()
		if err != nil {
			return in, fmt.Errorf("read side: %w", eof(err))
		}
		in.Side = engine.Side(side)
		if in.Price, err = r.price(); err != nil {
			return in, err
		}
	case OpModify:
		r.prompt(promptModify)
		if in.Price, err = r.price(); err != nil {
			return in, err
		}
	case OpCancel:
		r.prompt(promptCancel)
	}
	return in, nil
}

func (r *Reader) price() (float32, error) {
	tok, err := r.sc.Token()
	if err != nil {
		return 0, fmt.Errorf("read price: %w", eof(err))
	}
	p, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, fmt.Errorf("parse price: %w", err)
	}
	return float32(p), nil
}

func (r *Reader) prompt(msg string) {
	if r.Prompts != nil {
		fmt.Fprintln(r.Prompts, msg)
	}
}

// Stats counts what a Run did.
type Stats struct {
	Instructions int
	Accepted     int
	Fills        int
	Skipped      int
}

// Run reads a count and that many instructions from r, applying each to e.
// Any malformed field aborts the run; instructions already applied stay
// applied. onApply may be nil.
func Run(rd *Reader, e *engine.Engine, onApply func(Instruction, Outcome)) (Stats, error) {
	var st Stats
	n, err := rd.Count()
	if err != nil {
		return st, err
	}
	for i := 0; i < n; i++ {
		in, err := rd.Next()
		if err != nil {
			return st, fmt.Errorf("instruction %d: %w", i+1, err)
		}
		st.Instructions++
		if !in.Op.Known() {
			st.Skipped++
			continue
		}
		out := Apply(e, in)
		if out.Accepted {
			st.Accepted++
		}
		if out.Matched {
			st.Fills++
		}
		if onApply != nil {
			onApply(in, out)
		}
	}
	return st, nil
}
