package protocol

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// ErrUnexpectedEOF is returned when input ends inside an instruction.
var ErrUnexpectedEOF = errors.New("unexpected end of input")

// Scanner reads whitespace-separated fields. Char reads a single
// non-space byte, so "N1" yields 'N' followed by the token "1".
type Scanner struct {
	r *bufio.Reader
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func (s *Scanner) skipSpace() error {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		if !isSpace(b) {
			return s.r.UnreadByte()
		}
	}
}

// Char returns the next non-space byte.
func (s *Scanner) Char() (byte, error) {
	if err := s.skipSpace(); err != nil {
		return 0, err
	}
	return s.r.ReadByte()
}

// Token returns the next run of non-space bytes.
func (s *Scanner) Token() (string, error) {
	if err := s.skipSpace(); err != nil {
		return "", err
	}
	var sb strings.Builder
	for {
		b, err := s.r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if isSpace(b) {
			_ = s.r.UnreadByte()
			break
		}
		sb.WriteByte(b)
	}
	return sb.String(), nil
}
