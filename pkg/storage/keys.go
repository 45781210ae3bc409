package storage

import "fmt"

// Fill tape key schema:
//
//	fill:<len(symbol)>:<symbol>:<timestamp>:<seq> → FillEvent (JSON)
//
// The symbol length (4 digits) keeps one symbol's prefix from matching a
// longer symbol such as "X:Y". Timestamp and seq are zero-padded (20 digits)
// so keys sort chronologically and stay unique across restarts, when seq
// starts over.
const prefixFill = "fill:"

func fillKey(symbol string, timestamp int64, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%020d", fillPrefix(symbol), timestamp, seq))
}

func fillPrefix(symbol string) []byte {
	return []byte(fmt.Sprintf("%s%04d:%s:", prefixFill, len(symbol), symbol))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
