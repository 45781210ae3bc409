// Package report renders engine state in the batch driver's text format.
package report

import (
	"bufio"
	"io"
	"sort"
	"strconv"

	"github.com/uhyunpark/crossbook/pkg/engine"
)

// FormatFloat renders v the way a default-configured C stream does: %g with
// six significant digits.
func FormatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', 6, 32)
}

// Summary returns firm records sorted by numeric firm id.
func Summary(s engine.Snapshot) []engine.FirmRecord {
	out := append([]engine.FirmRecord(nil), s.Records...)
	sort.Slice(out, func(i, j int) bool { return out[i].Firm < out[j].Firm })
	return out
}

// Write renders the full report: buy book, sell book, firm ids in
// first-seen order, then the per-firm summary.
func Write(w io.Writer, s engine.Snapshot) error {
	bw := bufio.NewWriter(w)

	writeBook(bw, "BUYBOOK", s.Bids)
	writeBook(bw, "SELLBOOK", s.Asks)

	bw.WriteString("FIRM IDs\n")
	for _, f := range s.Firms {
		bw.WriteString(strconv.Itoa(int(f)))
		bw.WriteByte('\n')
	}

	bw.WriteString("FINAL OUTPUT\n")
	for _, r := range Summary(s) {
		bw.WriteString(strconv.Itoa(int(r.Firm)))
		bw.WriteByte(' ')
		bw.WriteString(strconv.Itoa(r.LiveCount))
		bw.WriteByte(' ')
		bw.WriteString(strconv.Itoa(r.FillCount))
		bw.WriteByte(' ')
		bw.WriteString(FormatFloat(r.NetCash))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func writeBook(bw *bufio.Writer, title string, orders []engine.RestingOrder) {
	bw.WriteString(title)
	bw.WriteByte('\n')
	for _, o := range orders {
		bw.WriteString(strconv.Itoa(int(o.Key.Firm)))
		bw.WriteByte(' ')
		bw.WriteString(o.Key.Symbol)
		bw.WriteByte(' ')
		bw.WriteString(FormatFloat(o.Price))
		bw.WriteByte('\n')
	}
}
