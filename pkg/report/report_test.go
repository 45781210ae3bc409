package report

import (
	"bytes"
	"testing"

	"github.com/uhyunpark/crossbook/pkg/engine"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float32
		want string
	}{
		{10, "10"},
		{-10, "-10"},
		{12.5, "12.5"},
		{0.1, "0.1"},
		{1234567, "1.23457e+06"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{0, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatFloat(tt.in); got != tt.want {
				t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	e := engine.New()
	e.NewOrder(5, "AAPL", engine.Buy, 10.5)
	e.NewOrder(2, "MSFT", engine.Sell, 20)
	e.NewOrder(3, "MSFT", engine.Buy, 25)
	e.NewOrder(1, "AAPL", engine.Sell, 11)

	var buf bytes.Buffer
	if err := Write(&buf, e.Snapshot()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := "BUYBOOK\n" +
		"5 AAPL 10.5\n" +
		"SELLBOOK\n" +
		"1 AAPL 11\n" +
		"FIRM IDs\n" +
		"5\n2\n3\n1\n" +
		"FINAL OUTPUT\n" +
		"1 1 0 0\n" +
		"2 0 1 20\n" +
		"3 0 1 -20\n" +
		"5 1 0 0\n"
	if got := buf.String(); got != want {
		t.Errorf("report mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}
