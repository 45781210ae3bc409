package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func quietEnv(t *testing.T) {
	t.Setenv("ENGINE_PROMPTS", "false")
	t.Setenv("ENGINE_SELL_PRICING", "resting")
	t.Setenv("VERBOSE", "false")
}

func TestRunPrintsReport(t *testing.T) {
	quietEnv(t)
	in := "3\nN 1 X S 10\nN 2 X B 12\nN 3 Y B 4.25\n"

	var out bytes.Buffer
	if code := run(nil, strings.NewReader(in), &out); code != 0 {
		t.Fatalf("exit code %d", code)
	}

	want := "BUYBOOK\n" +
		"3 Y 4.25\n" +
		"SELLBOOK\n" +
		"FIRM IDs\n" +
		"1\n2\n3\n" +
		"FINAL OUTPUT\n" +
		"1 0 1 10\n" +
		"2 0 1 -10\n" +
		"3 1 0 0\n"
	if got := out.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRunReadsFileArgument(t *testing.T) {
	quietEnv(t)
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte("1\nC 9 X\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if code := run([]string{path}, strings.NewReader(""), &out); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if got := out.String(); got != "BUYBOOK\nSELLBOOK\nFIRM IDs\nFINAL OUTPUT\n" {
		t.Errorf("unexpected report %q", got)
	}
}

func TestRunFailsOnMalformedInput(t *testing.T) {
	quietEnv(t)
	var out bytes.Buffer
	if code := run(nil, strings.NewReader("2\nN 1 X B 10\nN 2 X"), &out); code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	if out.Len() != 0 {
		t.Errorf("report written on failure: %q", out.String())
	}
}

func TestRunRejectsUnknownPricingRule(t *testing.T) {
	quietEnv(t)
	t.Setenv("ENGINE_SELL_PRICING", "midpoint")
	if code := run(nil, strings.NewReader("0\n"), &bytes.Buffer{}); code != 2 {
		t.Fatalf("exit code %d, want 2", code)
	}
}
