// Command engine runs the batch driver: it reads an instruction count and
// that many instructions from stdin (or the file named by the first
// argument), applies them in order and prints the final report.
package main

import (
	"bufio"
	"io"
	"os"

	"go.uber.org/zap/zapcore"

	"github.com/uhyunpark/crossbook/params"
	"github.com/uhyunpark/crossbook/pkg/engine"
	"github.com/uhyunpark/crossbook/pkg/protocol"
	"github.com/uhyunpark/crossbook/pkg/report"
	"github.com/uhyunpark/crossbook/pkg/util"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	cfg := params.LoadFromEnv("")

	level := zapcore.WarnLevel
	if cfg.Node.Verbose {
		level = zapcore.DebugLevel
	}
	logger := util.NewStderrLogger(level)
	defer logger.Sync()
	sugar := logger.Sugar()

	rule, err := engine.ParsePricingRule(cfg.Engine.SellPricing)
	if err != nil {
		sugar.Errorw("config_invalid", "err", err)
		return 2
	}

	in := stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			sugar.Errorw("input_open_failed", "path", args[0], "err", err)
			return 1
		}
		defer f.Close()
		in = f
	}

	out := bufio.NewWriter(stdout)
	defer out.Flush()

	rd := protocol.NewReader(in)
	if cfg.Engine.Prompts {
		rd.Prompts = out
	}

	e := engine.New(engine.WithSellPricing(rule))
	st, err := protocol.Run(rd, e, func(_ protocol.Instruction, o protocol.Outcome) {
		if o.Matched {
			sugar.Debugw("fill",
				"symbol", o.Fill.Symbol, "buyer", o.Fill.Buyer, "seller", o.Fill.Seller,
				"price", o.Fill.Price, "aggressor", o.Fill.Aggressor.String())
		}
	})
	if err != nil {
		sugar.Errorw("input_malformed", "applied", st.Instructions, "err", err)
		return 1
	}
	sugar.Debugw("run_complete",
		"instructions", st.Instructions, "accepted", st.Accepted,
		"fills", st.Fills, "skipped", st.Skipped)

	if err := report.Write(out, e.Snapshot()); err != nil {
		sugar.Errorw("report_failed", "err", err)
		return 1
	}
	return 0
}
