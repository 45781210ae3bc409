package node

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/uhyunpark/crossbook/pkg/engine"
	"github.com/uhyunpark/crossbook/pkg/events"
	"github.com/uhyunpark/crossbook/pkg/protocol"
	"github.com/uhyunpark/crossbook/pkg/util"
)

type recordingPublisher struct {
	fills []events.FillEvent
}

func (p *recordingPublisher) Publish(_ context.Context, fills []events.FillEvent) error {
	p.fills = append(p.fills, fills...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newTestApp() *App {
	a := NewApp(Config{MaxBatch: 0})
	a.Clock = util.FixedClock{T: time.UnixMilli(1700000000000)}
	n := 0
	a.NewID = func() string {
		n++
		return fmt.Sprintf("fill-%d", n)
	}
	return a
}

func TestApplyBatchExecutesInOrder(t *testing.T) {
	a := newTestApp()
	pub := &recordingPublisher{}
	a.Publisher = pub
	var hooked []events.FillEvent
	a.OnFills = func(f []events.FillEvent) { hooked = append(hooked, f...) }

	a.Submit(protocol.Instruction{Op: protocol.OpNew, Firm: 1, Symbol: "X", Side: engine.Sell, Price: 10})
	a.Submit(protocol.Instruction{Op: protocol.OpNew, Firm: 2, Symbol: "X", Side: engine.Buy, Price: 12})
	a.Submit(protocol.Instruction{Op: protocol.OpCancel, Firm: 9, Symbol: "X"})

	res := a.ApplyBatch(context.Background())
	if res.Height != 1 || res.Instructions != 3 || res.Accepted != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(res.Fills))
	}
	want := events.FillEvent{
		ID: "fill-1", Seq: 1, Timestamp: 1700000000000,
		Symbol: "X", Buyer: 2, Seller: 1, Price: 10, Aggressor: "buy",
	}
	if res.Fills[0] != want {
		t.Errorf("fill = %+v, want %+v", res.Fills[0], want)
	}
	if len(pub.fills) != 1 || len(hooked) != 1 {
		t.Errorf("fills not fanned out: published=%d hooked=%d", len(pub.fills), len(hooked))
	}
	stored, _ := a.Store.RecentFills("X", 10)
	if len(stored) != 1 {
		t.Errorf("expected stored fill, got %d", len(stored))
	}
	if a.FillCount() != 1 {
		t.Errorf("FillCount() = %d, want 1", a.FillCount())
	}
}

func TestApplyBatchCancelBeforeCross(t *testing.T) {
	a := newTestApp()
	a.Submit(protocol.Instruction{Op: protocol.OpNew, Firm: 1, Symbol: "X", Side: engine.Sell, Price: 5})
	a.Submit(protocol.Instruction{Op: protocol.OpCancel, Firm: 1, Symbol: "X"})
	a.Submit(protocol.Instruction{Op: protocol.OpNew, Firm: 2, Symbol: "X", Side: engine.Buy, Price: 6})

	res := a.ApplyBatch(context.Background())
	if len(res.Fills) != 0 {
		t.Fatalf("cancel must apply before the later buy, got %d fills", len(res.Fills))
	}
	s := a.Snapshot()
	if len(s.Asks) != 0 || len(s.Bids) != 1 {
		t.Errorf("unexpected book: bids=%v asks=%v", s.Bids, s.Asks)
	}
}

func TestEmptyBatchKeepsHeight(t *testing.T) {
	a := newTestApp()
	h := a.StateHash()
	res := a.ApplyBatch(context.Background())
	if res.Height != 0 || res.StateHash != h {
		t.Errorf("empty batch changed state: %+v", res)
	}
}

func TestStateHashDeterministic(t *testing.T) {
	feed := NewTxGenerator(5, []string{"X", "Y"}, 7).GenerateBatch(500)

	run := func() [32]byte {
		a := newTestApp()
		for _, in := range feed {
			a.Submit(in)
		}
		a.ApplyBatch(context.Background())
		return a.StateHash()
	}
	if run() != run() {
		t.Fatal("same instruction stream produced different state hashes")
	}

	a := newTestApp()
	before := a.StateHash()
	a.Submit(protocol.Instruction{Op: protocol.OpNew, Firm: 1, Symbol: "X", Side: engine.Buy, Price: 1})
	a.ApplyBatch(context.Background())
	if a.StateHash() == before {
		t.Error("state hash did not change after a resting order")
	}
}

func TestRunDrainsOnShutdown(t *testing.T) {
	a := NewApp(Config{Interval: time.Hour})
	a.Submit(protocol.Instruction{Op: protocol.OpNew, Firm: 1, Symbol: "X", Side: engine.Buy, Price: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Run(ctx); err != context.Canceled {
		t.Fatalf("Run() = %v, want context.Canceled", err)
	}
	if a.MempoolSize() != 0 {
		t.Errorf("expected drained mempool")
	}
	if len(a.Snapshot().Bids) != 1 {
		t.Errorf("queued instruction was not applied")
	}
}

func TestTxGeneratorShape(t *testing.T) {
	g := NewTxGenerator(3, []string{"A"}, 1)
	for _, in := range g.GenerateBatch(200) {
		if in.Firm < 1 || in.Firm > 3 {
			t.Fatalf("firm out of range: %d", in.Firm)
		}
		if !in.Op.Known() {
			t.Fatalf("unknown op %v", in.Op)
		}
		if in.Op == protocol.OpNew && !in.Side.Valid() {
			t.Fatalf("invalid side %v", in.Side)
		}
		if in.Op != protocol.OpCancel && (in.Price < 95 || in.Price > 105) {
			t.Fatalf("price out of band: %v", in.Price)
		}
	}
}

func TestTxFeederSubmits(t *testing.T) {
	a := NewApp(Config{})
	cfg := DefaultFeederConfig()
	cfg.Interval = 5 * time.Millisecond
	cfg.BatchSize = 4
	cfg.Seed = 3

	stop := StartTxFeeder(context.Background(), a, cfg)
	defer stop()

	deadline := time.Now().Add(2 * time.Second)
	for a.MempoolSize() < cfg.BatchSize {
		if time.Now().After(deadline) {
			t.Fatalf("feeder queued %d instructions, want at least %d", a.MempoolSize(), cfg.BatchSize)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestTxFeederNonPositiveInterval(t *testing.T) {
	for _, d := range []time.Duration{0, -time.Second} {
		a := NewApp(Config{})
		cfg := DefaultFeederConfig()
		cfg.Interval = d
		cfg.BatchSize = 1

		stop := StartTxFeeder(context.Background(), a, cfg)
		deadline := time.Now().Add(2 * time.Second)
		for a.MempoolSize() == 0 {
			if time.Now().After(deadline) {
				stop()
				t.Fatalf("interval %v: feeder never submitted", d)
			}
			time.Sleep(5 * time.Millisecond)
		}
		stop()
	}
}
