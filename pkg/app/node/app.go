// Package node runs one matching engine behind a FIFO instruction queue. A
// single sequencer applies queued instructions in arrival order; everything
// else reads snapshots.
package node

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uhyunpark/crossbook/pkg/app/mempool"
	"github.com/uhyunpark/crossbook/pkg/engine"
	"github.com/uhyunpark/crossbook/pkg/events"
	"github.com/uhyunpark/crossbook/pkg/protocol"
	"github.com/uhyunpark/crossbook/pkg/storage"
	"github.com/uhyunpark/crossbook/pkg/util"
)

type Config struct {
	SellPricing engine.PricingRule
	// Interval between sequencer ticks in Run.
	Interval time.Duration
	// MaxBatch caps the instructions applied per tick; <= 0 drains the queue.
	MaxBatch int
}

// BatchResult summarises one sequencer tick. Symbols lists each symbol the
// batch touched, in first-touched order.
type BatchResult struct {
	Height       uint64
	Instructions int
	Accepted     int
	Symbols      []string
	Fills        []events.FillEvent
	StateHash    [32]byte
}

type App struct {
	cfg     Config
	mempool *mempool.Mempool

	// mu guards the engine and everything below it.
	mu        sync.Mutex
	eng       *engine.Engine
	seq       uint64
	height    uint64
	stateHash [32]byte

	Clock     util.Clock
	NewID     func() string
	Store     storage.FillStore
	Publisher events.Publisher
	Logger    *zap.SugaredLogger

	// OnFills runs after every batch that executed at least one fill.
	OnFills func(fills []events.FillEvent)
	// OnBatch runs after every non-empty batch.
	OnBatch func(res BatchResult)
}

func NewApp(cfg Config) *App {
	a := &App{
		cfg:       cfg,
		mempool:   mempool.NewMempool(),
		eng:       engine.New(engine.WithSellPricing(cfg.SellPricing)),
		Clock:     util.RealClock{},
		NewID:     uuid.NewString,
		Store:     storage.NewInMemoryFillStore(),
		Publisher: events.NopPublisher{},
		Logger:    zap.NewNop().Sugar(),
	}
	a.stateHash = a.computeStateHash(0)
	return a
}

// Submit queues an instruction for the next sequencer tick.
func (a *App) Submit(in protocol.Instruction) { a.mempool.Push(in) }

// PushRaw decodes and queues a JSON instruction.
func (a *App) PushRaw(b []byte) error { return a.mempool.PushRaw(b) }

func (a *App) MempoolSize() int { return a.mempool.Len() }

// ApplyBatch drains up to MaxBatch queued instructions and applies them in
// order. Hooks, storage and publishing run after the engine lock is released.
func (a *App) ApplyBatch(ctx context.Context) BatchResult {
	batch := a.mempool.SelectBatch(a.cfg.MaxBatch)
	if len(batch) == 0 {
		return BatchResult{Height: a.Height(), StateHash: a.StateHash()}
	}

	a.mu.Lock()
	a.height++
	res := BatchResult{Height: a.height, Instructions: len(batch)}
	now := a.Clock.Now().UnixMilli()
	touched := make(map[string]struct{})
	for _, in := range batch {
		if _, ok := touched[in.Symbol]; !ok && in.Op.Known() {
			touched[in.Symbol] = struct{}{}
			res.Symbols = append(res.Symbols, in.Symbol)
		}
		out := protocol.Apply(a.eng, in)
		if out.Accepted {
			res.Accepted++
		}
		if out.Matched {
			a.seq++
			res.Fills = append(res.Fills, events.NewFillEvent(a.NewID(), a.seq, now, out.Fill))
		}
	}
	a.stateHash = a.computeStateHash(a.height)
	res.StateHash = a.stateHash
	a.mu.Unlock()

	if len(res.Fills) > 0 {
		if err := a.Store.SaveFills(res.Fills); err != nil {
			a.Logger.Errorw("fill_store_failed", "height", res.Height, "fills", len(res.Fills), "err", err)
		}
		if err := a.Publisher.Publish(ctx, res.Fills); err != nil {
			a.Logger.Errorw("fill_publish_failed", "height", res.Height, "fills", len(res.Fills), "err", err)
		}
		for _, f := range res.Fills {
			a.Logger.Debugw("fill_executed",
				"symbol", f.Symbol, "buyer", f.Buyer, "seller", f.Seller,
				"price", f.Price, "aggressor", f.Aggressor)
		}
		if a.OnFills != nil {
			a.OnFills(res.Fills)
		}
	}
	if a.OnBatch != nil {
		a.OnBatch(res)
	}
	return res
}

// Run applies batches every Interval until ctx is done, then drains what is
// left in the queue.
func (a *App) Run(ctx context.Context) error {
	interval := a.cfg.Interval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := a.Clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			for a.mempool.Len() > 0 {
				a.ApplyBatch(context.Background())
			}
			return ctx.Err()
		case <-ticker.C:
			res := a.ApplyBatch(ctx)
			if res.Instructions > 0 {
				a.Logger.Debugw("batch_applied",
					"height", res.Height,
					"instructions", res.Instructions,
					"accepted", res.Accepted,
					"fills", len(res.Fills))
			}
		}
	}
}

// Snapshot copies engine state with live counts recomputed.
func (a *App) Snapshot() engine.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.eng.Snapshot()
}

func (a *App) StateHash() [32]byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateHash
}

func (a *App) Height() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.height
}

// FillCount returns how many fills the node has executed.
func (a *App) FillCount() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seq
}

func (a *App) SellPricing() engine.PricingRule { return a.cfg.SellPricing }

// computeStateHash hashes, in order: the batch height, every bid then every
// ask in key order (firm, symbol, price bits), and every firm record in
// first-seen order (firm, fill count, net cash bits). Live counts are derived
// from the book and so are not hashed separately. Caller holds mu.
func (a *App) computeStateHash(height uint64) [32]byte {
	h := sha256.New()
	var buf [8]byte

	binary.BigEndian.PutUint64(buf[:], height)
	h.Write(buf[:])

	writeOrders := func(tag byte, orders []engine.RestingOrder) {
		h.Write([]byte{tag})
		for _, o := range orders {
			binary.BigEndian.PutUint16(buf[:2], uint16(o.Key.Firm))
			h.Write(buf[:2])
			binary.BigEndian.PutUint32(buf[:4], uint32(len(o.Key.Symbol)))
			h.Write(buf[:4])
			h.Write([]byte(o.Key.Symbol))
			binary.BigEndian.PutUint32(buf[:4], math.Float32bits(o.Price))
			h.Write(buf[:4])
		}
	}
	writeOrders('B', a.eng.Book().Bids())
	writeOrders('S', a.eng.Book().Asks())

	h.Write([]byte{'F'})
	for _, r := range a.eng.Ledger().Records() {
		binary.BigEndian.PutUint16(buf[:2], uint16(r.Firm))
		h.Write(buf[:2])
		binary.BigEndian.PutUint64(buf[:], uint64(r.FillCount))
		h.Write(buf[:])
		binary.BigEndian.PutUint32(buf[:4], math.Float32bits(r.NetCash))
		h.Write(buf[:4])
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
