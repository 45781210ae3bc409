package engine

// FirmRecord holds one firm's statistics.
type FirmRecord struct {
	Firm FirmID
	// LiveCount is only meaningful after Ledger.ComputeLiveCounts.
	LiveCount int
	FillCount int
	NetCash   float32
}

// Ledger tracks every firm seen, in first-seen order.
type Ledger struct {
	records map[FirmID]*FirmRecord
	order   []FirmID
}

func NewLedger() *Ledger {
	return &Ledger{records: make(map[FirmID]*FirmRecord)}
}

// RegisterIfNew creates a zeroed record for f on first sight. It reports
// whether f was new.
func (l *Ledger) RegisterIfNew(f FirmID) bool {
	if _, ok := l.records[f]; ok {
		return false
	}
	l.records[f] = &FirmRecord{Firm: f}
	l.order = append(l.order, f)
	return true
}

func (l *Ledger) Known(f FirmID) bool {
	_, ok := l.records[f]
	return ok
}

// RecordFill increments f's fill count. Unknown firms are ignored.
func (l *Ledger) RecordFill(f FirmID) {
	if r, ok := l.records[f]; ok {
		r.FillCount++
	}
}

// AdjustCash adds delta to f's net cash. Unknown firms are ignored.
func (l *Ledger) AdjustCash(f FirmID, delta float32) {
	if r, ok := l.records[f]; ok {
		r.NetCash += delta
	}
}

// ComputeLiveCounts recounts every firm's resting orders from the book.
func (l *Ledger) ComputeLiveCounts(b *Book) {
	for _, r := range l.records {
		r.LiveCount = 0
	}
	b.ForEach(func(_ Side, o RestingOrder) {
		if r, ok := l.records[o.Key.Firm]; ok {
			r.LiveCount++
		}
	})
}

// Firms returns firm ids in first-seen order.
func (l *Ledger) Firms() []FirmID {
	return append([]FirmID(nil), l.order...)
}

// Record returns a copy of f's record.
func (l *Ledger) Record(f FirmID) (FirmRecord, bool) {
	r, ok := l.records[f]
	if !ok {
		return FirmRecord{}, false
	}
	return *r, true
}

// Records returns copies of every record in first-seen order.
func (l *Ledger) Records() []FirmRecord {
	out := make([]FirmRecord, 0, len(l.order))
	for _, f := range l.order {
		out = append(out, *l.records[f])
	}
	return out
}

func (l *Ledger) Len() int { return len(l.order) }
