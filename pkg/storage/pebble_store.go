package storage

import (
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/uhyunpark/crossbook/pkg/events"
)

type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// SaveFills writes a batch of fills atomically.
func (s *PebbleStore) SaveFills(fills []events.FillEvent) error {
	if len(fills) == 0 {
		return nil
	}
	b := s.db.NewBatch()
	defer b.Close()
	for _, f := range fills {
		data, err := f.Marshal()
		if err != nil {
			return fmt.Errorf("failed to marshal fill: %w", err)
		}
		if err := b.Set(fillKey(f.Symbol, f.Timestamp, f.Seq), data, nil); err != nil {
			return fmt.Errorf("failed to stage fill: %w", err)
		}
	}
	if err := b.Commit(pebble.NoSync); err != nil {
		return fmt.Errorf("failed to save fills: %w", err)
	}
	return nil
}

func (s *PebbleStore) RecentFills(symbol string, limit int) ([]events.FillEvent, error) {
	prefix := fillPrefix(symbol)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var fills []events.FillEvent
	for iter.Last(); iter.Valid() && len(fills) < limit; iter.Prev() {
		f, err := events.UnmarshalFill(iter.Value())
		if err != nil || f.Symbol != symbol {
			continue // Skip invalid entries
		}
		fills = append(fills, f)
	}
	return fills, nil
}

var _ FillStore = (*PebbleStore)(nil)
