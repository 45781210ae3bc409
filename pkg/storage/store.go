// Package storage keeps the fill tape: an append-only record of executed
// fills. Engine state is never rebuilt from it.
package storage

import (
	"sync"

	"github.com/uhyunpark/crossbook/pkg/events"
)

type FillStore interface {
	SaveFills(fills []events.FillEvent) error
	// RecentFills returns up to limit fills for symbol, newest first.
	RecentFills(symbol string, limit int) ([]events.FillEvent, error)
	Close() error
}

type InMemoryFillStore struct {
	mu       sync.Mutex
	bySymbol map[string][]events.FillEvent
}

func NewInMemoryFillStore() *InMemoryFillStore {
	return &InMemoryFillStore{bySymbol: make(map[string][]events.FillEvent)}
}

func (s *InMemoryFillStore) SaveFills(fills []events.FillEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fills {
		s.bySymbol[f.Symbol] = append(s.bySymbol[f.Symbol], f)
	}
	return nil
}

func (s *InMemoryFillStore) RecentFills(symbol string, limit int) ([]events.FillEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.bySymbol[symbol]
	var out []events.FillEvent
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *InMemoryFillStore) Close() error { return nil }

var _ FillStore = (*InMemoryFillStore)(nil)
