package util

import "time"

type Clock interface {
	NewTicker(d time.Duration) *time.Ticker
	Now() time.Time
}

type RealClock struct{}

func (RealClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }
func (RealClock) Now() time.Time                         { return time.Now() }

// FixedClock always reports the same instant. Tickers are real.
type FixedClock struct{ T time.Time }

func (c FixedClock) NewTicker(d time.Duration) *time.Ticker { return time.NewTicker(d) }
func (c FixedClock) Now() time.Time                         { return c.T }
