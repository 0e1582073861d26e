package sequencer

import (
	"time"

	"github.com/genricoloni/chiptuned/internal/domain"
)

// IntervalFrames runs each scheduled callback after a fixed polling interval.
// The interval has to stay well below the lookahead so passes never fall behind.
type IntervalFrames struct {
	interval time.Duration
}

// NewIntervalFrames creates a frame scheduler with the given polling interval
func NewIntervalFrames(interval time.Duration) *IntervalFrames {
	return &IntervalFrames{interval: interval}
}

// Next schedules fn once, interval from now
func (f *IntervalFrames) Next(fn func()) domain.Handle {
	return time.AfterFunc(f.interval, fn)
}
