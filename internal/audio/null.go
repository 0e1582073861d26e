package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
)

// NullOutput pulls samples in real time and discards them.
// It keeps the synth clock moving on hosts without a sound card.
type NullOutput struct {
	sampleRate beep.SampleRate
	tick       time.Duration

	mu        sync.Mutex
	suspended bool
	stop      chan struct{}
	done      chan struct{}
}

// NewNullOutput creates an output that advances sampleRate frames per second
func NewNullOutput(sampleRate beep.SampleRate, tick time.Duration) *NullOutput {
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	return &NullOutput{sampleRate: sampleRate, tick: tick}
}

// Start begins draining src on a ticker
func (o *NullOutput) Start(src beep.Streamer) error {
	o.stop = make(chan struct{})
	o.done = make(chan struct{})
	go o.drain(src)
	return nil
}

func (o *NullOutput) drain(src beep.Streamer) {
	defer close(o.done)

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	samples := make([][2]float64, o.sampleRate.N(o.tick))
	last := time.Now()
	var owed float64

	for {
		select {
		case <-o.stop:
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now

			o.mu.Lock()
			suspended := o.suspended
			o.mu.Unlock()
			if suspended {
				owed = 0
				continue
			}

			// follow wall time even when ticks are late
			owed += elapsed.Seconds() * float64(o.sampleRate)
			for owed >= 1 {
				n := min(int(owed), len(samples))
				src.Stream(samples[:n])
				owed -= float64(n)
			}
		}
	}
}

// Suspend stops pulling samples
func (o *NullOutput) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = true
	return nil
}

// Resume continues pulling samples
func (o *NullOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = false
	return nil
}

// Close stops the drain goroutine
func (o *NullOutput) Close() error {
	if o.stop == nil {
		return nil
	}
	select {
	case <-o.stop:
	default:
		close(o.stop)
	}
	<-o.done
	return nil
}
