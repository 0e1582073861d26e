package audio

import (
	"time"

	"github.com/gopxl/beep/v2"
)

// pacer keeps a writer at most lead ahead of wall time.
// Sinks that accept samples faster than they play them would otherwise let the
// synth clock run far past the notes scheduled against it.
type pacer struct {
	sampleRate beep.SampleRate
	lead       time.Duration
	now        func() time.Time
	sleep      func(time.Duration)

	start  time.Time
	frames int
}

func newPacer(sampleRate beep.SampleRate, lead time.Duration) *pacer {
	p := &pacer{
		sampleRate: sampleRate,
		lead:       lead,
		now:        time.Now,
		sleep:      time.Sleep,
	}
	p.reset()
	return p
}

// reset restarts the timeline, after a suspension for instance
func (p *pacer) reset() {
	p.start = p.now()
	p.frames = 0
}

// wait blocks until n more frames may be written
func (p *pacer) wait(n int) {
	written := p.sampleRate.D(p.frames)
	elapsed := p.now().Sub(p.start)

	// a stalled sink owes nothing; do not burst to catch up
	if elapsed > written+p.lead {
		p.start = p.now().Add(-written)
		elapsed = written
	}

	if ahead := written - elapsed; ahead > p.lead {
		p.sleep(ahead - p.lead)
	}
	p.frames += n
}
