package audio

import (
	"testing"
	"time"
)

type manualClock struct {
	t      time.Time
	sleeps []time.Duration
}

func (c *manualClock) now() time.Time { return c.t }

func (c *manualClock) sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)
}

func newTestPacer(lead time.Duration) (*pacer, *manualClock) {
	clock := &manualClock{t: time.Unix(0, 0)}
	p := &pacer{sampleRate: testRate, lead: lead, now: clock.now, sleep: clock.sleep}
	p.reset()
	return p, clock
}

func TestPacer_HoldsWriterNearWallTime(t *testing.T) {
	p, clock := newTestPacer(50 * time.Millisecond)

	// an eager sink: every write returns immediately
	for i := 0; i < 10; i++ {
		p.wait(100) // 100ms at the test rate
	}

	// 900ms queued before the last write, 50ms of lead allowed
	if got := clock.t.Sub(time.Unix(0, 0)); got != 850*time.Millisecond {
		t.Errorf("expected the writer held back to 850ms, got %v", got)
	}
	for _, d := range clock.sleeps {
		if d > 100*time.Millisecond {
			t.Errorf("expected short sleeps, got %v", d)
		}
	}
}

func TestPacer_NoSleepWithinLead(t *testing.T) {
	p, clock := newTestPacer(200 * time.Millisecond)

	p.wait(100)
	p.wait(100)
	p.wait(100)

	if len(clock.sleeps) != 0 {
		t.Errorf("expected no sleep while within the lead, got %v", clock.sleeps)
	}
}

func TestPacer_StalledSinkDoesNotBurst(t *testing.T) {
	p, clock := newTestPacer(50 * time.Millisecond)

	p.wait(100)
	clock.t = clock.t.Add(2 * time.Second) // the sink blocked for a long time
	p.wait(100)
	p.wait(100)
	p.wait(100)

	if len(clock.sleeps) == 0 {
		t.Error("expected pacing to resume from the stall instead of bursting")
	}
}

func TestPacer_Reset(t *testing.T) {
	p, clock := newTestPacer(0)

	p.wait(500)
	clock.t = clock.t.Add(10 * time.Second)
	p.reset()
	p.wait(100)

	if len(clock.sleeps) != 0 {
		t.Errorf("expected a fresh timeline after reset, got %v", clock.sleeps)
	}
}
