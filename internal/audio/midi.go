package audio

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/genricoloni/chiptuned/internal/domain"
	"github.com/genricoloni/chiptuned/internal/melody"
	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"
)

// MIDIDevice plays tones as note on/off messages on a MIDI output port.
// Its clock is wall time since creation minus the time spent suspended.
type MIDIDevice struct {
	logger  *zap.Logger
	send    func(gomidi.Message) error
	closer  func() error
	channel uint8
	now     func() time.Time

	mu          sync.Mutex
	state       domain.DeviceState
	origin      time.Time
	suspendedAt time.Time
	paused      time.Duration
	timers      map[*time.Timer]struct{}
	sounding    map[uint8]int
}

// OpenMIDIDevice opens the first output port whose name contains port,
// or the first port when port is empty
func OpenMIDIDevice(logger *zap.Logger, port string) (*MIDIDevice, error) {
	for _, out := range gomidi.GetOutPorts() {
		if port != "" && !strings.Contains(out.String(), port) {
			continue
		}
		send, err := gomidi.SendTo(out)
		if err != nil {
			return nil, fmt.Errorf("failed to open MIDI port %q: %w", out.String(), err)
		}
		logger.Info("MIDI output opened", zap.String("port", out.String()))
		return NewMIDIDevice(logger, send, out.Close, 0), nil
	}
	if port == "" {
		return nil, fmt.Errorf("no MIDI output ports available")
	}
	return nil, fmt.Errorf("no MIDI output port matching %q", port)
}

// NewMIDIDevice creates a running device around a message sender
func NewMIDIDevice(logger *zap.Logger, send func(gomidi.Message) error, closer func() error, channel uint8) *MIDIDevice {
	d := &MIDIDevice{
		logger:   logger,
		send:     send,
		closer:   closer,
		channel:  channel,
		now:      time.Now,
		state:    domain.DeviceRunning,
		timers:   make(map[*time.Timer]struct{}),
		sounding: make(map[uint8]int),
	}
	d.origin = d.now()
	return d
}

// CurrentTime returns seconds of unsuspended time since creation
func (d *MIDIDevice) CurrentTime() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clockLocked()
}

func (d *MIDIDevice) clockLocked() float64 {
	end := d.now()
	if d.state != domain.DeviceRunning {
		end = d.suspendedAt
	}
	return (end.Sub(d.origin) - d.paused).Seconds()
}

// State returns the device lifecycle state
func (d *MIDIDevice) State() domain.DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Resume restarts the clock
func (d *MIDIDevice) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case domain.DeviceClosed:
		return ErrDeviceClosed
	case domain.DeviceSuspended:
		d.paused += d.now().Sub(d.suspendedAt)
		d.state = domain.DeviceRunning
	}
	return nil
}

// Suspend freezes the clock, drops pending notes and silences sounding ones
func (d *MIDIDevice) Suspend(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case domain.DeviceClosed:
		return ErrDeviceClosed
	case domain.DeviceSuspended:
		return nil
	}

	d.suspendedAt = d.now()
	d.state = domain.DeviceSuspended
	return d.silenceLocked()
}

// Close silences the port and closes it. Further calls are no-ops.
func (d *MIDIDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == domain.DeviceClosed {
		return nil
	}
	if d.state == domain.DeviceRunning {
		d.suspendedAt = d.now()
	}
	d.state = domain.DeviceClosed

	err := d.silenceLocked()
	if d.closer != nil {
		if cerr := d.closer(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close MIDI port: %w", cerr)
		}
	}
	return err
}

// EmitTone schedules note on at the tone start and note off at its end
func (d *MIDIDevice) EmitTone(tone domain.Tone) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == domain.DeviceClosed {
		return ErrDeviceClosed
	}

	key := uint8(melody.NearestKey(tone.Frequency))
	velocity := velocityFor(tone.Envelope.Peak)
	now := d.clockLocked()
	onAt := seconds(tone.Start - now)
	offAt := seconds(tone.End() - now)
	if offAt <= 0 {
		return nil
	}

	d.afterLocked(onAt, func() {
		d.sounding[key]++
		d.sendLocked(gomidi.NoteOn(d.channel, key, velocity))
	})
	d.afterLocked(offAt, func() {
		if d.sounding[key] == 0 {
			return
		}
		d.sounding[key]--
		d.sendLocked(gomidi.NoteOff(d.channel, key))
	})
	return nil
}

// afterLocked runs fn under the device lock after delay unless the device is
// suspended or closed first
func (d *MIDIDevice) afterLocked(delay time.Duration, fn func()) {
	var t *time.Timer
	t = time.AfterFunc(max(delay, 0), func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if _, ok := d.timers[t]; !ok {
			return
		}
		delete(d.timers, t)
		fn()
	})
	d.timers[t] = struct{}{}
}

func (d *MIDIDevice) silenceLocked() error {
	for t := range d.timers {
		t.Stop()
	}
	clear(d.timers)

	var err error
	for key, n := range d.sounding {
		if n > 0 {
			if serr := d.send(gomidi.NoteOff(d.channel, key)); serr != nil && err == nil {
				err = fmt.Errorf("failed to silence note %d: %w", key, serr)
			}
		}
	}
	clear(d.sounding)
	return err
}

func (d *MIDIDevice) sendLocked(msg gomidi.Message) {
	if err := d.send(msg); err != nil {
		d.logger.Warn("Failed to send MIDI message",
			zap.String("message", msg.String()),
			zap.Error(err))
	}
}

// velocityFor maps the envelope peak so the default gain plays at velocity 100
func velocityFor(peak float64) uint8 {
	v := math.Round(peak / domain.DefaultEnvelope.Peak * 100)
	return uint8(max(1, min(127, v)))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
