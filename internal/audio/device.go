package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/genricoloni/chiptuned/internal/domain"
	"github.com/gopxl/beep/v2"
	"go.uber.org/zap"
)

// ErrDeviceClosed is returned by operations on a closed device
var ErrDeviceClosed = errors.New("device is closed")

// Output pulls samples from a streamer and plays them
type Output interface {
	// Start begins pulling from src
	Start(src beep.Streamer) error

	// Suspend stops pulling samples until Resume
	Suspend() error

	// Resume continues pulling samples
	Resume() error

	// Close stops the output and releases it
	Close() error
}

// SynthDevice is a domain.Device that renders tones with a Synth and plays them on an Output
type SynthDevice struct {
	logger *zap.Logger
	synth  *Synth
	out    Output

	mu    sync.Mutex
	state domain.DeviceState
}

// NewSynthDevice starts out streaming from synth
func NewSynthDevice(logger *zap.Logger, synth *Synth, out Output) (*SynthDevice, error) {
	if err := out.Start(synth); err != nil {
		return nil, fmt.Errorf("failed to start output: %w", err)
	}
	return &SynthDevice{
		logger: logger,
		synth:  synth,
		out:    out,
		state:  domain.DeviceRunning,
	}, nil
}

// CurrentTime returns the synth clock in seconds
func (d *SynthDevice) CurrentTime() float64 {
	return d.synth.Time()
}

// State returns the device lifecycle state
func (d *SynthDevice) State() domain.DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Resume restarts a suspended output
func (d *SynthDevice) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case domain.DeviceClosed:
		return ErrDeviceClosed
	case domain.DeviceRunning:
		return nil
	}

	if err := d.out.Resume(); err != nil {
		return fmt.Errorf("failed to resume output: %w", err)
	}
	d.state = domain.DeviceRunning
	d.logger.Debug("Audio output resumed", zap.Float64("time", d.synth.Time()))
	return nil
}

// Suspend pauses the output, freezing the synth clock
func (d *SynthDevice) Suspend(ctx context.Context) error {
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

	if err := d.out.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend output: %w", err)
	}
	d.state = domain.DeviceSuspended
	d.logger.Debug("Audio output suspended", zap.Float64("time", d.synth.Time()))
	return nil
}

// Close stops the output. Further calls are no-ops.
func (d *SynthDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == domain.DeviceClosed {
		return nil
	}
	d.state = domain.DeviceClosed
	d.synth.Clear()
	return d.out.Close()
}

// EmitTone schedules a tone on the synth
func (d *SynthDevice) EmitTone(tone domain.Tone) error {
	if d.State() == domain.DeviceClosed {
		return ErrDeviceClosed
	}
	if !d.synth.Add(tone) {
		d.logger.Debug("Tone dropped",
			zap.Float64("start", tone.Start),
			zap.Float64("duration", tone.Duration),
			zap.Float64("now", d.synth.Time()))
	}
	return nil
}
