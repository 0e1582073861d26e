package sequencer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/genricoloni/chiptuned/internal/domain"
	"github.com/genricoloni/chiptuned/internal/melody"
	"go.uber.org/zap"
)

var (
	// ErrInvalidConfiguration is returned by New for unusable timing options
	ErrInvalidConfiguration = errors.New("invalid sequencer configuration")
	// ErrDeviceUnavailable is returned by Start when no audio device could be created or resumed
	ErrDeviceUnavailable = errors.New("audio device unavailable")
)

// Options holds the timing configuration fixed at construction
type Options struct {
	// Tempo in beats per minute
	Tempo float64
	// Lookahead is how far past the device clock each pass schedules notes
	Lookahead time.Duration
	// StartupDelay is the grace period before the first note of a fresh device
	StartupDelay time.Duration
	// Envelope shapes every emitted note
	Envelope domain.Envelope
}

// Sequencer walks a melody cyclically and emits its notes on an audio device a
// fixed lookahead ahead of the device clock.
type Sequencer struct {
	logger       *zap.Logger
	melody       *melody.Melody
	factory      domain.DeviceFactory
	frames       domain.FrameScheduler
	tempo        float64
	lookahead    float64
	startupDelay float64
	envelope     domain.Envelope

	mu            sync.Mutex
	state         domain.PlaybackState
	device        domain.Device
	nextEventTime float64
	index         int
	pending       domain.Handle
	generation    uint64 // bumped on every start/stop; stale passes compare against it

	changes         chan domain.StateChange
	lastDropWarning time.Time
}

// New creates a stopped sequencer
func New(
	logger *zap.Logger,
	m *melody.Melody,
	factory domain.DeviceFactory,
	frames domain.FrameScheduler,
	opts Options,
) (*Sequencer, error) {
	switch {
	case !(opts.Tempo > 0) || math.IsInf(opts.Tempo, 0):
		return nil, fmt.Errorf("%w: tempo must be positive and finite, got %v", ErrInvalidConfiguration, opts.Tempo)
	case opts.Lookahead <= 0:
		return nil, fmt.Errorf("%w: lookahead must be positive, got %v", ErrInvalidConfiguration, opts.Lookahead)
	case opts.StartupDelay < 0:
		return nil, fmt.Errorf("%w: startup delay must not be negative, got %v", ErrInvalidConfiguration, opts.StartupDelay)
	case m == nil || m.Len() == 0:
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, melody.ErrEmptyMelody)
	}

	env := opts.Envelope
	if env == (domain.Envelope{}) {
		env = domain.DefaultEnvelope
	}

	return &Sequencer{
		logger:       logger,
		melody:       m,
		factory:      factory,
		frames:       frames,
		tempo:        opts.Tempo,
		lookahead:    opts.Lookahead.Seconds(),
		startupDelay: opts.StartupDelay.Seconds(),
		envelope:     env,
		state:        domain.StateStopped,
		changes:      make(chan domain.StateChange, 16),
	}, nil
}

// Start begins playback. It is a no-op while playing.
// A fresh device starts from the first step after the startup delay; a suspended
// device resumes at the current step one lookahead from now.
func (s *Sequencer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StatePlaying {
		return nil
	}

	switch {
	case s.device == nil || s.device.State() == domain.DeviceClosed:
		dev, err := s.factory.Create(ctx)
		if err != nil {
			s.logger.Warn("Audio device could not be created, staying silent", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
		s.device = dev
		s.index = 0
		s.nextEventTime = dev.CurrentTime() + s.startupDelay

	case s.device.State() == domain.DeviceSuspended:
		if err := s.device.Resume(ctx); err != nil {
			s.logger.Warn("Audio device could not be resumed, staying silent", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
		s.nextEventTime = s.device.CurrentTime() + s.lookahead

	default:
		// device kept running through a failed suspend; never schedule into the past
		s.nextEventTime = max(s.nextEventTime, s.device.CurrentTime())
	}

	s.state = domain.StatePlaying
	s.generation++
	s.logger.Info("Playback started",
		zap.Int("index", s.index),
		zap.Float64("nextEventTime", s.nextEventTime))
	s.publishLocked()

	s.passLocked(s.generation)
	return nil
}

// Stop halts the scheduling loop and suspends the device. It is a no-op while stopped.
// The melody position is kept for the next Start.
func (s *Sequencer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StatePlaying {
		return nil
	}

	s.cancelLocked()
	s.state = domain.StateStopped
	s.logger.Info("Playback stopped", zap.Int("index", s.index))
	s.publishLocked()

	if err := s.device.Suspend(ctx); err != nil {
		s.logger.Warn("Failed to suspend audio device", zap.Error(err))
		return fmt.Errorf("failed to suspend device: %w", err)
	}
	return nil
}

// Toggle stops when playing and starts otherwise
func (s *Sequencer) Toggle(ctx context.Context) error {
	if s.State() == domain.StatePlaying {
		return s.Stop(ctx)
	}
	return s.Start(ctx)
}

// Close cancels any pending pass and releases the device.
// It is safe to call on every exit path and more than once.
func (s *Sequencer) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	if s.state == domain.StatePlaying {
		s.state = domain.StateStopped
		s.publishLocked()
	}

	if s.device == nil {
		return nil
	}

	err := s.device.Close()
	s.device = nil
	if err != nil {
		return fmt.Errorf("failed to close device: %w", err)
	}
	s.logger.Info("Audio device released")
	return nil
}

// State returns the current playback state
func (s *Sequencer) State() domain.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Position returns the playback cursor
func (s *Sequencer) Position() domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Position{Index: s.index, NextEventTime: s.nextEventTime}
}

// Tempo returns the tempo in beats per minute
func (s *Sequencer) Tempo() float64 {
	return s.tempo
}

// Melody returns the melody being played
func (s *Sequencer) Melody() *melody.Melody {
	return s.melody
}

// Changes returns a read-only channel that emits every state transition
func (s *Sequencer) Changes() <-chan domain.StateChange {
	return s.changes
}

// pass is the timer entry point of the scheduling loop
func (s *Sequencer) pass(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StatePlaying || generation != s.generation {
		return
	}
	s.passLocked(generation)
}

// passLocked emits every step that starts within the lookahead horizon, then
// schedules the next pass. A step starting exactly on the horizon is emitted now.
func (s *Sequencer) passLocked(generation uint64) {
	horizon := s.device.CurrentTime() + s.lookahead

	for s.nextEventTime <= horizon {
		step := s.melody.Step(s.index)
		duration := melody.Duration(step.Beats, s.tempo)

		if !step.IsRest() {
			tone := domain.Tone{
				Frequency: s.melody.Frequency(s.index),
				Start:     s.nextEventTime,
				Duration:  duration,
				Envelope:  s.envelope,
			}
			if err := s.device.EmitTone(tone); err != nil {
				s.logger.Warn("Failed to emit tone",
					zap.Int("index", s.index),
					zap.String("note", step.Note),
					zap.Error(err))
			}
		}

		s.nextEventTime += duration
		s.index = (s.index + 1) % s.melody.Len()
	}

	s.pending = s.frames.Next(func() { s.pass(generation) })
}

func (s *Sequencer) cancelLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.generation++
}

// publishLocked emits the current state without blocking
func (s *Sequencer) publishLocked() {
	change := domain.StateChange{
		State:    s.state,
		Position: domain.Position{Index: s.index, NextEventTime: s.nextEventTime},
		At:       time.Now(),
	}
	select {
	case s.changes <- change:
	default:
		// Rate limit to max one warning per 5 seconds
		if now := time.Now(); now.Sub(s.lastDropWarning) >= 5*time.Second {
			s.logger.Warn("State change channel full, dropping update",
				zap.String("state", string(change.State)))
			s.lastDropWarning = now
		}
	}
}
