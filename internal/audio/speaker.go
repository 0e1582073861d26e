package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

var (
	// ErrSpeakerBusy is returned when the process-wide speaker is already in use
	ErrSpeakerBusy = errors.New("speaker is already in use")
	// ErrSpeakerUnavailable wraps the failure of the one-time speaker initialisation.
	// The sound context can only be created once per process, so it is permanent.
	ErrSpeakerUnavailable = errors.New("speaker unavailable for the rest of the process")
)

// speakerDriver is the subset of the speaker package an output needs
type speakerDriver interface {
	Init(sampleRate beep.SampleRate, bufferSize int) error
	Play(s ...beep.Streamer)
	Clear()
	Suspend() error
	Resume() error
}

// beepSpeaker initialises the speaker package at most once and remembers the outcome
type beepSpeaker struct {
	init func(beep.SampleRate, int) error

	once sync.Once
	rate beep.SampleRate
	err  error
}

func (b *beepSpeaker) Init(sampleRate beep.SampleRate, bufferSize int) error {
	b.once.Do(func() {
		b.rate = sampleRate
		b.err = b.init(sampleRate, bufferSize)
	})
	if b.err != nil {
		return b.err
	}
	if sampleRate != b.rate {
		return fmt.Errorf("speaker runs at %d Hz, cannot switch to %d Hz", b.rate, sampleRate)
	}
	return nil
}

func (b *beepSpeaker) Play(s ...beep.Streamer) { speaker.Play(s...) }
func (b *beepSpeaker) Clear()                  { speaker.Clear() }
func (b *beepSpeaker) Suspend() error          { return speaker.Suspend() }
func (b *beepSpeaker) Resume() error           { return speaker.Resume() }

// the speaker package drives a single process-wide sound context
var (
	processSpeaker = &beepSpeaker{init: speaker.Init}
	speakerInUse   atomic.Bool
)

// SpeakerOutput plays samples on the default sound card.
// Closing it detaches the streamer and suspends the sound context; the context
// itself stays open so a later output can reuse it.
type SpeakerOutput struct {
	driver     speakerDriver
	inUse      *atomic.Bool
	sampleRate beep.SampleRate
	buffer     time.Duration
	started    bool
}

// NewSpeakerOutput creates a speaker output with the given buffer length
func NewSpeakerOutput(sampleRate beep.SampleRate, buffer time.Duration) *SpeakerOutput {
	return newSpeakerOutput(processSpeaker, &speakerInUse, sampleRate, buffer)
}

func newSpeakerOutput(driver speakerDriver, inUse *atomic.Bool, sampleRate beep.SampleRate, buffer time.Duration) *SpeakerOutput {
	if buffer <= 0 {
		buffer = 50 * time.Millisecond
	}
	return &SpeakerOutput{driver: driver, inUse: inUse, sampleRate: sampleRate, buffer: buffer}
}

// Start initialises the speaker on first use and plays src
func (o *SpeakerOutput) Start(src beep.Streamer) error {
	if !o.inUse.CompareAndSwap(false, true) {
		return ErrSpeakerBusy
	}
	if err := o.driver.Init(o.sampleRate, o.sampleRate.N(o.buffer)); err != nil {
		o.inUse.Store(false)
		return fmt.Errorf("%w: %w", ErrSpeakerUnavailable, err)
	}

	o.driver.Play(src)
	// a previous output left the context suspended
	if err := o.driver.Resume(); err != nil {
		o.driver.Clear()
		o.inUse.Store(false)
		return fmt.Errorf("failed to resume speaker: %w", err)
	}
	o.started = true
	return nil
}

// Suspend pauses the sound context
func (o *SpeakerOutput) Suspend() error {
	return o.driver.Suspend()
}

// Resume restarts the sound context
func (o *SpeakerOutput) Resume() error {
	return o.driver.Resume()
}

// Close detaches the streamer and silences the sound card
func (o *SpeakerOutput) Close() error {
	if !o.started {
		return nil
	}
	o.started = false
	o.driver.Clear()
	err := o.driver.Suspend()
	o.inUse.Store(false)
	if err != nil {
		return fmt.Errorf("failed to suspend speaker: %w", err)
	}
	return nil
}
