package domain

import "context"

// Device is an audio output with its own clock that plays tones at scheduled times
//
//go:generate mockgen -destination=mocks/device_mock.go -package=mocks github.com/genricoloni/chiptuned/internal/domain Device,DeviceFactory
type Device interface {
	// CurrentTime returns the device clock in seconds
	CurrentTime() float64

	// State returns whether the device is running, suspended or closed
	State() DeviceState

	// Resume restarts a suspended device clock
	Resume(ctx context.Context) error

	// Suspend freezes the device clock and silences output
	Suspend(ctx context.Context) error

	// Close releases the device; it cannot be resumed afterwards
	Close() error

	// EmitTone schedules a tone; tones with earlier start times play first
	EmitTone(tone Tone) error
}

// DeviceFactory creates audio output devices
type DeviceFactory interface {
	// Create opens a new running device or reports why none is available
	Create(ctx context.Context) (Device, error)
}

// Handle is a pending scheduling callback that can be cancelled.
// *time.Timer satisfies it.
type Handle interface {
	// Stop cancels the callback, reporting whether it was still pending
	Stop() bool
}

// FrameScheduler runs a callback on the next polling frame
type FrameScheduler interface {
	// Next schedules fn to run once on the next frame
	Next(fn func()) Handle
}

// Controller is the set of operations exposed to user-facing controls
type Controller interface {
	// Start begins playback; it is a no-op while playing
	Start(ctx context.Context) error

	// Stop halts playback; it is a no-op while stopped
	Stop(ctx context.Context) error

	// Toggle stops when playing and starts otherwise
	Toggle(ctx context.Context) error

	// State returns the current playback state
	State() PlaybackState
}

// Fetcher defines the interface for retrieving melody documents
type Fetcher interface {
	// Fetch downloads or reads a document from a URL or local path
	// Returns the raw bytes or an error
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// CoverRenderer produces artwork for the loaded melody
type CoverRenderer interface {
	// Render draws the artwork and returns the path of the written file
	Render(ctx context.Context) (string, error)
}

// Config defines the interface for application configuration
type Config interface {
	// GetOutput returns the name of the audio output backend
	GetOutput() string

	// GetOutputDir returns the directory for generated artwork
	GetOutputDir() string

	// GetMelodySource returns the melody path or URL, empty for the built-in melody
	GetMelodySource() string

	// GetAutoplay reports whether playback should start with the daemon
	GetAutoplay() bool
}

// Player is a Controller that also reports its progress and owns a device
type Player interface {
	Controller

	// Position returns the playback cursor
	Position() Position

	// Tempo returns the tempo in beats per minute
	Tempo() float64

	// Changes returns a read-only channel that emits every state transition
	Changes() <-chan StateChange

	// Close cancels scheduling and releases the device
	Close(ctx context.Context) error
}

// Trigger is a boolean play signal driven by an external source
type Trigger interface {
	// Set updates the signal; a rising edge starts playback
	Set(ctx context.Context, value bool) error
}

// MediaServer publishes playback state to desktop media controls
type MediaServer interface {
	// Start exposes the endpoint
	Start(ctx context.Context) error

	// Stop withdraws the endpoint
	Stop() error

	// SetTrack replaces the published track metadata
	SetTrack(track TrackInfo)

	// Update publishes a playback state change
	Update(change StateChange)
}
