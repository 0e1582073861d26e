package domain

import "time"

// PlaybackState represents the externally observable state of the sequencer
type PlaybackState string

const (
	// StateStopped indicates no scheduling loop is active
	StateStopped PlaybackState = "Stopped"
	// StatePlaying indicates the scheduling loop is emitting notes
	StatePlaying PlaybackState = "Playing"
)

// DeviceState represents the lifecycle of an audio output device
type DeviceState string

const (
	// DeviceRunning indicates the device clock advances and tones are audible
	DeviceRunning DeviceState = "running"
	// DeviceSuspended indicates the device clock is frozen
	DeviceSuspended DeviceState = "suspended"
	// DeviceClosed indicates the device released its resources
	DeviceClosed DeviceState = "closed"
)

// Envelope shapes the amplitude of an emitted tone.
// Gain jumps to Peak at the start, decays exponentially to Floor and reaches it
// Release seconds before the nominal end of the tone.
type Envelope struct {
	Peak    float64
	Floor   float64
	Release float64
}

// DefaultEnvelope is the 8-bit pluck used for every melody note
var DefaultEnvelope = Envelope{Peak: 0.1, Floor: 0.01, Release: 0.05}

// DecayEnd returns the offset from the tone start at which the decay reaches Floor.
// It is always strictly less than duration.
func (e Envelope) DecayEnd(duration float64) float64 {
	if end := duration - e.Release; end > 0 {
		return end
	}
	return duration / 2
}

// Tone is a single time-scheduled emission on an audio device.
// Start and Duration are expressed in device seconds.
type Tone struct {
	Frequency float64
	Start     float64
	Duration  float64
	Envelope  Envelope
}

// End returns the device time at which the tone is cut
func (t Tone) End() float64 {
	return t.Start + t.Duration
}

// Position describes the playback cursor of the sequencer
type Position struct {
	// Index is the melody step that will be emitted next
	Index int
	// NextEventTime is the device time at which the next step starts
	NextEventTime float64
}

// StateChange is published whenever the sequencer transitions between states
type StateChange struct {
	State    PlaybackState
	Position Position
	At       time.Time
}

// TrackInfo describes the melody currently loaded, used for media metadata
type TrackInfo struct {
	Title  string
	Artist string
	ArtURL string
	Tempo  float64
	Steps  int
	Length time.Duration // one pass through the melody
}
