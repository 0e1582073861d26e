package audio

import (
	"math"
	"sort"
	"sync"

	"github.com/genricoloni/chiptuned/internal/domain"
	"github.com/gopxl/beep/v2"
)

// voice is one scheduled square-wave tone, positioned in frames
type voice struct {
	start    int64
	decayEnd int64
	end      int64
	period   float64 // frames per cycle
	peak     float64
	floor    float64
}

// gain evaluates the envelope at frame f
func (v *voice) gain(f int64) float64 {
	if f >= v.decayEnd {
		return v.floor
	}
	progress := float64(f-v.start) / float64(v.decayEnd-v.start)
	return v.peak * math.Pow(v.floor/v.peak, progress)
}

// sample evaluates the square wave at frame f
func (v *voice) sample(f int64) float64 {
	phase := math.Mod(float64(f-v.start), v.period) / v.period
	if phase < 0.5 {
		return 1
	}
	return -1
}

// Synth is a square-wave voice mixer that implements beep.Streamer.
// Its clock is the number of frames streamed, so it freezes whenever the
// output stops pulling samples.
type Synth struct {
	mu         sync.Mutex
	sampleRate beep.SampleRate
	frame      int64
	voices     []*voice
}

// NewSynth creates a silent synth at the given sample rate
func NewSynth(sampleRate beep.SampleRate) *Synth {
	return &Synth{sampleRate: sampleRate}
}

// SampleRate returns the synth sample rate
func (s *Synth) SampleRate() beep.SampleRate {
	return s.sampleRate
}

// Time returns the synth clock in seconds
func (s *Synth) Time() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return float64(s.frame) / float64(s.sampleRate)
}

// Add schedules a tone. Tones that already ended are dropped; tones that started
// in the past play their remaining part.
func (s *Synth) Add(t domain.Tone) bool {
	if t.Frequency <= 0 || t.Duration <= 0 {
		return false
	}

	rate := float64(s.sampleRate)
	v := &voice{
		start:    int64(math.Round(t.Start * rate)),
		decayEnd: int64(math.Round((t.Start + t.Envelope.DecayEnd(t.Duration)) * rate)),
		end:      int64(math.Round(t.End() * rate)),
		period:   rate / t.Frequency,
		peak:     t.Envelope.Peak,
		floor:    t.Envelope.Floor,
	}
	if v.decayEnd <= v.start {
		v.decayEnd = v.start + 1
	}
	if v.peak <= 0 || v.floor <= 0 {
		v.floor = max(v.floor, 1e-4)
		v.peak = max(v.peak, v.floor)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v.end <= s.frame {
		return false
	}
	i := sort.Search(len(s.voices), func(i int) bool { return s.voices[i].start > v.start })
	s.voices = append(s.voices, nil)
	copy(s.voices[i+1:], s.voices[i:])
	s.voices[i] = v
	return true
}

// Pending returns the number of voices that have not finished
func (s *Synth) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.voices)
}

// Stream implements beep.Streamer. It never runs out of samples.
func (s *Synth) Stream(samples [][2]float64) (n int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range samples {
		f := s.frame + int64(i)
		var mix float64
		for _, v := range s.voices {
			if v.start > f {
				break
			}
			if f < v.end {
				mix += v.sample(f) * v.gain(f)
			}
		}
		samples[i][0] = mix
		samples[i][1] = mix
	}
	s.frame += int64(len(samples))

	// drop finished voices
	live := s.voices[:0]
	for _, v := range s.voices {
		if v.end > s.frame {
			live = append(live, v)
		}
	}
	for i := len(live); i < len(s.voices); i++ {
		s.voices[i] = nil
	}
	s.voices = live

	return len(samples), true
}

// Err implements beep.Streamer
func (s *Synth) Err() error {
	return nil
}

// Clear drops all scheduled voices
func (s *Synth) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices = nil
}
