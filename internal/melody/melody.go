package melody

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyMelody is returned when a melody has no steps
var ErrEmptyMelody = errors.New("melody has no steps")

// MinBeats is the shortest step a melody may hold, a 256th note
const MinBeats = 1.0 / 64

// Step is one entry of a melody: a note name and its length in quarter notes
type Step struct {
	Note  string
	Beats float64
}

// IsRest reports whether the step is silent
func (s Step) IsRest() bool {
	return s.Note == Rest
}

// Melody is an immutable sequence of steps with resolved frequencies
type Melody struct {
	name  string
	tempo float64
	steps []Step
	freqs []float64
}

// New validates steps and resolves their frequencies. tempo may be zero when the
// melody does not carry its own tempo.
func New(name string, tempo float64, steps []Step) (*Melody, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyMelody
	}
	if tempo < 0 || math.IsNaN(tempo) || math.IsInf(tempo, 0) {
		return nil, fmt.Errorf("melody %q: tempo must be a finite non-negative number, got %v", name, tempo)
	}

	m := &Melody{
		name:  name,
		tempo: tempo,
		steps: make([]Step, len(steps)),
		freqs: make([]float64, len(steps)),
	}
	copy(m.steps, steps)

	for i, s := range steps {
		if math.IsNaN(s.Beats) || math.IsInf(s.Beats, 0) || s.Beats < MinBeats {
			return nil, fmt.Errorf("melody %q step %d: beat length must be finite and at least %v, got %v", name, i, MinBeats, s.Beats)
		}
		f, err := Frequency(s.Note)
		if err != nil {
			return nil, fmt.Errorf("melody %q step %d: %w", name, i, err)
		}
		m.freqs[i] = f
	}
	return m, nil
}

// Name returns the melody title
func (m *Melody) Name() string { return m.name }

// Tempo returns the tempo carried by the melody, zero if none
func (m *Melody) Tempo() float64 { return m.tempo }

// Len returns the number of steps
func (m *Melody) Len() int { return len(m.steps) }

// Step returns the step at index i
func (m *Melody) Step(i int) Step { return m.steps[i] }

// Frequency returns the resolved frequency of step i, zero for rests
func (m *Melody) Frequency(i int) float64 { return m.freqs[i] }

// Beats returns the total length of one cycle in quarter notes
func (m *Melody) Beats() float64 {
	var total float64
	for _, s := range m.steps {
		total += s.Beats
	}
	return total
}

// Duration converts a beat length into seconds at the given tempo
func Duration(beats, tempoBPM float64) float64 {
	return beats * 60 / tempoBPM
}

// Korobeiniki returns the built-in melody (Tetris theme A)
func Korobeiniki() *Melody {
	m, err := New("Korobeiniki", 140, korobeiniki)
	if err != nil {
		panic(err)
	}
	return m
}

var korobeiniki = []Step{
	{"E5", 1}, {"B4", 0.5}, {"C5", 0.5}, {"D5", 1}, {"C5", 0.5}, {"B4", 0.5},
	{"A4", 1}, {"A4", 0.5}, {"C5", 0.5}, {"E5", 1}, {"D5", 0.5}, {"C5", 0.5},
	{"B4", 1.5}, {"C5", 0.5}, {"D5", 1}, {"E5", 1},
	{"C5", 1}, {"A4", 1}, {"A4", 2},
	{Rest, 0.1},
	{"D5", 1.5}, {"F5", 0.5}, {"A5", 1}, {"G5", 0.5}, {"F5", 0.5},
	{"E5", 1.5}, {"C5", 0.5}, {"E5", 1}, {"D5", 0.5}, {"C5", 0.5},
	{"B4", 1}, {"B4", 0.5}, {"C5", 0.5}, {"D5", 1}, {"E5", 1},
	{"C5", 1}, {"A4", 1}, {"A4", 2},
}
