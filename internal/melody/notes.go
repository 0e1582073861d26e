package melody

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rest is the silent pseudo-note. It advances time without emitting a tone.
const Rest = "P"

// Frequencies maps the built-in note names to Hz
var Frequencies = map[string]float64{
	"E5": 659.25, "B4": 493.88, "C5": 523.25, "D5": 587.33, "A4": 440.00,
	"G4": 392.00, "F4": 349.23, "E4": 329.63, "C4": 261.63,
	"F5": 698.46, "G5": 783.99, "A5": 880.00,
	Rest: 0,
}

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// Frequency resolves a note name to Hz.
// Built-in names use the fixed table, anything else is parsed as scientific pitch
// notation (C4, C#4, Db4) in equal temperament with A4 = 440 Hz.
func Frequency(name string) (float64, error) {
	if f, ok := Frequencies[name]; ok {
		return f, nil
	}
	key, err := MIDIKey(name)
	if err != nil {
		return 0, err
	}
	return KeyFrequency(key), nil
}

// MIDIKey parses scientific pitch notation into a MIDI key number (C4 = 60)
func MIDIKey(name string) (int, error) {
	s := strings.TrimSpace(name)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid note %q", name)
	}

	base, ok := semitones[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note letter in %q", name)
	}
	s = s[1:]

	switch s[0] {
	case '#':
		base++
		s = s[1:]
	case 'b':
		base--
		s = s[1:]
	}

	octave, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q", name)
	}

	key := (octave+1)*12 + base
	if key < 0 || key > 127 {
		return 0, fmt.Errorf("note %q out of MIDI range", name)
	}
	return key, nil
}

// KeyFrequency returns the equal-tempered frequency of a MIDI key
func KeyFrequency(key int) float64 {
	return 440 * math.Pow(2, float64(key-69)/12)
}

// NearestKey returns the MIDI key closest to a frequency
func NearestKey(freq float64) int {
	if freq <= 0 {
		return 0
	}
	key := int(math.Round(69 + 12*math.Log2(freq/440)))
	return max(0, min(127, key))
}
