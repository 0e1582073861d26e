package melody

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestFrequency(t *testing.T) {
	tests := []struct {
		note     string
		expected float64
		wantErr  bool
	}{
		{note: "E5", expected: 659.25},
		{note: "A4", expected: 440},
		{note: "P", expected: 0},
		{note: "C#4", expected: 277.18},
		{note: "Db4", expected: 277.18},
		{note: "A3", expected: 220},
		{note: "H4", wantErr: true},
		{note: "C", wantErr: true},
		{note: "Cx", wantErr: true},
		{note: "C10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.note, func(t *testing.T) {
			got, err := Frequency(tt.note)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tt.note, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.expected) > 0.01 {
				t.Errorf("Frequency(%s): expected %.2f, got %.2f", tt.note, tt.expected, got)
			}
		})
	}
}

func TestNearestKey(t *testing.T) {
	for name := range Frequencies {
		if name == Rest {
			continue
		}
		key, err := MIDIKey(name)
		if err != nil {
			t.Fatalf("MIDIKey(%s): %v", name, err)
		}
		if got := NearestKey(Frequencies[name]); got != key {
			t.Errorf("NearestKey(%s): expected %d, got %d", name, key, got)
		}
	}
	if NearestKey(0) != 0 {
		t.Error("rest should map to key 0")
	}
}

func TestKorobeiniki(t *testing.T) {
	m := Korobeiniki()

	if m.Len() != 38 {
		t.Fatalf("expected 38 steps, got %d", m.Len())
	}
	if m.Tempo() != 140 {
		t.Errorf("expected tempo 140, got %v", m.Tempo())
	}
	if m.Step(0).Note != "E5" || m.Frequency(0) != 659.25 {
		t.Errorf("unexpected first step %+v (%v Hz)", m.Step(0), m.Frequency(0))
	}

	rests := 0
	for i := 0; i < m.Len(); i++ {
		if m.Step(i).IsRest() {
			rests++
			if m.Frequency(i) != 0 {
				t.Errorf("rest at %d has frequency %v", i, m.Frequency(i))
			}
		}
	}
	if rests != 1 {
		t.Errorf("expected a single rest, got %d", rests)
	}
}

func TestDuration(t *testing.T) {
	if got := Duration(1, 140); math.Abs(got-0.4286) > 1e-4 {
		t.Errorf("expected ~0.4286s, got %v", got)
	}
	if got := Duration(2, 60); got != 2 {
		t.Errorf("expected 2s, got %v", got)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name          string
		tempo         float64
		steps         []Step
		expectedError string
	}{
		{name: "Error - Empty", steps: nil, expectedError: "no steps"},
		{name: "Error - Zero Beats", steps: []Step{{"E5", 0}}, expectedError: "beat length"},
		{name: "Error - NaN Beats", steps: []Step{{"E5", math.NaN()}}, expectedError: "beat length"},
		{name: "Error - Infinite Beats", steps: []Step{{"E5", math.Inf(1)}}, expectedError: "beat length"},
		{name: "Error - Subnormal Beats", steps: []Step{{"E5", 5e-324}}, expectedError: "beat length"},
		{name: "Error - Unknown Note", steps: []Step{{"X9", 1}}, expectedError: "invalid note"},
		{name: "Error - Negative Tempo", tempo: -1, steps: []Step{{"E5", 1}}, expectedError: "tempo"},
		{name: "Error - NaN Tempo", tempo: math.NaN(), steps: []Step{{"E5", 1}}, expectedError: "tempo"},
		{name: "Error - Infinite Tempo", tempo: math.Inf(1), steps: []Step{{"E5", 1}}, expectedError: "tempo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("test", tt.tempo, tt.steps)
			if err == nil {
				t.Fatalf("expected error containing '%s', got nil", tt.expectedError)
			}
			if !strings.Contains(err.Error(), tt.expectedError) {
				t.Errorf("expected error '%s' to contain '%s'", err.Error(), tt.expectedError)
			}
		})
	}
}

func TestNew_CopiesSteps(t *testing.T) {
	steps := []Step{{"E5", 1}, {"P", 0.5}}
	m, err := New("copy", 0, steps)
	if err != nil {
		t.Fatal(err)
	}
	steps[0].Note = "A4"
	if m.Step(0).Note != "E5" {
		t.Error("melody must not alias the caller's slice")
	}
	if m.Beats() != 1.5 {
		t.Errorf("expected 1.5 beats, got %v", m.Beats())
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
name: Scale
tempo: 96
steps:
  - [C4, 1]
  - [P, 0.5]
  - {note: "F#4", beats: 0.25}
`)
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name() != "Scale" || m.Tempo() != 96 || m.Len() != 3 {
		t.Fatalf("unexpected melody %s tempo=%v len=%d", m.Name(), m.Tempo(), m.Len())
	}
	if !m.Step(1).IsRest() {
		t.Error("second step should be a rest")
	}
	if m.Step(2).Note != "F#4" || m.Step(2).Beats != 0.25 {
		t.Errorf("unexpected mapping step %+v", m.Step(2))
	}

	bad := []struct {
		name string
		data string
	}{
		{"Triple", "steps:\n  - [C4, 1, 2]\n"},
		{"Scalar", "steps:\n  - C4\n"},
		{"Empty", "name: nothing\n"},
		{"Syntax", "steps: [\n"},
		{"NaN Beats", "steps:\n  - [C4, .nan]\n"},
		{"Infinite Beats", "steps:\n  - [C4, .inf]\n"},
		{"Infinite Tempo", "tempo: .inf\nsteps:\n  - [C4, 1]\n"},
	}
	for _, b := range bad {
		t.Run(b.name, func(t *testing.T) {
			if _, err := Parse([]byte(b.data)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

type stubFetcher struct {
	data   []byte
	err    error
	source string
}

func (s *stubFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	s.source = source
	return s.data, s.err
}

func TestLoader_Load(t *testing.T) {
	t.Run("Built-in", func(t *testing.T) {
		f := &stubFetcher{}
		m, err := NewLoader(zap.NewNop(), f).Load(context.Background(), "")
		if err != nil {
			t.Fatal(err)
		}
		if m.Name() != "Korobeiniki" {
			t.Errorf("expected built-in melody, got %s", m.Name())
		}
		if f.source != "" {
			t.Error("fetcher should not be used for the built-in melody")
		}
	})

	t.Run("Fetched", func(t *testing.T) {
		f := &stubFetcher{data: []byte("name: One\nsteps:\n  - [A4, 1]\n")}
		m, err := NewLoader(zap.NewNop(), f).Load(context.Background(), "https://example.com/one.yaml")
		if err != nil {
			t.Fatal(err)
		}
		if m.Name() != "One" || f.source != "https://example.com/one.yaml" {
			t.Errorf("unexpected melody %s from %s", m.Name(), f.source)
		}
	})

	t.Run("Fetch Error", func(t *testing.T) {
		f := &stubFetcher{err: errors.New("boom")}
		_, err := NewLoader(zap.NewNop(), f).Load(context.Background(), "/missing.yaml")
		if err == nil || !strings.Contains(err.Error(), "failed to fetch melody") {
			t.Errorf("expected fetch error, got %v", err)
		}
	})
}
