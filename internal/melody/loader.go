package melody

import (
	"context"
	"fmt"

	"github.com/genricoloni/chiptuned/internal/domain"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// document is the YAML layout of a melody file:
//
//	name: Korobeiniki
//	tempo: 140
//	steps:
//	  - [E5, 1]
//	  - [P, 0.1]
//	  - {note: B4, beats: 0.5}
type document struct {
	Name  string    `yaml:"name"`
	Tempo float64   `yaml:"tempo,omitempty"`
	Steps []docStep `yaml:"steps"`
}

type docStep Step

// UnmarshalYAML accepts either a [note, beats] pair or a {note, beats} mapping
func (s *docStep) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		if len(value.Content) != 2 {
			return fmt.Errorf("line %d: step must be [note, beats]", value.Line)
		}
		if err := value.Content[0].Decode(&s.Note); err != nil {
			return err
		}
		return value.Content[1].Decode(&s.Beats)
	case yaml.MappingNode:
		var m struct {
			Note  string  `yaml:"note"`
			Beats float64 `yaml:"beats"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		s.Note, s.Beats = m.Note, m.Beats
		return nil
	default:
		return fmt.Errorf("line %d: unsupported step format", value.Line)
	}
}

// Parse decodes a YAML melody document
func Parse(data []byte) (*Melody, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse melody: %w", err)
	}

	steps := make([]Step, len(doc.Steps))
	for i, s := range doc.Steps {
		steps[i] = Step(s)
	}
	name := doc.Name
	if name == "" {
		name = "Untitled"
	}
	return New(name, doc.Tempo, steps)
}

// Loader resolves a melody source into a Melody
type Loader struct {
	logger  *zap.Logger
	fetcher domain.Fetcher
}

// NewLoader creates a melody loader backed by a fetcher
func NewLoader(logger *zap.Logger, fetcher domain.Fetcher) *Loader {
	return &Loader{logger: logger, fetcher: fetcher}
}

// Load returns the built-in melody for an empty source, otherwise fetches and parses it
func (l *Loader) Load(ctx context.Context, source string) (*Melody, error) {
	if source == "" {
		m := Korobeiniki()
		l.logger.Info("Using built-in melody", zap.String("name", m.Name()), zap.Int("steps", m.Len()))
		return m, nil
	}

	data, err := l.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch melody %s: %w", source, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("melody %s: %w", source, err)
	}

	l.logger.Info("Melody loaded",
		zap.String("source", source),
		zap.String("name", m.Name()),
		zap.Int("steps", m.Len()),
		zap.Float64("tempo", m.Tempo()))
	return m, nil
}
