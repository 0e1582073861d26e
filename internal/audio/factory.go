package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/genricoloni/chiptuned/internal/domain"
	"github.com/gopxl/beep/v2"
	"go.uber.org/zap"
)

// Output backend names accepted by the factory
const (
	OutputSpeaker = "speaker"
	OutputPipe    = "pipe"
	OutputNull    = "null"
	OutputMIDI    = "midi"
)

// FactoryConfig is the subset of configuration the factory reads
type FactoryConfig interface {
	GetOutput() string
	GetSampleRate() int
	GetMidiPort() string
}

// Factory creates devices for the configured output backend
type Factory struct {
	logger *zap.Logger
	cfg    FactoryConfig
}

// NewFactory creates a device factory
func NewFactory(logger *zap.Logger, cfg FactoryConfig) *Factory {
	return &Factory{logger: logger, cfg: cfg}
}

// Create opens a new running device
func (f *Factory) Create(ctx context.Context) (domain.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output := f.cfg.GetOutput()
	rate := beep.SampleRate(f.cfg.GetSampleRate())

	f.logger.Debug("Creating audio device",
		zap.String("output", output),
		zap.Int("sampleRate", int(rate)))

	var out Output
	switch output {
	case OutputSpeaker, "":
		out = NewSpeakerOutput(rate, 50*time.Millisecond)
	case OutputPipe:
		pipe, err := NewPipeOutput(f.logger, rate)
		if err != nil {
			return nil, err
		}
		out = pipe
	case OutputNull:
		out = NewNullOutput(rate, 10*time.Millisecond)
	case OutputMIDI:
		dev, err := OpenMIDIDevice(f.logger, f.cfg.GetMidiPort())
		if err != nil {
			return nil, err
		}
		return dev, nil
	default:
		return nil, fmt.Errorf("unknown audio output %q", output)
	}

	dev, err := NewSynthDevice(f.logger, NewSynth(rate), out)
	if err != nil {
		return nil, err
	}
	return dev, nil
}
