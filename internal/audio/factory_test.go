package audio

import (
	"context"
	"testing"

	"github.com/genricoloni/chiptuned/internal/domain"
	"go.uber.org/zap"
)

type stubFactoryConfig struct {
	output string
}

func (c stubFactoryConfig) GetOutput() string   { return c.output }
func (c stubFactoryConfig) GetSampleRate() int  { return 8000 }
func (c stubFactoryConfig) GetMidiPort() string { return "" }

func TestFactory_Create(t *testing.T) {
	t.Run("Null Output", func(t *testing.T) {
		f := NewFactory(zap.NewNop(), stubFactoryConfig{output: OutputNull})
		dev, err := f.Create(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer dev.Close()

		if dev.State() != domain.DeviceRunning {
			t.Errorf("expected running device, got %s", dev.State())
		}
	})

	t.Run("Unknown Output", func(t *testing.T) {
		f := NewFactory(zap.NewNop(), stubFactoryConfig{output: "theremin"})
		dev, err := f.Create(context.Background())
		if err == nil {
			t.Fatal("expected error")
		}
		if dev != nil {
			t.Error("expected nil device on error")
		}
	})
}
