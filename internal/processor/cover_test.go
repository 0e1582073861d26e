package processor

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/jpeg" // JPEG format support
	"os"
	"path/filepath"
	"testing"

	"github.com/genricoloni/chiptuned/internal/melody"
	"go.uber.org/zap"
)

func TestCoverProcessor_Process(t *testing.T) {
	single, err := melody.New("Single", 120, []melody.Step{{Note: "A4", Beats: 1}})
	if err != nil {
		t.Fatal(err)
	}
	rests, err := melody.New("Rests", 120, []melody.Step{{Note: melody.Rest, Beats: 1}, {Note: melody.Rest, Beats: 2}})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		melody        *melody.Melody
		size          int
		expectedError bool
	}{
		{name: "Success - Built-in Melody", melody: melody.Korobeiniki(), size: 512},
		{name: "Success - Small Cover", melody: melody.Korobeiniki(), size: 64},
		{name: "Edge Case - Single Note", melody: single, size: 128},
		{name: "Edge Case - Only Rests", melody: rests, size: 128},
		{name: "Error - Zero Size", melody: single, size: 0, expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewCoverProcessor(zap.NewNop(), tt.melody, &mockConfig{outputDir: t.TempDir()})
			p.config.Size = tt.size

			result, err := p.Process(context.Background())
			if tt.expectedError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			img, _, err := image.Decode(bytes.NewReader(result))
			if err != nil {
				t.Fatalf("result is not a valid image: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.size || b.Dy() != tt.size {
				t.Errorf("expected %dx%d, got %dx%d", tt.size, tt.size, b.Dx(), b.Dy())
			}
		})
	}
}

func TestCoverProcessor_Process_ContextCancellation(t *testing.T) {
	p := NewCoverProcessor(zap.NewNop(), melody.Korobeiniki(), &mockConfig{outputDir: t.TempDir()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Process(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCoverProcessor_Render(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "covers")
	p := NewCoverProcessor(zap.NewNop(), melody.Korobeiniki(), &mockConfig{outputDir: dir})

	path, err := p.Render(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(path) {
		t.Errorf("expected absolute path, got %s", path)
	}
	if filepath.Base(path) != coverFilename {
		t.Errorf("expected %s, got %s", coverFilename, filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("cover not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty cover file")
	}
}

func TestCoverProcessor_KeyRange(t *testing.T) {
	p := NewCoverProcessor(zap.NewNop(), melody.Korobeiniki(), &mockConfig{})
	lo, hi := p.keyRange()

	// A4 .. A5
	if lo != 69 || hi != 81 {
		t.Errorf("expected range 69..81, got %d..%d", lo, hi)
	}
}

// mockConfig is a simple mock implementation of domain.Config for testing
type mockConfig struct {
	outputDir string
}

func (m *mockConfig) GetOutput() string       { return "null" }
func (m *mockConfig) GetOutputDir() string    { return m.outputDir }
func (m *mockConfig) GetMelodySource() string { return "" }
func (m *mockConfig) GetAutoplay() bool       { return false }
