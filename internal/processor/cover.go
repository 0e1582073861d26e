package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/genricoloni/chiptuned/internal/domain"
	"github.com/genricoloni/chiptuned/internal/melody"
	"go.uber.org/zap"
)

const (
	defaultCoverSize  = 512
	defaultBlurRadius = 12.0
	rollSizeRatio     = 0.70 // Sharp roll size as percentage of the cover
	coverFilename     = "cover.jpg"
)

var (
	backgroundColor = color.NRGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 0xff}
	noteColor       = color.NRGBA{R: 0xff, G: 0x00, B: 0x55, A: 0xff}
	restColor       = color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
)

// CoverConfig holds configuration for cover rendering
type CoverConfig struct {
	Size       int
	BlurRadius float64
	RollRatio  float64 // Sharp roll size as percentage of the cover (0.0-1.0)
}

// CoverProcessor renders a piano-roll picture of a melody
type CoverProcessor struct {
	logger *zap.Logger
	melody *melody.Melody
	config CoverConfig
	appCfg domain.Config // Application configuration for output dir
}

// NewCoverProcessor creates a cover renderer for m
func NewCoverProcessor(logger *zap.Logger, m *melody.Melody, appCfg domain.Config) *CoverProcessor {
	return &CoverProcessor{
		logger: logger,
		melody: m,
		appCfg: appCfg,
		config: CoverConfig{
			Size:       defaultCoverSize,
			BlurRadius: defaultBlurRadius,
			RollRatio:  rollSizeRatio,
		},
	}
}

// Process draws the cover: a blurred piano roll with a sharp copy centered on top
func (p *CoverProcessor) Process(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := p.config.Size
	if size <= 0 {
		return nil, fmt.Errorf("invalid cover size: %d", size)
	}

	roll := p.drawRoll(size, size)

	// 1. Blurred background
	p.logger.Debug("Creating blurred background", zap.Int("size", size))
	background := imaging.Blur(roll, p.config.BlurRadius)
	background = imaging.AdjustBrightness(background, -30)

	// 2. Sharp roll, scaled down
	rollSize := int(float64(size) * p.config.RollRatio)
	sharp := imaging.Resize(roll, rollSize, rollSize, imaging.NearestNeighbor)

	// 3. Composite
	offset := (size - rollSize) / 2
	result := imaging.Paste(background, sharp, image.Pt(offset, offset))

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, result, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode cover: %w", err)
	}

	p.logger.Debug("Cover processed successfully", zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// drawRoll paints one bar per step, width by beats and height by pitch
func (p *CoverProcessor) drawRoll(width, height int) *image.NRGBA {
	img := imaging.New(width, height, backgroundColor)

	total := p.melody.Beats()
	lo, hi := p.keyRange()
	span := float64(hi-lo) + 1
	laneHeight := float64(height) / (span + 2)

	var beat float64
	for i := 0; i < p.melody.Len(); i++ {
		step := p.melody.Step(i)
		x0 := int(beat / total * float64(width))
		beat += step.Beats
		x1 := max(int(beat/total*float64(width))-1, x0+1)

		var bar image.Rectangle
		var c color.NRGBA
		if step.IsRest() {
			bar = image.Rect(x0, height-int(laneHeight/2), x1, height)
			c = restColor
		} else {
			key := melody.NearestKey(p.melody.Frequency(i))
			y := height - int(float64(key-lo+2)*laneHeight)
			bar = image.Rect(x0, y, x1, y+max(int(laneHeight), 2))
			c = noteColor
		}
		draw.Draw(img, bar, &image.Uniform{C: c}, image.Point{}, draw.Src)
	}
	return img
}

// keyRange returns the lowest and highest MIDI key played
func (p *CoverProcessor) keyRange() (int, int) {
	lo, hi := 127, 0
	for i := 0; i < p.melody.Len(); i++ {
		if p.melody.Step(i).IsRest() {
			continue
		}
		key := melody.NearestKey(p.melody.Frequency(i))
		lo, hi = min(lo, key), max(hi, key)
	}
	if lo > hi {
		return 60, 60
	}
	return lo, hi
}

// Render creates the cover and saves it to disk, returning its absolute path.
// This method satisfies the domain.CoverRenderer interface
func (p *CoverProcessor) Render(ctx context.Context) (string, error) {
	data, err := p.Process(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to process cover: %w", err)
	}

	outputDir := p.appCfg.GetOutputDir()
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(outputDir, coverFilename)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write cover file: %w", err)
	}

	p.logger.Info("Cover generated successfully",
		zap.String("path", outputPath),
		zap.Int("size", len(data)),
		zap.String("melody", p.melody.Name()))

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return outputPath, nil // Return relative path if abs fails
	}
	return absPath, nil
}
