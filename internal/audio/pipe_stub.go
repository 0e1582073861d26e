//go:build !linux
// +build !linux

package audio

import (
	"fmt"

	"github.com/gopxl/beep/v2"
	"go.uber.org/zap"
)

// PipeOutput is a placeholder for platforms without a known PCM player
type PipeOutput struct{}

// NewPipeOutput returns an error indicating the platform is not supported
func NewPipeOutput(logger *zap.Logger, sampleRate beep.SampleRate) (*PipeOutput, error) {
	logger.Warn("Pipe output is only implemented for Linux")
	return nil, fmt.Errorf("pipe output not implemented for this platform")
}

func (o *PipeOutput) Start(src beep.Streamer) error { return fmt.Errorf("pipe output not implemented for this platform") }
func (o *PipeOutput) Suspend() error                { return nil }
func (o *PipeOutput) Resume() error                 { return nil }
func (o *PipeOutput) Close() error                  { return nil }
