//go:build linux
// +build linux

package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"go.uber.org/zap"
)

// PlayerCommand represents a detected raw PCM player
type PlayerCommand struct {
	Name   string
	Binary string
	Args   []string // %r will be replaced with the sample rate
}

var (
	// Ordered list of players to try (highest priority first)
	playerCommands = []PlayerCommand{
		// PipeWire
		{Name: "pw-cat", Binary: "pw-cat", Args: []string{"--playback", "--format", "s16", "--rate", "%r", "--channels", "2", "--latency", "50ms", "-"}},
		// PulseAudio
		{Name: "pacat", Binary: "pacat", Args: []string{"--format=s16le", "--rate=%r", "--channels=2", "--latency-msec=50"}},
		// ALSA
		{Name: "aplay", Binary: "aplay", Args: []string{"-q", "-t", "raw", "-f", "S16_LE", "-r", "%r", "-c", "2", "--buffer-time=50000"}},
		// ffmpeg
		{Name: "ffplay", Binary: "ffplay", Args: []string{"-nodisp", "-loglevel", "quiet", "-f", "s16le", "-ar", "%r", "-ac", "2", "-i", "-"}},
	}
)

const (
	// pipeChunk is the number of frames encoded per write
	pipeChunk = 512
	// pipeLead bounds how far the feed may run ahead of wall time
	pipeLead = 50 * time.Millisecond
)

// PipeOutput streams signed 16-bit little-endian stereo PCM to the stdin of an
// external player. The feed is paced against wall time so the player's own
// buffering cannot pull the synth clock ahead of the scheduled notes.
type PipeOutput struct {
	logger     *zap.Logger
	command    PlayerCommand
	sampleRate beep.SampleRate

	mu        sync.Mutex
	cond      *sync.Cond
	suspended bool
	closed    bool

	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan struct{}
}

// NewPipeOutput detects a player on PATH
func NewPipeOutput(logger *zap.Logger, sampleRate beep.SampleRate) (*PipeOutput, error) {
	cmd := detectPlayer(logger)
	if cmd.Binary == "" {
		return nil, fmt.Errorf("no supported PCM player found on this system")
	}

	logger.Info("PCM player detected",
		zap.String("name", cmd.Name),
		zap.String("binary", cmd.Binary))

	o := &PipeOutput{
		logger:     logger,
		command:    cmd,
		sampleRate: sampleRate,
	}
	o.cond = sync.NewCond(&o.mu)
	return o, nil
}

// detectPlayer analyzes the environment to choose the best player
func detectPlayer(logger *zap.Logger) PlayerCommand {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	pipewire := os.Getenv("PIPEWIRE_REMOTE") != "" || socketExists(runtimeDir, "pipewire-0")
	pulse := os.Getenv("PULSE_SERVER") != "" || socketExists(runtimeDir, "pulse", "native")

	logger.Debug("Detecting PCM player",
		zap.String("runtimeDir", runtimeDir),
		zap.Bool("pipewire", pipewire),
		zap.Bool("pulse", pulse))

	if pipewire {
		if cmd, ok := findPlayer("pw-cat"); ok {
			return cmd
		}
	}

	if pulse {
		if cmd, ok := findPlayer("pacat"); ok {
			return cmd
		}
	}

	// Fallback: try all players in order
	for _, cmd := range playerCommands {
		if commandExists(cmd.Binary) {
			logger.Info("Using fallback PCM player", zap.String("name", cmd.Name))
			return cmd
		}
	}

	return PlayerCommand{}
}

func findPlayer(name string) (PlayerCommand, bool) {
	for _, cmd := range playerCommands {
		if cmd.Name == name && commandExists(cmd.Binary) {
			return cmd, true
		}
	}
	return PlayerCommand{}, false
}

func socketExists(dir string, elem ...string) bool {
	if dir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(append([]string{dir}, elem...)...))
	return err == nil
}

// commandExists checks if a binary exists in PATH
func commandExists(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// args expands the sample rate placeholder
func (c PlayerCommand) args(sampleRate beep.SampleRate) []string {
	rate := strconv.Itoa(int(sampleRate))
	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		args[i] = strings.ReplaceAll(arg, "%r", rate)
	}
	return args
}

// Start launches the player and begins feeding it from src
func (o *PipeOutput) Start(src beep.Streamer) error {
	args := o.command.args(o.sampleRate)
	cmd := exec.Command(o.command.Binary, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open %s stdin: %w", o.command.Name, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", o.command.Name, err)
	}

	o.logger.Debug("PCM player started",
		zap.String("command", o.command.Binary),
		zap.Strings("args", args))

	o.cmd = cmd
	o.stdin = stdin
	o.done = make(chan struct{})
	go o.feed(src)
	return nil
}

func (o *PipeOutput) feed(src beep.Streamer) {
	defer close(o.done)

	samples := make([][2]float64, pipeChunk)
	buf := make([]byte, pipeChunk*4)
	pace := newPacer(o.sampleRate, pipeLead)

	for {
		o.mu.Lock()
		waited := false
		for o.suspended && !o.closed {
			o.cond.Wait()
			waited = true
		}
		closed := o.closed
		o.mu.Unlock()
		if closed {
			return
		}
		if waited {
			pace.reset()
		}

		pace.wait(len(samples))
		n, _ := src.Stream(samples)
		encodePCM16(buf, samples[:n])
		if _, err := o.stdin.Write(buf[:n*4]); err != nil {
			o.logger.Warn("PCM player stopped accepting samples", zap.Error(err))
			return
		}
	}
}

// encodePCM16 writes samples as interleaved s16le into buf
func encodePCM16(buf []byte, samples [][2]float64) {
	for i, s := range samples {
		for c := 0; c < 2; c++ {
			v := math.Max(-1, math.Min(1, s[c]))
			binary.LittleEndian.PutUint16(buf[i*4+c*2:], uint16(int16(v*math.MaxInt16)))
		}
	}
}

// Suspend stops feeding the player
func (o *PipeOutput) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = true
	return nil
}

// Resume continues feeding the player
func (o *PipeOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = false
	o.cond.Broadcast()
	return nil
}

// Close stops the feeder and terminates the player
func (o *PipeOutput) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.cond.Broadcast()
	o.mu.Unlock()

	if o.cmd == nil {
		return nil
	}

	// closing stdin unblocks a pending write and lets the player drain
	err := o.stdin.Close()
	<-o.done
	if killErr := o.cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, os.ErrProcessDone) {
		o.logger.Debug("Failed to kill PCM player", zap.Error(killErr))
	}
	_ = o.cmd.Wait()
	return err
}
