package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	defaultOutputDir    = "/tmp/chiptuned"
	defaultOutput       = "speaker"
	defaultLookahead    = 100 * time.Millisecond
	defaultStartupDelay = 100 * time.Millisecond
	defaultPollInterval = 25 * time.Millisecond
	defaultVolume       = 0.1
	defaultSampleRate   = 44100
)

// FileConfig is the on-disk YAML representation. Zero values mean "not set".
type FileConfig struct {
	Tempo        float64       `yaml:"tempo,omitempty"`
	Lookahead    time.Duration `yaml:"lookahead,omitempty"`
	StartupDelay time.Duration `yaml:"startup_delay,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	Output       string        `yaml:"output,omitempty"`
	MidiPort     string        `yaml:"midi_port,omitempty"`
	SampleRate   int           `yaml:"sample_rate,omitempty"`
	Melody       string        `yaml:"melody,omitempty"`
	OutputDir    string        `yaml:"output_dir,omitempty"`
	Autoplay     *bool         `yaml:"autoplay,omitempty"`
	Volume       float64       `yaml:"volume,omitempty"`
}

// AppConfig holds application configuration
type AppConfig struct {
	logger       *zap.Logger
	tempo        float64
	lookahead    time.Duration
	startupDelay time.Duration
	pollInterval time.Duration
	output       string
	midiPort     string
	sampleRate   int
	melody       string
	outputDir    string
	autoplay     bool
	volume       float64
}

// NewAppConfig creates a new application configuration instance.
// Precedence is environment, then the YAML file named by CHIPTUNED_CONFIG, then defaults.
func NewAppConfig(logger *zap.Logger) (*AppConfig, error) {
	c := &AppConfig{
		logger:       logger,
		lookahead:    defaultLookahead,
		startupDelay: defaultStartupDelay,
		pollInterval: defaultPollInterval,
		output:       defaultOutput,
		sampleRate:   defaultSampleRate,
		outputDir:    defaultOutputDir,
		volume:       defaultVolume,
	}

	path := os.Getenv("CHIPTUNED_CONFIG")
	explicit := path != ""
	if !explicit {
		if dir, err := ConfigDir(); err == nil {
			path = filepath.Join(dir, "config.yaml")
		}
	}
	if path != "" {
		fc, err := LoadFile(path)
		switch {
		case err == nil:
			c.apply(fc)
		case os.IsNotExist(err) && !explicit:
			// no config file is fine
		default:
			return nil, err
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	c.outputDir = expandPath(c.outputDir)
	if c.melody != "" && !isURL(c.melody) {
		c.melody = expandPath(c.melody)
	}

	logger.Info("Configuration loaded",
		zap.String("file", path),
		zap.Float64("tempo", c.tempo),
		zap.Duration("lookahead", c.lookahead),
		zap.Duration("startupDelay", c.startupDelay),
		zap.Duration("pollInterval", c.pollInterval),
		zap.String("output", c.output),
		zap.String("melody", c.melody),
		zap.String("outputDir", c.outputDir),
		zap.Bool("autoplay", c.autoplay))

	if c.pollInterval >= c.lookahead {
		logger.Warn("Poll interval is not below the lookahead window, playback may stall",
			zap.Duration("pollInterval", c.pollInterval),
			zap.Duration("lookahead", c.lookahead))
	}

	return c, nil
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chiptuned"), nil
}

// LoadFile reads a YAML config file
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &fc, nil
}

func (c *AppConfig) apply(fc *FileConfig) {
	if fc.Tempo != 0 {
		c.tempo = fc.Tempo
	}
	if fc.Lookahead != 0 {
		c.lookahead = fc.Lookahead
	}
	if fc.StartupDelay != 0 {
		c.startupDelay = fc.StartupDelay
	}
	if fc.PollInterval != 0 {
		c.pollInterval = fc.PollInterval
	}
	if fc.Output != "" {
		c.output = fc.Output
	}
	if fc.MidiPort != "" {
		c.midiPort = fc.MidiPort
	}
	if fc.SampleRate != 0 {
		c.sampleRate = fc.SampleRate
	}
	if fc.Melody != "" {
		c.melody = fc.Melody
	}
	if fc.OutputDir != "" {
		c.outputDir = fc.OutputDir
	}
	if fc.Autoplay != nil {
		c.autoplay = *fc.Autoplay
	}
	if fc.Volume != 0 {
		c.volume = fc.Volume
	}
}

func (c *AppConfig) applyEnv() error {
	if v := os.Getenv("CHIPTUNED_TEMPO"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CHIPTUNED_TEMPO %q: %w", v, err)
		}
		c.tempo = f
	}
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{
		{"CHIPTUNED_LOOKAHEAD", &c.lookahead},
		{"CHIPTUNED_STARTUP_DELAY", &c.startupDelay},
		{"CHIPTUNED_POLL_INTERVAL", &c.pollInterval},
	} {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.key, v, err)
		}
		*d.dst = parsed
	}
	if v := os.Getenv("CHIPTUNED_OUTPUT"); v != "" {
		c.output = strings.ToLower(v)
	}
	if v := os.Getenv("CHIPTUNED_MIDI_PORT"); v != "" {
		c.midiPort = v
	}
	if v := os.Getenv("CHIPTUNED_SAMPLE_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CHIPTUNED_SAMPLE_RATE %q: %w", v, err)
		}
		c.sampleRate = n
	}
	if v := os.Getenv("CHIPTUNED_MELODY"); v != "" {
		c.melody = v
	}
	if v := os.Getenv("CHIPTUNED_OUTPUT_DIR"); v != "" {
		c.outputDir = v
	}
	if v := os.Getenv("CHIPTUNED_AUTOPLAY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid CHIPTUNED_AUTOPLAY %q: %w", v, err)
		}
		c.autoplay = b
	}
	if v := os.Getenv("CHIPTUNED_VOLUME"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CHIPTUNED_VOLUME %q: %w", v, err)
		}
		c.volume = f
	}
	return nil
}

// expandPath expands environment variables and a leading ~
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return p
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// GetTempo returns the configured tempo in beats per minute, zero when the
// melody's own tempo should be used
func (c *AppConfig) GetTempo() float64 {
	return c.tempo
}

// GetLookahead returns how far ahead notes are scheduled
func (c *AppConfig) GetLookahead() time.Duration {
	return c.lookahead
}

// GetStartupDelay returns the grace period before the first note
func (c *AppConfig) GetStartupDelay() time.Duration {
	return c.startupDelay
}

// GetPollInterval returns the interval between scheduling passes
func (c *AppConfig) GetPollInterval() time.Duration {
	return c.pollInterval
}

// GetOutput returns the name of the audio output backend
func (c *AppConfig) GetOutput() string {
	return c.output
}

// GetMidiPort returns the MIDI output port name, empty for the first available port
func (c *AppConfig) GetMidiPort() string {
	return c.midiPort
}

// GetSampleRate returns the synth sample rate in Hz
func (c *AppConfig) GetSampleRate() int {
	return c.sampleRate
}

// GetMelodySource returns the melody path or URL, empty for the built-in melody
func (c *AppConfig) GetMelodySource() string {
	return c.melody
}

// GetOutputDir returns the directory for generated artwork
func (c *AppConfig) GetOutputDir() string {
	return c.outputDir
}

// GetAutoplay reports whether playback should start with the daemon
func (c *AppConfig) GetAutoplay() bool {
	return c.autoplay
}

// GetVolume returns the envelope peak gain
func (c *AppConfig) GetVolume() float64 {
	return c.volume
}
