// Package app holds the dependency graph shared by the chiptuned binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/genricoloni/chiptuned/internal/audio"
	"github.com/genricoloni/chiptuned/internal/config"
	"github.com/genricoloni/chiptuned/internal/domain"
	"github.com/genricoloni/chiptuned/internal/engine"
	"github.com/genricoloni/chiptuned/internal/fetcher"
	"github.com/genricoloni/chiptuned/internal/melody"
	"github.com/genricoloni/chiptuned/internal/mpris"
	"github.com/genricoloni/chiptuned/internal/processor"
	"github.com/genricoloni/chiptuned/internal/sequencer"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	melodyLoadTimeout = 15 * time.Second
	fallbackTempo     = 140
)

// Module provides every component except the logger
var Module = fx.Options(
	fx.Provide(
		config.NewAppConfig,
		fx.Annotate(
			func(c *config.AppConfig) *config.AppConfig { return c },
			fx.As(new(domain.Config)),
			fx.As(new(audio.FactoryConfig)),
		),
		fx.Annotate(fetcher.NewHTTPFetcher, fx.As(new(domain.Fetcher))),
		melody.NewLoader,
		newMelody,
		newSequencerOptions,
		fx.Annotate(newFrames, fx.As(new(domain.FrameScheduler))),
		fx.Annotate(audio.NewFactory, fx.As(new(domain.DeviceFactory))),
		sequencer.New,
		fx.Annotate(
			func(s *sequencer.Sequencer) *sequencer.Sequencer { return s },
			fx.As(new(domain.Player)),
			fx.As(new(domain.Controller)),
		),
		fx.Annotate(sequencer.NewTrigger, fx.As(new(domain.Trigger))),
		fx.Annotate(processor.NewCoverProcessor, fx.As(new(domain.CoverRenderer))),
		fx.Annotate(mpris.NewServer, fx.As(new(domain.MediaServer))),
		engine.NewEngine,
	),
	fx.Invoke(registerEngine),
)

// newMelody loads the configured melody, bounded by a timeout
func newMelody(logger *zap.Logger, cfg domain.Config, loader *melody.Loader) (*melody.Melody, error) {
	ctx, cancel := context.WithTimeout(context.Background(), melodyLoadTimeout)
	defer cancel()

	m, err := loader.Load(ctx, cfg.GetMelodySource())
	if err != nil {
		return nil, fmt.Errorf("failed to load melody: %w", err)
	}
	logger.Debug("Melody length", zap.Float64("beats", m.Beats()))
	return m, nil
}

// newSequencerOptions resolves the tempo: configuration first, then the melody, then the default
func newSequencerOptions(cfg *config.AppConfig, m *melody.Melody) sequencer.Options {
	tempo := cfg.GetTempo()
	if tempo <= 0 {
		tempo = m.Tempo()
	}
	if tempo <= 0 {
		tempo = fallbackTempo
	}

	env := domain.DefaultEnvelope
	if v := cfg.GetVolume(); v > 0 {
		env.Floor = env.Floor * v / env.Peak
		env.Peak = v
	}

	return sequencer.Options{
		Tempo:        tempo,
		Lookahead:    cfg.GetLookahead(),
		StartupDelay: cfg.GetStartupDelay(),
		Envelope:     env,
	}
}

func newFrames(cfg *config.AppConfig) *sequencer.IntervalFrames {
	return sequencer.NewIntervalFrames(cfg.GetPollInterval())
}

// registerEngine ties the engine to the application lifecycle
func registerEngine(lc fx.Lifecycle, e *engine.Engine) {
	lc.Append(fx.Hook{
		OnStart: e.Start,
		OnStop:  e.Stop,
	})
}
