package engine

import (
	"context"
	"sync"
	"time"

	"github.com/genricoloni/chiptuned/internal/domain"
	"github.com/genricoloni/chiptuned/internal/melody"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Artist is published as the track artist for every melody
const Artist = "chiptuned"

// Engine orchestrates the player daemon.
// It publishes the melody on the media endpoint, forwards playback changes to it
// and releases everything on shutdown.
type Engine struct {
	logger  *zap.Logger
	cfg     domain.Config
	player  domain.Player
	trigger domain.Trigger
	cover   domain.CoverRenderer
	media   domain.MediaServer
	melody  *melody.Melody

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine creates a new orchestration engine
func NewEngine(
	logger *zap.Logger,
	cfg domain.Config,
	player domain.Player,
	trigger domain.Trigger,
	cover domain.CoverRenderer,
	media domain.MediaServer,
	m *melody.Melody,
) *Engine {
	return &Engine{
		logger:  logger,
		cfg:     cfg,
		player:  player,
		trigger: trigger,
		cover:   cover,
		media:   media,
		melody:  m,
	}
}

// Start publishes the track, launches the event loop in a goroutine and raises
// the play trigger when autoplay is on. It returns immediately (non-blocking).
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Engine starting...")

	e.media.SetTrack(e.trackInfo(ctx))
	if err := e.media.Start(ctx); err != nil {
		e.logger.Warn("Media endpoint unavailable, continuing without it", zap.Error(err))
	}

	// the loop outlives ctx, which only bounds startup
	loopCtx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancel = cancel
	e.done = make(chan struct{})
	e.mu.Unlock()
	go e.runLoop(loopCtx, e.done)

	if e.cfg.GetAutoplay() {
		if err := e.trigger.Set(ctx, true); err != nil {
			e.logger.Warn("Autoplay failed, waiting for a manual start", zap.Error(err))
		}
	}
	return nil
}

// trackInfo describes the loaded melody, rendering its cover when possible
func (e *Engine) trackInfo(ctx context.Context) domain.TrackInfo {
	tempo := e.player.Tempo()
	track := domain.TrackInfo{
		Title:  e.melody.Name(),
		Artist: Artist,
		Tempo:  tempo,
		Steps:  e.melody.Len(),
		Length: time.Duration(melody.Duration(e.melody.Beats(), tempo) * float64(time.Second)),
	}

	path, err := e.cover.Render(ctx)
	if err != nil {
		e.logger.Warn("Failed to render cover", zap.Error(err))
		return track
	}
	track.ArtURL = path
	return track
}

// runLoop forwards playback changes to the media endpoint until ctx ends
func (e *Engine) runLoop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	changes := e.player.Changes()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine loop stopped")
			return

		case change, ok := <-changes:
			if !ok {
				e.logger.Info("Player changes channel closed")
				return
			}
			e.logger.Debug("Playback state changed",
				zap.String("state", string(change.State)),
				zap.Int("index", change.Position.Index))
			e.media.Update(change)
		}
	}
}

// Stop ends the event loop, withdraws the media endpoint and releases the audio device
func (e *Engine) Stop(ctx context.Context) error {
	e.logger.Info("Engine stopping...")

	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			e.logger.Warn("Engine loop did not stop in time")
		}
	}

	err := multierr.Combine(
		e.media.Stop(),
		e.player.Close(ctx),
	)
	if err != nil {
		e.logger.Error("Engine stopped with errors", zap.Error(err))
		return err
	}

	e.logger.Info("Engine stopped")
	return nil
}
