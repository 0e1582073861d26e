package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/genricoloni/chiptuned/internal/app"
	"github.com/genricoloni/chiptuned/internal/config"
	"github.com/genricoloni/chiptuned/internal/domain"
	"github.com/genricoloni/chiptuned/internal/melody"
	"github.com/genricoloni/chiptuned/internal/ui"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// AppOptions is the terminal player dependency graph
var AppOptions = fx.Options(
	fx.Provide(newFileLogger),
	app.Module,
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		logger  *zap.Logger
		player  domain.Player
		trigger domain.Trigger
		m       *melody.Melody
	)

	fxApp := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		AppOptions,
		fx.Populate(&logger, &player, &trigger, &m),
	)
	defer gomidi.CloseDriver()

	ctx := context.Background()
	if err := fxApp.Start(ctx); err != nil {
		return err
	}

	model := ui.NewModel(logger, player, trigger, m.Name(), m.Len())
	_, runErr := tea.NewProgram(model, tea.WithAltScreen()).Run()

	stopCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		if runErr == nil {
			return err
		}
	}
	return runErr
}

// newFileLogger logs to ~/.config/chiptuned/debug.log since the terminal belongs to the UI
func newFileLogger(lc fx.Lifecycle) (*zap.Logger, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{filepath.Join(dir, "debug.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger, nil
}
