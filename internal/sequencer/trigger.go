package sequencer

import (
	"context"
	"sync"

	"github.com/genricoloni/chiptuned/internal/domain"
	"go.uber.org/zap"
)

// Trigger turns an external boolean signal into a start request.
// Only a rising edge observed while playback is stopped starts playback;
// holding the signal high or raising it again while playing does nothing.
type Trigger struct {
	logger *zap.Logger
	ctrl   domain.Controller

	mu    sync.Mutex
	value bool
}

// NewTrigger creates a trigger bound to a controller
func NewTrigger(logger *zap.Logger, ctrl domain.Controller) *Trigger {
	return &Trigger{logger: logger, ctrl: ctrl}
}

// Set updates the signal value and starts playback on a rising edge
func (t *Trigger) Set(ctx context.Context, value bool) error {
	t.mu.Lock()
	rising := value && !t.value
	t.value = value
	t.mu.Unlock()

	if !rising || t.ctrl.State() != domain.StateStopped {
		return nil
	}

	t.logger.Info("Play trigger raised, starting playback")
	return t.ctrl.Start(ctx)
}

// Value returns the last signal value
func (t *Trigger) Value() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}
