package push

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
)

// Handler consumes one raw push payload.
type Handler interface {
	HandlePush(ctx context.Context, raw []byte)
}

type HandlerFunc func(ctx context.Context, raw []byte)

func (f HandlerFunc) HandlePush(ctx context.Context, raw []byte) {
	f(ctx, raw)
}

// Dispatcher hands a payload to the foreground handler while the app has
// focus, and to the background handler otherwise. Either side must reach
// the same outcome for the same payload.
type Dispatcher struct {
	foreground Handler
	background Handler
	focused    atomic.Bool
	logger     *zap.Logger
}

func NewDispatcher(foreground, background Handler, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		foreground: foreground,
		background: background,
		logger:     logger.Named("push"),
	}
}

func (d *Dispatcher) SetForeground(focused bool) {
	if d.focused.Swap(focused) != focused {
		d.logger.Debug("App focus changed", zap.Bool("foreground", focused))
	}
}

func (d *Dispatcher) Foreground() bool {
	return d.focused.Load()
}

func (d *Dispatcher) HandlePush(ctx context.Context, raw []byte) {
	if d.focused.Load() {
		d.logger.Debug("Delivering push to foreground", zap.Int("bytes", len(raw)))
		d.foreground.HandlePush(ctx, raw)
		return
	}
	d.logger.Debug("Delivering push to background", zap.Int("bytes", len(raw)))
	d.background.HandlePush(ctx, raw)
}
