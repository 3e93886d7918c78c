// Package dispatch provides the single owning execution context that
// controller state lives on.
//
// Controllers never lock their state. Callers invoke controller methods on
// the owner context, and fetch goroutines hand their results back through a
// Dispatcher, which runs them one at a time on that same context.
package dispatch

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrStopped is returned by Do when the loop is not running anymore.
var ErrStopped = errors.New("dispatch loop stopped")

// Dispatcher serialises work onto the owner context.
type Dispatcher interface {
	Dispatch(fn func())
}

// Func adapts an ordinary function to a Dispatcher.
type Func func(fn func())

// Dispatch calls f(fn).
func (f Func) Dispatch(fn func()) { f(fn) }

// Loop is a goroutine-backed owner context. Work dispatched to it runs in
// order on the goroutine that called Run.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	logger zerolog.Logger
}

// NewLoop creates a loop whose queue holds up to buffer pending callbacks
// before Dispatch blocks.
func NewLoop(buffer int, logger zerolog.Logger) *Loop {
	if buffer <= 0 {
		buffer = 64
	}
	return &Loop{
		queue:  make(chan func(), buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run executes dispatched callbacks until ctx is cancelled. It must be
// called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	l.logger.Debug().Msg("Dispatch loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug().Msg("Dispatch loop stopped")
			return nil
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("Dispatched callback panicked")
		}
	}()
	fn()
}

// Dispatch queues fn. Callbacks dispatched after the loop stopped are
// dropped.
func (l *Loop) Dispatch(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Do runs fn on the loop and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	wrapped := func() {
		defer close(ran)
		fn()
	}

	select {
	case l.queue <- wrapped:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-ran:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
