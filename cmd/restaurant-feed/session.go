package main

import (
	"context"

	"github.com/Sternrassler/restaurant-feed/pkg/dispatch"
	"github.com/Sternrassler/restaurant-feed/pkg/feed"
	"github.com/Sternrassler/restaurant-feed/pkg/loadable"
	"github.com/Sternrassler/restaurant-feed/pkg/logging"
)

// snapshotBuffer bounds how many unread snapshots a watcher holds.
const snapshotBuffer = 32

// session owns a dispatch loop for the lifetime of one command.
type session struct {
	loop   *dispatch.Loop
	cancel context.CancelFunc
	done   chan struct{}
}

func startSession(ctx context.Context) *session {
	ctx, cancel := context.WithCancel(ctx)
	s := &session{
		loop:   dispatch.NewLoop(0, logging.NewLogger("dispatch")),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		_ = s.loop.Run(ctx)
	}()
	return s
}

// do runs fn on the loop and waits for it.
func (s *session) do(ctx context.Context, fn func()) error {
	return s.loop.Do(ctx, fn)
}

// Close stops the loop and waits for it to exit.
func (s *session) Close() {
	s.cancel()
	<-s.done
}

// watch returns a subscriber that forwards snapshots to a buffered channel.
// A full channel drops the snapshot rather than block the loop.
func watch[S any]() (func(S), <-chan S) {
	ch := make(chan S, snapshotBuffer)
	return func(s S) {
		select {
		case ch <- s:
		default:
		}
	}, ch
}

// awaitSettled reads snapshots until one satisfies settled.
func awaitSettled[S any](ctx context.Context, ch <-chan S, settled func(S) bool) (S, error) {
	for {
		select {
		case s := <-ch:
			if settled(s) {
				return s, nil
			}
		case <-ctx.Done():
			var zero S
			return zero, ctx.Err()
		}
	}
}

// listSettled reports whether nothing is in flight for a list.
func listSettled[Item any](s feed.ListSnapshot[Item]) bool {
	switch loadable.KindOf(s.State) {
	case loadable.KindIdle, loadable.KindLoading:
		return false
	}
	return !s.IsLoadingMore && !s.IsRefreshing
}

// detailSettled reports whether nothing is in flight for a detail.
func detailSettled[Entity any](s feed.DetailSnapshot[Entity]) bool {
	switch loadable.KindOf(s.State) {
	case loadable.KindIdle, loadable.KindLoading:
		return false
	}
	return !s.IsRefreshing
}
