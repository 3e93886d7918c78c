package restaurant

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/restaurant-feed/internal/testutil"
	"github.com/Sternrassler/restaurant-feed/pkg/dispatch"
	"github.com/Sternrassler/restaurant-feed/pkg/feed"
	"github.com/Sternrassler/restaurant-feed/pkg/loadable"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runLoop starts a dispatch loop for the duration of the test.
func runLoop(t *testing.T) *dispatch.Loop {
	t.Helper()

	loop := dispatch.NewLoop(16, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return loop
}

// on runs fn on the loop.
func on(t *testing.T, loop *dispatch.Loop, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testutil.StepTimeout)
	defer cancel()
	require.NoError(t, loop.Do(ctx, fn))
}

// waitFor returns the first snapshot accepted by ok.
func waitFor[S any](t *testing.T, ch <-chan S, ok func(S) bool) S {
	t.Helper()
	timeout := time.After(testutil.StepTimeout)
	for {
		select {
		case s := <-ch:
			if ok(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func settled(s feed.ListSnapshot[Restaurant]) bool {
	return !loadable.IsLoading(s.State) && !s.IsLoadingMore && !s.IsRefreshing
}

func TestListController_PagesThroughAPI(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.Venues(25, "dubai")...)
	defer mock.Close()
	repo := newRepository(t, mock)
	loop := runLoop(t)

	logger := zerolog.Nop()
	ctrl, err := feed.NewListController[Restaurant, Filter](repo, Filter{RegionID: "dubai"}, feed.Options{
		Dispatcher: loop,
		Limit:      10,
		Logger:     &logger,
	})
	require.NoError(t, err)

	snaps := make(chan feed.ListSnapshot[Restaurant], 64)
	on(t, loop, func() {
		ctrl.Subscribe(func(s feed.ListSnapshot[Restaurant]) { snaps <- s })
		ctrl.LoadFirstPage()
	})
	s := waitFor(t, snaps, settled)
	require.Len(t, s.Items(), 10)
	assert.Equal(t, 3, s.Cursor.TotalPages)

	for page := 2; page <= 3; page++ {
		tail := s.Items()[len(s.Items())-1]
		on(t, loop, func() { ctrl.LoadNextPageIfNeeded(tail) })
		s = waitFor(t, snaps, settled)
		assert.Equal(t, page, s.Cursor.CurrentPage)
	}

	items := s.Items()
	require.Len(t, items, 25)
	assert.Equal(t, "25", items[24].ID)

	// Last page reached: the tail trigger is a no-op
	on(t, loop, func() { ctrl.LoadNextPageIfNeeded(items[24]) })
	assert.Equal(t, 3, mock.GetRequestCount())

	on(t, loop, ctrl.Close)
}

func TestListController_RefreshFallbackThroughAPI(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.Venues(5, "dubai")...)
	defer mock.Close()
	repo := newRepository(t, mock)
	loop := runLoop(t)

	logger := zerolog.Nop()
	ctrl, err := feed.NewListController[Restaurant, Filter](repo, Filter{}, feed.Options{
		Dispatcher: loop,
		Logger:     &logger,
	})
	require.NoError(t, err)

	snaps := make(chan feed.ListSnapshot[Restaurant], 64)
	on(t, loop, func() {
		ctrl.Subscribe(func(s feed.ListSnapshot[Restaurant]) { snaps <- s })
		ctrl.LoadFirstPage()
	})
	waitFor(t, snaps, settled)

	mock.FailNext(testutil.NewServerErrorResponse(), testutil.NewServerErrorResponse())
	on(t, loop, ctrl.Refresh)
	s := waitFor(t, snaps, settled)

	assert.Equal(t, loadable.KindLoaded, loadable.KindOf(s.State))
	assert.Len(t, s.Items(), 5)
}

func TestDetailController_ThroughAPI(t *testing.T) {
	mock := testutil.NewMockAPI(testutil.Venues(3, "dubai")...)
	defer mock.Close()
	repo := newRepository(t, mock)
	loop := runLoop(t)

	logger := zerolog.Nop()
	ctrl, err := feed.NewDetailController[Details](repo, feed.Options{Dispatcher: loop, Logger: &logger})
	require.NoError(t, err)

	snaps := make(chan feed.DetailSnapshot[Details], 16)
	done := func(s feed.DetailSnapshot[Details]) bool { return !loadable.IsLoading(s.State) }

	on(t, loop, func() {
		ctrl.Subscribe(func(s feed.DetailSnapshot[Details]) { snaps <- s })
		ctrl.LoadDetails("3")
	})
	s := waitFor(t, snaps, done)
	d, ok := loadable.Value(s.State)
	require.True(t, ok)
	assert.Equal(t, "Restaurant 3", d.Name)

	on(t, loop, func() { ctrl.LoadDetails("missing") })
	s = waitFor(t, snaps, done)
	assert.ErrorIs(t, loadable.Err(s.State), ErrNotFound)
}
