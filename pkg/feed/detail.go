package feed

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/restaurant-feed/pkg/dispatch"
	"github.com/Sternrassler/restaurant-feed/pkg/generation"
	"github.com/Sternrassler/restaurant-feed/pkg/loadable"
	"github.com/Sternrassler/restaurant-feed/pkg/logging"
	"github.com/rs/zerolog"
)

// DetailController loads a single resource by id. All methods must be
// called on the owner context.
type DetailController[Entity any] struct {
	source     DetailSource[Entity]
	dispatcher dispatch.Dispatcher
	parent     context.Context
	logger     zerolog.Logger
	name       string

	state        loadable.State[Entity]
	isRefreshing bool
	closed       bool

	gen       generation.Counter
	observers observers[DetailSnapshot[Entity]]
}

// NewDetailController creates an idle detail controller.
func NewDetailController[Entity any](source DetailSource[Entity], opts Options) (*DetailController[Entity], error) {
	if source == nil {
		return nil, errors.New("detail source is required")
	}
	opts, err := opts.withDefaults("detail")
	if err != nil {
		return nil, err
	}

	return &DetailController[Entity]{
		source:     source,
		dispatcher: opts.Dispatcher,
		parent:     opts.Context,
		logger:     logging.ForController(*opts.Logger, opts.Name),
		name:       opts.Name,
		state:      loadable.Idle[Entity]{},
	}, nil
}

// Snapshot returns the current state.
func (c *DetailController[Entity]) Snapshot() DetailSnapshot[Entity] {
	return DetailSnapshot[Entity]{
		State:        c.state,
		IsRefreshing: c.isRefreshing,
	}
}

// Subscribe registers fn to receive a snapshot after every transition.
func (c *DetailController[Entity]) Subscribe(fn func(DetailSnapshot[Entity])) func() {
	return c.observers.add(fn)
}

// LoadDetails fetches id, superseding whatever is in flight.
func (c *DetailController[Entity]) LoadDetails(id string) {
	if c.closed {
		return
	}

	ctx, tok := c.gen.Next(c.parent)
	c.isRefreshing = false
	c.state = loadable.Loading[Entity]{}
	c.publish()

	c.fetch(ctx, tok, opDetails, id, func(entity Entity, err error) {
		if err != nil {
			c.logger.Warn().Err(err).Str("id", id).Msg("Loading details failed")
			c.state = loadable.NewFailed[Entity](err)
			return
		}
		c.state = loadable.NewLoaded(entity)
	})
}

// Refresh re-fetches id over the current content. It is dropped while a
// load or another refresh is in progress. A failure keeps the loaded
// entity, if there is one.
func (c *DetailController[Entity]) Refresh(id string) {
	if c.closed {
		return
	}
	if loadable.IsLoading(c.state) || c.isRefreshing {
		feedDroppedRefreshesTotal.WithLabelValues(c.name).Inc()
		c.logger.Debug().Str("id", id).Msg("Refresh dropped")
		return
	}

	fallback, hasFallback := loadable.Value(c.state)

	ctx, tok := c.gen.Next(c.parent)
	c.isRefreshing = true
	c.publish()

	c.fetch(ctx, tok, opRefresh, id, func(entity Entity, err error) {
		c.isRefreshing = false
		if err != nil {
			if hasFallback {
				feedRefreshFallbacksTotal.WithLabelValues(c.name).Inc()
				c.logger.Warn().Err(err).Str("id", id).Msg("Refresh failed, keeping loaded details")
				c.state = loadable.NewLoaded(fallback)
				return
			}
			c.state = loadable.NewFailed[Entity](err)
			return
		}
		c.state = loadable.NewLoaded(entity)
	})
}

// Close invalidates any in-flight fetch and drops subscribers.
func (c *DetailController[Entity]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.gen.Invalidate()
	c.observers.clear()
}

func (c *DetailController[Entity]) fetch(ctx context.Context, tok generation.Token, op, id string, apply func(Entity, error)) {
	start := time.Now()
	logging.Fetch(c.logger.Debug(), op, uint64(tok)).
		Str("id", id).
		Msg("Fetching details")

	go func() {
		entity, err := c.source.FetchOne(ctx, id)

		c.dispatcher.Dispatch(func() {
			if !c.gen.IsCurrent(tok) {
				feedStaleResultsTotal.WithLabelValues(c.name).Inc()
				logging.Fetch(c.logger.Debug(), op, uint64(tok)).
					Str("id", id).
					Msg("Discarding stale result")
				return
			}
			c.gen.Finish(tok)

			feedFetchesTotal.WithLabelValues(c.name, op, outcome(err)).Inc()
			feedFetchDuration.WithLabelValues(c.name, op).Observe(time.Since(start).Seconds())

			apply(entity, err)
			c.publish()
		})
	}()
}

func (c *DetailController[Entity]) publish() {
	c.observers.publish(c.Snapshot())
}
