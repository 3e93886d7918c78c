package feed

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/restaurant-feed/pkg/dispatch"
	"github.com/Sternrassler/restaurant-feed/pkg/generation"
	"github.com/Sternrassler/restaurant-feed/pkg/loadable"
	"github.com/Sternrassler/restaurant-feed/pkg/logging"
	"github.com/Sternrassler/restaurant-feed/pkg/pagination"
	"github.com/rs/zerolog"
)

// DefaultPageSize is the page size the list controller requests.
const DefaultPageSize = 10

// Options configures a controller.
type Options struct {
	// Dispatcher is the owner context results are applied on (REQUIRED).
	Dispatcher dispatch.Dispatcher

	// Name labels the controller in logs and metrics.
	Name string

	// Limit is the page size for list controllers (default: DefaultPageSize).
	Limit int

	// Logger overrides the component logger.
	Logger *zerolog.Logger

	// Context is the parent of every fetch context (default: Background).
	Context context.Context
}

func (o Options) withDefaults(name string) (Options, error) {
	if o.Dispatcher == nil {
		return o, errors.New("dispatcher is required")
	}
	if o.Name == "" {
		o.Name = name
	}
	if o.Limit <= 0 {
		o.Limit = DefaultPageSize
	}
	if o.Logger == nil {
		l := logging.NewLogger("feed")
		o.Logger = &l
	}
	if o.Context == nil {
		o.Context = context.Background()
	}
	return o, nil
}

// ListController loads a paginated list: first page, refresh and
// incremental "load more". All methods must be called on the owner context.
type ListController[Item Identifiable, Filter any] struct {
	source     ListSource[Item, Filter]
	filter     Filter
	dispatcher dispatch.Dispatcher
	parent     context.Context
	logger     zerolog.Logger
	name       string
	limit      int

	state         loadable.State[[]Item]
	cursor        pagination.Cursor
	isLoadingMore bool
	isRefreshing  bool
	closed        bool

	gen       generation.Counter
	observers observers[ListSnapshot[Item]]
}

// NewListController creates an idle list controller.
func NewListController[Item Identifiable, Filter any](source ListSource[Item, Filter], filter Filter, opts Options) (*ListController[Item, Filter], error) {
	if source == nil {
		return nil, errors.New("list source is required")
	}
	opts, err := opts.withDefaults("list")
	if err != nil {
		return nil, err
	}

	return &ListController[Item, Filter]{
		source:     source,
		filter:     filter,
		dispatcher: opts.Dispatcher,
		parent:     opts.Context,
		logger:     logging.ForController(*opts.Logger, opts.Name),
		name:       opts.Name,
		limit:      opts.Limit,
		state:      loadable.Idle[[]Item]{},
		cursor:     pagination.New(opts.Limit),
	}, nil
}

// Snapshot returns the current state.
func (c *ListController[Item, Filter]) Snapshot() ListSnapshot[Item] {
	return ListSnapshot[Item]{
		State:         c.state,
		Cursor:        c.cursor,
		IsLoadingMore: c.isLoadingMore,
		IsRefreshing:  c.isRefreshing,
	}
}

// Subscribe registers fn to receive a snapshot after every transition.
// fn runs on the owner context. The returned func unsubscribes.
func (c *ListController[Item, Filter]) Subscribe(fn func(ListSnapshot[Item])) func() {
	return c.observers.add(fn)
}

// Filter returns the filter pages are fetched with.
func (c *ListController[Item, Filter]) Filter() Filter {
	return c.filter
}

// LoadFirstPage discards any loaded data and fetches page 1, superseding
// whatever is in flight.
func (c *ListController[Item, Filter]) LoadFirstPage() {
	if c.closed {
		return
	}

	ctx, tok := c.gen.Next(c.parent)
	c.cursor = pagination.New(c.limit)
	c.isLoadingMore = false
	c.isRefreshing = false
	c.state = loadable.Loading[[]Item]{}
	c.publish()

	c.fetch(ctx, tok, opFirstPage, 1, func(page Page[Item], err error) {
		if err != nil {
			c.logger.Warn().Err(err).Msg("First page failed")
			c.state = loadable.NewFailed[[]Item](err)
			return
		}
		c.state = loadable.NewLoaded(page.Items)
		c.cursor = c.responseCursor(page.Pagination, 1)
	})
}

// Retry re-runs the first-page load after a failure.
func (c *ListController[Item, Filter]) Retry() {
	c.LoadFirstPage()
}

// SetFilter replaces the filter and reloads from page 1.
func (c *ListController[Item, Filter]) SetFilter(filter Filter) {
	if c.closed {
		return
	}
	c.filter = filter
	c.LoadFirstPage()
}

// Refresh re-fetches page 1 over the current content. It is dropped while a
// first load or another refresh is in progress. When it fails and items
// were loaded before, those items are kept and the error is only logged.
// The cursor stays reset to page 1 either way.
func (c *ListController[Item, Filter]) Refresh() {
	if c.closed {
		return
	}
	if loadable.IsLoading(c.state) || c.isRefreshing {
		feedDroppedRefreshesTotal.WithLabelValues(c.name).Inc()
		c.logger.Debug().
			Bool("loading", loadable.IsLoading(c.state)).
			Bool("refreshing", c.isRefreshing).
			Msg("Refresh dropped")
		return
	}

	fallback, _ := loadable.Value(c.state)

	ctx, tok := c.gen.Next(c.parent)
	c.cursor = pagination.New(c.limit)
	c.isLoadingMore = false
	c.isRefreshing = true
	c.publish()

	c.fetch(ctx, tok, opRefresh, 1, func(page Page[Item], err error) {
		c.isRefreshing = false
		if err != nil {
			if len(fallback) > 0 {
				feedRefreshFallbacksTotal.WithLabelValues(c.name).Inc()
				c.logger.Warn().Err(err).
					Int("kept_items", len(fallback)).
					Msg("Refresh failed, keeping loaded items")
				c.state = loadable.NewLoaded(fallback)
				return
			}
			c.logger.Warn().Err(err).Msg("Refresh failed with nothing loaded")
			c.state = loadable.NewFailed[[]Item](err)
			return
		}
		c.state = loadable.NewLoaded(page.Items)
		c.cursor = c.responseCursor(page.Pagination, 1)
	})
}

// LoadNextPageIfNeeded fetches the next page when ref is the last loaded
// item, more pages exist, and nothing is loading. Otherwise it does
// nothing, which collapses repeated triggers for the same tail item into a
// single fetch.
//
// A failed page keeps the loaded items; the page counter stays advanced.
func (c *ListController[Item, Filter]) LoadNextPageIfNeeded(ref Item) {
	if c.closed || !c.shouldLoadNextPage(ref) {
		return
	}

	previous, _ := loadable.Value(c.state)
	c.cursor.CurrentPage++
	page := c.cursor.CurrentPage
	c.isLoadingMore = true

	ctx, tok := c.gen.Next(c.parent)
	c.publish()

	c.fetch(ctx, tok, opLoadMore, page, func(result Page[Item], err error) {
		c.isLoadingMore = false
		if err != nil {
			c.logger.Warn().Err(err).Int("page", page).Msg("Next page failed")
			c.state = loadable.NewLoaded(previous)
			return
		}

		combined := make([]Item, 0, len(previous)+len(result.Items))
		combined = append(combined, previous...)
		combined = append(combined, result.Items...)
		c.state = loadable.NewLoaded(combined)

		next := c.responseCursor(result.Pagination, page)
		c.cursor.TotalPages = next.TotalPages
		c.cursor.TotalCount = next.TotalCount
	})
}

func (c *ListController[Item, Filter]) shouldLoadNextPage(ref Item) bool {
	items, ok := loadable.Value(c.state)
	if !ok || len(items) == 0 {
		return false
	}
	return ref.Key() == items[len(items)-1].Key() &&
		c.cursor.CurrentPage < c.cursor.TotalPages &&
		!loadable.IsLoading(c.state) &&
		!c.isLoadingMore
}

// Close invalidates any in-flight fetch and drops subscribers. Results that
// arrive afterwards are discarded.
func (c *ListController[Item, Filter]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.gen.Invalidate()
	c.observers.clear()
	c.logger.Debug().Msg("List controller closed")
}

// responseCursor normalises the pagination of a response for page.
func (c *ListController[Item, Filter]) responseCursor(p pagination.Cursor, page int) pagination.Cursor {
	if p.Limit <= 0 {
		p.Limit = c.limit
	}
	if p.CurrentPage <= 0 {
		p.CurrentPage = page
	}
	return p.Normalize()
}

// fetch runs the source call off the owner context and applies the result
// back on it if tok is still current.
func (c *ListController[Item, Filter]) fetch(ctx context.Context, tok generation.Token, op string, page int, apply func(Page[Item], error)) {
	filter, limit := c.filter, c.limit
	start := time.Now()

	logging.Fetch(c.logger.Debug(), op, uint64(tok)).
		Int("page", page).
		Int("limit", limit).
		Msg("Fetching page")

	go func() {
		result, err := c.source.FetchPage(ctx, filter, page, limit)

		c.dispatcher.Dispatch(func() {
			if !c.gen.IsCurrent(tok) {
				feedStaleResultsTotal.WithLabelValues(c.name).Inc()
				logging.Fetch(c.logger.Debug(), op, uint64(tok)).
					Uint64("current", uint64(c.gen.Current())).
					Msg("Discarding stale result")
				return
			}
			c.gen.Finish(tok)

			feedFetchesTotal.WithLabelValues(c.name, op, outcome(err)).Inc()
			feedFetchDuration.WithLabelValues(c.name, op).Observe(time.Since(start).Seconds())

			apply(result, err)
			logging.Fetch(c.logger.Debug(), op, uint64(tok)).
				Str("state", loadable.KindOf(c.state).String()).
				Int("items", len(c.Snapshot().Items())).
				Int("page", c.cursor.CurrentPage).
				Int("total_pages", c.cursor.TotalPages).
				Msg("Applied result")
			c.publish()
		})
	}()
}

func (c *ListController[Item, Filter]) publish() {
	c.observers.publish(c.Snapshot())
}
