// Package feed orchestrates asynchronous loading of a paginated list and of
// a single keyed resource.
//
// A ListController turns UI triggers (first load, pull-to-refresh, "load
// more" when the tail item is rendered, retry) into a sequence of
// ListSnapshots; a DetailController does the same for one entity. Both
// controllers:
//
//   - keep their state on a single owner context (a dispatch.Dispatcher)
//     and never lock it,
//   - tag every fetch with a generation and drop results of superseded
//     generations on arrival,
//   - keep previously loaded data when a refresh fails, and
//   - publish a new snapshot to subscribers after every transition.
//
// Data comes from a ListSource or DetailSource supplied at construction.
package feed

import (
	"context"

	"github.com/Sternrassler/restaurant-feed/pkg/pagination"
)

// Identifiable is implemented by list items. Keys are unique within a list.
type Identifiable interface {
	Key() string
}

// Page is one page of a list resource.
type Page[Item any] struct {
	Items      []Item
	Pagination pagination.Cursor
}

// ListSource fetches pages of a list resource.
type ListSource[Item any, Filter any] interface {
	FetchPage(ctx context.Context, filter Filter, page, limit int) (Page[Item], error)
}

// DetailSource fetches a single resource by id.
type DetailSource[Entity any] interface {
	FetchOne(ctx context.Context, id string) (Entity, error)
}

// ListSourceFunc adapts a function to a ListSource.
type ListSourceFunc[Item any, Filter any] func(ctx context.Context, filter Filter, page, limit int) (Page[Item], error)

// FetchPage calls f.
func (f ListSourceFunc[Item, Filter]) FetchPage(ctx context.Context, filter Filter, page, limit int) (Page[Item], error) {
	return f(ctx, filter, page, limit)
}

// DetailSourceFunc adapts a function to a DetailSource.
type DetailSourceFunc[Entity any] func(ctx context.Context, id string) (Entity, error)

// FetchOne calls f.
func (f DetailSourceFunc[Entity]) FetchOne(ctx context.Context, id string) (Entity, error) {
	return f(ctx, id)
}
