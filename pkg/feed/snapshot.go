package feed

import (
	"github.com/Sternrassler/restaurant-feed/pkg/loadable"
	"github.com/Sternrassler/restaurant-feed/pkg/pagination"
)

// ListSnapshot is what a ListController publishes after every transition.
// IsLoadingMore and IsRefreshing can be true while State is Loaded.
type ListSnapshot[Item any] struct {
	State         loadable.State[[]Item]
	Cursor        pagination.Cursor
	IsLoadingMore bool
	IsRefreshing  bool
}

// Items returns the loaded items, or nil when State is not Loaded.
func (s ListSnapshot[Item]) Items() []Item {
	items, _ := loadable.Value(s.State)
	return items
}

// DetailSnapshot is what a DetailController publishes after every transition.
type DetailSnapshot[Entity any] struct {
	State        loadable.State[Entity]
	IsRefreshing bool
}

// observers keeps subscribers in subscription order. Owner context only.
type observers[S any] struct {
	nextID int
	subs   []subscription[S]
}

type subscription[S any] struct {
	id int
	fn func(S)
}

func (o *observers[S]) add(fn func(S)) func() {
	o.nextID++
	id := o.nextID
	o.subs = append(o.subs, subscription[S]{id: id, fn: fn})
	return func() { o.remove(id) }
}

func (o *observers[S]) remove(id int) {
	for i, s := range o.subs {
		if s.id == id {
			o.subs = append(o.subs[:i:i], o.subs[i+1:]...)
			return
		}
	}
}

func (o *observers[S]) publish(snap S) {
	// Copy so subscribers may unsubscribe while being notified.
	subs := append([]subscription[S](nil), o.subs...)
	for _, s := range subs {
		s.fn(snap)
	}
}

func (o *observers[S]) clear() {
	o.subs = nil
}
