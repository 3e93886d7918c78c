package feed

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/restaurant-feed/internal/testutil"
	"github.com/Sternrassler/restaurant-feed/pkg/pagination"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type item struct {
	id string
}

func (i item) Key() string { return i.id }

func items(ids ...string) []item {
	out := make([]item, len(ids))
	for n, id := range ids {
		out[n] = item{id: id}
	}
	return out
}

func pageOf(page, totalPages int, ids ...string) Page[item] {
	return Page[item]{
		Items: items(ids...),
		Pagination: pagination.Cursor{
			Limit:       10,
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalCount:  totalPages * 10,
		},
	}
}

// pageCall is one FetchPage invocation held open until the test responds.
type pageCall struct {
	ctx    context.Context
	filter string
	page   int
	limit  int
	reply  chan pageReply
}

type pageReply struct {
	page Page[item]
	err  error
}

func (c *pageCall) respond(p Page[item], err error) {
	c.reply <- pageReply{page: p, err: err}
}

// gatedListSource blocks every FetchPage until the test responds to it. It
// ignores context cancellation, like a transport that does not stop.
type gatedListSource struct {
	mu    sync.Mutex
	calls []*pageCall
	next  chan *pageCall
}

func newGatedListSource() *gatedListSource {
	return &gatedListSource{next: make(chan *pageCall, 32)}
}

func (s *gatedListSource) FetchPage(ctx context.Context, filter string, page, limit int) (Page[item], error) {
	call := &pageCall{ctx: ctx, filter: filter, page: page, limit: limit, reply: make(chan pageReply, 1)}
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	s.next <- call

	r := <-call.reply
	return r.page, r.err
}

// await returns the next FetchPage call.
func (s *gatedListSource) await(t *testing.T) *pageCall {
	t.Helper()
	select {
	case c := <-s.next:
		return c
	case <-time.After(testutil.StepTimeout):
		t.Fatal("timed out waiting for FetchPage")
		return nil
	}
}

func (s *gatedListSource) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case c := <-s.next:
		t.Fatalf("unexpected FetchPage(page=%d)", c.page)
	case <-time.After(50 * time.Millisecond):
	}
}

func (s *gatedListSource) pagesRequested() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := make([]int, len(s.calls))
	for i, c := range s.calls {
		pages[i] = c.page
	}
	return pages
}

type listHarness struct {
	src        *gatedListSource
	dispatcher *testutil.StepDispatcher
	ctrl       *ListController[item, string]
	snapshots  []ListSnapshot[item]
}

func newListHarness(t *testing.T) *listHarness {
	t.Helper()

	h := &listHarness{
		src:        newGatedListSource(),
		dispatcher: testutil.NewStepDispatcher(),
	}
	logger := zerolog.Nop()
	ctrl, err := NewListController[item, string](h.src, "all", Options{
		Dispatcher: h.dispatcher,
		Name:       t.Name(),
		Limit:      10,
		Logger:     &logger,
	})
	require.NoError(t, err)
	ctrl.Subscribe(func(s ListSnapshot[item]) {
		h.snapshots = append(h.snapshots, s)
	})
	h.ctrl = ctrl
	t.Cleanup(ctrl.Close)
	return h
}

// loaded drives a first load to completion with p.
func (h *listHarness) loaded(t *testing.T, p Page[item]) {
	t.Helper()
	h.ctrl.LoadFirstPage()
	h.src.await(t).respond(p, nil)
	h.dispatcher.Step(t)
}

func (h *listHarness) last() ListSnapshot[item] {
	return h.snapshots[len(h.snapshots)-1]
}

// detailCall is one FetchOne invocation held open until the test responds.
type detailCall struct {
	id    string
	reply chan detailReply
}

type detailReply struct {
	entity string
	err    error
}

func (c *detailCall) respond(entity string, err error) {
	c.reply <- detailReply{entity: entity, err: err}
}

type gatedDetailSource struct {
	next chan *detailCall
}

func newGatedDetailSource() *gatedDetailSource {
	return &gatedDetailSource{next: make(chan *detailCall, 32)}
}

func (s *gatedDetailSource) FetchOne(_ context.Context, id string) (string, error) {
	call := &detailCall{id: id, reply: make(chan detailReply, 1)}
	s.next <- call
	r := <-call.reply
	return r.entity, r.err
}

func (s *gatedDetailSource) await(t *testing.T) *detailCall {
	t.Helper()
	select {
	case c := <-s.next:
		return c
	case <-time.After(testutil.StepTimeout):
		t.Fatal("timed out waiting for FetchOne")
		return nil
	}
}

func (s *gatedDetailSource) expectNoCall(t *testing.T) {
	t.Helper()
	select {
	case c := <-s.next:
		t.Fatalf("unexpected FetchOne(%q)", c.id)
	case <-time.After(50 * time.Millisecond):
	}
}

func entityFor(id string) string {
	return fmt.Sprintf("restaurant-%s", id)
}
