package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/restaurant-feed/pkg/dispatch"
	"github.com/Sternrassler/restaurant-feed/pkg/feed"
	"github.com/Sternrassler/restaurant-feed/pkg/loadable"
	"github.com/Sternrassler/restaurant-feed/pkg/logging"
	"github.com/Sternrassler/restaurant-feed/pkg/metrics"
	"github.com/Sternrassler/restaurant-feed/pkg/pagination"
	"github.com/Sternrassler/restaurant-feed/pkg/restaurant"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 10 * time.Second
	detailTimeout   = 30 * time.Second
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the restaurant feed over HTTP",
		Long: `Serve keeps one list controller alive and exposes its state over HTTP,
together with /health and Prometheus /metrics.

  GET  /restaurants           current list state
  POST /restaurants/reload    load page 1 again (?search= replaces the filter)
  POST /restaurants/refresh   pull-to-refresh
  POST /restaurants/more      load the next page
  GET  /restaurants/{id}      restaurant details`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Metrics.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides metrics.addr)")
	return cmd
}

func runServe(ctx context.Context) error {
	logger := cliLogger()

	repo, closer, err := newRepository(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	g, gctx := errgroup.WithContext(ctx)

	loop := dispatch.NewLoop(0, logging.NewLogger("dispatch"))
	g.Go(func() error { return loop.Run(gctx) })

	srv, err := newFeedServer(gctx, loop, repo, repo, restaurant.Filter{
		RegionID: cfg.Feed.RegionID,
		Search:   cfg.Feed.Search,
	}, cfg.Feed.PageSize, logger)
	if err != nil {
		return err
	}
	if err := loop.Do(gctx, srv.list.LoadFirstPage); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("Starting feed server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", httpServer.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down feed server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// feedServer exposes a list controller and on-demand detail loads over HTTP.
// Controller calls go through the loop.
type feedServer struct {
	loop    *dispatch.Loop
	list    *feed.ListController[restaurant.Restaurant, restaurant.Filter]
	details feed.DetailSource[restaurant.Details]
	logger  zerolog.Logger
}

func newFeedServer(
	ctx context.Context,
	loop *dispatch.Loop,
	pages feed.ListSource[restaurant.Restaurant, restaurant.Filter],
	details feed.DetailSource[restaurant.Details],
	filter restaurant.Filter,
	pageSize int,
	logger zerolog.Logger,
) (*feedServer, error) {
	list, err := feed.NewListController(pages, filter, feed.Options{
		Dispatcher: loop,
		Name:       "restaurants",
		Limit:      pageSize,
		Logger:     &logger,
		Context:    ctx,
	})
	if err != nil {
		return nil, err
	}
	return &feedServer{loop: loop, list: list, details: details, logger: logger}, nil
}

func (s *feedServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /restaurants", s.handleList)
	mux.HandleFunc("POST /restaurants/reload", s.handleReload)
	mux.HandleFunc("POST /restaurants/refresh", s.handleRefresh)
	mux.HandleFunc("POST /restaurants/more", s.handleMore)
	mux.HandleFunc("GET /restaurants/{id}", s.handleDetails)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

type listResponse struct {
	State         string                  `json:"state"`
	Error         string                  `json:"error,omitempty"`
	Items         []restaurant.Restaurant `json:"items"`
	Pagination    pagination.Cursor       `json:"pagination"`
	IsLoadingMore bool                    `json:"is_loading_more"`
	IsRefreshing  bool                    `json:"is_refreshing"`
}

func toListResponse(snap feed.ListSnapshot[restaurant.Restaurant]) listResponse {
	resp := listResponse{
		State:         loadable.KindOf(snap.State).String(),
		Items:         snap.Items(),
		Pagination:    snap.Cursor,
		IsLoadingMore: snap.IsLoadingMore,
		IsRefreshing:  snap.IsRefreshing,
	}
	if err := loadable.Err(snap.State); err != nil {
		resp.Error = err.Error()
	}
	if resp.Items == nil {
		resp.Items = []restaurant.Restaurant{}
	}
	return resp
}

type actionResponse struct {
	Accepted bool         `json:"accepted"`
	List     listResponse `json:"list"`
}

func (s *feedServer) handleList(w http.ResponseWriter, r *http.Request) {
	var snap feed.ListSnapshot[restaurant.Restaurant]
	if !s.onLoop(w, r, func() { snap = s.list.Snapshot() }) {
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(snap))
}

func (s *feedServer) handleReload(w http.ResponseWriter, r *http.Request) {
	var snap feed.ListSnapshot[restaurant.Restaurant]
	ok := s.onLoop(w, r, func() {
		if r.URL.Query().Has("search") {
			filter := s.list.Filter()
			filter.Search = r.URL.Query().Get("search")
			s.list.SetFilter(filter)
		} else {
			s.list.LoadFirstPage()
		}
		snap = s.list.Snapshot()
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusAccepted, actionResponse{Accepted: true, List: toListResponse(snap)})
}

func (s *feedServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var snap feed.ListSnapshot[restaurant.Restaurant]
	ok := s.onLoop(w, r, func() {
		s.list.Refresh()
		snap = s.list.Snapshot()
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusAccepted, actionResponse{Accepted: snap.IsRefreshing, List: toListResponse(snap)})
}

func (s *feedServer) handleMore(w http.ResponseWriter, r *http.Request) {
	var snap feed.ListSnapshot[restaurant.Restaurant]
	ok := s.onLoop(w, r, func() {
		if items := s.list.Snapshot().Items(); len(items) > 0 {
			s.list.LoadNextPageIfNeeded(items[len(items)-1])
		}
		snap = s.list.Snapshot()
	})
	if !ok {
		return
	}
	writeJSON(w, http.StatusAccepted, actionResponse{Accepted: snap.IsLoadingMore, List: toListResponse(snap)})
}

// handleDetails runs a detail controller for the duration of the request.
func (s *feedServer) handleDetails(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ctx, cancel := context.WithTimeout(r.Context(), detailTimeout)
	defer cancel()

	ctrl, err := feed.NewDetailController(s.details, feed.Options{
		Dispatcher: s.loop,
		Name:       "restaurant-details",
		Logger:     &s.logger,
		Context:    ctx,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	onSnapshot, snapshots := watch[feed.DetailSnapshot[restaurant.Details]]()
	ok := s.onLoop(w, r, func() {
		ctrl.Subscribe(onSnapshot)
		ctrl.LoadDetails(id)
	})
	if !ok {
		return
	}
	defer func() { _ = s.loop.Do(context.Background(), ctrl.Close) }()

	snap, err := awaitSettled(ctx, snapshots, detailSettled[restaurant.Details])
	if err != nil {
		writeError(w, http.StatusGatewayTimeout, err)
		return
	}

	details, loaded := loadable.Value(snap.State)
	if !loaded {
		err := loadable.Err(snap.State)
		if errors.Is(err, restaurant.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("restaurant %q not found", id))
			return
		}
		s.logger.Warn().Err(err).Str("id", id).Msg("Detail request failed")
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// onLoop runs fn on the loop and writes a 503 when the loop is gone.
func (s *feedServer) onLoop(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := s.loop.Do(r.Context(), fn); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
