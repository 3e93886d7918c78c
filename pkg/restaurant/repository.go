package restaurant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/restaurant-feed/pkg/client"
	"github.com/Sternrassler/restaurant-feed/pkg/feed"
	"github.com/Sternrassler/restaurant-feed/pkg/logging"
	"github.com/rs/zerolog"
)

// Consumer API endpoints.
const (
	ListEndpoint   = "/consumer/v2/restaurants"
	DetailEndpoint = "/consumer/v2/restaurants/"
)

// ErrNotFound is returned by FetchOne for an unknown id.
var ErrNotFound = client.ErrNotFound

// API is the transport the Repository reads from; *client.Client
// implements it.
type API interface {
	GetJSON(ctx context.Context, endpoint string, query url.Values, out any) error
}

// Filter selects which restaurants a list shows.
type Filter struct {
	// RegionID scopes the list to a region.
	RegionID string `yaml:"region_id"`

	// Search is a free-text query on the restaurant name.
	Search string `yaml:"search"`
}

// Query encodes f with the page parameters.
func (f Filter) Query(page, limit int) url.Values {
	q := url.Values{}
	if f.RegionID != "" {
		q.Set("region_id", f.RegionID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))
	return q
}

// Repository reads restaurants from the consumer API. It is a
// feed.ListSource for Restaurant and a feed.DetailSource for Details, and
// is safe for concurrent use.
type Repository struct {
	api    API
	logger zerolog.Logger
}

var (
	_ feed.ListSource[Restaurant, Filter] = (*Repository)(nil)
	_ feed.DetailSource[Details]          = (*Repository)(nil)
)

// NewRepository creates a repository over api.
func NewRepository(api API) *Repository {
	return &Repository{
		api:    api,
		logger: logging.NewLogger("repository"),
	}
}

// WithLogger replaces the component logger.
func (r *Repository) WithLogger(logger zerolog.Logger) *Repository {
	r.logger = logger
	return r
}

// FetchPage loads one page of the restaurant list.
func (r *Repository) FetchPage(ctx context.Context, filter Filter, page, limit int) (feed.Page[Restaurant], error) {
	var dto listResponseDTO
	if err := r.api.GetJSON(ctx, ListEndpoint, filter.Query(page, limit), &dto); err != nil {
		return feed.Page[Restaurant]{}, fmt.Errorf("fetch restaurants page %d: %w", page, err)
	}

	result := toPage(dto, limit)
	r.logger.Debug().
		Str("region_id", filter.RegionID).
		Int("page", page).
		Int("items", len(result.Items)).
		Int("total_pages", result.Pagination.TotalPages).
		Msg("Fetched restaurant page")
	return result, nil
}

// FetchOne loads the details of restaurant id. An unknown id fails with an
// error wrapping ErrNotFound.
func (r *Repository) FetchOne(ctx context.Context, id string) (Details, error) {
	if id == "" {
		return Details{}, fmt.Errorf("fetch restaurant: empty id")
	}

	var dto detailResponseDTO
	if err := r.api.GetJSON(ctx, DetailEndpoint+url.PathEscape(id), nil, &dto); err != nil {
		return Details{}, fmt.Errorf("fetch restaurant %s: %w", id, err)
	}
	if dto.Data == nil {
		return Details{}, fmt.Errorf("fetch restaurant %s: %w: document has no data", id, client.ErrDecoding)
	}

	return toDetails(*dto.Data), nil
}
