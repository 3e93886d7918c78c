package restaurant

import (
	"strconv"
	"strings"

	"github.com/Sternrassler/restaurant-feed/pkg/feed"
	"github.com/Sternrassler/restaurant-feed/pkg/pagination"
)

func toPage(dto listResponseDTO, limit int) feed.Page[Restaurant] {
	items := make([]Restaurant, 0, len(dto.Data))
	for _, r := range dto.Data {
		items = append(items, toRestaurant(r))
	}
	return feed.Page[Restaurant]{
		Items:      items,
		Pagination: toCursor(dto.Meta, limit),
	}
}

// toCursor fills an absent or partial meta object: the limit defaults to
// the requested one, the page to 1, the page count is derived from the
// total.
func toCursor(meta *metaDTO, requested int) pagination.Cursor {
	c := pagination.Cursor{Limit: requested}
	if meta != nil {
		c.Limit = intOr(meta.Limit, requested)
		c.CurrentPage = intOr(meta.CurrentPage, 0)
		c.TotalPages = intOr(meta.TotalPages, 0)
		c.TotalCount = intOr(meta.TotalCount, 0)
	}
	return c.Normalize()
}

func toRestaurant(dto resourceDTO) Restaurant {
	a := dto.Attributes
	r := Restaurant{
		ID:          dto.ID,
		Name:        a.Name,
		Cuisine:     a.Cuisine,
		PriceLevel:  ParsePriceLevel(a.PriceLevel),
		Rating:      parseRating(a.RatingsAverage),
		ReviewCount: a.RatingsCount,
		ImageURL:    a.ImageURL,
		Location: Location{
			Latitude:  a.Latitude,
			Longitude: a.Longitude,
			Address:   a.AddressLine1,
		},
		Phone:           a.Phone,
		MenuURL:         a.MenuURL,
		Labels:          parseLabels(a.Labels),
		BookingRequired: a.RequireBookingPreferenceEnabled,
		DifficultToBook: a.Difficult,
	}
	if dto.Relationships.Region.Data != nil {
		r.RegionID = dto.Relationships.Region.Data.ID
	}
	return r
}

func toDetails(dto resourceDTO) Details {
	a := dto.Attributes
	return Details{
		Restaurant:        toRestaurant(dto),
		Description:       a.Description,
		Notice:            a.Notice,
		EstablishmentType: EstablishmentType(a.EstablishmentType),
		Neighborhood:      a.NeighborhoodName,
		Address: Address{
			Line1:      a.AddressLine1,
			Line2:      a.AddressLine2,
			City:       a.City,
			Province:   a.Province,
			PostalCode: a.PostalCode,
		},
		ExternalRatingURL: a.ExternalRatingsURL,
		ImageURLs:         a.ImageURLs,
		Features: Features{
			Alcohol:        a.Alcohol,
			OutdoorSeating: a.OutdoorSeating,
			Smoking:        a.Smoking,
			Valet:          a.Valet,
		},
		OperatingHours: OperatingHours(a.OperatingHours),
	}
}

// parseRating reads the decimal string the API sends; garbage is 0.
func parseRating(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseLabels(raw []string) []Label {
	var labels []Label
	for _, s := range raw {
		if l, ok := ParseLabel(s); ok {
			labels = append(labels, l)
		}
	}
	return labels
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
