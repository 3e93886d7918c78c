package restaurant

import (
	"strings"
	"time"
)

// Details is the full restaurant record shown on a detail page.
type Details struct {
	Restaurant

	Description       string            `json:"description,omitempty"`
	Notice            string            `json:"notice,omitempty"`
	EstablishmentType EstablishmentType `json:"establishment_type,omitempty"`
	Neighborhood      string            `json:"neighborhood,omitempty"`
	Address           Address           `json:"address"`
	ExternalRatingURL string            `json:"external_rating_url,omitempty"`
	ImageURLs         []string          `json:"image_urls,omitempty"`
	Features          Features          `json:"features"`
	OperatingHours    OperatingHours    `json:"operating_hours,omitempty"`
}

// Address is a postal address.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	Province   string `json:"province,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// Full renders "line1, line2, city, province postal", skipping an empty
// second line.
func (a Address) Full() string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	locality := strings.TrimSpace(a.Province + " " + a.PostalCode)
	switch {
	case a.City != "" && locality != "":
		parts = append(parts, a.City+", "+locality)
	case a.City != "":
		parts = append(parts, a.City)
	case locality != "":
		parts = append(parts, locality)
	}
	return strings.Join(parts, ", ")
}

// Features are the yes/no amenities of a venue.
type Features struct {
	Alcohol        bool `json:"alcohol"`
	OutdoorSeating bool `json:"outdoor_seating"`
	Smoking        bool `json:"smoking"`
	Valet          bool `json:"valet"`
}

// EstablishmentType is e.g. "Fine Dining" or "Cafe".
type EstablishmentType string

const (
	CasualDining EstablishmentType = "Casual Dining"
	FineDining   EstablishmentType = "Fine Dining"
	FastFood     EstablishmentType = "Fast Food"
	Cafe         EstablishmentType = "Cafe"
	Bar          EstablishmentType = "Bar"
	FoodTruck    EstablishmentType = "Food Truck"
)

// Known reports whether t is one of the listed types.
func (t EstablishmentType) Known() bool {
	switch t {
	case CasualDining, FineDining, FastFood, Cafe, Bar, FoodTruck:
		return true
	}
	return false
}

// OperatingHours is the raw weekly schedule, one "start-end" range per day
// separated by ";" and starting on Sunday, e.g. "6:00pm-2:00am;...".
type OperatingHours string

// TimeRange is one day's opening hours as written by the API.
type TimeRange struct {
	Start string
	End   string
}

func (r TimeRange) String() string {
	return r.Start + " - " + r.End
}

// Daily parses the schedule. Days whose entry is not a "start-end" pair
// are left out.
func (h OperatingHours) Daily() map[time.Weekday]TimeRange {
	hours := make(map[time.Weekday]TimeRange)
	if h == "" {
		return hours
	}
	for i, entry := range strings.Split(string(h), ";") {
		if i > int(time.Saturday) {
			break
		}
		start, end, ok := strings.Cut(strings.TrimSpace(entry), "-")
		if !ok || start == "" || end == "" || strings.Contains(end, "-") {
			continue
		}
		hours[time.Weekday(i)] = TimeRange{Start: start, End: end}
	}
	return hours
}
