package restaurant

import (
	"fmt"
	"strings"
)

// Restaurant is one entry of the restaurant list.
type Restaurant struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Cuisine     string     `json:"cuisine,omitempty"`
	PriceLevel  PriceLevel `json:"price_level"`
	Rating      float64    `json:"rating"`
	ReviewCount int        `json:"review_count"`
	ImageURL    string     `json:"image_url,omitempty"`
	Location    Location   `json:"location"`
	Phone       string     `json:"phone,omitempty"`
	MenuURL     string     `json:"menu_url,omitempty"`
	Labels      []Label    `json:"labels,omitempty"`
	RegionID    string     `json:"region_id,omitempty"`

	// BookingRequired is set when the venue asks for a booking preference.
	BookingRequired bool `json:"booking_required"`

	// DifficultToBook marks venues that are usually fully booked.
	DifficultToBook bool `json:"difficult_to_book"`
}

// Key identifies the restaurant within a list.
func (r Restaurant) Key() string { return r.ID }

// FormattedRating renders the rating with one decimal.
func (r Restaurant) FormattedRating() string {
	return fmt.Sprintf("%.1f", r.Rating)
}

// RatingWithCount renders e.g. "4.5 (120 reviews)".
func (r Restaurant) RatingWithCount() string {
	return fmt.Sprintf("%s (%d reviews)", r.FormattedRating(), r.ReviewCount)
}

// LabelsIn returns the labels of category c, in order.
func (r Restaurant) LabelsIn(c LabelCategory) []Label {
	return labelsIn(r.Labels, c)
}

// Location is where a restaurant is.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// PriceLevel ranks how expensive a restaurant is, 1 to 4.
type PriceLevel int

const (
	PriceBudget PriceLevel = iota + 1
	PriceModerate
	PriceExpensive
	PriceLuxury
)

// ParsePriceLevel maps the wire value; anything out of range is moderate.
func ParsePriceLevel(v int) PriceLevel {
	p := PriceLevel(v)
	if p < PriceBudget || p > PriceLuxury {
		return PriceModerate
	}
	return p
}

// Symbol renders the level as dollar signs.
func (p PriceLevel) Symbol() string {
	if p < PriceBudget || p > PriceLuxury {
		return ""
	}
	return strings.Repeat("$", int(p))
}

func (p PriceLevel) String() string {
	switch p {
	case PriceBudget:
		return "Budget-friendly"
	case PriceModerate:
		return "Moderate"
	case PriceExpensive:
		return "Expensive"
	case PriceLuxury:
		return "Luxury"
	default:
		return fmt.Sprintf("PriceLevel(%d)", int(p))
	}
}

// Label is a venue attribute such as "Romantic" or "Vegan Friendly".
type Label string

const (
	LabelCasual             Label = "Casual"
	LabelDressy             Label = "Dressy"
	LabelSmartCasual        Label = "Smart Casual"
	LabelGoodForGroups      Label = "Good for Groups"
	LabelGoodForFamilies    Label = "Good for Families"
	LabelGoodForCouples     Label = "Good for Couples"
	LabelRomantic           Label = "Romantic"
	LabelUpscale            Label = "Upscale"
	LabelFun                Label = "Fun"
	LabelGreatService       Label = "Great Service"
	LabelSpecialOccasion    Label = "Special Occasion"
	LabelVeganFriendly      Label = "Vegan Friendly"
	LabelGoodForBirthdays   Label = "Good for Birthdays"
	LabelVegetarian         Label = "Vegetarian"
	LabelScenicView         Label = "Scenic View"
	LabelGoodForBreakfast   Label = "Good for Breakfast"
	LabelGoodForBrunch      Label = "Good for Brunch"
	LabelGoodForLunch       Label = "Good for Lunch"
	LabelGoodForDinner      Label = "Good for Dinner"
	LabelAcceptsCreditCards Label = "Accepts Credit Cards"
	LabelAcceptsCash        Label = "Accepts Cash"
)

var knownLabels = map[Label]LabelCategory{
	LabelCasual:             CategoryDressCode,
	LabelDressy:             CategoryDressCode,
	LabelSmartCasual:        CategoryDressCode,
	LabelUpscale:            CategoryDressCode,
	LabelGoodForGroups:      CategoryAudience,
	LabelGoodForFamilies:    CategoryAudience,
	LabelGoodForCouples:     CategoryAudience,
	LabelRomantic:           CategoryAudience,
	LabelGoodForBreakfast:   CategoryMealTime,
	LabelGoodForBrunch:      CategoryMealTime,
	LabelGoodForLunch:       CategoryMealTime,
	LabelGoodForDinner:      CategoryMealTime,
	LabelVeganFriendly:      CategoryDietary,
	LabelVegetarian:         CategoryDietary,
	LabelAcceptsCreditCards: CategoryPayment,
	LabelAcceptsCash:        CategoryPayment,
	LabelFun:                CategoryAtmosphere,
	LabelGreatService:       CategoryAtmosphere,
	LabelSpecialOccasion:    CategoryAtmosphere,
	LabelGoodForBirthdays:   CategoryAtmosphere,
	LabelScenicView:         CategoryAtmosphere,
}

// ParseLabel returns the label for a wire value. ok is false for labels
// this package does not know.
func ParseLabel(s string) (Label, bool) {
	l := Label(s)
	_, ok := knownLabels[l]
	return l, ok
}

// Category groups the label for display.
func (l Label) Category() LabelCategory {
	if c, ok := knownLabels[l]; ok {
		return c
	}
	return CategoryAtmosphere
}

// LabelCategory groups labels.
type LabelCategory string

const (
	CategoryDressCode  LabelCategory = "dress_code"
	CategoryAudience   LabelCategory = "audience"
	CategoryMealTime   LabelCategory = "meal_time"
	CategoryDietary    LabelCategory = "dietary"
	CategoryPayment    LabelCategory = "payment"
	CategoryAtmosphere LabelCategory = "atmosphere"
)

func labelsIn(labels []Label, c LabelCategory) []Label {
	var out []Label
	for _, l := range labels {
		if l.Category() == c {
			out = append(out, l)
		}
	}
	return out
}
