package restaurant

// Wire types of the consumer API (JSON:API style documents).

type listResponseDTO struct {
	Data []resourceDTO `json:"data"`
	Meta *metaDTO      `json:"meta"`
}

type detailResponseDTO struct {
	Data *resourceDTO `json:"data"`
}

type resourceDTO struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	Attributes    attributesDTO    `json:"attributes"`
	Relationships relationshipsDTO `json:"relationships"`
}

type attributesDTO struct {
	Name                            string   `json:"name"`
	PriceLevel                      int      `json:"price_level"`
	Phone                           string   `json:"phone"`
	MenuURL                         string   `json:"menu_url"`
	RequireBookingPreferenceEnabled bool     `json:"require_booking_preference_enabled"`
	Difficult                       bool     `json:"difficult"`
	Cuisine                         string   `json:"cuisine"`
	ImageURL                        string   `json:"image_url"`
	Latitude                        float64  `json:"latitude"`
	Longitude                       float64  `json:"longitude"`
	AddressLine1                    string   `json:"address_line_1"`
	RatingsAverage                  string   `json:"ratings_average"`
	RatingsCount                    int      `json:"ratings_count"`
	Labels                          []string `json:"labels"`

	// Detail-only attributes
	Alcohol            bool     `json:"alcohol"`
	Description        string   `json:"description"`
	EstablishmentType  string   `json:"establishment_type"`
	ExternalRatingsURL string   `json:"external_ratings_url"`
	ImageURLs          []string `json:"image_urls"`
	NeighborhoodName   string   `json:"neighborhood_name"`
	Notice             string   `json:"notice"`
	OperatingHours     string   `json:"operating_hours"`
	OutdoorSeating     bool     `json:"outdoor_seating"`
	PostalCode         string   `json:"postal_code"`
	Province           string   `json:"province"`
	Smoking            bool     `json:"smoking"`
	Valet              bool     `json:"valet"`
	AddressLine2       string   `json:"address_line_2"`
	City               string   `json:"city"`
}

type relationshipsDTO struct {
	Region struct {
		Data *struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"data"`
	} `json:"region"`
}

type metaDTO struct {
	Limit       *int `json:"limit"`
	TotalPages  *int `json:"total_pages"`
	TotalCount  *int `json:"total_count"`
	CurrentPage *int `json:"current_page"`
}
