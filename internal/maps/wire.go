package maps

import (
	"github.com/fazal-lab/xia/internal/domain"
)

// Wire types for the Google Maps Platform Geocoding and Places Nearby Search
// APIs — only the fields the profiler consumes are modeled.

type geocodeResponse struct {
	Results []geocodeResult `json:"results"`
	Status  string          `json:"status"`
}

type geocodeResult struct {
	FormattedAddress  string             `json:"formatted_address"`
	AddressComponents []addressComponent `json:"address_components"`
}

type addressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

type placesNearbyResponse struct {
	Results       []placeResult `json:"results"`
	NextPageToken string        `json:"next_page_token"`
	Status        string        `json:"status"`
}

type placeResult struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Types            []string `json:"types"`
	Rating           float64  `json:"rating"`
	UserRatingsTotal int      `json:"user_ratings_total"`
	Vicinity         string   `json:"vicinity"`
	BusinessStatus   string   `json:"business_status"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func placeFromResult(r placeResult) domain.Place {
	return domain.Place{
		ID:               r.PlaceID,
		Name:             r.Name,
		Types:            r.Types,
		Lat:              r.Geometry.Location.Lat,
		Lng:              r.Geometry.Location.Lng,
		UserRatingsTotal: r.UserRatingsTotal,
		Rating:           r.Rating,
		Vicinity:         r.Vicinity,
	}
}

func componentByType(components []addressComponent, typ string) string {
	for _, c := range components {
		for _, t := range c.Types {
			if t == typ {
				return c.LongName
			}
		}
	}
	return ""
}

func geoContextFromResult(r geocodeResult) domain.GeoContext {
	city := componentByType(r.AddressComponents, "locality")
	if city == "" {
		city = componentByType(r.AddressComponents, "administrative_area_level_2")
	}
	state := componentByType(r.AddressComponents, "administrative_area_level_1")
	country := componentByType(r.AddressComponents, "country")

	// CityTier is resolved by the caller (ring engine) via rules.CityTiers,
	// which only has city-name keys and no business with this wire format.
	return domain.GeoContext{
		City:             city,
		State:            state,
		Country:          country,
		FormattedAddress: r.FormattedAddress,
	}
}
