package maps

import (
	"context"
	"strings"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/rules"
)

// MovementContext implements spec §4.1's movement_context: a keyword scan of
// the formatted address for road-type classification, plus a 200m nearby
// call checking for a traffic signal or pedestrian-friendly place types.
// geoCtx is the already-resolved reverse-geocode result (geoFull in the
// spec's naming); callers that already fetched it should pass it in to
// avoid a redundant geocode call.
func (c *Client) MovementContext(ctx context.Context, lat, lng float64, geoCtx domain.GeoContext, r *rules.Rules) (domain.RoadType, bool, bool, error) {
	roadType := roadTypeFromAddress(geoCtx.FormattedAddress, r)

	nearJunction := false
	pedestrianFriendly := false

	if c.Enabled() {
		nearby, err := c.PlacesNearby(ctx, lat, lng, 200, "")
		if err != nil {
			return roadType, nearJunction, pedestrianFriendly, err
		}
		pedestrianTypes := make(map[string]bool, len(r.PedestrianTypes))
		for _, t := range r.PedestrianTypes {
			pedestrianTypes[t] = true
		}
		for _, p := range nearby {
			lowerName := strings.ToLower(p.Name)
			for _, kw := range r.JunctionKeywords {
				if strings.Contains(lowerName, kw) {
					nearJunction = true
				}
			}
			for _, t := range p.Types {
				if t == "traffic_signal" {
					nearJunction = true
				}
				if pedestrianTypes[t] {
					pedestrianFriendly = true
				}
			}
		}
	}

	return roadType, nearJunction, pedestrianFriendly, nil
}

func roadTypeFromAddress(address string, r *rules.Rules) domain.RoadType {
	lower := strings.ToLower(address)
	for _, kw := range r.HighwayKeywords {
		if strings.Contains(lower, kw) {
			return domain.RoadHighway
		}
	}
	for _, kw := range r.ArterialKeywords {
		if strings.Contains(lower, kw) {
			return domain.RoadArterial
		}
	}
	return domain.RoadLocal
}
