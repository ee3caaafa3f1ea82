package maps

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/rules"
)

func TestRoadTypeFromAddress(t *testing.T) {
	r := rules.Default()
	tests := []struct {
		address string
		want    domain.RoadType
	}{
		{"National Highway 48, Pune", domain.RoadHighway},
		{"123 Ring Road, Bangalore", domain.RoadArterial},
		{"45 Quiet Lane, Pune", domain.RoadLocal},
	}
	for _, tt := range tests {
		if got := roadTypeFromAddress(tt.address, r); got != tt.want {
			t.Errorf("roadTypeFromAddress(%q) = %q, want %q", tt.address, got, tt.want)
		}
	}
}

func TestMovementContext_DetectsJunctionAndPedestrian(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(placesNearbyResponse{
			Status: "OK",
			Results: []placeResult{
				{PlaceID: "a", Name: "Main Signal Junction", Types: []string{"point_of_interest"}},
				{PlaceID: "b", Name: "City Park", Types: []string{"park"}},
			},
		})
	}))
	defer srv.Close()

	c := New("test-key", time.Hour, time.Hour, WithBaseURL(srv.URL))
	r := rules.Default()
	roadType, nearJunction, pedestrianFriendly, err := c.MovementContext(context.Background(), 1, 1, domain.GeoContext{FormattedAddress: "Ring Road"}, r)
	if err != nil {
		t.Fatalf("MovementContext: %v", err)
	}
	if roadType != domain.RoadArterial {
		t.Errorf("road type = %q, want arterial", roadType)
	}
	if !nearJunction {
		t.Error("expected near-junction detected from name keyword")
	}
	if !pedestrianFriendly {
		t.Error("expected pedestrian-friendly detected from park type")
	}
}

func TestMovementContext_DisabledSkipsNearbyCall(t *testing.T) {
	c := New("", time.Hour, time.Hour)
	r := rules.Default()
	roadType, nearJunction, pedestrianFriendly, err := c.MovementContext(context.Background(), 1, 1, domain.GeoContext{FormattedAddress: "Local Lane"}, r)
	if err != nil {
		t.Fatalf("MovementContext: %v", err)
	}
	if roadType != domain.RoadLocal || nearJunction || pedestrianFriendly {
		t.Errorf("got (%q, %v, %v), want (local, false, false) when maps disabled", roadType, nearJunction, pedestrianFriendly)
	}
}
