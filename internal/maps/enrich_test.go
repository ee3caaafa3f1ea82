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

func TestEnrichPlaces_SortsByPriorityScore(t *testing.T) {
	r := rules.Default()
	places := []domain.Place{
		{ID: "cafe", Name: "Joe's Cafe", Types: []string{"cafe"}, UserRatingsTotal: 800},
		{ID: "hospital", Name: "City Hospital", Types: []string{"hospital"}, UserRatingsTotal: 50},
		{ID: "generic", Name: "Unnamed Spot", Types: []string{"establishment"}, UserRatingsTotal: 0},
	}
	c := New("", time.Hour, time.Hour) // disabled: no detail fetch, pure sort path
	out, err := c.EnrichPlaces(context.Background(), places, 5, 10, r)
	if err != nil {
		t.Fatalf("EnrichPlaces: %v", err)
	}
	if out[0].ID != "hospital" {
		t.Errorf("top place = %q, want hospital (authority-type bonus outranks rating)", out[0].ID)
	}
	if out[len(out)-1].ID != "generic" {
		t.Errorf("bottom place = %q, want generic (single generic type penalty)", out[len(out)-1].ID)
	}
}

func TestEnrichPlaces_EmptyInput(t *testing.T) {
	c := New("", time.Hour, time.Hour)
	out, err := c.EnrichPlaces(context.Background(), nil, 5, 0, rules.Default())
	if err != nil || len(out) != 0 {
		t.Errorf("got (%v, %v), want (empty, nil)", out, err)
	}
}

func TestEnrichPlaces_FetchesDetailsForTopNWhenEnabled(t *testing.T) {
	detailCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		detailCalls++
		var resp placeDetailsResponse
		resp.Result.EditorialSummary.Overview = "A great hospital"
		resp.Result.Rating = 4.5
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	r := rules.Default()
	places := []domain.Place{
		{ID: "hospital", Name: "City Hospital", Types: []string{"hospital"}, UserRatingsTotal: 50},
		{ID: "cafe", Name: "Joe's Cafe", Types: []string{"cafe"}, UserRatingsTotal: 10},
	}
	c := New("test-key", time.Hour, time.Hour, WithBaseURL(srv.URL))
	out, err := c.EnrichPlaces(context.Background(), places, 1, 0, r)
	if err != nil {
		t.Fatalf("EnrichPlaces: %v", err)
	}
	if out[0].EditorialSummary != "A great hospital" {
		t.Errorf("top place summary = %q, want enriched", out[0].EditorialSummary)
	}
	if out[1].EditorialSummary != "" {
		t.Error("expected only the top-1 place enriched (maxEnrichments=1)")
	}
	if detailCalls != 1 {
		t.Errorf("detail calls = %d, want 1", detailCalls)
	}
}
