package discover

import (
	"context"
	"testing"
	"time"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/rules"
)

type fakeInventory struct {
	screens       []domain.Screen
	bookings      map[string][]domain.SlotBooking
	expireCalls   int
	expireReturns int
}

func (f *fakeInventory) ListDiscoverable(ctx context.Context) ([]domain.Screen, error) {
	var out []domain.Screen
	for _, s := range f.screens {
		if s.Discoverable() {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeInventory) ListBookings(ctx context.Context, screenID string) ([]domain.SlotBooking, error) {
	return f.bookings[screenID], nil
}

func (f *fakeInventory) ExpireStaleHolds(ctx context.Context, maxAge time.Duration) (int, error) {
	f.expireCalls++
	return f.expireReturns, nil
}

func baseScreen(id, city string, totalSlots int) domain.Screen {
	return domain.Screen{
		ID:                  id,
		Name:                "Screen " + id,
		CompanyName:         "Acme Media",
		SpecCity:            city,
		SpecFullAddress:     city + " Main Road",
		TotalSlotsPerLoop:   totalSlots,
		BasePricePerSlotINR: 100,
		Status:              domain.ScreenVerified,
		ProfileStatus:       domain.ProfileProfiled,
	}
}

func TestDiscover_InvalidDateRange(t *testing.T) {
	e := New(&fakeInventory{}, rules.Default())
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := start // not after start
	result, err := e.Discover(context.Background(), Query{Locations: []string{"Mumbai"}, Start: start, End: end})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.NotAvailableLocations) != 1 || result.NotAvailableLocations[0] != "Mumbai" {
		t.Errorf("got %+v, want all locations marked not available", result)
	}
	if result.TotalScreensFound != 0 {
		t.Errorf("total_screens_found = %d, want 0", result.TotalScreensFound)
	}
}

func TestDiscover_LocationMatchAndAvailability(t *testing.T) {
	screens := []domain.Screen{
		baseScreen("s1", "Mumbai", 10),
		baseScreen("s2", "Delhi", 10),
	}
	inv := &fakeInventory{screens: screens, bookings: map[string][]domain.SlotBooking{}}
	e := New(inv, rules.Default())

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)
	result, err := e.Discover(context.Background(), Query{Locations: []string{"Mumbai"}, Start: start, End: end, Budget: 10000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalScreensFound != 1 {
		t.Fatalf("total_screens_found = %d, want 1", result.TotalScreensFound)
	}
	if result.Screens[0].Screen.ID != "s1" {
		t.Errorf("matched screen = %q, want s1", result.Screens[0].Screen.ID)
	}
	if !result.Screens[0].IsAvailable {
		t.Errorf("expected s1 to be available: %+v", result.Screens[0])
	}
	if inv.expireCalls != 1 {
		t.Errorf("expire calls = %d, want 1 (stale-hold sweep must run before every availability read)", inv.expireCalls)
	}
}

func TestDiscover_NoSlotsAvailable(t *testing.T) {
	screen := baseScreen("s1", "Pune", 5)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)
	booking := domain.SlotBooking{
		ID: "b1", ScreenID: "s1", NumSlots: 5,
		StartDate: start, EndDate: end.AddDate(0, 0, 2),
		Source: domain.BookingSourcePartner, Status: domain.BookingActive, Payment: domain.PaymentPaid,
	}
	inv := &fakeInventory{screens: []domain.Screen{screen}, bookings: map[string][]domain.SlotBooking{"s1": {booking}}}
	e := New(inv, rules.Default())

	result, err := e.Discover(context.Background(), Query{Locations: []string{"Pune"}, Start: start, End: end, Budget: 10000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sr := result.Screens[0]
	if sr.IsAvailable {
		t.Fatalf("expected unavailable: %+v", sr)
	}
	if sr.UnavailableReason != "No slots available for the selected dates" {
		t.Errorf("reason = %q", sr.UnavailableReason)
	}
	if sr.NextAvailableDate == nil {
		t.Error("expected a next-available-date hint derived from the overlapping booking")
	}
}

func TestDiscover_ExceedsBudget(t *testing.T) {
	screen := baseScreen("s1", "Chennai", 10)
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC) // 1 day
	inv := &fakeInventory{screens: []domain.Screen{screen}, bookings: map[string][]domain.SlotBooking{}}
	e := New(inv, rules.Default())

	result, err := e.Discover(context.Background(), Query{Locations: []string{"Chennai"}, Start: start, End: end, Budget: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sr := result.Screens[0]
	if sr.IsAvailable {
		t.Fatal("expected unavailable due to budget")
	}
	if sr.UnavailableReason != "Exceeds budget" {
		t.Errorf("reason = %q, want Exceeds budget", sr.UnavailableReason)
	}
}

func TestDiscover_XiaFiltersAndExcludes(t *testing.T) {
	s1 := baseScreen("s1", "Mumbai", 10)
	s1.Environment = "Indoor"
	s2 := baseScreen("s2", "Mumbai", 10)
	s2.Environment = "Outdoor"
	inv := &fakeInventory{screens: []domain.Screen{s1, s2}, bookings: map[string][]domain.SlotBooking{}}
	e := New(inv, rules.Default())

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)

	result, err := e.Discover(context.Background(), Query{
		Locations:  []string{"Mumbai"},
		Start:      start, End: end, Budget: 10000,
		XiaFilters: map[string]any{"environment": "Indoor"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalScreensFound != 1 || result.Screens[0].Screen.ID != "s1" {
		t.Fatalf("xia_filters: got %+v, want only s1", result)
	}

	result, err = e.Discover(context.Background(), Query{
		Locations: []string{"Mumbai"},
		Start:     start, End: end, Budget: 10000,
		Excludes: map[string]any{"environment": "Indoor"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalScreensFound != 1 || result.Screens[0].Screen.ID != "s2" {
		t.Fatalf("excludes: got %+v, want only s2", result)
	}
}

// A location whose only eligible match gets dropped by xia_filters must
// still surface in not_available_locations: step 13 counts a location as
// hit only if one of the screens it matched also survived filtering
// (spec §4.8 step 13, "no token matched any returned screen").
func TestDiscover_NotAvailableLocations_CountsOnlyFinalResults(t *testing.T) {
	s1 := baseScreen("s1", "Mumbai", 10)
	s1.Environment = "Indoor"
	inv := &fakeInventory{screens: []domain.Screen{s1}, bookings: map[string][]domain.SlotBooking{}}
	e := New(inv, rules.Default())

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)

	result, err := e.Discover(context.Background(), Query{
		Locations:  []string{"Mumbai"},
		Start:      start, End: end, Budget: 10000,
		XiaFilters: map[string]any{"environment": "Outdoor"}, // s1 is Indoor, filtered out
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalScreensFound != 0 {
		t.Fatalf("total_screens_found = %d, want 0 (s1 filtered by xia_filters)", result.TotalScreensFound)
	}
	if len(result.NotAvailableLocations) != 1 || result.NotAvailableLocations[0] != "Mumbai" {
		t.Errorf("not_available_locations = %v, want [Mumbai] (its only match was filtered out of the final result set)", result.NotAvailableLocations)
	}
}

func TestDiscover_TextSearchUsesWiredFieldsOnly(t *testing.T) {
	s1 := baseScreen("s1", "Mumbai", 10)
	s1.Name = "Bandra Highway Billboard"
	inv := &fakeInventory{screens: []domain.Screen{s1}, bookings: map[string][]domain.SlotBooking{}}
	e := New(inv, rules.Default())

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 8, 0, 0, 0, 0, time.UTC)
	result, err := e.Discover(context.Background(), Query{
		Locations: []string{"Mumbai"}, Start: start, End: end, Budget: 10000,
		TextSearch:       "bandra",
		TextSearchFields: []string{"screen_name"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalScreensFound != 1 {
		t.Fatalf("expected text search to match screen_name, got %+v", result)
	}

	result, err = e.Discover(context.Background(), Query{
		Locations: []string{"Mumbai"}, Start: start, End: end, Budget: 10000,
		TextSearch:       "bandra",
		TextSearchFields: []string{"company_name"}, // doesn't contain "bandra"
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalScreensFound != 0 {
		t.Fatalf("expected no match when field list excludes screen_name, got %+v", result)
	}
}

func TestTokenizeLocations_StripsNoiseAndPinCodes(t *testing.T) {
	r := rules.Default()
	tokens := tokenizeLocations([]string{"Andheri, Maharashtra, 400053"}, r)
	if len(tokens) != 1 || tokens[0] != "andheri" {
		t.Errorf("tokens = %v, want [andheri] (state name and pin code stripped)", tokens)
	}
}

func TestTokenizeLocations_FallsBackWhenAllNoise(t *testing.T) {
	r := rules.Default()
	tokens := tokenizeLocations([]string{"Maharashtra"}, r)
	if len(tokens) != 1 || tokens[0] != "maharashtra" {
		t.Errorf("tokens = %v, want the raw location preserved when every token is noise", tokens)
	}
}
