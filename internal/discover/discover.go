// Package discover implements the Discover Engine (spec §4.8, C8):
// location tokenization, inventory filtering by gateway + XIA filters +
// excludes + text search, and per-screen availability/budget tagging.
// Grounded on original_source/backend/xia/services/discover_service.py.
package discover

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/rules"
)

// InventoryStore is the narrow read-only collaborator C8 needs from the
// Screen Inventory Store: the discoverable screen set, each screen's
// bookings for availability math, and the stale-HOLD expiry side effect.
type InventoryStore interface {
	ListDiscoverable(ctx context.Context) ([]domain.Screen, error)
	ListBookings(ctx context.Context, screenID string) ([]domain.SlotBooking, error)
	ExpireStaleHolds(ctx context.Context, maxAge time.Duration) (int, error)
}

const staleHoldMaxAge = 10 * time.Minute

// Engine runs discover() against an InventoryStore. The text-search field
// list is supplied per call (Query.TextSearchFields, from xia.FilterMenu's
// narrower, correct set) so C8 and C7 never drift apart on what text_search
// actually matches.
type Engine struct {
	inventory InventoryStore
	rules     *rules.Rules
}

func New(inventory InventoryStore, r *rules.Rules) *Engine {
	return &Engine{inventory: inventory, rules: r}
}

// Query is the discover() input (spec §4.8's signature).
type Query struct {
	Locations  []string
	Start      time.Time
	End        time.Time
	Budget     float64
	XiaFilters map[string]any
	Excludes   map[string]any
	TextSearch string

	TextSearchFields []string // from xia.FilterMenu; the 6-field wired set
}

// ScreenResult wraps a discoverable screen with the availability/budget
// tagging the Discover Engine computes.
type ScreenResult struct {
	Screen            domain.Screen `json:"screen"`
	AvailableSlots    int           `json:"available_slots"`
	IsAvailable       bool          `json:"is_available"`
	UnavailableReason string        `json:"unavailable_reason,omitempty"`
	NextAvailableDate *time.Time    `json:"next_available_date,omitempty"`
	SlotsFreeing      int           `json:"slots_freeing,omitempty"`
	AvailableUntil    *time.Time    `json:"available_until,omitempty"`
	Warning           string        `json:"warning,omitempty"`
}

// Result is the discover() output (spec §4.8).
type Result struct {
	Query                   Query                  `json:"-"`
	TotalScreensFound       int                    `json:"total_screens_found"`
	AvailableScreens        int                    `json:"available_screens"`
	UnavailableScreens      int                    `json:"unavailable_screens"`
	Screens                 []ScreenResult         `json:"screens"`
	UnavailabilityBreakdown map[string]int         `json:"unavailability_breakdown"`
	NotAvailableLocations   []string               `json:"not_available_locations"`
}

// Discover implements spec §4.8's 13-step algorithm.
func (e *Engine) Discover(ctx context.Context, q Query) (Result, error) {
	// Step 1: validate dates.
	if !q.End.After(q.Start) {
		return Result{UnavailabilityBreakdown: map[string]int{}, NotAvailableLocations: q.Locations}, nil
	}

	// Step 2: num_days / daily_budget.
	numDays := q.End.Sub(q.Start).Hours() / 24
	if numDays < 1 {
		numDays = 1
	}
	dailyBudget := q.Budget / numDays

	// Step 3: auto-expire stale HOLDs.
	if e.inventory != nil {
		_, _ = e.inventory.ExpireStaleHolds(ctx, staleHoldMaxAge)
	}

	screens, err := e.inventory.ListDiscoverable(ctx)
	if err != nil {
		return Result{}, err
	}

	// Step 4: tokenize locations.
	tokens := tokenizeLocations(q.Locations, e.rules)

	// Step 5+6: location predicate + eligibility filter.
	matched := make([]domain.Screen, 0, len(screens))
	for _, s := range screens {
		if !s.Discoverable() {
			continue
		}
		if _, ok := matchesLocation(s, tokens); !ok {
			continue
		}
		matched = append(matched, s)
	}

	// Step 7+8: apply xia_filters then excludes.
	matched = applyFilters(matched, q.XiaFilters, false)
	matched = applyFilters(matched, q.Excludes, true)

	// Step 9: text_search disjunction.
	if q.TextSearch != "" {
		matched = applyTextSearch(matched, q.TextSearch, q.TextSearchFields)
	}

	// locationHits tracks which tokens matched a screen that survived every
	// filter (spec §4.8 step 13: "no token matched any returned screen"),
	// not just eligibility at step 5/6.
	locationHits := make(map[string]bool, len(tokens))
	for _, s := range matched {
		if tok, ok := matchesLocation(s, tokens); ok {
			locationHits[tok] = true
		}
	}

	// Steps 10-12: availability + budget tagging.
	results := make([]ScreenResult, 0, len(matched))
	breakdown := map[string]int{}
	available, unavailable := 0, 0
	for _, s := range matched {
		bookings, _ := e.inventory.ListBookings(ctx, s.ID)
		r := e.tagAvailability(s, bookings, q.Start, q.End, dailyBudget)
		if r.IsAvailable {
			available++
		} else {
			unavailable++
			breakdown[r.UnavailableReason]++
		}
		results = append(results, r)
	}

	// Step 13: not_available_locations.
	var notAvailable []string
	for _, loc := range q.Locations {
		found := false
		for tok := range locationHits {
			if strings.Contains(strings.ToLower(loc), tok) {
				found = true
				break
			}
		}
		if !found {
			notAvailable = append(notAvailable, loc)
		}
	}

	return Result{
		Query:                   q,
		TotalScreensFound:       len(matched),
		AvailableScreens:        available,
		UnavailableScreens:      unavailable,
		Screens:                 results,
		UnavailabilityBreakdown: breakdown,
		NotAvailableLocations:   notAvailable,
	}, nil
}

var digitRunRe = regexp.MustCompile(`\d{3,}`)

// tokenizeLocations implements spec §4.8 step 4: split on commas, strip
// pin-code-like digit runs, drop state/UT noise terms; fall back to the raw
// strings if every token is dropped.
func tokenizeLocations(locations []string, r *rules.Rules) []string {
	noise := make(map[string]bool, len(r.NoiseTerms))
	for _, n := range r.NoiseTerms {
		noise[n] = true
	}

	var tokens []string
	for _, loc := range locations {
		for _, part := range strings.Split(loc, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			part = digitRunRe.ReplaceAllString(part, "")
			part = strings.TrimSpace(part)
			if part == "" || noise[part] {
				continue
			}
			tokens = append(tokens, part)
		}
	}
	if len(tokens) == 0 {
		for _, loc := range locations {
			if t := strings.ToLower(strings.TrimSpace(loc)); t != "" {
				tokens = append(tokens, t)
			}
		}
	}
	return tokens
}

// matchesLocation implements spec §4.8 step 5: case-insensitive substring
// match against the five location fields. Returns the token that matched.
func matchesLocation(s domain.Screen, tokens []string) (string, bool) {
	if len(tokens) == 0 {
		return "", true
	}
	haystacks := []string{
		strings.ToLower(s.SpecCity),
		strings.ToLower(s.SpecFullAddress),
		strings.ToLower(s.SpecNearestLandmark),
		strings.ToLower(s.Profile.GeoContext.FormattedAddress),
		strings.ToLower(s.Profile.GeoContext.City),
	}
	for _, tok := range tokens {
		for _, h := range haystacks {
			if h != "" && strings.Contains(h, tok) {
				return tok, true
			}
		}
	}
	return "", false
}

// applyFilters implements spec §4.8 steps 7/8: enum-list OR, scalar
// equality, numeric-operator matching. negate inverts the predicate for
// excludes. Unknown fields are ignored; no log entry is written for them.
func applyFilters(screens []domain.Screen, filters map[string]any, negate bool) []domain.Screen {
	if len(filters) == 0 {
		return screens
	}
	out := make([]domain.Screen, 0, len(screens))
	for _, s := range screens {
		keep := true
		for field, value := range filters {
			if _, numeric := numericFieldValue(s, field); !numeric {
				switch field {
				case "spec_city", "environment", "technology", "orientation", "area.primaryType", "movement.type", "dwellCategory":
				default:
					continue
				}
			}
			matched := fieldMatches(s, field, value)
			if negate {
				matched = !matched
			}
			if !matched {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, s)
		}
	}
	return out
}

func fieldMatches(s domain.Screen, field string, value any) bool {
	switch v := value.(type) {
	case []string:
		for _, item := range v {
			if scalarFieldMatches(s, field, item) {
				return true
			}
		}
		return false
	case []any:
		for _, item := range v {
			if fmtStr, ok := item.(string); ok && scalarFieldMatches(s, field, fmtStr) {
				return true
			}
		}
		return false
	case domain.NumericFilter:
		return numericFieldMatches(s, field, v)
	case string:
		return scalarFieldMatches(s, field, v)
	default:
		return false
	}
}

func scalarFieldMatches(s domain.Screen, field, value string) bool {
	actual := stringFieldValue(s, field)
	if field == "spec_city" {
		return strings.EqualFold(actual, value)
	}
	return actual == value
}

func stringFieldValue(s domain.Screen, field string) string {
	switch field {
	case "spec_city":
		return s.SpecCity
	case "environment":
		return s.Environment
	case "technology":
		return s.Technology
	case "orientation":
		return s.Orientation
	case "area.primaryType":
		return string(s.Profile.Area.PrimaryType)
	case "movement.type":
		return string(s.Profile.Movement.Type)
	case "dwellCategory":
		return string(s.Profile.DwellCategory)
	default:
		return ""
	}
}

func numericFieldValue(s domain.Screen, field string) (float64, bool) {
	switch field {
	case "base_price_per_slot_inr":
		return s.BasePricePerSlotINR, true
	case "brightness_nits":
		return float64(s.BrightnessNits), true
	case "screen_width":
		return s.ScreenWidth, true
	case "screen_height":
		return s.ScreenHeight, true
	case "standard_ad_duration_sec":
		return float64(s.StandardAdDurationSec), true
	case "loop_length_sec":
		return float64(s.LoopLengthSec), true
	default:
		return 0, false
	}
}

func numericFieldMatches(s domain.Screen, field string, f domain.NumericFilter) bool {
	actual, ok := numericFieldValue(s, field)
	if !ok {
		return false
	}
	switch f.Operator {
	case domain.OpGt:
		return actual > f.Value
	case domain.OpLt:
		return actual < f.Value
	case domain.OpGte:
		return actual >= f.Value
	case domain.OpLte:
		return actual <= f.Value
	default: // OpEq
		return actual == f.Value
	}
}

// applyTextSearch implements spec §4.8 step 9: disjunction across the
// wired text fields.
func applyTextSearch(screens []domain.Screen, query string, fields []string) []domain.Screen {
	q := strings.ToLower(query)
	out := make([]domain.Screen, 0, len(screens))
	for _, s := range screens {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(textSearchFieldValue(s, f)), q) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func textSearchFieldValue(s domain.Screen, field string) string {
	switch field {
	case "screen_name":
		return s.Name
	case "company_name":
		return s.CompanyName
	case "spec_full_address":
		return s.SpecFullAddress
	case "spec_nearest_landmark":
		return s.SpecNearestLandmark
	case "profiled_full_address":
		return s.Profile.GeoContext.FormattedAddress
	case "area_context":
		return s.Profile.Area.Context
	default:
		return ""
	}
}

// tagAvailability implements spec §4.8 steps 10-12.
func (e *Engine) tagAvailability(s domain.Screen, bookings []domain.SlotBooking, start, end time.Time, dailyBudget float64) ScreenResult {
	reserved := 0
	var earliestOverlap *domain.SlotBooking
	for i := range bookings {
		b := bookings[i]
		if (b.Status == domain.BookingActive || b.Status == domain.BookingHold) && b.Overlaps(start, end) {
			reserved += b.NumSlots
			if earliestOverlap == nil || b.EndDate.Before(earliestOverlap.EndDate) {
				earliestOverlap = &bookings[i]
			}
		}
	}

	available := s.TotalSlotsPerLoop - s.ReservedSlots - reserved

	r := ScreenResult{Screen: s, AvailableSlots: available}
	switch {
	case available <= 0:
		r.IsAvailable = false
		r.UnavailableReason = "No slots available for the selected dates"
		if earliestOverlap != nil {
			nextDate := earliestOverlap.EndDate.AddDate(0, 0, 1)
			r.NextAvailableDate = &nextDate
			r.SlotsFreeing = earliestOverlap.NumSlots
		}
	case dailyBudget < s.BasePricePerSlotINR:
		r.IsAvailable = false
		r.UnavailableReason = "Exceeds budget"
	default:
		r.IsAvailable = true
	}

	if s.Status == domain.ScreenScheduledBlock && s.ScheduledBlockDate != nil {
		until := *s.ScheduledBlockDate
		r.AvailableUntil = &until
		if end.After(until) {
			r.Warning = "Requested end date extends beyond this screen's scheduled block date (" + until.Format("2006-01-02") + ")"
		}
	}

	return r
}
