// Package xia implements the Conversational Discovery Engine: the
// Understanding/Ranking/Response call pipeline (C9-C11), the Filter Menu
// (C7), the Discover Engine collaborator wiring, and the per-turn Session
// Orchestrator (C12). Grounded on the teacher's internal/providers call
// idiom and original_source/backend/xia/*.
package xia

import (
	"context"
	"sort"

	"github.com/fazal-lab/xia/internal/domain"
)

// ScreenLister is the narrow read-only view of the Screen Inventory Store
// the Filter Menu needs: every screen eligible for discovery, to compute
// live distinct-value enum statistics.
type ScreenLister interface {
	ListDiscoverable(ctx context.Context) ([]domain.Screen, error)
}

// NumericOperator is one of the operators a numeric filter field accepts.
type NumericOperator string

const (
	OpEq  NumericOperator = "eq"
	OpGt  NumericOperator = "gt"
	OpLt  NumericOperator = "lt"
	OpGte NumericOperator = "gte"
	OpLte NumericOperator = "lte"
)

var numericOperators = []NumericOperator{OpEq, OpGt, OpLt, OpGte, OpLte}

// NumericField describes a numeric filter field and its unit, for the menu
// payload Call-1 sees.
type NumericField struct {
	Name      string            `json:"name"`
	Unit      string            `json:"unit,omitempty"`
	Operators []NumericOperator `json:"operators"`
}

// numericFields is the static list from spec §4.7 (price, brightness,
// dimensions, durations).
var numericFields = []NumericField{
	{Name: "base_price_per_slot_inr", Unit: "INR", Operators: numericOperators},
	{Name: "brightness_nits", Unit: "nits", Operators: numericOperators},
	{Name: "screen_width", Unit: "ft", Operators: numericOperators},
	{Name: "screen_height", Unit: "ft", Operators: numericOperators},
	{Name: "standard_ad_duration_sec", Unit: "sec", Operators: numericOperators},
	{Name: "loop_length_sec", Unit: "sec", Operators: numericOperators},
}

// textSearchFields lists the columns the Discover Engine's OR-query (C8)
// actually searches against free text.
//
// The source material's filter_menu.py advertises 10 text-search fields,
// but its discover_service.py OR-query only ever searches 6 of them —
// profiled_city, profiled_state and movement_context are advertised there
// but never wired into the query. Advertising the unwired three here would
// make the menu lie to Call-1 about what text_search can actually match, so
// this list is the narrower, correct set C8 implements.
var textSearchFields = []string{
	"screen_name",
	"company_name",
	"spec_full_address",
	"spec_nearest_landmark",
	"profiled_full_address",
	"area_context",
}

// GatewayField describes a gateway-editable field, always requiring
// explicit user confirmation before it changes (spec §4.7/§4.12).
type GatewayField struct {
	Name               string `json:"name"`
	RequiresConfirmation bool `json:"requires_confirmation"`
}

var gatewayFields = []GatewayField{
	{Name: "locations", RequiresConfirmation: true},
	{Name: "start_date", RequiresConfirmation: true},
	{Name: "end_date", RequiresConfirmation: true},
	{Name: "budget_range", RequiresConfirmation: true},
}

// enumFieldNames is the fixed set of screen attributes whose distinct
// non-empty values are queried live from the inventory (spec §4.7).
var enumFieldNames = []string{
	"area.primaryType",
	"movement.type",
	"dwellCategory",
	"environment",
	"technology",
	"orientation",
	"spec_city",
}

// Menu is the full filter catalog Call-1's system prompt is built from.
type Menu struct {
	EnumFields       map[string][]string `json:"enum_fields"`
	NumericFields    []NumericField      `json:"numeric_fields"`
	TextSearchFields []string            `json:"text_search_fields"`
	GatewayFields    []GatewayField      `json:"gateway_fields"`
}

// FilterMenu builds the live filter catalog (C7).
type FilterMenu struct {
	screens ScreenLister
}

func NewFilterMenu(screens ScreenLister) *FilterMenu {
	return &FilterMenu{screens: screens}
}

// Build queries the inventory for distinct enum values and assembles the
// full menu. It never fails the turn: an inventory error yields an empty
// enum-fields map rather than blocking Call-1.
func (m *FilterMenu) Build(ctx context.Context) Menu {
	menu := Menu{
		EnumFields:       make(map[string][]string, len(enumFieldNames)),
		NumericFields:    numericFields,
		TextSearchFields: textSearchFields,
		GatewayFields:    gatewayFields,
	}

	screens, err := m.screens.ListDiscoverable(ctx)
	if err != nil {
		for _, f := range enumFieldNames {
			menu.EnumFields[f] = nil
		}
		return menu
	}

	for _, f := range enumFieldNames {
		menu.EnumFields[f] = distinctValues(screens, f)
	}
	return menu
}

func distinctValues(screens []domain.Screen, field string) []string {
	seen := make(map[string]bool)
	for _, s := range screens {
		v := enumValue(s, field)
		if v != "" {
			seen[v] = true
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func enumValue(s domain.Screen, field string) string {
	switch field {
	case "area.primaryType":
		return string(s.Profile.Area.PrimaryType)
	case "movement.type":
		return string(s.Profile.Movement.Type)
	case "dwellCategory":
		return string(s.Profile.DwellCategory)
	case "environment":
		return s.Environment
	case "technology":
		return s.Technology
	case "orientation":
		return s.Orientation
	case "spec_city":
		return s.SpecCity
	default:
		return ""
	}
}
