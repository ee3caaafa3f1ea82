// Package rules holds the declarative configuration spec §9 asks to be kept
// out of compiled code: the noise-term list used by the Discover Engine's
// tokenizer, the place-type→group taxonomy used by the Place Normalizer, and
// the authority significance thresholds used by the Authority Detector. It
// is loaded from a JSON5 file and can be hot-reloaded via fsnotify so these
// can be tuned without a rebuild.
package rules

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/titanous/json5"

	"github.com/fazal-lab/xia/internal/domain"
)

// AuthorityType describes the significance/name-pattern rules for one
// authority-anchor category (spec §4.3).
type AuthorityType struct {
	Group              domain.PlaceGroup `json:"group"`
	PlaceTypes         []string          `json:"place_types"`
	ContextLabel       string            `json:"context_label"`
	SignificanceThresh int               `json:"significance_threshold"`
	NamePatterns       []string          `json:"name_patterns"`
	MajorThreshold     int               `json:"major_threshold,omitempty"` // Ring 1.5 "major anchor" threshold
}

// Rules is the full declarative configuration.
type Rules struct {
	// NoiseTerms are lowercased location-tokens stripped by the Discover
	// Engine's tokenizer (by default the Indian states/UTs plus "india").
	NoiseTerms []string `json:"noise_terms"`

	// GenericPlaceTypes are skipped entirely by the Place Normalizer's
	// type→group reverse index (spec §4.2).
	GenericPlaceTypes []string `json:"generic_place_types"`

	// PlaceGroups maps each raw provider place-type to the fixed PlaceGroup taxonomy.
	PlaceGroups map[string]domain.PlaceGroup `json:"place_groups"`

	// AuthorityTypes is the fixed table of standard anchors (spec §4.3 item 3).
	AuthorityTypes []AuthorityType `json:"authority_types"`

	// HospitalRatingThreshold gates the medical-institute override and
	// hospital-precedence rules (spec §4.3 items 1-2); both use 100.
	HospitalRatingThreshold int `json:"hospital_rating_threshold"`

	// MedicalNamePatterns are name-keyword fallbacks for the medical-institute override.
	MedicalNamePatterns []string `json:"medical_name_patterns"`

	// TransitNamePatterns match generic transit names during Ring 1.5 (spec §4.3 item 4).
	TransitNamePatterns []string `json:"transit_name_patterns"`
	TransitMinRating    int      `json:"transit_min_rating"`

	// CityTiers maps a city name (lowercased) to its tier; unmapped cities default to TIER_3.
	CityTiers map[string]domain.CityTier `json:"city_tiers"`

	// Movement keyword sets (spec §4.1 movement_context).
	HighwayKeywords    []string `json:"highway_keywords"`
	ArterialKeywords   []string `json:"arterial_keywords"`
	JunctionKeywords   []string `json:"junction_keywords"`
	PedestrianTypes    []string `json:"pedestrian_types"`

	// Dominance thresholds (spec §4.5).
	DominantThreshold     float64 `json:"dominant_threshold"`
	StrongBiasThreshold   float64 `json:"strong_bias_threshold"`
	ModerateBiasThreshold float64 `json:"moderate_bias_threshold"`
	WeakBiasThreshold     float64 `json:"weak_bias_threshold"`
	CoDominantSpread      float64 `json:"co_dominant_spread"`

	// Dwell weights per group, plus movement modifiers (spec §4.5).
	DwellGroupWeights   map[domain.PlaceGroup]float64    `json:"dwell_group_weights"`
	DwellMovementModifier map[domain.MovementType]float64 `json:"dwell_movement_modifier"`

	// Placeholder values stripped by the orchestrator (spec §4.12 step 1).
	// Wider than spec.md's illustrative list; carried over from the source's
	// _INVALID_PLACEHOLDERS set (SPEC_FULL.md supplemental feature 6).
	InvalidPlaceholders []string `json:"invalid_placeholders"`

	// Budget-interceptor keyword sets (spec §4.12 step 7).
	BudgetKeywords []string `json:"budget_keywords"`
	PriceKeywords  []string `json:"price_keywords"`

	// Gateway-edit rejection signals (spec §4.12 step 9).
	RejectionSignals []string `json:"rejection_signals"`
}

// Store holds a hot-swappable *Rules behind an atomic pointer.
type Store struct {
	v atomic.Pointer[Rules]
}

// NewStore loads rules from path (falling back to Default() if the file is
// absent) and, if watch is true, reloads on file change.
func NewStore(path string, watch bool) (*Store, error) {
	s := &Store{}
	r, err := load(path)
	if err != nil {
		return nil, err
	}
	s.v.Store(r)

	if watch && path != "" {
		if _, err := os.Stat(path); err == nil {
			go s.watch(path)
		}
	}
	return s, nil
}

// Get returns the current Rules snapshot.
func (s *Store) Get() *Rules { return s.v.Load() }

func (s *Store) watch(path string) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("rules.watch failed to start", "error", err)
		return
	}
	defer w.Close()
	if err := w.Add(path); err != nil {
		slog.Warn("rules.watch failed to add path", "path", path, "error", err)
		return
	}
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				r, err := load(path)
				if err != nil {
					slog.Warn("rules.reload failed", "error", err)
					continue
				}
				s.v.Store(r)
				slog.Info("rules.reloaded", "path", path)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("rules.watch error", "error", err)
		}
	}
}

func load(path string) (*Rules, error) {
	r := Default()
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, err
	}
	if err := json5.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

// MarshalDefault returns the default rules as indented JSON, useful for
// seeding a rules.json5 file for operators to tune.
func MarshalDefault() ([]byte, error) {
	return json.MarshalIndent(Default(), "", "  ")
}
