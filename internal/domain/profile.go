package domain

import "time"

// Confidence is the three-level confidence band used across the profiler.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MovementType classifies how traffic moves past a coordinate.
type MovementType string

const (
	MovementPedestrian MovementType = "PEDESTRIAN"
	MovementStopAndGo  MovementType = "STOP_AND_GO"
	MovementSlowFlow   MovementType = "SLOW_FLOW"
	MovementPassBy     MovementType = "PASS_BY"
)

// DwellCategory buckets how long an audience lingers near a screen.
type DwellCategory string

const (
	DwellLongWait   DwellCategory = "LONG_WAIT"
	DwellMediumWait DwellCategory = "MEDIUM_WAIT"
	DwellShortWait  DwellCategory = "SHORT_WAIT"
)

// CityTier is looked up from a static city->tier mapping.
type CityTier string

const (
	Tier1 CityTier = "TIER_1"
	Tier2 CityTier = "TIER_2"
	Tier3 CityTier = "TIER_3"
)

// GeoContext is the reverse-geocode result.
type GeoContext struct {
	City             string   `json:"city"`
	State            string   `json:"state"`
	Country          string   `json:"country"`
	CityTier         CityTier `json:"cityTier"`
	FormattedAddress string   `json:"formattedAddress"`
}

// AreaBlock is the classification result for the surrounding area.
type AreaBlock struct {
	PrimaryType        PlaceGroup `json:"primaryType"`
	Context            string     `json:"context"`
	Confidence         Confidence `json:"confidence"`
	ClassificationDetail string   `json:"classificationDetail"`
	DominantGroup      PlaceGroup `json:"dominantGroup"`
}

// Movement is the movement-context result.
type Movement struct {
	Type    MovementType `json:"type"`
	Context string       `json:"context"`
}

// RoadType classifies the road adjoining a coordinate.
type RoadType string

const (
	RoadHighway  RoadType = "highway"
	RoadArterial RoadType = "arterial"
	RoadLocal    RoadType = "local"
)

// MovementSignals are the raw inputs movement_context derives from.
type MovementSignals struct {
	RoadType          RoadType `json:"road_type"`
	NearJunction      bool     `json:"near_junction"`
	PedestrianFriendly bool    `json:"pedestrian_friendly"`
}

// RingAnalysis records the observations and decisions made at one ring.
type RingAnalysis struct {
	RadiusMeters  int                   `json:"radiusMeters"`
	UniqueCount   int                   `json:"uniqueCount"`
	GroupCounts   map[PlaceGroup]int    `json:"groupCounts,omitempty"`
	Skipped       bool                  `json:"skipped"`
	SkipReason    string                `json:"skipReason,omitempty"`
	Expanded      bool                  `json:"expanded,omitempty"`
	ExpansionStep int                   `json:"expansionStep,omitempty"`
	Anchor        *AuthorityAnchor      `json:"anchor,omitempty"`
	Rejected      []AuthorityRejection  `json:"rejected,omitempty"`
}

// ProfileMetadata carries the operational facts about how a profile was computed.
type ProfileMetadata struct {
	ComputedAt        time.Time `json:"computedAt"`
	APICallsMade      int       `json:"apiCallsMade"`
	Cached            bool      `json:"cached"`
	ProcessingTimeMs  int64     `json:"processingTimeMs"`
	APIKeyConfigured  bool      `json:"apiKeyConfigured"`
	Warnings          []string  `json:"warnings,omitempty"`
	Version           string    `json:"version"`
	LLMUsed           bool      `json:"-"`
	LLMReason         string    `json:"-"`
	LLMMode           string    `json:"-"`
	Error             string    `json:"-"`
}

// LLMEnhancement reports whether and why the LLM refinement path engaged.
type LLMEnhancement struct {
	Used   bool   `json:"used"`
	Reason string `json:"reason,omitempty"`
	Mode   string `json:"mode,omitempty"`
}

// AreaProfile is the canonical output of the Area Context Profiler (C1-C6).
// Its JSON shape is a stable external contract (spec §6).
type AreaProfile struct {
	Latitude  float64     `json:"-"`
	Longitude float64     `json:"-"`
	Coordinates Coordinates `json:"coordinates"`

	GeoContext GeoContext `json:"geoContext"`
	Area       AreaBlock  `json:"area"`
	Movement   Movement   `json:"movement"`

	DwellCategory   DwellCategory `json:"dwellCategory"`
	DwellConfidence float64       `json:"dwellConfidence"`
	DwellScore      float64       `json:"dwellScore"`

	DominanceRatio float64 `json:"dominanceRatio"`

	RingAnalysis struct {
		Ring1   *RingAnalysis `json:"ring1,omitempty"`
		Ring1_5 *RingAnalysis `json:"ring1_5,omitempty"`
		Ring2   *RingAnalysis `json:"ring2,omitempty"`
		Ring3   *RingAnalysis `json:"ring3,omitempty"`
	} `json:"ringAnalysis"`

	Reasoning      []string        `json:"reasoning"`
	LLMEnhancement LLMEnhancement  `json:"llmEnhancement"`
	Metadata       ProfileMetadata `json:"metadata"`

	// Top-level aliases preserved for backward compatibility (spec §6).
	PrimaryTypeAlias  PlaceGroup   `json:"primaryType"`
	AreaContextAlias  string       `json:"areaContext"`
	MovementTypeAlias MovementType `json:"movementType"`
}

// Coordinates is the lat/lng pair as the canonical JSON sub-object.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FinalizeAliases populates the backward-compatible top-level alias fields
// from the nested blocks. Call after the profile is fully assembled.
func (p *AreaProfile) FinalizeAliases() {
	p.PrimaryTypeAlias = p.Area.PrimaryType
	p.AreaContextAlias = p.Area.Context
	p.MovementTypeAlias = p.Movement.Type
	p.Coordinates = Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}
