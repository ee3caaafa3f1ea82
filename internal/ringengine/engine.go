// Package ringengine implements the Ring Engine (spec §4.4, C4): the
// profiler pipeline that orchestrates reverse-geocoding and the concentric
// ring 1/1.5/2/3 searches into a single domain.AreaProfile. Grounded on
// original_source/backend/console/screen_profiler/google_maps_utils.py's
// profile_area orchestration function.
package ringengine

import (
	"context"
	"fmt"
	"time"

	"github.com/fazal-lab/xia/internal/authority"
	"github.com/fazal-lab/xia/internal/classify"
	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/maps"
	"github.com/fazal-lab/xia/internal/placenorm"
	"github.com/fazal-lab/xia/internal/rules"
)

const (
	ring1RadiusMeters = 75
	ring3RadiusMeters = 200
	baseRing2Radius   = 500
	ring2ExpandStep   = 300
	ring2MaxExpansions = 3
	ring2MaxRadius    = 1500
	minUniqueForRing2 = 15
)

var ring1_5Radii = []int{200, 400, 750}

var tierMultiplier = map[domain.CityTier]float64{
	domain.Tier1: 0.9,
	domain.Tier2: 1.0,
	domain.Tier3: 1.3,
}

// Engine wires the Maps Client, Place Normalizer and Authority Detector
// together to run the full ring pipeline.
type Engine struct {
	maps   *maps.Client
	norm   *placenorm.Normalizer
	auth   *authority.Detector
	rules  *rules.Rules
}

func New(mapsClient *maps.Client, r *rules.Rules) *Engine {
	return &Engine{
		maps:  mapsClient,
		norm:  placenorm.New(r),
		auth:  authority.New(r),
		rules: r,
	}
}

// Profile runs the complete ring 1 -> 1.5 -> 2 -> 3 pipeline for a
// coordinate and returns a fully composed AreaProfile, with reasoning steps
// and metadata (including version and computedAt) already populated; C6 may
// subsequently add an LLM enhancement on top of this rules-only result.
func (e *Engine) Profile(ctx context.Context, lat, lng float64) (*domain.AreaProfile, error) {
	start := time.Now()
	profile := &domain.AreaProfile{Latitude: lat, Longitude: lng}
	apiCalls := 0
	var reasoning []string

	geo, err := e.maps.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	apiCalls++
	geo.CityTier = e.cityTier(geo.City)
	profile.GeoContext = geo
	reasoning = append(reasoning, fmt.Sprintf("Resolved location to %s (%s tier)", geo.City, geo.CityTier))

	ring1Places, err := e.maps.PlacesNearby(ctx, lat, lng, ring1RadiusMeters, "")
	if err != nil {
		return nil, err
	}
	apiCalls++
	ring1Deduped := e.norm.Dedupe(ring1Places, 5, 0.85)
	ring1Anchor, ring1Rejections := e.auth.Detect(ring1Deduped, false)
	ring1Analysis := &domain.RingAnalysis{
		RadiusMeters: ring1RadiusMeters,
		UniqueCount:  len(ring1Deduped),
		Anchor:       ring1Anchor,
		Rejected:     ring1Rejections,
	}
	profile.RingAnalysis.Ring1 = ring1Analysis
	if ring1Anchor != nil {
		reasoning = append(reasoning, fmt.Sprintf("Ring 1 (%dm): authority anchor found - %s (%s)", ring1RadiusMeters, ring1Anchor.Source.Name, ring1Anchor.ContextLabel))
	} else {
		reasoning = append(reasoning, fmt.Sprintf("Ring 1 (%dm): %d places, no authority anchor", ring1RadiusMeters, len(ring1Deduped)))
		for _, rej := range ring1Rejections {
			reasoning = append(reasoning, fmt.Sprintf("Ring 1 candidate rejected: %s (%s)", rej.Place.Name, rej.Reason))
		}
	}

	anchor := ring1Anchor
	var ring1_5Analysis *domain.RingAnalysis
	if anchor == nil {
		anchor, ring1_5Analysis, apiCalls, reasoning = e.runRing1_5(ctx, lat, lng, apiCalls, reasoning)
		profile.RingAnalysis.Ring1_5 = ring1_5Analysis
	}

	var ring2Analysis *domain.RingAnalysis
	var groupCounts map[domain.PlaceGroup]int
	var uniqueCount, expansionSteps int

	if anchor != nil && !anchor.Extended {
		ring2Analysis = &domain.RingAnalysis{Skipped: true, SkipReason: "ring1_authority_override"}
		reasoning = append(reasoning, "Ring 2 skipped: ring-1 authority override applies")
	} else {
		radius := int(float64(baseRing2Radius) * tierMultiplier[geo.CityTier])
		var places []domain.Place
		for step := 0; step <= ring2MaxExpansions; step++ {
			places, err = e.maps.PlacesNearby(ctx, lat, lng, radius, "")
			if err != nil {
				return nil, err
			}
			apiCalls++
			groupCounts, uniqueCount = e.norm.CountByGroup(places, true)
			if uniqueCount >= minUniqueForRing2 || step == ring2MaxExpansions || radius >= ring2MaxRadius {
				expansionSteps = step
				break
			}
			radius += ring2ExpandStep
			if radius > ring2MaxRadius {
				radius = ring2MaxRadius
			}
		}
		ring2Analysis = &domain.RingAnalysis{
			RadiusMeters:  radius,
			UniqueCount:   uniqueCount,
			GroupCounts:   groupCounts,
			Expanded:      expansionSteps > 0,
			ExpansionStep: expansionSteps,
		}
		reasoning = append(reasoning, fmt.Sprintf("Ring 2 (%dm, %d expansion(s)): %d unique places", radius, expansionSteps, uniqueCount))
	}
	profile.RingAnalysis.Ring2 = ring2Analysis

	ring3Places, err := e.maps.PlacesNearby(ctx, lat, lng, ring3RadiusMeters, "")
	if err != nil {
		return nil, err
	}
	apiCalls++
	movementType, movementContext := e.deriveMovement(ctx, lat, lng, geo, ring3Places)
	profile.RingAnalysis.Ring3 = &domain.RingAnalysis{RadiusMeters: ring3RadiusMeters, UniqueCount: len(ring3Places)}
	profile.Movement = domain.Movement{Type: movementType, Context: movementContext}
	reasoning = append(reasoning, fmt.Sprintf("Ring 3 (%dm): movement classified as %s", ring3RadiusMeters, movementType))

	var classifyAnchor *domain.AuthorityAnchor
	if anchor != nil && !anchor.Extended {
		classifyAnchor = anchor
	}
	result := classify.Classify(groupCounts, uniqueCount, expansionSteps, classifyAnchor, e.rules)
	if anchor != nil && anchor.Extended {
		result.Context = fmt.Sprintf("Near %s (Local: %s)", anchor.ContextLabel, result.Context)
		reasoning = append(reasoning, fmt.Sprintf("Ring 1.5 extended anchor rewrote context: %s", result.Context))
	}

	profile.Area = domain.AreaBlock{
		PrimaryType:          result.PrimaryType,
		Context:              result.Context,
		Confidence:           result.Confidence,
		ClassificationDetail: result.ClassificationDetail,
		DominantGroup:        result.DominantGroup,
	}
	profile.DominanceRatio = result.DominanceRatio

	dwellCategory, dwellConfidence, dwellScore := classify.Dwell(groupCounts, uniqueCount, classifyAnchor, movementType, e.rules)
	profile.DwellCategory = dwellCategory
	profile.DwellConfidence = dwellConfidence
	profile.DwellScore = dwellScore

	profile.Reasoning = reasoning
	profile.Metadata = domain.ProfileMetadata{
		ComputedAt:       time.Now(),
		APICallsMade:     apiCalls,
		Cached:           false,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		APIKeyConfigured: e.maps.Enabled(),
		Version:          "1.0",
	}
	profile.FinalizeAliases()

	return profile, nil
}

func (e *Engine) cityTier(city string) domain.CityTier {
	if tier, ok := e.rules.CityTiers[lower(city)]; ok {
		return tier
	}
	return domain.Tier3
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// runRing1_5 implements spec §4.3's extended-anchor search: tiered radii
// [200, 400, 750]m, stopping at the first hit, accumulating unique places
// seen so far across radii for the authority detector's significance check.
func (e *Engine) runRing1_5(ctx context.Context, lat, lng float64, apiCalls int, reasoning []string) (*domain.AuthorityAnchor, *domain.RingAnalysis, int, []string) {
	var accumulated []domain.Place
	for _, radius := range ring1_5Radii {
		places, err := e.maps.PlacesNearby(ctx, lat, lng, radius, "")
		apiCalls++
		if err != nil {
			reasoning = append(reasoning, fmt.Sprintf("Ring 1.5 (%dm): search failed, continuing", radius))
			continue
		}
		accumulated = append(accumulated, places...)
		deduped := e.norm.Dedupe(accumulated, 5, 0.85)
		anchor, _ := e.auth.Detect(deduped, true)
		if anchor != nil {
			reasoning = append(reasoning, fmt.Sprintf("Ring 1.5 (%dm): extended authority anchor found - %s", radius, anchor.ContextLabel))
			analysis := &domain.RingAnalysis{RadiusMeters: radius, UniqueCount: len(deduped), Anchor: anchor, Expanded: true}
			return anchor, analysis, apiCalls, reasoning
		}
	}
	reasoning = append(reasoning, "Ring 1.5: no extended authority anchor found at any radius")
	return nil, &domain.RingAnalysis{RadiusMeters: ring1_5Radii[len(ring1_5Radii)-1], UniqueCount: len(accumulated), Skipped: true, SkipReason: "no_extended_anchor"}, apiCalls, reasoning
}

// deriveMovement maps domain.MovementSignals (from maps.MovementContext)
// onto the four-value MovementType enum per spec §4.1/§4.4: pedestrian
// friendliness wins outright; otherwise junction presence plus road type
// separates stop-and-go from pass-by traffic.
func (e *Engine) deriveMovement(ctx context.Context, lat, lng float64, geo domain.GeoContext, ring3Places []domain.Place) (domain.MovementType, string) {
	roadType, nearJunction, pedestrianFriendly, err := e.maps.MovementContext(ctx, lat, lng, geo, e.rules)
	if err != nil {
		roadType = domain.RoadLocal
	}

	switch {
	case pedestrianFriendly:
		return domain.MovementPedestrian, "Pedestrian-friendly area with foot traffic"
	case nearJunction:
		return domain.MovementStopAndGo, "Near a junction or traffic signal"
	case roadType == domain.RoadHighway:
		return domain.MovementPassBy, "Adjacent to a highway or expressway"
	case roadType == domain.RoadArterial:
		return domain.MovementSlowFlow, "On an arterial road"
	default:
		return domain.MovementSlowFlow, "Local road traffic"
	}
}
