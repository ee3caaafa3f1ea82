// Package classify implements the Classification Engine (spec §4.5, C5):
// turning deduplicated place-group counts into a primary area type,
// classification detail, confidence band, dwell category and human-readable
// context. It is pure decision logic over internal/rules thresholds — no
// network calls, grounded on original_source/backend/console/screen_profiler
// zone classification helpers.
package classify

import (
	"fmt"
	"sort"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/rules"
)

// Result is the full output of Classify: everything the Ring Engine needs
// to populate domain.AreaBlock plus the dominance ratio it was derived from.
type Result struct {
	PrimaryType          domain.PlaceGroup
	DominantGroup        domain.PlaceGroup
	ClassificationDetail string
	Confidence           domain.Confidence
	Context              string
	DominanceRatio       float64
}

// groupShare is a (group, count, ratio) tuple sorted by count descending,
// used internally to find the top-1/top-2 groups.
type groupShare struct {
	group domain.PlaceGroup
	count int
	ratio float64
}

// Classify implements spec §4.5: dominance-ratio thresholds, authority
// override, and the MIXED/MIXED_BIASED detail codes. expansionSteps is the
// number of 300m ring-2 radius expansions applied (0 if none), used to
// discount the confidence band per spec §4.5 ("subtract 5 from the effective
// unique count for each 300m of ring-2 expansion beyond base").
func Classify(groupCounts map[domain.PlaceGroup]int, uniqueCount int, expansionSteps int, authority *domain.AuthorityAnchor, r *rules.Rules) Result {
	if authority != nil {
		return Result{
			PrimaryType:          authority.Group,
			DominantGroup:        authority.Group,
			ClassificationDetail: "AUTHORITY_OVERRIDE",
			Confidence:           authorityConfidence(authority, r),
			Context:              authorityContext(authority),
			DominanceRatio:       1.0,
		}
	}

	shares := sortedShares(groupCounts, uniqueCount)
	if len(shares) == 0 {
		return Result{
			PrimaryType:          domain.PlaceGroup("MIXED"),
			DominantGroup:        "",
			ClassificationDetail: "DIVERSE",
			Confidence:           domain.ConfidenceLow,
			Context:              "Diverse Commercial Hub",
			DominanceRatio:       0,
		}
	}

	top := shares[0]
	var second groupShare
	if len(shares) > 1 {
		second = shares[1]
	}

	var primary domain.PlaceGroup
	var detail string
	switch {
	case top.ratio >= r.DominantThreshold:
		primary, detail = top.group, "DOMINANT"
	case top.ratio >= r.StrongBiasThreshold:
		primary, detail = domain.PlaceGroup("MIXED_BIASED"), fmt.Sprintf("STRONG_BIAS_TOWARD_%s", top.group)
	case top.ratio >= r.ModerateBiasThreshold:
		primary, detail = domain.PlaceGroup("MIXED_BIASED"), fmt.Sprintf("MODERATE_BIAS_TOWARD_%s", top.group)
	case top.ratio >= r.WeakBiasThreshold:
		primary, detail = domain.PlaceGroup("MIXED"), fmt.Sprintf("WEAK_BIAS_TOWARD_%s", top.group)
	default:
		if second.group != "" && (top.ratio-second.ratio) < r.CoDominantSpread {
			primary, detail = domain.PlaceGroup("MIXED"), fmt.Sprintf("CO_DOMINANT_%s_%s", top.group, second.group)
		} else {
			primary, detail = domain.PlaceGroup("MIXED"), "DIVERSE"
		}
	}

	return Result{
		PrimaryType:          primary,
		DominantGroup:        top.group,
		ClassificationDetail: detail,
		Confidence:           confidenceBand(uniqueCount, len(shares), expansionSteps),
		Context:              humanContext(primary, detail, top.group),
		DominanceRatio:       top.ratio,
	}
}

func sortedShares(counts map[domain.PlaceGroup]int, unique int) []groupShare {
	if unique <= 0 {
		return nil
	}
	shares := make([]groupShare, 0, len(counts))
	for g, c := range counts {
		if c <= 0 {
			continue
		}
		shares = append(shares, groupShare{group: g, count: c, ratio: float64(c) / float64(unique)})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].count != shares[j].count {
			return shares[i].count > shares[j].count
		}
		return domain.GroupRank(shares[i].group) < domain.GroupRank(shares[j].group)
	})
	return shares
}

// confidenceBand implements spec §4.5: high at unique>=40 or groups>=8,
// medium at 20/5, else low; the effective unique count is discounted 5 per
// 300m of ring-2 expansion beyond the base radius.
func confidenceBand(unique, distinctGroups, expansionSteps int) domain.Confidence {
	effective := unique - 5*expansionSteps
	switch {
	case effective >= 40 || distinctGroups >= 8:
		return domain.ConfidenceHigh
	case effective >= 20 || distinctGroups >= 5:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// authorityConfidence yields 0.85-0.95 "by weight tier" per spec §4.5's
// dwell-confidence note, reused here for the area-classification confidence
// band: a well-established (non-extended) anchor with a high rating count is
// "high"; an extended-ring (1.5) or thin-rating anchor is "medium".
func authorityConfidence(a *domain.AuthorityAnchor, r *rules.Rules) domain.Confidence {
	if a.Extended {
		return domain.ConfidenceMedium
	}
	if a.RatingCount >= 2*r.HospitalRatingThreshold {
		return domain.ConfidenceHigh
	}
	return domain.ConfidenceMedium
}

func authorityContext(a *domain.AuthorityAnchor) string {
	return a.ContextLabel
}

// humanContext looks up the human-readable area context (spec §4.5: "fixed
// map" with MIXED_BIASED expansion forms), grounded on
// original_source/backend/console/screen_profiler zone-label helpers.
func humanContext(primary domain.PlaceGroup, detail string, base domain.PlaceGroup) string {
	if primary != domain.PlaceGroup("MIXED_BIASED") && primary != domain.PlaceGroup("MIXED") {
		if label, ok := primaryContextLabels[primary]; ok {
			return label
		}
		return string(primary)
	}

	switch {
	case hasPrefix(detail, "STRONG_BIAS_TOWARD_"):
		return fmt.Sprintf("Mixed Use (primarily %s)", humanGroupName(base))
	case hasPrefix(detail, "MODERATE_BIAS_TOWARD_"):
		return fmt.Sprintf("Mixed Use (leaning %s)", humanGroupName(base))
	case hasPrefix(detail, "WEAK_BIAS_TOWARD_"):
		return fmt.Sprintf("Diverse Mixed Use (slight %s)", humanGroupName(base))
	case hasPrefix(detail, "CO_DOMINANT_"):
		return "Diverse Commercial Hub"
	default:
		return "Diverse Commercial Hub"
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

var primaryContextLabels = map[domain.PlaceGroup]string{
	domain.GroupTransit:       "Transit Hub",
	domain.GroupHealthcare:    "Healthcare Zone",
	domain.GroupReligious:     "Religious/Cultural Zone",
	domain.GroupEducation:     "Education Zone",
	domain.GroupGovernment:    "Government/Civic Zone",
	domain.GroupFinance:       "Financial District",
	domain.GroupOffice:        "Business District",
	domain.GroupRetail:        "Retail/Shopping Zone",
	domain.GroupFoodBeverage:  "Food & Beverage Strip",
	domain.GroupEntertainment: "Entertainment Zone",
	domain.GroupSports:        "Sports/Recreation Zone",
	domain.GroupHospitality:   "Hospitality Zone",
	domain.GroupTourism:       "Tourist Zone",
	domain.GroupIndustrial:    "Industrial Zone",
	domain.GroupResidential:   "Residential Area",
}

var humanGroupNames = map[domain.PlaceGroup]string{
	domain.GroupTransit:       "Transit",
	domain.GroupHealthcare:    "Healthcare",
	domain.GroupReligious:     "Religious",
	domain.GroupEducation:     "Education",
	domain.GroupGovernment:    "Government",
	domain.GroupFinance:       "Finance",
	domain.GroupOffice:        "Office",
	domain.GroupRetail:        "Retail",
	domain.GroupFoodBeverage:  "Food & Beverage",
	domain.GroupEntertainment: "Entertainment",
	domain.GroupSports:        "Sports",
	domain.GroupHospitality:   "Hospitality",
	domain.GroupTourism:       "Tourism",
	domain.GroupIndustrial:    "Industrial",
	domain.GroupResidential:   "Residential",
}

func humanGroupName(g domain.PlaceGroup) string {
	if n, ok := humanGroupNames[g]; ok {
		return n
	}
	return string(g)
}

// Dwell implements spec §4.5's dwell computation: if an authority anchor is
// present, use only its group weight; otherwise weight-average the ring-2
// group shares. The movement modifier is added and the result clamped to
// [0,1]; category thresholds are 0.65/0.35.
func Dwell(groupCounts map[domain.PlaceGroup]int, uniqueCount int, authority *domain.AuthorityAnchor, movement domain.MovementType, r *rules.Rules) (domain.DwellCategory, float64, float64) {
	var base float64
	if authority != nil {
		base = r.DwellGroupWeights[authority.Group]
	} else {
		shares := sortedShares(groupCounts, uniqueCount)
		for _, s := range shares {
			base += r.DwellGroupWeights[s.group] * s.ratio
		}
	}

	score := base + r.DwellMovementModifier[movement]
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	var category domain.DwellCategory
	switch {
	case score >= 0.65:
		category = domain.DwellLongWait
	case score >= 0.35:
		category = domain.DwellMediumWait
	default:
		category = domain.DwellShortWait
	}

	var confidence float64
	if authority != nil {
		if authority.Extended {
			confidence = 0.85
		} else {
			confidence = 0.95
		}
	} else {
		confidence = float64(uniqueCount) / 25.0
		if confidence > 1 {
			confidence = 1
		}
	}

	return category, confidence, score
}
