// Package authority implements the Authority Detector (spec §4.3, C3):
// Ring 1 (@75m) and Ring 1.5 (@200/400/750m) anchor detection, significance
// and name-pattern validation, and the medical-institute/hospital
// precedence rules.
// Grounded on rules.AuthorityType and
// original_source/backend/console/screen_profiler/google_maps_utils.py's
// anchor-detection helpers.
package authority

import (
	"strings"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/rules"
)

// Detector evaluates places against the authority-type table to find the
// single most significant anchor, tracking every candidate it rejects.
type Detector struct {
	r *rules.Rules
}

func New(r *rules.Rules) *Detector { return &Detector{r: r} }

// Decision-order tiers (spec §4.3): a lower tier always outranks a higher
// one regardless of rating count; only candidates within the same tier are
// compared by rating.
const (
	tierMedicalInstitute = iota
	tierHospitalPrecedence
	tierStandard
)

// candidate pairs a matched anchor classification with the place it matched,
// the rating count used to judge significance, and its precedence tier.
type candidate struct {
	tier         int
	group        domain.PlaceGroup
	contextLabel string
	majorThresh  int
	place        domain.Place
	rating       int
}

var medicalInstituteEduTypes = map[string]bool{"university": true, "college": true}
var medicalInstituteHealthTypes = map[string]bool{"health": true, "hospital": true, "doctor": true}

// nameMatches reports whether the place name contains any of the given
// substrings, case-insensitively. An empty pattern list always fails; Detect's
// standard-anchor branch therefore skips the name check for authority types
// that have no patterns.
func nameMatches(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// isMedicalInstitute implements spec §4.3 step 1: a university/college type
// co-occurring with a health/hospital/doctor type, or a medical name
// pattern, takes precedence over plain hospital precedence and standard
// anchors.
func isMedicalInstitute(p domain.Place, r *rules.Rules) bool {
	typeSet := make(map[string]bool, len(p.Types))
	for _, t := range p.Types {
		typeSet[t] = true
	}
	hasEdu := false
	for t := range medicalInstituteEduTypes {
		if typeSet[t] {
			hasEdu = true
			break
		}
	}
	if !hasEdu {
		return false
	}
	for t := range medicalInstituteHealthTypes {
		if typeSet[t] {
			return true
		}
	}
	return nameMatches(p.Name, r.MedicalNamePatterns)
}

func isHospitalType(p domain.Place) bool {
	for _, t := range p.Types {
		if t == "hospital" {
			return true
		}
	}
	return false
}

// hospitalThreshold returns the standard anchor table's hospital
// significance threshold (100 by default), shared by the medical-institute
// override and plain hospital precedence (spec §4.3 steps 1-2).
func hospitalThreshold(r *rules.Rules) int {
	for _, at := range r.AuthorityTypes {
		for _, t := range at.PlaceTypes {
			if t == "hospital" {
				return at.SignificanceThresh
			}
		}
	}
	return 100
}

// matchStandardType returns the AuthorityType a place's types satisfy, if any.
func (d *Detector) matchStandardType(p domain.Place) (rules.AuthorityType, bool) {
	typeSet := make(map[string]bool, len(p.Types))
	for _, t := range p.Types {
		typeSet[t] = true
	}
	for _, at := range d.r.AuthorityTypes {
		for _, t := range at.PlaceTypes {
			if typeSet[t] {
				return at, true
			}
		}
	}
	return rules.AuthorityType{}, false
}

// Detect implements Ring 1/1.5 authority scanning over places (already
// restricted to the appropriate radius by the ring engine). extended marks
// Ring 1.5 detections (200/400/750m) so the caller can mark
// domain.AuthorityAnchor.Extended. It applies spec §4.3's decision order —
// medical institute override, then hospital precedence, then standard
// anchors — and returns the single strongest anchor across all tiers, plus
// the list of candidates that matched a type but failed significance or name
// validation.
func (d *Detector) Detect(places []domain.Place, extended bool) (*domain.AuthorityAnchor, []domain.AuthorityRejection) {
	var candidates []candidate
	var rejections []domain.AuthorityRejection

	hospitalThresh := hospitalThreshold(d.r)

	for _, p := range places {
		rating := p.UserRatingsTotal

		switch {
		case isMedicalInstitute(p, d.r):
			if rating < hospitalThresh {
				rejections = append(rejections, domain.AuthorityRejection{Place: p, Reason: "below_significance_threshold"})
				continue
			}
			candidates = append(candidates, candidate{
				tier: tierMedicalInstitute, group: domain.GroupHealthcare,
				contextLabel: "Medical Institute Zone", place: p, rating: rating,
			})
		case isHospitalType(p):
			if rating < hospitalThresh {
				rejections = append(rejections, domain.AuthorityRejection{Place: p, Reason: "below_significance_threshold"})
				continue
			}
			candidates = append(candidates, candidate{
				tier: tierHospitalPrecedence, group: domain.GroupHealthcare,
				contextLabel: "Hospital Entrance Zone", place: p, rating: rating,
			})
		default:
			at, ok := d.matchStandardType(p)
			if !ok {
				continue
			}
			if rating < at.SignificanceThresh {
				rejections = append(rejections, domain.AuthorityRejection{Place: p, Reason: "below_significance_threshold"})
				continue
			}
			// Name-pattern validation is only required below 2x the
			// threshold; at or above it the rating alone is sufficient
			// (spec §4.3 step 3).
			if rating < 2*at.SignificanceThresh && len(at.NamePatterns) > 0 && !nameMatches(p.Name, at.NamePatterns) {
				rejections = append(rejections, domain.AuthorityRejection{Place: p, Reason: "name_pattern_mismatch"})
				continue
			}
			candidates = append(candidates, candidate{
				tier: tierStandard, group: at.Group, contextLabel: at.ContextLabel,
				majorThresh: at.MajorThreshold, place: p, rating: rating,
			})
		}
	}

	if len(candidates) == 0 {
		return nil, rejections
	}

	best := pickBest(candidates)
	anchor := &domain.AuthorityAnchor{
		Group:        best.group,
		ContextLabel: best.contextLabel,
		Source:       best.place,
		RatingCount:  best.rating,
		Extended:     extended,
		Validation:   []string{validationLabel(best, d.r)},
	}
	return anchor, rejections
}

// pickBest returns the lowest-tier candidate, breaking ties within a tier by
// the highest rating count (spec §4.3's decision order: a medical-institute
// or hospital candidate always outranks a standard anchor, however highly
// rated).
func pickBest(candidates []candidate) candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.tier < best.tier || (c.tier == best.tier && c.rating > best.rating) {
			best = c
		}
	}
	return best
}

func validationLabel(c candidate, r *rules.Rules) string {
	if c.tier == tierMedicalInstitute {
		return "medical_override"
	}
	if c.tier == tierHospitalPrecedence && nameMatches(c.place.Name, r.MedicalNamePatterns) {
		return "medical_override"
	}
	if c.majorThresh > 0 && c.rating >= c.majorThresh {
		return "major_anchor"
	}
	return "standard_anchor"
}
