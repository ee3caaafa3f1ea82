// Package placenorm implements the Place Normalizer (spec §4.2, C2):
// type->group reduction, coordinate+name dedup, and group counting. Grounded
// on original_source/backend/console/screen_profiler/google_maps_utils.py's
// `_dedupe_places`/`_group_for_place` helpers.
package placenorm

import (
	"math"
	"regexp"
	"strings"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/rules"
)

// Normalizer maps raw place-type tags to the fixed PlaceGroup taxonomy and
// deduplicates place lists, using a *rules.Rules snapshot it does not own.
type Normalizer struct {
	r *rules.Rules
}

func New(r *rules.Rules) *Normalizer { return &Normalizer{r: r} }

// GroupOf returns the PlaceGroup a place reduces to, or ("", false) if none
// of its types (after skipping generic POI types) map to a known group. When
// more than one type maps to a group, domain.GroupPriority breaks the tie.
func (n *Normalizer) GroupOf(p domain.Place) (domain.PlaceGroup, bool) {
	generic := make(map[string]bool, len(n.r.GenericPlaceTypes))
	for _, t := range n.r.GenericPlaceTypes {
		generic[t] = true
	}

	best := domain.PlaceGroup("")
	bestRank := len(domain.GroupPriority) + 1
	found := false
	for _, t := range p.Types {
		if generic[t] {
			continue
		}
		g, ok := n.r.PlaceGroups[t]
		if !ok {
			continue
		}
		if rank := domain.GroupRank(g); rank < bestRank {
			best, bestRank, found = g, rank, true
		}
	}
	return best, found
}

var (
	punctuationRe = regexp.MustCompile(`[^\w\s]`)
	suffixRe      = regexp.MustCompile(`\b(pvt\.?|ltd\.?|limited|private|inc\.?|llc|co\.?)\b`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

// normalizeName lowercases, strips punctuation and common legal suffixes,
// and collapses whitespace, for name-similarity comparison.
func normalizeName(name string) string {
	s := strings.ToLower(name)
	s = punctuationRe.ReplaceAllString(s, " ")
	s = suffixRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// lcsRatio returns the longest-common-subsequence length of a and b divided
// by the length of the longer string, used as the name-similarity score.
func lcsRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	lcs := prev[lb]
	longer := math.Max(float64(la), float64(lb))
	return float64(lcs) / longer
}

func roundCoord(v float64, precision int) float64 {
	m := math.Pow(10, float64(precision))
	return math.Round(v*m) / m
}

func coordKey(lat, lng float64, precision int) [2]float64 {
	return [2]float64{roundCoord(lat, precision), roundCoord(lng, precision)}
}

// Dedupe implements spec §4.2: (1) unique by place id, (2) among places
// sharing a rounded-coordinate bucket, drop any whose normalized name is
// >=nameSimilarity similar (LCS ratio) to an already-kept name in that
// bucket. Input order is preserved for kept places (first occurrence wins),
// matching the source's stable iteration.
func (n *Normalizer) Dedupe(places []domain.Place, coordPrecision int, nameSimilarity float64) []domain.Place {
	seenIDs := make(map[string]bool, len(places))
	var byID []domain.Place
	for _, p := range places {
		if p.ID != "" && seenIDs[p.ID] {
			continue
		}
		if p.ID != "" {
			seenIDs[p.ID] = true
		}
		byID = append(byID, p)
	}

	bucketed := make(map[[2]float64][]string) // normalized names kept per coord bucket
	var out []domain.Place
	for _, p := range byID {
		key := coordKey(p.Lat, p.Lng, coordPrecision)
		norm := normalizeName(p.Name)
		dup := false
		for _, kept := range bucketed[key] {
			if lcsRatio(norm, kept) >= nameSimilarity {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		bucketed[key] = append(bucketed[key], norm)
		out = append(out, p)
	}
	return out
}

// CountByGroup tallies deduplicated (or raw, if dedupe=false) places by
// their normalized group, returning the counts map and the unique place
// count the ratios in classify.Classify should divide by.
func (n *Normalizer) CountByGroup(places []domain.Place, dedupe bool) (map[domain.PlaceGroup]int, int) {
	working := places
	if dedupe {
		working = n.Dedupe(places, 5, 0.85)
	}
	counts := make(map[domain.PlaceGroup]int)
	for _, p := range working {
		if g, ok := n.GroupOf(p); ok {
			counts[g]++
		}
	}
	return counts, len(working)
}
