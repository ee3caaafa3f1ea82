package maps

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/rules"
)

// EnrichPlaces implements spec §4.1's enrich_places: scores every place by a
// priority heuristic (authority-type bonus, name-keyword bonus, capped
// rating-count bonus, density bonus, false-positive penalty) and fetches
// place-details (editorial summary) for the top maxEnrichments. ring1Count
// feeds the density bonus so a crowded ring scores differently than a sparse
// one. Non-network: the priority scoring itself needs no API call; only the
// top-N detail fetch does, and is skipped entirely when the client has no key.
func (c *Client) EnrichPlaces(ctx context.Context, places []domain.Place, maxEnrichments, ring1Count int, r *rules.Rules) ([]domain.Place, error) {
	if len(places) == 0 {
		return places, nil
	}

	type scored struct {
		place domain.Place
		score float64
	}
	scores := make([]scored, len(places))
	for i, p := range places {
		scores[i] = scored{place: p, score: priorityScore(p, ring1Count, r)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	out := make([]domain.Place, len(places))
	for i, s := range scores {
		out[i] = s.place
	}

	if !c.Enabled() {
		return out, nil
	}

	n := maxEnrichments
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		detail, err := c.placeDetails(ctx, out[i].ID)
		if err != nil {
			continue // enrichment is best-effort; a failed detail fetch keeps the base place
		}
		out[i].EditorialSummary = detail.EditorialSummary
		if detail.Rating > 0 {
			out[i].Rating = detail.Rating
		}
	}
	return out, nil
}

// priorityScore combines the signals spec §4.1 names for enrichment
// selection. An authority-type match adds 50 per matching type and a name
// pattern 10 each, while the rating bonus is capped at 50 (500+ ratings), so
// a single type match scores the same as a place with 500+ ratings.
func priorityScore(p domain.Place, ring1Count int, r *rules.Rules) float64 {
	var score float64

	typeSet := make(map[string]bool, len(p.Types))
	for _, t := range p.Types {
		typeSet[t] = true
	}
	for _, at := range r.AuthorityTypes {
		for _, t := range at.PlaceTypes {
			if typeSet[t] {
				score += 50
			}
		}
	}

	lowerName := strings.ToLower(p.Name)
	for _, at := range r.AuthorityTypes {
		for _, pat := range at.NamePatterns {
			if strings.Contains(lowerName, pat) {
				score += 10
			}
		}
	}

	ratingBonus := p.UserRatingsTotal
	if ratingBonus > 500 {
		ratingBonus = 500
	}
	score += float64(ratingBonus) / 10

	if ring1Count > 0 {
		score += 5 // ring1 non-empty: enriching ring1 context places is higher value
	}

	for _, noise := range r.GenericPlaceTypes {
		if typeSet[noise] && len(p.Types) == 1 {
			score -= 20 // a place with only a generic type is a weak signal
		}
	}

	return score
}

type placeDetailsResponse struct {
	Result struct {
		EditorialSummary struct {
			Overview string `json:"overview"`
		} `json:"editorial_summary"`
		Rating float64 `json:"rating"`
	} `json:"result"`
	Status string `json:"status"`
}

type placeDetail struct {
	EditorialSummary string
	Rating           float64
}

func (c *Client) placeDetails(ctx context.Context, placeID string) (placeDetail, error) {
	var out placeDetail
	if placeID == "" {
		return out, nil
	}

	key := "details:" + placeID
	if cached, ok := c.cache.Get(key); ok {
		var d placeDetail
		if err := json.Unmarshal([]byte(cached), &d); err == nil {
			return d, nil
		}
	}

	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "editorial_summary,rating")
	q.Set("key", c.apiKey)

	var resp placeDetailsResponse
	if err := c.get(ctx, "/place/details/json", q, &resp); err != nil {
		return out, err
	}
	out.EditorialSummary = resp.Result.EditorialSummary.Overview
	out.Rating = resp.Result.Rating

	if b, err := json.Marshal(out); err == nil {
		c.cache.SetTTL(key, string(b), c.placesTTL)
	}
	return out, nil
}
