package placenorm

import (
	"testing"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/rules"
)

func TestGroupOf(t *testing.T) {
	n := New(rules.Default())
	tests := []struct {
		name  string
		types []string
		want  domain.PlaceGroup
		found bool
	}{
		{"hospital", []string{"hospital"}, domain.GroupHealthcare, true},
		{"skips generic wrapper types", []string{"establishment", "point_of_interest", "restaurant"}, domain.GroupFoodBeverage, true},
		{"unknown type", []string{"nonsense_type"}, "", false},
		{"only generic types", []string{"establishment", "point_of_interest"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.GroupOf(domain.Place{Types: tt.types})
			if ok != tt.found || got != tt.want {
				t.Errorf("GroupOf(%v) = (%q, %v), want (%q, %v)", tt.types, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestDedupe_ByID(t *testing.T) {
	n := New(rules.Default())
	places := []domain.Place{
		{ID: "a", Name: "Alpha Cafe", Lat: 1, Lng: 1},
		{ID: "a", Name: "Alpha Cafe Duplicate Entry", Lat: 1, Lng: 1},
		{ID: "b", Name: "Beta Diner", Lat: 2, Lng: 2},
	}
	got := n.Dedupe(places, 5, 0.85)
	if len(got) != 2 {
		t.Fatalf("got %d places, want 2 (second 'a' id dropped)", len(got))
	}
}

func TestDedupe_ByNameSimilarityInSameBucket(t *testing.T) {
	n := New(rules.Default())
	places := []domain.Place{
		{ID: "a", Name: "Pvt Ltd Coffee House", Lat: 12.9716, Lng: 77.5946},
		{ID: "b", Name: "Coffee House", Lat: 12.971604, Lng: 77.594596},
		{ID: "c", Name: "Completely Different Bakery", Lat: 12.9716, Lng: 77.5946},
	}
	got := n.Dedupe(places, 5, 0.85)
	if len(got) != 2 {
		t.Fatalf("got %d places, want 2 (b dropped as a near-duplicate name of a in the same coord bucket)", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("kept ids = [%s %s], want [a c]", got[0].ID, got[1].ID)
	}
}

func TestDedupe_SameNameDifferentBucketKept(t *testing.T) {
	n := New(rules.Default())
	places := []domain.Place{
		{ID: "a", Name: "Corner Store", Lat: 1.00000, Lng: 1.00000},
		{ID: "b", Name: "Corner Store", Lat: 5.00000, Lng: 5.00000},
	}
	got := n.Dedupe(places, 5, 0.85)
	if len(got) != 2 {
		t.Errorf("got %d places, want 2 (different coord buckets never compared)", len(got))
	}
}

func TestCountByGroup(t *testing.T) {
	n := New(rules.Default())
	places := []domain.Place{
		{ID: "a", Name: "City Hospital", Types: []string{"hospital"}, Lat: 1, Lng: 1},
		{ID: "b", Name: "Metro Cafe", Types: []string{"cafe"}, Lat: 2, Lng: 2},
		{ID: "c", Name: "Unmapped Place", Types: []string{"nonsense_type"}, Lat: 3, Lng: 3},
	}
	counts, unique := n.CountByGroup(places, true)
	if unique != 3 {
		t.Errorf("unique = %d, want 3", unique)
	}
	if counts[domain.GroupHealthcare] != 1 || counts[domain.GroupFoodBeverage] != 1 {
		t.Errorf("counts = %+v, want healthcare=1 food_beverage=1", counts)
	}
	if len(counts) != 2 {
		t.Errorf("len(counts) = %d, want 2 (unmapped type contributes to unique count but no group)", len(counts))
	}
}

func TestNormalizeName_StripsLegalSuffixesAndPunctuation(t *testing.T) {
	got := normalizeName("Acme Retail Pvt. Ltd.")
	want := "acme retail"
	if got != want {
		t.Errorf("normalizeName() = %q, want %q", got, want)
	}
}

func TestLcsRatio_IdenticalAndEmpty(t *testing.T) {
	if r := lcsRatio("coffee house", "coffee house"); r != 1 {
		t.Errorf("identical strings: ratio = %v, want 1", r)
	}
	if r := lcsRatio("", "anything"); r != 0 {
		t.Errorf("empty string: ratio = %v, want 0", r)
	}
}
