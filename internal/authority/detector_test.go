package authority

import (
	"testing"

	"github.com/fazal-lab/xia/internal/domain"
	"github.com/fazal-lab/xia/internal/rules"
)

func TestDetect_NoMatch(t *testing.T) {
	d := New(rules.Default())
	places := []domain.Place{{Name: "Joe's Cafe", Types: []string{"cafe"}, UserRatingsTotal: 500}}
	anchor, rejections := d.Detect(places, false)
	if anchor != nil {
		t.Fatalf("got anchor %+v, want nil", anchor)
	}
	if len(rejections) != 0 {
		t.Errorf("got %d rejections, want 0 (type never matched an authority type)", len(rejections))
	}
}

func TestDetect_BelowSignificance(t *testing.T) {
	d := New(rules.Default())
	places := []domain.Place{{Name: "City General Hospital", Types: []string{"hospital"}, UserRatingsTotal: 10}}
	anchor, rejections := d.Detect(places, false)
	if anchor != nil {
		t.Fatalf("got anchor %+v, want nil (rating below significance threshold 100)", anchor)
	}
	if len(rejections) != 1 || rejections[0].Reason != "below_significance_threshold" {
		t.Errorf("rejections = %+v, want one below_significance_threshold", rejections)
	}
}

func TestDetect_NamePatternMismatch(t *testing.T) {
	// doctor's threshold is 50; at 80 (below 2x = 100) the name-pattern
	// check still applies, so a name with no clinic/medical keyword is
	// rejected.
	d := New(rules.Default())
	places := []domain.Place{{Name: "Dr. Smith Family Practice", Types: []string{"doctor"}, UserRatingsTotal: 80}}
	anchor, rejections := d.Detect(places, false)
	if anchor != nil {
		t.Fatalf("got anchor %+v, want nil (name has no clinic/medical pattern)", anchor)
	}
	if len(rejections) != 1 || rejections[0].Reason != "name_pattern_mismatch" {
		t.Errorf("rejections = %+v, want one name_pattern_mismatch", rejections)
	}
}

func TestDetect_NamePatternWaivedAtOrAboveDoubleThreshold(t *testing.T) {
	// hindu_temple's threshold is 80; at 5000 (>= 2x = 160) the name-pattern
	// check is waived entirely, per spec §4.3 step 3.
	d := New(rules.Default())
	places := []domain.Place{{Name: "Kapaleeshwarar", Types: []string{"hindu_temple"}, UserRatingsTotal: 5000}}
	anchor, rejections := d.Detect(places, false)
	if anchor == nil {
		t.Fatalf("got nil anchor, rejections = %+v, want an anchor (name check waived at >= 2x threshold)", rejections)
	}
	if anchor.ContextLabel != "Temple Zone" {
		t.Errorf("context label = %q, want Temple Zone", anchor.ContextLabel)
	}
}

func TestDetect_HospitalAnchor(t *testing.T) {
	d := New(rules.Default())
	places := []domain.Place{{Name: "City General Hospital", Types: []string{"hospital"}, UserRatingsTotal: 300}}
	anchor, _ := d.Detect(places, false)
	if anchor == nil {
		t.Fatal("got nil anchor, want a hospital anchor")
	}
	if anchor.Group != domain.GroupHealthcare {
		t.Errorf("group = %q, want healthcare", anchor.Group)
	}
	if anchor.ContextLabel != "Hospital Entrance Zone" {
		t.Errorf("context label = %q", anchor.ContextLabel)
	}
	if anchor.Extended {
		t.Error("extended = true, want false")
	}
}

func TestDetect_MedicalOverridePrecedence(t *testing.T) {
	d := New(rules.Default())
	places := []domain.Place{
		{Name: "Central Metro Station", Types: []string{"subway_station"}, UserRatingsTotal: 5000, ID: "metro"},
		{Name: "AIIMS Medical College", Types: []string{"hospital"}, UserRatingsTotal: 150, ID: "aiims"},
	}
	anchor, _ := d.Detect(places, false)
	if anchor == nil {
		t.Fatal("got nil anchor")
	}
	if anchor.Source.ID != "aiims" {
		t.Errorf("picked %q, want the medical candidate to override the higher-rated transit candidate", anchor.Source.ID)
	}
	if len(anchor.Validation) != 1 || anchor.Validation[0] != "medical_override" {
		t.Errorf("validation = %v, want [medical_override]", anchor.Validation)
	}
}

func TestDetect_MedicalInstituteCompoundOverridesPlainHospital(t *testing.T) {
	d := New(rules.Default())
	places := []domain.Place{
		{Name: "City General Hospital", Types: []string{"hospital"}, UserRatingsTotal: 300, ID: "hospital"},
		{Name: "Regional Institute of Medical Sciences", Types: []string{"university", "hospital"}, UserRatingsTotal: 120, ID: "med-college"},
	}
	anchor, _ := d.Detect(places, false)
	if anchor == nil {
		t.Fatal("got nil anchor")
	}
	if anchor.Source.ID != "med-college" {
		t.Errorf("picked %q, want the university+hospital compound to outrank plain hospital precedence", anchor.Source.ID)
	}
	if anchor.ContextLabel != "Medical Institute Zone" {
		t.Errorf("context label = %q, want Medical Institute Zone", anchor.ContextLabel)
	}
	if len(anchor.Validation) != 1 || anchor.Validation[0] != "medical_override" {
		t.Errorf("validation = %v, want [medical_override]", anchor.Validation)
	}
}

func TestDetect_HighestRatingWinsAmongNonMedical(t *testing.T) {
	d := New(rules.Default())
	places := []domain.Place{
		{Name: "Downtown Metro Junction", Types: []string{"subway_station"}, UserRatingsTotal: 200, ID: "a"},
		{Name: "Uptown Railway Station", Types: []string{"train_station"}, UserRatingsTotal: 900, ID: "b"},
	}
	anchor, _ := d.Detect(places, true)
	if anchor == nil {
		t.Fatal("got nil anchor")
	}
	if anchor.Source.ID != "b" {
		t.Errorf("picked %q, want highest-rated candidate b", anchor.Source.ID)
	}
	if !anchor.Extended {
		t.Error("extended = false, want true (detected via Ring 1.5)")
	}
}
