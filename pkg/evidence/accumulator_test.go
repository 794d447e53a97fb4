package evidence

import (
	"math"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestUpdatePosterior_EmptyTrailYieldsPrior(t *testing.T) {
	a := New()
	res := a.UpdatePosterior("T", "1.0.0", 0.3)
	if res.Posterior != 0.3 {
		t.Fatalf("expected posterior == prior, got %v", res.Posterior)
	}
	if res.SupportClass != SupportInsufficient {
		t.Fatalf("expected insufficient support, got %s", res.SupportClass)
	}
	if res.EvidenceCount != 0 || res.FamiliesAnalyzed != 0 {
		t.Fatalf("expected zero counts on empty trail")
	}
}

func TestAddEvidence_RejectsNonPositiveBF(t *testing.T) {
	a := New()
	if err := a.AddEvidence("T", "1.0.0", "fam1", 0, "clinical", 1, "lab"); err == nil {
		t.Fatalf("expected error for zero bayes factor")
	}
	if err := a.AddEvidence("T", "1.0.0", "fam1", -1, "clinical", 1, "lab"); err == nil {
		t.Fatalf("expected error for negative bayes factor")
	}
}

// TestAccumulation mirrors spec scenario S4.
func TestAccumulation_MatchesWorkedExample(t *testing.T) {
	a := New()
	if err := a.AddEvidence("T", "1.0.0", "fam1", 2, "clinical", 1, "lab"); err != nil {
		t.Fatalf("add fam1: %v", err)
	}
	if err := a.AddEvidence("T", "1.0.0", "fam2", 3, "clinical", 1, "lab"); err != nil {
		t.Fatalf("add fam2: %v", err)
	}

	res := a.UpdatePosterior("T", "1.0.0", 0.1)
	if !approxEqual(res.AccumulatedBF, 3.52, 1e-9) {
		t.Fatalf("expected BF≈3.52, got %v", res.AccumulatedBF)
	}
	if !approxEqual(res.Posterior, 0.2811, 1e-3) {
		t.Fatalf("expected posterior≈0.2811, got %v", res.Posterior)
	}
	if res.SupportClass != SupportModerate {
		t.Fatalf("expected moderate support, got %s", res.SupportClass)
	}
	if res.FamiliesAnalyzed != 2 {
		t.Fatalf("expected 2 families analyzed, got %d", res.FamiliesAnalyzed)
	}
}

func TestUpdatePosterior_BF1DoesNotChangePosterior(t *testing.T) {
	a := New()
	if err := a.AddEvidence("T", "1.0.0", "fam1", 1, "clinical", 1, "lab"); err != nil {
		t.Fatalf("add: %v", err)
	}
	res := a.UpdatePosterior("T", "1.0.0", 0.2)
	if !approxEqual(res.Posterior, 0.2, 1e-9) {
		t.Fatalf("expected posterior unchanged at BF=1, got %v", res.Posterior)
	}
}

func TestUpdatePosterior_BFGreaterThan1IncreasesPosterior(t *testing.T) {
	a := New()
	if err := a.AddEvidence("T", "1.0.0", "fam1", 5, "clinical", 1, "lab"); err != nil {
		t.Fatalf("add: %v", err)
	}
	res := a.UpdatePosterior("T", "1.0.0", 0.2)
	if res.Posterior <= 0.2 {
		t.Fatalf("expected posterior to strictly increase, got %v", res.Posterior)
	}
}

func TestSupportClass_ThresholdsInclusive(t *testing.T) {
	cases := []struct {
		bf   float64
		want SupportClass
	}{
		{0.5, SupportInsufficient},
		{1, SupportWeak},
		{2.9, SupportWeak},
		{3, SupportModerate},
		{9.9, SupportModerate},
		{10, SupportStrong},
	}
	for _, c := range cases {
		if got := Classify(c.bf); got != c.want {
			t.Fatalf("Classify(%v) = %s, want %s", c.bf, got, c.want)
		}
	}
}

func TestEvidenceTrail_InsertionOrder(t *testing.T) {
	a := New()
	_ = a.AddEvidence("T", "1.0.0", "fam1", 2, "clinical", 1, "lab")
	_ = a.AddEvidence("T", "1.0.0", "fam2", 3, "clinical", 1, "lab")
	trail := a.EvidenceTrail("T", "1.0.0")
	if len(trail) != 2 || trail[0].FamilyID != "fam1" || trail[1].FamilyID != "fam2" {
		t.Fatalf("expected insertion order fam1, fam2; got %+v", trail)
	}
}
