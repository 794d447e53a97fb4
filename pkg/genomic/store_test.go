package genomic

import (
	"strings"
	"testing"
)

func TestCreateAnchor_DeduplicatesBySequenceHash(t *testing.T) {
	s := New()
	a1 := s.CreateAnchor("ACGTACGT", "GRCh38")
	a2 := s.CreateAnchor("ACGTACGT", "GRCh38")
	if a1.AnchorID != a2.AnchorID {
		t.Fatalf("expected same anchor id, got %s and %s", a1.AnchorID, a2.AnchorID)
	}
	if a2.UsageCount != 2 {
		t.Fatalf("expected usage_count 2, got %d", a2.UsageCount)
	}
}

func TestCreateAnchor_DistinctSequencesGetDistinctAnchors(t *testing.T) {
	s := New()
	a1 := s.CreateAnchor("ACGT", "GRCh38")
	a2 := s.CreateAnchor("TTTT", "GRCh38")
	if a1.AnchorID == a2.AnchorID {
		t.Fatalf("expected distinct anchors for distinct sequences")
	}
}

func TestParseVCF_SkipsHeadersAndBlankLines(t *testing.T) {
	vcf := "#V\n1\t3\t.\tA\tT\t60\tPASS\n\n1\t5\t.\tG\tC\t55\tPASS"
	variants := ParseVCF(vcf)
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}
	if variants[0].Position != 3 || variants[0].Ref != "A" || variants[0].Alt != "T" {
		t.Fatalf("unexpected first variant: %+v", variants[0])
	}
}

func TestParseVCF_DefaultsMissingQuality(t *testing.T) {
	variants := ParseVCF("1\t10\t.\tA\tG")
	if len(variants) != 1 {
		t.Fatalf("expected 1 variant")
	}
	if variants[0].Quality != defaultVariantQuality {
		t.Fatalf("expected default quality %v, got %v", defaultVariantQuality, variants[0].Quality)
	}
}

// TestAnchorDiffRoundTrip mirrors spec scenario S3.
func TestAnchorDiffRoundTrip(t *testing.T) {
	s := New()
	vcf := "#V\n1\t3\t.\tA\tT\t60\tPASS\n1\t5\t.\tG\tC\t55\tPASS"
	variants := ParseVCF(vcf)

	anchor := s.CreateAnchor(strings.Repeat("ATCG", 100), "GRCh38")
	diffs, err := s.StoreDifferences(anchor.AnchorID, "p1", variants)
	if err != nil {
		t.Fatalf("store differences: %v", err)
	}
	if len(diffs) != 2 {
		t.Fatalf("expected 2 diffs, got %d", len(diffs))
	}

	seq, err := s.Materialize("p1", anchor.AnchorID)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if len(seq) != referenceStubLength {
		t.Fatalf("expected sequence length %d, got %d", referenceStubLength, len(seq))
	}
	if seq[2] != 'T' {
		t.Fatalf("expected base at index 2 to be T, got %c", seq[2])
	}
	if seq[4] != 'C' {
		t.Fatalf("expected base at index 4 to be C, got %c", seq[4])
	}
}

func TestMaterialize_UnknownAnchor(t *testing.T) {
	s := New()
	if _, err := s.Materialize("p1", "nope"); err == nil {
		t.Fatalf("expected error for unknown anchor")
	}
}

func TestStoreDifferences_DistinctIndividualsCoexist(t *testing.T) {
	s := New()
	anchor := s.CreateAnchor(strings.Repeat("ATCG", 100), "GRCh38")
	v := []Variant{{Position: 1, Ref: "A", Alt: "T", Quality: 0.9}}
	if _, err := s.StoreDifferences(anchor.AnchorID, "p1", v); err != nil {
		t.Fatalf("store p1: %v", err)
	}
	if _, err := s.StoreDifferences(anchor.AnchorID, "p2", v); err != nil {
		t.Fatalf("store p2: %v", err)
	}
	seq1, _ := s.Materialize("p1", anchor.AnchorID)
	seq2, _ := s.Materialize("p2", anchor.AnchorID)
	if seq1 != seq2 {
		t.Fatalf("expected identical variants to materialize identically")
	}
}
