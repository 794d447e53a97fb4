package theory

import (
	"testing"

	"github.com/xtergo/dnaresearch/pkg/evidence"
)

func baseTheory() Theory {
	return Theory{
		ID:      "autism_shank3",
		Version: "1.0.0",
		Scope:   ScopeAutism,
		Title:   "SHANK3 autism association",
		Criteria: Criteria{
			Genes: []string{"SHANK3"},
		},
		EvidenceModel: EvidenceModel{
			Priors:            0.1,
			LikelihoodWeights: map[string]float64{"variant_hit": 2.0},
		},
		Author: "researcher_1",
	}
}

func TestValidate_RequiresSemverAndScope(t *testing.T) {
	errs := Validate(Theory{})
	if len(errs) == 0 {
		t.Fatalf("expected validation errors for empty theory")
	}
}

func TestCreate_RejectsInvalidTheory(t *testing.T) {
	e := New()
	_, err := e.Create(Theory{ID: "x", Version: "not-semver"})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestCreate_ThenGet(t *testing.T) {
	e := New()
	created, err := e.Create(baseTheory())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Lifecycle != LifecycleDraft {
		t.Fatalf("expected draft lifecycle by default")
	}
	got, err := e.Get("autism_shank3", "1.0.0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != created.Title {
		t.Fatalf("round-trip mismatch")
	}
}

func TestCreate_DuplicateConflicts(t *testing.T) {
	e := New()
	if _, err := e.Create(baseTheory()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := e.Create(baseTheory()); err == nil {
		t.Fatalf("expected conflict on duplicate id+version")
	}
}

func TestExecute_CountsGeneHitsInRegion(t *testing.T) {
	acc := evidence.New()
	e := New(WithEvidence(acc))
	th := baseTheory()
	vcf := "#header\n22\t51120000\t.\tA\tT\t60\n1\t100\t.\tG\tC\t50"

	res, err := e.Execute(th, vcf, "fam1")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.GeneHits != 1 {
		t.Fatalf("expected 1 gene hit (SHANK3 region), got %d", res.GeneHits)
	}
	if res.BayesFactor <= 0 {
		t.Fatalf("expected positive bayes factor")
	}
	if res.ExecutionTimeMS < 1 {
		t.Fatalf("expected execution time clamped to >= 1ms")
	}
	if res.ArtifactHash == "" {
		t.Fatalf("expected non-empty artifact hash")
	}

	trail := acc.EvidenceTrail(th.ID, th.Version)
	if len(trail) != 1 {
		t.Fatalf("expected execute to record one evidence entry, got %d", len(trail))
	}
}

func TestFork_BumpsPatchVersionAndRecordsLineage(t *testing.T) {
	e := New()
	parent, err := e.Create(baseTheory())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, child, err := e.Fork(*parent, "autism_shank3_v2", []Modification{
		{Field: "title", Value: "Revised SHANK3 hypothesis"},
	}, "broadened gene set")
	if err != nil {
		t.Fatalf("fork: %v", err)
	}
	if result.NewVersion != "1.0.1" {
		t.Fatalf("expected patch bump to 1.0.1, got %s", result.NewVersion)
	}
	if len(result.ChangedFields) != 1 || result.ChangedFields[0] != "title" {
		t.Fatalf("expected title recorded as changed, got %v", result.ChangedFields)
	}
	if child.Title != "Revised SHANK3 hypothesis" {
		t.Fatalf("expected child to carry modification")
	}
	if len(e.Lineage()) != 1 {
		t.Fatalf("expected 1 lineage row")
	}
}

func TestAddComment_AppendsAndFiltersByHasComments(t *testing.T) {
	e := New()
	if _, err := e.Create(baseTheory()); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := e.AddComment("autism_shank3", "1.0.0", "looks solid, consider adding a control cohort")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	if len(updated.Comments) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(updated.Comments))
	}

	yes := true
	page := e.List(Filter{HasComments: &yes}, SortTitle, false, 10, 0)
	if page.Total != 1 || page.Theories[0].ID != "autism_shank3" {
		t.Fatalf("expected has_comments=true to match the commented theory, got %+v", page)
	}

	no := false
	empty := e.List(Filter{HasComments: &no}, SortTitle, false, 10, 0)
	if empty.Total != 0 {
		t.Fatalf("expected has_comments=false to exclude the commented theory, got %+v", empty)
	}
}

func TestAddComment_RejectsEmptyAndUnknownTheory(t *testing.T) {
	e := New()
	if _, err := e.Create(baseTheory()); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := e.AddComment("autism_shank3", "1.0.0", ""); err == nil {
		t.Fatalf("expected validation error for empty comment")
	}
	if _, err := e.AddComment("does_not_exist", "1.0.0", "hello"); err == nil {
		t.Fatalf("expected not-found error for unknown theory")
	}
}

func TestList_FiltersSortsAndPaginates(t *testing.T) {
	e := New()
	t1 := baseTheory()
	t1.ID = "a"
	t1.Title = "Alpha"
	t2 := baseTheory()
	t2.ID = "b"
	t2.Title = "Beta"
	t2.Scope = ScopeCancer
	if _, err := e.Create(t1); err != nil {
		t.Fatalf("create t1: %v", err)
	}
	if _, err := e.Create(t2); err != nil {
		t.Fatalf("create t2: %v", err)
	}

	page := e.List(Filter{Scope: ScopeAutism}, SortTitle, false, 10, 0)
	if page.Total != 1 || page.Theories[0].ID != "a" {
		t.Fatalf("expected scope filter to keep only theory a, got %+v", page)
	}

	all := e.List(Filter{}, SortTitle, false, 1, 0)
	if all.Total != 2 || len(all.Theories) != 1 || !all.HasMore {
		t.Fatalf("expected paginated first page with has_more, got %+v", all)
	}
}
