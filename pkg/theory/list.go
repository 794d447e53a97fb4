package theory

import (
	"sort"
	"strings"
)

// Filter narrows a theory listing. Zero-value fields are not applied.
type Filter struct {
	Scope       Scope
	Lifecycle   Lifecycle
	Author      string
	HasComments *bool
	Search      string // substring match across title/id/tags
	Tags        []string
}

// SortKey is the closed set of fields listings may be ordered by.
type SortKey string

const (
	SortPosterior     SortKey = "posterior"
	SortEvidenceCount SortKey = "evidence_count"
	SortCreatedAt     SortKey = "created_at"
	SortUpdatedAt     SortKey = "updated_at"
	SortTitle         SortKey = "title"
)

// Page is the paginated result of List.
type Page struct {
	Theories []*Theory
	Total    int
	HasMore  bool
}

func (f Filter) matches(t *Theory) bool {
	if f.Scope != "" && t.Scope != f.Scope {
		return false
	}
	if f.Lifecycle != "" && t.Lifecycle != f.Lifecycle {
		return false
	}
	if f.Author != "" && t.Author != f.Author {
		return false
	}
	if f.HasComments != nil && (len(t.Comments) > 0) != *f.HasComments {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(t.Title + " " + t.ID + " " + strings.Join(t.Tags, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	for _, want := range f.Tags {
		found := false
		for _, tag := range t.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// List returns every stored Theory matching filter, sorted by sortKey
// (posterior and evidence_count require the evidence accumulator to
// be wired via WithEvidence; they sort as zero values otherwise), and
// paginated by (limit, offset).
func (e *Engine) List(filter Filter, sortKey SortKey, descending bool, limit, offset int) Page {
	e.mu.Lock()
	var matched []*Theory
	for _, t := range e.theories {
		if filter.matches(t) {
			cp := *t
			matched = append(matched, &cp)
		}
	}
	e.mu.Unlock()

	type scored struct {
		theory    *Theory
		posterior float64
		evCount   int
	}
	rows := make([]scored, len(matched))
	for i, t := range matched {
		row := scored{theory: t}
		if e.evidence != nil {
			res := e.evidence.UpdatePosterior(t.ID, t.Version, t.EvidenceModel.Priors)
			row.posterior = res.Posterior
			row.evCount = res.EvidenceCount
		}
		rows[i] = row
	}

	less := func(i, j int) bool {
		a, b := rows[i], rows[j]
		switch sortKey {
		case SortPosterior:
			return a.posterior < b.posterior
		case SortEvidenceCount:
			return a.evCount < b.evCount
		case SortUpdatedAt:
			return a.theory.UpdatedAt.Before(b.theory.UpdatedAt)
		case SortTitle:
			return a.theory.Title < b.theory.Title
		default: // SortCreatedAt and unrecognized keys
			return a.theory.CreatedAt.Before(b.theory.CreatedAt)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if descending {
			return less(j, i)
		}
		return less(i, j)
	})

	total := len(rows)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	out := make([]*Theory, 0, end-offset)
	for _, r := range rows[offset:end] {
		out = append(out, r.theory)
	}

	return Page{
		Theories: out,
		Total:    total,
		HasMore:  end < total,
	}
}
