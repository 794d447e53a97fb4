package theory

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Modification is a single field override applied by Fork.
type Modification struct {
	Field string
	Value any
}

// Fork deep-copies parent, applies modifications, bumps the patch
// version, and records a Lineage row.
func (e *Engine) Fork(parent Theory, newID string, mods []Modification, reason string) (ForkResult, Theory, error) {
	newVersion, err := bumpPatch(parent.Version)
	if err != nil {
		return ForkResult{}, Theory{}, errValidationFailed([]string{err.Error()})
	}

	child := parent
	child.ID = newID
	child.Version = newVersion
	child.Criteria.Genes = append([]string(nil), parent.Criteria.Genes...)
	child.Criteria.Pathways = append([]string(nil), parent.Criteria.Pathways...)
	child.Criteria.Phenotypes = append([]string(nil), parent.Criteria.Phenotypes...)
	child.Tags = append([]string(nil), parent.Tags...)
	child.EvidenceModel.LikelihoodWeights = make(map[string]float64, len(parent.EvidenceModel.LikelihoodWeights))
	for k, v := range parent.EvidenceModel.LikelihoodWeights {
		child.EvidenceModel.LikelihoodWeights[k] = v
	}

	var changed []string
	for _, m := range mods {
		if applyModification(&child, m) {
			changed = append(changed, m.Field)
		}
	}

	now := time.Now().UTC()
	child.CreatedAt = now
	child.UpdatedAt = now
	child.Lifecycle = LifecycleDraft

	if errs := Validate(child); len(errs) > 0 {
		return ForkResult{}, Theory{}, errValidationFailed(errs)
	}

	e.mu.Lock()
	k := key(child.ID, child.Version)
	if _, exists := e.theories[k]; exists {
		e.mu.Unlock()
		return ForkResult{}, Theory{}, errDuplicateTheory(child.ID, child.Version)
	}
	cp := child
	e.theories[k] = &cp
	e.lineage = append(e.lineage, &Lineage{
		TheoryID:      child.ID,
		Version:       child.Version,
		ParentID:      parent.ID,
		ParentVersion: parent.Version,
		ForkReason:    reason,
		CreatedAt:     now,
	})
	e.mu.Unlock()

	e.logger.Printf("forked theory=%s v%s -> %s v%s (%d field(s) changed)", parent.ID, parent.Version, child.ID, child.Version, len(changed))

	return ForkResult{
		NewID:         child.ID,
		NewVersion:    child.Version,
		ChangedFields: changed,
		ParentID:      parent.ID,
		ParentVersion: parent.Version,
	}, child, nil
}

// applyModification mutates t per m and reports whether anything
// changed. Only the fields a fork is expected to touch are supported;
// unknown field names are silently ignored, matching a best-effort
// patch rather than a strict schema.
func applyModification(t *Theory, m Modification) bool {
	switch m.Field {
	case "title":
		if s, ok := m.Value.(string); ok && s != t.Title {
			t.Title = s
			return true
		}
	case "description":
		if s, ok := m.Value.(string); ok && s != t.Description {
			t.Description = s
			return true
		}
	case "genes":
		if genes, ok := m.Value.([]string); ok {
			t.Criteria.Genes = genes
			return true
		}
	case "pathways":
		if pathways, ok := m.Value.([]string); ok {
			t.Criteria.Pathways = pathways
			return true
		}
	case "phenotypes":
		if phenotypes, ok := m.Value.([]string); ok {
			t.Criteria.Phenotypes = phenotypes
			return true
		}
	case "priors":
		if p, ok := m.Value.(float64); ok && p != t.EvidenceModel.Priors {
			t.EvidenceModel.Priors = p
			return true
		}
	case "tags":
		if tags, ok := m.Value.([]string); ok {
			t.Tags = tags
			return true
		}
	}
	return false
}

func bumpPatch(version string) (string, error) {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) != 3 {
		return "", fmt.Errorf("version %q is not in X.Y.Z form", version)
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", fmt.Errorf("version %q has a non-numeric patch segment", version)
	}
	return fmt.Sprintf("%s.%s.%d", parts[0], parts[1], patch+1), nil
}

// Lineage returns every fork record, in fork order.
func (e *Engine) Lineage() []*Lineage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Lineage, len(e.lineage))
	copy(out, e.lineage)
	return out
}
