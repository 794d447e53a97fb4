package theory

import "regexp"

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Validate checks t against its required-field and range rules. It
// never returns early: every violation is collected so callers can
// display all of them at once.
func Validate(t Theory) []string {
	var errs []string

	if t.ID == "" {
		errs = append(errs, "id is required")
	}
	if t.Version == "" {
		errs = append(errs, "version is required")
	} else if !semverPattern.MatchString(t.Version) {
		errs = append(errs, "version must match X.Y.Z")
	}
	if t.Scope == "" {
		errs = append(errs, "scope is required")
	} else if !validScopes[t.Scope] {
		errs = append(errs, "scope is not in the closed set")
	}
	if t.Criteria.empty() {
		errs = append(errs, "criteria must contain at least one of genes, pathways, phenotypes")
	}
	if t.EvidenceModel.Priors < 0 || t.EvidenceModel.Priors > 1 {
		errs = append(errs, "evidence_model.priors must be in [0,1]")
	}
	if t.EvidenceModel.LikelihoodWeights == nil {
		errs = append(errs, "evidence_model.likelihood_weights is required")
	}

	return errs
}
