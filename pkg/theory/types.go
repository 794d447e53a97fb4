// Copyright 2025 Certen Protocol
//
// Package theory implements theory definition, validation, execution
// against variant sets, forking/lineage, and listing — the engine
// that turns a user-defined genetic hypothesis into a
// Bayes-factor-backed posterior estimate.

package theory

import "time"

// Scope is the closed set of research domains a Theory may target.
type Scope string

const (
	ScopeAutism         Scope = "autism"
	ScopeCancer         Scope = "cancer"
	ScopeCardiovascular Scope = "cardiovascular"
	ScopeNeurological   Scope = "neurological"
	ScopeMetabolic      Scope = "metabolic"
)

var validScopes = map[Scope]bool{
	ScopeAutism:         true,
	ScopeCancer:         true,
	ScopeCardiovascular: true,
	ScopeNeurological:   true,
	ScopeMetabolic:      true,
}

// Lifecycle is the closed set of Theory states.
type Lifecycle string

const (
	LifecycleDraft      Lifecycle = "draft"
	LifecycleActive     Lifecycle = "active"
	LifecycleDeprecated Lifecycle = "deprecated"
	LifecycleArchived   Lifecycle = "archived"
)

// Criteria names the genomic features a Theory reasons over. At least
// one of the three sets must be non-empty.
type Criteria struct {
	Genes      []string
	Pathways   []string
	Phenotypes []string
}

func (c Criteria) empty() bool {
	return len(c.Genes) == 0 && len(c.Pathways) == 0 && len(c.Phenotypes) == 0
}

// EvidenceModel carries the Bayesian prior and per-evidence-type
// likelihood weights a Theory was authored with.
type EvidenceModel struct {
	Priors            float64
	LikelihoodWeights map[string]float64
}

// Theory is a user-defined genetic hypothesis.
type Theory struct {
	ID            string
	Version       string
	Scope         Scope
	Title         string
	Description   string
	Criteria      Criteria
	EvidenceModel EvidenceModel
	Author        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Lifecycle     Lifecycle
	Tags          []string
	Comments      []string
}

// Lineage records the parent-child relationship created by a fork.
type Lineage struct {
	TheoryID      string
	Version       string
	ParentID      string
	ParentVersion string
	ForkReason    string
	CreatedAt     time.Time
}

// ExecutionResult is the outcome of executing a Theory against a set
// of variants for one family.
type ExecutionResult struct {
	TheoryID        string
	TheoryVersion   string
	FamilyID        string
	GeneHits        int
	BayesFactor     float64
	Posterior       float64
	SupportClass    string
	ExecutionTimeMS int64
	ArtifactHash    string
}

// ForkResult describes what changed when a Theory was forked.
type ForkResult struct {
	NewID          string
	NewVersion     string
	ChangedFields  []string
	ParentID       string
	ParentVersion  string
}
