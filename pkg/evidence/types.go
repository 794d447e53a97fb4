// Copyright 2025 Certen Protocol
//
// Package evidence implements Bayesian evidence accumulation across
// families for a (theory, version) pair: evidence records are
// appended independently and the posterior is recomputed on demand
// from the full accumulated trail.

package evidence

import "time"

// Record is a single piece of evidence contributed for a theory
// version by one family.
type Record struct {
	TheoryID      string
	TheoryVersion string
	FamilyID      string
	BayesFactor   float64
	EvidenceType  string
	Weight        float64
	Timestamp     time.Time
	Source        string
}

// SupportClass is the categorical label derived from accumulated BF.
type SupportClass string

const (
	SupportInsufficient SupportClass = "insufficient"
	SupportWeak         SupportClass = "weak"
	SupportModerate     SupportClass = "moderate"
	SupportStrong       SupportClass = "strong"
)

// Result is the outcome of UpdatePosterior.
type Result struct {
	AccumulatedBF    float64
	Posterior        float64
	SupportClass     SupportClass
	EvidenceCount    int
	FamiliesAnalyzed int
}

// Classify maps an accumulated Bayes factor to its SupportClass, using
// thresholds inclusive at 1, 3, and 10. Exported so the theory engine,
// which reuses this exact threshold table when scoring every
// execution result, does not need to duplicate it.
func Classify(bf float64) SupportClass {
	switch {
	case bf >= 10:
		return SupportStrong
	case bf >= 3:
		return SupportModerate
	case bf >= 1:
		return SupportWeak
	default:
		return SupportInsufficient
	}
}

// shrinkage returns s(N), the sample-size damping factor applied to
// each record's Bayes-factor contribution before accumulation.
func shrinkage(n int) float64 {
	switch {
	case n >= 10:
		return 1.0
	case n >= 5:
		return 0.8
	case n >= 2:
		return 0.6
	default:
		return 0.4
	}
}
