// Copyright 2025 Certen Protocol
//
// Package genomic implements content-addressed anchor+diff storage
// for individual genomic sequences: reference anchors are deduplicated
// by sequence hash, and each individual's variants are stored as
// compact diffs against an anchor rather than as a full copy of the
// sequence.

package genomic

import "time"

// AnchorSequence is a deduplicated reference sequence.
type AnchorSequence struct {
	AnchorID        string
	SequenceHash    string
	ReferenceGenome string
	QualityScore    float64
	UsageCount      int
	CreatedAt       time.Time
}

// GenomicDifference is a single-position variant for one individual,
// stored against an anchor rather than duplicating the full sequence.
type GenomicDifference struct {
	DiffID          string
	AnchorID        string
	IndividualID    string
	Position        int // 1-based
	ReferenceAllele string
	AlternateAllele string
	QualityScore    float64
	CreatedAt       time.Time
}

// Variant is a parsed VCF data row, prior to being stored as a diff.
// Chromosome is carried alongside position and allele fields so the
// theory engine can resolve gene-region membership without a second
// VCF pass.
type Variant struct {
	Chromosome string
	Position   int
	Ref        string
	Alt        string
	Quality    float64
}

const defaultAnchorQuality = 0.95
