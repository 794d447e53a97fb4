package genomic

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xtergo/dnaresearch/pkg/apperr"
)

// referenceStubLength is the fixed length of the deterministic
// reference-sequence stub used for materialization in the absence of
// a real reference-genome service.
const referenceStubLength = 400

// Store owns anchors and the per-individual diffs stored against
// them. A single mutex guards both maps.
type Store struct {
	mu sync.Mutex

	logger *log.Logger

	anchors      map[string]*AnchorSequence
	anchorsBySeq map[string]string // sequence_hash -> anchor_id
	diffs        map[string][]*GenomicDifference // anchor_id -> diffs, mixed individuals

	counter uint64
}

// Option configures a Store at construction time.
type Option func(*Store)

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates an empty genomic Store.
func New(opts ...Option) *Store {
	s := &Store{
		logger:       log.New(log.Writer(), "[Genomic] ", log.LstdFlags),
		anchors:      make(map[string]*AnchorSequence),
		anchorsBySeq: make(map[string]string),
		diffs:        make(map[string][]*GenomicDifference),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAnchor deduplicates by sequence_hash: a repeated call with an
// identical sequence increments usage_count and returns the existing
// anchor rather than creating a new one.
func (s *Store) CreateAnchor(sequence, reference string) *AnchorSequence {
	sum := sha256.Sum256([]byte(sequence))
	hash := hex.EncodeToString(sum[:])

	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.anchorsBySeq[hash]; ok {
		existing := s.anchors[existingID]
		existing.UsageCount++
		return copyAnchor(existing)
	}

	s.counter++
	anchor := &AnchorSequence{
		AnchorID:        fmt.Sprintf("anchor-%d", s.counter),
		SequenceHash:    hash,
		ReferenceGenome: reference,
		QualityScore:    defaultAnchorQuality,
		UsageCount:      1,
		CreatedAt:       time.Now().UTC(),
	}
	s.anchors[anchor.AnchorID] = anchor
	s.anchorsBySeq[hash] = anchor.AnchorID
	s.logger.Printf("created anchor %s (reference=%s)", anchor.AnchorID, reference)
	return copyAnchor(anchor)
}

func copyAnchor(a *AnchorSequence) *AnchorSequence {
	cp := *a
	return &cp
}

// StoreDifferences converts variants into GenomicDifference records
// for individualID against anchorID. Differences from distinct
// individuals coexist under the same anchor.
func (s *Store) StoreDifferences(anchorID, individualID string, variants []Variant) ([]*GenomicDifference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.anchors[anchorID]; !ok {
		return nil, errAnchorNotFound(anchorID)
	}

	now := time.Now().UTC()
	out := make([]*GenomicDifference, 0, len(variants))
	for _, v := range variants {
		s.counter++
		diff := &GenomicDifference{
			DiffID:          fmt.Sprintf("diff-%d", s.counter),
			AnchorID:        anchorID,
			IndividualID:    individualID,
			Position:        v.Position,
			ReferenceAllele: v.Ref,
			AlternateAllele: v.Alt,
			QualityScore:    v.Quality,
			CreatedAt:       now,
		}
		s.diffs[anchorID] = append(s.diffs[anchorID], diff)
		out = append(out, diff)
	}
	s.logger.Printf("stored %d difference(s) for individual=%s anchor=%s", len(out), individualID, anchorID)
	return out, nil
}

// Materialize reconstructs individualID's sequence from anchorID's
// reference stub plus that individual's diffs, applied from the
// highest position down so earlier substitutions never shift the
// offsets of later ones. A single-base substitution (|ref|==|alt|==1)
// overwrites one base; an indel (|ref|!=|alt|) is applied as a literal
// byte-range replacement instead of being rejected.
func (s *Store) Materialize(individualID, anchorID string) (string, error) {
	s.mu.Lock()
	anchor, ok := s.anchors[anchorID]
	if !ok {
		s.mu.Unlock()
		return "", errAnchorNotFound(anchorID)
	}
	var mine []*GenomicDifference
	for _, d := range s.diffs[anchorID] {
		if d.IndividualID == individualID {
			mine = append(mine, d)
		}
	}
	s.mu.Unlock()

	sort.Slice(mine, func(i, j int) bool { return mine[i].Position > mine[j].Position })

	base := []byte(referenceBase(anchor))
	for _, d := range mine {
		idx := d.Position - 1
		if idx < 0 || idx >= len(base) {
			continue
		}
		if len(d.ReferenceAllele) == 1 && len(d.AlternateAllele) == 1 {
			base[idx] = d.AlternateAllele[0]
			continue
		}
		end := idx + len(d.ReferenceAllele)
		if end > len(base) {
			end = len(base)
		}
		base = append(base[:idx], append([]byte(d.AlternateAllele), base[end:]...)...)
	}
	return string(base), nil
}

// referenceBase returns the deterministic reference-sequence stub for
// an anchor. A production deployment would fetch the real reference
// genome keyed by sequence_hash; this implementation uses a
// fixed-length stub instead.
func referenceBase(anchor *AnchorSequence) string {
	return strings.Repeat("ATCG", referenceStubLength/4)
}

// CompressionRatio reports original_size / compressed_size for an
// anchor as a diagnostic; it carries no correctness guarantee.
func (s *Store) CompressionRatio(anchorID string, individualID string, originalSize int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.anchors[anchorID]; !ok {
		return 0, errAnchorNotFound(anchorID)
	}
	var compressed int
	for _, d := range s.diffs[anchorID] {
		if d.IndividualID == individualID {
			compressed += len(d.ReferenceAllele) + len(d.AlternateAllele) + 16
		}
	}
	if compressed == 0 {
		return 0, apperr.New(apperr.Validation, "no differences recorded for individual")
	}
	return float64(originalSize) / float64(compressed), nil
}
