package evidence

import (
	"log"
	"sync"
	"time"
)

// Accumulator owns every evidence trail, keyed by (theory_id, version).
type Accumulator struct {
	mu sync.Mutex

	logger *log.Logger
	trails map[string][]*Record
}

// Option configures an Accumulator at construction time.
type Option func(*Accumulator)

func WithLogger(logger *log.Logger) Option {
	return func(a *Accumulator) { a.logger = logger }
}

// New creates an empty Accumulator.
func New(opts ...Option) *Accumulator {
	a := &Accumulator{
		logger: log.New(log.Writer(), "[Evidence] ", log.LstdFlags),
		trails: make(map[string][]*Record),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func key(theoryID, version string) string { return theoryID + "@" + version }

// AddEvidence appends a new Record to the (theoryID, version) trail.
// bayesFactor must be strictly positive.
func (a *Accumulator) AddEvidence(theoryID, version, familyID string, bayesFactor float64, evidenceType string, weight float64, source string) error {
	if bayesFactor <= 0 {
		return errInvalidEvidence
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	k := key(theoryID, version)
	a.trails[k] = append(a.trails[k], &Record{
		TheoryID:      theoryID,
		TheoryVersion: version,
		FamilyID:      familyID,
		BayesFactor:   bayesFactor,
		EvidenceType:  evidenceType,
		Weight:        weight,
		Timestamp:     time.Now().UTC(),
		Source:        source,
	})
	a.logger.Printf("added evidence theory=%s version=%s family=%s bf=%.4f", theoryID, version, familyID, bayesFactor)
	return nil
}

// UpdatePosterior recomputes the posterior for (theoryID, version)
// from the full accumulated trail.
func (a *Accumulator) UpdatePosterior(theoryID, version string, prior float64) Result {
	a.mu.Lock()
	trail := append([]*Record(nil), a.trails[key(theoryID, version)]...)
	a.mu.Unlock()

	n := len(trail)
	if n == 0 {
		return Result{
			AccumulatedBF: 1,
			Posterior:     prior,
			SupportClass:  SupportInsufficient,
		}
	}

	s := shrinkage(n)
	families := make(map[string]struct{}, n)
	accumulated := 1.0
	for _, r := range trail {
		weighted := 1 + (r.BayesFactor-1)*r.Weight*s
		if weighted < 0.01 {
			weighted = 0.01
		}
		accumulated *= weighted
		families[r.FamilyID] = struct{}{}
	}

	denom := prior*accumulated + (1 - prior)
	posterior := 0.0
	if denom != 0 {
		posterior = (prior * accumulated) / denom
	}

	return Result{
		AccumulatedBF:    accumulated,
		Posterior:        posterior,
		SupportClass:     Classify(accumulated),
		EvidenceCount:    n,
		FamiliesAnalyzed: len(families),
	}
}

// EvidenceTrail returns the insertion-ordered trail for (theoryID, version).
func (a *Accumulator) EvidenceTrail(theoryID, version string) []*Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	trail := a.trails[key(theoryID, version)]
	out := make([]*Record, len(trail))
	for i, r := range trail {
		cp := *r
		out[i] = &cp
	}
	return out
}
