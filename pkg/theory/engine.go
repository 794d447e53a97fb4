package theory

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/xtergo/dnaresearch/pkg/apperr"
	"github.com/xtergo/dnaresearch/pkg/evidence"
	"github.com/xtergo/dnaresearch/pkg/genomic"
	"github.com/xtergo/dnaresearch/pkg/ledger"
)

// EvidenceAdder is the seam execute() and listing depend on.
// pkg/evidence.Accumulator satisfies it directly.
type EvidenceAdder interface {
	AddEvidence(theoryID, version, familyID string, bayesFactor float64, evidenceType string, weight float64, source string) error
	UpdatePosterior(theoryID, version string, prior float64) evidence.Result
	EvidenceTrail(theoryID, version string) []*evidence.Record
}

// LedgerAppender is the seam execute() depends on for auditing.
type LedgerAppender interface {
	Append(entryType ledger.EntryType, userID string, payload map[string]any, metadata map[string]any) (string, error)
}

// MetricsRecorder receives one observation per Execute call. *metrics.Registry satisfies this.
type MetricsRecorder interface {
	ObserveTheoryExecution(supportClass string)
}

// Engine owns every Theory, its Lineage rows, and orchestrates
// validation, execution, and forking.
type Engine struct {
	mu sync.Mutex

	logger      *log.Logger
	evidence    EvidenceAdder
	ledger      LedgerAppender
	metrics     MetricsRecorder
	geneRegions map[string][]region

	theories map[string]*Theory // key: id@version
	lineage  []*Lineage
}

// Option configures an Engine at construction time.
type Option func(*Engine)

func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithEvidence(a EvidenceAdder) Option {
	return func(e *Engine) { e.evidence = a }
}

func WithLedger(l LedgerAppender) Option {
	return func(e *Engine) { e.ledger = l }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithGeneRegions overrides the compile-time geneRegions default, for
// deployments that load their gene->region table from the YAML file
// named by config.GeneRegionTablePath.
func WithGeneRegions(regions map[string][]GeneRegion) Option {
	return func(e *Engine) {
		table := make(map[string][]region, len(regions))
		for gene, rs := range regions {
			converted := make([]region, len(rs))
			for i, r := range rs {
				converted[i] = region{Chromosome: r.Chromosome, Start: r.Start, End: r.End}
			}
			table[gene] = converted
		}
		e.geneRegions = table
	}
}

// GeneRegion is the exported shape callers use to build an override
// table from config.GeneRegionTableConfig, without importing theory's
// unexported region type.
type GeneRegion struct {
	Chromosome string
	Start      int
	End        int
}

// New creates an empty theory Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:      log.New(log.Writer(), "[Theory] ", log.LstdFlags),
		theories:    make(map[string]*Theory),
		geneRegions: geneRegions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func key(id, version string) string { return id + "@" + version }

// Create validates and stores a new Theory. Validation failures
// return a Validation-kind error carrying every violation found,
// rather than stopping at the first.
func (e *Engine) Create(t Theory) (*Theory, error) {
	if errs := Validate(t); len(errs) > 0 {
		return nil, errValidationFailed(errs)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	k := key(t.ID, t.Version)
	if _, exists := e.theories[k]; exists {
		return nil, errDuplicateTheory(t.ID, t.Version)
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Lifecycle == "" {
		t.Lifecycle = LifecycleDraft
	}
	cp := t
	e.theories[k] = &cp
	return &cp, nil
}

// Get returns a copy of the theory (id, version), or NotFound.
func (e *Engine) Get(id, version string) (*Theory, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.theories[key(id, version)]
	if !ok {
		return nil, errTheoryNotFound(id, version)
	}
	cp := *t
	return &cp, nil
}

// AddComment appends a reviewer comment to the theory (id, version)
// and bumps its UpdatedAt. Comments have no author or timestamp of
// their own; they are a lightweight annotation trail, not a thread.
func (e *Engine) AddComment(id, version, comment string) (*Theory, error) {
	if comment == "" {
		return nil, apperr.Newf(apperr.Validation, "comment must not be empty")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.theories[key(id, version)]
	if !ok {
		return nil, errTheoryNotFound(id, version)
	}
	t.Comments = append(t.Comments, comment)
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, nil
}

// Execute runs t against variants parsed from vcfText for familyID.
func (e *Engine) Execute(t Theory, vcfText string, familyID string) (ExecutionResult, error) {
	start := time.Now()

	variants := genomic.ParseVCF(vcfText)
	loci := make([]variantLocus, len(variants))
	for i, v := range variants {
		loci[i] = variantLocus{Chromosome: v.Chromosome, Position: v.Position}
	}

	hits := geneHits(t.Criteria.Genes, loci, e.geneRegions)

	wVariantHit := weightOrDefault(t.EvidenceModel.LikelihoodWeights, "variant_hit", 1.0)
	wPathway := weightOrDefault(t.EvidenceModel.LikelihoodWeights, "pathway", 1.0)

	likelihood := (1 + float64(hits)*wVariantHit) * (1 + float64(len(t.Criteria.Pathways))*wPathway*0.1)
	nullLikelihood := 0.001 * float64(len(variants))
	if nullLikelihood < 0.001 {
		nullLikelihood = 0.001
	}

	bayesFactor := 0.0
	if nullLikelihood != 0 {
		bayesFactor = likelihood / nullLikelihood
	}

	prior := t.EvidenceModel.Priors
	denom := prior*bayesFactor + (1 - prior)
	posterior := 0.0
	if denom != 0 {
		posterior = (prior * bayesFactor) / denom
	}

	elapsed := time.Since(start).Milliseconds()
	if elapsed < 1 {
		elapsed = 1
	}

	sum := md5.Sum([]byte(vcfText))
	vcfMD5 := hex.EncodeToString(sum[:])
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	artifactHash, err := artifactHashOf(t.ID, t.Version, vcfMD5, familyID, timestamp)
	if err != nil {
		return ExecutionResult{}, apperr.Wrap(err)
	}

	result := ExecutionResult{
		TheoryID:        t.ID,
		TheoryVersion:   t.Version,
		FamilyID:        familyID,
		GeneHits:        hits,
		BayesFactor:     bayesFactor,
		Posterior:       posterior,
		SupportClass:    string(evidence.Classify(bayesFactor)),
		ExecutionTimeMS: elapsed,
		ArtifactHash:    artifactHash,
	}

	if e.evidence != nil {
		if err := e.evidence.AddEvidence(t.ID, t.Version, familyID, bayesFactor, "theory_execution", 1.0, "theory_engine"); err != nil {
			return result, apperr.Wrap(err)
		}
	}
	if e.ledger != nil {
		payload := map[string]any{
			"theory_id":      t.ID,
			"theory_version": t.Version,
			"family_id":      familyID,
			"bayes_factor":   bayesFactor,
			"artifact_hash":  artifactHash,
		}
		if _, err := e.ledger.Append(ledger.EntryTheoryExecution, familyID, payload, nil); err != nil {
			return result, apperr.Wrap(err)
		}
	}

	e.logger.Printf("executed theory=%s v%s family=%s hits=%d bf=%.4f", t.ID, t.Version, familyID, hits, bayesFactor)
	if e.metrics != nil {
		e.metrics.ObserveTheoryExecution(result.SupportClass)
	}
	return result, nil
}

func weightOrDefault(weights map[string]float64, name string, def float64) float64 {
	if w, ok := weights[name]; ok {
		return w
	}
	return def
}

func artifactHashOf(theoryID, version, vcfMD5, familyID, timestamp string) (string, error) {
	payload := map[string]any{
		"theory_id":      theoryID,
		"theory_version": version,
		"vcf_md5":        vcfMD5,
		"family_id":      familyID,
		"timestamp":      timestamp,
	}
	canon, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}
