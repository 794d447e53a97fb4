package compliance

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/xtergo/dnaresearch/pkg/apperr"
)

// Mirror is the seam Registry uses to persist PIA, DPA, and breach
// records beyond its own in-memory maps, so compliance state survives
// a process restart. A deployment with no database configured leaves
// this nil and Registry behaves exactly as an in-memory registry.
type Mirror interface {
	UpsertPIA(ctx context.Context, p *PIA) error
	UpsertDPA(ctx context.Context, d *DPA) error
	UpsertBreach(ctx context.Context, b *Breach) error
}

// ScoreCache is the seam Registry uses to avoid recomputing the
// aggregate score on every read. pkg/cache.Cache satisfies it
// directly.
type ScoreCache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	InvalidatePattern(pattern string) int
}

const scoreCacheKey = "compliance:score"
const scoreCacheTTL = 30 * time.Second

// Registry owns every PIA, DPA, and Breach record.
type Registry struct {
	mu sync.Mutex

	logger *log.Logger
	cache  ScoreCache
	mirror Mirror

	pias     map[string]*PIA
	dpas     map[string]*DPA
	breaches map[string]*Breach

	counter uint64
}

// Option configures a Registry at construction time.
type Option func(*Registry)

func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

func WithCache(c ScoreCache) Option {
	return func(r *Registry) { r.cache = c }
}

func WithMirror(m Mirror) Option {
	return func(r *Registry) { r.mirror = m }
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger:   log.New(log.Writer(), "[Compliance] ", log.LstdFlags),
		pias:     make(map[string]*PIA),
		dpas:     make(map[string]*DPA),
		breaches: make(map[string]*Breach),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) nextID(prefix string) string {
	r.counter++
	return fmt.Sprintf("%s-%d", prefix, r.counter)
}

// SubmitPIA registers a new Privacy Impact Assessment in draft status.
func (r *Registry) SubmitPIA(title, description string) *PIA {
	r.mu.Lock()
	p := &PIA{ID: r.nextID("pia"), Title: title, Description: description, Status: PIADraft, CreatedAt: time.Now().UTC()}
	r.pias[p.ID] = p
	r.invalidateScoreLocked()
	r.mu.Unlock()
	r.mirrorPIA(p)
	return p
}

// ApprovePIA transitions a PIA to approved.
func (r *Registry) ApprovePIA(id string) error {
	r.mu.Lock()
	p, ok := r.pias[id]
	if !ok {
		r.mu.Unlock()
		return apperr.Newf(apperr.NotFound, "PIA %q not found", id)
	}
	now := time.Now().UTC()
	p.Status = PIAApproved
	p.ApprovedAt = &now
	r.invalidateScoreLocked()
	cp := *p
	r.mu.Unlock()
	r.mirrorPIA(&cp)
	return nil
}

// RegisterDPA creates a new Data Processing Agreement, defaulting to
// a 3-year validity.
func (r *Registry) RegisterDPA(partnerID string) *DPA {
	r.mu.Lock()
	now := time.Now().UTC()
	d := &DPA{
		ID:        r.nextID("dpa"),
		PartnerID: partnerID,
		Status:    DPAActive,
		SignedAt:  now,
		ExpiresAt: now.Add(dpaDefaultValidity),
	}
	r.dpas[d.ID] = d
	r.invalidateScoreLocked()
	r.mu.Unlock()
	r.mirrorDPA(d)
	return d
}

// ReportBreach creates a new Breach record with its 72-hour
// notification deadline.
func (r *Registry) ReportBreach(description, severity string) *Breach {
	r.mu.Lock()
	now := time.Now().UTC()
	b := &Breach{
		ID:          r.nextID("breach"),
		Description: description,
		Severity:    severity,
		Status:      BreachReported,
		ReportedAt:  now,
		NotifyBy:    now.Add(breachNotificationWindow),
	}
	r.breaches[b.ID] = b
	r.invalidateScoreLocked()
	r.mu.Unlock()
	r.mirrorBreach(b)
	return b
}

// ResolveBreach marks a breach resolved.
func (r *Registry) ResolveBreach(id string) error {
	r.mu.Lock()
	b, ok := r.breaches[id]
	if !ok {
		r.mu.Unlock()
		return apperr.Newf(apperr.NotFound, "breach %q not found", id)
	}
	now := time.Now().UTC()
	b.Status = BreachResolved
	b.ResolvedAt = &now
	r.invalidateScoreLocked()
	cp := *b
	r.mu.Unlock()
	r.mirrorBreach(&cp)
	return nil
}

// mirrorPIA best-effort persists p through the configured Mirror,
// logging and continuing on failure: a durability lag behind the
// in-memory registry never blocks a caller.
func (r *Registry) mirrorPIA(p *PIA) {
	if r.mirror == nil {
		return
	}
	if err := r.mirror.UpsertPIA(context.Background(), p); err != nil {
		r.logger.Printf("durable mirror upsert failed for pia=%s: %v", p.ID, err)
	}
}

func (r *Registry) mirrorDPA(d *DPA) {
	if r.mirror == nil {
		return
	}
	if err := r.mirror.UpsertDPA(context.Background(), d); err != nil {
		r.logger.Printf("durable mirror upsert failed for dpa=%s: %v", d.ID, err)
	}
}

func (r *Registry) mirrorBreach(b *Breach) {
	if r.mirror == nil {
		return
	}
	if err := r.mirror.UpsertBreach(context.Background(), b); err != nil {
		r.logger.Printf("durable mirror upsert failed for breach=%s: %v", b.ID, err)
	}
}

// Overdue returns every unresolved breach whose notification deadline
// has passed.
func (r *Registry) Overdue() []*Breach {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	var out []*Breach
	for _, b := range r.breaches {
		if b.Overdue(now) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

// ComplianceScore computes (or returns a cached) aggregate score; each
// term defaults to its full contribution (1.0) when its population is
// empty.
func (r *Registry) ComplianceScore() Score {
	if r.cache != nil {
		if v, ok := r.cache.Get(scoreCacheKey); ok {
			if s, ok := v.(Score); ok {
				return s
			}
		}
	}

	r.mu.Lock()
	var approvedPIA, totalPIA int
	for _, p := range r.pias {
		totalPIA++
		if p.Status == PIAApproved {
			approvedPIA++
		}
	}
	var resolvedBreach, totalBreach int
	for _, b := range r.breaches {
		totalBreach++
		if b.Status == BreachResolved {
			resolvedBreach++
		}
	}
	var activeDPA, totalDPA int
	for _, d := range r.dpas {
		totalDPA++
		if d.Status == DPAActive {
			activeDPA++
		}
	}
	r.mu.Unlock()

	piaRatio := ratioOrFull(approvedPIA, totalPIA)
	breachRatio := ratioOrFull(resolvedBreach, totalBreach)
	dpaRatio := ratioOrFull(activeDPA, totalDPA)

	score := Score{
		ApprovedPIARatio:    piaRatio,
		ResolvedBreachRatio: breachRatio,
		ActiveDPARatio:      dpaRatio,
		Overall:             0.4*piaRatio + 0.3*breachRatio + 0.3*dpaRatio,
	}

	if r.cache != nil {
		r.cache.Set(scoreCacheKey, score, scoreCacheTTL)
	}
	return score
}

func ratioOrFull(n, total int) float64 {
	if total == 0 {
		return 1.0
	}
	return float64(n) / float64(total)
}

func (r *Registry) invalidateScoreLocked() {
	if r.cache != nil {
		r.cache.InvalidatePattern(scoreCacheKey)
	}
}
