package access

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/xtergo/dnaresearch/pkg/apperr"
	"github.com/xtergo/dnaresearch/pkg/consent"
	"github.com/xtergo/dnaresearch/pkg/ledger"
)

// ConsentChecker is the seam the gate depends on. pkg/consent.Store
// satisfies it directly.
type ConsentChecker interface {
	Check(userID string, consentType consent.ConsentType) bool
}

// LedgerAppender is the seam the gate depends on for auditing.
type LedgerAppender interface {
	Append(entryType ledger.EntryType, userID string, payload map[string]any, metadata map[string]any) (string, error)
}

// MetricsRecorder receives one observation per Check call. *metrics.Registry satisfies this.
type MetricsRecorder interface {
	ObserveAccessCheck(action string, granted bool)
}

// Gate is the access-control component. Its own attempt log and its
// delegation to the ledger are both append-only; Check never mutates
// consent state.
type Gate struct {
	mu sync.Mutex

	logger  *log.Logger
	consent ConsentChecker
	ledger  LedgerAppender
	metrics MetricsRecorder

	counter  uint64
	attempts []*Attempt
}

// Option configures a Gate at construction time.
type Option func(*Gate)

func WithLogger(logger *log.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

func WithLedger(l LedgerAppender) Option {
	return func(g *Gate) { g.ledger = l }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(g *Gate) { g.metrics = m }
}

// New creates a Gate backed by the given consent checker.
func New(checker ConsentChecker, opts ...Option) *Gate {
	g := &Gate{
		logger:  log.New(log.Writer(), "[Access] ", log.LstdFlags),
		consent: checker,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check evaluates req against the fixed action->consent table,
// records the attempt (granted or not), and returns an audit_id the
// caller can surface as a correlation header. Repeating Check always
// produces a new audit_id and a new ledger entry, whether or not the
// request is granted.
func (g *Gate) Check(req Request) Result {
	required := requiredConsents[req.Action]

	now := time.Now().UTC()
	granted := true
	var missing []consent.ConsentType
	for _, ct := range required {
		if !g.consent.Check(req.UserID, ct) {
			granted = false
			missing = append(missing, ct)
		}
	}

	var reason string
	switch {
	case len(required) == 0:
		reason = "no consent required"
	case granted:
		reason = "All required consents valid"
	default:
		names := make([]string, len(missing))
		for i, ct := range missing {
			names[i] = strings.ToLower(string(ct))
		}
		reason = fmt.Sprintf("missing required consent(s): %s", strings.Join(names, ", "))
	}

	g.mu.Lock()
	g.counter++
	auditID := fmt.Sprintf("audit-%d-%d", g.counter, now.UnixNano())
	g.attempts = append(g.attempts, &Attempt{
		AuditID:    auditID,
		UserID:     req.UserID,
		Action:     req.Action,
		ResourceID: req.ResourceID,
		Granted:    granted,
		Reason:     reason,
		Timestamp:  now,
		IPAddress:  req.IPAddress,
	})
	g.logger.Printf("access check audit_id=%s user=%s action=%s granted=%t", auditID, req.UserID, req.Action, granted)
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.ObserveAccessCheck(string(req.Action), granted)
	}

	if g.ledger != nil {
		checkedNames := make([]string, len(required))
		for i, ct := range required {
			checkedNames[i] = string(ct)
		}
		payload := map[string]any{
			"audit_id":              auditID,
			"action":                string(req.Action),
			"resource_id":           req.ResourceID,
			"access_granted":        granted,
			"consent_types_checked": checkedNames,
			"reason":                reason,
		}
		_, _ = g.ledger.Append(ledger.EntryDataAccess, req.UserID, payload, map[string]any{"ip_address": req.IPAddress})
	}

	return Result{
		AuditID:             auditID,
		Granted:             granted,
		Reason:              reason,
		ConsentTypesChecked: required,
		Timestamp:           now,
	}
}

// Attempts returns a snapshot of every attempt recorded so far,
// regardless of outcome.
func (g *Gate) Attempts() []*Attempt {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Attempt, len(g.attempts))
	for i, a := range g.attempts {
		cp := *a
		out[i] = &cp
	}
	return out
}

// errForbidden builds the typed error an HTTP boundary should return
// for a denied Result.
func errForbidden(res Result) error {
	names := make([]string, 0, len(res.ConsentTypesChecked))
	for _, ct := range res.ConsentTypesChecked {
		names = append(names, string(ct))
	}
	return apperr.New(apperr.Forbidden, res.Reason).WithDetail(names...).WithAuditID(res.AuditID)
}

// AsError converts a denied Result into the apperr taxonomy; callers
// that need a typed error instead of a boolean use this.
func AsError(res Result) error {
	if res.Granted {
		return nil
	}
	return errForbidden(res)
}
