package webhook

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/xtergo/dnaresearch/pkg/ledger"
)

// LedgerAppender is the seam the pipeline depends on for auditing
// ingested events.
type LedgerAppender interface {
	Append(entryType ledger.EntryType, userID string, payload map[string]any, metadata map[string]any) (string, error)
}

// MetricsRecorder receives one observation per ingested event and per
// retry scheduled. *metrics.Registry satisfies this.
type MetricsRecorder interface {
	ObserveWebhookEvent(partnerID, eventType string)
	ObserveWebhookRetry()
}

// Scheduler abstracts "run f after d", so retry backoff is testable
// without a real wall-clock wait. The zero value is not usable;
// construct with NewRealScheduler or a test double.
type Scheduler interface {
	After(d time.Duration, f func())
}

// realScheduler schedules retries on the actual wall clock via
// time.AfterFunc.
type realScheduler struct{}

func (realScheduler) After(d time.Duration, f func()) { time.AfterFunc(d, f) }

// NewRealScheduler returns the production Scheduler.
func NewRealScheduler() Scheduler { return realScheduler{} }

// Pipeline owns the partner registry, the event store, one work
// queue, and the single consumer goroutine that drains it.
type Pipeline struct {
	mu sync.Mutex

	logger    *log.Logger
	scheduler Scheduler
	ledger    LedgerAppender
	metrics   MetricsRecorder
	handlers  map[EventType]Handler

	partners map[string]*Partner
	events   map[string]*Event

	queue      chan string
	processing bool
	stop       chan struct{}
	wg         sync.WaitGroup
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

func WithScheduler(s Scheduler) Option {
	return func(p *Pipeline) { p.scheduler = s }
}

func WithLedger(l LedgerAppender) Option {
	return func(p *Pipeline) { p.ledger = l }
}

func WithHandler(eventType EventType, h Handler) Option {
	return func(p *Pipeline) { p.handlers[eventType] = h }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a Pipeline and starts its single consumer goroutine.
// Callers must call Close when done to stop the consumer cleanly.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:    log.New(log.Writer(), "[Webhook] ", log.LstdFlags),
		scheduler: NewRealScheduler(),
		handlers:  defaultHandlers(),
		partners:  make(map[string]*Partner),
		events:    make(map[string]*Event),
		queue:     make(chan string, 1024),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.startConsumer()
	return p
}

// RegisterPartner adds a partner to the registry.
func (p *Pipeline) RegisterPartner(partner Partner) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := partner
	p.partners[partner.PartnerID] = &cp
}

// startConsumer launches the single consumer goroutine. The
// processing flag guards against starting a second one for the same
// queue.
func (p *Pipeline) startConsumer() {
	p.mu.Lock()
	if p.processing {
		p.mu.Unlock()
		return
	}
	p.processing = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case eventID := <-p.queue:
				p.process(eventID)
			case <-p.stop:
				return
			}
		}
	}()
}

// Close stops the consumer goroutine, draining no further events.
func (p *Pipeline) Close() {
	close(p.stop)
	p.wg.Wait()
}

// Ingest verifies signature, checks event admission against the
// partner's supported events, assigns an event_id, stores and
// enqueues the event. event_id is partner_id + an 8-character random
// hex suffix + the unix second it was admitted.
func (p *Pipeline) Ingest(partnerID string, eventType EventType, data map[string]any, payload []byte, signature string) (*Event, error) {
	p.mu.Lock()
	partner, ok := p.partners[partnerID]
	p.mu.Unlock()
	if !ok {
		return nil, errUnknownPartner(partnerID)
	}

	if !Verify(partner, payload, signature) {
		return nil, errInvalidSignature
	}

	if !partner.SupportedEvents[eventType] {
		return nil, errUnsupportedEvent(partnerID, eventType)
	}

	now := time.Now().UTC()
	eventID := fmt.Sprintf("%s%s%d", partnerID, random8(), now.Unix())

	event := &Event{
		EventID:    eventID,
		PartnerID:  partnerID,
		EventType:  eventType,
		Data:       data,
		Timestamp:  now,
		Status:     StatusReceived,
		Signature:  signature,
		MaxRetries: partner.MaxRetries,
	}

	p.mu.Lock()
	p.events[eventID] = event
	p.mu.Unlock()

	if p.ledger != nil {
		_, _ = p.ledger.Append(ledger.EntryDataAccess, partnerID, map[string]any{
			"event_id":   eventID,
			"event_type": string(eventType),
			"action":     "webhook_received",
		}, nil)
	}

	p.enqueue(eventID)
	p.logger.Printf("ingested event %s (partner=%s type=%s)", eventID, partnerID, eventType)
	if p.metrics != nil {
		p.metrics.ObserveWebhookEvent(partnerID, string(eventType))
	}
	return event, nil
}

func (p *Pipeline) enqueue(eventID string) {
	p.queue <- eventID
}

// process runs the per-event-type handler and drives the event's
// status from received through processed, retrying, or failed.
func (p *Pipeline) process(eventID string) {
	p.mu.Lock()
	event, ok := p.events[eventID]
	if !ok {
		p.mu.Unlock()
		return
	}
	event.Status = StatusProcessing
	handler := p.handlers[event.EventType]
	p.mu.Unlock()

	if handler == nil {
		p.mu.Lock()
		event.Status = StatusFailed
		event.ErrorMessage = "no handler registered for event type"
		p.mu.Unlock()
		return
	}

	result, err := handler(event)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err == nil {
		event.Status = StatusCompleted
		event.Result = result
		now := time.Now().UTC()
		event.ProcessedAt = &now
		p.logger.Printf("completed event %s", eventID)
		return
	}

	event.ErrorMessage = err.Error()
	if event.RetryCount >= event.MaxRetries {
		event.Status = StatusFailed
		p.logger.Printf("event %s failed permanently after %d retries", eventID, event.RetryCount)
		return
	}

	event.RetryCount++
	event.Status = StatusRetrying
	delay := time.Duration(1<<uint(event.RetryCount)) * time.Minute
	next := time.Now().UTC().Add(delay)
	event.NextRetry = &next
	p.logger.Printf("event %s scheduled for retry %d in %s", eventID, event.RetryCount, delay)
	if p.metrics != nil {
		p.metrics.ObserveWebhookRetry()
	}

	p.scheduler.After(delay, func() {
		p.enqueue(eventID)
	})
}

// GetEvent returns a copy of the event, or NotFound.
func (p *Pipeline) GetEvent(eventID string) (*Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.events[eventID]
	if !ok {
		return nil, errEventNotFound(eventID)
	}
	cp := *e
	return &cp, nil
}

func random8() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(buf)
}
