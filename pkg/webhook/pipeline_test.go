package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"
)

var errFlaky = errors.New("transient handler failure")

// immediateScheduler runs the scheduled function right away (on a new
// goroutine, to avoid re-entrant locking), so retry tests don't have
// to sleep for real minutes.
type immediateScheduler struct{}

func (immediateScheduler) After(d time.Duration, f func()) { go f() }

func signFor(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func waitFor(t *testing.T, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestVerify_RoundTrip(t *testing.T) {
	partner := &Partner{PartnerID: "illumina", Secret: "s3cr3t", Active: true}
	payload := []byte(`{"event_type":"SEQUENCING_COMPLETE"}`)
	sig := signFor(partner.Secret, payload)
	if !Verify(partner, payload, sig) {
		t.Fatalf("expected valid signature to verify")
	}
	if Verify(partner, payload, sig[:len(sig)-1]+"0") {
		t.Fatalf("expected tampered signature to fail verification")
	}
	if Verify(partner, []byte(`{"event_type":"OTHER"}`), sig) {
		t.Fatalf("expected tampered payload to fail verification")
	}
}

func TestIngest_UnsupportedEventRejected(t *testing.T) {
	p := New()
	defer p.Close()
	p.RegisterPartner(Partner{
		PartnerID:       "illumina",
		Secret:          "s3cr3t",
		Active:          true,
		SupportedEvents: map[EventType]bool{EventQCComplete: true},
		MaxRetries:      3,
	})
	payload := []byte(`{}`)
	sig := signFor("s3cr3t", payload)
	_, err := p.Ingest("illumina", EventSequencingComplete, map[string]any{}, payload, sig)
	if err == nil {
		t.Fatalf("expected unsupported event error")
	}
}

func TestIngest_InvalidSignatureRejected(t *testing.T) {
	p := New()
	defer p.Close()
	p.RegisterPartner(Partner{
		PartnerID:       "illumina",
		Secret:          "s3cr3t",
		Active:          true,
		SupportedEvents: map[EventType]bool{EventSequencingComplete: true},
		MaxRetries:      3,
	})
	_, err := p.Ingest("illumina", EventSequencingComplete, map[string]any{"sample_id": "s1"}, []byte(`{}`), "sha256=bogus")
	if err == nil {
		t.Fatalf("expected invalid signature error")
	}
}

func TestIngest_SuccessfulProcessingCompletes(t *testing.T) {
	p := New()
	defer p.Close()
	p.RegisterPartner(Partner{
		PartnerID:       "illumina",
		Secret:          "s3cr3t",
		Active:          true,
		SupportedEvents: map[EventType]bool{EventSequencingComplete: true},
		MaxRetries:      3,
	})
	payload := []byte(`{"event_type":"SEQUENCING_COMPLETE"}`)
	sig := signFor("s3cr3t", payload)

	event, err := p.Ingest("illumina", EventSequencingComplete, map[string]any{"sample_id": "s1"}, payload, sig)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	waitFor(t, func() bool {
		got, _ := p.GetEvent(event.EventID)
		return got != nil && got.Status == StatusCompleted
	})
}

// TestRetryThenComplete mirrors spec scenario S6: a handler that
// fails once then succeeds transitions RECEIVED -> PROCESSING ->
// RETRYING (retry_count=1) -> PROCESSING -> COMPLETED.
func TestRetryThenComplete(t *testing.T) {
	var once sync.Once
	failedOnce := make(chan struct{}, 1)

	p := New(
		WithScheduler(immediateScheduler{}),
		WithHandler(EventSequencingComplete, func(e *Event) (map[string]any, error) {
			var err error
			once.Do(func() {
				err = errFlaky
				failedOnce <- struct{}{}
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"ok": true}, nil
		}),
	)
	defer p.Close()

	p.RegisterPartner(Partner{
		PartnerID:       "illumina",
		Secret:          "s3cr3t",
		Active:          true,
		SupportedEvents: map[EventType]bool{EventSequencingComplete: true},
		MaxRetries:      3,
	})
	payload := []byte(`{"event_type":"SEQUENCING_COMPLETE"}`)
	sig := signFor("s3cr3t", payload)

	event, err := p.Ingest("illumina", EventSequencingComplete, map[string]any{"sample_id": "s1"}, payload, sig)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	<-failedOnce
	waitFor(t, func() bool {
		got, _ := p.GetEvent(event.EventID)
		return got != nil && got.Status == StatusCompleted
	})

	final, _ := p.GetEvent(event.EventID)
	if final.RetryCount != 1 {
		t.Fatalf("expected retry_count 1, got %d", final.RetryCount)
	}
}

func TestProcess_FailsPermanentlyAfterMaxRetries(t *testing.T) {
	p := New(
		WithScheduler(immediateScheduler{}),
		WithHandler(EventSequencingComplete, func(e *Event) (map[string]any, error) {
			return nil, errFlaky
		}),
	)
	defer p.Close()
	p.RegisterPartner(Partner{
		PartnerID:       "illumina",
		Secret:          "s3cr3t",
		Active:          true,
		SupportedEvents: map[EventType]bool{EventSequencingComplete: true},
		MaxRetries:      1,
	})
	payload := []byte(`{"event_type":"SEQUENCING_COMPLETE"}`)
	sig := signFor("s3cr3t", payload)

	event, err := p.Ingest("illumina", EventSequencingComplete, map[string]any{"sample_id": "s1"}, payload, sig)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	waitFor(t, func() bool {
		got, _ := p.GetEvent(event.EventID)
		return got != nil && got.Status == StatusFailed
	})
}
