package whatsapp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type memRecorder struct {
	mu      sync.Mutex
	records []Record
}

func (r *memRecorder) Record(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *memRecorder) all() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

func (r *memRecorder) last(t *testing.T) Record {
	t.Helper()
	recs := r.all()
	if len(recs) == 0 {
		t.Fatal("no records")
	}
	return recs[len(recs)-1]
}

func activeManager(t *testing.T, port *fakePort) *SessionManager {
	t.Helper()
	m := newTestManager(port)
	m.Init(context.Background(), "hosp-1")
	port.setReady(true)
	waitForStatus(t, m, "hosp-1", StatusActive)
	return m
}

func fastRetries() SenderOption {
	return WithRetryDelays([]time.Duration{time.Millisecond, time.Millisecond, time.Millisecond})
}

func TestSenderRecordsSuccess(t *testing.T) {
	port := &fakePort{qr: "qr"}
	m := activeManager(t, port)
	rec := &memRecorder{}
	s := NewSender(m, rec, zerolog.Nop(), fastRetries())

	err := s.Send(context.Background(), "hosp-1", "+911234567890", KindConfirmation, "confirmed")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	got := rec.last(t)
	if got.Status != DeliverySuccess {
		t.Errorf("status = %q, want success", got.Status)
	}
	if got.RetryCount != 0 {
		t.Errorf("retry_count = %d, want 0", got.RetryCount)
	}
	if got.Kind != KindConfirmation {
		t.Errorf("kind = %q, want confirmation", got.Kind)
	}
	if got.HospitalID != "hosp-1" || got.Recipient != "+911234567890" {
		t.Errorf("wrong record: %+v", got)
	}
}

func TestSenderRetriesTransientFailure(t *testing.T) {
	port := &fakePort{qr: "qr", sendFail: 2}
	m := activeManager(t, port)
	rec := &memRecorder{}
	s := NewSender(m, rec, zerolog.Nop(), fastRetries())

	err := s.Send(context.Background(), "hosp-1", "+911234567890", KindReminder, "see you tomorrow")
	if err != nil {
		t.Fatalf("send should succeed on third attempt: %v", err)
	}

	recs := rec.all()
	if len(recs) != 3 {
		t.Fatalf("recorded %d attempts, want 3", len(recs))
	}
	for i, r := range recs[:2] {
		if r.Status != DeliveryFailed || r.RetryCount != i {
			t.Errorf("attempt %d: status=%q retry_count=%d", i, r.Status, r.RetryCount)
		}
	}
	if recs[2].Status != DeliverySuccess || recs[2].RetryCount != 2 {
		t.Errorf("final attempt: %+v", recs[2])
	}
	if len(port.sent) != 1 {
		t.Errorf("delivered %d messages, want 1", len(port.sent))
	}
}

func TestSenderRecordsFailureAfterRetriesExhausted(t *testing.T) {
	port := &fakePort{qr: "qr", sendFail: 100}
	m := activeManager(t, port)
	rec := &memRecorder{}
	s := NewSender(m, rec, zerolog.Nop(), fastRetries(), WithMaxRetries(2))

	err := s.Send(context.Background(), "hosp-1", "+911234567890", KindFollowUp, "follow up")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}

	recs := rec.all()
	if len(recs) != 3 {
		t.Fatalf("recorded %d attempts, want 3", len(recs))
	}
	got := rec.last(t)
	if got.Status != DeliveryFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.RetryCount != 2 {
		t.Errorf("retry_count = %d, want 2", got.RetryCount)
	}
	if got.Error == "" {
		t.Error("failure record should carry the error message")
	}
}

func TestSenderDoesNotRetryMissingSession(t *testing.T) {
	port := &fakePort{qr: "qr"}
	m := newTestManager(port) // no Init: no session
	rec := &memRecorder{}
	s := NewSender(m, rec, zerolog.Nop(), fastRetries())

	start := time.Now()
	err := s.Send(context.Background(), "hosp-1", "+911234567890", KindConfirmation, "hi")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("missing session should fail fast, not retry")
	}

	got := rec.last(t)
	if got.Status != DeliveryFailed || got.RetryCount != 0 {
		t.Errorf("expected failed record with retry_count 0, got %+v", got)
	}
}
