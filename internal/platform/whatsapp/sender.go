package whatsapp

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DeliveryStatus is the outcome recorded for a delivery attempt.
type DeliveryStatus string

const (
	DeliverySuccess DeliveryStatus = "success"
	DeliveryFailed  DeliveryStatus = "failed"
)

// Record is the audit row written for every delivery attempt. RetryCount is
// 0 for the first attempt and increments per retry of the same message.
type Record struct {
	HospitalID string
	Recipient  string
	Kind       MessageKind
	Body       string
	Status     DeliveryStatus
	Error      string
	RetryCount int
	SentAt     time.Time
}

// Recorder persists delivery outcomes. The messaging domain implements it
// over Postgres.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

func WithMaxRetries(n int) SenderOption {
	return func(s *Sender) { s.maxRetries = n }
}

func WithRetryDelays(delays []time.Duration) SenderOption {
	return func(s *Sender) { s.retryDelays = delays }
}

func WithSendTimeout(d time.Duration) SenderOption {
	return func(s *Sender) { s.sendTimeout = d }
}

// Sender delivers messages through the session manager with bounded retries
// and records every attempt. It never blocks a request handler; callers
// submit sends through the background task dispatcher.
type Sender struct {
	sessions    *SessionManager
	recorder    Recorder
	logger      zerolog.Logger
	maxRetries  int
	retryDelays []time.Duration
	sendTimeout time.Duration
}

func NewSender(sessions *SessionManager, recorder Recorder, logger zerolog.Logger, opts ...SenderOption) *Sender {
	s := &Sender{
		sessions:    sessions,
		recorder:    recorder,
		logger:      logger,
		maxRetries:  3,
		retryDelays: []time.Duration{1 * time.Second, 5 * time.Second, 15 * time.Second},
		sendTimeout: 30 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Send delivers one message, retrying transient failures up to maxRetries
// times. Every attempt is recorded; a failed final attempt stays queryable
// in the log rather than being swallowed.
func (s *Sender) Send(ctx context.Context, hospitalID, to string, kind MessageKind, body string) error {
	var lastErr error

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := s.retryDelays[len(s.retryDelays)-1]
			if attempt-1 < len(s.retryDelays) {
				delay = s.retryDelays[attempt-1]
			}
			select {
			case <-ctx.Done():
				return lastErr
			case <-time.After(delay):
			}
		}

		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		err := s.sessions.Send(sendCtx, hospitalID, to, body)
		cancel()

		s.record(ctx, Record{
			HospitalID: hospitalID,
			Recipient:  to,
			Kind:       kind,
			Body:       body,
			Status:     outcome(err),
			Error:      errString(err),
			RetryCount: attempt,
			SentAt:     time.Now().UTC(),
		})

		if err == nil {
			return nil
		}
		lastErr = err

		// A missing session will not heal within the retry window.
		if err == ErrNoSession || err == ErrSessionUnavailable {
			return lastErr
		}

		s.logger.Warn().
			Str("hospital_id", hospitalID).
			Str("recipient", to).
			Str("kind", string(kind)).
			Int("attempt", attempt+1).
			Err(err).
			Msg("whatsapp send attempt failed")
	}

	return lastErr
}

func (s *Sender) record(ctx context.Context, rec Record) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Error().
			Str("hospital_id", rec.HospitalID).
			Err(err).
			Msg("recording whatsapp delivery outcome")
	}
}

func outcome(err error) DeliveryStatus {
	if err != nil {
		return DeliveryFailed
	}
	return DeliverySuccess
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
