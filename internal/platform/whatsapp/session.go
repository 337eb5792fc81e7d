package whatsapp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SessionState is the externally visible view of a hospital's session.
type SessionState struct {
	HospitalID string `json:"hospital_id"`
	Status     Status `json:"status"`
	QR         string `json:"qr,omitempty"`
}

type session struct {
	port   Port
	status Status
	qr     string

	// sendMu serializes outbound messages: the external session holds one
	// conversation at a time, so overlapping Send calls would interleave.
	sendMu sync.Mutex
}

// SessionManager owns every hospital session in the process. Opening is
// idempotent and non-blocking: Init returns immediately with status
// "initializing" while pairing proceeds in the background.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*session
	factory  PortFactory
	logger   zerolog.Logger

	// pollInterval controls how often background pairing polls Ready.
	pollInterval time.Duration
}

func NewSessionManager(factory PortFactory, logger zerolog.Logger) *SessionManager {
	return &SessionManager{
		sessions:     make(map[string]*session),
		factory:      factory,
		logger:       logger,
		pollInterval: 2 * time.Second,
	}
}

// Init opens a session for the hospital. If a session already exists its
// current state is returned unchanged, so repeated calls from an impatient
// admin are harmless.
func (m *SessionManager) Init(ctx context.Context, hospitalID string) (SessionState, error) {
	m.mu.Lock()
	if s, ok := m.sessions[hospitalID]; ok {
		state := SessionState{HospitalID: hospitalID, Status: s.status, QR: s.qr}
		m.mu.Unlock()
		return state, nil
	}

	s := &session{
		port:   m.factory(hospitalID),
		status: StatusInitializing,
	}
	m.sessions[hospitalID] = s
	m.mu.Unlock()

	go m.pair(hospitalID, s)

	return SessionState{HospitalID: hospitalID, Status: StatusInitializing}, nil
}

// pair runs the pairing handshake off the request path.
func (m *SessionManager) pair(hospitalID string, s *session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	qr, err := s.port.Open(ctx)
	if err != nil {
		m.logger.Error().Str("hospital_id", hospitalID).Err(err).Msg("whatsapp pairing failed")
		m.drop(hospitalID)
		return
	}

	m.mu.Lock()
	s.qr = qr
	m.mu.Unlock()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Warn().Str("hospital_id", hospitalID).Msg("whatsapp pairing timed out")
			m.drop(hospitalID)
			return
		case <-ticker.C:
			ready, err := s.port.Ready(ctx)
			if err != nil {
				m.logger.Error().Str("hospital_id", hospitalID).Err(err).Msg("whatsapp readiness check failed")
				m.drop(hospitalID)
				return
			}
			if ready {
				m.mu.Lock()
				s.status = StatusActive
				s.qr = ""
				m.mu.Unlock()
				m.logger.Info().Str("hospital_id", hospitalID).Msg("whatsapp session ready")
				return
			}
		}
	}
}

func (m *SessionManager) drop(hospitalID string) {
	m.mu.Lock()
	delete(m.sessions, hospitalID)
	m.mu.Unlock()
}

// Status reports the current session state, including the QR payload while
// pairing is pending so the admin UI can render it.
func (m *SessionManager) Status(hospitalID string) SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[hospitalID]
	if !ok {
		return SessionState{HospitalID: hospitalID, Status: StatusExpired}
	}
	return SessionState{HospitalID: hospitalID, Status: s.status, QR: s.qr}
}

// Send delivers a message through the hospital's session. Messages to the
// same hospital go out one at a time; different hospitals do not block
// each other.
func (m *SessionManager) Send(ctx context.Context, hospitalID, to, body string) error {
	m.mu.Lock()
	s, ok := m.sessions[hospitalID]
	if !ok {
		m.mu.Unlock()
		return ErrNoSession
	}
	if s.status != StatusActive {
		m.mu.Unlock()
		return ErrSessionUnavailable
	}
	m.mu.Unlock()

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if err := s.port.Send(ctx, to, body); err != nil {
		return fmt.Errorf("sending whatsapp message: %w", err)
	}
	return nil
}

// Close tears down the hospital's session. Closing a hospital with no
// session is a no-op.
func (m *SessionManager) Close(ctx context.Context, hospitalID string) error {
	m.mu.Lock()
	s, ok := m.sessions[hospitalID]
	if ok {
		delete(m.sessions, hospitalID)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	if err := s.port.Close(ctx); err != nil {
		return fmt.Errorf("closing whatsapp session: %w", err)
	}
	return nil
}

// CloseAll tears down every session, used during graceful shutdown.
func (m *SessionManager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for hospitalID, s := range sessions {
		if err := s.port.Close(ctx); err != nil {
			m.logger.Error().Str("hospital_id", hospitalID).Err(err).Msg("closing whatsapp session")
		}
	}
}
