package hospital

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/platform/whatsapp"
	"github.com/carebook/carebook/pkg/mailer"
)

var (
	ErrHospitalNotFound = errors.New("hospital not found")
	ErrEmailTaken       = errors.New("hospital with this email already registered")
)

// Dispatcher runs side effects off the request path. The submit context
// supplies the tenant scope the task will run under.
type Dispatcher interface {
	Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

type Service struct {
	hospitals  Repository
	sessions   *whatsapp.SessionManager
	mail       mailer.Sender
	tasks      Dispatcher
	adminEmail string
	logger     zerolog.Logger
}

func NewService(hospitals Repository, sessions *whatsapp.SessionManager, mail mailer.Sender, tasks Dispatcher, adminEmail string, logger zerolog.Logger) *Service {
	return &Service{
		hospitals:  hospitals,
		sessions:   sessions,
		mail:       mail,
		tasks:      tasks,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// Register creates a pending hospital and notifies the platform admin by
// email in the background. Email failure never fails the registration.
func (s *Service) Register(ctx context.Context, h *Hospital) error {
	if strings.TrimSpace(h.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(h.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(h.Mobile) == "" {
		return fmt.Errorf("mobile is required")
	}

	if existing, err := s.hospitals.GetByEmail(ctx, h.Email); err == nil && existing != nil {
		return ErrEmailTaken
	}

	h.Status = StatusPending
	if err := s.hospitals.Create(ctx, h); err != nil {
		return fmt.Errorf("creating hospital: %w", err)
	}

	registered := *h
	if err := s.tasks.Submit(ctx, "hospital-registration-email", func(ctx context.Context) error {
		return s.mail.Send(s.adminEmail,
			fmt.Sprintf("New Hospital Registration Request: %s", registered.Name),
			registrationEmailBody(&registered))
	}); err != nil {
		s.logger.Warn().Str("hospital_id", h.ID.String()).Err(err).Msg("could not enqueue registration email")
	}

	return nil
}

func registrationEmailBody(h *Hospital) string {
	var b strings.Builder
	b.WriteString("New Hospital Registration Request\n\n")
	b.WriteString("Hospital Details:\n-----------------\n")
	fmt.Fprintf(&b, "Name: %s\n", h.Name)
	fmt.Fprintf(&b, "Email: %s\n", h.Email)
	fmt.Fprintf(&b, "Mobile: %s\n", h.Mobile)
	fmt.Fprintf(&b, "Address Line 1: %s\n", strOr(h.AddressLine1, "N/A"))
	fmt.Fprintf(&b, "Address Line 2: %s\n", strOr(h.AddressLine2, "N/A"))
	fmt.Fprintf(&b, "Address Line 3: %s\n", strOr(h.AddressLine3, "N/A"))
	fmt.Fprintf(&b, "City: %s\n", strOr(h.City, "N/A"))
	fmt.Fprintf(&b, "State: %s\n", strOr(h.State, "N/A"))
	fmt.Fprintf(&b, "Pincode: %s\n\n", strOr(h.Pincode, "N/A"))
	b.WriteString("Payment UPI IDs:\n----------------\n")
	fmt.Fprintf(&b, "Default UPI ID: %s\n", strOr(h.UPIID, "N/A"))
	fmt.Fprintf(&b, "Google Pay: %s\n", strOr(h.GPayUPIID, "N/A"))
	fmt.Fprintf(&b, "PhonePe: %s\n", strOr(h.PhonePeUPIID, "N/A"))
	fmt.Fprintf(&b, "Paytm: %s\n", strOr(h.PaytmUPIID, "N/A"))
	fmt.Fprintf(&b, "BHIM UPI: %s\n\n", strOr(h.BhimUPIID, "N/A"))
	fmt.Fprintf(&b, "Hospital ID: %s\n\n", h.ID)
	b.WriteString("Please review and approve/reject this registration.\n")
	return b.String()
}

func strOr(s *string, def string) string {
	if s != nil && *s != "" {
		return *s
	}
	return def
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	h, err := s.hospitals.GetByID(ctx, id)
	if err != nil {
		return nil, ErrHospitalNotFound
	}
	return h, nil
}

func (s *Service) List(ctx context.Context, status string, limit, offset int) ([]*Hospital, int, error) {
	return s.hospitals.List(ctx, status, limit, offset)
}

func (s *Service) ListApproved(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.hospitals.List(ctx, StatusApproved, limit, offset)
}

// Approve flips a hospital to approved and stamps the approval date.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	h, err := s.hospitals.GetByID(ctx, id)
	if err != nil {
		return nil, ErrHospitalNotFound
	}
	now := time.Now().UTC()
	h.Status = StatusApproved
	h.ApprovedDate = &now
	if err := s.hospitals.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("approving hospital: %w", err)
	}
	return h, nil
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	h, err := s.hospitals.GetByID(ctx, id)
	if err != nil {
		return nil, ErrHospitalNotFound
	}
	h.Status = StatusRejected
	if err := s.hospitals.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("rejecting hospital: %w", err)
	}
	return h, nil
}

// GetPaymentInfo returns the UPI ids for the given hospital, or for the
// first approved hospital when none is specified. With no approved
// hospital at all, placeholder ids are returned so booking pages render.
func (s *Service) GetPaymentInfo(ctx context.Context, hospitalID *uuid.UUID) (PaymentInfo, error) {
	var h *Hospital
	var err error

	if hospitalID != nil {
		h, err = s.hospitals.GetByID(ctx, *hospitalID)
		if err != nil || h.Status != StatusApproved {
			return DefaultPaymentInfo(), nil
		}
	} else {
		h, err = s.hospitals.FirstApproved(ctx)
		if err != nil {
			return DefaultPaymentInfo(), nil
		}
	}
	return h.PaymentInfo(), nil
}

// UpdateWhatsAppSettings applies a partial settings update.
func (s *Service) UpdateWhatsAppSettings(ctx context.Context, id uuid.UUID, settings WhatsAppSettings) (*Hospital, error) {
	h, err := s.hospitals.GetByID(ctx, id)
	if err != nil {
		return nil, ErrHospitalNotFound
	}
	if settings.Enabled != nil {
		h.WhatsAppEnabled = *settings.Enabled
	}
	if settings.ConfirmationTemplate != nil {
		h.WhatsAppConfirmationTemplate = settings.ConfirmationTemplate
	}
	if settings.FollowUpTemplate != nil {
		h.WhatsAppFollowUpTemplate = settings.FollowUpTemplate
	}
	if settings.ReminderTemplate != nil {
		h.WhatsAppReminderTemplate = settings.ReminderTemplate
	}
	if err := s.hospitals.Update(ctx, h); err != nil {
		return nil, fmt.Errorf("updating whatsapp settings: %w", err)
	}
	return h, nil
}

// WhatsAppStatusReport is the admin UI view of one hospital's session.
type WhatsAppStatusReport struct {
	HospitalID      uuid.UUID       `json:"hospital_id"`
	WhatsAppEnabled bool            `json:"whatsapp_enabled"`
	SessionStatus   whatsapp.Status `json:"session_status"`
	SessionActive   bool            `json:"session_active"`
	QR              string          `json:"qr,omitempty"`
}

func (s *Service) WhatsAppStatus(ctx context.Context, id uuid.UUID) (*WhatsAppStatusReport, error) {
	h, err := s.hospitals.GetByID(ctx, id)
	if err != nil {
		return nil, ErrHospitalNotFound
	}
	state := s.sessions.Status(id.String())
	return &WhatsAppStatusReport{
		HospitalID:      id,
		WhatsAppEnabled: h.WhatsAppEnabled,
		SessionStatus:   state.Status,
		SessionActive:   state.Status == whatsapp.StatusActive,
		QR:              state.QR,
	}, nil
}

// InitWhatsApp enables messaging for the hospital and opens its session.
// Returns immediately; pairing completes out of band via QR scan.
func (s *Service) InitWhatsApp(ctx context.Context, id uuid.UUID) (whatsapp.SessionState, error) {
	h, err := s.hospitals.GetByID(ctx, id)
	if err != nil {
		return whatsapp.SessionState{}, ErrHospitalNotFound
	}
	if !h.WhatsAppEnabled {
		h.WhatsAppEnabled = true
		if err := s.hospitals.Update(ctx, h); err != nil {
			return whatsapp.SessionState{}, fmt.Errorf("enabling whatsapp: %w", err)
		}
	}
	return s.sessions.Init(ctx, id.String())
}

func (s *Service) CloseWhatsApp(ctx context.Context, id uuid.UUID) error {
	if _, err := s.hospitals.GetByID(ctx, id); err != nil {
		return ErrHospitalNotFound
	}
	return s.sessions.Close(ctx, id.String())
}
