package hospital

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/platform/whatsapp"
)

// -- Mocks --

type mockRepo struct {
	hospitals map[uuid.UUID]*Hospital
}

func newMockRepo() *mockRepo {
	return &mockRepo{hospitals: make(map[uuid.UUID]*Hospital)}
}

func (m *mockRepo) Create(_ context.Context, h *Hospital) error {
	h.ID = uuid.New()
	h.CreatedAt = time.Now()
	h.UpdatedAt = time.Now()
	m.hospitals[h.ID] = h
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Hospital, error) {
	h, ok := m.hospitals[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return h, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*Hospital, error) {
	for _, h := range m.hospitals {
		if h.Email == email {
			return h, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockRepo) Update(_ context.Context, h *Hospital) error {
	m.hospitals[h.ID] = h
	return nil
}

func (m *mockRepo) List(_ context.Context, status string, limit, offset int) ([]*Hospital, int, error) {
	var result []*Hospital
	for _, h := range m.hospitals {
		if status == "" || h.Status == status {
			result = append(result, h)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) FirstApproved(_ context.Context) (*Hospital, error) {
	for _, h := range m.hospitals {
		if h.Status == StatusApproved {
			return h, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

type mockMailer struct {
	mu    sync.Mutex
	sent  []string // "to|subject"
	fail  bool
	bodys []string
}

func (m *mockMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, to+"|"+subject)
	m.bodys = append(m.bodys, body)
	return nil
}

// syncDispatcher runs tasks inline so tests observe side effects immediately.
type syncDispatcher struct{}

func (syncDispatcher) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type idlePort struct{}

func (idlePort) Open(ctx context.Context) (string, error)       { return "qr", nil }
func (idlePort) Ready(ctx context.Context) (bool, error)        { return true, nil }
func (idlePort) Send(ctx context.Context, to, body string) error { return nil }
func (idlePort) Close(ctx context.Context) error                { return nil }

func newTestService(repo Repository, mail *mockMailer) *Service {
	sessions := whatsapp.NewSessionManager(func(string) whatsapp.Port { return idlePort{} }, zerolog.Nop())
	return NewService(repo, sessions, mail, syncDispatcher{}, "admin@carebook.example", zerolog.Nop())
}

// -- Tests --

func TestRegisterCreatesPendingAndEmailsAdmin(t *testing.T) {
	repo := newMockRepo()
	mail := &mockMailer{}
	svc := newTestService(repo, mail)

	h := &Hospital{Name: "City Care", Email: "city@care.example", Mobile: "+911234567890"}
	if err := svc.Register(context.Background(), h); err != nil {
		t.Fatalf("register: %v", err)
	}

	if h.Status != StatusPending {
		t.Errorf("status = %q, want pending", h.Status)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(mail.sent))
	}
	if !strings.Contains(mail.sent[0], "admin@carebook.example") {
		t.Errorf("email went to %q", mail.sent[0])
	}
	if !strings.Contains(mail.bodys[0], "City Care") || !strings.Contains(mail.bodys[0], h.ID.String()) {
		t.Error("email body missing hospital details")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockMailer{})

	h := &Hospital{Name: "City Care", Email: "city@care.example", Mobile: "+911234567890"}
	if err := svc.Register(context.Background(), h); err != nil {
		t.Fatalf("first register: %v", err)
	}

	dup := &Hospital{Name: "Other", Email: "city@care.example", Mobile: "+919999999999"}
	err := svc.Register(context.Background(), dup)
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterSurvivesEmailFailure(t *testing.T) {
	repo := newMockRepo()
	mail := &mockMailer{fail: true}
	svc := newTestService(repo, mail)

	h := &Hospital{Name: "City Care", Email: "city@care.example", Mobile: "+911234567890"}
	if err := svc.Register(context.Background(), h); err != nil {
		t.Fatalf("register should not fail on email error: %v", err)
	}
	if len(repo.hospitals) != 1 {
		t.Error("hospital row missing after email failure")
	}
}

func TestApproveSetsDateAndStatus(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockMailer{})

	h := &Hospital{Name: "City Care", Email: "c@c.example", Mobile: "1"}
	svc.Register(context.Background(), h)

	approved, err := svc.Approve(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusApproved {
		t.Errorf("status = %q", approved.Status)
	}
	if approved.ApprovedDate == nil {
		t.Error("approved_date not set")
	}

	rejected, err := svc.Reject(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != StatusRejected {
		t.Errorf("status after reject = %q", rejected.Status)
	}
}

func TestApproveUnknownHospital(t *testing.T) {
	svc := newTestService(newMockRepo(), &mockMailer{})
	_, err := svc.Approve(context.Background(), uuid.New())
	if !errors.Is(err, ErrHospitalNotFound) {
		t.Errorf("expected ErrHospitalNotFound, got %v", err)
	}
}

func TestGetPaymentInfoFallbacks(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockMailer{})

	// No approved hospital at all: placeholder ids.
	info, err := svc.GetPaymentInfo(context.Background(), nil)
	if err != nil {
		t.Fatalf("payment info: %v", err)
	}
	if info.UPIID != "hospital@upi" {
		t.Errorf("fallback upi = %q", info.UPIID)
	}

	upi := "citycare@okaxis"
	gpay := "citycare@okgoogle"
	h := &Hospital{Name: "City Care", Email: "c@c.example", Mobile: "1", UPIID: &upi, GPayUPIID: &gpay}
	svc.Register(context.Background(), h)
	svc.Approve(context.Background(), h.ID)

	info, err = svc.GetPaymentInfo(context.Background(), &h.ID)
	if err != nil {
		t.Fatalf("payment info: %v", err)
	}
	if info.GPayUPIID != "citycare@okgoogle" {
		t.Errorf("gpay = %q", info.GPayUPIID)
	}
	// Unset app ids fall back to the default id.
	if info.PaytmUPIID != "citycare@okaxis" || info.BhimUPIID != "citycare@okaxis" {
		t.Errorf("fallback ids = %q / %q", info.PaytmUPIID, info.BhimUPIID)
	}
}

func TestGetPaymentInfoPendingHospitalHidden(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockMailer{})

	upi := "pending@upi"
	h := &Hospital{Name: "Pending", Email: "p@p.example", Mobile: "1", UPIID: &upi}
	svc.Register(context.Background(), h)

	info, _ := svc.GetPaymentInfo(context.Background(), &h.ID)
	if info.UPIID != "hospital@upi" {
		t.Errorf("pending hospital's upi leaked: %q", info.UPIID)
	}
}

func TestUpdateWhatsAppSettingsPartial(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockMailer{})

	h := &Hospital{Name: "City Care", Email: "c@c.example", Mobile: "1"}
	svc.Register(context.Background(), h)

	enabled := true
	tmpl := "Namaste {{patient_name}}"
	updated, err := svc.UpdateWhatsAppSettings(context.Background(), h.ID, WhatsAppSettings{
		Enabled:              &enabled,
		ConfirmationTemplate: &tmpl,
	})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if !updated.WhatsAppEnabled {
		t.Error("whatsapp not enabled")
	}
	if updated.WhatsAppConfirmationTemplate == nil || *updated.WhatsAppConfirmationTemplate != tmpl {
		t.Error("confirmation template not stored")
	}
	if updated.WhatsAppReminderTemplate != nil {
		t.Error("untouched field changed")
	}
}

func TestInitWhatsAppEnablesAndOpensSession(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &mockMailer{})

	h := &Hospital{Name: "City Care", Email: "c@c.example", Mobile: "1"}
	svc.Register(context.Background(), h)

	state, err := svc.InitWhatsApp(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("init whatsapp: %v", err)
	}
	if state.Status != whatsapp.StatusInitializing {
		t.Errorf("status = %q, want initializing", state.Status)
	}
	if !repo.hospitals[h.ID].WhatsAppEnabled {
		t.Error("whatsapp_enabled not flipped on")
	}

	report, err := svc.WhatsAppStatus(context.Background(), h.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if report.SessionStatus == whatsapp.StatusExpired {
		t.Error("session should exist after init")
	}

	if err := svc.CloseWhatsApp(context.Background(), h.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	report, _ = svc.WhatsAppStatus(context.Background(), h.ID)
	if report.SessionActive {
		t.Error("session still active after close")
	}
}
