package hospital

import (
	"time"

	"github.com/google/uuid"
)

// Registration lifecycle. Hospitals are never hard-deleted; a rejected
// hospital keeps its row so the email stays claimed.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Hospital maps to the hospital table.
type Hospital struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	Mobile       string     `db:"mobile" json:"mobile"`
	AddressLine1 *string    `db:"address_line1" json:"address_line1,omitempty"`
	AddressLine2 *string    `db:"address_line2" json:"address_line2,omitempty"`
	AddressLine3 *string    `db:"address_line3" json:"address_line3,omitempty"`
	City         *string    `db:"city" json:"city,omitempty"`
	State        *string    `db:"state" json:"state,omitempty"`
	Pincode      *string    `db:"pincode" json:"pincode,omitempty"`
	Status       string     `db:"status" json:"status"`
	ApprovedDate *time.Time `db:"approved_date" json:"approved_date,omitempty"`

	// UPI payment ids. App-specific ids fall back to the default.
	UPIID        *string `db:"upi_id" json:"upi_id,omitempty"`
	GPayUPIID    *string `db:"gpay_upi_id" json:"gpay_upi_id,omitempty"`
	PhonePeUPIID *string `db:"phonepay_upi_id" json:"phonepay_upi_id,omitempty"`
	PaytmUPIID   *string `db:"paytm_upi_id" json:"paytm_upi_id,omitempty"`
	BhimUPIID    *string `db:"bhim_upi_id" json:"bhim_upi_id,omitempty"`

	WhatsAppEnabled              bool    `db:"whatsapp_enabled" json:"whatsapp_enabled"`
	WhatsAppConfirmationTemplate *string `db:"whatsapp_confirmation_template" json:"whatsapp_confirmation_template,omitempty"`
	WhatsAppFollowUpTemplate     *string `db:"whatsapp_followup_template" json:"whatsapp_followup_template,omitempty"`
	WhatsAppReminderTemplate     *string `db:"whatsapp_reminder_template" json:"whatsapp_reminder_template,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PaymentInfo is the UPI id set exposed to booking frontends. Missing
// app-specific ids fall back to the default id.
type PaymentInfo struct {
	UPIID        string `json:"upi_id"`
	GPayUPIID    string `json:"gpay_upi_id"`
	PhonePeUPIID string `json:"phonepay_upi_id"`
	PaytmUPIID   string `json:"paytm_upi_id"`
	BhimUPIID    string `json:"bhim_upi_id"`
}

// fallbackUPIID is served when no approved hospital has UPI ids configured.
const fallbackUPIID = "hospital@upi"

// PaymentInfo resolves the hospital's UPI ids with default fallbacks.
func (h *Hospital) PaymentInfo() PaymentInfo {
	def := fallbackUPIID
	if h.UPIID != nil && *h.UPIID != "" {
		def = *h.UPIID
	}
	return PaymentInfo{
		UPIID:        def,
		GPayUPIID:    orDefault(h.GPayUPIID, def),
		PhonePeUPIID: orDefault(h.PhonePeUPIID, def),
		PaytmUPIID:   orDefault(h.PaytmUPIID, def),
		BhimUPIID:    orDefault(h.BhimUPIID, def),
	}
}

// DefaultPaymentInfo is returned when no approved hospital exists yet.
func DefaultPaymentInfo() PaymentInfo {
	return PaymentInfo{
		UPIID:        fallbackUPIID,
		GPayUPIID:    fallbackUPIID,
		PhonePeUPIID: fallbackUPIID,
		PaytmUPIID:   fallbackUPIID,
		BhimUPIID:    fallbackUPIID,
	}
}

func orDefault(s *string, def string) string {
	if s != nil && *s != "" {
		return *s
	}
	return def
}

// WhatsAppSettings is the partial-update payload for messaging settings.
// Nil fields are left untouched.
type WhatsAppSettings struct {
	Enabled              *bool   `json:"whatsapp_enabled,omitempty"`
	ConfirmationTemplate *string `json:"whatsapp_confirmation_template,omitempty"`
	FollowUpTemplate     *string `json:"whatsapp_followup_template,omitempty"`
	ReminderTemplate     *string `json:"whatsapp_reminder_template,omitempty"`
}
