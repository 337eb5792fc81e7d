package billing

import (
	"time"

	"github.com/google/uuid"
)

// Payment lifecycle states. Completion is a manual step until a gateway
// webhook integration lands.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// UPI app identifiers used as keys in QR code and deep-link maps.
const (
	AppGPay    = "gpay"
	AppPhonePe = "phonepay"
	AppPaytm   = "paytm"
	AppBhim    = "bhimupi"
)

// Payment is a UPI payment request against an appointment or operation.
// Exactly one of AppointmentID and OperationID is set.
type Payment struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	AppointmentID    *uuid.UUID `json:"appointment_id,omitempty" db:"appointment_id"`
	OperationID      *uuid.UUID `json:"operation_id,omitempty" db:"operation_id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	HospitalID       uuid.UUID  `json:"hospital_id" db:"hospital_id"`
	Amount           string     `json:"amount" db:"amount"`
	Status           string     `json:"status" db:"status"`
	TransactionID    string     `json:"transaction_id" db:"transaction_id"`
	UPITransactionID *string    `json:"upi_transaction_id,omitempty" db:"upi_transaction_id"`
	PaymentDate      *time.Time `json:"payment_date,omitempty" db:"payment_date"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// PaymentRequest is the response to a create call: the stored payment plus
// the per-app QR codes and deep links the booking page renders.
type PaymentRequest struct {
	PaymentID     uuid.UUID         `json:"payment_id"`
	TransactionID string            `json:"transaction_id"`
	Amount        string            `json:"amount"`
	UPIID         string            `json:"upi_id"`
	UPIURL        string            `json:"upi_url"`
	QRCodes       map[string]string `json:"qr_codes"`
	PaymentLinks  map[string]string `json:"payment_links"`
	Status        string            `json:"status"`
}
