package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/carebook/internal/domain/hospital"
	"github.com/carebook/carebook/internal/domain/scheduling"
	"github.com/carebook/carebook/internal/domain/surgery"
)

var (
	ErrBookingRequired  = errors.New("either appointment_id or operation_id is required")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrForbidden        = errors.New("not authorized to pay for this booking")
	ErrNoHospital       = errors.New("no hospital associated with this booking")
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrAlreadyCompleted = errors.New("payment already completed")
)

// DefaultAmount is the consultation fee charged when the caller does not
// specify one, in rupees.
const DefaultAmount = "500"

// Hospitals resolves hospital records for UPI details.
type Hospitals interface {
	Get(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error)
}

// CreateRequest asks for a payment against one booking.
type CreateRequest struct {
	AppointmentID *uuid.UUID
	OperationID   *uuid.UUID
	Amount        string
}

type Service struct {
	payments  PaymentRepository
	appts     scheduling.AppointmentRepository
	ops       surgery.OperationRepository
	hospitals Hospitals
	now       func() time.Time
}

func NewService(payments PaymentRepository, appts scheduling.AppointmentRepository,
	ops surgery.OperationRepository, hospitals Hospitals) *Service {
	return &Service{
		payments:  payments,
		appts:     appts,
		ops:       ops,
		hospitals: hospitals,
		now:       time.Now,
	}
}

// Create stores a pending payment for the caller's booking and builds the
// per-app QR codes and deep links. An appointment reference wins when both
// are supplied.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, userHospitalID *uuid.UUID, req CreateRequest) (*PaymentRequest, error) {
	if req.AppointmentID == nil && req.OperationID == nil {
		return nil, ErrBookingRequired
	}
	amount := req.Amount
	if amount == "" {
		amount = DefaultAmount
	}

	var hospitalID *uuid.UUID
	switch {
	case req.AppointmentID != nil:
		appt, err := s.appts.GetByID(ctx, *req.AppointmentID)
		if err != nil {
			return nil, ErrBookingNotFound
		}
		if appt.PatientID != userID {
			return nil, ErrForbidden
		}
		hospitalID = appt.HospitalID
	default:
		op, err := s.ops.GetByID(ctx, *req.OperationID)
		if err != nil {
			return nil, ErrBookingNotFound
		}
		if op.PatientID != userID {
			return nil, ErrForbidden
		}
		hospitalID = op.HospitalID
	}
	if hospitalID == nil {
		hospitalID = userHospitalID
	}
	if hospitalID == nil {
		return nil, ErrNoHospital
	}

	h, err := s.hospitals.Get(ctx, *hospitalID)
	if err != nil {
		return nil, ErrNoHospital
	}
	info := h.PaymentInfo()

	p := &Payment{
		AppointmentID: req.AppointmentID,
		OperationID:   req.OperationID,
		UserID:        userID,
		HospitalID:    *hospitalID,
		Amount:        amount,
		Status:        StatusPending,
		TransactionID: NewTransactionID(s.now()),
	}
	if req.AppointmentID != nil {
		p.OperationID = nil
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("storing payment: %w", err)
	}

	return &PaymentRequest{
		PaymentID:     p.ID,
		TransactionID: p.TransactionID,
		Amount:        amount,
		UPIID:         info.UPIID,
		UPIURL:        UPIURL("upi", info.UPIID, amount, p.TransactionID),
		QRCodes: map[string]string{
			AppGPay:    QRDataURL(info.GPayUPIID, amount, p.TransactionID),
			AppPhonePe: QRDataURL(info.PhonePeUPIID, amount, p.TransactionID),
			AppPaytm:   QRDataURL(info.PaytmUPIID, amount, p.TransactionID),
			AppBhim:    QRDataURL(info.BhimUPIID, amount, p.TransactionID),
		},
		PaymentLinks: map[string]string{
			AppGPay:     UPIURL(appSchemes[AppGPay], info.GPayUPIID, amount, p.TransactionID),
			AppPhonePe:  UPIURL(appSchemes[AppPhonePe], info.PhonePeUPIID, amount, p.TransactionID),
			AppPaytm:    UPIURL(appSchemes[AppPaytm], info.PaytmUPIID, amount, p.TransactionID),
			AppBhim:     UPIURL(appSchemes[AppBhim], info.BhimUPIID, amount, p.TransactionID),
			"universal": UPIURL("upi", info.UPIID, amount, p.TransactionID),
		},
		Status: p.Status,
	}, nil
}

// Verify reports the current status of the caller's payment. Gateway
// webhook verification is a manual step for now.
func (s *Service) Verify(ctx context.Context, paymentID, userID uuid.UUID) (*Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil || p.UserID != userID {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

// Complete marks the payment as completed and confirms the linked booking.
func (s *Service) Complete(ctx context.Context, paymentID uuid.UUID, upiTransactionID string) (*Payment, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	if p.Status == StatusCompleted {
		return nil, ErrAlreadyCompleted
	}

	now := s.now()
	p.Status = StatusCompleted
	p.PaymentDate = &now
	if upiTransactionID != "" {
		p.UPITransactionID = &upiTransactionID
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}

	switch {
	case p.AppointmentID != nil:
		if appt, err := s.appts.GetByID(ctx, *p.AppointmentID); err == nil {
			appt.Status = scheduling.StatusConfirmed
			if err := s.appts.Update(ctx, appt); err != nil {
				return nil, fmt.Errorf("confirming appointment: %w", err)
			}
		}
	case p.OperationID != nil:
		if op, err := s.ops.GetByID(ctx, *p.OperationID); err == nil {
			op.Status = surgery.StatusConfirmed
			if err := s.ops.Update(ctx, op); err != nil {
				return nil, fmt.Errorf("confirming operation: %w", err)
			}
		}
	}
	return p, nil
}

func (s *Service) MyPayments(ctx context.Context, userID uuid.UUID) ([]*Payment, error) {
	return s.payments.ListByUser(ctx, userID)
}

// GenerateQR builds a standalone QR code for the public booking page.
func (s *Service) GenerateQR(upiID, amount, transactionID string) (qr, txn string) {
	if amount == "" {
		amount = DefaultAmount
	}
	if transactionID == "" {
		transactionID = "HOME" + s.now().Format("20060102150405")
	}
	return QRDataURL(upiID, amount, transactionID), transactionID
}
