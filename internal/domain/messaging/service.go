package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/carebook/carebook/internal/domain/hospital"
	"github.com/carebook/carebook/internal/platform/whatsapp"
)

var ErrHospitalNotFound = errors.New("hospital not found")

// Hospitals verifies hospital existence for log queries.
type Hospitals interface {
	Get(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error)
}

// LogReport is the log listing with its per-hospital statistics.
type LogReport struct {
	HospitalID   uuid.UUID   `json:"hospital_id"`
	HospitalName string      `json:"hospital_name"`
	Date         string      `json:"date"`
	Statistics   Statistics  `json:"statistics"`
	Logs         []*LogEntry `json:"logs"`
}

// FailedReport lists failed deliveries for manual retry.
type FailedReport struct {
	HospitalID     uuid.UUID   `json:"hospital_id"`
	FailedCount    int         `json:"failed_count"`
	FailedMessages []*LogEntry `json:"failed_messages"`
}

type Service struct {
	logs      LogRepository
	hospitals Hospitals
	now       func() time.Time
}

func NewService(logs LogRepository, hospitals Hospitals) *Service {
	return &Service{logs: logs, hospitals: hospitals, now: time.Now}
}

// Record implements whatsapp.Recorder, persisting one delivery attempt.
func (s *Service) Record(ctx context.Context, rec whatsapp.Record) error {
	hospitalID, err := uuid.Parse(rec.HospitalID)
	if err != nil {
		return err
	}
	entry := &LogEntry{
		HospitalID: hospitalID,
		Recipient:  rec.Recipient,
		Kind:       rec.Kind,
		Body:       rec.Body,
		Status:     rec.Status,
		RetryCount: rec.RetryCount,
		SentAt:     rec.SentAt,
	}
	if rec.Error != "" {
		entry.Error = &rec.Error
	}
	return s.logs.Insert(ctx, entry)
}

// Report lists a hospital's delivery log with statistics, optionally
// narrowed to a date and outcome.
func (s *Service) Report(ctx context.Context, hospitalID uuid.UUID, filter LogFilter) (*LogReport, error) {
	h, err := s.hospitals.Get(ctx, hospitalID)
	if err != nil {
		return nil, ErrHospitalNotFound
	}
	logs, err := s.logs.List(ctx, hospitalID, filter)
	if err != nil {
		return nil, err
	}

	date := s.now().Format("2006-01-02")
	if filter.Date != nil {
		date = filter.Date.Format("2006-01-02")
	}
	return &LogReport{
		HospitalID:   hospitalID,
		HospitalName: h.Name,
		Date:         date,
		Statistics:   Summarise(logs),
		Logs:         logs,
	}, nil
}

// Failed lists a hospital's failed deliveries.
func (s *Service) Failed(ctx context.Context, hospitalID uuid.UUID, date *time.Time) (*FailedReport, error) {
	if _, err := s.hospitals.Get(ctx, hospitalID); err != nil {
		return nil, ErrHospitalNotFound
	}
	logs, err := s.logs.List(ctx, hospitalID, LogFilter{Date: date, Status: string(whatsapp.DeliveryFailed)})
	if err != nil {
		return nil, err
	}
	return &FailedReport{
		HospitalID:     hospitalID,
		FailedCount:    len(logs),
		FailedMessages: logs,
	}, nil
}
