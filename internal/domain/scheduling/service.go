package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carebook/carebook/internal/domain/hospital"
	"github.com/carebook/carebook/internal/domain/identity"
	"github.com/carebook/carebook/internal/platform/csvexport"
	"github.com/carebook/carebook/internal/platform/whatsapp"
)

var (
	ErrInvalidSlot         = errors.New("invalid time slot")
	ErrPastDate            = errors.New("cannot book appointments for past dates")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrSlotTaken           = errors.New("time slot already booked")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrForbidden           = errors.New("not authorized to modify this appointment")
	ErrInvalidTransition   = errors.New("appointment cannot change to that status")
)

// Directory resolves users across the identity domain.
type Directory interface {
	GetUser(ctx context.Context, id uuid.UUID) (*identity.User, error)
}

// Hospitals resolves hospital records for notification settings.
type Hospitals interface {
	Get(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error)
}

// Notifier delivers a rendered message through the hospital's channel.
type Notifier interface {
	Send(ctx context.Context, hospitalID, to string, kind whatsapp.MessageKind, body string) error
}

// Dispatcher runs fire-and-forget work off the request path. The submit
// context supplies the tenant scope the task will run under.
type Dispatcher interface {
	Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error
}

// BookingRequest is the payload for booking a new appointment.
type BookingRequest struct {
	DoctorID uuid.UUID
	Date     time.Time
	TimeSlot string
}

type Service struct {
	appts     AppointmentRepository
	users     Directory
	hospitals Hospitals
	exporter  *csvexport.Exporter
	notifier  Notifier
	tasks     Dispatcher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(appts AppointmentRepository, users Directory, hospitals Hospitals,
	exporter *csvexport.Exporter, notifier Notifier, tasks Dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		appts:     appts,
		users:     users,
		hospitals: hospitals,
		exporter:  exporter,
		notifier:  notifier,
		tasks:     tasks,
		logger:    logger.With().Str("component", "scheduling").Logger(),
		now:       time.Now,
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Book validates and creates a pending appointment, then queues the CSV
// export and, when the hospital has the channel enabled, the confirmation
// message. Neither background step can fail the booking.
func (s *Service) Book(ctx context.Context, patientID uuid.UUID, req BookingRequest) (*Appointment, error) {
	if !IsValidSlot(req.TimeSlot) {
		return nil, ErrInvalidSlot
	}
	if dateOnly(req.Date).Before(dateOnly(s.now())) {
		return nil, ErrPastDate
	}

	doctor, err := s.users.GetUser(ctx, req.DoctorID)
	if err != nil || !doctor.IsDoctor() {
		return nil, ErrDoctorNotFound
	}
	patient, err := s.users.GetUser(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("loading patient: %w", err)
	}

	hospitalID := patient.HospitalID
	if hospitalID == nil {
		hospitalID = doctor.HospitalID
	}

	appt := &Appointment{
		PatientID:  patientID,
		DoctorID:   req.DoctorID,
		HospitalID: hospitalID,
		Date:       dateOnly(req.Date),
		TimeSlot:   req.TimeSlot,
		Status:     StatusPending,
	}
	if err := s.appts.Create(ctx, appt); err != nil {
		return nil, err
	}
	appt.PatientName = patient.Name
	appt.DoctorName = doctor.Name

	s.queueBookingTasks(ctx, appt, patient, doctor)
	return appt, nil
}

func (s *Service) queueBookingTasks(ctx context.Context, appt *Appointment, patient, doctor *identity.User) {
	if appt.HospitalID == nil {
		return
	}
	hospitalID := *appt.HospitalID

	specialty := ""
	if doctor.Specialty != nil {
		specialty = *doctor.Specialty
	}
	row := csvexport.Row{
		Name:      patient.Name,
		Mobile:    patient.Mobile,
		Date:      appt.Date.Format("2006-01-02"),
		TimeSlot:  appt.TimeSlot,
		Doctor:    doctor.Name,
		Specialty: specialty,
	}
	if err := s.tasks.Submit(ctx, "appointment-csv-export", func(ctx context.Context) error {
		return s.exporter.Append(hospitalID.String(), row)
	}); err != nil {
		s.logger.Warn().Err(err).Msg("csv export task rejected")
	}

	if err := s.tasks.Submit(ctx, "appointment-confirmation", func(ctx context.Context) error {
		h, err := s.hospitals.Get(ctx, hospitalID)
		if err != nil {
			return fmt.Errorf("loading hospital: %w", err)
		}
		if !h.WhatsAppEnabled {
			return nil
		}
		body := whatsapp.Render(whatsapp.KindConfirmation, deref(h.WhatsAppConfirmationTemplate), map[string]string{
			"patient_name":  patient.Name,
			"doctor_name":   doctor.Name,
			"date":          whatsapp.FormatDate(appt.Date),
			"time_slot":     whatsapp.FormatTime(appt.TimeSlot),
			"hospital_name": h.Name,
		})
		return s.notifier.Send(ctx, hospitalID.String(), patient.Mobile, whatsapp.KindConfirmation, body)
	}); err != nil {
		s.logger.Warn().Err(err).Msg("confirmation task rejected")
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}
	return appt, nil
}

// Confirm moves a pending appointment to confirmed. Only the assigned
// doctor can confirm, and appointments the doctor does not own are
// indistinguishable from missing ones.
func (s *Service) Confirm(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil || appt.DoctorID != doctorID {
		return nil, ErrAppointmentNotFound
	}
	if appt.Status != StatusPending {
		return nil, ErrInvalidTransition
	}
	appt.Status = StatusConfirmed
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// Cancel releases the slot. The booking patient or the assigned doctor may
// cancel; terminal appointments stay as they are.
func (s *Service) Cancel(ctx context.Context, id, userID uuid.UUID) (*Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, ErrAppointmentNotFound
	}
	if appt.PatientID != userID && appt.DoctorID != userID {
		return nil, ErrForbidden
	}
	if appt.IsTerminal() {
		return nil, ErrInvalidTransition
	}
	appt.Status = StatusCancelled
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// MarkVisited records the visit and an optional follow-up date.
func (s *Service) MarkVisited(ctx context.Context, id, doctorID uuid.UUID, followUp *time.Time) (*Appointment, error) {
	appt, err := s.appts.GetByID(ctx, id)
	if err != nil || appt.DoctorID != doctorID {
		return nil, ErrAppointmentNotFound
	}
	if appt.IsTerminal() {
		return nil, ErrInvalidTransition
	}
	today := dateOnly(s.now())
	appt.Status = StatusVisited
	appt.VisitDate = &today
	if followUp != nil {
		fu := dateOnly(*followUp)
		appt.FollowUpDate = &fu
	}
	if err := s.appts.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// AvailableSlots partitions the doctor's day into booked and free slots.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) (*SlotAvailability, error) {
	doctor, err := s.users.GetUser(ctx, doctorID)
	if err != nil || !doctor.IsDoctor() {
		return nil, ErrDoctorNotFound
	}
	taken, err := s.appts.BookedSlots(ctx, doctorID, dateOnly(date))
	if err != nil {
		return nil, err
	}
	booked, available := PartitionSlots(taken)
	return &SlotAvailability{
		DoctorID:       doctorID,
		DoctorName:     doctor.Name,
		Date:           dateOnly(date),
		BookedSlots:    booked,
		AvailableSlots: available,
	}, nil
}

func (s *Service) MyAppointments(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return s.appts.ListByPatient(ctx, patientID)
}

func (s *Service) DoctorAppointments(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	return s.appts.ListByDoctor(ctx, doctorID)
}

// SendReminders messages every patient with a non-cancelled appointment
// tomorrow, for hospitals with the channel enabled. Delivery failures are
// logged and do not stop the sweep.
func (s *Service) SendReminders(ctx context.Context, now time.Time) error {
	day := dateOnly(now).AddDate(0, 0, 1)
	items, err := s.appts.DueReminders(ctx, day)
	if err != nil {
		return fmt.Errorf("listing reminders: %w", err)
	}
	for _, it := range items {
		if !it.WhatsAppEnabled {
			continue
		}
		body := whatsapp.Render(whatsapp.KindReminder, deref(it.ReminderTemplate), map[string]string{
			"patient_name":  it.PatientName,
			"doctor_name":   it.DoctorName,
			"date":          whatsapp.FormatDate(it.Date),
			"time_slot":     whatsapp.FormatTime(it.TimeSlot),
			"hospital_name": it.HospitalName,
		})
		if err := s.notifier.Send(ctx, it.HospitalID.String(), it.Mobile, whatsapp.KindReminder, body); err != nil {
			s.logger.Warn().Err(err).
				Stringer("appointment_id", it.AppointmentID).
				Msg("reminder delivery failed")
		}
	}
	return nil
}

// SendFollowUps messages patients whose follow-up is due today.
func (s *Service) SendFollowUps(ctx context.Context, now time.Time) error {
	day := dateOnly(now)
	items, err := s.appts.DueFollowUps(ctx, day)
	if err != nil {
		return fmt.Errorf("listing follow-ups: %w", err)
	}
	for _, it := range items {
		if !it.WhatsAppEnabled || it.FollowUpDate == nil {
			continue
		}
		body := whatsapp.Render(whatsapp.KindFollowUp, deref(it.FollowUpTemplate), map[string]string{
			"patient_name":  it.PatientName,
			"doctor_name":   it.DoctorName,
			"followup_date": whatsapp.FormatDate(*it.FollowUpDate),
			"hospital_name": it.HospitalName,
		})
		if err := s.notifier.Send(ctx, it.HospitalID.String(), it.Mobile, whatsapp.KindFollowUp, body); err != nil {
			s.logger.Warn().Err(err).
				Stringer("appointment_id", it.AppointmentID).
				Msg("follow-up delivery failed")
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
