package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebook/carebook/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type apptRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository { return &apptRepoPG{pool: pool} }

func (r *apptRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const apptCols = `a.id, a.patient_id, a.doctor_id, a.hospital_id, a.date, a.time_slot,
	a.status, a.visit_date, a.followup_date, a.created_at, a.updated_at,
	p.name, d.name`

const apptJoins = ` FROM appointment a
	JOIN app_user p ON p.id = a.patient_id
	JOIN app_user d ON d.id = a.doctor_id`

func (r *apptRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.HospitalID, &a.Date, &a.TimeSlot,
		&a.Status, &a.VisitDate, &a.FollowUpDate, &a.CreatedAt, &a.UpdatedAt,
		&a.PatientName, &a.DoctorName)
	return &a, err
}

func (r *apptRepoPG) Create(ctx context.Context, appt *Appointment) error {
	appt.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointment (id, patient_id, doctor_id, hospital_id, date, time_slot, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		appt.ID, appt.PatientID, appt.DoctorID, appt.HospitalID, appt.Date, appt.TimeSlot, appt.Status)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrSlotTaken
	}
	return err
}

func (r *apptRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppt(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+apptJoins+` WHERE a.id = $1`, id))
}

func (r *apptRepoPG) Update(ctx context.Context, appt *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET status=$2, visit_date=$3, followup_date=$4, updated_at=NOW()
		WHERE id = $1`,
		appt.ID, appt.Status, appt.VisitDate, appt.FollowUpDate)
	return err
}

func (r *apptRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return r.list(ctx,
		`SELECT `+apptCols+apptJoins+` WHERE a.patient_id = $1 ORDER BY a.date DESC, a.time_slot`,
		patientID)
}

func (r *apptRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	return r.list(ctx,
		`SELECT `+apptCols+apptJoins+` WHERE a.doctor_id = $1 ORDER BY a.date, a.time_slot`,
		doctorID)
}

func (r *apptRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}

func (r *apptRepoPG) BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT time_slot FROM appointment
		WHERE doctor_id = $1 AND date = $2 AND status <> 'cancelled'`,
		doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var slots []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}

const reminderCols = `a.id, p.name, p.mobile, d.name, a.date, a.time_slot, a.followup_date,
	h.id, h.name, h.whatsapp_enabled, h.whatsapp_reminder_template, h.whatsapp_followup_template`

const reminderJoins = apptJoins + `
	JOIN hospital h ON h.id = a.hospital_id`

func (r *apptRepoPG) DueReminders(ctx context.Context, day time.Time) ([]*ReminderItem, error) {
	return r.listReminders(ctx,
		`SELECT `+reminderCols+reminderJoins+` WHERE a.date = $1 AND a.status <> 'cancelled'`, day)
}

func (r *apptRepoPG) DueFollowUps(ctx context.Context, day time.Time) ([]*ReminderItem, error) {
	return r.listReminders(ctx,
		`SELECT `+reminderCols+reminderJoins+` WHERE a.followup_date = $1 AND a.status = 'visited'`, day)
}

func (r *apptRepoPG) listReminders(ctx context.Context, query string, day time.Time) ([]*ReminderItem, error) {
	rows, err := r.conn(ctx).Query(ctx, query, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ReminderItem
	for rows.Next() {
		var it ReminderItem
		if err := rows.Scan(&it.AppointmentID, &it.PatientName, &it.Mobile, &it.DoctorName,
			&it.Date, &it.TimeSlot, &it.FollowUpDate,
			&it.HospitalID, &it.HospitalName, &it.WhatsAppEnabled,
			&it.ReminderTemplate, &it.FollowUpTemplate); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, nil
}
