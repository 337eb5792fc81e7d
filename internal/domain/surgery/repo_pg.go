package surgery

import (
	"context"

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

type opRepoPG struct{ pool *pgxpool.Pool }

func NewOperationRepoPG(pool *pgxpool.Pool) OperationRepository { return &opRepoPG{pool: pool} }

func (r *opRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const opCols = `o.id, o.patient_id, o.doctor_id, o.hospital_id, o.specialty, o.date,
	o.status, o.notes, o.created_at, o.updated_at, p.name, d.name`

const opJoins = ` FROM operation o
	JOIN app_user p ON p.id = o.patient_id
	JOIN app_user d ON d.id = o.doctor_id`

func (r *opRepoPG) scanOp(row pgx.Row) (*Operation, error) {
	var o Operation
	err := row.Scan(&o.ID, &o.PatientID, &o.DoctorID, &o.HospitalID, &o.Specialty, &o.Date,
		&o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt, &o.PatientName, &o.DoctorName)
	return &o, err
}

func (r *opRepoPG) Create(ctx context.Context, op *Operation) error {
	op.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO operation (id, patient_id, doctor_id, hospital_id, specialty, date, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		op.ID, op.PatientID, op.DoctorID, op.HospitalID, op.Specialty, op.Date, op.Status, op.Notes)
	return err
}

func (r *opRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Operation, error) {
	return r.scanOp(r.conn(ctx).QueryRow(ctx, `SELECT `+opCols+opJoins+` WHERE o.id = $1`, id))
}

func (r *opRepoPG) Update(ctx context.Context, op *Operation) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE operation SET status=$2, notes=$3, updated_at=NOW() WHERE id = $1`,
		op.ID, op.Status, op.Notes)
	return err
}

func (r *opRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Operation, error) {
	return r.list(ctx, `SELECT `+opCols+opJoins+` WHERE o.patient_id = $1 ORDER BY o.date`, patientID)
}

func (r *opRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Operation, error) {
	return r.list(ctx, `SELECT `+opCols+opJoins+` WHERE o.doctor_id = $1 ORDER BY o.date`, doctorID)
}

func (r *opRepoPG) ListBySpecialty(ctx context.Context, specialty string, userID uuid.UUID, asDoctor bool) ([]*Operation, error) {
	col := "o.patient_id"
	if asDoctor {
		col = "o.doctor_id"
	}
	return r.list(ctx,
		`SELECT `+opCols+opJoins+` WHERE o.specialty = $1 AND `+col+` = $2 ORDER BY o.date`,
		specialty, userID)
}

func (r *opRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Operation, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Operation
	for rows.Next() {
		o, err := r.scanOp(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, nil
}
