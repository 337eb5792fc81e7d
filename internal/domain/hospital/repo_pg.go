package hospital

import (
	"context"
	"fmt"

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const hospitalCols = `id, name, email, mobile, address_line1, address_line2, address_line3,
	city, state, pincode, status, approved_date,
	upi_id, gpay_upi_id, phonepay_upi_id, paytm_upi_id, bhim_upi_id,
	whatsapp_enabled, whatsapp_confirmation_template, whatsapp_followup_template,
	whatsapp_reminder_template, created_at, updated_at`

func (r *repoPG) scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital
	err := row.Scan(&h.ID, &h.Name, &h.Email, &h.Mobile, &h.AddressLine1, &h.AddressLine2, &h.AddressLine3,
		&h.City, &h.State, &h.Pincode, &h.Status, &h.ApprovedDate,
		&h.UPIID, &h.GPayUPIID, &h.PhonePeUPIID, &h.PaytmUPIID, &h.BhimUPIID,
		&h.WhatsAppEnabled, &h.WhatsAppConfirmationTemplate, &h.WhatsAppFollowUpTemplate,
		&h.WhatsAppReminderTemplate, &h.CreatedAt, &h.UpdatedAt)
	return &h, err
}

func (r *repoPG) Create(ctx context.Context, h *Hospital) error {
	h.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO hospital (id, name, email, mobile, address_line1, address_line2, address_line3,
			city, state, pincode, status,
			upi_id, gpay_upi_id, phonepay_upi_id, paytm_upi_id, bhim_upi_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		h.ID, h.Name, h.Email, h.Mobile, h.AddressLine1, h.AddressLine2, h.AddressLine3,
		h.City, h.State, h.Pincode, h.Status,
		h.UPIID, h.GPayUPIID, h.PhonePeUPIID, h.PaytmUPIID, h.BhimUPIID)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return r.scanHospital(r.conn(ctx).QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospital WHERE id = $1`, id))
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Hospital, error) {
	return r.scanHospital(r.conn(ctx).QueryRow(ctx, `SELECT `+hospitalCols+` FROM hospital WHERE email = $1`, email))
}

func (r *repoPG) Update(ctx context.Context, h *Hospital) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE hospital SET name=$2, mobile=$3, address_line1=$4, address_line2=$5, address_line3=$6,
			city=$7, state=$8, pincode=$9, status=$10, approved_date=$11,
			upi_id=$12, gpay_upi_id=$13, phonepay_upi_id=$14, paytm_upi_id=$15, bhim_upi_id=$16,
			whatsapp_enabled=$17, whatsapp_confirmation_template=$18, whatsapp_followup_template=$19,
			whatsapp_reminder_template=$20, updated_at=NOW()
		WHERE id = $1`,
		h.ID, h.Name, h.Mobile, h.AddressLine1, h.AddressLine2, h.AddressLine3,
		h.City, h.State, h.Pincode, h.Status, h.ApprovedDate,
		h.UPIID, h.GPayUPIID, h.PhonePeUPIID, h.PaytmUPIID, h.BhimUPIID,
		h.WhatsAppEnabled, h.WhatsAppConfirmationTemplate, h.WhatsAppFollowUpTemplate,
		h.WhatsAppReminderTemplate)
	return err
}

func (r *repoPG) List(ctx context.Context, status string, limit, offset int) ([]*Hospital, int, error) {
	query := `SELECT ` + hospitalCols + ` FROM hospital WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM hospital WHERE 1=1`
	var args []interface{}
	idx := 1

	if status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, status)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Hospital
	for rows.Next() {
		h, err := r.scanHospital(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, h)
	}
	return items, total, nil
}

func (r *repoPG) FirstApproved(ctx context.Context) (*Hospital, error) {
	return r.scanHospital(r.conn(ctx).QueryRow(ctx,
		`SELECT `+hospitalCols+` FROM hospital WHERE status = 'approved' ORDER BY created_at LIMIT 1`))
}
