package messaging

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

type logRepoPG struct{ pool *pgxpool.Pool }

func NewLogRepoPG(pool *pgxpool.Pool) LogRepository { return &logRepoPG{pool: pool} }

func (r *logRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const logCols = `id, hospital_id, recipient, message_type, body, status, error, retry_count, sent_at`

func (r *logRepoPG) Insert(ctx context.Context, entry *LogEntry) error {
	entry.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO whatsapp_message_log (id, hospital_id, recipient, message_type, body, status, error, retry_count, sent_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		entry.ID, entry.HospitalID, entry.Recipient, entry.Kind, entry.Body,
		entry.Status, entry.Error, entry.RetryCount, entry.SentAt)
	return err
}

func (r *logRepoPG) List(ctx context.Context, hospitalID uuid.UUID, filter LogFilter) ([]*LogEntry, error) {
	query := `SELECT ` + logCols + ` FROM whatsapp_message_log WHERE hospital_id = $1`
	args := []interface{}{hospitalID}
	idx := 2

	if filter.Date != nil {
		query += fmt.Sprintf(` AND sent_at::date = $%d`, idx)
		args = append(args, *filter.Date)
		idx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, filter.Status)
		idx++
	}
	query += ` ORDER BY sent_at DESC`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.HospitalID, &e.Recipient, &e.Kind, &e.Body,
			&e.Status, &e.Error, &e.RetryCount, &e.SentAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, nil
}
