package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/callcare/callcare/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns the Postgres repository. Queries run on the tenant-scoped
// connection from the request context when one is present.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const recordCols = `id, organization_id, workflow, call_status, fields, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.OrganizationID, &rec.Workflow, &rec.CallStatus,
		&rec.Fields, &rec.CreatedAt, &rec.UpdatedAt)
	return &rec, err
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	if rec.CallStatus == "" {
		rec.CallStatus = CallStatusPending
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_record (id, organization_id, workflow, call_status, fields)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		rec.ID, rec.OrganizationID, rec.Workflow, rec.CallStatus, rec.Fields,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM patient_record WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_record
		SET call_status = $2, fields = $3, updated_at = NOW()
		WHERE id = $1`,
		rec.ID, rec.CallStatus, rec.Fields)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_record WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Record, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Workflow != "" {
		args = append(args, filter.Workflow)
		where = append(where, fmt.Sprintf("workflow = $%d", len(args)))
	}
	if filter.CallStatus != "" {
		args = append(args, filter.CallStatus)
		where = append(where, fmt.Sprintf("call_status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_record WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM patient_record WHERE `+cond+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

func (r *repoPG) BulkCreate(ctx context.Context, records []*Record) error {
	for _, rec := range records {
		if err := r.Create(ctx, rec); err != nil {
			return fmt.Errorf("bulk create record: %w", err)
		}
	}
	return nil
}
