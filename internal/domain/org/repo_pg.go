package org

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/callcare/callcare/internal/platform/db"
	"github.com/callcare/callcare/internal/schema"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

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

const orgCols = `id, name, slug, workflows`

func scanOrg(row pgx.Row) (*schema.Organization, error) {
	var o schema.Organization
	err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.Workflows)
	return &o, err
}

func (r *repoPG) Create(ctx context.Context, o *schema.Organization) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO organization (id, name, slug, workflows)
		VALUES ($1, $2, $3, $4)`,
		o.ID, o.Name, o.Slug, o.Workflows)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*schema.Organization, error) {
	return scanOrg(r.conn(ctx).QueryRow(ctx,
		`SELECT `+orgCols+` FROM organization WHERE id = $1`, id))
}

func (r *repoPG) GetBySlug(ctx context.Context, slug string) (*schema.Organization, error) {
	return scanOrg(r.conn(ctx).QueryRow(ctx,
		`SELECT `+orgCols+` FROM organization WHERE slug = $1`, slug))
}

func (r *repoPG) Update(ctx context.Context, o *schema.Organization) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE organization
		SET name = $2, workflows = $3, updated_at = NOW()
		WHERE id = $1`,
		o.ID, o.Name, o.Workflows)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*schema.Organization, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM organization`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+orgCols+` FROM organization ORDER BY slug LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orgs []*schema.Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, o)
	}
	return orgs, total, rows.Err()
}
