package patient

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Workflow   string
	CallStatus CallStatus
}

// Repository is the persistence collaborator for patient records. The engine
// consumes it; repo_pg.go is the Postgres implementation.
type Repository interface {
	Create(ctx context.Context, r *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, r *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter, limit, offset int) ([]*Record, int, error)
	BulkCreate(ctx context.Context, records []*Record) error
}
