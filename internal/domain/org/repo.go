// Package org persists organization configuration and exposes the login,
// logout, and workflow-selection surface that drives the session context.
package org

import (
	"context"

	"github.com/google/uuid"

	"github.com/callcare/callcare/internal/schema"
)

// Repository is the persistence collaborator for organization config. The
// workflow map travels as one JSONB document so a login fetch returns every
// workflow's schema in a single round trip.
type Repository interface {
	Create(ctx context.Context, o *schema.Organization) error
	GetByID(ctx context.Context, id uuid.UUID) (*schema.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*schema.Organization, error)
	Update(ctx context.Context, o *schema.Organization) error
	List(ctx context.Context, limit, offset int) ([]*schema.Organization, int, error)
}
