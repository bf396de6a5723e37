package org

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/callcare/callcare/internal/schema"
	"github.com/callcare/callcare/internal/session"
)

// WorkflowSummary is the picker entry for one enabled workflow.
type WorkflowSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// Service loads organization config and drives the session's auth and
// workflow state.
type Service struct {
	repo Repository
	sess *session.Context
	log  zerolog.Logger
}

func NewService(repo Repository, sess *session.Context, log zerolog.Logger) *Service {
	return &Service{repo: repo, sess: sess, log: log.With().Str("component", "org").Logger()}
}

// Login fetches the organization by slug and replaces the session's state
// with it. The returned organization carries every workflow config, so the
// client needs no follow-up schema fetches.
func (s *Service) Login(ctx context.Context, slug string) (*schema.Organization, error) {
	o, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.sess.Login(ctx, o); err != nil {
		return nil, err
	}
	s.log.Info().Str("org", o.Slug).Msg("organization session started")
	return o, nil
}

func (s *Service) Logout(ctx context.Context) error {
	return s.sess.Logout(ctx)
}

// Current returns the session's organization.
func (s *Service) Current() (*schema.Organization, error) {
	o := s.sess.Organization()
	if o == nil {
		return nil, session.ErrNotAuthenticated
	}
	return o, nil
}

// Workflows lists the enabled workflows of the current organization for the
// workflow picker. Disabled workflows are configured but not offered.
func (s *Service) Workflows() ([]WorkflowSummary, error) {
	o, err := s.Current()
	if err != nil {
		return nil, err
	}
	var out []WorkflowSummary
	for id, cfg := range o.Workflows {
		if !cfg.Enabled {
			continue
		}
		out = append(out, WorkflowSummary{ID: id, DisplayName: cfg.DisplayName, Description: cfg.Description})
	}
	return out, nil
}

// SelectWorkflow switches the session's active workflow.
func (s *Service) SelectWorkflow(ctx context.Context, workflowID string) error {
	return s.sess.SelectWorkflow(ctx, workflowID)
}

// SelectedWorkflow returns the active workflow id, or "".
func (s *Service) SelectedWorkflow() string {
	return s.sess.SelectedWorkflow()
}

// CreateOrganization validates every workflow schema and persists a new
// tenant config. Used by the tenant CLI command.
func (s *Service) CreateOrganization(ctx context.Context, o *schema.Organization) error {
	if o.Slug == "" {
		return fmt.Errorf("organization slug is required")
	}
	for id, cfg := range o.Workflows {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("workflow %s: %w", id, err)
		}
	}
	return s.repo.Create(ctx, o)
}

// UpdateOrganization revalidates and saves an edited config.
func (s *Service) UpdateOrganization(ctx context.Context, o *schema.Organization) error {
	for id, cfg := range o.Workflows {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("workflow %s: %w", id, err)
		}
	}
	return s.repo.Update(ctx, o)
}
