package patient

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/callcare/callcare/internal/bulkimport"
	"github.com/callcare/callcare/internal/form"
	"github.com/callcare/callcare/internal/platform/metrics"
	"github.com/callcare/callcare/internal/session"
	"github.com/callcare/callcare/internal/table"
)

// ErrStaleSchema is returned when a submission was built against a schema
// epoch that a login, logout, or workflow switch has since invalidated.
var ErrStaleSchema = fmt.Errorf("submission built against a stale schema")

// ErrInvalidCallStatus rejects status transitions to values the bot does not
// produce.
var ErrInvalidCallStatus = fmt.Errorf("invalid call status")

// Service is the patient-record engine. Every write path goes through the
// form submit pipeline so validation and payload shaping are identical for
// create, edit, and bulk import.
type Service struct {
	repo Repository
	sess *session.Context
	log  zerolog.Logger
}

func NewService(repo Repository, sess *session.Context, log zerolog.Logger) *Service {
	return &Service{repo: repo, sess: sess, log: log.With().Str("component", "patient").Logger()}
}

// CreateForm returns the empty create form for the active workflow, with the
// schema epoch the caller should echo back on submit.
func (s *Service) CreateForm() (*form.Form, uint64, error) {
	cfg, epoch, err := s.sess.ActiveSchema()
	if err != nil {
		return nil, 0, err
	}
	return form.BuildCreateForm(cfg), epoch, nil
}

// EditForm returns the edit form pre-populated from the stored record.
func (s *Service) EditForm(ctx context.Context, id uuid.UUID) (*form.Form, uint64, error) {
	cfg, epoch, err := s.sess.ActiveSchema()
	if err != nil {
		return nil, 0, err
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	return form.BuildEditForm(cfg, rec.Fields), epoch, nil
}

// Create validates values against the active schema and persists a new
// record. Validation failures come back as *schema.ValidationError with the
// offending fields; nothing is written in that case.
func (s *Service) Create(ctx context.Context, values map[string]string, epoch uint64) (*Record, error) {
	cfg, current, err := s.sess.ActiveSchema()
	if err != nil {
		return nil, err
	}
	if epoch != 0 && epoch != current {
		return nil, ErrStaleSchema
	}

	f := form.BuildCreateForm(cfg)
	f.SetValues(values)
	payload, err := f.Submit()
	if err != nil {
		return nil, err
	}

	rec := &Record{
		OrganizationID: s.sess.Organization().ID,
		Workflow:       s.sess.SelectedWorkflow(),
		CallStatus:     CallStatusPending,
		Fields:         payload,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.log.Info().Str("record_id", rec.ID.String()).Str("workflow", rec.Workflow).Msg("patient record created")
	return rec, nil
}

// Update re-validates the submitted field set and merges it into the stored
// document. The submit payload carries only the editable schema keys, so
// computed values the bot maintains and keys an older schema wrote survive a
// user edit untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, values map[string]string, epoch uint64) (*Record, error) {
	cfg, current, err := s.sess.ActiveSchema()
	if err != nil {
		return nil, err
	}
	if epoch != 0 && epoch != current {
		return nil, ErrStaleSchema
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	f := form.BuildEditForm(cfg, rec.Fields)
	f.SetValues(values)
	payload, err := f.Submit()
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(rec.Fields)+len(payload))
	for k, v := range rec.Fields {
		merged[k] = v
	}
	for k, v := range payload {
		merged[k] = v
	}
	rec.Fields = merged
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateCallStatus moves a record to a new call status.
func (s *Service) UpdateCallStatus(ctx context.Context, id uuid.UUID, status CallStatus) (*Record, error) {
	if !validCallStatuses[status] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCallStatus, status)
	}
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.CallStatus = status
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// List returns the active workflow's records plus the total count for
// pagination.
func (s *Service) List(ctx context.Context, status CallStatus, limit, offset int) ([]*Record, int, error) {
	if _, _, err := s.sess.ActiveSchema(); err != nil {
		return nil, 0, err
	}
	filter := ListFilter{Workflow: s.sess.SelectedWorkflow(), CallStatus: status}
	return s.repo.List(ctx, filter, limit, offset)
}

// Columns returns the table column set for the active workflow.
func (s *Service) Columns() ([]table.Column, error) {
	cfg, _, err := s.sess.ActiveSchema()
	if err != nil {
		return nil, err
	}
	return table.BuildColumns(cfg), nil
}

// ImportCSV runs the bulk pipeline: parse, validate every row independently,
// persist the rows that passed, and report per-row errors for the rest. A
// batch with failures is still a successful import of its passing rows.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*bulkimport.Result, error) {
	cfg, _, err := s.sess.ActiveSchema()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := bulkimport.New(cfg).ImportCSV(r)
	if err != nil {
		return nil, err
	}

	if len(res.Records) > 0 {
		records := make([]*Record, 0, len(res.Records))
		for _, fields := range res.Records {
			records = append(records, &Record{
				OrganizationID: s.sess.Organization().ID,
				Workflow:       s.sess.SelectedWorkflow(),
				CallStatus:     CallStatusPending,
				Fields:         fields,
			})
		}
		if err := s.repo.BulkCreate(ctx, records); err != nil {
			return nil, err
		}
	}

	metrics.ObserveImport(res.Succeeded, res.Failed, time.Since(start))
	s.log.Info().
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Str("workflow", s.sess.SelectedWorkflow()).
		Msg("bulk import finished")
	return res, nil
}
