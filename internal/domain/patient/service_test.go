package patient

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/callcare/callcare/internal/schema"
	"github.com/callcare/callcare/internal/session"
)

type mockRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*Record
	bulkErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{records: make(map[uuid.UUID]*Record)}
}

func (m *mockRepo) Create(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	m.records[r.ID] = r
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r, nil
}

func (m *mockRepo) Update(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.records[r.ID] = r
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, filter ListFilter, limit, offset int) ([]*Record, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Record
	for _, r := range m.records {
		if filter.Workflow != "" && r.Workflow != filter.Workflow {
			continue
		}
		if filter.CallStatus != "" && r.CallStatus != filter.CallStatus {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *mockRepo) BulkCreate(ctx context.Context, records []*Record) error {
	if m.bulkErr != nil {
		return m.bulkErr
	}
	for _, r := range records {
		if err := m.Create(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func serviceOrg() *schema.Organization {
	return &schema.Organization{
		ID:   uuid.New(),
		Name: "Sunrise Health",
		Slug: "sunrise",
		Workflows: map[string]schema.WorkflowConfig{
			"prior_authorization": {
				Enabled:     true,
				DisplayName: "Prior Authorization",
				PatientSchema: []schema.SchemaField{
					{Key: "first_name", Label: "First Name", Type: schema.FieldTypeString, Required: true, DisplayOrder: 1},
					{Key: "phone", Label: "Phone", Type: schema.FieldTypePhone, DisplayOrder: 2},
					{Key: "dob", Label: "Date of Birth", Type: schema.FieldTypeDate, DisplayOrder: 3},
					{Key: "auth_id", Label: "Authorization ID", Type: schema.FieldTypeString, Computed: true, DisplayOrder: 4},
				},
			},
			"patient_scheduling": {
				Enabled:     true,
				DisplayName: "Patient Scheduling",
				PatientSchema: []schema.SchemaField{
					{Key: "member_id", Label: "Member ID", Type: schema.FieldTypeString, Required: true, DisplayOrder: 1},
				},
			},
		},
	}
}

func newTestService(t *testing.T) (*Service, *mockRepo, *session.Context) {
	t.Helper()
	sess := session.New(nil, zerolog.Nop())
	ctx := context.Background()
	if err := sess.Login(ctx, serviceOrg()); err != nil {
		t.Fatal(err)
	}
	if err := sess.SelectWorkflow(ctx, "prior_authorization"); err != nil {
		t.Fatal(err)
	}
	repo := newMockRepo()
	return NewService(repo, sess, zerolog.Nop()), repo, sess
}

func TestCreate_Valid(t *testing.T) {
	svc, repo, sess := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, map[string]string{
		"first_name": "Ana",
		"phone":      "+1 555 123 4567",
		"dob":        "1990-06-15",
	}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CallStatus != CallStatusPending {
		t.Errorf("new records start pending, got %s", rec.CallStatus)
	}
	if rec.Workflow != "prior_authorization" {
		t.Errorf("wrong workflow: %s", rec.Workflow)
	}
	if rec.OrganizationID != sess.Organization().ID {
		t.Error("record must carry the session's organization id")
	}
	if rec.Fields["dob"] != "06/15/1990" {
		t.Errorf("dates persist in display format, got %q", rec.Fields["dob"])
	}
	if _, ok := rec.Fields["auth_id"]; ok {
		t.Error("computed fields must not appear in the write payload")
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(repo.records))
	}
}

func TestCreate_ValidationFailureWritesNothing(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Create(context.Background(), map[string]string{
		"phone": "5551234567",
	}, 0)
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *schema.ValidationError, got %v", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("expected errors on first_name and phone, got %v", verr.Fields)
	}
	if len(repo.records) != 0 {
		t.Error("a failed submission must not reach the repository")
	}
}

func TestCreate_StaleEpoch(t *testing.T) {
	svc, _, sess := newTestService(t)
	ctx := context.Background()

	stale := sess.Epoch()
	if err := sess.SelectWorkflow(ctx, "patient_scheduling"); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Create(ctx, map[string]string{"member_id": "M1"}, stale)
	if !errors.Is(err, ErrStaleSchema) {
		t.Errorf("expected ErrStaleSchema, got %v", err)
	}
}

func TestUpdate_PreservesComputedAndLegacyKeys(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, map[string]string{"first_name": "Ana"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Bot writes the computed field out of band; an older schema left a
	// key the active one no longer declares.
	repo.records[rec.ID].Fields["auth_id"] = "AUTH-42"
	repo.records[rec.ID].Fields["legacy_key"] = "stale"

	updated, err := svc.Update(ctx, rec.ID, map[string]string{"first_name": "Anabel"}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Fields["first_name"] != "Anabel" {
		t.Errorf("got %q", updated.Fields["first_name"])
	}
	if got := updated.Fields["auth_id"]; got != "AUTH-42" {
		t.Errorf("computed field clobbered by user edit: auth_id = %q, want %q", got, "AUTH-42")
	}
	if got := updated.Fields["legacy_key"]; got != "stale" {
		t.Errorf("key outside the active schema must survive an edit, got %q", got)
	}
}

func TestUpdateCallStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, map[string]string{"first_name": "Ana"}, 0)
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdateCallStatus(ctx, rec.ID, CallStatusInProgress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.InProgress() {
		t.Error("expected in_progress")
	}

	if _, err := svc.UpdateCallStatus(ctx, rec.ID, CallStatus("paused")); !errors.Is(err, ErrInvalidCallStatus) {
		t.Errorf("expected ErrInvalidCallStatus, got %v", err)
	}
}

func TestList_ScopedToActiveWorkflow(t *testing.T) {
	svc, repo, sess := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, map[string]string{"first_name": "Ana"}, 0); err != nil {
		t.Fatal(err)
	}
	repo.records[uuid.New()] = &Record{
		ID: uuid.New(), Workflow: "patient_scheduling",
		CallStatus: CallStatusPending, Fields: map[string]string{"member_id": "M1"},
	}

	records, total, err := svc.List(ctx, "", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(records) != 1 {
		t.Fatalf("expected only the active workflow's record, got %d", total)
	}
	if records[0].Workflow != sess.SelectedWorkflow() {
		t.Errorf("got workflow %s", records[0].Workflow)
	}
}

func TestImportCSV_PersistsOnlyPassingRows(t *testing.T) {
	svc, repo, _ := newTestService(t)

	csvData := strings.Join([]string{
		"first_name,phone",
		"Ana,+15551234567",
		",+15551234567",
		"Ben,",
	}, "\n")

	res, err := svc.ImportCSV(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Succeeded != 2 || res.Failed != 1 {
		t.Fatalf("expected 2 succeeded / 1 failed, got %d/%d", res.Succeeded, res.Failed)
	}
	if len(res.Errors) != 1 || res.Errors[0].Row != 2 {
		t.Errorf("expected the failure on data row 2, got %v", res.Errors)
	}
	if len(repo.records) != 2 {
		t.Errorf("expected 2 persisted records, got %d", len(repo.records))
	}
	for _, r := range repo.records {
		if r.CallStatus != CallStatusPending {
			t.Errorf("imported records start pending, got %s", r.CallStatus)
		}
	}
}

func TestImportCSV_Empty(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("first_name,phone\n"))
	if err == nil {
		t.Fatal("expected an error for a file with no data rows")
	}
}

func TestColumns_ActiveWorkflow(t *testing.T) {
	svc, _, _ := newTestService(t)

	cols, err := svc.Columns()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) == 0 {
		t.Fatal("expected columns")
	}
	last := cols[len(cols)-1]
	if last.Key != "actions" || !last.System {
		t.Errorf("actions must be the trailing system column, got %+v", last)
	}
}

func TestService_NotAuthenticated(t *testing.T) {
	sess := session.New(nil, zerolog.Nop())
	svc := NewService(newMockRepo(), sess, zerolog.Nop())

	if _, _, err := svc.CreateForm(); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
	if _, _, err := svc.List(context.Background(), "", 20, 0); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}
