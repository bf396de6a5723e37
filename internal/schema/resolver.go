package schema

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSchemaMissing signals that an organization has no configuration for the
// requested workflow. Callers must be able to tell this apart from a workflow
// whose schema merely has no fields, so resolution never substitutes an empty
// config.
var ErrSchemaMissing = errors.New("workflow schema missing")

// Resolve looks up the workflow configuration for workflowID on org and
// returns a copy whose fields are stable-sorted ascending by display order.
// The sort happens here, once, so the form and table layers can never
// disagree on field order.
func Resolve(org *Organization, workflowID string) (*WorkflowConfig, error) {
	if org == nil {
		return nil, fmt.Errorf("%w: no organization loaded", ErrSchemaMissing)
	}
	cfg, ok := org.Workflows[workflowID]
	if !ok {
		return nil, fmt.Errorf("%w: %q not configured for %s", ErrSchemaMissing, workflowID, org.Slug)
	}

	fields := make([]SchemaField, len(cfg.PatientSchema))
	copy(fields, cfg.PatientSchema)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].DisplayOrder < fields[j].DisplayOrder
	})
	cfg.PatientSchema = fields
	return &cfg, nil
}
