package schema

import (
	"fmt"

	"github.com/google/uuid"
)

// FieldType enumerates the value shapes a tenant schema can declare.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeDate     FieldType = "date"
	FieldTypeDateTime FieldType = "datetime"
	FieldTypeTime     FieldType = "time"
	FieldTypePhone    FieldType = "phone"
	FieldTypeSelect   FieldType = "select"
	FieldTypeText     FieldType = "text"
)

var knownFieldTypes = map[FieldType]bool{
	FieldTypeString: true, FieldTypeDate: true, FieldTypeDateTime: true,
	FieldTypeTime: true, FieldTypePhone: true, FieldTypeSelect: true,
	FieldTypeText: true,
}

// DisplayPriority is a responsive-visibility hint for list views. It never
// affects validation or payload shape.
type DisplayPriority string

const (
	PriorityMobile  DisplayPriority = "mobile"
	PriorityTablet  DisplayPriority = "tablet"
	PriorityDesktop DisplayPriority = "desktop"
)

// DatePolicy selects the bound applied to date/datetime values. An empty
// policy falls back to the historical default for dates and the upcoming
// default for datetimes, which matches the schemas produced before policies
// were configurable per field.
type DatePolicy string

const (
	// PolicyHistorical rejects values after yesterday 23:59:59 (date of
	// birth, date of last visit).
	PolicyHistorical DatePolicy = "historical"
	// PolicyUpcoming rejects values less than one hour or more than ninety
	// days from now (appointment scheduling).
	PolicyUpcoming DatePolicy = "upcoming"
	// PolicyNone applies no bound beyond parseability.
	PolicyNone DatePolicy = "none"
)

// SchemaField declares one entity attribute: its type, constraints, and how
// the forms and tables surface it.
type SchemaField struct {
	Key             string          `db:"key" json:"key"`
	Label           string          `db:"label" json:"label"`
	Type            FieldType       `db:"type" json:"type"`
	Required        bool            `db:"required" json:"required"`
	DisplayInList   bool            `db:"display_in_list" json:"display_in_list"`
	DisplayOrder    int             `db:"display_order" json:"display_order"`
	DisplayPriority DisplayPriority `db:"display_priority" json:"display_priority,omitempty"`
	Options         []string        `db:"options" json:"options,omitempty"`
	Default         string          `db:"default" json:"default,omitempty"`
	Computed        bool            `db:"computed" json:"computed"`
	Policy          DatePolicy      `db:"policy" json:"policy,omitempty"`
}

// HasOption reports whether v is a member of the field's declared options.
func (f *SchemaField) HasOption(v string) bool {
	for _, o := range f.Options {
		if o == v {
			return true
		}
	}
	return false
}

// WorkflowConfig describes one call-handling workflow and the patient schema
// that drives its forms, tables, and imports.
type WorkflowConfig struct {
	Enabled       bool          `json:"enabled"`
	DisplayName   string        `json:"display_name"`
	Description   string        `json:"description,omitempty"`
	PatientSchema []SchemaField `json:"patient_schema"`
}

// Validate checks the structural invariants of a workflow schema: unique
// field keys, known field types, and non-empty options on select fields.
func (w *WorkflowConfig) Validate() error {
	seen := make(map[string]bool, len(w.PatientSchema))
	for _, f := range w.PatientSchema {
		if f.Key == "" {
			return fmt.Errorf("schema field with empty key")
		}
		if seen[f.Key] {
			return fmt.Errorf("duplicate schema field key %q", f.Key)
		}
		seen[f.Key] = true
		if !knownFieldTypes[f.Type] {
			return fmt.Errorf("field %q: unknown type %q", f.Key, f.Type)
		}
		if f.Type == FieldTypeSelect && len(f.Options) == 0 {
			return fmt.Errorf("field %q: select type requires options", f.Key)
		}
	}
	return nil
}

// Field returns the schema field with the given key, or nil.
func (w *WorkflowConfig) Field(key string) *SchemaField {
	for i := range w.PatientSchema {
		if w.PatientSchema[i].Key == key {
			return &w.PatientSchema[i]
		}
	}
	return nil
}

// Organization is a customer account. It owns the full set of workflow
// configurations and is supplied wholesale by the auth collaborator at login.
type Organization struct {
	ID        uuid.UUID                 `json:"id"`
	Name      string                    `json:"name"`
	Slug      string                    `json:"slug"`
	Workflows map[string]WorkflowConfig `json:"workflows"`
}
