// Package form builds create and edit forms from a resolved workflow schema
// and serializes submissions into flat write payloads for the persistence
// collaborator.
package form

import (
	"fmt"

	"github.com/callcare/callcare/internal/schema"
)

// Mode distinguishes the create path (defaults from the schema) from the edit
// path (defaults from the existing record).
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Field is one renderable form field. Widget is what the front end should
// render; everything else mirrors the schema field it came from.
type Field struct {
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Type     schema.FieldType `json:"type"`
	Widget   string           `json:"widget"`
	Required bool             `json:"required"`
	ReadOnly bool             `json:"read_only"`
	Options  []string         `json:"options,omitempty"`
	Value    string           `json:"value"`
	Error    string           `json:"error,omitempty"`
}

// Form holds the ordered field list for one workflow plus the submission
// state. A form is bound to the schema it was built from; after a workflow
// switch the caller rebuilds rather than migrating values.
type Form struct {
	Mode   Mode    `json:"mode"`
	Fields []Field `json:"fields"`

	cfg *schema.WorkflowConfig
}

// widgetFor maps a field type to its input widget. Select fields render as a
// closed choice; everything else is a typed text-equivalent input.
func widgetFor(ft schema.FieldType) string {
	switch ft {
	case schema.FieldTypeSelect:
		return "select"
	case schema.FieldTypeDate:
		return "date"
	case schema.FieldTypeDateTime:
		return "datetime-local"
	case schema.FieldTypeTime:
		return "time"
	case schema.FieldTypePhone:
		return "tel"
	case schema.FieldTypeText:
		return "textarea"
	default:
		return "text"
	}
}

// BuildCreateForm builds an empty form for cfg. Initial values come from each
// field's declared default.
func BuildCreateForm(cfg *schema.WorkflowConfig) *Form {
	f := &Form{Mode: ModeCreate, cfg: cfg, Fields: make([]Field, 0, len(cfg.PatientSchema))}
	for _, sf := range cfg.PatientSchema {
		f.Fields = append(f.Fields, Field{
			Key:      sf.Key,
			Label:    sf.Label,
			Type:     sf.Type,
			Widget:   widgetFor(sf.Type),
			Required: sf.Required,
			ReadOnly: sf.Computed,
			Options:  sf.Options,
			Value:    sf.Default,
		})
	}
	return f
}

// BuildEditForm builds a form pre-populated from an existing record. Stored
// date and datetime values are re-formatted into the widget's native
// representation; fields the record lacks fall back to the schema default.
func BuildEditForm(cfg *schema.WorkflowConfig, record map[string]string) *Form {
	f := &Form{Mode: ModeEdit, cfg: cfg, Fields: make([]Field, 0, len(cfg.PatientSchema))}
	for _, sf := range cfg.PatientSchema {
		value, ok := record[sf.Key]
		if !ok {
			value = sf.Default
		}
		f.Fields = append(f.Fields, Field{
			Key:      sf.Key,
			Label:    sf.Label,
			Type:     sf.Type,
			Widget:   widgetFor(sf.Type),
			Required: sf.Required,
			ReadOnly: sf.Computed,
			Options:  sf.Options,
			Value:    schema.ToWidgetValue(sf.Type, value),
		})
	}
	return f
}

// SetValue stores a user-entered value on the named field. Unknown keys are
// an error so callers notice schema drift instead of silently dropping input.
func (f *Form) SetValue(key, value string) error {
	for i := range f.Fields {
		if f.Fields[i].Key == key {
			f.Fields[i].Value = value
			return nil
		}
	}
	return fmt.Errorf("no form field %q", key)
}

// SetValues applies a value map, ignoring keys the schema does not declare.
// This is the entry point for handler-bound submissions where the request
// body may carry stray keys.
func (f *Form) SetValues(values map[string]string) {
	for i := range f.Fields {
		if v, ok := values[f.Fields[i].Key]; ok {
			f.Fields[i].Value = v
		}
	}
}

// Submit validates every field and, when all pass, returns the flat write
// payload. On any failure it returns a *schema.ValidationError, annotates the
// failing fields in place, and the form stays open for correction; nothing is
// handed to the persistence layer.
//
// The payload contains exactly the non-computed keys the schema declares:
// never a key outside the schema, and never a computed key, even if the
// in-memory field list carries a value for one. Date and datetime values are
// normalized back to the stored display representation.
func (f *Form) Submit() (map[string]string, error) {
	var verr schema.ValidationError
	for i := range f.Fields {
		f.Fields[i].Error = ""
		sf := f.cfg.Field(f.Fields[i].Key)
		if sf == nil {
			continue
		}
		if ferr := schema.ValidateField(sf, f.Fields[i].Value); ferr != nil {
			f.Fields[i].Error = ferr.Message
			verr.Fields = append(verr.Fields, *ferr)
		}
	}
	if len(verr.Fields) > 0 {
		return nil, &verr
	}

	payload := make(map[string]string, len(f.Fields))
	for _, fld := range f.Fields {
		sf := f.cfg.Field(fld.Key)
		if sf == nil || sf.Computed {
			continue
		}
		payload[fld.Key] = schema.ToDisplayValue(sf.Type, fld.Value)
	}
	return payload, nil
}
