package schema

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FieldError describes one field's validation failure.
type FieldError struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Message)
}

// ValidationError aggregates per-field failures for one submission. It is
// resolved entirely within the form and import layers and never reaches the
// persistence collaborator.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return "validation failed: " + e.Fields[0].Error()
	}
	return fmt.Sprintf("validation failed: %d fields invalid", len(e.Fields))
}

var (
	phonePattern = regexp.MustCompile(`^\+?1[0-9]{10}$`)
	timePattern  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

const upcomingWindow = 90 * 24 * time.Hour

// ValidateField checks a single raw value against its schema field. It is
// pure and performs no I/O; the same function backs the create form, the edit
// form, and the bulk import pipeline so the three paths cannot drift.
func ValidateField(f *SchemaField, raw string) *FieldError {
	return ValidateFieldAt(f, raw, time.Now())
}

// ValidateFieldAt is ValidateField with an explicit reference time for the
// date and datetime bounds.
func ValidateFieldAt(f *SchemaField, raw string, now time.Time) *FieldError {
	// Computed fields are maintained by the call-handling process and are
	// never user-edited, so there is nothing to validate.
	if f.Computed {
		return nil
	}

	v := strings.TrimSpace(raw)
	if v == "" {
		if f.Required {
			return &FieldError{Key: f.Key, Message: f.Label + " is required"}
		}
		return nil
	}

	switch f.Type {
	case FieldTypeString, FieldTypeText:
		return nil

	case FieldTypeDate:
		t, err := ParseDate(v)
		if err != nil {
			return &FieldError{Key: f.Key, Message: "invalid date"}
		}
		if f.datePolicy() == PolicyHistorical {
			// Must be at least one full day in the past: anything after
			// yesterday 23:59:59 is out.
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, t.Location())
			if !t.Before(today) {
				return &FieldError{Key: f.Key, Message: f.Label + " must be in the past"}
			}
		}
		return nil

	case FieldTypeDateTime:
		t, err := ParseDateTime(v)
		if err != nil {
			return &FieldError{Key: f.Key, Message: "invalid date and time"}
		}
		if f.datePolicy() == PolicyUpcoming {
			if t.Sub(now) < time.Hour {
				return &FieldError{Key: f.Key, Message: f.Label + " must be at least one hour from now"}
			}
			if t.Sub(now) > upcomingWindow {
				return &FieldError{Key: f.Key, Message: f.Label + " must be within 90 days"}
			}
		}
		return nil

	case FieldTypePhone:
		normalized := strings.NewReplacer(" ", "", "-", "", "\t", "").Replace(v)
		if !phonePattern.MatchString(normalized) {
			return &FieldError{Key: f.Key, Message: "phone must be +1 followed by 10 digits"}
		}
		return nil

	case FieldTypeSelect:
		if !f.HasOption(v) {
			return &FieldError{Key: f.Key, Message: v + " is not a valid choice"}
		}
		return nil

	case FieldTypeTime:
		if !timePattern.MatchString(v) {
			return &FieldError{Key: f.Key, Message: "time must be HH:MM"}
		}
		return nil
	}

	return &FieldError{Key: f.Key, Message: fmt.Sprintf("unknown field type %q", f.Type)}
}

// datePolicy returns the effective bound for a date/datetime field. Schemas
// written before policies became per-field parameters leave Policy empty and
// get the original hard-coded behavior.
func (f *SchemaField) datePolicy() DatePolicy {
	if f.Policy != "" {
		return f.Policy
	}
	switch f.Type {
	case FieldTypeDate:
		return PolicyHistorical
	case FieldTypeDateTime:
		return PolicyUpcoming
	}
	return PolicyNone
}
