package form

import (
	"errors"
	"testing"

	"github.com/callcare/callcare/internal/schema"
)

func testConfig() *schema.WorkflowConfig {
	return &schema.WorkflowConfig{
		Enabled:     true,
		DisplayName: "Prior Authorization",
		PatientSchema: []schema.SchemaField{
			{Key: "first_name", Label: "First Name", Type: schema.FieldTypeString, Required: true, DisplayOrder: 1},
			{Key: "dob", Label: "Date of Birth", Type: schema.FieldTypeDate, Required: true, DisplayOrder: 2},
			{Key: "phone", Label: "Phone", Type: schema.FieldTypePhone, Required: true, DisplayOrder: 3},
			{Key: "insurance", Label: "Insurance", Type: schema.FieldTypeSelect, DisplayOrder: 4,
				Options: []string{"medicare", "commercial"}, Default: "commercial"},
			{Key: "call_summary", Label: "Call Summary", Type: schema.FieldTypeText, DisplayOrder: 5, Computed: true},
		},
	}
}

func TestBuildCreateForm_Defaults(t *testing.T) {
	f := BuildCreateForm(testConfig())

	if len(f.Fields) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(f.Fields))
	}
	if f.Fields[0].Value != "" {
		t.Errorf("field without default should start empty, got %q", f.Fields[0].Value)
	}
	if f.Fields[3].Value != "commercial" {
		t.Errorf("expected schema default, got %q", f.Fields[3].Value)
	}
	if f.Fields[3].Widget != "select" {
		t.Errorf("select field should render a closed choice, got %q", f.Fields[3].Widget)
	}
	if !f.Fields[4].ReadOnly {
		t.Error("computed field must be read-only")
	}
}

func TestBuildEditForm_ConvertsStoredDates(t *testing.T) {
	record := map[string]string{
		"first_name": "Ada",
		"dob":        "06/15/1990",
		"phone":      "+15551234567",
	}
	f := BuildEditForm(testConfig(), record)

	if f.Fields[1].Value != "1990-06-15" {
		t.Errorf("stored display date should convert to widget form, got %q", f.Fields[1].Value)
	}
	if f.Fields[0].Value != "Ada" {
		t.Errorf("expected Ada, got %q", f.Fields[0].Value)
	}
	// Missing key falls back to the schema default.
	if f.Fields[3].Value != "commercial" {
		t.Errorf("expected default for missing key, got %q", f.Fields[3].Value)
	}
}

func TestSubmit_ValidationFailureKeepsFormOpen(t *testing.T) {
	f := BuildCreateForm(testConfig())
	f.SetValues(map[string]string{
		"first_name": "Ada",
		"dob":        "1990-06-15",
		"phone":      "5551234567", // missing country code
	})

	payload, err := f.Submit()
	if payload != nil {
		t.Fatal("no payload may be produced when validation fails")
	}
	var verr *schema.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *schema.ValidationError, got %T", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Key != "phone" {
		t.Fatalf("expected one error on phone, got %+v", verr.Fields)
	}

	// The failing field is annotated inline; the others are clean.
	for _, fld := range f.Fields {
		if fld.Key == "phone" && fld.Error == "" {
			t.Error("phone field should carry an inline error")
		}
		if fld.Key != "phone" && fld.Error != "" {
			t.Errorf("field %s should not carry an error, got %q", fld.Key, fld.Error)
		}
	}
}

func TestSubmit_PayloadShape(t *testing.T) {
	f := BuildCreateForm(testConfig())
	f.SetValues(map[string]string{
		"first_name":   "Ada",
		"dob":          "1990-06-15",
		"phone":        "+15551234567",
		"insurance":    "medicare",
		"call_summary": "agent typed into a computed field somehow",
		"stray_key":    "ignored",
	})

	payload, err := f.Submit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := payload["call_summary"]; ok {
		t.Error("payload must never contain a computed key")
	}
	if _, ok := payload["stray_key"]; ok {
		t.Error("payload must never contain a key outside the schema")
	}
	if payload["dob"] != "06/15/1990" {
		t.Errorf("dates normalize to display form in the payload, got %q", payload["dob"])
	}
	want := []string{"first_name", "dob", "phone", "insurance"}
	if len(payload) != len(want) {
		t.Errorf("expected %d payload keys, got %d: %v", len(want), len(payload), payload)
	}
	for _, k := range want {
		if _, ok := payload[k]; !ok {
			t.Errorf("payload missing schema key %s", k)
		}
	}
}

func TestSubmit_ComputedNeverBlocks(t *testing.T) {
	cfg := &schema.WorkflowConfig{
		PatientSchema: []schema.SchemaField{
			{Key: "bot_notes", Label: "Bot Notes", Type: schema.FieldTypeText, Required: true, Computed: true},
		},
	}
	f := BuildCreateForm(cfg)
	payload, err := f.Submit()
	if err != nil {
		t.Fatalf("computed required field must not fail validation: %v", err)
	}
	if len(payload) != 0 {
		t.Errorf("expected empty payload, got %v", payload)
	}
}

func TestSetValue_UnknownKey(t *testing.T) {
	f := BuildCreateForm(testConfig())
	if err := f.SetValue("no_such_field", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestEditRoundTrip(t *testing.T) {
	cfg := &schema.WorkflowConfig{
		PatientSchema: []schema.SchemaField{
			{Key: "appointment_at", Label: "Appointment", Type: schema.FieldTypeDateTime,
				Policy: schema.PolicyNone},
		},
	}
	record := map[string]string{"appointment_at": "11/15/2025 2:30 PM"}

	f := BuildEditForm(cfg, record)
	if f.Fields[0].Value != "2025-11-15T14:30" {
		t.Fatalf("expected widget form, got %q", f.Fields[0].Value)
	}

	payload, err := f.Submit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload["appointment_at"] != "11/15/2025 2:30 PM" {
		t.Errorf("round trip must reproduce the display string exactly, got %q", payload["appointment_at"])
	}
}
