package schema

import "testing"

func TestDateTimeRoundTrip(t *testing.T) {
	tests := []struct {
		display string
		widget  string
	}{
		{"11/15/2025 2:30 PM", "2025-11-15T14:30"},
		{"01/05/2026 9:00 AM", "2026-01-05T09:00"},
		{"12/31/2025 11:59 PM", "2025-12-31T23:59"},
		{"07/04/2025 12:00 AM", "2025-07-04T00:00"},
		{"07/04/2025 12:00 PM", "2025-07-04T12:00"},
	}
	for _, tt := range tests {
		got := ToWidgetValue(FieldTypeDateTime, tt.display)
		if got != tt.widget {
			t.Errorf("ToWidgetValue(%q) = %q, want %q", tt.display, got, tt.widget)
		}
		back := ToDisplayValue(FieldTypeDateTime, got)
		if back != tt.display {
			t.Errorf("round trip of %q produced %q", tt.display, back)
		}
	}
}

func TestDateRoundTrip(t *testing.T) {
	tests := []struct {
		display string
		widget  string
	}{
		{"11/15/2025", "2025-11-15"},
		{"02/01/1990", "1990-02-01"},
	}
	for _, tt := range tests {
		got := ToWidgetValue(FieldTypeDate, tt.display)
		if got != tt.widget {
			t.Errorf("ToWidgetValue(%q) = %q, want %q", tt.display, got, tt.widget)
		}
		if back := ToDisplayValue(FieldTypeDate, got); back != tt.display {
			t.Errorf("round trip of %q produced %q", tt.display, back)
		}
	}
}

func TestToWidgetValue_PassThrough(t *testing.T) {
	if got := ToWidgetValue(FieldTypeDate, "unparseable"); got != "unparseable" {
		t.Errorf("malformed stored values must pass through, got %q", got)
	}
	if got := ToWidgetValue(FieldTypeString, "plain"); got != "plain" {
		t.Errorf("non-date types must pass through, got %q", got)
	}
	if got := ToWidgetValue(FieldTypeDate, ""); got != "" {
		t.Errorf("empty values must pass through, got %q", got)
	}
}

func TestToWidgetValue_AlreadyWidget(t *testing.T) {
	if got := ToWidgetValue(FieldTypeDate, "2025-11-15"); got != "2025-11-15" {
		t.Errorf("widget-form input should be idempotent, got %q", got)
	}
}
