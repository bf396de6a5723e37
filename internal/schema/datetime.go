package schema

import (
	"fmt"
	"time"
)

// Stored records carry dates in the display representation the call center
// shows its agents; edit widgets need the HTML-native representation. The two
// conversions below are exact inverses for values either side produces.
const (
	DisplayDateLayout     = "01/02/2006"
	DisplayDateTimeLayout = "01/02/2006 3:04 PM"
	WidgetDateLayout      = "2006-01-02"
	WidgetDateTimeLayout  = "2006-01-02T15:04"
)

// ParseDate accepts a date in either the widget or the display layout.
func ParseDate(v string) (time.Time, error) {
	if t, err := time.Parse(WidgetDateLayout, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DisplayDateLayout, v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want MM/DD/YYYY or YYYY-MM-DD", v)
}

// ParseDateTime accepts a datetime in either the widget or the display layout.
func ParseDateTime(v string) (time.Time, error) {
	if t, err := time.Parse(WidgetDateTimeLayout, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DisplayDateTimeLayout, v); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q, want MM/DD/YYYY HH:MM AM/PM or YYYY-MM-DDTHH:mm", v)
}

// ToWidgetValue converts a stored value to the edit widget's native
// representation. Values that do not parse (including empty strings) pass
// through untouched so a malformed historical record still renders.
func ToWidgetValue(ft FieldType, stored string) string {
	if stored == "" {
		return stored
	}
	switch ft {
	case FieldTypeDate:
		if t, err := ParseDate(stored); err == nil {
			return t.Format(WidgetDateLayout)
		}
	case FieldTypeDateTime:
		if t, err := ParseDateTime(stored); err == nil {
			return t.Format(WidgetDateTimeLayout)
		}
	}
	return stored
}

// ToDisplayValue converts a widget-native value back to the stored display
// representation. The round trip through ToWidgetValue reproduces the
// original display string exactly.
func ToDisplayValue(ft FieldType, v string) string {
	if v == "" {
		return v
	}
	switch ft {
	case FieldTypeDate:
		if t, err := ParseDate(v); err == nil {
			return t.Format(DisplayDateLayout)
		}
	case FieldTypeDateTime:
		if t, err := ParseDateTime(v); err == nil {
			return t.Format(DisplayDateTimeLayout)
		}
	}
	return v
}
