// Package table derives list-view column descriptors from a resolved workflow
// schema. It shares the schema's display ordering with the form layer, so the
// two surfaces always agree on field order.
package table

import (
	"github.com/callcare/callcare/internal/schema"
)

// Column keys for the two fixed system columns appended after all
// schema-derived columns. They are not sourced from any schema.
const (
	ColumnCallStatus = "call_status"
	ColumnActions    = "actions"
)

// EmptyCell is rendered for null, empty, or missing values.
const EmptyCell = "-"

// Column describes one list-view column.
type Column struct {
	Key      string                 `json:"key"`
	Label    string                 `json:"label"`
	Type     schema.FieldType       `json:"type,omitempty"`
	Priority schema.DisplayPriority `json:"priority,omitempty"`
	System   bool                   `json:"system"`
}

// BuildColumns returns the ordered column list for cfg: schema fields with
// display_in_list set, ascending by display_order (cfg is already sorted by
// the resolver), then the call-status and actions columns.
func BuildColumns(cfg *schema.WorkflowConfig) []Column {
	cols := make([]Column, 0, len(cfg.PatientSchema)+2)
	for _, f := range cfg.PatientSchema {
		if !f.DisplayInList {
			continue
		}
		cols = append(cols, Column{
			Key:      f.Key,
			Label:    f.Label,
			Type:     f.Type,
			Priority: f.DisplayPriority,
		})
	}
	cols = append(cols,
		Column{Key: ColumnCallStatus, Label: "Status", System: true},
		Column{Key: ColumnActions, Label: "Actions", System: true},
	)
	return cols
}

// Cell renders one record value for a column. The table layer is type-aware
// only to the extent of the empty placeholder; formatting stays with the
// stored representation.
func Cell(record map[string]string, col Column) string {
	v, ok := record[col.Key]
	if !ok || v == "" {
		return EmptyCell
	}
	return v
}

// SelectionState is the tri-state of a page's row selection.
type SelectionState int

const (
	SelectionNone SelectionState = iota
	SelectionSome
	SelectionAll
)

// Selection tracks selected row IDs independently of the schema.
type Selection struct {
	ids map[string]bool
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]bool)}
}

// Toggle flips one row's selection and reports the new state.
func (s *Selection) Toggle(id string) bool {
	if s.ids[id] {
		delete(s.ids, id)
		return false
	}
	s.ids[id] = true
	return true
}

// Selected reports whether a row is selected.
func (s *Selection) Selected(id string) bool {
	return s.ids[id]
}

// SelectAll selects every row on the current page.
func (s *Selection) SelectAll(pageIDs []string) {
	for _, id := range pageIDs {
		s.ids[id] = true
	}
}

// Clear deselects everything.
func (s *Selection) Clear() {
	s.ids = make(map[string]bool)
}

// IDs returns the selected row IDs in no particular order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}

// State reports none/some/all relative to the rows on the current page.
func (s *Selection) State(pageIDs []string) SelectionState {
	if len(pageIDs) == 0 {
		return SelectionNone
	}
	n := 0
	for _, id := range pageIDs {
		if s.ids[id] {
			n++
		}
	}
	switch n {
	case 0:
		return SelectionNone
	case len(pageIDs):
		return SelectionAll
	default:
		return SelectionSome
	}
}
