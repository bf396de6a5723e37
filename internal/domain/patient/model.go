package patient

import (
	"time"

	"github.com/google/uuid"
)

// CallStatus is the bot-maintained progress of a record's call workflow.
type CallStatus string

const (
	CallStatusPending    CallStatus = "pending"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
)

var validCallStatuses = map[CallStatus]bool{
	CallStatusPending: true, CallStatusInProgress: true,
	CallStatusCompleted: true, CallStatusFailed: true,
}

// Record maps to the patient_record table. The fixed system columns live as
// real columns; every schema-declared attribute lives in the fields JSONB
// document keyed by SchemaField.Key. Keys outside the active schema are
// tolerated but never rendered.
type Record struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	OrganizationID uuid.UUID         `db:"organization_id" json:"organization_id"`
	Workflow       string            `db:"workflow" json:"workflow"`
	CallStatus     CallStatus        `db:"call_status" json:"call_status"`
	Fields         map[string]string `db:"fields" json:"fields"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// Value returns a schema field's stored value, or "".
func (r *Record) Value(key string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[key]
}

// InProgress reports whether the record's call is still being worked.
func (r *Record) InProgress() bool {
	return r.CallStatus == CallStatusInProgress
}
