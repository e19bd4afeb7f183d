package model

import "time"

// Notification kind constants. The kind selects the template and the
// suppression window applied by the trigger engine.
const (
	KindDueSoon = "due_soon"
	KindOverdue = "overdue"
	KindTest    = "test"
)

// NotificationLog is one delivery attempt that succeeded. Rows are
// append-only: the table doubles as the audit trail and as the
// deduplication ledger for repeat-notification suppression.
type NotificationLog struct {
	ID string `json:"id" db:"id"`

	// TaskID is nullable so the row survives deletion of its task.
	TaskID      *string   `json:"task_id" db:"task_id"`
	Kind        string    `json:"kind" db:"kind"`
	Destination string    `json:"destination" db:"destination"`
	Payload     string    `json:"payload" db:"payload"`
	SentAt      time.Time `json:"sent_at" db:"sent_at"`
}

// NotificationTemplate is a keyed markdown body with named
// placeholders, rendered per task before fan-out.
type NotificationTemplate struct {
	ID       string `json:"id" db:"id"`
	Key      string `json:"key" db:"key"`
	Markdown string `json:"markdown" db:"markdown"`
}
