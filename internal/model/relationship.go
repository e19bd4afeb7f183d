package model

import "time"

// Relationship type constants.
const (
	RelTypeGeneric    = "generic"
	RelTypeDependency = "dependency"
)

// Relationship is a directed association between two tasks.
type Relationship struct {
	ID            string    `json:"id" db:"id"`
	TaskID        string    `json:"task_id" db:"task_id"`
	RelatedTaskID string    `json:"related_task_id" db:"related_task_id"`
	RelType       string    `json:"rel_type" db:"rel_type"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
