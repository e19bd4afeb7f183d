package model

import "time"

// Task status constants.
const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// MaxTitleLength is the longest accepted task title.
const MaxTitleLength = 200

// Task is a tracked item with an optional due timestamp.
type Task struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	Status      string     `json:"status" db:"status"`
	DueAt       *time.Time `json:"due_at,omitempty" db:"due_at"`
	CategoryID  *string    `json:"category_id,omitempty" db:"category_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	// TagIDs is populated by queries that join with task_tags.
	TagIDs []string `json:"tag_ids" db:"-"`
}
