package model

import "time"

// Attachment is a file uploaded against a task. The file itself lives
// on disk; the row records its name and serving URL.
type Attachment struct {
	ID        string    `json:"id" db:"id"`
	TaskID    string    `json:"task_id" db:"task_id"`
	Filename  string    `json:"filename" db:"filename"`
	URL       string    `json:"url" db:"url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
