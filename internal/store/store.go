package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// Sentinel errors. Store methods wrap these so callers can classify
// failures without parsing driver messages.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	ErrBadRef   = errors.New("referenced record does not exist")
)

// TaskFilter controls filtering for task list queries.
type TaskFilter struct {
	Query       *string // search title + description
	TagID       *string
	CategoryID  *string
	Status      *string // "pending", "completed", or nil (all)
	OverdueOnly bool
	Now         time.Time // reference time for OverdueOnly
	Limit       int
}

// CountItem is one bucket of a summary view.
type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Store defines the persistence interface for tasks, categories, tags,
// relationships, attachments, and the notification subsystem.
type Store interface {
	// === Tasks ===

	CreateTask(ctx context.Context, t model.Task) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	SetTaskStatus(ctx context.Context, id, status string) error
	SetTaskDescription(ctx context.Context, id string, description *string) error
	SetTaskDue(ctx context.Context, id string, dueAt *time.Time) error
	AddTaskTags(ctx context.Context, id string, tagIDs []string) ([]string, error)

	// ListDueBetween returns pending tasks with a due timestamp in
	// [from, to], ordered by due timestamp.
	ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error)

	// ListOverdue returns pending tasks with a due timestamp strictly
	// before now, ordered by due timestamp.
	ListOverdue(ctx context.Context, now time.Time) ([]model.Task, error)

	// === Categories ===

	CreateCategory(ctx context.Context, c model.Category) error
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	GetCategories(ctx context.Context, query string) ([]model.Category, error)
	GetTasksByCategory(ctx context.Context, categoryID string, showCompleted bool) ([]model.Task, error)

	// === Tags ===

	CreateTag(ctx context.Context, t model.Tag) error
	GetTags(ctx context.Context, query string) ([]model.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []string) ([]model.Tag, error)
	GetTasksByTag(ctx context.Context, tagID string, showCompleted bool) ([]model.Task, error)

	// === Relationships ===

	CreateRelationship(ctx context.Context, r model.Relationship) error
	GetRelationships(ctx context.Context, taskID string) ([]model.Relationship, error)

	// === Attachments ===

	CreateAttachment(ctx context.Context, a model.Attachment) error
	GetAttachments(ctx context.Context, taskID string) ([]model.Attachment, error)

	// === Notification log ===

	// AppendNotificationLogs writes all entries in one transaction.
	AppendNotificationLogs(ctx context.Context, entries []model.NotificationLog) error
	GetNotificationLogs(ctx context.Context, limit int) ([]model.NotificationLog, error)

	// NotifiedTaskIDsSince returns the set of task IDs with a log
	// entry of the given kind at or after since.
	NotifiedTaskIDsSince(ctx context.Context, kind string, since time.Time) (map[string]bool, error)

	// === Notification templates ===

	GetTemplate(ctx context.Context, key string) (*model.NotificationTemplate, error)
	GetOrCreateTemplate(ctx context.Context, key, defaultBody string) (string, error)
	UpsertTemplate(ctx context.Context, key, markdown string) error

	// === Settings ===

	// GetSettings reads the global settings row, creating it with
	// defaults on first access.
	GetSettings(ctx context.Context) (model.Settings, error)
	UpdateSettings(ctx context.Context, s model.Settings) error

	// === Summary views ===

	CategorySummary(ctx context.Context) ([]CountItem, error)
	StatusSummary(ctx context.Context) ([]CountItem, error)
	TagSummary(ctx context.Context) ([]CountItem, error)
}

// classifyConstraint maps SQLite constraint failures onto the sentinel
// errors. The modernc driver surfaces constraint names in the error
// text, same strings the sqlite3 CLI prints.
func classifyConstraint(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return ErrConflict
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ErrBadRef
	}
	return err
}
