package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// CreateRelationship inserts a directed task relationship.
func (s *SQLiteStore) CreateRelationship(ctx context.Context, r model.Relationship) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.RelType == "" {
		r.RelType = model.RelTypeGeneric
	}
	r.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_relationships (id, task_id, related_task_id, rel_type, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.TaskID, r.RelatedTaskID, r.RelType, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating relationship: %w", classifyConstraint(err))
	}
	return nil
}

// GetRelationships returns the relationships originating at a task.
func (s *SQLiteStore) GetRelationships(ctx context.Context, taskID string) ([]model.Relationship, error) {
	var rels []model.Relationship
	err := s.db.SelectContext(ctx, &rels,
		"SELECT * FROM task_relationships WHERE task_id = ? ORDER BY created_at", taskID)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	return rels, nil
}
