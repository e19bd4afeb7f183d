package store

import (
	"context"
	"fmt"
)

// CategorySummary returns task counts per category. Tasks without a
// category land in the "Uncategorized" bucket.
func (s *SQLiteStore) CategorySummary(ctx context.Context) ([]CountItem, error) {
	return s.countQuery(ctx, `
		SELECT COALESCE(categories.name, 'Uncategorized') AS key, COUNT(tasks.id) AS count
		FROM tasks
		LEFT JOIN categories ON categories.id = tasks.category_id
		GROUP BY categories.id
		ORDER BY key`)
}

// StatusSummary returns task counts per status.
func (s *SQLiteStore) StatusSummary(ctx context.Context) ([]CountItem, error) {
	return s.countQuery(ctx, `
		SELECT status AS key, COUNT(id) AS count
		FROM tasks
		GROUP BY status
		ORDER BY key`)
}

// TagSummary returns task counts per tag, including tags with no tasks.
func (s *SQLiteStore) TagSummary(ctx context.Context) ([]CountItem, error) {
	return s.countQuery(ctx, `
		SELECT tags.name AS key, COUNT(task_tags.task_id) AS count
		FROM tags
		LEFT JOIN task_tags ON task_tags.tag_id = tags.id
		GROUP BY tags.id
		ORDER BY key`)
}

func (s *SQLiteStore) countQuery(ctx context.Context, query string) ([]CountItem, error) {
	var items []CountItem
	if err := s.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("querying summary: %w", err)
	}
	return items, nil
}
