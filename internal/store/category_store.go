package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/model"
)

// CreateCategory inserts a new category. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateCategory(ctx context.Context, c model.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("category name must not be empty")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)",
		c.ID, c.Name, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating category: %w", classifyConstraint(err))
	}
	return nil
}

// GetCategoryByID retrieves a single category by ID.
func (s *SQLiteStore) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := s.db.GetContext(ctx, &c, "SELECT * FROM categories WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting category %s: %w", id, err)
	}
	return &c, nil
}

// GetCategories retrieves categories ordered by name, optionally
// filtered by a name substring.
func (s *SQLiteStore) GetCategories(ctx context.Context, query string) ([]model.Category, error) {
	stmt := "SELECT * FROM categories"
	var args []interface{}
	if query != "" {
		stmt += " WHERE name LIKE ?"
		args = append(args, "%"+query+"%")
	}
	stmt += " ORDER BY name"

	var categories []model.Category
	if err := s.db.SelectContext(ctx, &categories, stmt, args...); err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	return categories, nil
}

// GetTasksByCategory returns the tasks in a category, optionally
// excluding completed ones.
func (s *SQLiteStore) GetTasksByCategory(ctx context.Context, categoryID string, showCompleted bool) ([]model.Task, error) {
	stmt := "SELECT * FROM tasks WHERE category_id = ?"
	args := []interface{}{categoryID}
	if !showCompleted {
		stmt += " AND status != ?"
		args = append(args, model.TaskStatusCompleted)
	}
	stmt += " ORDER BY due_at IS NULL, due_at ASC"

	rows, err := s.db.QueryxContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks by category: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}
