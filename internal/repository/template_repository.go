package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mailreach/internal/models"
)

type templateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *sql.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// Create creates a new template
func (r *templateRepository) Create(ctx context.Context, template *models.Template) error {
	query := `
		INSERT INTO templates (name, subject, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		template.Name,
		template.Subject,
		template.Content,
	).Scan(&template.ID, &template.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

// GetByID retrieves a template by ID
func (r *templateRepository) GetByID(ctx context.Context, id int) (*models.Template, error) {
	query := `
		SELECT id, name, subject, content, created_at
		FROM templates
		WHERE id = $1
	`

	template := &models.Template{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&template.ID,
		&template.Name,
		&template.Subject,
		&template.Content,
		&template.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("template not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return template, nil
}

// List retrieves all templates, newest first
func (r *templateRepository) List(ctx context.Context) ([]*models.Template, error) {
	query := `
		SELECT id, name, subject, content, created_at
		FROM templates
		ORDER BY id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []*models.Template{}
	for rows.Next() {
		template := &models.Template{}
		err := rows.Scan(
			&template.ID,
			&template.Name,
			&template.Subject,
			&template.Content,
			&template.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, template)
	}

	return templates, nil
}

// Update updates a template
func (r *templateRepository) Update(ctx context.Context, template *models.Template) error {
	query := `
		UPDATE templates
		SET name = $1, subject = $2, content = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		template.Name,
		template.Subject,
		template.Content,
		template.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	return checkAffected(result, "template")
}

// InUse checks if any campaign references the template
func (r *templateRepository) InUse(ctx context.Context, id int) (bool, error) {
	var inUse bool
	query := `SELECT EXISTS(SELECT 1 FROM campaigns WHERE template_id = $1)`

	if err := r.db.QueryRowContext(ctx, query, id).Scan(&inUse); err != nil {
		return false, fmt.Errorf("failed to check template usage: %w", err)
	}

	return inUse, nil
}

// Delete deletes a template
func (r *templateRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return checkAffected(result, "template")
}
