package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mailreach/internal/models"
)

type serverRepository struct {
	db *sql.DB
}

// NewServerRepository creates a new server repository
func NewServerRepository(db *sql.DB) ServerRepository {
	return &serverRepository{db: db}
}

// Create creates a new server
func (r *serverRepository) Create(ctx context.Context, server *models.Server) error {
	query := `
		INSERT INTO servers (name, smtp_host, smtp_port, smtp_email, smtp_password, imap_host, is_primary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		server.Name,
		server.SMTPHost,
		server.SMTPPort,
		server.SMTPEmail,
		server.SMTPPassword,
		server.IMAPHost,
		server.IsPrimary,
	).Scan(&server.ID, &server.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return nil
}

// GetByID retrieves a server by ID
func (r *serverRepository) GetByID(ctx context.Context, id int) (*models.Server, error) {
	query := `
		SELECT id, name, smtp_host, smtp_port, smtp_email, smtp_password, imap_host, is_primary, created_at
		FROM servers
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetPrimary retrieves the primary server. A fresh lookup runs before
// every dispatch and scan so credential changes apply on the next
// invocation without a restart.
func (r *serverRepository) GetPrimary(ctx context.Context) (*models.Server, error) {
	query := `
		SELECT id, name, smtp_host, smtp_port, smtp_email, smtp_password, imap_host, is_primary, created_at
		FROM servers
		WHERE is_primary = TRUE
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query))
}

func (r *serverRepository) scanOne(row *sql.Row) (*models.Server, error) {
	server := &models.Server{}
	err := row.Scan(
		&server.ID,
		&server.Name,
		&server.SMTPHost,
		&server.SMTPPort,
		&server.SMTPEmail,
		&server.SMTPPassword,
		&server.IMAPHost,
		&server.IsPrimary,
		&server.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("server not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get server: %w", err)
	}

	return server, nil
}

// List retrieves all servers
func (r *serverRepository) List(ctx context.Context) ([]*models.Server, error) {
	query := `
		SELECT id, name, smtp_host, smtp_port, smtp_email, smtp_password, imap_host, is_primary, created_at
		FROM servers
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	defer rows.Close()

	servers := []*models.Server{}
	for rows.Next() {
		server := &models.Server{}
		err := rows.Scan(
			&server.ID,
			&server.Name,
			&server.SMTPHost,
			&server.SMTPPort,
			&server.SMTPEmail,
			&server.SMTPPassword,
			&server.IMAPHost,
			&server.IsPrimary,
			&server.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan server: %w", err)
		}
		servers = append(servers, server)
	}

	return servers, nil
}

// Count counts all servers
func (r *serverRepository) Count(ctx context.Context) (int, error) {
	var count int

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM servers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count servers: %w", err)
	}

	return count, nil
}

// Update updates a server
func (r *serverRepository) Update(ctx context.Context, server *models.Server) error {
	query := `
		UPDATE servers
		SET name = $1, smtp_host = $2, smtp_port = $3, smtp_email = $4, smtp_password = $5, imap_host = $6
		WHERE id = $7
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		server.Name,
		server.SMTPHost,
		server.SMTPPort,
		server.SMTPEmail,
		server.SMTPPassword,
		server.IMAPHost,
		server.ID,
	)

	if err != nil {
		return fmt.Errorf("failed to update server: %w", err)
	}

	return checkAffected(result, "server")
}

// SetPrimary promotes one server and demotes the rest atomically,
// preserving the exactly-one-primary invariant
func (r *serverRepository) SetPrimary(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE servers SET is_primary = FALSE`); err != nil {
		return fmt.Errorf("failed to demote servers: %w", err)
	}

	result, err := tx.ExecContext(ctx, `UPDATE servers SET is_primary = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to promote server: %w", err)
	}

	if err := checkAffected(result, "server"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete deletes a server
func (r *serverRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM servers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}

	return checkAffected(result, "server")
}
