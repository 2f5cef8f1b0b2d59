package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mailreach/internal/models"
)

type emailLogRepository struct {
	db *sql.DB
}

// NewEmailLogRepository creates a new email log repository
func NewEmailLogRepository(db *sql.DB) EmailLogRepository {
	return &emailLogRepository{db: db}
}

// Create appends one send-attempt record
func (r *emailLogRepository) Create(ctx context.Context, log *models.EmailLog) error {
	query := `
		INSERT INTO email_logs (campaign_id, recipient_email, status, type, error_message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, sent_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		log.CampaignID,
		log.RecipientEmail,
		log.Status,
		log.Type,
		log.ErrorMessage,
	).Scan(&log.ID, &log.SentAt)

	if err != nil {
		return fmt.Errorf("failed to create email log: %w", err)
	}

	return nil
}

// ListByCampaign retrieves attempts for a campaign in creation order
func (r *emailLogRepository) ListByCampaign(ctx context.Context, campaignID int) ([]*models.EmailLog, error) {
	query := `
		SELECT id, campaign_id, recipient_email, status, type, error_message, sent_at
		FROM email_logs
		WHERE campaign_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list email logs: %w", err)
	}
	defer rows.Close()

	logs := []*models.EmailLog{}
	for rows.Next() {
		log := &models.EmailLog{}
		err := rows.Scan(
			&log.ID,
			&log.CampaignID,
			&log.RecipientEmail,
			&log.Status,
			&log.Type,
			&log.ErrorMessage,
			&log.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email log: %w", err)
		}
		logs = append(logs, log)
	}

	return logs, nil
}

// CountByStatus counts attempts with the given outcome
func (r *emailLogRepository) CountByStatus(ctx context.Context, status models.LogStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM email_logs WHERE status = $1`

	err := r.db.QueryRowContext(ctx, query, status).Scan(&count)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to count email logs: %w", err)
	}

	return count, nil
}
