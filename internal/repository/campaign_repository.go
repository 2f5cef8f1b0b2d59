package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mailreach/internal/models"
)

type campaignRepository struct {
	db *sql.DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *sql.DB) CampaignRepository {
	return &campaignRepository{db: db}
}

// Create creates a new campaign
func (r *campaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (name, template_id, target_group_id, status, sent_count, total_contacts)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		campaign.Name,
		campaign.TemplateID,
		campaign.TargetGroupID,
		campaign.Status,
		campaign.SentCount,
		campaign.TotalContacts,
	).Scan(&campaign.ID, &campaign.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign by ID
func (r *campaignRepository) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	query := `
		SELECT id, name, template_id, target_group_id, status, sent_count, total_contacts, error_message, created_at
		FROM campaigns
		WHERE id = $1
	`

	campaign := &models.Campaign{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&campaign.ID,
		&campaign.Name,
		&campaign.TemplateID,
		&campaign.TargetGroupID,
		&campaign.Status,
		&campaign.SentCount,
		&campaign.TotalContacts,
		&campaign.ErrorMessage,
		&campaign.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("campaign not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return campaign, nil
}

// GetWithStats retrieves a campaign with its attempt statistics
func (r *campaignRepository) GetWithStats(ctx context.Context, id int) (*models.CampaignWithStats, error) {
	campaign, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	statsQuery := `
		SELECT
			COUNT(*) as total,
			COUNT(*) FILTER (WHERE status = 'sent') as sent,
			COUNT(*) FILTER (WHERE status = 'failed') as failed
		FROM email_logs
		WHERE campaign_id = $1
	`

	stats := models.CampaignStats{}
	err = r.db.QueryRowContext(ctx, statsQuery, id).Scan(
		&stats.Total,
		&stats.Sent,
		&stats.Failed,
	)

	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get campaign stats: %w", err)
	}

	return &models.CampaignWithStats{
		Campaign: *campaign,
		Stats:    stats,
	}, nil
}

// List retrieves campaigns with filters and pagination
func (r *campaignRepository) List(ctx context.Context, filters CampaignFilters) ([]*models.Campaign, int, error) {
	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(`
		SELECT id, name, template_id, target_group_id, status, sent_count, total_contacts, error_message, created_at
		FROM campaigns
		WHERE 1=1
	`)

	args := []interface{}{}
	argPos := 1

	if filters.Status != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND status = $%d", argPos))
		args = append(args, *filters.Status)
		argPos++
	}

	// Order by ID DESC for stable pagination
	queryBuilder.WriteString(" ORDER BY id DESC")

	limit := filters.PageSize
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	offset := (filters.Page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*models.Campaign{}
	for rows.Next() {
		campaign := &models.Campaign{}
		err := rows.Scan(
			&campaign.ID,
			&campaign.Name,
			&campaign.TemplateID,
			&campaign.TargetGroupID,
			&campaign.Status,
			&campaign.SentCount,
			&campaign.TotalContacts,
			&campaign.ErrorMessage,
			&campaign.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	countQuery := "SELECT COUNT(*) FROM campaigns WHERE 1=1"
	countArgs := []interface{}{}

	if filters.Status != nil {
		countQuery += " AND status = $1"
		countArgs = append(countArgs, *filters.Status)
	}

	var totalCount int
	err = r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&totalCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	return campaigns, totalCount, nil
}

// ListAll retrieves every campaign in creation order, oldest first.
// The correlation engine attributes a reply to the first campaign whose
// subject matches, so the order here is the attribution order.
func (r *campaignRepository) ListAll(ctx context.Context) ([]*models.Campaign, error) {
	query := `
		SELECT id, name, template_id, target_group_id, status, sent_count, total_contacts, error_message, created_at
		FROM campaigns
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []*models.Campaign{}
	for rows.Next() {
		campaign := &models.Campaign{}
		err := rows.Scan(
			&campaign.ID,
			&campaign.Name,
			&campaign.TemplateID,
			&campaign.TargetGroupID,
			&campaign.Status,
			&campaign.SentCount,
			&campaign.TotalContacts,
			&campaign.ErrorMessage,
			&campaign.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, nil
}

// ExistsByName checks if a campaign with the given name exists
func (r *campaignRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM campaigns WHERE name = $1)`

	if err := r.db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check campaign name: %w", err)
	}

	return exists, nil
}

// BeginRun moves the campaign into sending with a frozen roster size
// and a zeroed progress counter
func (r *campaignRepository) BeginRun(ctx context.Context, id, totalContacts int) error {
	query := `
		UPDATE campaigns
		SET status = $1, total_contacts = $2, sent_count = 0, error_message = NULL
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, models.CampaignStatusSending, totalContacts, id)
	if err != nil {
		return fmt.Errorf("failed to begin campaign run: %w", err)
	}

	return checkAffected(result, "campaign")
}

// IncrementSent atomically advances the progress counter. Readers of the
// campaign row observe each increment as soon as it commits.
func (r *campaignRepository) IncrementSent(ctx context.Context, id int) error {
	query := `
		UPDATE campaigns
		SET sent_count = sent_count + 1
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment sent count: %w", err)
	}

	return checkAffected(result, "campaign")
}

// Finish records the terminal status and diagnostic for a run
func (r *campaignRepository) Finish(ctx context.Context, id int, status models.CampaignStatus, errorMessage *string) error {
	query := `
		UPDATE campaigns
		SET status = $1, error_message = $2
		WHERE id = $3
	`

	result, err := r.db.ExecContext(ctx, query, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to finish campaign: %w", err)
	}

	return checkAffected(result, "campaign")
}

// UpdateStatus updates campaign status
func (r *campaignRepository) UpdateStatus(ctx context.Context, id int, status models.CampaignStatus) error {
	query := `
		UPDATE campaigns
		SET status = $1
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update campaign status: %w", err)
	}

	return checkAffected(result, "campaign")
}

// MarkInterrupted sweeps every campaign stuck in sending into failed.
// A sending status is never trusted after a restart because no durable
// work queue survives the process.
func (r *campaignRepository) MarkInterrupted(ctx context.Context, diagnostic string) (int64, error) {
	query := `
		UPDATE campaigns
		SET status = $1, error_message = $2
		WHERE status = $3
	`

	result, err := r.db.ExecContext(ctx, query, models.CampaignStatusFailed, diagnostic, models.CampaignStatusSending)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep interrupted campaigns: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// Delete deletes a campaign along with its logs and replies
func (r *campaignRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM email_logs WHERE campaign_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete campaign logs: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM replies WHERE campaign_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete campaign replies: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	if err := checkAffected(result, "campaign"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// checkAffected converts a zero-row update into a not-found error
func checkAffected(result sql.Result, resource string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%s not found", resource)
	}

	return nil
}
