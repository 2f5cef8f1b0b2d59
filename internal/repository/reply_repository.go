package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"mailreach/internal/models"
)

type replyRepository struct {
	db *sql.DB
}

// NewReplyRepository creates a new reply repository
func NewReplyRepository(db *sql.DB) ReplyRepository {
	return &replyRepository{db: db}
}

// Create creates a new reply
func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	query := `
		INSERT INTO replies (campaign_id, server_id, sender_email, subject, content, cc, has_attachments, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		reply.CampaignID,
		reply.ServerID,
		reply.SenderEmail,
		reply.Subject,
		reply.Content,
		reply.CC,
		reply.HasAttachments,
		reply.ReceivedAt,
	).Scan(&reply.ID)

	if err != nil {
		return fmt.Errorf("failed to create reply: %w", err)
	}

	return nil
}

// GetByID retrieves a reply by ID
func (r *replyRepository) GetByID(ctx context.Context, id int) (*models.Reply, error) {
	query := `
		SELECT id, campaign_id, server_id, sender_email, subject, content, cc, has_attachments, is_read, received_at
		FROM replies
		WHERE id = $1
	`

	reply := &models.Reply{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reply.ID,
		&reply.CampaignID,
		&reply.ServerID,
		&reply.SenderEmail,
		&reply.Subject,
		&reply.Content,
		&reply.CC,
		&reply.HasAttachments,
		&reply.IsRead,
		&reply.ReceivedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reply not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reply: %w", err)
	}

	return reply, nil
}

// List retrieves replies with optional date and server filters, newest first
func (r *replyRepository) List(ctx context.Context, filters ReplyFilters) ([]*models.Reply, error) {
	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(`
		SELECT id, campaign_id, server_id, sender_email, subject, content, cc, has_attachments, is_read, received_at
		FROM replies
		WHERE 1=1
	`)

	args := []interface{}{}
	argPos := 1

	if filters.Since != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND received_at >= $%d", argPos))
		args = append(args, *filters.Since)
		argPos++
	}

	if filters.Until != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND received_at < $%d", argPos))
		args = append(args, *filters.Until)
		argPos++
	}

	if filters.ServerID != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND server_id = $%d", argPos))
		args = append(args, *filters.ServerID)
		argPos++
	}

	queryBuilder.WriteString(" ORDER BY received_at DESC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	defer rows.Close()

	replies := []*models.Reply{}
	for rows.Next() {
		reply := &models.Reply{}
		err := rows.Scan(
			&reply.ID,
			&reply.CampaignID,
			&reply.ServerID,
			&reply.SenderEmail,
			&reply.Subject,
			&reply.Content,
			&reply.CC,
			&reply.HasAttachments,
			&reply.IsRead,
			&reply.ReceivedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, reply)
	}

	return replies, nil
}

// ExistsByContent checks the (sender, subject, content) dedup triple
func (r *replyRepository) ExistsByContent(ctx context.Context, senderEmail, subject, content string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS(
			SELECT 1 FROM replies
			WHERE sender_email = $1 AND subject = $2 AND content = $3
		)
	`

	if err := r.db.QueryRowContext(ctx, query, senderEmail, subject, content).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check reply existence: %w", err)
	}

	return exists, nil
}

// ExistsByServer checks if any reply references the server
func (r *replyRepository) ExistsByServer(ctx context.Context, serverID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM replies WHERE server_id = $1)`

	if err := r.db.QueryRowContext(ctx, query, serverID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check server replies: %w", err)
	}

	return exists, nil
}

// MarkRead sets the read flag on a reply
func (r *replyRepository) MarkRead(ctx context.Context, id int, read bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE replies SET is_read = $1 WHERE id = $2`, read, id)
	if err != nil {
		return fmt.Errorf("failed to mark reply read: %w", err)
	}

	return checkAffected(result, "reply")
}

// Count counts all replies
func (r *replyRepository) Count(ctx context.Context) (int, error) {
	var count int

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM replies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count replies: %w", err)
	}

	return count, nil
}
