package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mailreach/internal/models"

	"github.com/lib/pq"
)

type contactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{db: db}
}

// Create creates a new contact
func (r *contactRepository) Create(ctx context.Context, contact *models.Contact) error {
	query := `
		INSERT INTO contacts (email, name, company, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		contact.Email,
		contact.Name,
		contact.Company,
		contact.Status,
	).Scan(&contact.ID, &contact.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// GetByID retrieves a contact by ID
func (r *contactRepository) GetByID(ctx context.Context, id int) (*models.Contact, error) {
	query := `
		SELECT id, email, name, company, status, created_at
		FROM contacts
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a contact by email address
func (r *contactRepository) GetByEmail(ctx context.Context, email string) (*models.Contact, error) {
	query := `
		SELECT id, email, name, company, status, created_at
		FROM contacts
		WHERE email = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *contactRepository) scanOne(row *sql.Row) (*models.Contact, error) {
	contact := &models.Contact{}
	err := row.Scan(
		&contact.ID,
		&contact.Email,
		&contact.Name,
		&contact.Company,
		&contact.Status,
		&contact.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("contact not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return contact, nil
}

// List retrieves contacts with pagination
func (r *contactRepository) List(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	query := `
		SELECT id, email, name, company, status, created_at
		FROM contacts
		ORDER BY id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return r.scanAll(rows)
}

// ListActive retrieves every active contact in ascending ID order.
// This is the resolution order the dispatch engine sends in.
func (r *contactRepository) ListActive(ctx context.Context) ([]*models.Contact, error) {
	query := `
		SELECT id, email, name, company, status, created_at
		FROM contacts
		WHERE status = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, models.ContactStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active contacts: %w", err)
	}

	return r.scanAll(rows)
}

// ListActiveByGroup retrieves active members of a group in ascending ID order
func (r *contactRepository) ListActiveByGroup(ctx context.Context, groupID int) ([]*models.Contact, error) {
	query := `
		SELECT c.id, c.email, c.name, c.company, c.status, c.created_at
		FROM contacts c
		JOIN contact_group_members m ON m.contact_id = c.id
		WHERE m.group_id = $1 AND c.status = $2
		ORDER BY c.id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, models.ContactStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list group contacts: %w", err)
	}

	return r.scanAll(rows)
}

func (r *contactRepository) scanAll(rows *sql.Rows) ([]*models.Contact, error) {
	defer rows.Close()

	contacts := []*models.Contact{}
	for rows.Next() {
		contact := &models.Contact{}
		err := rows.Scan(
			&contact.ID,
			&contact.Email,
			&contact.Name,
			&contact.Company,
			&contact.Status,
			&contact.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}

	return contacts, nil
}

// CountActive counts active contacts
func (r *contactRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM contacts WHERE status = $1`

	if err := r.db.QueryRowContext(ctx, query, models.ContactStatusActive).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active contacts: %w", err)
	}

	return count, nil
}

// CountActiveByGroup counts active contacts in a group
func (r *contactRepository) CountActiveByGroup(ctx context.Context, groupID int) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM contacts c
		JOIN contact_group_members m ON m.contact_id = c.id
		WHERE m.group_id = $1 AND c.status = $2
	`

	if err := r.db.QueryRowContext(ctx, query, groupID, models.ContactStatusActive).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count group contacts: %w", err)
	}

	return count, nil
}

// Delete deletes a contact and its group memberships
func (r *contactRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contact_group_members WHERE contact_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete group memberships: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	if err := checkAffected(result, "contact"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CreateGroup creates a new contact group
func (r *contactRepository) CreateGroup(ctx context.Context, group *models.ContactGroup) error {
	query := `
		INSERT INTO contact_groups (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query, group.Name, group.Description).
		Scan(&group.ID, &group.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	return nil
}

// GetGroupByID retrieves a contact group by ID
func (r *contactRepository) GetGroupByID(ctx context.Context, id int) (*models.ContactGroup, error) {
	query := `
		SELECT id, name, description, created_at
		FROM contact_groups
		WHERE id = $1
	`

	group := &models.ContactGroup{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	return group, nil
}

// ListGroups retrieves all contact groups
func (r *contactRepository) ListGroups(ctx context.Context) ([]*models.ContactGroup, error) {
	query := `
		SELECT id, name, description, created_at
		FROM contact_groups
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []*models.ContactGroup{}
	for rows.Next() {
		group := &models.ContactGroup{}
		err := rows.Scan(&group.ID, &group.Name, &group.Description, &group.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}

	return groups, nil
}

// AddToGroup adds contacts to a group, skipping existing memberships.
// Returns the number of memberships actually created.
func (r *contactRepository) AddToGroup(ctx context.Context, groupID int, contactIDs []int) (int, error) {
	if len(contactIDs) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO contact_group_members (group_id, contact_id)
		SELECT $1, id FROM contacts WHERE id = ANY($2)
		ON CONFLICT DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, groupID, pq.Array(contactIDs))
	if err != nil {
		return 0, fmt.Errorf("failed to add contacts to group: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
