package repository

import (
	"context"
	"database/sql"
	"time"

	"mailreach/internal/models"
)

// CampaignRepository defines campaign data access operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id int) (*models.Campaign, error)
	GetWithStats(ctx context.Context, id int) (*models.CampaignWithStats, error)
	List(ctx context.Context, filters CampaignFilters) ([]*models.Campaign, int, error)
	ListAll(ctx context.Context) ([]*models.Campaign, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	// BeginRun snapshots the roster size and moves the campaign into
	// sending with a zeroed progress counter.
	BeginRun(ctx context.Context, id, totalContacts int) error
	// IncrementSent durably advances the progress counter by one.
	IncrementSent(ctx context.Context, id int) error
	// Finish records the terminal status and optional diagnostic.
	Finish(ctx context.Context, id int, status models.CampaignStatus, errorMessage *string) error
	UpdateStatus(ctx context.Context, id int, status models.CampaignStatus) error
	// MarkInterrupted rewrites every campaign stuck in sending to failed.
	// Returns the number of campaigns swept.
	MarkInterrupted(ctx context.Context, diagnostic string) (int64, error)
	Delete(ctx context.Context, id int) error
}

// CampaignFilters defines filters for listing campaigns
type CampaignFilters struct {
	Page     int
	PageSize int
	Status   *models.CampaignStatus
}

// ContactRepository defines recipient data access operations
type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
	GetByID(ctx context.Context, id int) (*models.Contact, error)
	GetByEmail(ctx context.Context, email string) (*models.Contact, error)
	List(ctx context.Context, limit, offset int) ([]*models.Contact, error)
	// ListActive resolves the whole eligible audience in stable order.
	ListActive(ctx context.Context) ([]*models.Contact, error)
	// ListActiveByGroup resolves the eligible members of one group.
	ListActiveByGroup(ctx context.Context, groupID int) ([]*models.Contact, error)
	CountActive(ctx context.Context) (int, error)
	CountActiveByGroup(ctx context.Context, groupID int) (int, error)
	Delete(ctx context.Context, id int) error

	CreateGroup(ctx context.Context, group *models.ContactGroup) error
	GetGroupByID(ctx context.Context, id int) (*models.ContactGroup, error)
	ListGroups(ctx context.Context) ([]*models.ContactGroup, error)
	AddToGroup(ctx context.Context, groupID int, contactIDs []int) (int, error)
}

// TemplateRepository defines template data access operations
type TemplateRepository interface {
	Create(ctx context.Context, template *models.Template) error
	GetByID(ctx context.Context, id int) (*models.Template, error)
	List(ctx context.Context) ([]*models.Template, error)
	Update(ctx context.Context, template *models.Template) error
	InUse(ctx context.Context, id int) (bool, error)
	Delete(ctx context.Context, id int) error
}

// EmailLogRepository defines send-attempt data access operations.
// Logs are append-only; there is deliberately no update method.
type EmailLogRepository interface {
	Create(ctx context.Context, log *models.EmailLog) error
	ListByCampaign(ctx context.Context, campaignID int) ([]*models.EmailLog, error)
	CountByStatus(ctx context.Context, status models.LogStatus) (int, error)
}

// ReplyFilters defines filters for listing replies
type ReplyFilters struct {
	Since    *time.Time
	Until    *time.Time
	ServerID *int
}

// ReplyRepository defines reply data access operations
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id int) (*models.Reply, error)
	List(ctx context.Context, filters ReplyFilters) ([]*models.Reply, error)
	// ExistsByContent is the dedup gate: a reply is a duplicate when the
	// (sender, subject, content) triple already exists.
	ExistsByContent(ctx context.Context, senderEmail, subject, content string) (bool, error)
	ExistsByServer(ctx context.Context, serverID int) (bool, error)
	MarkRead(ctx context.Context, id int, read bool) error
	Count(ctx context.Context) (int, error)
}

// ServerRepository defines transport credential data access operations
type ServerRepository interface {
	Create(ctx context.Context, server *models.Server) error
	GetByID(ctx context.Context, id int) (*models.Server, error)
	// GetPrimary returns the single primary server, or sql.ErrNoRows
	// wrapped as a not-found error when none is configured.
	GetPrimary(ctx context.Context) (*models.Server, error)
	List(ctx context.Context) ([]*models.Server, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, server *models.Server) error
	// SetPrimary makes the given server primary and demotes every other
	// server in the same transaction.
	SetPrimary(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
}

// DB is a wrapper around *sql.DB to allow passing in transaction
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
