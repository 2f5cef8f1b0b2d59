package service

import (
	"context"
	"fmt"
	"log"

	"mailreach/internal/mailer"
	"mailreach/internal/models"
	"mailreach/internal/queue"
	"mailreach/internal/repository"
)

// interruptedDiagnostic is written to campaigns found mid-send at startup
const interruptedDiagnostic = "send run interrupted by process restart"

// EventSink receives campaign lifecycle and progress events. Publishing
// is best-effort; a failed publish never affects the run.
type EventSink interface {
	Publish(event queue.CampaignEvent) error
}

// CampaignService owns the campaign lifecycle and the dispatch engine
type CampaignService struct {
	campaignRepo repository.CampaignRepository
	contactRepo  repository.ContactRepository
	templateRepo repository.TemplateRepository
	logRepo      repository.EmailLogRepository
	serverRepo   repository.ServerRepository
	sender       mailer.Sender
	templateSvc  *TemplateService
	events       EventSink
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	campaignRepo repository.CampaignRepository,
	contactRepo repository.ContactRepository,
	templateRepo repository.TemplateRepository,
	logRepo repository.EmailLogRepository,
	serverRepo repository.ServerRepository,
	sender mailer.Sender,
	templateSvc *TemplateService,
	events EventSink,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		contactRepo:  contactRepo,
		templateRepo: templateRepo,
		logRepo:      logRepo,
		serverRepo:   serverRepo,
		sender:       sender,
		templateSvc:  templateSvc,
		events:       events,
	}
}

// CreateCampaignRequest represents a request to create a campaign
type CreateCampaignRequest struct {
	Name          string `json:"name"`
	TemplateID    int    `json:"template_id"`
	TargetGroupID *int   `json:"target_group_id,omitempty"`
}

// Validate validates the create campaign request
func (r *CreateCampaignRequest) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.TemplateID <= 0 {
		return fmt.Errorf("template_id is required")
	}
	return nil
}

// CreateCampaign creates a new draft campaign. The stored audience size
// is a preview; the dispatch engine re-snapshots it when a run begins.
func (s *CampaignService) CreateCampaign(ctx context.Context, req *CreateCampaignRequest) (*models.Campaign, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if _, err := s.templateRepo.GetByID(ctx, req.TemplateID); err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("template %d does not exist", req.TemplateID)}
	}

	exists, err := s.campaignRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check campaign name: %w", err)
	}
	if exists {
		return nil, &ConflictError{Resource: "campaign", Message: fmt.Sprintf("a campaign named %q already exists", req.Name)}
	}

	total, err := s.countAudience(ctx, req.TargetGroupID)
	if err != nil {
		return nil, err
	}

	campaign := &models.Campaign{
		Name:          req.Name,
		TemplateID:    req.TemplateID,
		TargetGroupID: req.TargetGroupID,
		Status:        models.CampaignStatusDraft,
		TotalContacts: total,
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	return campaign, nil
}

// GetCampaign retrieves a campaign by ID
func (s *CampaignService) GetCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}
	return campaign, nil
}

// GetCampaignWithStats retrieves a campaign with attempt statistics
func (s *CampaignService) GetCampaignWithStats(ctx context.Context, id int) (*models.CampaignWithStats, error) {
	campaign, err := s.campaignRepo.GetWithStats(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}
	return campaign, nil
}

// ListCampaigns lists campaigns with filters
func (s *CampaignService) ListCampaigns(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, *PaginationInfo, error) {
	campaigns, total, err := s.campaignRepo.List(ctx, filters)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	pagination := &PaginationInfo{
		Page:       filters.Page,
		PageSize:   pageSize,
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}

	return campaigns, pagination, nil
}

// DuplicateCampaign creates a draft copy of an existing campaign with a
// unique "Copy of" name and a fresh audience size
func (s *CampaignService) DuplicateCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	original, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}

	name := fmt.Sprintf("Copy of %s", original.Name)
	for counter := 1; ; counter++ {
		exists, err := s.campaignRepo.ExistsByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to check campaign name: %w", err)
		}
		if !exists {
			break
		}
		name = fmt.Sprintf("Copy of %s (%d)", original.Name, counter)
	}

	total, err := s.countAudience(ctx, original.TargetGroupID)
	if err != nil {
		return nil, err
	}

	copy := &models.Campaign{
		Name:          name,
		TemplateID:    original.TemplateID,
		TargetGroupID: original.TargetGroupID,
		Status:        models.CampaignStatusDraft,
		TotalContacts: total,
	}

	if err := s.campaignRepo.Create(ctx, copy); err != nil {
		return nil, fmt.Errorf("failed to duplicate campaign: %w", err)
	}

	return copy, nil
}

// DeleteCampaign deletes a campaign with its logs and replies
func (s *CampaignService) DeleteCampaign(ctx context.Context, id int) error {
	if err := s.campaignRepo.Delete(ctx, id); err != nil {
		return &NotFoundError{Resource: "campaign", ID: id}
	}
	return nil
}

// StartCampaign validates the run preconditions and hands the campaign
// to a background send run. The call returns as soon as the campaign is
// flipped to sending; callers poll Progress for the outcome.
func (s *CampaignService) StartCampaign(ctx context.Context, id int) (*models.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}

	if !campaign.CanStart() {
		return nil, &BusinessLogicError{
			Message: fmt.Sprintf("campaign can only be started from draft or failed status, not %s", campaign.Status),
		}
	}

	if _, err := s.serverRepo.GetPrimary(ctx); err != nil {
		return nil, s.failPrecondition(ctx, id, "no primary server configured")
	}

	if _, err := s.templateRepo.GetByID(ctx, campaign.TemplateID); err != nil {
		return nil, s.failPrecondition(ctx, id, fmt.Sprintf("template %d not found", campaign.TemplateID))
	}

	// Flip to sending before spawning so a second start request is
	// rejected by the CanStart gate above.
	if err := s.campaignRepo.UpdateStatus(ctx, id, models.CampaignStatusSending); err != nil {
		return nil, fmt.Errorf("failed to update campaign status: %w", err)
	}

	go s.run(id)

	campaign.Status = models.CampaignStatusSending
	return campaign, nil
}

// failPrecondition records a precondition failure as a terminal failed
// state and returns the caller-visible error. No attempts are recorded.
func (s *CampaignService) failPrecondition(ctx context.Context, id int, diagnostic string) error {
	if err := s.campaignRepo.Finish(ctx, id, models.CampaignStatusFailed, &diagnostic); err != nil {
		log.Printf("Failed to record precondition failure for campaign %d: %v", id, err)
	}
	s.publishState(ctx, id)
	return &PreconditionError{Message: diagnostic}
}

// run executes one complete send run. It is the only writer of the
// campaign's status and counter for the duration of the run.
func (s *CampaignService) run(campaignID int) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			diagnostic := fmt.Sprintf("unexpected error during send run: %v", r)
			log.Printf("Campaign %d run panicked: %v", campaignID, r)
			s.finish(ctx, campaignID, models.CampaignStatusFailed, &diagnostic)
		}
	}()

	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		diagnostic := fmt.Sprintf("failed to load campaign: %v", err)
		s.finish(ctx, campaignID, models.CampaignStatusFailed, &diagnostic)
		return
	}

	// Credentials are read fresh each run so a server switch applies on
	// the next invocation.
	server, err := s.serverRepo.GetPrimary(ctx)
	if err != nil {
		diagnostic := "no primary server configured"
		s.finish(ctx, campaignID, models.CampaignStatusFailed, &diagnostic)
		return
	}

	template, err := s.templateRepo.GetByID(ctx, campaign.TemplateID)
	if err != nil {
		diagnostic := fmt.Sprintf("template %d not found", campaign.TemplateID)
		s.finish(ctx, campaignID, models.CampaignStatusFailed, &diagnostic)
		return
	}

	contacts, err := s.resolveRecipients(ctx, campaign)
	if err != nil {
		diagnostic := fmt.Sprintf("failed to resolve recipients: %v", err)
		s.finish(ctx, campaignID, models.CampaignStatusFailed, &diagnostic)
		return
	}

	// Freeze the roster: the run targets this set even if memberships
	// change concurrently. A restart re-resolves from scratch.
	if err := s.campaignRepo.BeginRun(ctx, campaignID, len(contacts)); err != nil {
		diagnostic := fmt.Sprintf("failed to begin run: %v", err)
		s.finish(ctx, campaignID, models.CampaignStatusFailed, &diagnostic)
		return
	}
	s.publishState(ctx, campaignID)

	succeeded := 0
	failed := 0
	lastError := ""

	for _, contact := range contacts {
		body := s.templateSvc.Render(template.Content, contact.DisplayName())

		ok, diagnostic := s.sender.Send(server, contact.Email, template.Subject, body)

		attempt := &models.EmailLog{
			CampaignID:     &campaignID,
			RecipientEmail: contact.Email,
			Type:           models.LogTypeCampaign,
		}
		if ok {
			attempt.Status = models.LogStatusSent
			succeeded++
		} else {
			attempt.Status = models.LogStatusFailed
			attempt.ErrorMessage = &diagnostic
			failed++
			lastError = diagnostic
		}

		if err := s.logRepo.Create(ctx, attempt); err != nil {
			diag := fmt.Sprintf("failed to record attempt for %s: %v", contact.Email, err)
			s.finish(ctx, campaignID, models.CampaignStatusFailed, &diag)
			return
		}

		// Commit the counter after every attempt so pollers always see
		// an up-to-date, monotonically increasing figure.
		if err := s.campaignRepo.IncrementSent(ctx, campaignID); err != nil {
			diag := fmt.Sprintf("failed to commit progress: %v", err)
			s.finish(ctx, campaignID, models.CampaignStatusFailed, &diag)
			return
		}
		s.publishState(ctx, campaignID)
	}

	switch {
	case len(contacts) == 0:
		// Nothing to send: trivially complete.
		s.finish(ctx, campaignID, models.CampaignStatusCompleted, nil)
	case succeeded == 0:
		diagnostic := fmt.Sprintf("all %d attempts failed; last error: %s", failed, lastError)
		s.finish(ctx, campaignID, models.CampaignStatusFailed, &diagnostic)
	default:
		s.finish(ctx, campaignID, models.CampaignStatusCompleted, nil)
	}
}

// resolveRecipients produces the frozen roster for a run: the group's
// active members when a target group is set, otherwise all active
// contacts, in repository resolution order
func (s *CampaignService) resolveRecipients(ctx context.Context, campaign *models.Campaign) ([]*models.Contact, error) {
	if campaign.TargetGroupID != nil {
		return s.contactRepo.ListActiveByGroup(ctx, *campaign.TargetGroupID)
	}
	return s.contactRepo.ListActive(ctx)
}

// countAudience snapshots the current audience size for display
func (s *CampaignService) countAudience(ctx context.Context, targetGroupID *int) (int, error) {
	var total int
	var err error

	if targetGroupID != nil {
		total, err = s.contactRepo.CountActiveByGroup(ctx, *targetGroupID)
	} else {
		total, err = s.contactRepo.CountActive(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count audience: %w", err)
	}

	return total, nil
}

func (s *CampaignService) finish(ctx context.Context, campaignID int, status models.CampaignStatus, diagnostic *string) {
	if err := s.campaignRepo.Finish(ctx, campaignID, status, diagnostic); err != nil {
		log.Printf("Failed to finalize campaign %d as %s: %v", campaignID, status, err)
		return
	}
	s.publishState(ctx, campaignID)
}

// publishState emits the campaign's current counter as an event.
// Best-effort: the durable counter is the source of truth.
func (s *CampaignService) publishState(ctx context.Context, campaignID int) {
	if s.events == nil {
		return
	}

	campaign, err := s.campaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return
	}

	event := queue.CampaignEvent{
		CampaignID: campaign.ID,
		Status:     campaign.Status,
		Sent:       campaign.SentCount,
		Total:      campaign.TotalContacts,
	}

	if err := s.events.Publish(event); err != nil {
		log.Printf("Warning: failed to publish event for campaign %d: %v", campaignID, err)
	}
}

// ProgressResult is the polling view of a running campaign
type ProgressResult struct {
	Status          models.CampaignStatus `json:"status"`
	Sent            int                   `json:"sent"`
	Total           int                   `json:"total"`
	ProgressPercent float64               `json:"progress_percent"`
}

// Progress reads the current progress snapshot for a campaign
func (s *CampaignService) Progress(ctx context.Context, id int) (*ProgressResult, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: id}
	}

	total := campaign.TotalContacts
	if total < 1 {
		total = 1
	}

	return &ProgressResult{
		Status:          campaign.Status,
		Sent:            campaign.SentCount,
		Total:           total,
		ProgressPercent: campaign.ProgressPercent(),
	}, nil
}

// RecoverInterrupted sweeps campaigns left in sending by a previous
// process into failed. Called once at startup, before serving traffic.
func (s *CampaignService) RecoverInterrupted(ctx context.Context) (int64, error) {
	swept, err := s.campaignRepo.MarkInterrupted(ctx, interruptedDiagnostic)
	if err != nil {
		return 0, fmt.Errorf("failed to recover interrupted campaigns: %w", err)
	}

	if swept > 0 {
		log.Printf("Recovered %d interrupted campaign(s) to failed", swept)
	}

	return swept, nil
}

// PaginationInfo represents pagination metadata
type PaginationInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
