package service

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"mailreach/internal/mailbox"
	"mailreach/internal/mailer"
	"mailreach/internal/models"
	"mailreach/internal/repository"
)

const (
	// defaultScanLimit bounds one scan to the newest messages so one
	// oversized inbox cannot stall the check indefinitely
	defaultScanLimit = 200

	// headerBatchSize keeps header fetches in small batches so one bad
	// batch skips a handful of messages, not the whole scan
	headerBatchSize = 50

	// noSubject stands in for messages whose subject header is empty
	noSubject = "(No Subject)"
)

// KnownCampaign pairs a campaign with its template subject for matching
type KnownCampaign struct {
	ID      int
	Subject string
}

// SubjectMatcher decides whether an inbound subject belongs to one of
// the known campaigns. It returns the matched campaign ID (nil when the
// message is relevant but unattributed) and whether the message is
// relevant at all.
type SubjectMatcher interface {
	Match(subject string, known []KnownCampaign) (*int, bool)
}

// SubstringMatcher attributes a message to the first campaign whose
// template subject appears, case-insensitively, inside the message
// subject. With no known campaigns every message is relevant but
// unattributed.
type SubstringMatcher struct{}

// Match implements SubjectMatcher
func (SubstringMatcher) Match(subject string, known []KnownCampaign) (*int, bool) {
	if len(known) == 0 {
		return nil, true
	}

	lowered := strings.ToLower(subject)
	for _, campaign := range known {
		if campaign.Subject == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(campaign.Subject)) {
			id := campaign.ID
			return &id, true
		}
	}

	return nil, false
}

// ReplyCandidate is one relevant inbound message extracted by a scan,
// before deduplication and persistence
type ReplyCandidate struct {
	SenderEmail    string
	Subject        string
	Content        string
	CampaignID     *int
	CC             *string
	HasAttachments bool
	ReceivedAt     time.Time
}

// ReplyService owns mailbox scanning, reply correlation and the
// reply-driven send operations
type ReplyService struct {
	replyRepo    repository.ReplyRepository
	campaignRepo repository.CampaignRepository
	templateRepo repository.TemplateRepository
	contactRepo  repository.ContactRepository
	logRepo      repository.EmailLogRepository
	serverRepo   repository.ServerRepository
	mailbox      mailbox.Mailbox
	matcher      SubjectMatcher
	sender       mailer.Sender
	templateSvc  *TemplateService
}

// NewReplyService creates a new reply service
func NewReplyService(
	replyRepo repository.ReplyRepository,
	campaignRepo repository.CampaignRepository,
	templateRepo repository.TemplateRepository,
	contactRepo repository.ContactRepository,
	logRepo repository.EmailLogRepository,
	serverRepo repository.ServerRepository,
	mb mailbox.Mailbox,
	matcher SubjectMatcher,
	sender mailer.Sender,
	templateSvc *TemplateService,
) *ReplyService {
	return &ReplyService{
		replyRepo:    replyRepo,
		campaignRepo: campaignRepo,
		templateRepo: templateRepo,
		contactRepo:  contactRepo,
		logRepo:      logRepo,
		serverRepo:   serverRepo,
		mailbox:      mb,
		matcher:      matcher,
		sender:       sender,
		templateSvc:  templateSvc,
	}
}

// Scan runs one incremental pass over the server's inbox: search since
// the cutoff, classify headers against the known campaigns, and fetch
// bodies of relevant messages only. Connection and authentication
// failures abort the scan; per-message failures are logged and skipped.
// Returns the extracted candidates and the number of messages examined.
func (s *ReplyService) Scan(server *models.Server, known []KnownCampaign, since time.Time, limit int) ([]ReplyCandidate, int, error) {
	if limit <= 0 {
		limit = defaultScanLimit
	}

	session, err := s.mailbox.Open(server)
	if err != nil {
		return nil, 0, &ScanError{Message: err.Error()}
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("Warning: failed to close mailbox session: %v", err)
		}
	}()

	uids, err := session.SearchSince(since)
	if err != nil {
		return nil, 0, &ScanError{Message: err.Error()}
	}

	// Newest messages win when the window exceeds the limit.
	if len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}

	var candidates []ReplyCandidate
	scanned := 0

	for start := 0; start < len(uids); start += headerBatchSize {
		end := start + headerBatchSize
		if end > len(uids) {
			end = len(uids)
		}

		// A batch error may still carry the envelopes collected before
		// the failure; classify those and skip only the missing rest.
		headers, err := session.FetchHeaders(uids[start:end])
		if err != nil {
			log.Printf("Warning: header batch of %d messages incomplete (%d recovered): %v", end-start, len(headers), err)
		}

		for _, header := range headers {
			scanned++

			subject := header.Subject
			if subject == "" {
				subject = noSubject
			}

			campaignID, relevant := s.matcher.Match(subject, known)
			if !relevant {
				continue
			}

			candidate, err := s.extractCandidate(session, header, subject, campaignID)
			if err != nil {
				log.Printf("Warning: skipping message %d from %s: %v", header.UID, header.Sender, err)
				continue
			}

			candidates = append(candidates, *candidate)
		}
	}

	return candidates, scanned, nil
}

func (s *ReplyService) extractCandidate(session mailbox.Session, header mailbox.Header, subject string, campaignID *int) (*ReplyCandidate, error) {
	message, err := session.FetchMessage(header.UID)
	if err != nil {
		return nil, fmt.Errorf("fetching body: %w", err)
	}

	candidate := &ReplyCandidate{
		SenderEmail:    header.Sender,
		Subject:        subject,
		Content:        message.Content,
		CampaignID:     campaignID,
		HasAttachments: message.HasAttachments,
		ReceivedAt:     header.Date,
	}
	if header.CC != "" {
		cc := header.CC
		candidate.CC = &cc
	}
	if candidate.ReceivedAt.IsZero() {
		candidate.ReceivedAt = time.Now().UTC()
	}

	return candidate, nil
}

// CheckRepliesResult summarizes one reply check
type CheckRepliesResult struct {
	NewCount     int `json:"new_count"`
	ScannedCount int `json:"scanned_count"`
}

// CheckRepliesRequest overrides the default scan window and limit
type CheckRepliesRequest struct {
	SinceDate string `json:"since_date,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// CheckReplies scans the primary server's inbox for new replies,
// deduplicates them against stored replies and persists the rest. The
// scan window starts at the first day of the current month.
func (s *ReplyService) CheckReplies(ctx context.Context, req *CheckRepliesRequest) (*CheckRepliesResult, error) {
	server, err := s.serverRepo.GetPrimary(ctx)
	if err != nil {
		return nil, &BusinessLogicError{Message: "no primary server configured"}
	}

	known, err := s.knownCampaigns(ctx)
	if err != nil {
		return nil, err
	}

	// Default window is the first day of the current month
	now := time.Now().UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	limit := defaultScanLimit
	if req != nil {
		if req.SinceDate != "" {
			parsed, err := time.Parse("2006-01-02", req.SinceDate)
			if err != nil {
				return nil, &ValidationError{Message: "since_date must be a YYYY-MM-DD date"}
			}
			since = parsed
		}
		if req.Limit > 0 {
			limit = req.Limit
		}
	}

	candidates, scanned, err := s.Scan(server, known, since, limit)
	if err != nil {
		return nil, err
	}

	stored := 0
	for _, candidate := range candidates {
		exists, err := s.replyRepo.ExistsByContent(ctx, candidate.SenderEmail, candidate.Subject, candidate.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to check for duplicate reply: %w", err)
		}
		if exists {
			continue
		}

		reply := &models.Reply{
			CampaignID:     candidate.CampaignID,
			ServerID:       &server.ID,
			SenderEmail:    candidate.SenderEmail,
			Subject:        candidate.Subject,
			Content:        candidate.Content,
			CC:             candidate.CC,
			HasAttachments: candidate.HasAttachments,
			ReceivedAt:     candidate.ReceivedAt,
		}
		if err := s.replyRepo.Create(ctx, reply); err != nil {
			return nil, fmt.Errorf("failed to store reply: %w", err)
		}
		stored++
	}

	return &CheckRepliesResult{
		NewCount:     stored,
		ScannedCount: scanned,
	}, nil
}

// knownCampaigns builds the matching list from every campaign and its
// template subject, in campaign ID order so attribution is stable
func (s *ReplyService) knownCampaigns(ctx context.Context) ([]KnownCampaign, error) {
	campaigns, err := s.campaignRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	known := make([]KnownCampaign, 0, len(campaigns))
	for _, campaign := range campaigns {
		template, err := s.templateRepo.GetByID(ctx, campaign.TemplateID)
		if err != nil {
			// A campaign whose template was deleted simply cannot match.
			continue
		}
		known = append(known, KnownCampaign{ID: campaign.ID, Subject: template.Subject})
	}

	return known, nil
}

// ListReplies lists stored replies with optional filters
func (s *ReplyService) ListReplies(ctx context.Context, filters repository.ReplyFilters) ([]*models.Reply, error) {
	replies, err := s.replyRepo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	return replies, nil
}

// GetReply retrieves a reply by ID
func (s *ReplyService) GetReply(ctx context.Context, id int) (*models.Reply, error) {
	reply, err := s.replyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "reply", ID: id}
	}
	return reply, nil
}

// MarkRead sets a reply's read flag
func (s *ReplyService) MarkRead(ctx context.Context, id int, read bool) error {
	if _, err := s.replyRepo.GetByID(ctx, id); err != nil {
		return &NotFoundError{Resource: "reply", ID: id}
	}
	if err := s.replyRepo.MarkRead(ctx, id, read); err != nil {
		return fmt.Errorf("failed to mark reply: %w", err)
	}
	return nil
}

// FollowupRequest represents a follow-up message to a reply's sender
type FollowupRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// Validate validates the follow-up request
func (r *FollowupRequest) Validate() error {
	if r.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	if r.Content == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}

// Followup sends a one-off message back to a reply's sender through the
// primary server and records the attempt
func (s *ReplyService) Followup(ctx context.Context, replyID int, req *FollowupRequest) (*models.EmailLog, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	reply, err := s.replyRepo.GetByID(ctx, replyID)
	if err != nil {
		return nil, &NotFoundError{Resource: "reply", ID: replyID}
	}

	server, err := s.serverRepo.GetPrimary(ctx)
	if err != nil {
		return nil, &BusinessLogicError{Message: "no primary server configured"}
	}

	recipient, err := senderAddress(reply.SenderEmail)
	if err != nil {
		return nil, &BusinessLogicError{Message: fmt.Sprintf("reply sender %q is not a valid address", reply.SenderEmail)}
	}

	return s.sendAndLog(ctx, server, reply.CampaignID, recipient, req.Subject, req.Content, models.LogTypeFollowup)
}

// Resend re-delivers the original campaign message to a reply's sender.
// The reply must be attributed to a campaign.
func (s *ReplyService) Resend(ctx context.Context, replyID int) (*models.EmailLog, error) {
	reply, err := s.replyRepo.GetByID(ctx, replyID)
	if err != nil {
		return nil, &NotFoundError{Resource: "reply", ID: replyID}
	}

	if reply.CampaignID == nil {
		return nil, &BusinessLogicError{Message: "reply is not attributed to a campaign"}
	}

	campaign, err := s.campaignRepo.GetByID(ctx, *reply.CampaignID)
	if err != nil {
		return nil, &NotFoundError{Resource: "campaign", ID: *reply.CampaignID}
	}

	template, err := s.templateRepo.GetByID(ctx, campaign.TemplateID)
	if err != nil {
		return nil, &NotFoundError{Resource: "template", ID: campaign.TemplateID}
	}

	server, err := s.serverRepo.GetPrimary(ctx)
	if err != nil {
		return nil, &BusinessLogicError{Message: "no primary server configured"}
	}

	recipient, err := senderAddress(reply.SenderEmail)
	if err != nil {
		return nil, &BusinessLogicError{Message: fmt.Sprintf("reply sender %q is not a valid address", reply.SenderEmail)}
	}

	name := models.FallbackName
	if contact, err := s.contactRepo.GetByEmail(ctx, recipient); err == nil {
		name = contact.DisplayName()
	}

	body := s.templateSvc.Render(template.Content, name)
	return s.sendAndLog(ctx, server, reply.CampaignID, recipient, template.Subject, body, models.LogTypeResend)
}

func (s *ReplyService) sendAndLog(ctx context.Context, server *models.Server, campaignID *int, to, subject, body string, logType models.LogType) (*models.EmailLog, error) {
	ok, diagnostic := s.sender.Send(server, to, subject, body)

	attempt := &models.EmailLog{
		CampaignID:     campaignID,
		RecipientEmail: to,
		Type:           logType,
	}
	if ok {
		attempt.Status = models.LogStatusSent
	} else {
		attempt.Status = models.LogStatusFailed
		attempt.ErrorMessage = &diagnostic
	}

	if err := s.logRepo.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	if !ok {
		return attempt, &BusinessLogicError{Message: fmt.Sprintf("send to %s failed: %s", to, diagnostic)}
	}

	return attempt, nil
}

// senderAddress extracts the bare address from a stored sender string,
// which may be a display form like "Jane Doe <jane@example.com>"
func senderAddress(stored string) (string, error) {
	parsed, err := mail.ParseAddress(stored)
	if err != nil {
		return "", err
	}
	return parsed.Address, nil
}
