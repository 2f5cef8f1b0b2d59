package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mailreach/internal/mailbox"
	"mailreach/internal/models"
	"mailreach/internal/queue"
	"mailreach/internal/repository"

	"github.com/emersion/go-imap/v2"
)

// Test fixtures

func testCampaign(status models.CampaignStatus) *models.Campaign {
	return &models.Campaign{
		ID:            1,
		Name:          "Spring Launch",
		TemplateID:    1,
		Status:        status,
		TotalContacts: 3,
		CreatedAt:     time.Now(),
	}
}

func testTemplate() *models.Template {
	return &models.Template{
		ID:      1,
		Name:    "Spring Promo",
		Subject: "Spring Sale",
		Content: "<p>Hi {{name}},</p><p>Our spring sale is on.</p>",
	}
}

func testServer() *models.Server {
	return &models.Server{
		ID:        1,
		Name:      "Primary",
		SMTPHost:  "smtp.example.com",
		SMTPPort:  587,
		SMTPEmail: "sender@example.com",
		IMAPHost:  "imap.example.com",
		IsPrimary: true,
	}
}

func testContacts(n int) []*models.Contact {
	contacts := make([]*models.Contact, n)
	for i := range contacts {
		name := fmt.Sprintf("Contact %d", i+1)
		contacts[i] = &models.Contact{
			ID:     i + 1,
			Email:  fmt.Sprintf("contact%d@example.com", i+1),
			Name:   &name,
			Status: models.ContactStatusActive,
		}
	}
	return contacts
}

// mockCampaignRepository mocks repository.CampaignRepository
type mockCampaignRepository struct {
	mu sync.Mutex

	CreateFunc          func(ctx context.Context, campaign *models.Campaign) error
	GetByIDFunc         func(ctx context.Context, id int) (*models.Campaign, error)
	GetWithStatsFunc    func(ctx context.Context, id int) (*models.CampaignWithStats, error)
	ListFunc            func(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, int, error)
	ListAllFunc         func(ctx context.Context) ([]*models.Campaign, error)
	ExistsByNameFunc    func(ctx context.Context, name string) (bool, error)
	BeginRunFunc        func(ctx context.Context, id, totalContacts int) error
	IncrementSentFunc   func(ctx context.Context, id int) error
	FinishFunc          func(ctx context.Context, id int, status models.CampaignStatus, errorMessage *string) error
	UpdateStatusFunc    func(ctx context.Context, id int, status models.CampaignStatus) error
	MarkInterruptedFunc func(ctx context.Context, diagnostic string) (int64, error)
	DeleteFunc          func(ctx context.Context, id int) error

	Calls map[string]int

	// Mutable run state observed by the default implementations so the
	// dispatch loop can be exercised end to end with one mock.
	Campaign *models.Campaign
}

func newMockCampaignRepository(campaign *models.Campaign) *mockCampaignRepository {
	return &mockCampaignRepository{
		Calls:    make(map[string]int),
		Campaign: campaign,
	}
}

func (m *mockCampaignRepository) called(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[method]++
}

func (m *mockCampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	m.called("Create")
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, campaign)
	}
	campaign.ID = 1
	campaign.CreatedAt = time.Now()
	return nil
}

func (m *mockCampaignRepository) GetByID(ctx context.Context, id int) (*models.Campaign, error) {
	m.called("GetByID")
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Campaign == nil {
		return nil, fmt.Errorf("campaign not found")
	}
	snapshot := *m.Campaign
	return &snapshot, nil
}

func (m *mockCampaignRepository) GetWithStats(ctx context.Context, id int) (*models.CampaignWithStats, error) {
	m.called("GetWithStats")
	if m.GetWithStatsFunc != nil {
		return m.GetWithStatsFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Campaign == nil {
		return nil, fmt.Errorf("campaign not found")
	}
	return &models.CampaignWithStats{Campaign: *m.Campaign}, nil
}

func (m *mockCampaignRepository) List(ctx context.Context, filters repository.CampaignFilters) ([]*models.Campaign, int, error) {
	m.called("List")
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filters)
	}
	return nil, 0, nil
}

func (m *mockCampaignRepository) ListAll(ctx context.Context) ([]*models.Campaign, error) {
	m.called("ListAll")
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Campaign == nil {
		return nil, nil
	}
	snapshot := *m.Campaign
	return []*models.Campaign{&snapshot}, nil
}

func (m *mockCampaignRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	m.called("ExistsByName")
	if m.ExistsByNameFunc != nil {
		return m.ExistsByNameFunc(ctx, name)
	}
	return false, nil
}

func (m *mockCampaignRepository) BeginRun(ctx context.Context, id, totalContacts int) error {
	m.called("BeginRun")
	if m.BeginRunFunc != nil {
		return m.BeginRunFunc(ctx, id, totalContacts)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Campaign.Status = models.CampaignStatusSending
	m.Campaign.TotalContacts = totalContacts
	m.Campaign.SentCount = 0
	m.Campaign.ErrorMessage = nil
	return nil
}

func (m *mockCampaignRepository) IncrementSent(ctx context.Context, id int) error {
	m.called("IncrementSent")
	if m.IncrementSentFunc != nil {
		return m.IncrementSentFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Campaign.SentCount++
	return nil
}

func (m *mockCampaignRepository) Finish(ctx context.Context, id int, status models.CampaignStatus, errorMessage *string) error {
	m.called("Finish")
	if m.FinishFunc != nil {
		return m.FinishFunc(ctx, id, status, errorMessage)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Campaign.Status = status
	m.Campaign.ErrorMessage = errorMessage
	return nil
}

func (m *mockCampaignRepository) UpdateStatus(ctx context.Context, id int, status models.CampaignStatus) error {
	m.called("UpdateStatus")
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Campaign.Status = status
	return nil
}

func (m *mockCampaignRepository) MarkInterrupted(ctx context.Context, diagnostic string) (int64, error) {
	m.called("MarkInterrupted")
	if m.MarkInterruptedFunc != nil {
		return m.MarkInterruptedFunc(ctx, diagnostic)
	}
	return 0, nil
}

func (m *mockCampaignRepository) Delete(ctx context.Context, id int) error {
	m.called("Delete")
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// mockContactRepository mocks repository.ContactRepository
type mockContactRepository struct {
	CreateFunc             func(ctx context.Context, contact *models.Contact) error
	GetByIDFunc            func(ctx context.Context, id int) (*models.Contact, error)
	GetByEmailFunc         func(ctx context.Context, email string) (*models.Contact, error)
	ListFunc               func(ctx context.Context, limit, offset int) ([]*models.Contact, error)
	ListActiveFunc         func(ctx context.Context) ([]*models.Contact, error)
	ListActiveByGroupFunc  func(ctx context.Context, groupID int) ([]*models.Contact, error)
	CountActiveFunc        func(ctx context.Context) (int, error)
	CountActiveByGroupFunc func(ctx context.Context, groupID int) (int, error)
	DeleteFunc             func(ctx context.Context, id int) error
	CreateGroupFunc        func(ctx context.Context, group *models.ContactGroup) error
	GetGroupByIDFunc       func(ctx context.Context, id int) (*models.ContactGroup, error)
	ListGroupsFunc         func(ctx context.Context) ([]*models.ContactGroup, error)
	AddToGroupFunc         func(ctx context.Context, groupID int, contactIDs []int) (int, error)

	Calls map[string]int
}

func newMockContactRepository() *mockContactRepository {
	return &mockContactRepository{Calls: make(map[string]int)}
}

func (m *mockContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, contact)
	}
	contact.ID = m.Calls["Create"]
	return nil
}

func (m *mockContactRepository) GetByID(ctx context.Context, id int) (*models.Contact, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return testContacts(1)[0], nil
}

func (m *mockContactRepository) GetByEmail(ctx context.Context, email string) (*models.Contact, error) {
	m.Calls["GetByEmail"]++
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, fmt.Errorf("contact not found")
}

func (m *mockContactRepository) List(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return testContacts(3), nil
}

func (m *mockContactRepository) ListActive(ctx context.Context) ([]*models.Contact, error) {
	m.Calls["ListActive"]++
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return testContacts(3), nil
}

func (m *mockContactRepository) ListActiveByGroup(ctx context.Context, groupID int) ([]*models.Contact, error) {
	m.Calls["ListActiveByGroup"]++
	if m.ListActiveByGroupFunc != nil {
		return m.ListActiveByGroupFunc(ctx, groupID)
	}
	return testContacts(2), nil
}

func (m *mockContactRepository) CountActive(ctx context.Context) (int, error) {
	m.Calls["CountActive"]++
	if m.CountActiveFunc != nil {
		return m.CountActiveFunc(ctx)
	}
	return 3, nil
}

func (m *mockContactRepository) CountActiveByGroup(ctx context.Context, groupID int) (int, error) {
	m.Calls["CountActiveByGroup"]++
	if m.CountActiveByGroupFunc != nil {
		return m.CountActiveByGroupFunc(ctx, groupID)
	}
	return 2, nil
}

func (m *mockContactRepository) Delete(ctx context.Context, id int) error {
	m.Calls["Delete"]++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockContactRepository) CreateGroup(ctx context.Context, group *models.ContactGroup) error {
	m.Calls["CreateGroup"]++
	if m.CreateGroupFunc != nil {
		return m.CreateGroupFunc(ctx, group)
	}
	group.ID = 1
	return nil
}

func (m *mockContactRepository) GetGroupByID(ctx context.Context, id int) (*models.ContactGroup, error) {
	m.Calls["GetGroupByID"]++
	if m.GetGroupByIDFunc != nil {
		return m.GetGroupByIDFunc(ctx, id)
	}
	return &models.ContactGroup{ID: id, Name: "Newsletter"}, nil
}

func (m *mockContactRepository) ListGroups(ctx context.Context) ([]*models.ContactGroup, error) {
	m.Calls["ListGroups"]++
	if m.ListGroupsFunc != nil {
		return m.ListGroupsFunc(ctx)
	}
	return nil, nil
}

func (m *mockContactRepository) AddToGroup(ctx context.Context, groupID int, contactIDs []int) (int, error) {
	m.Calls["AddToGroup"]++
	if m.AddToGroupFunc != nil {
		return m.AddToGroupFunc(ctx, groupID, contactIDs)
	}
	return len(contactIDs), nil
}

// mockTemplateRepository mocks repository.TemplateRepository
type mockTemplateRepository struct {
	CreateFunc  func(ctx context.Context, template *models.Template) error
	GetByIDFunc func(ctx context.Context, id int) (*models.Template, error)
	ListFunc    func(ctx context.Context) ([]*models.Template, error)
	UpdateFunc  func(ctx context.Context, template *models.Template) error
	InUseFunc   func(ctx context.Context, id int) (bool, error)
	DeleteFunc  func(ctx context.Context, id int) error

	Calls map[string]int
}

func newMockTemplateRepository() *mockTemplateRepository {
	return &mockTemplateRepository{Calls: make(map[string]int)}
}

func (m *mockTemplateRepository) Create(ctx context.Context, template *models.Template) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, template)
	}
	template.ID = 1
	return nil
}

func (m *mockTemplateRepository) GetByID(ctx context.Context, id int) (*models.Template, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return testTemplate(), nil
}

func (m *mockTemplateRepository) List(ctx context.Context) ([]*models.Template, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Template{testTemplate()}, nil
}

func (m *mockTemplateRepository) Update(ctx context.Context, template *models.Template) error {
	m.Calls["Update"]++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, template)
	}
	return nil
}

func (m *mockTemplateRepository) InUse(ctx context.Context, id int) (bool, error) {
	m.Calls["InUse"]++
	if m.InUseFunc != nil {
		return m.InUseFunc(ctx, id)
	}
	return false, nil
}

func (m *mockTemplateRepository) Delete(ctx context.Context, id int) error {
	m.Calls["Delete"]++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// mockEmailLogRepository mocks repository.EmailLogRepository
type mockEmailLogRepository struct {
	mu sync.Mutex

	CreateFunc        func(ctx context.Context, log *models.EmailLog) error
	ListByCampaignFn  func(ctx context.Context, campaignID int) ([]*models.EmailLog, error)
	CountByStatusFunc func(ctx context.Context, status models.LogStatus) (int, error)

	Created []*models.EmailLog
}

func newMockEmailLogRepository() *mockEmailLogRepository {
	return &mockEmailLogRepository{}
}

func (m *mockEmailLogRepository) Create(ctx context.Context, log *models.EmailLog) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = len(m.Created) + 1
	m.Created = append(m.Created, log)
	return nil
}

func (m *mockEmailLogRepository) ListByCampaign(ctx context.Context, campaignID int) ([]*models.EmailLog, error) {
	if m.ListByCampaignFn != nil {
		return m.ListByCampaignFn(ctx, campaignID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Created, nil
}

func (m *mockEmailLogRepository) CountByStatus(ctx context.Context, status models.LogStatus) (int, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, log := range m.Created {
		if log.Status == status {
			count++
		}
	}
	return count, nil
}

// mockReplyRepository mocks repository.ReplyRepository
type mockReplyRepository struct {
	CreateFunc          func(ctx context.Context, reply *models.Reply) error
	GetByIDFunc         func(ctx context.Context, id int) (*models.Reply, error)
	ListFunc            func(ctx context.Context, filters repository.ReplyFilters) ([]*models.Reply, error)
	ExistsByContentFunc func(ctx context.Context, senderEmail, subject, content string) (bool, error)
	ExistsByServerFunc  func(ctx context.Context, serverID int) (bool, error)
	MarkReadFunc        func(ctx context.Context, id int, read bool) error
	CountFunc           func(ctx context.Context) (int, error)

	Created []*models.Reply
}

func newMockReplyRepository() *mockReplyRepository {
	return &mockReplyRepository{}
}

func (m *mockReplyRepository) Create(ctx context.Context, reply *models.Reply) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, reply)
	}
	reply.ID = len(m.Created) + 1
	m.Created = append(m.Created, reply)
	return nil
}

func (m *mockReplyRepository) GetByID(ctx context.Context, id int) (*models.Reply, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("reply not found")
}

func (m *mockReplyRepository) List(ctx context.Context, filters repository.ReplyFilters) ([]*models.Reply, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filters)
	}
	return m.Created, nil
}

func (m *mockReplyRepository) ExistsByContent(ctx context.Context, senderEmail, subject, content string) (bool, error) {
	if m.ExistsByContentFunc != nil {
		return m.ExistsByContentFunc(ctx, senderEmail, subject, content)
	}
	for _, reply := range m.Created {
		if reply.SenderEmail == senderEmail && reply.Subject == subject && reply.Content == content {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReplyRepository) ExistsByServer(ctx context.Context, serverID int) (bool, error) {
	if m.ExistsByServerFunc != nil {
		return m.ExistsByServerFunc(ctx, serverID)
	}
	return false, nil
}

func (m *mockReplyRepository) MarkRead(ctx context.Context, id int, read bool) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, id, read)
	}
	return nil
}

func (m *mockReplyRepository) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return len(m.Created), nil
}

// mockServerRepository mocks repository.ServerRepository
type mockServerRepository struct {
	CreateFunc     func(ctx context.Context, server *models.Server) error
	GetByIDFunc    func(ctx context.Context, id int) (*models.Server, error)
	GetPrimaryFunc func(ctx context.Context) (*models.Server, error)
	ListFunc       func(ctx context.Context) ([]*models.Server, error)
	CountFunc      func(ctx context.Context) (int, error)
	UpdateFunc     func(ctx context.Context, server *models.Server) error
	SetPrimaryFunc func(ctx context.Context, id int) error
	DeleteFunc     func(ctx context.Context, id int) error

	Calls map[string]int
}

func newMockServerRepository() *mockServerRepository {
	return &mockServerRepository{Calls: make(map[string]int)}
}

func (m *mockServerRepository) Create(ctx context.Context, server *models.Server) error {
	m.Calls["Create"]++
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, server)
	}
	server.ID = 1
	return nil
}

func (m *mockServerRepository) GetByID(ctx context.Context, id int) (*models.Server, error) {
	m.Calls["GetByID"]++
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return testServer(), nil
}

func (m *mockServerRepository) GetPrimary(ctx context.Context) (*models.Server, error) {
	m.Calls["GetPrimary"]++
	if m.GetPrimaryFunc != nil {
		return m.GetPrimaryFunc(ctx)
	}
	return testServer(), nil
}

func (m *mockServerRepository) List(ctx context.Context) ([]*models.Server, error) {
	m.Calls["List"]++
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Server{testServer()}, nil
}

func (m *mockServerRepository) Count(ctx context.Context) (int, error) {
	m.Calls["Count"]++
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 1, nil
}

func (m *mockServerRepository) Update(ctx context.Context, server *models.Server) error {
	m.Calls["Update"]++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, server)
	}
	return nil
}

func (m *mockServerRepository) SetPrimary(ctx context.Context, id int) error {
	m.Calls["SetPrimary"]++
	if m.SetPrimaryFunc != nil {
		return m.SetPrimaryFunc(ctx, id)
	}
	return nil
}

func (m *mockServerRepository) Delete(ctx context.Context, id int) error {
	m.Calls["Delete"]++
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// mockSender mocks mailer.Sender. FailFor lists recipient addresses
// whose sends should fail.
type mockSender struct {
	mu      sync.Mutex
	FailFor map[string]string
	Sent    []string
}

func newMockSender() *mockSender {
	return &mockSender{FailFor: make(map[string]string)}
}

func (m *mockSender) Send(server *models.Server, to, subject, htmlBody string) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, to)
	if diagnostic, ok := m.FailFor[to]; ok {
		return false, diagnostic
	}
	return true, "Sent successfully"
}

// mockEventSink records published campaign events
type mockEventSink struct {
	mu     sync.Mutex
	Events []queue.CampaignEvent
	Err    error
}

func (m *mockEventSink) Publish(event queue.CampaignEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, event)
	return nil
}

// fakeSession is an in-memory mailbox.Session backed by fixed messages
type fakeSession struct {
	headers    []mailbox.Header
	bodies     map[imap.UID]*mailbox.Message
	searchErr  error
	headersErr error
	// With headersErr set, FetchHeaders still returns the first
	// headersKeep matched envelopes alongside the error
	headersKeep int
	fetchErr    map[imap.UID]error
	closed      bool
}

func (s *fakeSession) SearchSince(since time.Time) ([]imap.UID, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	uids := make([]imap.UID, 0, len(s.headers))
	for _, h := range s.headers {
		if h.Date.Before(since) {
			continue
		}
		uids = append(uids, h.UID)
	}
	return uids, nil
}

func (s *fakeSession) FetchHeaders(uids []imap.UID) ([]mailbox.Header, error) {
	want := make(map[imap.UID]bool, len(uids))
	for _, uid := range uids {
		want[uid] = true
	}
	var out []mailbox.Header
	for _, h := range s.headers {
		if want[h.UID] {
			out = append(out, h)
		}
	}
	if s.headersErr != nil {
		if s.headersKeep < len(out) {
			out = out[:s.headersKeep]
		}
		return out, s.headersErr
	}
	return out, nil
}

func (s *fakeSession) FetchMessage(uid imap.UID) (*mailbox.Message, error) {
	if err, ok := s.fetchErr[uid]; ok {
		return nil, err
	}
	msg, ok := s.bodies[uid]
	if !ok {
		return nil, fmt.Errorf("no such message %d", uid)
	}
	return msg, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// fakeMailbox opens a fixed session, or fails
type fakeMailbox struct {
	session *fakeSession
	openErr error
}

func (m *fakeMailbox) Open(server *models.Server) (mailbox.Session, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	return m.session, nil
}
