package mailbox

import (
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"mailreach/internal/models"
)

// imapsPort is the implicit-TLS IMAP port the client always dials
const imapsPort = 993

// Header holds the envelope fields of one inbox message
type Header struct {
	UID     imap.UID
	Sender  string
	Subject string
	CC      string
	Date    time.Time
}

// Message holds the extracted body of one inbox message. Content is the
// concatenation of the plain-text parts; attachment parts are excluded
// and only flagged.
type Message struct {
	Content        string
	HasAttachments bool
}

// Session is one authenticated, INBOX-selected mailbox connection
type Session interface {
	// SearchSince returns the UIDs of messages received on or after the
	// given date, oldest first.
	SearchSince(since time.Time) ([]imap.UID, error)
	// FetchHeaders retrieves envelope data for the given UIDs.
	FetchHeaders(uids []imap.UID) ([]Header, error)
	// FetchMessage retrieves and parses the full body of one message.
	FetchMessage(uid imap.UID) (*Message, error)
	Close() error
}

// Mailbox opens sessions against a server's inbound endpoint
type Mailbox interface {
	Open(server *models.Server) (Session, error)
}

// IMAPMailbox connects to IMAP servers over implicit TLS
type IMAPMailbox struct{}

// NewIMAPMailbox creates an IMAP mailbox client
func NewIMAPMailbox() *IMAPMailbox {
	return &IMAPMailbox{}
}

// Open dials the server's IMAP host, authenticates with its credentials
// and selects INBOX. The caller must Close the returned session.
func (m *IMAPMailbox) Open(server *models.Server) (Session, error) {
	addr := fmt.Sprintf("%s:%d", server.IMAPHost, imapsPort)

	client, err := imapclient.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(server.SMTPEmail, server.SMTPPassword).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("IMAP login for %s: %w", server.SMTPEmail, err)
	}

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting INBOX: %w", err)
	}

	return &imapSession{client: client}, nil
}

type imapSession struct {
	client *imapclient.Client
}

// SearchSince returns UIDs of messages received on or after the date
func (s *imapSession) SearchSince(since time.Time) ([]imap.UID, error) {
	criteria := &imap.SearchCriteria{
		Since: since,
	}

	searchData, err := s.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	return searchData.AllUIDs(), nil
}

// FetchHeaders retrieves envelopes only, leaving bodies untouched.
// On a mid-fetch error the envelopes collected so far are returned
// alongside the error.
func (s *imapSession) FetchHeaders(uids []imap.UID) ([]Header, error) {
	if len(uids) == 0 {
		return nil, nil
	}

	uidSet := imap.UIDSetNum(uids...)
	fetchOpts := &imap.FetchOptions{
		Envelope: true,
		UID:      true,
	}

	fetchCmd := s.client.Fetch(uidSet, fetchOpts)

	var headers []Header
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		headers = append(headers, headerFromBuffer(buf))
	}

	if err := fetchCmd.Close(); err != nil {
		return headers, fmt.Errorf("fetching headers: %w", err)
	}

	return headers, nil
}

// FetchMessage retrieves the full body of one message without marking
// it as seen
func (s *imapSession) FetchMessage(uid imap.UID) (*Message, error) {
	uidSet := imap.UIDSetNum(uid)

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}

	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := s.client.Fetch(uidSet, fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, fmt.Errorf("message UID %d not found", uid)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, fmt.Errorf("collecting message data: %w", err)
	}

	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, fmt.Errorf("message UID %d has no body", uid)
	}

	content, hasAttachments := extractContent(raw)

	return &Message{
		Content:        content,
		HasAttachments: hasAttachments,
	}, nil
}

// Close logs out of the session
func (s *imapSession) Close() error {
	return s.client.Logout().Wait()
}

// headerFromBuffer extracts a Header from a fetched envelope
func headerFromBuffer(buf *imapclient.FetchMessageBuffer) Header {
	header := Header{
		UID: buf.UID,
	}

	if buf.Envelope == nil {
		return header
	}

	header.Subject = buf.Envelope.Subject
	header.Date = buf.Envelope.Date

	if len(buf.Envelope.From) > 0 {
		header.Sender = formatAddress(buf.Envelope.From[0])
	}

	if len(buf.Envelope.Cc) > 0 {
		ccs := make([]string, 0, len(buf.Envelope.Cc))
		for _, cc := range buf.Envelope.Cc {
			ccs = append(ccs, formatAddress(cc))
		}
		header.CC = strings.Join(ccs, ", ")
	}

	return header
}

// formatAddress renders an address as "Name <addr>" or bare addr
func formatAddress(addr imap.Address) string {
	if addr.Name != "" {
		return fmt.Sprintf("%s <%s>", addr.Name, addr.Addr())
	}
	return addr.Addr()
}
