package models

import "time"

// Reply is a persisted inbound message attributed (or not) to a campaign
type Reply struct {
	ID             int       `json:"id" db:"id"`
	CampaignID     *int      `json:"campaign_id,omitempty" db:"campaign_id"`
	ServerID       *int      `json:"server_id,omitempty" db:"server_id"`
	SenderEmail    string    `json:"sender_email" db:"sender_email"`
	Subject        string    `json:"subject" db:"subject"`
	Content        string    `json:"content" db:"content"`
	CC             *string   `json:"cc,omitempty" db:"cc"`
	HasAttachments bool      `json:"has_attachments" db:"has_attachments"`
	IsRead         bool      `json:"is_read" db:"is_read"`
	ReceivedAt     time.Time `json:"received_at" db:"received_at"`
}
