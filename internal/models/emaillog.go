package models

import "time"

// LogStatus represents the outcome of one send attempt
type LogStatus string

const (
	LogStatusSent   LogStatus = "sent"
	LogStatusFailed LogStatus = "failed"
)

// LogType represents the kind of send that produced an attempt
type LogType string

const (
	LogTypeCampaign LogType = "campaign"
	LogTypeFollowup LogType = "followup"
	LogTypeResend   LogType = "resend"
)

// EmailLog is the immutable record of one recipient-level send attempt.
// Rows are append-only and never mutated after creation.
type EmailLog struct {
	ID             int       `json:"id" db:"id"`
	CampaignID     *int      `json:"campaign_id,omitempty" db:"campaign_id"`
	RecipientEmail string    `json:"recipient_email" db:"recipient_email"`
	Status         LogStatus `json:"status" db:"status"`
	Type           LogType   `json:"type" db:"type"`
	ErrorMessage   *string   `json:"error_message,omitempty" db:"error_message"`
	SentAt         time.Time `json:"sent_at" db:"sent_at"`
}
