package models

import (
	"fmt"
	"math"
	"time"
)

// CampaignStatus represents valid campaign statuses
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusFailed    CampaignStatus = "failed"
)

// Campaign represents one bulk-send run of a template to an audience
type Campaign struct {
	ID            int            `json:"id" db:"id"`
	Name          string         `json:"name" db:"name"`
	TemplateID    int            `json:"template_id" db:"template_id"`
	TargetGroupID *int           `json:"target_group_id,omitempty" db:"target_group_id"`
	Status        CampaignStatus `json:"status" db:"status"`
	SentCount     int            `json:"sent_count" db:"sent_count"`
	TotalContacts int            `json:"total_contacts" db:"total_contacts"`
	ErrorMessage  *string        `json:"error_message,omitempty" db:"error_message"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// CampaignStats represents attempt statistics for a campaign
type CampaignStats struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// CampaignWithStats represents a campaign with its attempt statistics
type CampaignWithStats struct {
	Campaign
	Stats CampaignStats `json:"stats"`
}

// Validate checks if the campaign fields are valid
func (c *Campaign) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("campaign name is required")
	}
	if c.TemplateID <= 0 {
		return fmt.Errorf("template is required")
	}
	return nil
}

// CanStart checks if the campaign may enter a send run.
// Only draft and failed campaigns can be (re)started.
func (c *Campaign) CanStart() bool {
	return c.Status == CampaignStatusDraft || c.Status == CampaignStatusFailed
}

// ProgressPercent returns the processed fraction as a percentage rounded
// to one decimal. The total is floored at 1 so an empty audience reads 0
// instead of dividing by zero.
func (c *Campaign) ProgressPercent() float64 {
	total := c.TotalContacts
	if total < 1 {
		total = 1
	}
	return math.Round(float64(c.SentCount)/float64(total)*1000) / 10
}
