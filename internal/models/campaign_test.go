package models

import "testing"

func TestCanStart(t *testing.T) {
	tests := []struct {
		status CampaignStatus
		want   bool
	}{
		{CampaignStatusDraft, true},
		{CampaignStatusFailed, true},
		{CampaignStatusSending, false},
		{CampaignStatusCompleted, false},
	}

	for _, tt := range tests {
		c := &Campaign{Status: tt.status}
		if got := c.CanStart(); got != tt.want {
			t.Errorf("CanStart() with status %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name  string
		sent  int
		total int
		want  float64
	}{
		{"zero of zero", 0, 0, 0},
		{"partial", 2, 3, 66.7},
		{"third", 1, 3, 33.3},
		{"complete", 5, 5, 100},
		{"empty audience complete", 0, 1, 0},
		{"one of seven", 1, 7, 14.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Campaign{SentCount: tt.sent, TotalContacts: tt.total}
			if got := c.ProgressPercent(); got != tt.want {
				t.Errorf("ProgressPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCampaignValidate(t *testing.T) {
	c := &Campaign{Name: "Launch", TemplateID: 1}
	if err := c.Validate(); err != nil {
		t.Errorf("expected valid campaign, got %v", err)
	}

	c = &Campaign{TemplateID: 1}
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing name")
	}

	c = &Campaign{Name: "Launch"}
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing template")
	}
}
