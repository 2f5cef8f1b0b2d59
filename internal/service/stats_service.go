package service

import (
	"context"
	"fmt"
	"math"

	"mailreach/internal/models"
	"mailreach/internal/repository"
)

// DashboardStats aggregates the headline numbers for the dashboard
type DashboardStats struct {
	TotalCampaigns   int `json:"total_campaigns"`
	ActiveCampaigns  int `json:"active_campaigns"`
	ActiveContacts   int `json:"active_contacts"`
	EmailsSent       int     `json:"emails_sent"`
	EmailsFailed     int     `json:"emails_failed"`
	SuccessRate      float64 `json:"success_rate"`
	RepliesCollected int     `json:"replies_collected"`
}

// StatsService computes dashboard aggregates
type StatsService struct {
	campaignRepo repository.CampaignRepository
	contactRepo  repository.ContactRepository
	logRepo      repository.EmailLogRepository
	replyRepo    repository.ReplyRepository
}

// NewStatsService creates a new stats service
func NewStatsService(
	campaignRepo repository.CampaignRepository,
	contactRepo repository.ContactRepository,
	logRepo repository.EmailLogRepository,
	replyRepo repository.ReplyRepository,
) *StatsService {
	return &StatsService{
		campaignRepo: campaignRepo,
		contactRepo:  contactRepo,
		logRepo:      logRepo,
		replyRepo:    replyRepo,
	}
}

// Dashboard builds the current dashboard snapshot
func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	campaigns, err := s.campaignRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	stats := &DashboardStats{TotalCampaigns: len(campaigns)}
	for _, campaign := range campaigns {
		if campaign.Status == models.CampaignStatusSending {
			stats.ActiveCampaigns++
		}
	}

	if stats.ActiveContacts, err = s.contactRepo.CountActive(ctx); err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}
	if stats.EmailsSent, err = s.logRepo.CountByStatus(ctx, models.LogStatusSent); err != nil {
		return nil, fmt.Errorf("failed to count sent emails: %w", err)
	}
	if stats.EmailsFailed, err = s.logRepo.CountByStatus(ctx, models.LogStatusFailed); err != nil {
		return nil, fmt.Errorf("failed to count failed emails: %w", err)
	}
	if total := stats.EmailsSent + stats.EmailsFailed; total > 0 {
		stats.SuccessRate = math.Round(float64(stats.EmailsSent)/float64(total)*1000) / 10
	}

	if stats.RepliesCollected, err = s.replyRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count replies: %w", err)
	}

	return stats, nil
}
