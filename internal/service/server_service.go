package service

import (
	"context"
	"fmt"

	"mailreach/internal/models"
	"mailreach/internal/repository"
)

// ServerService manages transport credentials and primary selection
type ServerService struct {
	serverRepo repository.ServerRepository
	replyRepo  repository.ReplyRepository
}

// NewServerService creates a new server service
func NewServerService(serverRepo repository.ServerRepository, replyRepo repository.ReplyRepository) *ServerService {
	return &ServerService{
		serverRepo: serverRepo,
		replyRepo:  replyRepo,
	}
}

// CreateServerRequest represents a request to register a server
type CreateServerRequest struct {
	Name         string `json:"name"`
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPEmail    string `json:"smtp_email"`
	SMTPPassword string `json:"smtp_password"`
	IMAPHost     string `json:"imap_host"`
}

// CreateServer registers a server. The first server registered becomes
// primary automatically.
func (s *ServerService) CreateServer(ctx context.Context, req *CreateServerRequest) (*models.Server, error) {
	server := &models.Server{
		Name:         req.Name,
		SMTPHost:     req.SMTPHost,
		SMTPPort:     req.SMTPPort,
		SMTPEmail:    req.SMTPEmail,
		SMTPPassword: req.SMTPPassword,
		IMAPHost:     req.IMAPHost,
	}
	if err := server.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	if req.SMTPPassword == "" {
		return nil, &ValidationError{Message: "smtp password is required"}
	}

	count, err := s.serverRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count servers: %w", err)
	}
	server.IsPrimary = count == 0

	if err := s.serverRepo.Create(ctx, server); err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	return server, nil
}

// GetServer retrieves a server by ID
func (s *ServerService) GetServer(ctx context.Context, id int) (*models.Server, error) {
	server, err := s.serverRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "server", ID: id}
	}
	return server, nil
}

// ListServers lists all registered servers
func (s *ServerService) ListServers(ctx context.Context) ([]*models.Server, error) {
	servers, err := s.serverRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

// UpdateServer edits a server's credentials. An empty password keeps
// the stored one.
func (s *ServerService) UpdateServer(ctx context.Context, id int, req *CreateServerRequest) (*models.Server, error) {
	server, err := s.serverRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "server", ID: id}
	}

	server.Name = req.Name
	server.SMTPHost = req.SMTPHost
	server.SMTPPort = req.SMTPPort
	server.SMTPEmail = req.SMTPEmail
	server.IMAPHost = req.IMAPHost
	if req.SMTPPassword != "" {
		server.SMTPPassword = req.SMTPPassword
	}

	if err := server.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	if err := s.serverRepo.Update(ctx, server); err != nil {
		return nil, fmt.Errorf("failed to update server: %w", err)
	}

	return server, nil
}

// SetPrimary promotes a server to primary, demoting every other server
func (s *ServerService) SetPrimary(ctx context.Context, id int) error {
	if _, err := s.serverRepo.GetByID(ctx, id); err != nil {
		return &NotFoundError{Resource: "server", ID: id}
	}
	if err := s.serverRepo.SetPrimary(ctx, id); err != nil {
		return fmt.Errorf("failed to set primary server: %w", err)
	}
	return nil
}

// DeleteServer removes a server. The primary server and servers with
// stored replies are protected.
func (s *ServerService) DeleteServer(ctx context.Context, id int) error {
	server, err := s.serverRepo.GetByID(ctx, id)
	if err != nil {
		return &NotFoundError{Resource: "server", ID: id}
	}

	if server.IsPrimary {
		return &BusinessLogicError{Message: "cannot delete the primary server; promote another server first"}
	}

	hasReplies, err := s.replyRepo.ExistsByServer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check server replies: %w", err)
	}
	if hasReplies {
		return &BusinessLogicError{Message: "cannot delete a server with stored replies"}
	}

	if err := s.serverRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}

	return nil
}
