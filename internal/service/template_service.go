package service

import (
	"context"
	"fmt"
	"strings"

	"mailreach/internal/models"
	"mailreach/internal/repository"
)

// namePlaceholder is the single substitution point template bodies carry
const namePlaceholder = "{{name}}"

// TemplateService handles template storage and personalization
type TemplateService struct {
	templateRepo repository.TemplateRepository
}

// NewTemplateService creates a new template service
func NewTemplateService(templateRepo repository.TemplateRepository) *TemplateService {
	return &TemplateService{templateRepo: templateRepo}
}

// Render substitutes the recipient's display name into a template body
func (s *TemplateService) Render(content, name string) string {
	return strings.ReplaceAll(content, namePlaceholder, name)
}

// CreateTemplate validates and stores a new template
func (s *TemplateService) CreateTemplate(ctx context.Context, template *models.Template) error {
	if err := template.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	if err := s.templateRepo.Create(ctx, template); err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

// GetTemplate retrieves a template by ID
func (s *TemplateService) GetTemplate(ctx context.Context, id int) (*models.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "template", ID: id}
	}
	return template, nil
}

// ListTemplates retrieves all templates
func (s *TemplateService) ListTemplates(ctx context.Context) ([]*models.Template, error) {
	templates, err := s.templateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// UpdateTemplate validates and stores template changes
func (s *TemplateService) UpdateTemplate(ctx context.Context, template *models.Template) error {
	if err := template.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return &NotFoundError{Resource: "template", ID: template.ID}
	}

	return nil
}

// DeleteTemplate deletes a template unless a campaign references it
func (s *TemplateService) DeleteTemplate(ctx context.Context, id int) error {
	inUse, err := s.templateRepo.InUse(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check template usage: %w", err)
	}

	if inUse {
		return &BusinessLogicError{Message: "template is used in a campaign and cannot be deleted"}
	}

	if err := s.templateRepo.Delete(ctx, id); err != nil {
		return &NotFoundError{Resource: "template", ID: id}
	}

	return nil
}
