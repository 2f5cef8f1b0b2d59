package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"mailreach/internal/models"
	"mailreach/internal/repository"
)

// ContactService handles recipient and group management
type ContactService struct {
	contactRepo repository.ContactRepository
}

// NewContactService creates a new contact service
func NewContactService(contactRepo repository.ContactRepository) *ContactService {
	return &ContactService{contactRepo: contactRepo}
}

// CreateContactsRequest carries manually entered recipients. Each entry
// is either a bare address or "Name, address".
type CreateContactsRequest struct {
	Entries []string `json:"entries"`
}

// Validate validates the create contacts request
func (r *CreateContactsRequest) Validate() error {
	if len(r.Entries) == 0 {
		return fmt.Errorf("at least one entry is required")
	}
	return nil
}

// CreateContactsResult summarizes one bulk import
type CreateContactsResult struct {
	Created []*models.Contact `json:"created"`
	Skipped []string          `json:"skipped,omitempty"`
}

// CreateContacts imports manually entered recipients. Invalid and
// already-known addresses are skipped, not fatal.
func (s *ContactService) CreateContacts(ctx context.Context, req *CreateContactsRequest) (*CreateContactsResult, error) {
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	result := &CreateContactsResult{}

	for _, entry := range req.Entries {
		contact, err := parseEntry(entry)
		if err != nil {
			result.Skipped = append(result.Skipped, entry)
			continue
		}

		if _, err := s.contactRepo.GetByEmail(ctx, contact.Email); err == nil {
			result.Skipped = append(result.Skipped, entry)
			continue
		}

		if err := s.contactRepo.Create(ctx, contact); err != nil {
			return nil, fmt.Errorf("failed to create contact %s: %w", contact.Email, err)
		}
		result.Created = append(result.Created, contact)
	}

	if len(result.Created) == 0 {
		return nil, &ValidationError{Message: "no valid new entries"}
	}

	return result, nil
}

// parseEntry accepts "address" or "Name, address"
func parseEntry(entry string) (*models.Contact, error) {
	name := ""
	address := strings.TrimSpace(entry)

	if idx := strings.LastIndex(entry, ","); idx >= 0 {
		name = strings.TrimSpace(entry[:idx])
		address = strings.TrimSpace(entry[idx+1:])
	}

	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", address, err)
	}

	contact := &models.Contact{
		Email:  parsed.Address,
		Status: models.ContactStatusActive,
	}
	if name != "" {
		contact.Name = &name
	}

	return contact, nil
}

// GetContact retrieves a contact by ID
func (s *ContactService) GetContact(ctx context.Context, id int) (*models.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &NotFoundError{Resource: "contact", ID: id}
	}
	return contact, nil
}

// ListContacts lists contacts with simple limit/offset paging
func (s *ContactService) ListContacts(ctx context.Context, limit, offset int) ([]*models.Contact, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	contacts, err := s.contactRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// DeleteContact removes a contact and its group memberships
func (s *ContactService) DeleteContact(ctx context.Context, id int) error {
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return &NotFoundError{Resource: "contact", ID: id}
	}
	return nil
}

// CreateGroupRequest represents a request to create a contact group
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateGroup creates a new contact group
func (s *ContactService) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*models.ContactGroup, error) {
	if req.Name == "" {
		return nil, &ValidationError{Message: "group name is required"}
	}

	group := &models.ContactGroup{Name: req.Name}
	if req.Description != "" {
		group.Description = &req.Description
	}
	if err := s.contactRepo.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	return group, nil
}

// ListGroups lists all contact groups
func (s *ContactService) ListGroups(ctx context.Context) ([]*models.ContactGroup, error) {
	groups, err := s.contactRepo.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// AddToGroup adds contacts to a group, ignoring existing memberships.
// Returns the number of new memberships.
func (s *ContactService) AddToGroup(ctx context.Context, groupID int, contactIDs []int) (int, error) {
	if len(contactIDs) == 0 {
		return 0, &ValidationError{Message: "at least one contact ID is required"}
	}

	if _, err := s.contactRepo.GetGroupByID(ctx, groupID); err != nil {
		return 0, &NotFoundError{Resource: "group", ID: groupID}
	}

	added, err := s.contactRepo.AddToGroup(ctx, groupID, contactIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to add contacts to group: %w", err)
	}

	return added, nil
}
