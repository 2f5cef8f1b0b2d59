package service

import (
	"context"
	"fmt"
	"testing"

	"mailreach/internal/models"
)

func TestCreateContacts_ParsesEntries(t *testing.T) {
	contactRepo := newMockContactRepository()
	svc := NewContactService(contactRepo)

	result, err := svc.CreateContacts(context.Background(), &CreateContactsRequest{
		Entries: []string{
			"alice@example.com",
			"Bob Otieno, bob@example.com",
			"not-an-address",
		},
	})
	if err != nil {
		t.Fatalf("CreateContacts returned error: %v", err)
	}

	if len(result.Created) != 2 {
		t.Fatalf("expected 2 created, got %d", len(result.Created))
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "not-an-address" {
		t.Errorf("expected the invalid entry skipped, got %v", result.Skipped)
	}

	first := result.Created[0]
	if first.Email != "alice@example.com" || first.Name != nil {
		t.Errorf("unexpected bare-address contact: %+v", first)
	}
	second := result.Created[1]
	if second.Name == nil || *second.Name != "Bob Otieno" {
		t.Errorf("expected parsed name, got %v", second.Name)
	}
	if second.Status != models.ContactStatusActive {
		t.Errorf("expected active status, got %s", second.Status)
	}
}

func TestCreateContacts_SkipsKnownAddresses(t *testing.T) {
	contactRepo := newMockContactRepository()
	contactRepo.GetByEmailFunc = func(ctx context.Context, email string) (*models.Contact, error) {
		if email == "known@example.com" {
			return &models.Contact{Email: email}, nil
		}
		return nil, fmt.Errorf("not found")
	}
	svc := NewContactService(contactRepo)

	result, err := svc.CreateContacts(context.Background(), &CreateContactsRequest{
		Entries: []string{"known@example.com", "new@example.com"},
	})
	if err != nil {
		t.Fatalf("CreateContacts returned error: %v", err)
	}

	if len(result.Created) != 1 || result.Created[0].Email != "new@example.com" {
		t.Errorf("expected only the new address, got %+v", result.Created)
	}
	if len(result.Skipped) != 1 {
		t.Errorf("expected the known address skipped, got %v", result.Skipped)
	}
}

func TestCreateContacts_AllInvalid(t *testing.T) {
	svc := NewContactService(newMockContactRepository())

	_, err := svc.CreateContacts(context.Background(), &CreateContactsRequest{
		Entries: []string{"nope", "also nope"},
	})
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestAddToGroup_RequiresGroup(t *testing.T) {
	contactRepo := newMockContactRepository()
	contactRepo.GetGroupByIDFunc = func(ctx context.Context, id int) (*models.ContactGroup, error) {
		return nil, fmt.Errorf("not found")
	}
	svc := NewContactService(contactRepo)

	_, err := svc.AddToGroup(context.Background(), 9, []int{1, 2})
	if _, ok := err.(*NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
}
