package models

import "time"

// ContactStatus represents valid contact statuses
type ContactStatus string

const (
	ContactStatusActive       ContactStatus = "active"
	ContactStatusUnsubscribed ContactStatus = "unsubscribed"
	ContactStatusBounced      ContactStatus = "bounced"
)

// FallbackName is used when a contact has no stored name
const FallbackName = "Valued Customer"

// Contact represents a recipient in the system
type Contact struct {
	ID        int           `json:"id" db:"id"`
	Email     string        `json:"email" db:"email"`
	Name      *string       `json:"name,omitempty" db:"name"`
	Company   *string       `json:"company,omitempty" db:"company"`
	Status    ContactStatus `json:"status" db:"status"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// DisplayName returns the contact's name, or a generic salutation when
// no name is stored
func (c *Contact) DisplayName() string {
	if c.Name != nil && *c.Name != "" {
		return *c.Name
	}
	return FallbackName
}

// IsActive checks if the contact is eligible for sends
func (c *Contact) IsActive() bool {
	return c.Status == ContactStatusActive
}

// ContactGroup represents a named audience segment
type ContactGroup struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
