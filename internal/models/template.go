package models

import (
	"fmt"
	"time"
)

// Template represents a reusable message template. The subject doubles
// as the correlation key for inbound reply matching.
type Template struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Subject   string    `json:"subject" db:"subject"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Validate checks if the template fields are valid
func (t *Template) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if t.Subject == "" {
		return fmt.Errorf("template subject is required")
	}
	if t.Content == "" {
		return fmt.Errorf("template content is required")
	}
	return nil
}
