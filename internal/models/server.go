package models

import (
	"fmt"
	"time"
)

// Server holds the transport and mailbox credentials for one provider.
// Exactly one server is primary at any time; dispatch and correlation
// both bind to whichever is primary at invocation time.
type Server struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	SMTPHost     string    `json:"smtp_host" db:"smtp_host"`
	SMTPPort     int       `json:"smtp_port" db:"smtp_port"`
	SMTPEmail    string    `json:"smtp_email" db:"smtp_email"`
	SMTPPassword string    `json:"-" db:"smtp_password"`
	IMAPHost     string    `json:"imap_host" db:"imap_host"`
	IsPrimary    bool      `json:"is_primary" db:"is_primary"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Validate checks if the server fields are valid
func (s *Server) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("server name is required")
	}
	if s.SMTPHost == "" {
		return fmt.Errorf("smtp host is required")
	}
	if s.SMTPPort <= 0 || s.SMTPPort > 65535 {
		return fmt.Errorf("invalid smtp port: %d", s.SMTPPort)
	}
	if s.SMTPEmail == "" {
		return fmt.Errorf("smtp email is required")
	}
	if s.IMAPHost == "" {
		return fmt.Errorf("imap host is required")
	}
	return nil
}
