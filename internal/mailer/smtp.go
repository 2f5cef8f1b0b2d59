package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"mailreach/internal/models"
)

// implicitTLSPort is the conventional SMTPS port. Connections to it are
// encrypted from the first byte; any other port connects in the clear
// and upgrades via STARTTLS before authenticating.
const implicitTLSPort = 465

// Sender delivers one message to one recipient. A false result carries a
// diagnostic string; callers do not distinguish failure subtypes.
type Sender interface {
	Send(server *models.Server, to, subject, htmlBody string) (bool, string)
}

// SMTPSender sends mail over an authenticated SMTP connection
type SMTPSender struct {
	timeout time.Duration
}

// NewSMTPSender creates an SMTP sender with the given dial timeout
func NewSMTPSender(timeout time.Duration) *SMTPSender {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPSender{timeout: timeout}
}

// Send delivers a single HTML message using the server's credentials.
// Connection, authentication and submission failures all surface as
// ok=false with a diagnostic; the attempt is terminal either way.
func (s *SMTPSender) Send(server *models.Server, to, subject, htmlBody string) (bool, string) {
	msg := buildMessage(server.SMTPEmail, to, subject, htmlBody)
	addr := fmt.Sprintf("%s:%d", server.SMTPHost, server.SMTPPort)

	client, err := s.connect(addr, server)
	if err != nil {
		return false, err.Error()
	}
	defer client.Close()

	auth := smtp.PlainAuth("", server.SMTPEmail, server.SMTPPassword, server.SMTPHost)
	if err := client.Auth(auth); err != nil {
		return false, fmt.Sprintf("SMTP auth: %v", err)
	}

	if err := submit(client, server.SMTPEmail, to, msg); err != nil {
		return false, err.Error()
	}

	return true, "Sent successfully"
}

// connect dials the server, encrypted from the start on the implicit-TLS
// port, otherwise upgrading the plain connection with STARTTLS
func (s *SMTPSender) connect(addr string, server *models.Server) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: s.timeout}
	tlsCfg := &tls.Config{ServerName: server.SMTPHost}

	if server.SMTPPort == implicitTLSPort {
		conn, err := tls.DialWithDialer(dialer, "tcp", addr, tlsCfg)
		if err != nil {
			return nil, fmt.Errorf("SMTP connect to %s: %w", addr, err)
		}
		client, err := smtp.NewClient(conn, server.SMTPHost)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("SMTP client: %w", err)
		}
		return client, nil
	}

	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("SMTP connect to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, server.SMTPHost)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMTP client: %w", err)
	}

	if err := client.StartTLS(tlsCfg); err != nil {
		client.Close()
		return nil, fmt.Errorf("STARTTLS: %w", err)
	}

	return client, nil
}

// submit performs the MAIL/RCPT/DATA transaction
func submit(client *smtp.Client, from, to string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("DATA close: %w", err)
	}

	return client.Quit()
}

// buildMessage assembles the RFC 2822 message with an HTML body
func buildMessage(from, to, subject, htmlBody string) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(htmlBody)
	buf.WriteString("\r\n")
	return buf.Bytes()
}
