package mailbox

import (
	"strings"
	"testing"
)

const plainMessage = "From: Alice <alice@example.com>\r\n" +
	"To: sender@example.com\r\n" +
	"Subject: Re: Spring Sale\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Count me in!\r\n"

const multipartMessage = "From: Bob <bob@example.com>\r\n" +
	"To: sender@example.com\r\n" +
	"Subject: Re: Spring Sale\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=BOUNDARY\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"See the attached file.\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: application/pdf\r\n" +
	"Content-Disposition: attachment; filename=quote.pdf\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"JVBERi0=\r\n" +
	"--BOUNDARY--\r\n"

const alternativeMessage = "From: Carol <carol@example.com>\r\n" +
	"To: sender@example.com\r\n" +
	"Subject: Re: Spring Sale\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=ALT\r\n" +
	"\r\n" +
	"--ALT\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Plain version.\r\n" +
	"--ALT\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>HTML version.</p>\r\n" +
	"--ALT--\r\n"

func TestExtractContent_PlainText(t *testing.T) {
	content, hasAttachments := extractContent([]byte(plainMessage))

	if !strings.Contains(content, "Count me in!") {
		t.Errorf("expected body text, got %q", content)
	}
	if hasAttachments {
		t.Error("expected no attachments")
	}
}

func TestExtractContent_AttachmentFlaggedNotIncluded(t *testing.T) {
	content, hasAttachments := extractContent([]byte(multipartMessage))

	if !strings.Contains(content, "See the attached file.") {
		t.Errorf("expected inline text, got %q", content)
	}
	if strings.Contains(content, "JVBERi0=") {
		t.Error("attachment bytes leaked into content")
	}
	if !hasAttachments {
		t.Error("expected attachment flag")
	}
}

func TestExtractContent_HTMLPartExcluded(t *testing.T) {
	content, hasAttachments := extractContent([]byte(alternativeMessage))

	if !strings.Contains(content, "Plain version.") {
		t.Errorf("expected plain part, got %q", content)
	}
	if strings.Contains(content, "HTML version") {
		t.Error("HTML part leaked into content")
	}
	if hasAttachments {
		t.Error("expected no attachments")
	}
}

func TestExtractContent_UnparseableFallsBack(t *testing.T) {
	raw := []byte("not a mime message at all")

	content, hasAttachments := extractContent(raw)
	if content != string(raw) {
		t.Errorf("expected raw fallback, got %q", content)
	}
	if hasAttachments {
		t.Error("expected no attachments on fallback")
	}
}
