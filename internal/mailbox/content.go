package mailbox

import (
	"bytes"
	"io"
	"strings"

	"github.com/emersion/go-message/mail"
)

// extractContent walks the MIME parts of a raw message, concatenating
// every inline plain-text part. Attachment parts only set the flag and
// never contribute to the content.
func extractContent(raw []byte) (string, bool) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Unparseable structure: fall back to the raw bytes as text
		return string(raw), false
	}
	defer mr.Close()

	var content strings.Builder
	hasAttachments := false

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			if !strings.HasPrefix(contentType, "text/plain") {
				continue
			}
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			content.Write(body)

		case *mail.AttachmentHeader:
			hasAttachments = true
		}
	}

	return content.String(), hasAttachments
}
