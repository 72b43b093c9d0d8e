package mailbox

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"

	// Register extended charset decoders (windows-1252, iso-8859-*, ...)
	_ "github.com/emersion/go-message/charset"

	"github.com/hannes-sistemica/imap-rest-api/internal/htmltext"
	"github.com/hannes-sistemica/imap-rest-api/pkg/models"
)

const previewRunes = 160

// Normalizer flattens raw RFC 822 payloads into EmailRecords.
type Normalizer struct {
	logger *slog.Logger
	html   *htmltext.Renderer
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{
		logger: logger.With("component", "normalizer"),
		html:   htmltext.NewRenderer(),
	}
}

// Normalize parses one message into an EmailRecord. The MIME tree is
// walked in document order; the first text/plain leaf becomes the plain
// body and the first text/html leaf the HTML body. Parts with an
// attachment disposition are recorded as metadata only. A payload whose
// structure cannot be parsed at all is ErrMalformedMessage; the caller
// skips it without failing the batch.
func (n *Normalizer) Normalize(raw RawMessage) (*models.EmailRecord, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw.Body))
	if err != nil {
		if mr == nil || !message.IsUnknownCharset(err) {
			return nil, fmt.Errorf("%w: seqnum %d: %v", ErrMalformedMessage, raw.SeqNum, err)
		}
		// The entity is still readable; the body just keeps its raw bytes.
		n.logger.Warn("unknown charset, decoding permissively", "seqnum", raw.SeqNum, "error", err)
	}
	defer mr.Close()

	record := &models.EmailRecord{
		SizeBytes:   int64(raw.Size),
		Recipients:  []string{},
		Attachments: []models.Attachment{},
	}
	if record.SizeBytes == 0 {
		record.SizeBytes = int64(len(raw.Body))
	}

	n.readHeader(mr.Header, record)

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				n.logger.Warn("unknown part charset, decoding permissively",
					"seqnum", raw.SeqNum, "error", err)
			} else {
				n.logger.Warn("stopping part walk on parse error",
					"seqnum", raw.SeqNum, "error", err)
				break
			}
		}
		if part == nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			// First part of each kind wins, matching how mail clients
			// pick the primary part of a multipart/alternative.
			switch {
			case strings.HasPrefix(contentType, "text/plain") && record.BodyText == nil:
				text := string(body)
				record.BodyText = &text
			case strings.HasPrefix(contentType, "text/html") && record.BodyHTML == nil:
				html := string(body)
				record.BodyHTML = &html
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			contentType, _, _ := h.ContentType()

			// Decoded size only; attachment content never ends up in the
			// record.
			body, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}

			record.Attachments = append(record.Attachments, models.Attachment{
				Filename:    filename,
				ContentType: contentType,
				SizeBytes:   int64(len(body)),
			})
		}
	}

	record.Preview = n.makePreview(record)

	return record, nil
}

func (n *Normalizer) readHeader(h mail.Header, record *models.EmailRecord) {
	if id, err := h.MessageID(); err == nil {
		record.MessageID = id
	} else {
		record.MessageID = h.Get("Message-Id")
	}

	record.Subject, _ = h.Subject()

	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		record.Sender = formatAddress(from[0])
	} else {
		record.Sender = h.Get("From")
	}

	if to, err := h.AddressList("To"); err == nil {
		for _, addr := range to {
			record.Recipients = append(record.Recipients, addr.Address)
		}
	}

	// A missing or malformed date yields a null field, not a failure.
	if date, err := h.Date(); err == nil && !date.IsZero() {
		record.Date = &date
	}
}

// makePreview derives a short plain-text excerpt, rendering the HTML body
// when no plain part exists.
func (n *Normalizer) makePreview(record *models.EmailRecord) string {
	text := ""
	switch {
	case record.BodyText != nil:
		text = *record.BodyText
	case record.BodyHTML != nil:
		rendered, err := n.html.Render(*record.BodyHTML)
		if err != nil {
			n.logger.Debug("HTML preview rendering failed", "error", err)
			return ""
		}
		text = rendered
	}

	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > previewRunes {
		text = string(runes[:previewRunes])
	}
	return text
}

func formatAddress(addr *mail.Address) string {
	if addr.Name != "" {
		return fmt.Sprintf("%s <%s>", addr.Name, addr.Address)
	}
	return addr.Address
}
