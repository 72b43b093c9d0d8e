package models

import "time"

// Attachment describes an attachment without carrying its content.
// Size is the decoded payload size, not the transfer-encoded size.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// EmailRecord is the flattened form of one mail message as returned to
// API callers. Nullable fields are pointers so they serialize as null
// rather than zero values.
type EmailRecord struct {
	MessageID   string       `json:"message_id"`
	Subject     string       `json:"subject"`
	Sender      string       `json:"sender"`
	Recipients  []string     `json:"recipients"`
	Date        *time.Time   `json:"date"`
	BodyText    *string      `json:"body_text"`
	BodyHTML    *string      `json:"body_html"`
	Preview     string       `json:"preview,omitempty"`
	SizeBytes   int64        `json:"size_bytes"`
	Attachments []Attachment `json:"attachments"`
}
