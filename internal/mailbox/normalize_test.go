package mailbox

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(slog.Default())
}

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func TestNormalizeSinglePartPlainText(t *testing.T) {
	raw := RawMessage{SeqNum: 1, Body: crlf(
		"From: Alice <a@x.com>",
		"To: b@x.com, c@x.com",
		"Subject: Monthly invoice #2",
		"Date: Thu, 31 Oct 2024 09:15:00 +0000",
		"Message-Id: <msg-1@x.com>",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"Please find the invoice attached.",
	)}

	record, err := newTestNormalizer().Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "msg-1@x.com", record.MessageID)
	assert.Equal(t, "Monthly invoice #2", record.Subject)
	assert.Equal(t, "Alice <a@x.com>", record.Sender)
	assert.Equal(t, []string{"b@x.com", "c@x.com"}, record.Recipients)

	require.NotNil(t, record.Date)
	assert.Equal(t, time.Date(2024, 10, 31, 9, 15, 0, 0, time.UTC), record.Date.UTC())

	require.NotNil(t, record.BodyText)
	assert.Equal(t, "Please find the invoice attached.", strings.TrimSpace(*record.BodyText))
	assert.Nil(t, record.BodyHTML)
	assert.Empty(t, record.Attachments)
	assert.Equal(t, "Please find the invoice attached.", record.Preview)
}

func TestNormalizeMultipartAlternativeFirstOfEachKindWins(t *testing.T) {
	raw := RawMessage{SeqNum: 2, Body: crlf(
		"From: a@x.com",
		"To: b@x.com",
		"Subject: alt",
		"Date: Wed, 30 Oct 2024 12:00:00 +0000",
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=BOUND",
		"",
		"--BOUND",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"first plain",
		"--BOUND",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<p>first html</p>",
		"--BOUND",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"second plain",
		"--BOUND--",
		"",
	)}

	record, err := newTestNormalizer().Normalize(raw)
	require.NoError(t, err)

	require.NotNil(t, record.BodyText)
	assert.Equal(t, "first plain", strings.TrimSpace(*record.BodyText))

	require.NotNil(t, record.BodyHTML)
	assert.Contains(t, *record.BodyHTML, "first html")
}

func TestNormalizeAttachmentMetadataOnly(t *testing.T) {
	// "hello attachment" base64-encoded: 16 decoded bytes.
	raw := RawMessage{SeqNum: 3, Body: crlf(
		"From: a@x.com",
		"To: b@x.com",
		"Subject: with attachment",
		"Date: Tue, 29 Oct 2024 08:00:00 +0000",
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=BOUND",
		"",
		"--BOUND",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"see attachment",
		"--BOUND",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment; filename=\"report.pdf\"",
		"Content-Transfer-Encoding: base64",
		"",
		"aGVsbG8gYXR0YWNobWVudA==",
		"--BOUND--",
		"",
	)}

	record, err := newTestNormalizer().Normalize(raw)
	require.NoError(t, err)

	require.Len(t, record.Attachments, 1)
	att := record.Attachments[0]
	assert.Equal(t, "report.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, int64(16), att.SizeBytes)

	require.NotNil(t, record.BodyText)
	assert.Equal(t, "see attachment", strings.TrimSpace(*record.BodyText))
}

func TestNormalizeMissingDateYieldsNull(t *testing.T) {
	raw := RawMessage{SeqNum: 4, Body: crlf(
		"From: a@x.com",
		"To: b@x.com",
		"Subject: undated",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"no date header",
	)}

	record, err := newTestNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Nil(t, record.Date)
	assert.Equal(t, "undated", record.Subject)
}

func TestNormalizeCorruptPayloadIsMalformed(t *testing.T) {
	raw := RawMessage{SeqNum: 5, Body: []byte("*** totally corrupt payload without header structure ***")}

	_, err := newTestNormalizer().Normalize(raw)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestNormalizeHTMLOnlyMessageGetsPreview(t *testing.T) {
	raw := RawMessage{SeqNum: 6, Body: crlf(
		"From: a@x.com",
		"To: b@x.com",
		"Subject: html only",
		"Date: Wed, 30 Oct 2024 12:00:00 +0000",
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><p>Hello</p><p>from HTML</p></body></html>",
	)}

	record, err := newTestNormalizer().Normalize(raw)
	require.NoError(t, err)

	assert.Nil(t, record.BodyText)
	require.NotNil(t, record.BodyHTML)
	assert.Equal(t, "Hello from HTML", record.Preview)
}

func TestNormalizeUnknownCharsetFallsBackToRawBytes(t *testing.T) {
	raw := RawMessage{SeqNum: 9, Body: crlf(
		"From: a@x.com",
		"To: b@x.com",
		"Subject: odd charset",
		"Date: Wed, 30 Oct 2024 12:00:00 +0000",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=x-no-such-charset",
		"",
		"still readable",
	)}

	record, err := newTestNormalizer().Normalize(raw)
	require.NoError(t, err)
	require.NotNil(t, record.BodyText)
	assert.Equal(t, "still readable", strings.TrimSpace(*record.BodyText))
}

func TestNormalizeUsesWireSizeWhenPresent(t *testing.T) {
	body := crlf(
		"From: a@x.com",
		"Subject: sized",
		"Content-Type: text/plain",
		"",
		"x",
	)

	record, err := newTestNormalizer().Normalize(RawMessage{SeqNum: 7, Size: 4096, Body: body})
	require.NoError(t, err)
	assert.Equal(t, int64(4096), record.SizeBytes)

	record, err = newTestNormalizer().Normalize(RawMessage{SeqNum: 8, Body: body})
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), record.SizeBytes)
}
