package mailbox

import (
	"fmt"
	"net/textproto"
	"time"

	"github.com/emersion/go-imap"
)

// searchDateLayout is the protocol's search-date form (two-digit day,
// abbreviated month, four-digit year).
const searchDateLayout = "02-Jan-2006"

// FilterSet carries the caller's query parameters. Zero time values mean
// "no bound". Start > End is a valid set that matches nothing.
type FilterSet struct {
	Start   time.Time
	End     time.Time
	Sender  string
	Subject string
	Mailbox string // empty selects INBOX
	Limit   int
}

// MailboxName returns the mailbox to select, defaulting to INBOX.
func (f FilterSet) MailboxName() string {
	if f.Mailbox == "" {
		return "INBOX"
	}
	return f.Mailbox
}

// Validate rejects structurally invalid input. An inverted date range is
// not an error; it simply matches nothing.
func (f FilterSet) Validate() error {
	if f.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidFilter, f.Limit)
	}
	return nil
}

// BuildCriteria converts a FilterSet into an IMAP search expression.
// Absent filters omit their clause; the empty FilterSet yields the
// match-all expression. Sender and subject become HEADER criteria, which
// the protocol matches as case-insensitive substrings. Dates are
// day-granular: SENTSINCE is inclusive, and since SENTBEFORE is exclusive
// the end date is shifted by one day to mean "sent on or before".
func BuildCriteria(f FilterSet) *imap.SearchCriteria {
	criteria := &imap.SearchCriteria{Header: make(textproto.MIMEHeader)}

	if !f.Start.IsZero() {
		criteria.SentSince = truncateToDay(f.Start)
	}
	if !f.End.IsZero() {
		criteria.SentBefore = truncateToDay(f.End).AddDate(0, 0, 1)
	}
	if f.Sender != "" {
		criteria.Header.Add("From", f.Sender)
	}
	if f.Subject != "" {
		criteria.Header.Add("Subject", f.Subject)
	}

	return criteria
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SearchDate renders a time in the protocol's search-date form, e.g.
// 31-Oct-2024. Used for logging the effective search window.
func SearchDate(t time.Time) string {
	return t.Format(searchDateLayout)
}
