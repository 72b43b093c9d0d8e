package mailbox

import "errors"

// Error kinds surfaced by the query pipeline. Callers discriminate with
// errors.Is; everything except ErrMalformedMessage aborts the whole
// retrieval. ErrMalformedMessage is recovered per message inside Retrieve
// and never escapes it.
var (
	// ErrInvalidFilter marks structurally invalid filter input, such as a
	// non-positive limit or an unparsable date. Reported before any
	// network activity.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrAuth marks a credential rejection during login.
	ErrAuth = errors.New("authentication failed")

	// ErrMailboxNotFound marks selection of a mailbox the server does not
	// know.
	ErrMailboxNotFound = errors.New("mailbox not found")

	// ErrTransport marks a connection, timeout or read failure at any
	// network step. The operation is not retried here.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedMessage marks a single message whose MIME structure
	// could not be parsed.
	ErrMalformedMessage = errors.New("malformed message")
)
