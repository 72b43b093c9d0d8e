package mailbox

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/emersion/go-imap"
)

// RawMessage is one message as pulled off the wire, before any MIME
// parsing. Transient: discarded once normalized.
type RawMessage struct {
	SeqNum uint32
	UID    uint32
	Size   uint32
	Body   []byte
}

// SelectedMailbox is a session bound to one mailbox, ready to search and
// fetch.
type SelectedMailbox struct {
	conn   imapConn
	name   string
	logger *slog.Logger
}

// Search runs the given criteria and returns matching sequence numbers in
// the server's ascending assignment order (oldest first). An empty result
// is not an error.
func (m *SelectedMailbox) Search(criteria *imap.SearchCriteria) ([]uint32, error) {
	seqNums, err := m.conn.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrTransport, err)
	}

	m.logger.Debug("search complete", "matches", len(seqNums))
	return seqNums, nil
}

// Fetch retrieves full message bodies for at most limit of the given
// sequence numbers, keeping the most recent ones. Results come back
// most-recent-first. A failure mid-fetch discards everything collected so
// far; partial results are never returned.
func (m *SelectedMailbox) Fetch(seqNums []uint32, limit int) ([]RawMessage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidFilter, limit)
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	wanted := mostRecentFirst(seqNums, limit)

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(wanted...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, imap.FetchRFC822Size, section.FetchItem()}

	messages := make(chan *imap.Message, len(wanted))
	done := make(chan error, 1)

	go func() {
		done <- m.conn.Fetch(seqSet, items, messages)
	}()

	var raws []RawMessage
	for msg := range messages {
		raw := RawMessage{SeqNum: msg.SeqNum, UID: msg.Uid, Size: msg.Size}

		if literal := msg.GetBody(section); literal != nil {
			body, err := io.ReadAll(literal)
			if err != nil {
				// Drain the channel so the fetch goroutine can finish.
				for range messages {
				}
				<-done
				return nil, fmt.Errorf("%w: reading message %d: %v", ErrTransport, msg.SeqNum, err)
			}
			raw.Body = body
		}

		raws = append(raws, raw)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("%w: fetch: %v", ErrTransport, err)
	}

	// Fetch responses may arrive in any order; restore most-recent-first.
	sort.Slice(raws, func(i, j int) bool { return raws[i].SeqNum > raws[j].SeqNum })

	m.logger.Debug("fetch complete", "messages", len(raws))
	return raws, nil
}

// mostRecentFirst reverses the server's ascending order and truncates to
// limit, so callers see the newest messages first.
func mostRecentFirst(seqNums []uint32, limit int) []uint32 {
	out := make([]uint32, 0, len(seqNums))
	for i := len(seqNums) - 1; i >= 0; i-- {
		out = append(out, seqNums[i])
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out
}
