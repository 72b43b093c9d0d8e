package mailbox

import (
	"context"
	"errors"
	"log/slog"

	"github.com/emersion/go-imap"

	"github.com/hannes-sistemica/imap-rest-api/pkg/models"
)

// querySession and queryMailbox abstract the live session so the
// orchestration can be exercised without a server.
type querySession interface {
	Select(name string) (queryMailbox, error)
	Close()
}

type queryMailbox interface {
	Search(criteria *imap.SearchCriteria) ([]uint32, error)
	Fetch(seqNums []uint32, limit int) ([]RawMessage, error)
}

// Service runs the full retrieval pipeline: criteria, session, search,
// fetch, normalize. One session per call, closed on every path.
type Service struct {
	cfg    ServerConfig
	norm   *Normalizer
	logger *slog.Logger
	open   func(ctx context.Context, cfg ServerConfig, logger *slog.Logger) (querySession, error)
}

// NewService creates a Service for one configured account.
func NewService(cfg ServerConfig, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		norm:   NewNormalizer(logger),
		logger: logger.With("component", "mailbox"),
		open:   openLive,
	}
}

// Retrieve returns the messages matching filters, most recent first, at
// most filters.Limit records. Filter validation happens before any
// connection is opened. A single message that fails to normalize is
// logged and omitted; it never fails the whole retrieval. The session is
// closed before returning on every path, including caller cancellation.
func (s *Service) Retrieve(ctx context.Context, filters FilterSet) ([]*models.EmailRecord, error) {
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	criteria := BuildCriteria(filters)

	s.logger.Info("retrieving emails",
		"mailbox", filters.MailboxName(),
		"limit", filters.Limit,
		"window", searchWindow(filters))

	sess, err := s.open(ctx, s.cfg, s.logger)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	// A caller that abandons the request must not leak the connection;
	// closing the session unblocks any in-flight command.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			sess.Close()
		case <-watchDone:
		}
	}()

	mbox, err := sess.Select(filters.MailboxName())
	if err != nil {
		return nil, err
	}

	seqNums, err := mbox.Search(criteria)
	if err != nil {
		return nil, err
	}

	raws, err := mbox.Fetch(seqNums, filters.Limit)
	if err != nil {
		return nil, err
	}

	records := make([]*models.EmailRecord, 0, len(raws))
	for _, raw := range raws {
		record, err := s.norm.Normalize(raw)
		if err != nil {
			if errors.Is(err, ErrMalformedMessage) {
				s.logger.Warn("skipping malformed message", "seqnum", raw.SeqNum, "error", err)
				continue
			}
			return nil, err
		}
		records = append(records, record)
	}

	s.logger.Info("retrieval complete", "records", len(records))
	return records, nil
}

// searchWindow renders the date bounds in the protocol's search-date form
// for logging, e.g. "30-Oct-2024..31-Oct-2024".
func searchWindow(f FilterSet) string {
	start, end := "*", "*"
	if !f.Start.IsZero() {
		start = SearchDate(f.Start)
	}
	if !f.End.IsZero() {
		end = SearchDate(f.End)
	}
	return start + ".." + end
}

// openLive adapts a real session to the orchestration interfaces.
func openLive(ctx context.Context, cfg ServerConfig, logger *slog.Logger) (querySession, error) {
	sess, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return liveSession{sess}, nil
}

type liveSession struct {
	*Session
}

func (l liveSession) Select(name string) (queryMailbox, error) {
	return l.Session.Select(name)
}
