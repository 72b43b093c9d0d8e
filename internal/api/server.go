// Package api is the HTTP surface over the mailbox query service. It
// binds query parameters to a FilterSet, delegates to the service, and
// maps the error taxonomy to status codes.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hannes-sistemica/imap-rest-api/internal/mailbox"
	"github.com/hannes-sistemica/imap-rest-api/pkg/models"
)

const (
	queryDateLayout = "2006-01-02"
	defaultLimit    = 50
)

// Retriever is the single entry point the routing layer calls.
type Retriever interface {
	Retrieve(ctx context.Context, filters mailbox.FilterSet) ([]*models.EmailRecord, error)
}

// Server routes HTTP requests to a Retriever.
type Server struct {
	retriever Retriever
	logger    *slog.Logger
	engine    *gin.Engine
}

// NewServer creates a Server with its routes registered.
func NewServer(retriever Retriever, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		retriever: retriever,
		logger:    logger.With("component", "api"),
		engine:    gin.New(),
	}

	s.engine.Use(gin.Recovery())
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/emails", s.handleEmails)

	return s
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleEmails serves GET /emails with optional start_date, end_date
// (YYYY-MM-DD), sender, subject, mailbox and limit query parameters.
func (s *Server) handleEmails(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := s.retriever.Retrieve(c.Request.Context(), filters)
	if err != nil {
		s.logger.Error("retrieval failed", "error", err)
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

func parseFilters(c *gin.Context) (mailbox.FilterSet, error) {
	filters := mailbox.FilterSet{
		Sender:  c.Query("sender"),
		Subject: c.Query("subject"),
		Mailbox: c.DefaultQuery("mailbox", "INBOX"),
		Limit:   defaultLimit,
	}

	if raw := c.Query("start_date"); raw != "" {
		start, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			return filters, errors.Join(mailbox.ErrInvalidFilter, err)
		}
		filters.Start = start
	}

	if raw := c.Query("end_date"); raw != "" {
		end, err := time.Parse(queryDateLayout, raw)
		if err != nil {
			return filters, errors.Join(mailbox.ErrInvalidFilter, err)
		}
		filters.End = end
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filters, errors.Join(mailbox.ErrInvalidFilter,
				errors.New("limit must be a positive integer"))
		}
		filters.Limit = limit
	}

	return filters, nil
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, mailbox.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, mailbox.ErrMailboxNotFound):
		return http.StatusNotFound
	case errors.Is(err, mailbox.ErrAuth), errors.Is(err, mailbox.ErrTransport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
