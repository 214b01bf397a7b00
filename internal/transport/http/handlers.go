package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/skymail/skymail/internal/mailbox"
)

// Client-visible error strings. Bit-exact: the web client matches on them
// (including the historical misspelling).
const (
	errUserNotFound = "User not found"
	errEmptyMessage = "Message is empty"
	errNotAllowed   = "Not allowed"
	errGeneric      = "An error ocurred"
)

// StatusResponse is the soft-failure envelope for mutating operations.
type StatusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// MailboxHandlers provides the HTTP handlers for the mailbox routes.
type MailboxHandlers struct {
	svc *mailbox.Service
	log *zerolog.Logger
}

// NewMailboxHandlers creates the handlers instance.
func NewMailboxHandlers(svc *mailbox.Service, logger *zerolog.Logger) *MailboxHandlers {
	return &MailboxHandlers{svc: svc, log: logger}
}

// SubmitRequest is the anonymous-mail submission body.
type SubmitRequest struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// ListInbox returns the caller's messages, newest first.
// GET /
func (h *MailboxHandlers) ListInbox(c *gin.Context) {
	did, ok := callerDID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	messages, err := h.svc.ListInbox(c.Request.Context(), did)
	if err != nil {
		h.log.Error().Err(err).Str("caller", did).Msg("failed to list inbox")
		c.JSON(http.StatusOK, StatusResponse{Success: false, Error: errGeneric})
		return
	}

	c.JSON(http.StatusOK, toMessageResponses(messages))
}

// Submit files an anonymous message for the named recipient.
// POST /
func (h *MailboxHandlers) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid submit request body")
		c.JSON(http.StatusOK, StatusResponse{Success: false, Error: errEmptyMessage})
		return
	}

	err := h.svc.Submit(c.Request.Context(), req.User, req.Message)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, StatusResponse{Success: true})
	case errors.Is(err, mailbox.ErrUserNotFound):
		c.JSON(http.StatusOK, StatusResponse{Success: false, Error: errUserNotFound})
	case errors.Is(err, mailbox.ErrEmptyMessage):
		c.JSON(http.StatusOK, StatusResponse{Success: false, Error: errEmptyMessage})
	default:
		h.log.Error().Err(err).Str("recipient", req.User).Msg("failed to submit message")
		c.JSON(http.StatusOK, StatusResponse{Success: false, Error: errGeneric})
	}
}

// Delete removes one of the caller's messages by id. Idempotent.
// DELETE /?id=<id>
func (h *MailboxHandlers) Delete(c *gin.Context) {
	did, ok := callerDID(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	id := c.Query("id")
	err := h.svc.Delete(c.Request.Context(), did, id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, StatusResponse{Success: true})
	case errors.Is(err, mailbox.ErrNotOwner):
		h.log.Warn().Str("caller", did).Str("id", id).Msg("delete of foreign message rejected")
		c.JSON(http.StatusForbidden, StatusResponse{Success: false, Error: errNotAllowed})
	default:
		h.log.Error().Err(err).Str("id", id).Msg("failed to delete message")
		c.JSON(http.StatusOK, StatusResponse{Success: false, Error: errGeneric})
	}
}
