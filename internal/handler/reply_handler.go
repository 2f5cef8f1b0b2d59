package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"mailreach/internal/repository"
	"mailreach/internal/service"
)

// ReplyHandler handles HTTP requests for reply operations
type ReplyHandler struct {
	replyService *service.ReplyService
}

// NewReplyHandler creates a new reply handler
func NewReplyHandler(replyService *service.ReplyService) *ReplyHandler {
	return &ReplyHandler{
		replyService: replyService,
	}
}

// Check handles POST /replies/check - scans the primary inbox for new replies
func (h *ReplyHandler) Check(w http.ResponseWriter, r *http.Request) {
	// Body is optional: overrides for the scan window and limit
	var req service.CheckRepliesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		WriteValidationError(w, "Invalid JSON in request body")
		return
	}

	result, err := h.replyService.CheckReplies(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, result)
}

// List handles GET /replies - lists stored replies with optional filters
func (h *ReplyHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filters repository.ReplyFilters

	// Parse date window filters (RFC 3339)
	if sinceStr := query.Get("since"); sinceStr != "" {
		since, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			WriteValidationError(w, "invalid since: must be an RFC 3339 timestamp")
			return
		}
		filters.Since = &since
	}
	if untilStr := query.Get("until"); untilStr != "" {
		until, err := time.Parse(time.RFC3339, untilStr)
		if err != nil {
			WriteValidationError(w, "invalid until: must be an RFC 3339 timestamp")
			return
		}
		filters.Until = &until
	}

	// Parse server filter
	if serverStr := query.Get("server_id"); serverStr != "" {
		serverID, err := strconv.Atoi(serverStr)
		if err != nil || serverID <= 0 {
			WriteValidationError(w, "invalid server_id")
			return
		}
		filters.ServerID = &serverID
	}

	replies, err := h.replyService.ListReplies(r.Context(), filters)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, replies)
}

// GetByID handles GET /replies/{id} - gets a reply by ID
func (h *ReplyHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "reply")
	if !ok {
		return
	}

	reply, err := h.replyService.GetReply(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, reply)
}

// MarkRead handles POST /replies/{id}/read - sets the read flag
func (h *ReplyHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "reply")
	if !ok {
		return
	}

	// Optional body: {"read": false} to mark unread, default true
	req := MarkReadRequest{Read: true}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if err := h.replyService.MarkRead(r.Context(), id, req.Read); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// Followup handles POST /replies/{id}/followup - sends a follow-up to the sender
func (h *ReplyHandler) Followup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "reply")
	if !ok {
		return
	}

	var req service.FollowupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	attempt, err := h.replyService.Followup(r.Context(), id, &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, attempt)
}

// Resend handles POST /replies/{id}/resend - re-sends the original campaign message
func (h *ReplyHandler) Resend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "reply")
	if !ok {
		return
	}

	attempt, err := h.replyService.Resend(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, attempt)
}

// MarkReadRequest represents the optional body of a mark-read request
type MarkReadRequest struct {
	Read bool `json:"read"`
}
