package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"mailreach/internal/service"
)

// ContactHandler handles HTTP requests for contact and group operations
type ContactHandler struct {
	contactService *service.ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
	}
}

// Create handles POST /contacts - bulk-imports manually entered recipients
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateContactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	result, err := h.contactService.CreateContacts(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, result)
}

// List handles GET /contacts - lists contacts with limit/offset paging
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := 100
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	contacts, err := h.contactService.ListContacts(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, contacts)
}

// GetByID handles GET /contacts/{id} - gets a contact by ID
func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "contact")
	if !ok {
		return
	}

	contact, err := h.contactService.GetContact(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, contact)
}

// Delete handles DELETE /contacts/{id} - deletes a contact
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "contact")
	if !ok {
		return
	}

	if err := h.contactService.DeleteContact(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// CreateGroup handles POST /groups - creates a contact group
func (h *ContactHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req service.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	group, err := h.contactService.CreateGroup(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, group)
}

// ListGroups handles GET /groups - lists all contact groups
func (h *ContactHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.contactService.ListGroups(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, groups)
}

// AddToGroup handles POST /groups/{id}/contacts - adds members to a group
func (h *ContactHandler) AddToGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "group")
	if !ok {
		return
	}

	var req AddToGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	added, err := h.contactService.AddToGroup(r.Context(), id, req.ContactIDs)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, AddToGroupResponse{Added: added})
}

// AddToGroupRequest represents the request to add contacts to a group
type AddToGroupRequest struct {
	ContactIDs []int `json:"contact_ids"`
}

// AddToGroupResponse reports how many new memberships were created
type AddToGroupResponse struct {
	Added int `json:"added"`
}
