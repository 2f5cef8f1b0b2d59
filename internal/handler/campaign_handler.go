package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"mailreach/internal/models"
	"mailreach/internal/repository"
	"mailreach/internal/service"

	"github.com/gorilla/mux"
)

// CampaignHandler handles HTTP requests for campaign operations
type CampaignHandler struct {
	campaignService *service.CampaignService
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignService *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
	}
}

// Create handles POST /campaigns - creates a new draft campaign
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCampaignRequest

	// Parse JSON body
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	// Call service to create campaign
	campaign, err := h.campaignService.CreateCampaign(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	// Return 201 Created
	WriteCreated(w, campaign)
}

// List handles GET /campaigns - lists campaigns with filters
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// Parse pagination parameters
	page := 1
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	perPage := 20
	if perPageStr := query.Get("per_page"); perPageStr != "" {
		if pp, err := strconv.Atoi(perPageStr); err == nil && pp > 0 {
			perPage = pp
		}
	}

	// Validate per_page max 100
	if perPage > 100 {
		perPage = 100
	}

	// Build filters
	filters := repository.CampaignFilters{
		Page:     page,
		PageSize: perPage,
	}

	// Parse status filter
	if statusStr := query.Get("status"); statusStr != "" {
		validStatuses := map[string]models.CampaignStatus{
			"draft":     models.CampaignStatusDraft,
			"sending":   models.CampaignStatusSending,
			"completed": models.CampaignStatusCompleted,
			"failed":    models.CampaignStatusFailed,
		}
		if status, ok := validStatuses[statusStr]; ok {
			filters.Status = &status
		} else {
			WriteValidationError(w, "invalid status: must be one of draft, sending, completed, failed")
			return
		}
	}

	// Call service to list campaigns
	campaigns, pagination, err := h.campaignService.ListCampaigns(r.Context(), filters)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	response := ListCampaignsResponse{
		Campaigns:  campaigns,
		Pagination: pagination,
	}

	// Return 200 OK
	WriteOK(w, response)
}

// GetByID handles GET /campaigns/{id} - gets a campaign with stats
func (h *CampaignHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "campaign")
	if !ok {
		return
	}

	campaign, err := h.campaignService.GetCampaignWithStats(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, campaign)
}

// Start handles POST /campaigns/{id}/start - begins a send run
func (h *CampaignHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "campaign")
	if !ok {
		return
	}

	// Call service to start the run; it returns as soon as the campaign
	// is accepted for sending
	campaign, err := h.campaignService.StartCampaign(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	// Return 202 Accepted: the run continues in the background
	WriteJSON(w, http.StatusAccepted, campaign)
}

// Progress handles GET /campaigns/{id}/progress - polls run progress
func (h *CampaignHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "campaign")
	if !ok {
		return
	}

	progress, err := h.campaignService.Progress(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, progress)
}

// Duplicate handles POST /campaigns/{id}/duplicate - copies a campaign
func (h *CampaignHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "campaign")
	if !ok {
		return
	}

	copy, err := h.campaignService.DuplicateCampaign(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, copy)
}

// Delete handles DELETE /campaigns/{id} - deletes a campaign
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "campaign")
	if !ok {
		return
	}

	if err := h.campaignService.DeleteCampaign(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// pathID extracts and validates the {id} path variable. On failure it
// writes the error response and returns ok=false.
func pathID(w http.ResponseWriter, r *http.Request, resource string) (int, bool) {
	vars := mux.Vars(r)
	idStr := vars["id"]

	id, err := strconv.Atoi(idStr)
	if err != nil {
		WriteValidationError(w, "invalid "+resource+" ID format")
		return 0, false
	}

	if id <= 0 {
		WriteValidationError(w, resource+" ID must be greater than 0")
		return 0, false
	}

	return id, true
}

// Request/Response types

// ListCampaignsResponse represents the response for listing campaigns
type ListCampaignsResponse struct {
	Campaigns  []*models.Campaign      `json:"campaigns"`
	Pagination *service.PaginationInfo `json:"pagination"`
}
