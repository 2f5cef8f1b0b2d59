package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"mailreach/internal/models"
	"mailreach/internal/service"
)

// TemplateHandler handles HTTP requests for template operations
type TemplateHandler struct {
	templateService *service.TemplateService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateService *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
	}
}

// Create handles POST /templates - creates a new template
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var template models.Template
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if err := h.templateService.CreateTemplate(r.Context(), &template); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, template)
}

// List handles GET /templates - lists all templates
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templateService.ListTemplates(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, templates)
}

// GetByID handles GET /templates/{id} - gets a template by ID
func (h *TemplateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "template")
	if !ok {
		return
	}

	template, err := h.templateService.GetTemplate(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, template)
}

// Update handles PUT /templates/{id} - updates a template
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "template")
	if !ok {
		return
	}

	var template models.Template
	if err := json.NewDecoder(r.Body).Decode(&template); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}
	template.ID = id

	if err := h.templateService.UpdateTemplate(r.Context(), &template); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, template)
}

// Delete handles DELETE /templates/{id} - deletes an unused template
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "template")
	if !ok {
		return
	}

	if err := h.templateService.DeleteTemplate(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// Preview handles POST /templates/preview - renders content with a sample name
func (h *TemplateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	if req.Content == "" {
		WriteValidationError(w, "content is required")
		return
	}

	name := req.Name
	if name == "" {
		name = "Jane Doe"
	}

	rendered := h.templateService.Render(req.Content, name)
	WriteOK(w, PreviewResponse{Rendered: rendered})
}

// PreviewRequest represents a template preview request
type PreviewRequest struct {
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// PreviewResponse represents a rendered template preview
type PreviewResponse struct {
	Rendered string `json:"rendered"`
}
