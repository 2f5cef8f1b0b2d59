package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"mailreach/internal/service"
)

// ServerHandler handles HTTP requests for server administration
type ServerHandler struct {
	serverService *service.ServerService
}

// NewServerHandler creates a new server handler
func NewServerHandler(serverService *service.ServerService) *ServerHandler {
	return &ServerHandler{
		serverService: serverService,
	}
}

// Create handles POST /servers - registers a server
func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	server, err := h.serverService.CreateServer(r.Context(), &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteCreated(w, server)
}

// List handles GET /servers - lists registered servers
func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	servers, err := h.serverService.ListServers(r.Context())
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, servers)
}

// GetByID handles GET /servers/{id} - gets a server by ID
func (h *ServerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "server")
	if !ok {
		return
	}

	server, err := h.serverService.GetServer(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, server)
}

// Update handles PUT /servers/{id} - edits a server's credentials
func (h *ServerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "server")
	if !ok {
		return
	}

	var req service.CreateServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err == io.EOF {
			WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is empty")
			return
		}
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON format")
		return
	}

	server, err := h.serverService.UpdateServer(r.Context(), id, &req)
	if err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteOK(w, server)
}

// SetPrimary handles POST /servers/{id}/primary - promotes a server
func (h *ServerHandler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "server")
	if !ok {
		return
	}

	if err := h.serverService.SetPrimary(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}

// Delete handles DELETE /servers/{id} - removes a non-primary server
func (h *ServerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "server")
	if !ok {
		return
	}

	if err := h.serverService.DeleteServer(r.Context(), id); err != nil {
		HandleServiceError(w, err)
		return
	}

	WriteNoContent(w)
}
