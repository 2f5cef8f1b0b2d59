package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"mailreach/internal/service"
)

func TestHandleServiceError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			err:        &service.NotFoundError{Resource: "campaign", ID: 7},
			wantStatus: http.StatusNotFound,
			wantCode:   "RESOURCE_NOT_FOUND",
		},
		{
			name:       "validation",
			err:        &service.ValidationError{Message: "name is required"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "business logic",
			err:        &service.BusinessLogicError{Message: "campaign can only be started from draft"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "BUSINESS_LOGIC_ERROR",
		},
		{
			name:       "conflict",
			err:        &service.ConflictError{Resource: "campaign", Message: "name taken"},
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
		{
			name:       "precondition",
			err:        &service.PreconditionError{Message: "no primary server configured"},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "PRECONDITION_FAILED",
		},
		{
			name:       "scan",
			err:        &service.ScanError{Message: "IMAP login failed"},
			wantStatus: http.StatusBadGateway,
			wantCode:   "SCAN_FAILED",
		},
		{
			name:       "unknown",
			err:        fmt.Errorf("database is on fire"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			HandleServiceError(resp, tt.err)

			if resp.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, resp.Code)
			}

			var errResp ErrorResponse
			if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if errResp.Error.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, errResp.Error.Code)
			}
		})
	}
}
