package service

import (
	"context"
	"database/sql"
	"time"
)

// HealthStatus represents the health of the application
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// EventsState reports whether the event publisher is connected
type EventsState interface {
	IsConnected() bool
}

// HealthService checks the health of application dependencies
type HealthService struct {
	db     *sql.DB
	events EventsState
}

// NewHealthService creates a new health service. events may be nil when
// event publishing is disabled.
func NewHealthService(db *sql.DB, events EventsState) *HealthService {
	return &HealthService{
		db:     db,
		events: events,
	}
}

// Check performs health checks on all dependencies
func (s *HealthService) Check(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string),
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(pingCtx); err != nil {
		status.Status = "unhealthy"
		status.Checks["database"] = "unreachable: " + err.Error()
	} else {
		status.Checks["database"] = "ok"
	}

	switch {
	case s.events == nil:
		status.Checks["events"] = "disabled"
	case s.events.IsConnected():
		status.Checks["events"] = "ok"
	default:
		// Events are best-effort; a down broker degrades, not fails.
		status.Checks["events"] = "disconnected"
	}

	return status
}
