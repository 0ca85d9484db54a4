// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventJobReceived    EventType = "JOB_RECEIVED"
	EventJobPrinted     EventType = "JOB_PRINTED"
	EventJobFailed      EventType = "JOB_FAILED"
	EventPrinterOpened  EventType = "PRINTER_OPENED"
	EventPrinterClosed  EventType = "PRINTER_CLOSED"
	EventPrinterRetried EventType = "PRINTER_RETRIED"
)

// JobEvent represents a print job lifecycle event
type JobEvent struct {
	ID        uuid.UUID              `json:"id"`
	EventType EventType              `json:"event_type"`
	JobID     uuid.UUID              `json:"job_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Severity  string                 `json:"severity"` // INFO, WARNING, ERROR
}

// NewJobEvent stamps a new event for the given job
func NewJobEvent(eventType EventType, jobID uuid.UUID, severity string, data map[string]interface{}) JobEvent {
	return JobEvent{
		ID:        uuid.New(),
		EventType: eventType,
		JobID:     jobID,
		Data:      data,
		Timestamp: time.Now(),
		Source:    "print-service",
		Severity:  severity,
	}
}
