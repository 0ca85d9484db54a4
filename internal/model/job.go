// internal/model/job.go
package model

import (
	"encoding/json"
	"image"
	"time"

	"github.com/google/uuid"
)

// DocumentKind is the rendering path chosen for a print job
type DocumentKind string

const (
	DocumentKindImage DocumentKind = "IMAGE"
	DocumentKindOrder DocumentKind = "ORDER"
	DocumentKindSale  DocumentKind = "SALE"
)

// PaperWidth is the roll width in millimetres
type PaperWidth int

const (
	PaperWidth58 PaperWidth = 58
	PaperWidth80 PaperWidth = 80
)

// NormalizePaperWidth maps any value other than 58 to 80
func NormalizePaperWidth(mm int) PaperWidth {
	if mm == int(PaperWidth58) {
		return PaperWidth58
	}
	return PaperWidth80
}

// PrintJob is a classified request ready for rendering
type PrintJob struct {
	ID             uuid.UUID       `json:"id"`
	Kind           DocumentKind    `json:"kind"`
	PaperWidth     PaperWidth      `json:"paper_width"`
	OpenCashDrawer bool            `json:"open_cash_drawer"`
	Image          image.Image     `json:"-"`
	Document       json.RawMessage `json:"-"`
	ReceivedAt     time.Time       `json:"received_at"`
	RequestID      string          `json:"request_id,omitempty"`
}

// PrintResult is returned to the caller once the job reached the printer
type PrintResult struct {
	JobID      uuid.UUID    `json:"job_id"`
	Kind       DocumentKind `json:"kind"`
	PaperWidth PaperWidth   `json:"paper_width"`
	Bytes      int          `json:"bytes"`
	Attempts   int          `json:"attempts"`
	DurationMs int64        `json:"duration_ms"`
	Fallback   bool         `json:"fallback,omitempty"`
}
